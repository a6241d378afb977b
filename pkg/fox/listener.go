// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package fox

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/Thermoquad/foxstat/pkg/foxproto"
	"github.com/Thermoquad/foxstat/pkg/foxserial"
	"github.com/Thermoquad/foxstat/pkg/logging"
)

const (
	DefaultPollInterval = 100 * time.Millisecond
	DefaultQueueSize    = 16
)

// ListenerOptions tune a Listener
type ListenerOptions struct {
	PollInterval time.Duration
	QueueSize    int
}

// Listener watches one open port for tag blocks and turns each into a
// TagRecord. Records and parse failures are delivered on channels that are
// closed when Run returns.
type Listener struct {
	port     foxproto.LineReader
	expected [foxproto.FieldUnits]int
	poll     time.Duration
	log      logrus.FieldLogger
	now      func() time.Time

	records chan foxproto.TagRecord
	errs    chan error

	mu    sync.Mutex
	stats *ListenerStats
}

// NewListener creates a listener that checks tags against expected secrets.
// The caller owns the port and should close it after Run returns.
func NewListener(port foxproto.LineReader, expected [foxproto.FieldUnits]int, opts ListenerOptions, log logrus.FieldLogger) *Listener {
	if opts.PollInterval <= 0 {
		opts.PollInterval = DefaultPollInterval
	}
	if opts.QueueSize <= 0 {
		opts.QueueSize = DefaultQueueSize
	}
	return &Listener{
		port:     port,
		expected: expected,
		poll:     opts.PollInterval,
		log:      logging.OrDiscard(log),
		now:      time.Now,
		records:  make(chan foxproto.TagRecord, opts.QueueSize),
		errs:     make(chan error, opts.QueueSize),
		stats:    NewListenerStats(),
	}
}

// Records delivers one record per well-formed tag block
func (l *Listener) Records() <-chan foxproto.TagRecord {
	return l.records
}

// Errors delivers malformed block reports. Reports are dropped when nobody
// drains the channel.
func (l *Listener) Errors() <-chan error {
	return l.errs
}

// Stats returns a snapshot of the running counters
func (l *Listener) Stats() ListenerStats {
	l.mu.Lock()
	defer l.mu.Unlock()
	return *l.stats
}

// Run reads until ctx is cancelled or the port fails. Cancellation returns
// nil; a port failure is returned after logging.
func (l *Listener) Run(ctx context.Context) error {
	defer close(l.records)
	defer close(l.errs)

	l.log.Info("listening for tags")
	for {
		if ctx.Err() != nil {
			l.log.Info("listener stopped")
			return nil
		}

		line, err := l.port.ReadLine()
		if err != nil && !errors.Is(err, foxserial.ErrReadTimeout) {
			return l.portFailed(ctx, err)
		}

		if err == nil && strings.Contains(line, foxproto.NewTagToken) {
			l.count(func(s *ListenerStats) { s.lineRead(false) })
			if err := l.readBlock(ctx); err != nil {
				return l.portFailed(ctx, err)
			}
			continue
		}

		if err == nil {
			l.count(func(s *ListenerStats) { s.lineRead(true) })
		}

		select {
		case <-ctx.Done():
		case <-time.After(l.poll):
		}
	}
}

func (l *Listener) portFailed(ctx context.Context, err error) error {
	if ctx.Err() != nil {
		l.log.Info("listener stopped")
		return nil
	}
	l.log.WithError(err).Warn("listener stopped: port failed")
	return fmt.Errorf("tag listener: %w", err)
}

// readBlock consumes one tag block. Only transport failures are returned;
// a malformed block is reported on Errors.
func (l *Listener) readBlock(ctx context.Context) error {
	lines, err := foxproto.ReadUntilTagBlockEnd(l.port)
	if err != nil {
		return err
	}

	block, err := foxproto.ParseTagBlock(lines)
	if err != nil {
		l.count(func(s *ListenerStats) { s.blockRead("", true) })
		l.log.WithError(err).Warn("discarding malformed tag block")
		select {
		case l.errs <- err:
		default:
		}
		return nil
	}

	rec := foxproto.NewTagRecord(block, l.expected, l.now())
	l.count(func(s *ListenerStats) { s.blockRead(rec.Match, false) })
	l.log.WithFields(logrus.Fields{"tag_id": rec.TagID, "match": rec.Match}).Info("tag read")

	select {
	case l.records <- rec:
	case <-ctx.Done():
	}
	return nil
}

func (l *Listener) count(update func(*ListenerStats)) {
	l.mu.Lock()
	defer l.mu.Unlock()
	update(l.stats)
}
