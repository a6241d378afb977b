// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package fox

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Thermoquad/foxstat/pkg/foxproto"
	"github.com/Thermoquad/foxstat/pkg/foxserial"
	"github.com/Thermoquad/foxstat/pkg/foxsim"
)

var expectedSecrets = [foxproto.FieldUnits]int{11, 22, 33, 44, 55}

func startListener(t *testing.T) (*Listener, *foxsim.Device, *foxserial.Port, context.CancelFunc, <-chan error) {
	t.Helper()

	d := foxsim.NewDevice(1)
	bench := foxsim.NewBench(0)
	bench.Attach("reader", d)
	port, err := bench.Open("reader")
	require.NoError(t, err)
	t.Cleanup(func() { port.Close() })

	l := NewListener(port, expectedSecrets, ListenerOptions{PollInterval: 5 * time.Millisecond}, nil)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	done := make(chan error, 1)
	go func() { done <- l.Run(ctx) }()
	return l, d, port, cancel, done
}

func tagBlock(tagID int, secrets [foxproto.FieldUnits]int) *foxproto.TagBlock {
	block := &foxproto.TagBlock{TagID: tagID, Secrets: secrets}
	for j := range block.History {
		block.History[j][0] = foxproto.HistoryEntry{TagID: tagID, Seconds: 60 * (j + 1)}
	}
	return block
}

func waitRecord(t *testing.T, l *Listener) foxproto.TagRecord {
	t.Helper()
	select {
	case rec := <-l.Records():
		return rec
	case <-time.After(2 * time.Second):
		t.Fatal("no tag record")
	}
	return foxproto.TagRecord{}
}

func TestListenerEmitsOneRecordPerBlock(t *testing.T) {
	l, d, _, cancel, done := startListener(t)

	d.EmitLines("noise", "ARDF Transmitter# ")
	d.EmitTag(tagBlock(42, [foxproto.FieldUnits]int{11, 22, 99, 44, 55}))

	rec := waitRecord(t, l)
	assert.Equal(t, 42, rec.TagID)
	assert.Equal(t, "yynyy", rec.Match)
	assert.Equal(t, [foxproto.FieldUnits]int{60, 120, 180, 240, 300}, rec.Timestamps)

	cancel()
	require.NoError(t, <-done)

	_, open := <-l.Records()
	assert.False(t, open, "no second record")

	stats := l.Stats()
	assert.EqualValues(t, 1, stats.Records)
	assert.EqualValues(t, 1, stats.PartialMatches)
	assert.GreaterOrEqual(t, stats.LinesDiscarded, uint64(2))
}

func TestListenerSurvivesMalformedBlock(t *testing.T) {
	l, d, _, cancel, done := startListener(t)

	d.EmitLines(foxproto.NewTagToken, "", "Tag ID: 5", foxproto.EndTagToken)

	select {
	case err := <-l.Errors():
		assert.ErrorIs(t, err, foxproto.ErrMalformedResponse)
	case <-time.After(2 * time.Second):
		t.Fatal("no malformed block report")
	}

	d.EmitTag(tagBlock(7, expectedSecrets))
	rec := waitRecord(t, l)
	assert.Equal(t, 7, rec.TagID)
	assert.True(t, rec.AllMatch())

	cancel()
	require.NoError(t, <-done)

	stats := l.Stats()
	assert.EqualValues(t, 2, stats.TagBlocks)
	assert.EqualValues(t, 1, stats.MalformedBlocks)
	assert.EqualValues(t, 1, stats.FullMatches)
	assert.Contains(t, stats.String(), "Malformed Blocks")
}

func TestListenerReaderErrorBlock(t *testing.T) {
	l, d, _, cancel, done := startListener(t)

	d.EmitLines(foxproto.NewTagToken, "", "--- ERROR TAG 0x55005500 ---")

	select {
	case err := <-l.Errors():
		assert.ErrorIs(t, err, foxproto.ErrMalformedResponse)
	case <-time.After(2 * time.Second):
		t.Fatal("no error report")
	}

	cancel()
	require.NoError(t, <-done)
}

func TestListenerStopsWhenPortCloses(t *testing.T) {
	l, _, port, _, done := startListener(t)

	time.Sleep(20 * time.Millisecond)
	require.NoError(t, port.Close())

	select {
	case err := <-done:
		assert.ErrorIs(t, err, foxserial.ErrConnectionClosed)
	case <-time.After(2 * time.Second):
		t.Fatal("listener did not stop")
	}

	_, open := <-l.Records()
	assert.False(t, open)
}
