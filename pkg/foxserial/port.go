// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package foxserial

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"
)

const readChunkSize = 256

// Port is an open line-oriented connection to one transmitter.
//
// Reads and writes are not safe for concurrent use. Close may be called from
// another goroutine to unblock a reader.
type Port struct {
	name    string
	conn    Conn
	timeout time.Duration

	pending []byte
	chunk   []byte

	closeOnce sync.Once
	closeErr  error
}

// NewPort wraps a raw connection. timeout bounds each ReadLine call.
func NewPort(name string, conn Conn, timeout time.Duration) *Port {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Port{
		name:    name,
		conn:    conn,
		timeout: timeout,
		chunk:   make([]byte, readChunkSize),
	}
}

// Name returns the port name the connection was opened with
func (p *Port) Name() string {
	return p.name
}

// WriteLine sends text followed by CRLF. The transmitter does not echo input.
func (p *Port) WriteLine(text string) error {
	data := []byte(text + "\r\n")
	for len(data) > 0 {
		n, err := p.conn.Write(data)
		if err != nil {
			return fmt.Errorf("%w: %s: %v", ErrWrite, p.name, err)
		}
		if n == 0 {
			return fmt.Errorf("%w: %s: short write", ErrWrite, p.name)
		}
		data = data[n:]
	}
	return nil
}

// ReadLine returns the next line with its terminator removed.
//
// Everything from the first CR onwards is dropped; a line without CR loses a
// trailing LF. A device line that is empty apart from its terminator is
// returned as "". When nothing arrives before the read timeout the result is
// ErrReadTimeout. Bytes received before the timeout without a terminator are
// returned as a partial line.
func (p *Port) ReadLine() (string, error) {
	deadline := time.Now().Add(p.timeout)
	for {
		if line, ok := p.takeLine(); ok {
			return line, nil
		}

		n, err := p.conn.Read(p.chunk)
		if n > 0 {
			p.pending = append(p.pending, p.chunk[:n]...)
		}
		if err != nil {
			if line, ok := p.takeLine(); ok {
				return line, nil
			}
			if errors.Is(err, ErrConnectionClosed) || errors.Is(err, io.EOF) || errors.Is(err, io.ErrClosedPipe) {
				return "", fmt.Errorf("%w: %s", ErrConnectionClosed, p.name)
			}
			return "", fmt.Errorf("%w: %s: %v", ErrRead, p.name, err)
		}

		if n == 0 || !time.Now().Before(deadline) {
			if line, ok := p.takeLine(); ok {
				return line, nil
			}
			return p.takePartial()
		}
	}
}

func (p *Port) takeLine() (string, bool) {
	i := bytes.IndexByte(p.pending, '\n')
	if i < 0 {
		return "", false
	}
	line := TruncateLine(string(p.pending[:i+1]))
	p.pending = append(p.pending[:0], p.pending[i+1:]...)
	return line, true
}

func (p *Port) takePartial() (string, error) {
	if len(p.pending) == 0 {
		return "", ErrReadTimeout
	}
	line := TruncateLine(string(p.pending))
	p.pending = p.pending[:0]
	return line, nil
}

// Flush discards all input received but not yet read
func (p *Port) Flush() error {
	p.pending = p.pending[:0]
	if err := p.conn.ResetInputBuffer(); err != nil {
		return fmt.Errorf("%w: %s: flush: %v", ErrRead, p.name, err)
	}
	return nil
}

// Close releases the connection. Further calls are no-ops.
func (p *Port) Close() error {
	p.closeOnce.Do(func() {
		p.closeErr = p.conn.Close()
	})
	return p.closeErr
}

// TruncateLine strips a raw line down to its text: the prefix before the
// first CR, or the line minus a trailing LF when there is no CR.
func TruncateLine(raw string) string {
	if i := strings.IndexByte(raw, '\r'); i >= 0 {
		return raw[:i]
	}
	return strings.TrimSuffix(raw, "\n")
}
