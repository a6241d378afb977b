// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package foxserial

import (
	"context"
	"crypto/tls"
	"encoding/base64"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// WebSocketConn carries the transmitter console over a WebSocket serial
// bridge. Messages are pumped into a channel by a background reader so a
// Read can give up after the timeout without poisoning the connection.
type WebSocketConn struct {
	conn     *websocket.Conn
	timeout  time.Duration
	messages chan []byte
	done     chan struct{}

	buf       []byte
	bufOffset int

	writeMu   sync.Mutex
	closeOnce sync.Once

	errMu   sync.Mutex
	readErr error
}

// DialWebSocket connects to a serial bridge with optional HTTP Basic auth
func DialWebSocket(wsURL, username, password string, skipSSLVerify bool, timeout time.Duration) (*WebSocketConn, error) {
	u, err := url.Parse(wsURL)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid URL: %v", ErrPortUnavailable, err)
	}

	switch u.Scheme {
	case "ws", "wss":
		// OK
	default:
		return nil, fmt.Errorf("%w: unsupported URL scheme: %s (use ws:// or wss://)", ErrPortUnavailable, u.Scheme)
	}

	dialer := websocket.Dialer{
		HandshakeTimeout: 10 * time.Second,
	}

	if u.Scheme == "wss" {
		dialer.TLSClientConfig = &tls.Config{
			InsecureSkipVerify: skipSSLVerify,
		}
	}

	headers := http.Header{}
	if username != "" && password != "" {
		credentials := base64.StdEncoding.EncodeToString([]byte(username + ":" + password))
		headers.Set("Authorization", "Basic "+credentials)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	conn, resp, err := dialer.DialContext(ctx, wsURL, headers)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("%w: WebSocket connection failed (HTTP %d): %v", ErrPortUnavailable, resp.StatusCode, err)
		}
		return nil, fmt.Errorf("%w: WebSocket connection failed: %v", ErrPortUnavailable, err)
	}

	w := &WebSocketConn{
		conn:     conn,
		timeout:  timeout,
		messages: make(chan []byte, 64),
		done:     make(chan struct{}),
	}
	go w.pump()
	return w, nil
}

func (w *WebSocketConn) pump() {
	defer close(w.messages)
	for {
		messageType, data, err := w.conn.ReadMessage()
		if err != nil {
			w.errMu.Lock()
			w.readErr = err
			w.errMu.Unlock()
			return
		}

		// The bridge forwards console bytes; text and binary are equivalent
		if messageType != websocket.TextMessage && messageType != websocket.BinaryMessage {
			continue
		}

		select {
		case w.messages <- data:
		case <-w.done:
			return
		}
	}
}

func (w *WebSocketConn) closedError() error {
	w.errMu.Lock()
	defer w.errMu.Unlock()
	if w.readErr != nil {
		return fmt.Errorf("%w: %v", ErrConnectionClosed, w.readErr)
	}
	return ErrConnectionClosed
}

func (w *WebSocketConn) Read(p []byte) (int, error) {
	if w.bufOffset < len(w.buf) {
		n := copy(p, w.buf[w.bufOffset:])
		w.bufOffset += n
		return n, nil
	}

	timer := time.NewTimer(w.timeout)
	defer timer.Stop()

	select {
	case data, ok := <-w.messages:
		if !ok {
			return 0, w.closedError()
		}
		w.buf = data
		n := copy(p, w.buf)
		w.bufOffset = n
		return n, nil
	case <-timer.C:
		return 0, nil
	case <-w.done:
		return 0, ErrConnectionClosed
	}
}

func (w *WebSocketConn) Write(p []byte) (int, error) {
	w.writeMu.Lock()
	defer w.writeMu.Unlock()

	if err := w.conn.WriteMessage(websocket.TextMessage, p); err != nil {
		return 0, err
	}
	return len(p), nil
}

// ResetInputBuffer drops buffered and queued messages
func (w *WebSocketConn) ResetInputBuffer() error {
	w.buf = nil
	w.bufOffset = 0
	for {
		select {
		case _, ok := <-w.messages:
			if !ok {
				return nil
			}
		default:
			return nil
		}
	}
}

func (w *WebSocketConn) Close() error {
	var err error
	w.closeOnce.Do(func() {
		close(w.done)
		err = w.conn.Close()
	})
	return err
}
