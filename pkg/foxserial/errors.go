// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package foxserial

import "errors"

var (
	// ErrPortUnavailable is returned when a port cannot be opened or configured
	ErrPortUnavailable = errors.New("port unavailable")

	// ErrWrite is returned when a line cannot be written to the link
	ErrWrite = errors.New("write error")

	// ErrRead is returned for read faults other than a timeout
	ErrRead = errors.New("read error")

	// ErrReadTimeout signals that no bytes arrived within the read timeout.
	// Line readers treat it as end-of-stream.
	ErrReadTimeout = errors.New("read timeout")

	// ErrConnectionClosed is returned when reading from a closed connection
	ErrConnectionClosed = errors.New("connection closed")
)
