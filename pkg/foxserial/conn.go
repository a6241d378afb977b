// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package foxserial

import (
	"fmt"
	"io"
	"time"

	"go.bug.st/serial"
)

const (
	// DefaultBaudRate is the fixed baud rate of the transmitter console
	DefaultBaudRate = 38400

	// DefaultTimeout bounds every blocking read
	DefaultTimeout = 500 * time.Millisecond
)

// Conn is a raw byte connection to a transmitter.
//
// Read returns (0, nil) when the read timeout elapses without data, the same
// contract go.bug.st/serial uses for ports with a read timeout.
type Conn interface {
	io.Reader
	io.Writer
	io.Closer
	ResetInputBuffer() error
}

// SerialConn wraps a serial port
type SerialConn struct {
	port serial.Port
}

func (s *SerialConn) Read(p []byte) (int, error) {
	return s.port.Read(p)
}

func (s *SerialConn) Write(p []byte) (int, error) {
	return s.port.Write(p)
}

func (s *SerialConn) Close() error {
	return s.port.Close()
}

// ResetInputBuffer discards bytes received but not yet read
func (s *SerialConn) ResetInputBuffer() error {
	return s.port.ResetInputBuffer()
}

// OpenSerialConn opens a serial port in 8N1 mode with the given read timeout
func OpenSerialConn(portName string, baudRate int, timeout time.Duration) (*SerialConn, error) {
	mode := &serial.Mode{
		BaudRate: baudRate,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}

	port, err := serial.Open(portName, mode)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to open serial port %s: %v", ErrPortUnavailable, portName, err)
	}

	if err := port.SetReadTimeout(timeout); err != nil {
		port.Close()
		return nil, fmt.Errorf("%w: failed to set read timeout on %s: %v", ErrPortUnavailable, portName, err)
	}

	return &SerialConn{port: port}, nil
}

// ListPorts returns the serial ports currently present on the system.
// An empty list is not an error.
func ListPorts() ([]string, error) {
	ports, err := serial.GetPortsList()
	if err != nil {
		return nil, fmt.Errorf("failed to enumerate serial ports: %w", err)
	}
	return ports, nil
}
