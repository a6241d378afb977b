// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package foxserial

import "time"

// Opener opens a named port
type Opener interface {
	Open(name string) (*Port, error)
}

// PortLister enumerates candidate port names
type PortLister func() ([]string, error)

// SerialOpener opens local serial ports
type SerialOpener struct {
	BaudRate int
	Timeout  time.Duration
}

// NewSerialOpener returns an opener with the console's fixed line settings
func NewSerialOpener() SerialOpener {
	return SerialOpener{BaudRate: DefaultBaudRate, Timeout: DefaultTimeout}
}

func (o SerialOpener) Open(name string) (*Port, error) {
	baud := o.BaudRate
	if baud == 0 {
		baud = DefaultBaudRate
	}
	timeout := o.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	conn, err := OpenSerialConn(name, baud, timeout)
	if err != nil {
		return nil, err
	}
	return NewPort(name, conn, timeout), nil
}

// WebSocketOpener treats the port name as a bridge URL
type WebSocketOpener struct {
	Username      string
	Password      string
	SkipSSLVerify bool
	Timeout       time.Duration
}

func (o WebSocketOpener) Open(name string) (*Port, error) {
	timeout := o.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	conn, err := DialWebSocket(name, o.Username, o.Password, o.SkipSSLVerify, timeout)
	if err != nil {
		return nil, err
	}
	return NewPort(name, conn, timeout), nil
}

// StaticPorts returns a lister that always reports the given names
func StaticPorts(names ...string) PortLister {
	return func() ([]string, error) {
		out := make([]string, len(names))
		copy(out, names)
		return out, nil
	}
}
