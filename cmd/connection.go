// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"
	"syscall"

	"golang.org/x/term"

	"github.com/Thermoquad/foxstat/pkg/config"
	"github.com/Thermoquad/foxstat/pkg/foxproto"
	"github.com/Thermoquad/foxstat/pkg/foxserial"
	"github.com/Thermoquad/foxstat/pkg/foxsim"
)

// connectionError marks failures reaching a port; they exit with code 2
type connectionError struct {
	err error
}

func (e *connectionError) Error() string {
	return fmt.Sprintf("connection error: %v", e.err)
}

func (e *connectionError) Unwrap() error {
	return e.err
}

// ExitCode maps a command error to the process exit code
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	var connErr *connectionError
	if errors.As(err, &connErr) ||
		errors.Is(err, foxserial.ErrPortUnavailable) ||
		errors.Is(err, foxserial.ErrConnectionClosed) ||
		errors.Is(err, foxproto.ErrDeviceNotConnected) {
		return 2
	}
	return 1
}

// GetPassword retrieves password from environment or prompts user
func GetPassword() (string, error) {
	// First check environment variable
	if pw := os.Getenv("FOXSTAT_PASSWORD"); pw != "" {
		return pw, nil
	}

	fmt.Fprint(os.Stderr, "Password: ")

	passwordBytes, err := term.ReadPassword(int(syscall.Stdin))
	if err != nil {
		// Fallback to regular input if terminal functions fail
		reader := bufio.NewReader(os.Stdin)
		password, err := reader.ReadString('\n')
		if err != nil {
			return "", fmt.Errorf("failed to read password: %v", err)
		}
		fmt.Fprintln(os.Stderr)
		return strings.TrimSpace(password), nil
	}

	fmt.Fprintln(os.Stderr)
	return string(passwordBytes), nil
}

// connection is how commands reach transmitters
type connection struct {
	opener foxserial.Opener
	lister foxserial.PortLister
	info   string

	// fixed is set when a single port was named on the command line
	fixed string

	// bench holds the emulated transmitters in simulate mode
	bench *foxsim.Bench
}

// openConnection picks serial, WebSocket or simulated transport from flags
// and config
func openConnection(cfg *config.Config) (*connection, error) {
	if simulate {
		bench := foxsim.NewFieldBench(0)
		return &connection{
			opener: bench,
			lister: bench.ListPorts,
			info:   "Simulated: sim0..sim5",
			fixed:  portName,
			bench:  bench,
		}, nil
	}

	url := wsURL
	if url == "" {
		url = cfg.Bridge.URL
	}
	if url != "" {
		username := wsUsername
		if username == "" {
			username = cfg.Bridge.Username
		}
		password := ""
		if username != "" {
			var err error
			password, err = GetPassword()
			if err != nil {
				return nil, err
			}
		}
		return &connection{
			opener: foxserial.WebSocketOpener{
				Username:      username,
				Password:      password,
				SkipSSLVerify: wsNoSSLVerify || cfg.Bridge.SkipSSLVerify,
				Timeout:       cfg.Serial.Timeout,
			},
			lister: foxserial.StaticPorts(url),
			info:   fmt.Sprintf("WebSocket: %s", url),
			fixed:  url,
		}, nil
	}

	baud := baudRate
	if baud == 0 {
		baud = cfg.Serial.BaudRate
	}
	port := portName
	if port == "" {
		port = cfg.Serial.Port
	}

	conn := &connection{
		opener: foxserial.SerialOpener{BaudRate: baud, Timeout: cfg.Serial.Timeout},
		lister: foxserial.ListPorts,
		info:   fmt.Sprintf("Serial: all ports @ %d baud", baud),
		fixed:  port,
	}
	if port != "" {
		conn.lister = foxserial.StaticPorts(port)
		conn.info = fmt.Sprintf("Serial: %s @ %d baud", port, baud)
	}
	return conn, nil
}
