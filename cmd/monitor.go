// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/Thermoquad/foxstat/pkg/foxproto"
	"github.com/Thermoquad/foxstat/pkg/foxserial"
)

var monitorSend string

var monitorCmd = &cobra.Command{
	Use:   "monitor [fox]",
	Short: "Display every line a transmitter prints",
	Long: `Continuously display the console output of one transmitter with
timestamps, for debugging in the field.

With a fox number the transmitter is found by scanning; otherwise --port or
--url names the port. --send writes one command line before monitoring.

Examples:
  foxstat monitor --port /dev/ttyUSB0
  foxstat monitor 3 --send "get fox number "`,
	Args: cobra.MaximumNArgs(1),
	RunE: runMonitor,
}

var sendCmd = &cobra.Command{
	Use:   "send <fox> <command...>",
	Short: "Send one console command and print the reply",
	Long: `Send a console command to a transmitter and print every reply line up
to the prompt, followed by whether the reply was an acknowledgement.

Examples:
  foxstat send 1 get fox number
  foxstat send 2 set blinking on`,
	Args: cobra.MinimumNArgs(2),
	RunE: runSend,
}

func init() {
	rootCmd.AddCommand(monitorCmd)
	rootCmd.AddCommand(sendCmd)
	monitorCmd.Flags().StringVarP(&monitorSend, "send", "s", "", "Command line to send before monitoring")
}

// monitorPort resolves the optional fox argument to a port name
func monitorPort(args []string) (string, error) {
	if len(args) == 0 {
		port, _, err := singlePort()
		return port, err
	}
	id, err := foxArg(args[0])
	if err != nil {
		return "", err
	}
	return app.resolvePort(id)
}

func runMonitor(cmd *cobra.Command, args []string) error {
	portName, err := monitorPort(args)
	if err != nil {
		return err
	}
	port, err := app.client.Open(portName)
	if err != nil {
		return &connectionError{err}
	}
	defer port.Close()

	fmt.Printf("Foxstat - Console Monitor\n")
	fmt.Printf("Connection: %s\n", app.conn.info)
	fmt.Printf("Port: %s\n", portName)
	fmt.Printf("Press Ctrl+C to exit\n\n")

	if monitorSend != "" {
		if err := port.WriteLine(monitorSend); err != nil {
			return err
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	for ctx.Err() == nil {
		line, err := port.ReadLine()
		switch {
		case err == nil:
			fmt.Printf("[%s] %s\n", time.Now().Format("15:04:05.000"), line)
		case errors.Is(err, foxserial.ErrReadTimeout):
		case errors.Is(err, foxserial.ErrConnectionClosed):
			app.log.WithField("port", portName).Info("connection closed")
			return nil
		default:
			app.log.WithField("port", portName).WithError(err).Warn("read error")
		}
	}
	return nil
}

func runSend(cmd *cobra.Command, args []string) error {
	id, err := foxArg(args[0])
	if err != nil {
		return err
	}
	portName, err := app.resolvePort(id)
	if err != nil {
		return err
	}
	port, err := app.client.Open(portName)
	if err != nil {
		return &connectionError{err}
	}
	defer port.Close()

	if err := port.Flush(); err != nil {
		return err
	}
	if err := app.client.SendCommand(port, strings.Join(args[1:], " "), ""); err != nil {
		return err
	}
	lines, err := foxproto.ReadUntilPrompt(port)
	if err != nil {
		return err
	}

	for _, line := range lines {
		fmt.Println(line)
	}
	if err := foxproto.CheckResponse(lines); err != nil {
		fmt.Printf("--- not acknowledged\n")
		return err
	}
	fmt.Printf("--- OK\n")
	return nil
}
