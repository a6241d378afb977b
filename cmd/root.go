// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"github.com/spf13/cobra"

	"github.com/Thermoquad/foxstat/pkg/config"
)

var (
	// Serial connection flags
	portName string
	baudRate int

	// WebSocket connection flags
	wsURL         string
	wsUsername    string
	wsNoSSLVerify bool

	configPath   string
	databasePath string
	simulate     bool
	verbose      bool
)

var rootCmd = &cobra.Command{
	Use:   "foxstat",
	Short: "ARDF fox transmitter programmer and tag reader",
	Long: `Foxstat - A CLI tool for programming ARDF fox transmitters and collecting
participant results from their tag readers.

The transmitters expose a line-oriented console at 38400 baud. Foxstat finds
them by asking every serial port for its fox number, writes the event
settings, writes participant tags and records tag reads as results.

Connection modes:
  Serial:    --port /dev/ttyUSB0 [--baud 38400]  (scan uses every port if omitted)
  WebSocket: --url ws://host/path [--username user]
  Simulated: --simulate  (six emulated transmitters on sim0..sim5)

For WebSocket authentication, the password is read from the FOXSTAT_PASSWORD
environment variable, or prompted interactively if not set. The --password
flag is intentionally not provided to avoid leaking credentials in shell history.

Exit codes:
  0 - Success
  1 - Command failed
  2 - Connection error`,
	Version:           "1.0.0",
	SilenceUsage:      true,
	PersistentPreRunE: setupApp,
}

func init() {
	// Serial connection flags
	rootCmd.PersistentFlags().StringVarP(&portName, "port", "p", "", "Serial port device (overrides scanning)")
	rootCmd.PersistentFlags().IntVarP(&baudRate, "baud", "b", 0, "Baud rate (serial only, default 38400)")

	// WebSocket connection flags
	rootCmd.PersistentFlags().StringVarP(&wsURL, "url", "u", "", "WebSocket serial bridge URL (ws:// or wss://)")
	rootCmd.PersistentFlags().StringVar(&wsUsername, "username", "", "Username for HTTP Basic auth")
	rootCmd.PersistentFlags().BoolVar(&wsNoSSLVerify, "no-ssl-verify", false, "Skip TLS certificate verification (wss:// only)")

	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", config.DefaultPath, "Configuration file")
	rootCmd.PersistentFlags().StringVar(&databasePath, "db", "", "Results database (overrides storage.database_path)")
	rootCmd.PersistentFlags().BoolVar(&simulate, "simulate", false, "Use emulated transmitters instead of real ports")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
}

// Execute runs the root command
func Execute() error {
	defer closeApp()
	return rootCmd.Execute()
}
