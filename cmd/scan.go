// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Thermoquad/foxstat/pkg/fox"
	"github.com/Thermoquad/foxstat/pkg/foxproto"
)

var errNoFoxes = errors.New("no transmitters found")

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Find transmitters on every serial port",
	Long: `Ask every serial port for its fox number and print the resulting map.

Ports that cannot be opened or do not answer within the read timeout are
skipped. When two ports report the same number the later port wins and a
warning is printed.

Examples:
  # Scan all local serial ports
  foxstat scan

  # Check a single port
  foxstat scan --port /dev/ttyUSB0

Exit codes:
  0 - At least one transmitter found
  1 - No transmitters found
  2 - Connection error`,
	Args: cobra.NoArgs,
	RunE: runScan,
}

func init() {
	rootCmd.AddCommand(scanCmd)
}

func runScan(cmd *cobra.Command, args []string) error {
	conn, _, err := app.connect()
	if err != nil {
		return err
	}

	fmt.Printf("Foxstat - Transmitter Scan\n")
	fmt.Printf("Connection: %s\n\n", conn.info)

	devices, err := scanDevices(true)
	if err != nil {
		return err
	}

	printDeviceMap(devices)

	if len(devices.LiveIDs()) == 0 {
		fmt.Printf("No transmitters found. Check cables and power.\n")
		return errNoFoxes
	}
	return nil
}

// scanDevices runs one scan, optionally printing each probed port
func scanDevices(progress bool) (*fox.DeviceMap, error) {
	scanner, err := app.scanner()
	if err != nil {
		return nil, err
	}
	if progress {
		scanner.OnPort = func(port string) {
			fmt.Printf("Probing %s...\n", port)
		}
	}
	devices, err := scanner.Scan()
	if err != nil {
		return nil, &connectionError{err}
	}
	return devices, nil
}

func printDeviceMap(devices *fox.DeviceMap) {
	fmt.Printf("\n--- Scan summary ---\n")
	fmt.Printf("Ports scanned: %d\n", len(devices.Scanned))

	for id := foxproto.MinDeviceID; id <= foxproto.MaxDeviceID; id++ {
		port, ok := devices.Port(id)
		if !ok {
			fmt.Printf("  %-6s not connected\n", foxName(id))
			continue
		}
		fmt.Printf("  %-6s %s\n", foxName(id), port)
	}

	for _, id := range devices.Ambiguous() {
		fmt.Printf("WARNING: %s answered on %s\n", foxName(id), strings.Join(devices.Claims(id), ", "))
	}
}

// foxName labels a fox number for display
func foxName(id int) string {
	if id == foxproto.DemoDeviceID {
		return "Demo"
	}
	return fmt.Sprintf("Fox %d", id)
}
