// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/Thermoquad/foxstat/pkg/foxproto"
)

var (
	pingCount    int
	pingInterval time.Duration
)

var pingCmd = &cobra.Command{
	Use:   "ping [fox]",
	Short: "Measure console round trips to a transmitter",
	Long: `Ask a transmitter for its fox number repeatedly and report the round
trip time of each reply.

This is useful for verifying:
  - The serial cable or WebSocket bridge passes data both ways
  - HTTP Basic authentication works (WebSocket bridge)
  - The transmitter console is responsive

With a fox number the transmitter is found by scanning; otherwise --port or
--url names the port.

Exit codes:
  0 - All pings answered
  1 - One or more pings failed
  2 - Connection error`,
	Args: cobra.MaximumNArgs(1),
	RunE: runPing,
}

func init() {
	rootCmd.AddCommand(pingCmd)
	pingCmd.Flags().IntVar(&pingCount, "count", 3, "Number of pings to send")
	pingCmd.Flags().DurationVar(&pingInterval, "interval", 100*time.Millisecond, "Delay between pings")
}

func runPing(cmd *cobra.Command, args []string) error {
	portName, err := monitorPort(args)
	if err != nil {
		return err
	}
	port, err := app.client.Open(portName)
	if err != nil {
		return &connectionError{err}
	}
	defer port.Close()

	fmt.Printf("Foxstat - Console Ping\n")
	fmt.Printf("Connection: %s\n", app.conn.info)
	fmt.Printf("Port: %s\n", portName)
	fmt.Printf("Count: %d pings\n\n", pingCount)

	if err := port.Flush(); err != nil {
		return err
	}

	successCount := 0
	failCount := 0
	var total, best, worst time.Duration

	for i := 1; i <= pingCount; i++ {
		fmt.Printf("Ping %d/%d: ", i, pingCount)

		startTime := time.Now()
		lines, err := app.client.Exchange(port, foxproto.Command{Keyword: foxproto.CmdGetFoxNumber})
		rtt := time.Since(startTime)

		switch {
		case err == nil:
			id, parseErr := foxproto.ParseInt(lines[0], foxproto.MinDeviceID, foxproto.MaxDeviceID)
			if parseErr != nil {
				fmt.Printf("BAD REPLY: %v\n", parseErr)
				failCount++
				break
			}
			fmt.Printf("reply from %s, rtt=%v\n", foxName(id), rtt.Round(time.Millisecond))
			successCount++
			total += rtt
			if best == 0 || rtt < best {
				best = rtt
			}
			if rtt > worst {
				worst = rtt
			}
		case errors.Is(err, foxproto.ErrMalformedResponse):
			fmt.Printf("NOT ACKNOWLEDGED: %v\n", err)
			failCount++
			// Drop whatever is left of the reply before the next ping
			port.Flush()
		default:
			fmt.Printf("FAILED: %v\n", err)
			failCount++
		}

		// Small delay between pings
		if i < pingCount {
			time.Sleep(pingInterval)
		}
	}

	// Summary
	fmt.Printf("\n--- Ping statistics ---\n")
	fmt.Printf("%d pings sent, %d replies received, %.0f%% loss\n",
		pingCount, successCount, float64(failCount)/float64(max(pingCount, 1))*100)
	if successCount > 0 {
		fmt.Printf("rtt min/avg/max = %v/%v/%v\n",
			best.Round(time.Millisecond),
			(total / time.Duration(successCount)).Round(time.Millisecond),
			worst.Round(time.Millisecond))
	}

	if failCount > 0 {
		return fmt.Errorf("%d of %d pings failed", failCount, pingCount)
	}
	return nil
}
