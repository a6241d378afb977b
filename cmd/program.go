// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"errors"
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/Thermoquad/foxstat/pkg/fox"
	"github.com/Thermoquad/foxstat/pkg/foxproto"
)

var programAll bool

var programCmd = &cobra.Command{
	Use:   "program [fox...]",
	Short: "Write the event settings to transmitters",
	Long: `Program one or more transmitters with the event settings from the config.

Each transmitter must first confirm its fox number; a port that answers with
another number triggers one rescan before the fox is reported missing. The
settings are then written as one batch, every reply is checked, the clock is
synchronized to this computer and the new schedule is committed.

Field foxes receive their event secret; the demo unit (fox 0) always
receives secret 1 and transmits continuously.

Examples:
  # Program fox 1 and fox 3
  foxstat program 1 3

  # Program every transmitter found by a scan
  foxstat program --all

Exit codes:
  0 - Every selected fox programmed
  1 - At least one fox failed
  2 - Connection error`,
	RunE: runProgram,
}

func init() {
	rootCmd.AddCommand(programCmd)
	programCmd.Flags().BoolVarP(&programAll, "all", "a", false, "Program every transmitter found by a scan")
}

func runProgram(cmd *cobra.Command, args []string) error {
	if programAll == (len(args) > 0) {
		return errors.New("give fox numbers or --all, not both")
	}

	ids := make([]int, 0, len(args))
	for _, arg := range args {
		id, err := foxArg(arg)
		if err != nil {
			return err
		}
		ids = append(ids, id)
	}

	settings, err := app.settings()
	if err != nil {
		return err
	}

	conn, client, err := app.connect()
	if err != nil {
		return err
	}

	fmt.Printf("Foxstat - Program Transmitters\n")
	fmt.Printf("Connection: %s\n", conn.info)
	fmt.Printf("Frequency: %s MHz  Repetition: %d min  Speed: %d wpm  Amplitude: %d%%\n\n",
		foxproto.FormatMHz(foxproto.MHzToHz(settings.FrequencyMHz)),
		settings.Repetition, settings.MorseSpeed, settings.Amplitude)

	scanner, err := app.scanner()
	if err != nil {
		return err
	}

	var devices *fox.DeviceMap
	if conn.fixed != "" && len(ids) == 1 {
		devices = fox.NewDeviceMap()
		devices.Bind(ids[0], conn.fixed)
	} else {
		if devices, err = scanDevices(false); err != nil {
			return err
		}
	}

	if programAll {
		ids = devices.LiveIDs()
		if len(ids) == 0 {
			fmt.Printf("No transmitters found. Check cables and power.\n")
			return errNoFoxes
		}
	}

	programmer := fox.NewProgrammer(client, scanner, devices, settings, app.log.WithField("component", "program"))
	programmer.OnStage = func(id int, stage fox.Stage) {
		fmt.Printf("  %-6s %s\n", foxName(id), stage)
	}

	failures := programmer.ProgramAll(ids)

	fmt.Printf("\n--- Programming summary ---\n")
	fmt.Printf("Programmed: %d/%d\n", len(ids)-len(failures), len(ids))

	if len(failures) == 0 {
		return nil
	}

	failed := make([]int, 0, len(failures))
	for id := range failures {
		failed = append(failed, id)
	}
	sort.Ints(failed)

	var errs []error
	for _, id := range failed {
		fmt.Printf("FAILED %s: %v\n", foxName(id), failures[id])
		errs = append(errs, failures[id])
	}
	return errors.Join(errs...)
}
