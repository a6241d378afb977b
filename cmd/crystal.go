// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Thermoquad/foxstat/pkg/foxproto"
)

var crystalCmd = &cobra.Command{
	Use:   "crystal",
	Short: "Read or calibrate a transmitter's crystal frequency",
	Long: `Read or calibrate the measured frequency of a transmitter's crystal.

Values are entered in MHz and stored on the transmitter in whole Hz.

Examples:
  foxstat crystal get 2
  foxstat crystal set 2 0.032771`,
}

var crystalGetCmd = &cobra.Command{
	Use:   "get <fox>",
	Short: "Print the calibrated crystal frequency",
	Args:  cobra.ExactArgs(1),
	RunE:  runCrystalGet,
}

var crystalSetCmd = &cobra.Command{
	Use:   "set <fox> <MHz>",
	Short: "Store a new crystal calibration",
	Args:  cobra.ExactArgs(2),
	RunE:  runCrystalSet,
}

func init() {
	crystalCmd.AddCommand(crystalGetCmd)
	crystalCmd.AddCommand(crystalSetCmd)
	rootCmd.AddCommand(crystalCmd)
}

func runCrystalGet(cmd *cobra.Command, args []string) error {
	id, err := foxArg(args[0])
	if err != nil {
		return err
	}
	port, err := app.resolvePort(id)
	if err != nil {
		return err
	}

	hz, err := app.client.ReadOscillatorFrequency(port)
	if err != nil {
		return err
	}
	fmt.Printf("%s crystal: %s MHz (%d Hz)\n", foxName(id), foxproto.FormatMHz(hz), hz)
	return nil
}

func runCrystalSet(cmd *cobra.Command, args []string) error {
	id, err := foxArg(args[0])
	if err != nil {
		return err
	}
	hz, err := foxproto.ParseMHz(args[1])
	if err != nil {
		return err
	}
	port, err := app.resolvePort(id)
	if err != nil {
		return err
	}

	if err := app.client.SetOscillatorFrequency(port, hz); err != nil {
		return err
	}
	fmt.Printf("%s crystal set to %s MHz (%d Hz)\n", foxName(id), foxproto.FormatMHz(hz), hz)
	return nil
}
