// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Thermoquad/foxstat/pkg/foxproto"
)

var errPortRequired = errors.New("a single port is required: use --port or --url")

var numberCmd = &cobra.Command{
	Use:   "number",
	Short: "Read or assign a transmitter's fox number",
	Long: `Read or assign the fox number of the transmitter on one port.

Number 0 is the demo unit, 1-5 are the field foxes. Assigning a number is how
a new transmitter is enrolled, so the port must be named explicitly.

Examples:
  foxstat number get --port /dev/ttyUSB0
  foxstat number set 3 --port /dev/ttyUSB0`,
}

var numberGetCmd = &cobra.Command{
	Use:   "get",
	Short: "Print the fox number",
	Args:  cobra.NoArgs,
	RunE:  runNumberGet,
}

var numberSetCmd = &cobra.Command{
	Use:   "set <number>",
	Short: "Assign the fox number",
	Args:  cobra.ExactArgs(1),
	RunE:  runNumberSet,
}

var blinkCmd = &cobra.Command{
	Use:   "blink <fox> on|off",
	Short: "Blink a transmitter's LED to identify it",
	Long: `Switch the LED identification blink of a transmitter on or off.

The transmitter is found by scanning unless --port is given.`,
	Args: cobra.ExactArgs(2),
	RunE: runBlink,
}

func init() {
	numberCmd.AddCommand(numberGetCmd)
	numberCmd.AddCommand(numberSetCmd)
	rootCmd.AddCommand(numberCmd)
	rootCmd.AddCommand(blinkCmd)
}

// singlePort returns the port named on the command line or in the config
func singlePort() (string, *foxproto.Client, error) {
	conn, client, err := app.connect()
	if err != nil {
		return "", nil, err
	}
	if conn.fixed == "" {
		return "", nil, errPortRequired
	}
	return conn.fixed, client, nil
}

func runNumberGet(cmd *cobra.Command, args []string) error {
	port, client, err := singlePort()
	if err != nil {
		return err
	}

	id, err := client.ReadDeviceID(port)
	if err != nil {
		return err
	}
	fmt.Printf("%s: %s (%d)\n", port, foxName(id), id)
	return nil
}

func runNumberSet(cmd *cobra.Command, args []string) error {
	id, err := foxArg(args[0])
	if err != nil {
		return err
	}
	port, client, err := singlePort()
	if err != nil {
		return err
	}

	if err := client.SetDeviceID(port, id); err != nil {
		return err
	}
	fmt.Printf("%s is now %s\n", port, foxName(id))
	return nil
}

func runBlink(cmd *cobra.Command, args []string) error {
	id, err := foxArg(args[0])
	if err != nil {
		return err
	}
	on, err := parseSwitch(args[1])
	if err != nil {
		return err
	}

	port, err := app.resolvePort(id)
	if err != nil {
		return err
	}
	if err := app.client.SetBlinking(port, on); err != nil {
		return err
	}
	fmt.Printf("%s blink %s\n", foxName(id), foxproto.Switch(on))
	return nil
}

func parseSwitch(arg string) (bool, error) {
	switch arg {
	case foxproto.On:
		return true, nil
	case foxproto.Off:
		return false, nil
	default:
		return false, fmt.Errorf("expected %s or %s, got %q", foxproto.On, foxproto.Off, arg)
	}
}
