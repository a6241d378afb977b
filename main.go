// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad
//
// Foxstat - ARDF Fox Transmitter Programmer
//
// A CLI tool for programming ARDF fox transmitters over their serial
// console and recording participant results from tag reads.

package main

import (
	"os"

	"github.com/Thermoquad/foxstat/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(cmd.ExitCode(err))
	}
}
