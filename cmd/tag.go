// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/Thermoquad/foxstat/pkg/results"
)

var (
	tagWait time.Duration
	tagName string
)

var tagCmd = &cobra.Command{
	Use:   "tag",
	Short: "Write participant tags",
}

var tagWriteCmd = &cobra.Command{
	Use:   "write <fox> <tag-id>",
	Short: "Write a tag id with a transmitter's tag writer",
	Long: `Put a transmitter into tag writing mode and wait for a tag to be written.

Hold a blank tag against the transmitter's reader. When the transmitter
reports the write, the participant holding the tag id is marked as having a
tag. With --name, a participant is registered first if the tag id is free.

Press Ctrl+C to leave tag writing mode without writing.

Examples:
  foxstat tag write 0 17
  foxstat tag write 0 18 --name "Ada Lovelace"`,
	Args: cobra.ExactArgs(2),
	RunE: runTagWrite,
}

func init() {
	tagCmd.AddCommand(tagWriteCmd)
	rootCmd.AddCommand(tagCmd)
	tagWriteCmd.Flags().DurationVar(&tagWait, "wait", 2*time.Minute, "Give up after this long")
	tagWriteCmd.Flags().StringVar(&tagName, "name", "", "Register this participant under the tag id")
}

func runTagWrite(cmd *cobra.Command, args []string) error {
	id, err := foxArg(args[0])
	if err != nil {
		return err
	}
	tagID, err := tagArg(args[1])
	if err != nil {
		return err
	}

	store, err := app.openStore()
	if err != nil {
		return err
	}
	if tagName != "" {
		err := store.AddParticipant(results.Participant{TagID: tagID, Name: tagName})
		if err != nil && !errors.Is(err, results.ErrDuplicateTagID) {
			return err
		}
	}

	portName, err := app.resolvePort(id)
	if err != nil {
		return err
	}
	if bench := app.conn.bench; bench != nil {
		// Emulated tag writers complete the write as soon as asked
		if d := bench.Device(portName); d != nil {
			d.SetAutoTagWrite(true)
		}
	}

	port, err := app.client.Open(portName)
	if err != nil {
		return &connectionError{err}
	}
	defer port.Close()

	if err := port.Flush(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, tagWait)
	defer cancel()

	fmt.Printf("Waiting for tag %d on %s (%s)... hold a tag to the reader\n", tagID, foxName(id), portName)

	if err := app.client.WriteTagID(ctx, port, tagID); err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return fmt.Errorf("no tag written within %s", tagWait)
		}
		return err
	}

	name, err := store.ParticipantName(tagID)
	if err != nil {
		return err
	}
	if name == "" {
		fmt.Printf("Tag %d written (no participant registered)\n", tagID)
		return nil
	}
	if err := store.MarkTagCreated(tagID); err != nil {
		return err
	}
	fmt.Printf("Tag %d written for %s\n", tagID, name)
	return nil
}
