// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/Thermoquad/foxstat/pkg/foxproto"
	"github.com/Thermoquad/foxstat/pkg/results"
)

var resultCmd = &cobra.Command{
	Use:     "result",
	Aliases: []string{"results"},
	Short:   "Manage recorded tag results",
}

var resultListCmd = &cobra.Command{
	Use:   "list",
	Short: "List results",
	Args:  cobra.NoArgs,
	RunE:  runResultList,
}

var resultDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Remove one result",
	Args:  cobra.ExactArgs(1),
	RunE:  runResultDelete,
}

var resultClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove every result",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := app.openStore()
		if err != nil {
			return err
		}
		return store.ClearResults()
	},
}

var resultFinishCmd = &cobra.Command{
	Use:   "finish <id> [HH:MM:SS]",
	Short: "Record a participant's finishing time",
	Long: `Record the time a participant crossed the finish line.

Without a time the current local time is used.`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runResultFinish,
}

func init() {
	resultCmd.AddCommand(resultListCmd)
	resultCmd.AddCommand(resultDeleteCmd)
	resultCmd.AddCommand(resultClearCmd)
	resultCmd.AddCommand(resultFinishCmd)
	rootCmd.AddCommand(resultCmd)
}

func resultID(arg string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(arg), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("result id %q: %w", arg, foxproto.ErrNotANumber)
	}
	return id, nil
}

func runResultList(cmd *cobra.Command, args []string) error {
	store, err := app.openStore()
	if err != nil {
		return err
	}
	list, err := store.Results()
	if err != nil {
		return err
	}

	fmt.Printf("%-5s %-7s %-20s %-8s %-8s %-8s %-8s %-8s %-8s %s\n",
		"ID", "Tag-ID", "Name", "Fox 1", "Fox 2", "Fox 3", "Fox 4", "Fox 5", "Finish", "Secrets")
	for _, r := range list {
		printResultRow(os.Stdout, r)
	}
	fmt.Printf("\nResults: %d\n", len(list))
	return nil
}

func printResultRow(w io.Writer, r results.Result) {
	name := r.Name
	if name == "" {
		name = "(unknown)"
	}
	finish := r.Finish
	if finish == "" {
		finish = "-"
	}
	fmt.Fprintf(w, "%-5d %-7d %-20s %-8s %-8s %-8s %-8s %-8s %-8s %s\n",
		r.ID, r.TagID, name,
		r.FoxTimes[0], r.FoxTimes[1], r.FoxTimes[2], r.FoxTimes[3], r.FoxTimes[4],
		finish, r.Secrets)
}

func runResultDelete(cmd *cobra.Command, args []string) error {
	id, err := resultID(args[0])
	if err != nil {
		return err
	}
	store, err := app.openStore()
	if err != nil {
		return err
	}
	return store.DeleteResult(id)
}

func runResultFinish(cmd *cobra.Command, args []string) error {
	id, err := resultID(args[0])
	if err != nil {
		return err
	}

	finish := time.Now()
	if len(args) == 2 {
		finish, err = time.ParseInLocation(foxproto.TimeLayout, strings.TrimSpace(args[1]), time.Local)
		if err != nil {
			return fmt.Errorf("finish time %q: want HH:MM:SS", args[1])
		}
	}

	store, err := app.openStore()
	if err != nil {
		return err
	}
	if err := store.SetFinishTime(id, finish); err != nil {
		return err
	}
	fmt.Printf("Result %d finished at %s\n", id, finish.Format(foxproto.TimeLayout))
	return nil
}
