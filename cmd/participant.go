// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Thermoquad/foxstat/pkg/results"
)

var participantTagID int

var participantCmd = &cobra.Command{
	Use:     "participant",
	Aliases: []string{"participants"},
	Short:   "Manage participants and their tag ids",
}

var participantAddCmd = &cobra.Command{
	Use:   "add <name>",
	Short: "Register a participant",
	Long: `Register a participant under a tag id.

Without --tag-id the id after the highest one in use is taken, wrapping from
65535 back to 1.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runParticipantAdd,
}

var participantListCmd = &cobra.Command{
	Use:   "list",
	Short: "List participants",
	Args:  cobra.NoArgs,
	RunE:  runParticipantList,
}

var participantRenameCmd = &cobra.Command{
	Use:   "rename <tag-id> <name>",
	Short: "Change a participant's name",
	Args:  cobra.MinimumNArgs(2),
	RunE:  runParticipantRename,
}

var participantDeleteCmd = &cobra.Command{
	Use:   "delete <tag-id>",
	Short: "Remove a participant",
	Args:  cobra.ExactArgs(1),
	RunE:  runParticipantDelete,
}

var participantClearCreatedCmd = &cobra.Command{
	Use:   "clear-created",
	Short: "Mark every participant as still needing a tag",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := app.openStore()
		if err != nil {
			return err
		}
		return store.ClearTagCreated()
	},
}

var participantClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove every participant",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := app.openStore()
		if err != nil {
			return err
		}
		return store.ClearParticipants()
	},
}

func init() {
	participantCmd.AddCommand(participantAddCmd)
	participantCmd.AddCommand(participantListCmd)
	participantCmd.AddCommand(participantRenameCmd)
	participantCmd.AddCommand(participantDeleteCmd)
	participantCmd.AddCommand(participantClearCreatedCmd)
	participantCmd.AddCommand(participantClearCmd)
	rootCmd.AddCommand(participantCmd)

	participantAddCmd.Flags().IntVarP(&participantTagID, "tag-id", "t", 0, "Tag id (default: next free)")
}

func runParticipantAdd(cmd *cobra.Command, args []string) error {
	store, err := app.openStore()
	if err != nil {
		return err
	}

	tagID := participantTagID
	if tagID == 0 {
		if tagID, err = store.NextTagID(); err != nil {
			return err
		}
	}

	name := strings.Join(args, " ")
	if err := store.AddParticipant(results.Participant{TagID: tagID, Name: name}); err != nil {
		return err
	}
	fmt.Printf("Tag %d: %s\n", tagID, name)
	return nil
}

func runParticipantList(cmd *cobra.Command, args []string) error {
	store, err := app.openStore()
	if err != nil {
		return err
	}
	list, err := store.Participants()
	if err != nil {
		return err
	}

	fmt.Printf("%-8s %-7s %s\n", "Tag-ID", "Tag", "Name")
	for _, p := range list {
		created := "-"
		if p.TagCreated {
			created = "written"
		}
		fmt.Printf("%-8d %-7s %s\n", p.TagID, created, p.Name)
	}
	fmt.Printf("\nParticipants: %d\n", len(list))
	return nil
}

func runParticipantRename(cmd *cobra.Command, args []string) error {
	tagID, err := tagArg(args[0])
	if err != nil {
		return err
	}
	store, err := app.openStore()
	if err != nil {
		return err
	}
	return store.RenameParticipant(tagID, strings.Join(args[1:], " "))
}

func runParticipantDelete(cmd *cobra.Command, args []string) error {
	tagID, err := tagArg(args[0])
	if err != nil {
		return err
	}
	store, err := app.openStore()
	if err != nil {
		return err
	}
	return store.DeleteParticipant(tagID)
}
