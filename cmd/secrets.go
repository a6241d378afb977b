// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/spf13/cobra"

	"github.com/Thermoquad/foxstat/pkg/fox"
	"github.com/Thermoquad/foxstat/pkg/foxproto"
)

var secretsCmd = &cobra.Command{
	Use:   "secrets",
	Short: "Show or regenerate the event secrets",
	Long: `Each field fox stamps its secret on every tag it reads. The secrets are
generated once per event and kept in the results database, unless
event.secrets pins them in the config file.

After regenerating, every fox must be programmed again.`,
}

var secretsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the event secrets",
	Args:  cobra.NoArgs,
	RunE:  runSecretsShow,
}

var secretsRegenerateCmd = &cobra.Command{
	Use:   "regenerate",
	Short: "Generate new event secrets",
	Args:  cobra.NoArgs,
	RunE:  runSecretsRegenerate,
}

func init() {
	secretsCmd.AddCommand(secretsShowCmd)
	secretsCmd.AddCommand(secretsRegenerateCmd)
	rootCmd.AddCommand(secretsCmd)
}

func printSecrets(secrets [foxproto.FieldUnits]int) {
	for i, s := range secrets {
		fmt.Printf("  Fox %d: %d\n", i+1, s)
	}
}

func runSecretsShow(cmd *cobra.Command, args []string) error {
	secrets, err := app.eventSecrets()
	if err != nil {
		return err
	}
	if _, pinned := app.cfg.PinnedSecrets(); pinned {
		fmt.Printf("Event secrets (pinned in %s):\n", configPath)
	} else {
		fmt.Printf("Event secrets:\n")
	}
	printSecrets(secrets)
	return nil
}

func runSecretsRegenerate(cmd *cobra.Command, args []string) error {
	if _, pinned := app.cfg.PinnedSecrets(); pinned {
		return errors.New("secrets are pinned in the config file; edit event.secrets instead")
	}
	store, err := app.openStore()
	if err != nil {
		return err
	}

	secrets := fox.GenerateSecrets(rand.New(rand.NewSource(time.Now().UnixNano())))
	if err := store.SetEventSecrets(secrets); err != nil {
		return err
	}
	app.log.Info("event secrets regenerated")

	fmt.Printf("New event secrets:\n")
	printSecrets(secrets)
	fmt.Printf("\nProgram every fox again before the event.\n")
	return nil
}
