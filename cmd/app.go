// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/Thermoquad/foxstat/pkg/config"
	"github.com/Thermoquad/foxstat/pkg/fox"
	"github.com/Thermoquad/foxstat/pkg/foxproto"
	"github.com/Thermoquad/foxstat/pkg/logging"
	"github.com/Thermoquad/foxstat/pkg/results"
)

// application holds what every command shares
type application struct {
	cfg    *config.Config
	log    *logging.Logger
	conn   *connection
	client *foxproto.Client
	store  *results.Store
}

var app *application

// setupApp loads the config and logger before any command runs. Transport
// and storage are opened lazily.
func setupApp(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return err
	}
	if verbose {
		cfg.Logging.Level = "debug"
	}
	if databasePath != "" {
		cfg.Storage.DatabasePath = databasePath
	}

	log, err := logging.New(cfg.Logging)
	if err != nil {
		return err
	}

	app = &application{cfg: cfg, log: log}
	return nil
}

func closeApp() {
	if app == nil {
		return
	}
	if app.store != nil {
		if err := app.store.Close(); err != nil {
			app.log.WithError(err).Warn("failed to close result store")
		}
	}
	app.log.Close()
	app = nil
}

// connect opens the transport and creates the protocol client
func (a *application) connect() (*connection, *foxproto.Client, error) {
	if a.client != nil {
		return a.conn, a.client, nil
	}
	conn, err := openConnection(a.cfg)
	if err != nil {
		return nil, nil, &connectionError{err}
	}
	a.conn = conn
	a.client = foxproto.NewClient(conn.opener, a.log.WithField("component", "client"))
	return a.conn, a.client, nil
}

// openStore opens the result database
func (a *application) openStore() (*results.Store, error) {
	if a.store != nil {
		return a.store, nil
	}
	store, err := results.Open(a.cfg.Storage.DatabasePath, a.log.WithField("component", "store"))
	if err != nil {
		return nil, err
	}
	a.store = store
	return store, nil
}

// eventSecrets returns the pinned secrets from the config, or the ones kept
// in the result store, generating them on first use
func (a *application) eventSecrets() ([foxproto.FieldUnits]int, error) {
	if pinned, ok := a.cfg.PinnedSecrets(); ok {
		return pinned, nil
	}
	store, err := a.openStore()
	if err != nil {
		return [foxproto.FieldUnits]int{}, err
	}
	return store.LoadOrCreateEventSecrets(func() [foxproto.FieldUnits]int {
		return fox.GenerateSecrets(rand.New(rand.NewSource(time.Now().UnixNano())))
	})
}

// settings returns the event settings with secrets filled in
func (a *application) settings() (fox.Settings, error) {
	s, err := a.cfg.Settings()
	if err != nil {
		return s, err
	}
	if s.Secrets, err = a.eventSecrets(); err != nil {
		return s, err
	}
	return s, s.Validate()
}

// scanner returns a scanner over the connection's ports
func (a *application) scanner() (*fox.Scanner, error) {
	conn, client, err := a.connect()
	if err != nil {
		return nil, err
	}
	return fox.NewScanner(conn.lister, client, a.log.WithField("component", "scan")), nil
}

// resolvePort returns the port holding fox id. A port named on the command
// line is used as is; otherwise every port is scanned.
func (a *application) resolvePort(id int) (string, error) {
	if id < foxproto.MinDeviceID || id > foxproto.MaxDeviceID {
		return "", fmt.Errorf("fox %d: %w", id, foxproto.ErrOutOfRange)
	}

	conn, _, err := a.connect()
	if err != nil {
		return "", err
	}
	if conn.fixed != "" {
		return conn.fixed, nil
	}

	scanner, err := a.scanner()
	if err != nil {
		return "", err
	}
	devices, err := scanner.Scan()
	if err != nil {
		return "", &connectionError{err}
	}
	port, ok := devices.Port(id)
	if !ok {
		return "", fmt.Errorf("fox %d: %w", id, foxproto.ErrDeviceNotConnected)
	}
	a.log.WithFields(logrus.Fields{"fox": id, "port": port}).Debug("fox resolved")
	return port, nil
}

// foxArg parses a fox number argument
func foxArg(arg string) (int, error) {
	id, err := foxproto.ParseInt(arg, foxproto.MinDeviceID, foxproto.MaxDeviceID)
	if err != nil {
		return 0, fmt.Errorf("fox number %q: %w", arg, err)
	}
	return id, nil
}

// tagArg parses a tag id argument
func tagArg(arg string) (int, error) {
	id, err := foxproto.ParseInt(arg, foxproto.MinTagID, foxproto.MaxTagID)
	if err != nil {
		return 0, fmt.Errorf("tag id %q: %w", arg, err)
	}
	return id, nil
}
