// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"context"
	"fmt"
	"math/rand"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/Thermoquad/foxstat/pkg/fox"
	"github.com/Thermoquad/foxstat/pkg/foxproto"
	"github.com/Thermoquad/foxstat/pkg/foxserial"
	"github.com/Thermoquad/foxstat/pkg/foxsim"
	"github.com/Thermoquad/foxstat/pkg/results"
)

var (
	listenTUI         bool
	listenSimInterval time.Duration
)

var listenCmd = &cobra.Command{
	Use:   "listen <fox>",
	Short: "Record participant tags read by a transmitter",
	Long: `Listen on one transmitter's console for tag reads and store each one as
a result.

When a participant hands in their tag at the finish, the transmitter prints a
tag block with the tag id, the secret stamped by each fox and the time of
each visit. Foxstat compares the secrets with the event secrets and stores
the participant's fox times (event start plus the visit offsets).

With --simulate, random tag reads are generated for the registered
participants.

Press Ctrl+C (or 'q' in the TUI) to stop.

Examples:
  foxstat listen 0
  foxstat listen 0 --tui
  foxstat listen 0 --simulate --tui`,
	Args: cobra.ExactArgs(1),
	RunE: runListen,
}

func init() {
	rootCmd.AddCommand(listenCmd)
	listenCmd.Flags().BoolVarP(&listenTUI, "tui", "t", false, "Show the interactive results view")
	listenCmd.Flags().DurationVar(&listenSimInterval, "sim-interval", 3*time.Second, "Time between generated tags (--simulate only)")
}

// listenSession is one open port with its listener and result store
type listenSession struct {
	id       int
	portName string
	port     *foxserial.Port
	listener *fox.Listener
	store    *results.Store
	start    time.Time
	secrets  [foxproto.FieldUnits]int
}

func openListenSession(id int) (*listenSession, error) {
	settings, err := app.cfg.Settings()
	if err != nil {
		return nil, err
	}
	secrets, err := app.eventSecrets()
	if err != nil {
		return nil, err
	}
	store, err := app.openStore()
	if err != nil {
		return nil, err
	}

	start := settings.Start
	if start.IsZero() {
		now := time.Now()
		start = time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.Local)
		app.log.Warn("event.start not set; fox times are offsets from midnight")
	}

	portName, err := app.resolvePort(id)
	if err != nil {
		return nil, err
	}
	port, err := app.client.Open(portName)
	if err != nil {
		return nil, &connectionError{err}
	}
	if err := port.Flush(); err != nil {
		port.Close()
		return nil, err
	}

	opts := fox.ListenerOptions{
		PollInterval: app.cfg.Listener.PollInterval,
		QueueSize:    app.cfg.Listener.QueueSize,
	}
	log := app.log.WithFields(logrus.Fields{"component": "listen", "port": portName})

	return &listenSession{
		id:       id,
		portName: portName,
		port:     port,
		listener: fox.NewListener(port, secrets, opts, log),
		store:    store,
		start:    start,
		secrets:  secrets,
	}, nil
}

func (s *listenSession) Close() error {
	return s.port.Close()
}

// record stores a tag record as a result
func (s *listenSession) record(rec foxproto.TagRecord) (results.Result, error) {
	return s.store.AddResult(rec, s.start)
}

// simulate feeds random tag reads into the emulated transmitter until ctx
// is done. It does nothing on real hardware.
func (s *listenSession) simulate(ctx context.Context, interval time.Duration) {
	if app.conn.bench == nil {
		return
	}
	device := app.conn.bench.Device(s.portName)
	if device == nil {
		return
	}

	r := rand.New(rand.NewSource(time.Now().UnixNano()))
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		tagID := r.Intn(50) + 1
		if participants, err := s.store.Participants(); err == nil && len(participants) > 0 {
			tagID = participants[r.Intn(len(participants))].TagID
		}

		block := foxsim.RandomTagBlock(r, tagID, s.secrets)
		if r.Intn(5) == 0 {
			// A fox the participant never reached
			block.Secrets[r.Intn(foxproto.FieldUnits)] = 0
		}
		device.EmitTag(block)
	}
}

func runListen(cmd *cobra.Command, args []string) error {
	id, err := foxArg(args[0])
	if err != nil {
		return err
	}

	session, err := openListenSession(id)
	if err != nil {
		return err
	}
	defer session.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if listenTUI {
		return runListenTUI(ctx, session)
	}
	return runListenText(ctx, session)
}

func runListenText(ctx context.Context, session *listenSession) error {
	fmt.Printf("Foxstat - Tag Listener\n")
	fmt.Printf("Connection: %s\n", app.conn.info)
	fmt.Printf("Listening on %s (%s)\n", foxName(session.id), session.portName)
	fmt.Printf("Event start: %s\n", session.start.Format(time.DateTime))
	fmt.Printf("Press Ctrl+C to exit\n\n")

	go session.simulate(ctx, listenSimInterval)

	runErr := make(chan error, 1)
	go func() {
		runErr <- session.listener.Run(ctx)
	}()

	records := session.listener.Records()
	errs := session.listener.Errors()
	for records != nil || errs != nil {
		select {
		case rec, ok := <-records:
			if !ok {
				records = nil
				continue
			}
			result, err := session.record(rec)
			if err != nil {
				app.log.WithError(err).Error("failed to store result")
				continue
			}
			printResultRow(os.Stdout, result)
		case err, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			fmt.Printf("[ERROR] %v\n", err)
		}
	}

	fmt.Printf("\n%s", session.listener.Stats())
	return <-runErr
}
