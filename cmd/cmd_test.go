// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Thermoquad/foxstat/pkg/foxproto"
	"github.com/Thermoquad/foxstat/pkg/foxserial"
	"github.com/Thermoquad/foxstat/pkg/results"
)

func TestExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"success", nil, 0},
		{"no foxes", errNoFoxes, 1},
		{"protocol", fmt.Errorf("fox 2: %w", foxproto.ErrMalformedResponse), 1},
		{"connection", &connectionError{errors.New("refused")}, 2},
		{"port unavailable", fmt.Errorf("open: %w", foxserial.ErrPortUnavailable), 2},
		{"joined not connected", errors.Join(errors.New("x"), fmt.Errorf("fox 3: %w", foxproto.ErrDeviceNotConnected)), 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExitCode(tt.err))
		})
	}
}

func TestParseSwitch(t *testing.T) {
	on, err := parseSwitch("on")
	require.NoError(t, err)
	assert.True(t, on)

	on, err = parseSwitch("off")
	require.NoError(t, err)
	assert.False(t, on)

	_, err = parseSwitch("yes")
	assert.Error(t, err)
}

func TestArgParsing(t *testing.T) {
	id, err := foxArg("5")
	require.NoError(t, err)
	assert.Equal(t, 5, id)

	_, err = foxArg("6")
	assert.ErrorIs(t, err, foxproto.ErrOutOfRange)

	_, err = tagArg("0")
	assert.ErrorIs(t, err, foxproto.ErrOutOfRange)

	_, err = resultID("abc")
	assert.ErrorIs(t, err, foxproto.ErrNotANumber)
}

func execute(args ...string) error {
	rootCmd.SetArgs(args)
	return Execute()
}

// TestSimulatedEvent drives a whole event against emulated transmitters
func TestSimulatedEvent(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "foxstat.yaml")
	dbPath := filepath.Join(dir, "foxstat.db")
	require.NoError(t, os.WriteFile(cfgPath, []byte(`
event:
  start: "2026-05-17 10:00:00"
  stop: "2026-05-17 12:00:00"
logging:
  level: error
`), 0o644))

	run := func(args ...string) error {
		return execute(append(args, "--simulate", "--config", cfgPath, "--db", dbPath)...)
	}

	require.NoError(t, run("scan"))
	require.NoError(t, run("participant", "add", "Ada", "Lovelace", "--tag-id", "7"))
	require.NoError(t, run("participant", "add", "Grace", "--tag-id", "0"))
	require.NoError(t, run("secrets", "show"))
	require.NoError(t, run("program", "1", "3"))
	require.NoError(t, run("crystal", "set", "2", "0.032771"))
	require.NoError(t, run("blink", "4", "on"))
	require.NoError(t, run("tag", "write", "0", "7"))
	require.NoError(t, run("ping", "1"))
	require.NoError(t, run("send", "5", "get", "fox", "number"))

	err := run("blink", "4", "maybe")
	assert.Error(t, err)

	store, err := results.Open(dbPath, nil)
	require.NoError(t, err)
	defer store.Close()

	participants, err := store.Participants()
	require.NoError(t, err)
	require.Len(t, participants, 2)
	assert.Equal(t, results.Participant{TagID: 7, Name: "Ada Lovelace", TagCreated: true}, participants[0])
	assert.Equal(t, 8, participants[1].TagID)

	_, ok, err := store.EventSecrets()
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestProgramNeedsEventWindow(t *testing.T) {
	dir := t.TempDir()
	err := execute("program", "1", "--simulate",
		"--config", filepath.Join(dir, "absent.yaml"),
		"--db", filepath.Join(dir, "foxstat.db"))
	assert.Error(t, err)
	assert.Equal(t, 1, ExitCode(err))
}

func TestResultCommands(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "foxstat.db")
	run := func(args ...string) error {
		return execute(append(args, "--config", filepath.Join(dir, "absent.yaml"), "--db", dbPath)...)
	}

	store, err := results.Open(dbPath, nil)
	require.NoError(t, err)
	start := time.Date(2026, 5, 17, 10, 0, 0, 0, time.Local)
	stored, err := store.AddResult(foxproto.TagRecord{TagID: 4, Match: "yyyyy", DetectedAt: start}, start)
	require.NoError(t, err)
	require.NoError(t, store.Close())

	require.NoError(t, run("result", "finish", strconv.FormatInt(stored.ID, 10), "11:42:07"))
	require.NoError(t, run("result", "list"))
	assert.Error(t, run("result", "finish", "999", "11:00:00"))
	assert.Error(t, run("result", "finish", "1", "late"))

	store, err = results.Open(dbPath, nil)
	require.NoError(t, err)
	defer store.Close()

	got, err := store.Result(stored.ID)
	require.NoError(t, err)
	assert.Equal(t, "11:42:07", got.Finish)
}
