// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package fox

import (
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Thermoquad/foxstat/pkg/foxproto"
)

func testSettings() Settings {
	s := DefaultSettings()
	s.FrequencyMHz = 3.579
	s.MorseSpeed = 12
	s.Amplitude = 80
	s.Start = time.Date(2026, 5, 17, 10, 0, 0, 0, time.Local)
	s.Stop = time.Date(2026, 5, 17, 12, 30, 0, 0, time.Local)
	s.Secrets = [foxproto.FieldUnits]int{111, 222, 333, 444, 555}
	s.Foxes[1].CallSign = "MOI .. ..."
	s.Demo = DemoSettings{CallSign: "MO", FrequencyMHz: 3.6, Amplitude: 40, MorseSpeed: 8}
	return s
}

func commandLines(cmds []foxproto.Command) []string {
	out := make([]string, len(cmds))
	for i, c := range cmds {
		out[i] = c.Line()
	}
	return out
}

func TestCommandsFieldFox(t *testing.T) {
	cmds, err := testSettings().Commands(2)
	require.NoError(t, err)

	assert.Equal(t, []string{
		"set reload off",
		"set call sign MOI",
		"set fox max 5",
		"set transmit minute 1",
		"set frequency 3579000",
		"set start date 2026-05-17",
		"set start time 10:00:00",
		"set stop date 2026-05-17",
		"set stop time 12:30:00",
		"set wpm 12",
		"set modulation off",
		"set morsing on",
		"set amplitude 80",
		"reset history ",
		"set secret 222",
	}, commandLines(cmds))
}

func TestCommandsDemoFox(t *testing.T) {
	s := testSettings()
	s.Modulation = true

	cmds, err := s.Commands(foxproto.DemoDeviceID)
	require.NoError(t, err)

	lines := commandLines(cmds)
	require.Len(t, lines, 15)
	assert.Equal(t, "set call sign MO", lines[1])
	assert.Equal(t, "set fox max 1", lines[2])
	assert.Equal(t, "set transmit minute 0", lines[3])
	assert.Equal(t, "set frequency 3600000", lines[4])
	assert.Equal(t, "set wpm 8", lines[9])
	assert.Equal(t, "set modulation on", lines[10])
	assert.Equal(t, "set amplitude 40", lines[12])
	assert.Equal(t, "set secret 1", lines[14])
}

func TestCommandsRejects(t *testing.T) {
	tests := []struct {
		name    string
		id      int
		modify  func(*Settings)
		wantErr error
	}{
		{"fox out of range", 6, func(s *Settings) {}, foxproto.ErrOutOfRange},
		{"no start", 1, func(s *Settings) { s.Start = time.Time{} }, ErrInvalidSettings},
		{"stop before start", 1, func(s *Settings) { s.Stop = s.Start.Add(-time.Hour) }, ErrInvalidSettings},
		{"zero repetition", 1, func(s *Settings) { s.Repetition = 0 }, ErrInvalidSettings},
		{"missing secret", 1, func(s *Settings) { s.Secrets[3] = 0 }, ErrInvalidSettings},
		{"blank call sign", 3, func(s *Settings) { s.Foxes[2].CallSign = "  " }, ErrInvalidSettings},
		{"negative minute", 3, func(s *Settings) { s.Foxes[2].TransmitMinute = -1 }, ErrInvalidSettings},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := testSettings()
			tt.modify(&s)
			_, err := s.Commands(tt.id)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestAmplitudeOutOfRangeIsSentWithWarning(t *testing.T) {
	s := testSettings()
	s.Amplitude = 150

	cmds, err := s.Commands(1)
	require.NoError(t, err)
	assert.Equal(t, "set amplitude 150", cmds[12].Line())
	assert.Len(t, s.Warnings(1), 1)
	assert.Empty(t, s.Warnings(0))
}

func TestCallSignToken(t *testing.T) {
	assert.Equal(t, "MOE", CallSignToken("MOE -- --- ."))
	assert.Equal(t, "MO5", CallSignToken(" MO5"))
	assert.Equal(t, "", CallSignToken(""))
}

func TestGenerateSecrets(t *testing.T) {
	r := rand.New(rand.NewSource(7))
	for n := 0; n < 100; n++ {
		for _, s := range GenerateSecrets(r) {
			assert.GreaterOrEqual(t, s, foxproto.MinSecret)
			assert.LessOrEqual(t, s, foxproto.MaxSecret)
		}
	}
}
