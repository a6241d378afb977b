// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Thermoquad/foxstat/pkg/foxproto"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "foxstat.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadConfigMissingFileUsesDefaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)

	assert.Equal(t, 38400, cfg.Serial.BaudRate)
	assert.Equal(t, 500*time.Millisecond, cfg.Serial.Timeout)
	assert.Equal(t, 100*time.Millisecond, cfg.Listener.PollInterval)
	assert.Equal(t, 16, cfg.Listener.QueueSize)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, 3.5, cfg.Event.FrequencyMHz)
	assert.Equal(t, 100, *cfg.Event.Amplitude)
	require.Len(t, cfg.Event.Foxes, foxproto.FieldUnits)
	assert.Equal(t, "MOE", cfg.Event.Foxes[0].CallSign)
	assert.Equal(t, 4, *cfg.Event.Foxes[4].TransmitMinute)
}

func TestLoadConfig(t *testing.T) {
	path := writeConfig(t, `
serial:
  port: /dev/ttyUSB0
  timeout: 750ms
listener:
  poll_interval: 50ms
event:
  frequency_mhz: 3.579
  morse_speed: 12
  amplitude: 0
  modulation: true
  start: "2026-05-17 10:00:00"
  stop: "2026-05-17 12:30:00"
  foxes:
    - call_sign: "MOE -- --- ."
      transmit_minute: 4
    - call_sign: MOI
  secrets: [11, 22, 33, 44, 55]
  demo:
    frequency_mhz: 3.6
logging:
  level: debug
  format: json
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "/dev/ttyUSB0", cfg.Serial.Port)
	assert.Equal(t, 750*time.Millisecond, cfg.Serial.Timeout)
	assert.Equal(t, 50*time.Millisecond, cfg.Listener.PollInterval)
	assert.Equal(t, "json", cfg.Logging.Format)

	s, err := cfg.Settings()
	require.NoError(t, err)

	assert.Equal(t, 3.579, s.FrequencyMHz)
	assert.Equal(t, 5, s.Repetition)
	assert.Equal(t, 12, s.MorseSpeed)
	assert.Equal(t, 0, s.Amplitude)
	assert.True(t, s.Modulation)
	assert.Equal(t, time.Date(2026, 5, 17, 10, 0, 0, 0, time.Local), s.Start)
	assert.Equal(t, time.Date(2026, 5, 17, 12, 30, 0, 0, time.Local), s.Stop)
	assert.Equal(t, 4, s.Foxes[0].TransmitMinute)
	assert.Equal(t, "MOI", s.Foxes[1].CallSign)
	assert.Equal(t, 1, s.Foxes[1].TransmitMinute)
	assert.Equal(t, "MOS", s.Foxes[2].CallSign)
	assert.Equal(t, [foxproto.FieldUnits]int{11, 22, 33, 44, 55}, s.Secrets)
	assert.Equal(t, 3.6, s.Demo.FrequencyMHz)
	assert.Equal(t, "MO", s.Demo.CallSign)

	cmds, err := s.Commands(1)
	require.NoError(t, err)
	assert.Equal(t, "set call sign MOE", cmds[1].Line())
}

func TestLoadConfigInvalid(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"bad yaml", "serial: [unclosed"},
		{"negative baud", "serial:\n  baud_rate: -1\n"},
		{"short secrets", "event:\n  secrets: [1, 2]\n"},
		{"secret out of range", "event:\n  secrets: [1, 2, 3, 4, 70000]\n"},
		{"bad start", "event:\n  start: tomorrow\n"},
		{"too many foxes", "event:\n  foxes: [{}, {}, {}, {}, {}, {}]\n"},
		{"bad bridge url", "bridge:\n  url: http://example.com\n"},
		{"bad log format", "logging:\n  format: xml\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadConfig(writeConfig(t, tt.body))
			assert.Error(t, err)
		})
	}
}

func TestPinnedSecrets(t *testing.T) {
	cfg := Default()
	_, ok := cfg.PinnedSecrets()
	assert.False(t, ok)

	cfg.Event.Secrets = []int{1, 2, 3, 4, 5}
	secrets, ok := cfg.PinnedSecrets()
	assert.True(t, ok)
	assert.Equal(t, [foxproto.FieldUnits]int{1, 2, 3, 4, 5}, secrets)
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.yaml")

	cfg := Default()
	cfg.Event.Start = "2026-05-17 10:00:00"
	cfg.Event.Stop = "2026-05-17 11:00:00"
	require.NoError(t, cfg.Save(path))

	loaded, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}
