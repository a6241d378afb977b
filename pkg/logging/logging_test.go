// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package logging

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Options)
		wantErr bool
	}{
		{"defaults", func(o *Options) {}, false},
		{"json", func(o *Options) { o.Format = "json" }, false},
		{"unknown level", func(o *Options) { o.Level = "loud" }, false},
		{"bad format", func(o *Options) { o.Format = "xml" }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := DefaultOptions()
			tt.modify(&opts)
			log, err := New(opts)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.NoError(t, log.Close())
		})
	}
}

func TestNewWritesRotatingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "foxstat.log")

	opts := DefaultOptions()
	opts.Console = false
	opts.File = path
	opts.Level = "debug"

	log, err := New(opts)
	require.NoError(t, err)
	assert.Equal(t, logrus.DebugLevel, log.GetLevel())

	log.WithField("port", "/dev/ttyUSB0").Info("fox found")
	require.NoError(t, log.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "fox found")
	assert.Contains(t, string(data), "port=/dev/ttyUSB0")
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, logrus.WarnLevel, ParseLevel("warn"))
	assert.Equal(t, logrus.DebugLevel, ParseLevel("debug"))
	assert.Equal(t, logrus.InfoLevel, ParseLevel("loud"))
	assert.Equal(t, logrus.InfoLevel, ParseLevel(""))
}

func TestOrDiscard(t *testing.T) {
	assert.NotNil(t, OrDiscard(nil))

	log := logrus.New()
	assert.Same(t, log, OrDiscard(log))
}

func TestQuietKeepsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "foxstat.log")

	opts := DefaultOptions()
	opts.Console = true
	opts.File = path

	log, err := New(opts)
	require.NoError(t, err)

	log.Quiet()
	log.Info("tag read")
	require.NoError(t, log.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "tag read")
}
