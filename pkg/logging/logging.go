// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

// Package logging builds the logrus logger shared by the foxstat packages.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Options configures the logger
type Options struct {
	Level      string `yaml:"level"`
	Format     string `yaml:"format"` // text or json
	File       string `yaml:"file"`
	MaxSize    int    `yaml:"max_size"` // megabytes
	MaxBackups int    `yaml:"max_backups"`
	MaxAge     int    `yaml:"max_age"` // days
	Compress   bool   `yaml:"compress"`
	Console    bool   `yaml:"console"`
}

// DefaultOptions logs info and above as text to stderr
func DefaultOptions() Options {
	return Options{
		Level:      "info",
		Format:     "text",
		MaxSize:    10,
		MaxBackups: 3,
		MaxAge:     28,
		Console:    true,
	}
}

// Logger is a logrus logger that owns its rotating file, if any
type Logger struct {
	*logrus.Logger
	rotator *lumberjack.Logger
}

// New creates a logger from options
func New(opts Options) (*Logger, error) {
	log := logrus.New()
	log.SetLevel(ParseLevel(opts.Level))

	switch strings.ToLower(opts.Format) {
	case "", "text":
		log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	case "json":
		log.SetFormatter(&logrus.JSONFormatter{})
	default:
		return nil, fmt.Errorf("invalid log format %q (use text or json)", opts.Format)
	}

	l := &Logger{Logger: log}

	var writers []io.Writer
	if opts.Console {
		writers = append(writers, os.Stderr)
	}
	if opts.File != "" {
		if err := os.MkdirAll(filepath.Dir(opts.File), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create log directory: %w", err)
		}
		l.rotator = &lumberjack.Logger{
			Filename:   opts.File,
			MaxSize:    opts.MaxSize,
			MaxBackups: opts.MaxBackups,
			MaxAge:     opts.MaxAge,
			Compress:   opts.Compress,
		}
		writers = append(writers, l.rotator)
	}

	switch len(writers) {
	case 0:
		log.SetOutput(io.Discard)
	case 1:
		log.SetOutput(writers[0])
	default:
		log.SetOutput(io.MultiWriter(writers...))
	}

	return l, nil
}

// ParseLevel maps a level name to a logrus level, falling back to info
func ParseLevel(name string) logrus.Level {
	level, err := logrus.ParseLevel(name)
	if err != nil {
		return logrus.InfoLevel
	}
	return level
}

// Quiet stops console output, keeping the rotating file if one is open.
// Full-screen terminal UIs call it before taking over the terminal.
func (l *Logger) Quiet() {
	if l.rotator == nil {
		l.SetOutput(io.Discard)
		return
	}
	l.SetOutput(l.rotator)
}

// Close closes the rotating log file
func (l *Logger) Close() error {
	if l.rotator == nil {
		return nil
	}
	return l.rotator.Close()
}

// Discard returns a logger that drops everything
func Discard() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

// OrDiscard returns log, or a discarding logger when log is nil
func OrDiscard(log logrus.FieldLogger) logrus.FieldLogger {
	if log == nil {
		return Discard()
	}
	return log
}
