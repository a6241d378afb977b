// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/Thermoquad/foxstat/pkg/fox"
	"github.com/Thermoquad/foxstat/pkg/foxproto"
	"github.com/Thermoquad/foxstat/pkg/foxserial"
	"github.com/Thermoquad/foxstat/pkg/logging"
	"github.com/Thermoquad/foxstat/pkg/results"
)

// DefaultPath is the config file looked up when none is given
const DefaultPath = "foxstat.yaml"

// EventTimeLayout is the format of event.start and event.stop
const EventTimeLayout = time.DateTime

// Config represents the foxstat configuration
type Config struct {
	Serial struct {
		Port     string        `yaml:"port"`
		BaudRate int           `yaml:"baud_rate"`
		Timeout  time.Duration `yaml:"timeout"`
	} `yaml:"serial"`

	// WebSocket serial bridge; the password is taken from the environment
	Bridge struct {
		URL           string `yaml:"url"`
		Username      string `yaml:"username"`
		SkipSSLVerify bool   `yaml:"skip_ssl_verify"`
	} `yaml:"bridge"`

	Event EventConfig `yaml:"event"`

	Listener struct {
		PollInterval time.Duration `yaml:"poll_interval"`
		QueueSize    int           `yaml:"queue_size"`
	} `yaml:"listener"`

	Storage struct {
		DatabasePath string `yaml:"database_path"`
	} `yaml:"storage"`

	Logging logging.Options `yaml:"logging"`
}

// EventConfig holds the values programmed into the foxes
type EventConfig struct {
	FrequencyMHz float64 `yaml:"frequency_mhz"`
	Repetition   int     `yaml:"repetition"`
	MorseSpeed   int     `yaml:"morse_speed"`
	Amplitude    *int    `yaml:"amplitude"`
	Modulation   bool    `yaml:"modulation"`

	// Local time, "2006-01-02 15:04:05"
	Start string `yaml:"start"`
	Stop  string `yaml:"stop"`

	Foxes []FoxConfig `yaml:"foxes"`

	// Pins the event secrets; when empty they are generated and stored
	Secrets []int `yaml:"secrets,omitempty"`

	Demo DemoConfig `yaml:"demo"`
}

// FoxConfig holds one field fox
type FoxConfig struct {
	CallSign       string `yaml:"call_sign"`
	TransmitMinute *int   `yaml:"transmit_minute"`
}

// DemoConfig holds the demo unit
type DemoConfig struct {
	CallSign     string  `yaml:"call_sign"`
	FrequencyMHz float64 `yaml:"frequency_mhz"`
	Amplitude    *int    `yaml:"amplitude"`
	MorseSpeed   int     `yaml:"morse_speed"`
}

// Default returns a configuration with every default applied
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// LoadConfig reads path. A missing file yields the defaults.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return Default(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	config.applyDefaults()

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &config, nil
}

func intPtr(v int) *int {
	return &v
}

func (c *Config) applyDefaults() {
	if c.Serial.BaudRate == 0 {
		c.Serial.BaudRate = foxserial.DefaultBaudRate
	}
	if c.Serial.Timeout == 0 {
		c.Serial.Timeout = foxserial.DefaultTimeout
	}

	if c.Listener.PollInterval == 0 {
		c.Listener.PollInterval = fox.DefaultPollInterval
	}
	if c.Listener.QueueSize == 0 {
		c.Listener.QueueSize = fox.DefaultQueueSize
	}

	if c.Storage.DatabasePath == "" {
		c.Storage.DatabasePath = results.DefaultPath
	}

	defaults := logging.DefaultOptions()
	if c.Logging.Level == "" {
		c.Logging.Level = defaults.Level
	}
	if c.Logging.Format == "" {
		c.Logging.Format = defaults.Format
	}
	if c.Logging.MaxSize == 0 {
		c.Logging.MaxSize = defaults.MaxSize
	}
	if c.Logging.MaxBackups == 0 {
		c.Logging.MaxBackups = defaults.MaxBackups
	}
	if c.Logging.MaxAge == 0 {
		c.Logging.MaxAge = defaults.MaxAge
	}
	// Console output is always on unless a file takes over
	if c.Logging.File == "" {
		c.Logging.Console = true
	}

	event := fox.DefaultSettings()
	e := &c.Event
	if e.FrequencyMHz == 0 {
		e.FrequencyMHz = event.FrequencyMHz
	}
	if e.Repetition == 0 {
		e.Repetition = event.Repetition
	}
	if e.MorseSpeed == 0 {
		e.MorseSpeed = event.MorseSpeed
	}
	if e.Amplitude == nil {
		e.Amplitude = intPtr(event.Amplitude)
	}
	for i := len(e.Foxes); i < foxproto.FieldUnits; i++ {
		e.Foxes = append(e.Foxes, FoxConfig{})
	}
	for i := range e.Foxes {
		if i >= foxproto.FieldUnits {
			break
		}
		if e.Foxes[i].CallSign == "" {
			e.Foxes[i].CallSign = event.Foxes[i].CallSign
		}
		if e.Foxes[i].TransmitMinute == nil {
			e.Foxes[i].TransmitMinute = intPtr(event.Foxes[i].TransmitMinute)
		}
	}

	if e.Demo.CallSign == "" {
		e.Demo.CallSign = event.Demo.CallSign
	}
	if e.Demo.FrequencyMHz == 0 {
		e.Demo.FrequencyMHz = event.Demo.FrequencyMHz
	}
	if e.Demo.Amplitude == nil {
		e.Demo.Amplitude = intPtr(event.Demo.Amplitude)
	}
	if e.Demo.MorseSpeed == 0 {
		e.Demo.MorseSpeed = event.Demo.MorseSpeed
	}
}

// Validate checks the configuration for values no command can work with
func (c *Config) Validate() error {
	if c.Serial.BaudRate <= 0 {
		return fmt.Errorf("serial.baud_rate must be positive")
	}
	if c.Serial.Timeout <= 0 {
		return fmt.Errorf("serial.timeout must be positive")
	}
	if c.Listener.PollInterval <= 0 {
		return fmt.Errorf("listener.poll_interval must be positive")
	}
	if c.Listener.QueueSize <= 0 {
		return fmt.Errorf("listener.queue_size must be positive")
	}
	if c.Bridge.URL != "" && !strings.HasPrefix(c.Bridge.URL, "ws://") && !strings.HasPrefix(c.Bridge.URL, "wss://") {
		return fmt.Errorf("bridge.url must start with ws:// or wss://")
	}

	switch strings.ToLower(c.Logging.Format) {
	case "text", "json":
	default:
		return fmt.Errorf("logging.format must be text or json, got %q", c.Logging.Format)
	}

	if len(c.Event.Foxes) > foxproto.FieldUnits {
		return fmt.Errorf("event.foxes lists %d foxes, at most %d", len(c.Event.Foxes), foxproto.FieldUnits)
	}
	if n := len(c.Event.Secrets); n != 0 && n != foxproto.FieldUnits {
		return fmt.Errorf("event.secrets must list %d values, got %d", foxproto.FieldUnits, n)
	}
	for i, s := range c.Event.Secrets {
		if s < foxproto.MinSecret || s > foxproto.MaxSecret {
			return fmt.Errorf("event.secrets[%d] = %d not in [%d, %d]", i, s, foxproto.MinSecret, foxproto.MaxSecret)
		}
	}
	if _, err := parseEventTime(c.Event.Start); err != nil {
		return fmt.Errorf("event.start: %w", err)
	}
	if _, err := parseEventTime(c.Event.Stop); err != nil {
		return fmt.Errorf("event.stop: %w", err)
	}
	return nil
}

func parseEventTime(s string) (time.Time, error) {
	if strings.TrimSpace(s) == "" {
		return time.Time{}, nil
	}
	t, err := time.ParseInLocation(EventTimeLayout, strings.TrimSpace(s), time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("want %q: %w", EventTimeLayout, err)
	}
	return t, nil
}

// PinnedSecrets returns the secrets fixed in the config file, if any
func (c *Config) PinnedSecrets() ([foxproto.FieldUnits]int, bool) {
	var out [foxproto.FieldUnits]int
	if len(c.Event.Secrets) != foxproto.FieldUnits {
		return out, false
	}
	copy(out[:], c.Event.Secrets)
	return out, true
}

// Settings converts the event section. Secrets are left for the caller to
// fill from PinnedSecrets or the result store.
func (c *Config) Settings() (fox.Settings, error) {
	e := c.Event
	s := fox.Settings{
		FrequencyMHz: e.FrequencyMHz,
		Repetition:   e.Repetition,
		MorseSpeed:   e.MorseSpeed,
		Amplitude:    *e.Amplitude,
		Modulation:   e.Modulation,
		Demo: fox.DemoSettings{
			CallSign:     e.Demo.CallSign,
			FrequencyMHz: e.Demo.FrequencyMHz,
			Amplitude:    *e.Demo.Amplitude,
			MorseSpeed:   e.Demo.MorseSpeed,
		},
	}

	var err error
	if s.Start, err = parseEventTime(e.Start); err != nil {
		return s, fmt.Errorf("event.start: %w", err)
	}
	if s.Stop, err = parseEventTime(e.Stop); err != nil {
		return s, fmt.Errorf("event.stop: %w", err)
	}

	for i := 0; i < foxproto.FieldUnits && i < len(e.Foxes); i++ {
		s.Foxes[i] = fox.FoxSettings{
			CallSign:       e.Foxes[i].CallSign,
			TransmitMinute: *e.Foxes[i].TransmitMinute,
		}
	}
	if pinned, ok := c.PinnedSecrets(); ok {
		s.Secrets = pinned
	}
	return s, nil
}

// Save writes the configuration as YAML
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}
