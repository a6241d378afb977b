// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package fox

import (
	"errors"
	"fmt"
	"math/rand"
	"strconv"
	"strings"
	"time"

	"github.com/Thermoquad/foxstat/pkg/foxproto"
)

// ErrInvalidSettings is returned when event settings cannot be programmed
var ErrInvalidSettings = errors.New("invalid settings")

// Amplitude bounds in percent. Values outside are sent with a warning.
const (
	MinAmplitude = 0
	MaxAmplitude = 100
)

// FoxSettings are the per-unit values of a field fox
type FoxSettings struct {
	CallSign       string
	TransmitMinute int
}

// DemoSettings are the values of the demo unit, which transmits
// continuously outside the event schedule
type DemoSettings struct {
	CallSign     string
	FrequencyMHz float64
	Amplitude    int
	MorseSpeed   int
}

// Settings describe one event
type Settings struct {
	FrequencyMHz float64
	Repetition   int
	MorseSpeed   int
	Amplitude    int
	Modulation   bool
	Start        time.Time
	Stop         time.Time
	Foxes        [foxproto.FieldUnits]FoxSettings
	Secrets      [foxproto.FieldUnits]int
	Demo         DemoSettings
}

// DefaultSettings returns the usual 80 m classic event with the standard
// MO call signs. Start, Stop and Secrets are left unset.
func DefaultSettings() Settings {
	s := Settings{
		FrequencyMHz: 3.5,
		Repetition:   5,
		MorseSpeed:   10,
		Amplitude:    100,
		Demo: DemoSettings{
			CallSign:     "MO",
			FrequencyMHz: 3.5,
			Amplitude:    100,
			MorseSpeed:   10,
		},
	}
	for i, sign := range []string{"MOE", "MOI", "MOS", "MOH", "MO5"} {
		s.Foxes[i] = FoxSettings{CallSign: sign, TransmitMinute: i}
	}
	return s
}

// GenerateSecrets draws five event secrets
func GenerateSecrets(r *rand.Rand) [foxproto.FieldUnits]int {
	var out [foxproto.FieldUnits]int
	for i := range out {
		out[i] = foxproto.MinSecret + r.Intn(foxproto.MaxSecret-foxproto.MinSecret+1)
	}
	return out
}

// CallSignToken returns the call sign up to its first space, so entries
// such as "MOE -- --- ." send only the letters
func CallSignToken(callSign string) string {
	token, _, _ := strings.Cut(strings.TrimSpace(callSign), " ")
	return token
}

// Validate checks the settings shared by every unit
func (s Settings) Validate() error {
	switch {
	case s.Start.IsZero() || s.Stop.IsZero():
		return fmt.Errorf("%w: event start and stop must be set", ErrInvalidSettings)
	case !s.Stop.After(s.Start):
		return fmt.Errorf("%w: event stop %s is not after start %s", ErrInvalidSettings, s.Stop.Format(time.DateTime), s.Start.Format(time.DateTime))
	case s.FrequencyMHz <= 0:
		return fmt.Errorf("%w: frequency must be positive", ErrInvalidSettings)
	case s.Repetition < 1:
		return fmt.Errorf("%w: repetition must be at least 1", ErrInvalidSettings)
	case s.MorseSpeed < 1:
		return fmt.Errorf("%w: morse speed must be at least 1 wpm", ErrInvalidSettings)
	}
	for i, secret := range s.Secrets {
		if secret < foxproto.MinSecret || secret > foxproto.MaxSecret {
			return fmt.Errorf("%w: secret for fox %d is %d, want [%d, %d]", ErrInvalidSettings, i+1, secret, foxproto.MinSecret, foxproto.MaxSecret)
		}
	}
	return nil
}

type unitValues struct {
	callSign       string
	frequencyMHz   float64
	repetition     int
	transmitMinute int
	morseSpeed     int
	amplitude      int
	secret         int
}

func (s Settings) unit(id int) (unitValues, error) {
	if id < foxproto.MinDeviceID || id > foxproto.MaxDeviceID {
		return unitValues{}, fmt.Errorf("fox %d: %w", id, foxproto.ErrOutOfRange)
	}
	if id == foxproto.DemoDeviceID {
		return unitValues{
			callSign:       s.Demo.CallSign,
			frequencyMHz:   s.Demo.FrequencyMHz,
			repetition:     1,
			transmitMinute: 0,
			morseSpeed:     s.Demo.MorseSpeed,
			amplitude:      s.Demo.Amplitude,
			secret:         1,
		}, nil
	}
	f := s.Foxes[id-1]
	return unitValues{
		callSign:       f.CallSign,
		frequencyMHz:   s.FrequencyMHz,
		repetition:     s.Repetition,
		transmitMinute: f.TransmitMinute,
		morseSpeed:     s.MorseSpeed,
		amplitude:      s.Amplitude,
		secret:         s.Secrets[id-1],
	}, nil
}

// Commands returns the fifteen configuration commands for fox id, in the
// order they are written
func (s Settings) Commands(id int) ([]foxproto.Command, error) {
	u, err := s.unit(id)
	if err != nil {
		return nil, err
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}

	callSign := CallSignToken(u.callSign)
	if callSign == "" {
		return nil, fmt.Errorf("%w: fox %d has no call sign", ErrInvalidSettings, id)
	}
	if u.transmitMinute < 0 {
		return nil, fmt.Errorf("%w: fox %d transmit minute is negative", ErrInvalidSettings, id)
	}

	return []foxproto.Command{
		{Keyword: foxproto.CmdSetReload, Param: foxproto.Off},
		{Keyword: foxproto.CmdSetCallSign, Param: callSign},
		{Keyword: foxproto.CmdSetFoxMax, Param: strconv.Itoa(u.repetition)},
		{Keyword: foxproto.CmdSetTransmitMinute, Param: strconv.Itoa(u.transmitMinute)},
		{Keyword: foxproto.CmdSetFrequency, Param: strconv.FormatInt(foxproto.MHzToHz(u.frequencyMHz), 10)},
		{Keyword: foxproto.CmdSetStartDate, Param: s.Start.Format(foxproto.DateLayout)},
		{Keyword: foxproto.CmdSetStartTime, Param: s.Start.Format(foxproto.TimeLayout)},
		{Keyword: foxproto.CmdSetStopDate, Param: s.Stop.Format(foxproto.DateLayout)},
		{Keyword: foxproto.CmdSetStopTime, Param: s.Stop.Format(foxproto.TimeLayout)},
		{Keyword: foxproto.CmdSetWPM, Param: strconv.Itoa(u.morseSpeed)},
		{Keyword: foxproto.CmdSetModulation, Param: foxproto.Switch(s.Modulation)},
		{Keyword: foxproto.CmdSetMorsing, Param: foxproto.On},
		{Keyword: foxproto.CmdSetAmplitude, Param: strconv.Itoa(u.amplitude)},
		{Keyword: foxproto.CmdResetHistory},
		{Keyword: foxproto.CmdSetSecret, Param: strconv.Itoa(u.secret)},
	}, nil
}

// Warnings lists values for fox id that are sent but look wrong
func (s Settings) Warnings(id int) []string {
	u, err := s.unit(id)
	if err != nil {
		return nil
	}
	var warnings []string
	if u.amplitude < MinAmplitude || u.amplitude > MaxAmplitude {
		warnings = append(warnings, fmt.Sprintf("amplitude %d%% outside [%d, %d]", u.amplitude, MinAmplitude, MaxAmplitude))
	}
	return warnings
}
