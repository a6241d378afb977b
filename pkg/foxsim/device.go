// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

// Package foxsim emulates the transmitter console for tests and for running
// the CLI without hardware.
package foxsim

import (
	"bytes"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/Thermoquad/foxstat/pkg/foxproto"
)

// DefaultCrystalHz is the nominal oscillator frequency of a fresh unit
const DefaultCrystalHz = 32768

// keywords in match order; longer keywords first so no prefix shadows another
var keywords = func() []string {
	k := []string{
		foxproto.CmdGetFoxNumber, foxproto.CmdSetFoxNumber,
		foxproto.CmdGetCrystalFrequency, foxproto.CmdSetCrystalFrequency,
		foxproto.CmdSetCallSign, foxproto.CmdSetTransmitMinute, foxproto.CmdSetFoxMax,
		foxproto.CmdSetStartTime, foxproto.CmdSetStartDate,
		foxproto.CmdSetStopTime, foxproto.CmdSetStopDate,
		foxproto.CmdSetFrequency, foxproto.CmdSetWPM, foxproto.CmdSetModulation,
		foxproto.CmdSetMorsing, foxproto.CmdSetAmplitude, foxproto.CmdResetHistory,
		foxproto.CmdSetID, foxproto.CmdSetReload, foxproto.CmdReload,
		foxproto.CmdSetSecret, foxproto.CmdSetTime, foxproto.CmdSetDate,
		foxproto.CmdSetBlinking, foxproto.CmdExit,
	}
	sort.SliceStable(k, func(i, j int) bool { return len(k[i]) > len(k[j]) })
	return k
}()

// Device is an emulated transmitter. It implements foxserial.Conn.
type Device struct {
	mu sync.Mutex

	id        int
	crystalHz int64
	blinking  bool
	values    map[string]string
	received  []string

	input  []byte
	output []byte
	closed bool

	silent       bool
	garble       int
	failures     map[string]int
	autoTagWrite bool
	idleDelay    time.Duration
}

// NewDevice creates a responsive transmitter with fox number id
func NewDevice(id int) *Device {
	return &Device{
		id:           id,
		crystalHz:    DefaultCrystalHz,
		values:       make(map[string]string),
		failures:     make(map[string]int),
		autoTagWrite: true,
		idleDelay:    time.Millisecond,
	}
}

// Read returns pending console output, or (0, nil) after a short idle delay
func (d *Device) Read(p []byte) (int, error) {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return 0, io.ErrClosedPipe
	}
	if len(d.output) > 0 {
		n := copy(p, d.output)
		d.output = d.output[n:]
		d.mu.Unlock()
		return n, nil
	}
	delay := d.idleDelay
	d.mu.Unlock()

	time.Sleep(delay)
	return 0, nil
}

// Write feeds console input; each complete line is handled as a command
func (d *Device) Write(p []byte) (int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return 0, io.ErrClosedPipe
	}

	d.input = append(d.input, p...)
	for {
		i := bytes.IndexByte(d.input, '\n')
		if i < 0 {
			break
		}
		line := strings.TrimRight(string(d.input[:i]), "\r")
		d.input = d.input[i+1:]
		if line != "" {
			d.handle(line)
		}
	}
	return len(p), nil
}

// Close marks the link closed; a later open revives it
func (d *Device) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.closed = true
	return nil
}

// ResetInputBuffer drops pending console output
func (d *Device) ResetInputBuffer() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.output = nil
	return nil
}

func (d *Device) reopen() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.closed = false
	d.input = nil
}

func (d *Device) emit(lines ...string) {
	for _, line := range lines {
		d.output = append(d.output, line...)
		d.output = append(d.output, '\r', '\n')
	}
}

func (d *Device) prompt() {
	d.emit(foxproto.Prompt + " ")
}

func (d *Device) ok() {
	d.emit(foxproto.OKToken)
	d.prompt()
}

func (d *Device) reject(reason string) {
	d.emit(reason)
	d.prompt()
}

func (d *Device) handle(line string) {
	d.received = append(d.received, line)

	if d.silent {
		return
	}
	if d.garble > 0 {
		d.garble--
		d.emit("\x00\xfe"+line, "Command not recognized")
		d.prompt()
		return
	}

	keyword, param, found := splitCommand(line)
	if !found {
		d.reject("Command not recognized")
		return
	}
	if d.failures[keyword] > 0 {
		d.failures[keyword]--
		d.reject("ERROR")
		return
	}

	switch keyword {
	case foxproto.CmdGetFoxNumber:
		d.emit(strconv.Itoa(d.id))
		d.ok()
	case foxproto.CmdSetFoxNumber:
		id, err := foxproto.ParseInt(param, foxproto.MinDeviceID, foxproto.MaxDeviceID)
		if err != nil {
			d.reject("Invalid fox number")
			return
		}
		d.id = id
		d.ok()
	case foxproto.CmdGetCrystalFrequency:
		d.emit(strconv.FormatInt(d.crystalHz, 10))
		d.ok()
	case foxproto.CmdSetCrystalFrequency:
		hz, err := strconv.ParseInt(param, 10, 64)
		if err != nil || hz <= 0 {
			d.reject("Invalid frequency")
			return
		}
		d.crystalHz = hz
		d.ok()
	case foxproto.CmdSetBlinking:
		switch param {
		case foxproto.On:
			d.blinking = true
		case foxproto.Off:
			d.blinking = false
		default:
			d.reject("Invalid parameter")
			return
		}
		d.ok()
	case foxproto.CmdSetID:
		tagID, err := foxproto.ParseInt(param, foxproto.MinTagID, foxproto.MaxTagID)
		if err != nil {
			d.reject("Invalid tag id")
			return
		}
		d.values[keyword] = param
		if d.autoTagWrite {
			d.emit(fmt.Sprintf("tag id %d written!", tagID))
			d.prompt()
		}
	case foxproto.CmdExit:
		d.ok()
	default:
		d.values[keyword] = param
		d.ok()
	}
}

func splitCommand(line string) (keyword, param string, found bool) {
	for _, k := range keywords {
		if line == strings.TrimSpace(k) {
			return k, "", true
		}
		if strings.HasPrefix(line, k) {
			return k, strings.TrimSpace(line[len(k):]), true
		}
	}
	return "", "", false
}

// ID returns the current fox number
func (d *Device) ID() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.id
}

// SetID changes the fox number without going through the console
func (d *Device) SetID(id int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.id = id
}

// CrystalHz returns the stored oscillator calibration
func (d *Device) CrystalHz() int64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.crystalHz
}

// Blinking reports whether the identification LED is on
func (d *Device) Blinking() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.blinking
}

// Value returns the last parameter stored for a set command keyword
func (d *Device) Value(keyword string) (string, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	v, ok := d.values[keyword]
	return v, ok
}

// Received returns every command line the device has seen
func (d *Device) Received() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]string, len(d.received))
	copy(out, d.received)
	return out
}

// ClearReceived forgets the command log
func (d *Device) ClearReceived() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.received = nil
}

// Closed reports whether the link is currently closed
func (d *Device) Closed() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.closed
}

// SetSilent makes the device swallow commands without replying
func (d *Device) SetSilent(silent bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.silent = silent
}

// Garble makes the next n commands produce boot noise instead of a reply
func (d *Device) Garble(n int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.garble = n
}

// FailCommand makes the next times commands with keyword answer ERROR
func (d *Device) FailCommand(keyword string, times int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.failures[keyword] = times
}

// SetAutoTagWrite controls whether "set id" completes immediately
func (d *Device) SetAutoTagWrite(auto bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.autoTagWrite = auto
}

// PresentTag completes a pending tag write as if a tag touched the reader
func (d *Device) PresentTag() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	param, ok := d.values[foxproto.CmdSetID]
	if !ok {
		return false
	}
	d.emit(fmt.Sprintf("tag id %s written!", param))
	d.prompt()
	return true
}

// EmitLines queues raw console output
func (d *Device) EmitLines(lines ...string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.emit(lines...)
}

// EmitTag queues a full tag block as printed by the reader
func (d *Device) EmitTag(block *foxproto.TagBlock) {
	d.EmitLines(foxproto.FormatTagBlock(block)...)
}
