// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package fox

import (
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/Thermoquad/foxstat/pkg/foxproto"
	"github.com/Thermoquad/foxstat/pkg/logging"
)

// Stage is a step of the programming sequence
type Stage int

const (
	StageVerify Stage = iota
	StageFlush
	StageBatchWrite
	StageBatchVerify
	StageClockSync
	StageCommit
	StageDone
)

func (s Stage) String() string {
	switch s {
	case StageVerify:
		return "verify"
	case StageFlush:
		return "flush"
	case StageBatchWrite:
		return "batch write"
	case StageBatchVerify:
		return "batch verify"
	case StageClockSync:
		return "clock sync"
	case StageCommit:
		return "commit"
	case StageDone:
		return "done"
	default:
		return fmt.Sprintf("stage(%d)", int(s))
	}
}

// StepError reports where programming a fox stopped
type StepError struct {
	Fox   int
	Stage Stage
	// 1-based position in the command batch, 0 outside the batch
	Ordinal int
	Command string
	Err     error
}

func (e *StepError) Error() string {
	if e.Ordinal > 0 {
		return fmt.Sprintf("fox %d: %s: command %d (%s): %v", e.Fox, e.Stage, e.Ordinal, strings.TrimSpace(e.Command), e.Err)
	}
	return fmt.Sprintf("fox %d: %s: %v", e.Fox, e.Stage, e.Err)
}

func (e *StepError) Unwrap() error {
	return e.Err
}

// Programmer writes event settings to transmitters
type Programmer struct {
	client   *foxproto.Client
	scanner  *Scanner
	devices  *DeviceMap
	settings Settings
	log      logrus.FieldLogger

	// OnStage, if set, is called as each fox enters a stage
	OnStage func(fox int, stage Stage)
}

// NewProgrammer creates a programmer. devices may be nil, in which case the
// first Program call scans.
func NewProgrammer(client *foxproto.Client, scanner *Scanner, devices *DeviceMap, settings Settings, log logrus.FieldLogger) *Programmer {
	if devices == nil {
		devices = NewDeviceMap()
	}
	return &Programmer{
		client:   client,
		scanner:  scanner,
		devices:  devices,
		settings: settings,
		log:      logging.OrDiscard(log),
	}
}

// Devices returns the current port bindings
func (p *Programmer) Devices() *DeviceMap {
	return p.devices
}

func (p *Programmer) enter(id int, stage Stage) {
	p.log.WithFields(logrus.Fields{"fox": id, "step": stage.String()}).Debug("programming")
	if p.OnStage != nil {
		p.OnStage(id, stage)
	}
}

// Program configures fox id. Nothing is written unless the fox first
// confirms its number.
func (p *Programmer) Program(id int) error {
	log := p.log.WithField("fox", id)

	commands, err := p.settings.Commands(id)
	if err != nil {
		return err
	}
	for _, w := range p.settings.Warnings(id) {
		log.Warn(w)
	}

	p.enter(id, StageVerify)
	portName, err := p.verify(id)
	if err != nil {
		return &StepError{Fox: id, Stage: StageVerify, Err: err}
	}
	log = log.WithField("port", portName)

	port, err := p.client.Open(portName)
	if err != nil {
		return &StepError{Fox: id, Stage: StageFlush, Err: err}
	}
	defer port.Close()

	p.enter(id, StageFlush)
	if err := port.Flush(); err != nil {
		return &StepError{Fox: id, Stage: StageFlush, Err: err}
	}
	if _, err := foxproto.ReadAllAvailable(port); err != nil {
		return &StepError{Fox: id, Stage: StageFlush, Err: err}
	}

	p.enter(id, StageBatchWrite)
	for i, cmd := range commands {
		if err := p.client.SendCommand(port, cmd.Keyword, cmd.Param); err != nil {
			return &StepError{Fox: id, Stage: StageBatchWrite, Ordinal: i + 1, Command: cmd.Line(), Err: err}
		}
	}

	p.enter(id, StageBatchVerify)
	for i, cmd := range commands {
		lines, err := foxproto.ReadUntilPrompt(port)
		if err == nil {
			err = foxproto.CheckResponse(lines)
		}
		if err != nil {
			return &StepError{Fox: id, Stage: StageBatchVerify, Ordinal: i + 1, Command: cmd.Line(), Err: err}
		}
	}

	p.enter(id, StageClockSync)
	if err := p.client.SyncClock(port); err != nil {
		p.restoreReload(port, log)
		return &StepError{Fox: id, Stage: StageClockSync, Err: err}
	}

	p.enter(id, StageCommit)
	commit := foxproto.Command{Keyword: foxproto.CmdSetReload, Param: foxproto.On}
	if _, err := p.client.Exchange(port, commit); err != nil {
		return &StepError{Fox: id, Stage: StageCommit, Command: commit.Line(), Err: err}
	}

	p.enter(id, StageDone)
	log.Info("fox programmed")
	return nil
}

// restoreReload re-enables reload after a failed clock sync so the fox keeps
// running on its stored schedule
func (p *Programmer) restoreReload(port foxproto.LinePort, log logrus.FieldLogger) {
	_, err := p.client.Exchange(port, foxproto.Command{Keyword: foxproto.CmdSetReload, Param: foxproto.On})
	if err != nil {
		log.WithError(err).Warn("failed to re-enable reload after clock sync failure")
	}
}

// verify confirms that id answers on its bound port, rescanning once when
// it does not
func (p *Programmer) verify(id int) (string, error) {
	log := p.log.WithField("fox", id)
	notConnected := foxproto.ErrDeviceNotConnected

	if port, ok := p.devices.Port(id); ok {
		got, err := p.client.ReadDeviceID(port)
		switch {
		case err != nil:
			log.WithField("port", port).WithError(err).Info("fox not answering, rescanning")
		case got != id:
			notConnected = fmt.Errorf("%w: %w", foxproto.ErrDeviceNotConnected, foxproto.ErrDeviceMismatch)
			log.WithFields(logrus.Fields{"port": port, "answered": got}).Info("port holds another fox, rescanning")
		default:
			return port, nil
		}
	}

	if p.scanner == nil {
		return "", fmt.Errorf("fox %d: %w", id, notConnected)
	}
	devices, err := p.scanner.Scan()
	if err != nil {
		return "", fmt.Errorf("%w: %w", notConnected, err)
	}
	p.devices = devices

	port, ok := devices.Port(id)
	if !ok {
		return "", fmt.Errorf("fox %d: %w", id, notConnected)
	}

	got, err := p.client.ReadDeviceID(port)
	if err != nil {
		return "", fmt.Errorf("%w: fox %d on %s: %w", foxproto.ErrDeviceNotConnected, id, port, err)
	}
	if got != id {
		return "", fmt.Errorf("%w: %w: %s answered %d, want %d", foxproto.ErrDeviceNotConnected, foxproto.ErrDeviceMismatch, port, got, id)
	}
	return port, nil
}

// ProgramAll programs each fox in turn and returns the failures by fox
func (p *Programmer) ProgramAll(ids []int) map[int]error {
	failures := make(map[int]error)
	for _, id := range ids {
		if err := p.Program(id); err != nil {
			p.log.WithField("fox", id).WithError(err).Error("programming failed")
			failures[id] = err
		}
	}
	return failures
}
