// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package foxproto

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/Thermoquad/foxstat/pkg/foxserial"
	"github.com/Thermoquad/foxstat/pkg/logging"
)

// Client issues console commands to transmitters reached through an opener
type Client struct {
	opener foxserial.Opener
	log    logrus.FieldLogger
	now    func() time.Time
}

// NewClient creates a client. A nil logger discards output.
func NewClient(opener foxserial.Opener, log logrus.FieldLogger) *Client {
	return &Client{
		opener: opener,
		log:    logging.OrDiscard(log),
		now:    time.Now,
	}
}

// SetClock replaces the wall clock used by SyncClock
func (c *Client) SetClock(now func() time.Time) {
	c.now = now
}

// Open opens a port through the client's opener
func (c *Client) Open(portName string) (*foxserial.Port, error) {
	return c.opener.Open(portName)
}

// SendCommand writes keyword+param without waiting for a reply
func (c *Client) SendCommand(port LinePort, keyword, param string) error {
	line := keyword + param
	c.log.WithField("command", line).Debug("send")
	return port.WriteLine(line)
}

// Exchange sends one command and returns its validated reply
func (c *Client) Exchange(port LinePort, cmd Command) ([]string, error) {
	if err := c.SendCommand(port, cmd.Keyword, cmd.Param); err != nil {
		return nil, err
	}

	lines, err := ReadUntilPrompt(port)
	if err != nil {
		return lines, err
	}
	if err := CheckResponse(lines); err != nil {
		return lines, fmt.Errorf("%s: %w", strings.TrimSpace(cmd.Line()), err)
	}
	return lines, nil
}

// ReadDeviceID opens portName and asks the transmitter for its fox number.
// A first failed exchange is retried once after clearing the console.
func (c *Client) ReadDeviceID(portName string) (int, error) {
	return c.readDeviceID(portName, true)
}

// ProbeDeviceID is ReadDeviceID with failures logged at debug level, for
// scanning ports that may not hold a transmitter at all
func (c *Client) ProbeDeviceID(portName string) (int, error) {
	return c.readDeviceID(portName, false)
}

func (c *Client) readDeviceID(portName string, surface bool) (int, error) {
	log := c.log.WithField("port", portName)

	port, err := c.opener.Open(portName)
	if err != nil {
		return 0, err
	}
	defer port.Close()

	if err := port.Flush(); err != nil {
		return 0, err
	}

	id, err := c.queryDeviceID(port)
	if err == nil {
		return id, nil
	}
	log.WithError(err).Debug("fox number query failed, resetting console")

	if err := c.resetConsole(port); err != nil {
		return 0, err
	}

	id, err = c.queryDeviceID(port)
	if err != nil {
		if surface {
			log.WithError(err).Warn("transmitter did not report its fox number")
		} else {
			log.WithError(err).Debug("no transmitter")
		}
		return 0, err
	}
	return id, nil
}

// resetConsole clears whatever the transmitter left in the line after power
// up and returns it to the top-level prompt
func (c *Client) resetConsole(port LinePort) error {
	if err := port.Flush(); err != nil {
		return err
	}
	if _, err := ReadAllAvailable(port); err != nil {
		return err
	}
	if err := c.SendCommand(port, CmdExit, ""); err != nil {
		return err
	}
	_, err := ReadUntilPrompt(port)
	return err
}

func (c *Client) queryDeviceID(port LinePort) (int, error) {
	lines, err := c.Exchange(port, Command{Keyword: CmdGetFoxNumber})
	if err != nil {
		return 0, err
	}
	return ParseInt(lines[0], MinDeviceID, MaxDeviceID)
}

// SetDeviceID assigns a new fox number to the transmitter on portName
func (c *Client) SetDeviceID(portName string, id int) error {
	if id < MinDeviceID || id > MaxDeviceID {
		return fmt.Errorf("fox number %d: %w", id, ErrOutOfRange)
	}
	return c.oneShot(portName, Command{Keyword: CmdSetFoxNumber, Param: strconv.Itoa(id)})
}

// SetBlinking switches the identification LED on or off
func (c *Client) SetBlinking(portName string, on bool) error {
	return c.oneShot(portName, Command{Keyword: CmdSetBlinking, Param: Switch(on)})
}

// ReadOscillatorFrequency returns the calibrated crystal frequency in Hz
func (c *Client) ReadOscillatorFrequency(portName string) (int64, error) {
	port, err := c.opener.Open(portName)
	if err != nil {
		return 0, err
	}
	defer port.Close()

	lines, err := c.Exchange(port, Command{Keyword: CmdGetCrystalFrequency})
	if err != nil {
		return 0, err
	}
	hz, err := ParseInt(lines[0], 0, math.MaxInt32)
	if err != nil {
		return 0, err
	}
	return int64(hz), nil
}

// SetOscillatorFrequency stores a new crystal calibration in Hz
func (c *Client) SetOscillatorFrequency(portName string, hz int64) error {
	if hz <= 0 || hz > math.MaxInt32 {
		return fmt.Errorf("crystal frequency %d Hz: %w", hz, ErrOutOfRange)
	}
	return c.oneShot(portName, Command{Keyword: CmdSetCrystalFrequency, Param: strconv.FormatInt(hz, 10)})
}

func (c *Client) oneShot(portName string, cmd Command) error {
	port, err := c.opener.Open(portName)
	if err != nil {
		return err
	}
	defer port.Close()

	if err := port.Flush(); err != nil {
		return err
	}
	_, err = c.Exchange(port, cmd)
	return err
}

// SyncClock sets the transmitter clock to the host's local time, then its
// date. Either step failing aborts the sync.
func (c *Client) SyncClock(port LinePort) error {
	if _, err := c.Exchange(port, Command{Keyword: CmdSetTime, Param: c.now().Format(TimeLayout)}); err != nil {
		return err
	}
	if _, err := c.Exchange(port, Command{Keyword: CmdSetDate, Param: c.now().Format(DateLayout)}); err != nil {
		return err
	}
	return nil
}

// WriteTagID puts the transmitter into tag writing mode and waits until a
// tag has been written with tagID. Cancelling ctx leaves writing mode.
func (c *Client) WriteTagID(ctx context.Context, port LinePort, tagID int) error {
	if tagID < MinTagID || tagID > MaxTagID {
		return fmt.Errorf("tag id %d: %w", tagID, ErrOutOfRange)
	}

	if err := c.SendCommand(port, CmdSetID, strconv.Itoa(tagID)); err != nil {
		return err
	}

	want := fmt.Sprintf("tag id %d written!", tagID)
	for {
		select {
		case <-ctx.Done():
			if err := c.SendCommand(port, CmdExit, ""); err != nil {
				c.log.WithError(err).Warn("failed to leave tag writing mode")
			}
			return ctx.Err()
		default:
		}

		line, err := port.ReadLine()
		if err != nil {
			if errors.Is(err, foxserial.ErrReadTimeout) {
				continue
			}
			return err
		}
		if strings.Contains(line, want) {
			c.log.WithField("tag_id", tagID).Info("tag written")
			return nil
		}
	}
}

// Switch renders a boolean as the console's on/off parameter
func Switch(on bool) string {
	if on {
		return On
	}
	return Off
}
