// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package foxproto_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Thermoquad/foxstat/pkg/foxproto"
	"github.com/Thermoquad/foxstat/pkg/foxserial"
	"github.com/Thermoquad/foxstat/pkg/foxsim"
)

func newBench(t *testing.T, id int) (*foxproto.Client, *foxsim.Device) {
	t.Helper()
	d := foxsim.NewDevice(id)
	bench := foxsim.NewBench(0)
	bench.Attach("ttyFOX", d)
	return foxproto.NewClient(bench, nil), d
}

func TestReadDeviceID(t *testing.T) {
	t.Run("answers on first exchange", func(t *testing.T) {
		client, d := newBench(t, 3)

		id, err := client.ReadDeviceID("ttyFOX")
		require.NoError(t, err)
		assert.Equal(t, 3, id)
		assert.Equal(t, []string{"get fox number "}, d.Received())
		assert.True(t, d.Closed())
	})

	t.Run("recovers from boot noise", func(t *testing.T) {
		client, d := newBench(t, 4)
		d.Garble(1)

		id, err := client.ReadDeviceID("ttyFOX")
		require.NoError(t, err)
		assert.Equal(t, 4, id)
		assert.Equal(t, []string{"get fox number ", "exit", "get fox number "}, d.Received())
	})

	t.Run("gives up after one retry", func(t *testing.T) {
		client, d := newBench(t, 4)
		d.Garble(3)

		_, err := client.ReadDeviceID("ttyFOX")
		assert.ErrorIs(t, err, foxproto.ErrMalformedResponse)
		assert.True(t, d.Closed())
	})

	t.Run("silent port", func(t *testing.T) {
		client, d := newBench(t, 1)
		d.SetSilent(true)

		_, err := client.ProbeDeviceID("ttyFOX")
		assert.ErrorIs(t, err, foxproto.ErrMalformedResponse)
	})

	t.Run("number out of range", func(t *testing.T) {
		client, d := newBench(t, 1)
		d.SetID(9)

		_, err := client.ReadDeviceID("ttyFOX")
		assert.ErrorIs(t, err, foxproto.ErrOutOfRange)
	})

	t.Run("port missing", func(t *testing.T) {
		client, _ := newBench(t, 1)

		_, err := client.ReadDeviceID("ttyNONE")
		assert.ErrorIs(t, err, foxserial.ErrPortUnavailable)
	})
}

func TestSetDeviceID(t *testing.T) {
	client, d := newBench(t, 1)

	require.NoError(t, client.SetDeviceID("ttyFOX", 5))
	assert.Equal(t, 5, d.ID())

	assert.ErrorIs(t, client.SetDeviceID("ttyFOX", 6), foxproto.ErrOutOfRange)
	assert.Equal(t, []string{"set fox number 5"}, d.Received())
}

func TestSetBlinking(t *testing.T) {
	client, d := newBench(t, 1)

	require.NoError(t, client.SetBlinking("ttyFOX", true))
	assert.True(t, d.Blinking())

	require.NoError(t, client.SetBlinking("ttyFOX", false))
	assert.False(t, d.Blinking())
}

func TestOscillatorFrequency(t *testing.T) {
	client, d := newBench(t, 2)

	hz, err := client.ReadOscillatorFrequency("ttyFOX")
	require.NoError(t, err)
	assert.EqualValues(t, foxsim.DefaultCrystalHz, hz)

	require.NoError(t, client.SetOscillatorFrequency("ttyFOX", 32771))
	assert.EqualValues(t, 32771, d.CrystalHz())

	hz, err = client.ReadOscillatorFrequency("ttyFOX")
	require.NoError(t, err)
	assert.EqualValues(t, 32771, hz)

	assert.ErrorIs(t, client.SetOscillatorFrequency("ttyFOX", 0), foxproto.ErrOutOfRange)
}

func TestSyncClock(t *testing.T) {
	client, d := newBench(t, 2)
	client.SetClock(func() time.Time {
		return time.Date(2026, 5, 17, 9, 4, 5, 0, time.Local)
	})

	port, err := client.Open("ttyFOX")
	require.NoError(t, err)
	defer port.Close()

	require.NoError(t, client.SyncClock(port))
	assert.Equal(t, []string{"set time 09:04:05", "set date 2026-05-17"}, d.Received())
}

func TestSyncClockStopsOnFailure(t *testing.T) {
	client, d := newBench(t, 2)
	d.FailCommand(foxproto.CmdSetTime, 1)

	port, err := client.Open("ttyFOX")
	require.NoError(t, err)
	defer port.Close()

	assert.ErrorIs(t, client.SyncClock(port), foxproto.ErrMalformedResponse)
	assert.Len(t, d.Received(), 1)
}

func TestWriteTagID(t *testing.T) {
	t.Run("written", func(t *testing.T) {
		client, d := newBench(t, 1)
		port, err := client.Open("ttyFOX")
		require.NoError(t, err)
		defer port.Close()

		require.NoError(t, client.WriteTagID(context.Background(), port, 1234))
		assert.Equal(t, []string{"set id 1234"}, d.Received())
	})

	t.Run("written after tag presented", func(t *testing.T) {
		client, d := newBench(t, 1)
		d.SetAutoTagWrite(false)
		port, err := client.Open("ttyFOX")
		require.NoError(t, err)
		defer port.Close()

		go func() {
			time.Sleep(20 * time.Millisecond)
			d.PresentTag()
		}()

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		require.NoError(t, client.WriteTagID(ctx, port, 77))
	})

	t.Run("cancelled", func(t *testing.T) {
		client, d := newBench(t, 1)
		d.SetAutoTagWrite(false)
		port, err := client.Open("ttyFOX")
		require.NoError(t, err)
		defer port.Close()

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
		defer cancel()

		err = client.WriteTagID(ctx, port, 77)
		assert.ErrorIs(t, err, context.DeadlineExceeded)
		assert.Equal(t, []string{"set id 77", "exit"}, d.Received())
	})

	t.Run("tag id out of range", func(t *testing.T) {
		client, d := newBench(t, 1)
		port, err := client.Open("ttyFOX")
		require.NoError(t, err)
		defer port.Close()

		assert.ErrorIs(t, client.WriteTagID(context.Background(), port, 0), foxproto.ErrOutOfRange)
		assert.ErrorIs(t, client.WriteTagID(context.Background(), port, 65536), foxproto.ErrOutOfRange)
		assert.Empty(t, d.Received())
	})
}

func TestCommandLine(t *testing.T) {
	cmd := foxproto.Command{Keyword: foxproto.CmdSetFrequency, Param: "3500000"}
	assert.Equal(t, "set frequency 3500000", cmd.Line())
	assert.Equal(t, "on", foxproto.Switch(true))
	assert.Equal(t, "off", foxproto.Switch(false))
}
