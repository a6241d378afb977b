// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package fox

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Thermoquad/foxstat/pkg/foxproto"
	"github.com/Thermoquad/foxstat/pkg/foxsim"
)

func TestScan(t *testing.T) {
	silent := foxsim.NewDevice(2)
	silent.SetSilent(true)

	bench := foxsim.NewBench(0)
	bench.Attach("a", foxsim.NewDevice(1))
	bench.Attach("b", silent)
	bench.AttachUnavailable("c")
	bench.Attach("d", foxsim.NewDevice(1))
	bench.Attach("e", foxsim.NewDevice(0))

	var probed []string
	scanner := NewScanner(bench.ListPorts, foxproto.NewClient(bench, nil), nil)
	scanner.OnPort = func(port string) { probed = append(probed, port) }

	m, err := scanner.Scan()
	require.NoError(t, err)

	assert.Equal(t, []string{"a", "b", "c", "d", "e"}, m.Scanned)
	assert.Equal(t, m.Scanned, probed)
	assert.Equal(t, []int{0, 1}, m.LiveIDs())

	port, ok := m.Port(1)
	assert.True(t, ok)
	assert.Equal(t, "d", port)
	assert.Equal(t, []string{"a", "d"}, m.Claims(1))
	assert.Equal(t, []int{1}, m.Ambiguous())

	_, ok = m.Port(2)
	assert.False(t, ok)
	assert.False(t, m.Live(2))
	assert.True(t, m.Live(0))
}

func TestScanNoPorts(t *testing.T) {
	bench := foxsim.NewBench(0)
	m, err := NewScanner(bench.ListPorts, foxproto.NewClient(bench, nil), nil).Scan()
	require.NoError(t, err)
	assert.Empty(t, m.LiveIDs())
	assert.Empty(t, m.Ambiguous())
}

func TestScanListFailure(t *testing.T) {
	fault := errors.New("no usb")
	list := func() ([]string, error) { return nil, fault }

	_, err := NewScanner(list, foxproto.NewClient(foxsim.NewBench(0), nil), nil).Scan()
	assert.ErrorIs(t, err, fault)
}

func TestDeviceMapBounds(t *testing.T) {
	m := NewDeviceMap()
	m.Bind(7, "x")
	m.Bind(-1, "y")
	assert.Empty(t, m.LiveIDs())

	_, ok := m.Port(9)
	assert.False(t, ok)
}
