// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package foxsim

import (
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/Thermoquad/foxstat/pkg/foxproto"
	"github.com/Thermoquad/foxstat/pkg/foxserial"
)

// Bench is a set of emulated ports. It satisfies foxserial.Opener and its
// ListPorts method fits foxserial.PortLister.
type Bench struct {
	mu          sync.Mutex
	ports       []string
	devices     map[string]*Device
	unavailable map[string]bool
	timeout     time.Duration
}

// NewBench creates an empty bench whose ports time out reads after timeout
func NewBench(timeout time.Duration) *Bench {
	if timeout <= 0 {
		timeout = 20 * time.Millisecond
	}
	return &Bench{
		devices:     make(map[string]*Device),
		unavailable: make(map[string]bool),
		timeout:     timeout,
	}
}

// NewFieldBench creates a bench with the demo unit and the five field foxes
// on ports sim0 to sim5
func NewFieldBench(timeout time.Duration) *Bench {
	b := NewBench(timeout)
	for id := foxproto.MinDeviceID; id <= foxproto.MaxDeviceID; id++ {
		b.Attach(fmt.Sprintf("sim%d", id), NewDevice(id))
	}
	return b
}

// Attach plugs a device into port
func (b *Bench) Attach(port string, d *Device) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, exists := b.devices[port]; !exists && !b.unavailable[port] {
		b.ports = append(b.ports, port)
	}
	b.devices[port] = d
}

// AttachUnavailable lists a port that refuses to open
func (b *Bench) AttachUnavailable(port string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, exists := b.devices[port]; !exists && !b.unavailable[port] {
		b.ports = append(b.ports, port)
	}
	b.unavailable[port] = true
}

// Device returns the device on port, or nil
func (b *Bench) Device(port string) *Device {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.devices[port]
}

// ListPorts returns the ports in attach order
func (b *Bench) ListPorts() ([]string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]string, len(b.ports))
	copy(out, b.ports)
	return out, nil
}

func (b *Bench) Open(name string) (*foxserial.Port, error) {
	b.mu.Lock()
	d, ok := b.devices[name]
	refused := b.unavailable[name]
	b.mu.Unlock()

	if !ok || refused {
		return nil, fmt.Errorf("%w: %s", foxserial.ErrPortUnavailable, name)
	}
	d.reopen()
	return foxserial.NewPort(name, d, b.timeout), nil
}

// RandomTagBlock builds a plausible tag read for tagID: every fox visited
// once within the first two hours, carrying the given secrets
func RandomTagBlock(r *rand.Rand, tagID int, secrets [foxproto.FieldUnits]int) *foxproto.TagBlock {
	block := &foxproto.TagBlock{TagID: tagID, Secrets: secrets}
	for j := 0; j < foxproto.FieldUnits; j++ {
		block.History[j][0] = foxproto.HistoryEntry{
			TagID:   tagID,
			Seconds: r.Intn(2 * 60 * 60),
		}
	}
	return block
}
