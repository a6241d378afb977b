// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package fox

import (
	"sort"

	"github.com/sirupsen/logrus"

	"github.com/Thermoquad/foxstat/pkg/foxproto"
	"github.com/Thermoquad/foxstat/pkg/foxserial"
	"github.com/Thermoquad/foxstat/pkg/logging"
)

// IDReader asks a port for its fox number. *foxproto.Client implements it.
type IDReader interface {
	ReadDeviceID(portName string) (int, error)
	ProbeDeviceID(portName string) (int, error)
}

const deviceSlots = foxproto.MaxDeviceID + 1

// DeviceMap binds fox numbers to the ports they answered on
type DeviceMap struct {
	ports  [deviceSlots]string
	live   [deviceSlots]bool
	claims map[int][]string

	// Scanned lists every port the scan looked at, in scan order
	Scanned []string
}

// NewDeviceMap returns an empty map
func NewDeviceMap() *DeviceMap {
	return &DeviceMap{claims: make(map[int][]string)}
}

// Bind records that port answered with id. A later bind for the same id
// replaces the port but every claim is kept.
func (m *DeviceMap) Bind(id int, port string) {
	if id < foxproto.MinDeviceID || id > foxproto.MaxDeviceID {
		return
	}
	m.ports[id] = port
	m.live[id] = true
	m.claims[id] = append(m.claims[id], port)
}

// Port returns the port bound to id
func (m *DeviceMap) Port(id int) (string, bool) {
	if id < foxproto.MinDeviceID || id > foxproto.MaxDeviceID || !m.live[id] {
		return "", false
	}
	return m.ports[id], true
}

// Live reports whether id answered during the scan
func (m *DeviceMap) Live(id int) bool {
	if id < foxproto.MinDeviceID || id > foxproto.MaxDeviceID {
		return false
	}
	return m.live[id]
}

// LiveIDs returns the fox numbers found, ascending
func (m *DeviceMap) LiveIDs() []int {
	var ids []int
	for id := range m.live {
		if m.live[id] {
			ids = append(ids, id)
		}
	}
	return ids
}

// Claims returns every port that answered with id, in scan order
func (m *DeviceMap) Claims(id int) []string {
	return append([]string(nil), m.claims[id]...)
}

// Ambiguous returns the fox numbers that more than one port answered with
func (m *DeviceMap) Ambiguous() []int {
	var ids []int
	for id, ports := range m.claims {
		if len(ports) > 1 {
			ids = append(ids, id)
		}
	}
	sort.Ints(ids)
	return ids
}

// Scanner probes every listed port for a transmitter
type Scanner struct {
	list foxserial.PortLister
	ids  IDReader
	log  logrus.FieldLogger

	// OnPort, if set, is called before each port is probed
	OnPort func(port string)
}

// NewScanner creates a scanner. A nil logger discards output.
func NewScanner(list foxserial.PortLister, ids IDReader, log logrus.FieldLogger) *Scanner {
	return &Scanner{
		list: list,
		ids:  ids,
		log:  logging.OrDiscard(log),
	}
}

// Scan queries each port in enumeration order. Ports that fail to open or
// answer are skipped. When two ports report the same number the later one
// holds the binding.
func (s *Scanner) Scan() (*DeviceMap, error) {
	ports, err := s.list()
	if err != nil {
		return nil, err
	}

	m := NewDeviceMap()
	for _, port := range ports {
		m.Scanned = append(m.Scanned, port)
		if s.OnPort != nil {
			s.OnPort(port)
		}

		id, err := s.ids.ProbeDeviceID(port)
		if err != nil {
			s.log.WithField("port", port).WithError(err).Debug("skipping port")
			continue
		}

		if prev, ok := m.Port(id); ok {
			s.log.WithFields(logrus.Fields{"fox": id, "port": port, "previous": prev}).Warn("fox number answered on more than one port")
		}
		m.Bind(id, port)
		s.log.WithFields(logrus.Fields{"fox": id, "port": port}).Debug("fox found")
	}

	s.log.WithField("found", len(m.LiveIDs())).Info("scan complete")
	return m, nil
}
