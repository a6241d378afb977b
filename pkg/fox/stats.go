// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package fox

import (
	"fmt"
	"time"
)

// ListenerStats tracks what a tag listener has seen
type ListenerStats struct {
	StartTime      time.Time
	LastUpdateTime time.Time

	// Counters
	LinesRead       uint64
	LinesDiscarded  uint64
	TagBlocks       uint64
	Records         uint64
	MalformedBlocks uint64
	FullMatches     uint64
	PartialMatches  uint64

	// Rates (calculated)
	RecordRate float64 // records/min
}

// NewListenerStats creates a new statistics tracker
func NewListenerStats() *ListenerStats {
	now := time.Now()
	return &ListenerStats{
		StartTime:      now,
		LastUpdateTime: now,
	}
}

func (s *ListenerStats) lineRead(discarded bool) {
	s.LinesRead++
	if discarded {
		s.LinesDiscarded++
	}
}

// blockRead counts one tag block; match is empty for malformed blocks
func (s *ListenerStats) blockRead(match string, malformed bool) {
	s.TagBlocks++
	s.LastUpdateTime = time.Now()
	if malformed {
		s.MalformedBlocks++
		return
	}

	s.Records++
	full := true
	for _, c := range match {
		if c != 'y' {
			full = false
			break
		}
	}
	if full {
		s.FullMatches++
	} else {
		s.PartialMatches++
	}
}

// CalculateRates calculates the record rate
func (s *ListenerStats) CalculateRates() {
	elapsed := time.Since(s.StartTime).Minutes()
	if elapsed > 0 {
		s.RecordRate = float64(s.Records) / elapsed
	}
}

// String returns a formatted statistics summary
func (s ListenerStats) String() string {
	s.CalculateRates()

	var malformedPercent float64
	if s.TagBlocks > 0 {
		malformedPercent = float64(s.MalformedBlocks) * 100.0 / float64(s.TagBlocks)
	}

	elapsed := time.Since(s.StartTime)

	result := fmt.Sprintf("=== Listener (%.0f seconds) ===\n", elapsed.Seconds())
	result += fmt.Sprintf("Lines Read:      %8d\n", s.LinesRead)
	result += fmt.Sprintf("Tag Blocks:      %8d\n", s.TagBlocks)
	result += fmt.Sprintf("Records:         %8d\n", s.Records)
	if s.Records > 0 {
		result += fmt.Sprintf("  All Secrets OK:   %5d\n", s.FullMatches)
		result += fmt.Sprintf("  Secret Mismatch:  %5d\n", s.PartialMatches)
	}
	if s.MalformedBlocks > 0 {
		result += fmt.Sprintf("Malformed Blocks:%8d (%.1f%%)\n", s.MalformedBlocks, malformedPercent)
	}
	result += fmt.Sprintf("Record Rate:     %8.1f records/min\n", s.RecordRate)
	result += "==============================\n"

	return result
}
