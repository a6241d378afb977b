// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package foxproto

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Layout of the lines that follow the NEW TAG sentinel
const (
	tagIDLine        = 1
	firstSecretLine  = 2
	firstHistoryLine = 9
	historyLines     = HistoryEntriesPerFox * 2
	foxGroupLines    = historyLines + 2 // entries plus blank line and "Fox k:" header
	tagBlockMinLines = firstHistoryLine + (FieldUnits-1)*foxGroupLines + historyLines
)

// HistoryEntry is one punch stored on a tag for a given fox
type HistoryEntry struct {
	TagID   int
	Seconds int
}

// TagBlock is the content of one tag read
type TagBlock struct {
	TagID   int
	Secrets [FieldUnits]int
	History [FieldUnits][HistoryEntriesPerFox]HistoryEntry
}

// ParseTagBlock decodes the lines following a NEW TAG sentinel, as returned
// by ReadUntilTagBlockEnd
func ParseTagBlock(lines []string) (*TagBlock, error) {
	for i, line := range lines {
		if strings.Contains(line, ErrorTagToken) {
			return nil, fmt.Errorf("%w: tag read error reported at line %d", ErrMalformedResponse, i)
		}
	}
	if len(lines) < tagBlockMinLines {
		return nil, fmt.Errorf("%w: tag block has %d lines, want at least %d", ErrMalformedResponse, len(lines), tagBlockMinLines)
	}

	block := &TagBlock{}

	var err error
	if block.TagID, err = fieldValue(lines, tagIDLine, "Tag ID: "); err != nil {
		return nil, err
	}

	for k := 0; k < FieldUnits; k++ {
		prefix := fmt.Sprintf("Fox %d Secret: ", k+1)
		if block.Secrets[k], err = fieldValue(lines, firstSecretLine+k, prefix); err != nil {
			return nil, err
		}
	}

	for j := 0; j < FieldUnits; j++ {
		for i := 0; i < HistoryEntriesPerFox; i++ {
			at := firstHistoryLine + j*foxGroupLines + 2*i
			entry := &block.History[j][i]
			if entry.TagID, err = fieldValue(lines, at, "Tag ID: "); err != nil {
				return nil, err
			}
			if entry.Seconds, err = fieldValue(lines, at+1, "Timestamp: "); err != nil {
				return nil, err
			}
		}
	}

	return block, nil
}

func fieldValue(lines []string, index int, prefix string) (int, error) {
	line := lines[index]
	at := strings.Index(line, prefix)
	if at < 0 {
		return 0, fmt.Errorf("%w: line %d: expected %q, got %q", ErrMalformedResponse, index, prefix, line)
	}
	value, err := strconv.Atoi(strings.TrimSpace(line[at+len(prefix):]))
	if err != nil {
		return 0, fmt.Errorf("%w: line %d: %w: %q", ErrMalformedResponse, index, ErrNotANumber, line)
	}
	return value, nil
}

// TagRecord is one tag read checked against the event secrets
type TagRecord struct {
	TagID   int
	Secrets [FieldUnits]int
	// Seconds after event start of the latest visit to each fox
	Timestamps [FieldUnits]int
	// One 'y' or 'n' per fox
	Match      string
	DetectedAt time.Time
}

// NewTagRecord takes the latest history entry per fox from block and
// compares its secrets against expected
func NewTagRecord(block *TagBlock, expected [FieldUnits]int, detectedAt time.Time) TagRecord {
	rec := TagRecord{
		TagID:      block.TagID,
		Secrets:    block.Secrets,
		Match:      MatchSecrets(block.Secrets, expected),
		DetectedAt: detectedAt,
	}
	for j := 0; j < FieldUnits; j++ {
		rec.Timestamps[j] = block.History[j][0].Seconds
	}
	return rec
}

// MatchSecrets compares secrets position by position
func MatchSecrets(got, expected [FieldUnits]int) string {
	var b strings.Builder
	for k := 0; k < FieldUnits; k++ {
		if got[k] == expected[k] {
			b.WriteByte('y')
		} else {
			b.WriteByte('n')
		}
	}
	return b.String()
}

// AllMatch reports whether every fox secret matched
func (r TagRecord) AllMatch() bool {
	return r.Match == strings.Repeat("y", FieldUnits)
}

// FoxTimes converts the relative timestamps to wall clock times
func (r TagRecord) FoxTimes(start time.Time) [FieldUnits]time.Time {
	var out [FieldUnits]time.Time
	for j, s := range r.Timestamps {
		out[j] = start.Add(time.Duration(s) * time.Second)
	}
	return out
}

// FormatTagBlock renders a block in the layout the transmitter prints,
// sentinels included
func FormatTagBlock(block *TagBlock) []string {
	lines := []string{
		"",
		NewTagToken,
		"",
		fmt.Sprintf("Tag ID: %d", block.TagID),
	}
	for k, s := range block.Secrets {
		lines = append(lines, fmt.Sprintf("Fox %d Secret: %d", k+1, s))
	}
	for j := 0; j < FieldUnits; j++ {
		lines = append(lines, "", fmt.Sprintf("Fox %d: ", j+1))
		for _, e := range block.History[j] {
			lines = append(lines,
				fmt.Sprintf("Tag ID: %d", e.TagID),
				fmt.Sprintf(" Timestamp: %d", e.Seconds))
		}
	}
	lines = append(lines, "", EndTagToken)
	return lines
}
