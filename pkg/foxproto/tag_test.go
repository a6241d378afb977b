// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package foxproto_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Thermoquad/foxstat/pkg/foxproto"
)

// blockLines renders a block and drops everything up to and including the
// NEW TAG sentinel, as the listener sees it
func blockLines(block *foxproto.TagBlock) []string {
	lines := foxproto.FormatTagBlock(block)
	for i, line := range lines {
		if line == foxproto.NewTagToken {
			return lines[i+1:]
		}
	}
	return nil
}

func sampleBlock() *foxproto.TagBlock {
	block := &foxproto.TagBlock{
		TagID:   17,
		Secrets: [foxproto.FieldUnits]int{1, 2, 3, 4, 5},
	}
	for j := 0; j < foxproto.FieldUnits; j++ {
		block.History[j][0] = foxproto.HistoryEntry{TagID: 17, Seconds: 600 * (j + 1)}
		block.History[j][1] = foxproto.HistoryEntry{TagID: 9, Seconds: 30}
	}
	return block
}

func TestParseTagBlock(t *testing.T) {
	lines := blockLines(sampleBlock())

	// Fixed positions the reader prints
	assert.Equal(t, "", lines[0])
	assert.Equal(t, "Tag ID: 17", lines[1])
	assert.Equal(t, "Fox 1 Secret: 1", lines[2])
	assert.Equal(t, "Fox 1: ", lines[8])
	assert.Equal(t, "Tag ID: 17", lines[9])
	assert.Equal(t, " Timestamp: 600", lines[10])
	assert.Equal(t, "Fox 2: ", lines[34])
	assert.Equal(t, " Timestamp: 1200", lines[36])
	assert.Equal(t, foxproto.EndTagToken, lines[len(lines)-1])

	block, err := foxproto.ParseTagBlock(lines)
	require.NoError(t, err)
	assert.Equal(t, sampleBlock(), block)
}

func TestParseTagBlockErrors(t *testing.T) {
	tests := []struct {
		name   string
		mangle func([]string) []string
	}{
		{"reader error", func(l []string) []string {
			return []string{"", "--- ERROR TAG 0x55005500 ---"}
		}},
		{"truncated", func(l []string) []string { return l[:100] }},
		{"wrong prefix", func(l []string) []string { l[1] = "Tag: 17"; return l }},
		{"secret not numeric", func(l []string) []string { l[4] = "Fox 3 Secret: abc"; return l }},
		{"secret for wrong fox", func(l []string) []string { l[4] = "Fox 4 Secret: 3"; return l }},
		{"timestamp not numeric", func(l []string) []string { l[36] = " Timestamp: "; return l }},
		{"history shifted", func(l []string) []string { return append(l[:20], l[21:]...) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := foxproto.ParseTagBlock(tt.mangle(blockLines(sampleBlock())))
			assert.ErrorIs(t, err, foxproto.ErrMalformedResponse)
		})
	}
}

func TestMatchSecrets(t *testing.T) {
	tests := []struct {
		name     string
		got      [foxproto.FieldUnits]int
		expected [foxproto.FieldUnits]int
		want     string
	}{
		{"all match", [5]int{1, 2, 3, 4, 5}, [5]int{1, 2, 3, 4, 5}, "yyyyy"},
		{"one wrong", [5]int{1, 2, 3, 4, 5}, [5]int{1, 2, 9, 4, 5}, "yynyy"},
		{"unvisited", [5]int{0, 0, 0, 0, 0}, [5]int{1, 2, 3, 4, 5}, "nnnnn"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, foxproto.MatchSecrets(tt.got, tt.expected))
		})
	}
}

func TestNewTagRecord(t *testing.T) {
	detected := time.Date(2026, 5, 17, 12, 0, 0, 0, time.UTC)
	rec := foxproto.NewTagRecord(sampleBlock(), [5]int{1, 2, 9, 4, 5}, detected)

	assert.Equal(t, 17, rec.TagID)
	assert.Equal(t, "yynyy", rec.Match)
	assert.False(t, rec.AllMatch())
	assert.Equal(t, [foxproto.FieldUnits]int{600, 1200, 1800, 2400, 3000}, rec.Timestamps)
	assert.Equal(t, detected, rec.DetectedAt)

	start := time.Date(2026, 5, 17, 10, 0, 0, 0, time.UTC)
	times := rec.FoxTimes(start)
	assert.Equal(t, start.Add(10*time.Minute), times[0])
	assert.Equal(t, start.Add(50*time.Minute), times[4])
}
