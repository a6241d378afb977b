// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package foxproto

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/Thermoquad/foxstat/pkg/foxserial"
)

// LineReader yields one console line per call and reports
// foxserial.ErrReadTimeout when the stream goes quiet
type LineReader interface {
	ReadLine() (string, error)
}

// LinePort is the part of a port the protocol needs
type LinePort interface {
	LineReader
	WriteLine(text string) error
	Flush() error
}

// ReadUntilPrompt collects lines up to and including the first one that
// contains the prompt. A read timeout ends collection early without error;
// callers must check the shape of what came back.
func ReadUntilPrompt(r LineReader) ([]string, error) {
	return readUntil(r, func(line string) bool {
		return strings.Contains(line, Prompt)
	})
}

// ReadUntilTagBlockEnd collects lines up to and including the block end or
// block error sentinel
func ReadUntilTagBlockEnd(r LineReader) ([]string, error) {
	return readUntil(r, func(line string) bool {
		return strings.Contains(line, EndTagToken) || strings.Contains(line, ErrorTagToken)
	})
}

// ReadAllAvailable drains lines until the stream goes quiet
func ReadAllAvailable(r LineReader) ([]string, error) {
	return readUntil(r, nil)
}

func readUntil(r LineReader, stop func(string) bool) ([]string, error) {
	var lines []string
	for {
		line, err := r.ReadLine()
		if err != nil {
			if errors.Is(err, foxserial.ErrReadTimeout) {
				return lines, nil
			}
			return lines, err
		}

		lines = append(lines, line)
		if stop != nil && stop(line) {
			return lines, nil
		}
	}
}

// IsOKResponse reports whether lines end in an acknowledged prompt.
//
// Two shapes are accepted: OK directly before a final prompt line, or OK
// followed by the prompt and one trailing line.
func IsOKResponse(lines []string) bool {
	n := len(lines)
	if n >= 2 && strings.Contains(lines[n-1], Prompt) && strings.Contains(lines[n-2], OKToken) {
		return true
	}
	if n >= 3 && strings.Contains(lines[n-2], Prompt) && strings.Contains(lines[n-3], OKToken) {
		return true
	}
	return false
}

// CheckResponse returns ErrMalformedResponse unless lines are an OK response
func CheckResponse(lines []string) error {
	if IsOKResponse(lines) {
		return nil
	}
	if len(lines) == 0 {
		return fmt.Errorf("%w: no reply", ErrMalformedResponse)
	}
	return fmt.Errorf("%w: %q", ErrMalformedResponse, lines)
}

// ParseInt parses a trimmed decimal field and checks it against [min, max]
func ParseInt(text string, min, max int) (int, error) {
	value, err := strconv.Atoi(strings.TrimSpace(text))
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrNotANumber, text)
	}
	if value < min || value > max {
		return 0, fmt.Errorf("%w: %d not in [%d, %d]", ErrOutOfRange, value, min, max)
	}
	return value, nil
}
