// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package foxproto

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// MHzToHz converts a frequency in MHz to whole Hz, truncating toward zero.
// The product is first rounded to a micro-hertz so decimal inputs such as
// 3.579 are not pulled one Hz low by binary representation error.
func MHzToHz(mhz float64) int64 {
	return int64(math.Trunc(math.Round(mhz*1e12) / 1e6))
}

// HzToMHz converts whole Hz to MHz
func HzToMHz(hz int64) float64 {
	return float64(hz) / 1e6
}

// ParseMHz parses a user-entered MHz value into Hz
func ParseMHz(text string) (int64, error) {
	mhz, err := strconv.ParseFloat(strings.TrimSpace(text), 64)
	if err != nil || math.IsNaN(mhz) || math.IsInf(mhz, 0) {
		return 0, fmt.Errorf("%w: %q", ErrNotANumber, text)
	}
	return MHzToHz(mhz), nil
}

// FormatMHz renders Hz as a MHz string without trailing zeros
func FormatMHz(hz int64) string {
	return strconv.FormatFloat(HzToMHz(hz), 'f', -1, 64)
}
