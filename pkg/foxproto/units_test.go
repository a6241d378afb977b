// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package foxproto_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Thermoquad/foxstat/pkg/foxproto"
)

func TestMHzToHz(t *testing.T) {
	tests := []struct {
		mhz  float64
		want int64
	}{
		{3.5, 3500000},
		{3.579, 3579000},
		{3.6000009, 3600000},
		{3.5700001, 3570000},
		{0, 0},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, foxproto.MHzToHz(tt.mhz), "%v MHz", tt.mhz)
	}
}

func TestParseMHz(t *testing.T) {
	hz, err := foxproto.ParseMHz(" 3.55 ")
	require.NoError(t, err)
	assert.EqualValues(t, 3550000, hz)

	_, err = foxproto.ParseMHz("three")
	assert.ErrorIs(t, err, foxproto.ErrNotANumber)

	_, err = foxproto.ParseMHz("NaN")
	assert.ErrorIs(t, err, foxproto.ErrNotANumber)
}

func TestFormatMHz(t *testing.T) {
	assert.Equal(t, "3.5", foxproto.FormatMHz(3500000))
	assert.Equal(t, "0.032768", foxproto.FormatMHz(32768))
}
