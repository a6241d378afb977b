// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package foxproto

import "errors"

var (
	// ErrMalformedResponse is returned when a reply does not have the shape
	// the exchange requires
	ErrMalformedResponse = errors.New("malformed response")

	// ErrNotANumber is returned when a numeric field does not parse
	ErrNotANumber = errors.New("not a number")

	// ErrOutOfRange is returned for numbers outside their permitted range
	ErrOutOfRange = errors.New("out of range")

	// ErrDeviceMismatch is returned when a port answers with a different
	// fox number than expected
	ErrDeviceMismatch = errors.New("device mismatch")

	// ErrDeviceNotConnected is returned when no port can be confirmed to
	// hold the requested fox
	ErrDeviceNotConnected = errors.New("device not connected")
)
