// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package foxproto

// Console tokens
const (
	Prompt        = "ARDF Transmitter#"
	OKToken       = "OK"
	NewTagToken   = "--- NEW TAG 0x55005500 ---"
	EndTagToken   = "--- END TAG 0x55005500 ---"
	ErrorTagToken = "ERROR TAG 0x55005500"
)

// Command keywords. Each carries its trailing space; the parameter is
// appended directly.
const (
	CmdGetFoxNumber        = "get fox number "
	CmdSetFoxNumber        = "set fox number "
	CmdGetCrystalFrequency = "get crystal frequency "
	CmdSetCrystalFrequency = "set crystal frequency "
	CmdSetCallSign         = "set call sign "
	CmdSetTransmitMinute   = "set transmit minute "
	CmdSetFoxMax           = "set fox max "
	CmdSetStartTime        = "set start time "
	CmdSetStartDate        = "set start date "
	CmdSetStopTime         = "set stop time "
	CmdSetStopDate         = "set stop date "
	CmdSetFrequency        = "set frequency "
	CmdSetWPM              = "set wpm "
	CmdSetModulation       = "set modulation "
	CmdSetMorsing          = "set morsing "
	CmdSetAmplitude        = "set amplitude "
	CmdResetHistory        = "reset history "
	CmdSetID               = "set id "
	CmdSetReload           = "set reload "
	CmdReload              = "reload "
	CmdSetSecret           = "set secret "
	CmdSetTime             = "set time "
	CmdSetDate             = "set date "
	CmdSetBlinking         = "set blinking "
	CmdExit                = "exit"
)

// Switch parameters
const (
	On  = "on"
	Off = "off"
)

// Wire formats for dates and times
const (
	DateLayout = "2006-01-02"
	TimeLayout = "15:04:05"
)

// Device and tag ranges
const (
	DemoDeviceID         = 0
	MinDeviceID          = 0
	MaxDeviceID          = 5
	FieldUnits           = 5
	MinTagID             = 1
	MaxTagID             = 65535
	MinSecret            = 1
	MaxSecret            = 65535
	HistoryEntriesPerFox = 12
)

// Command is one console command
type Command struct {
	Keyword string
	Param   string
}

// Line returns the text written to the console
func (c Command) Line() string {
	return c.Keyword + c.Param
}

func (c Command) String() string {
	return c.Line()
}
