// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

// Package display holds the device screen: three text lines, a selection
// marker, RX/TX indicators, a mode badge and a clock.
package display

import "time"

// Lines is the number of text lines on the screen
const Lines = 3

// NoSelect hides the selection marker
const NoSelect = -1

// Mode is the badge shown in the status row
type Mode int

const (
	ModeNone Mode = iota
	ModeBeacon
	ModeSequence
	ModeFree
	ModeMenu
)

func (m Mode) String() string {
	switch m {
	case ModeBeacon:
		return "BCN"
	case ModeSequence:
		return "SEQ"
	case ModeFree:
		return "FREE"
	case ModeMenu:
		return "MENU"
	default:
		return "----"
	}
}

// Display is the screen as driven by the protocol states. Every call is a
// fire-and-forget effect.
type Display interface {
	SetText(line int, text string, inverse bool)
	SetAllText(lines []string)
	ClearText()
	SetSelect(index int)
	SetRX(on bool)
	SetTX(on bool)
	SetRXError(on bool)
	SetMode(m Mode)
	DrawTime(now time.Time)
	Sleep()
	Wake()
}

// State is a copy of everything on the screen
type State struct {
	Text    [Lines]string
	Inverse [Lines]bool
	Select  int
	RX      bool
	TX      bool
	RXError bool
	Mode    Mode
	Clock   string
	Asleep  bool
}
