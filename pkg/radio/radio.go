// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

// Package radio provides the half-duplex packet radios the device can key:
// a LoRa UART modem, a WebSocket air link for simulation, and an in-memory
// stub for tests.
package radio

import (
	"errors"
	"time"
)

var (
	// ErrClosed is returned once the radio or its link has been closed
	ErrClosed = errors.New("radio closed")

	// ErrTimeout is returned when the modem does not answer a command in time
	ErrTimeout = errors.New("radio command timed out")

	// ErrAsleep is returned when transmitting while powered off
	ErrAsleep = errors.New("radio is powered off")
)

// Radio is a half-duplex text radio
type Radio interface {
	// Listen arms the receiver
	Listen() error

	// Receive waits up to timeout for a frame. It returns nil, nil when
	// nothing usable arrived.
	Receive(timeout time.Duration) ([]byte, error)

	Transmit(text string) error

	// RSSI is the signal strength of the last received frame in dBm
	RSSI() int

	Power() int
	SetPower(dbm int) error
	Frequency() float64
	SetFrequency(mhz float64) error

	PowerOff() error
	PowerOn() error
	Close() error
}

// usable filters out empty and NUL-leading frames
func usable(frame []byte) []byte {
	if len(frame) == 0 || frame[0] == 0 {
		return nil
	}
	return frame
}
