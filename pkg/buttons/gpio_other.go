// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

//go:build !linux

package buttons

import (
	"errors"
	"time"
)

// ErrNoGPIO is returned on platforms without the GPIO character device
var ErrNoGPIO = errors.New("GPIO buttons require linux")

// GPIOSource is unavailable on this platform
type GPIOSource struct {
	*Tracker
}

// OpenGPIO always fails on this platform
func OpenGPIO(chip string, offsets [Count]int, longPress time.Duration) (*GPIOSource, error) {
	return nil, ErrNoGPIO
}

// Close does nothing
func (g *GPIOSource) Close() error {
	return nil
}
