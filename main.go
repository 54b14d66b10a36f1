// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad
//
// Heliograph - handheld beacon and contact radio
//
// Runs the contact protocol on a LoRa modem with GPIO buttons, or simulates
// the device in a terminal against a WebSocket relay.

package main

import (
	"os"

	"github.com/Thermoquad/heliograph/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
