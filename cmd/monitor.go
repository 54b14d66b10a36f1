// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"errors"
	"fmt"
	"time"

	"github.com/Thermoquad/heliograph/pkg/qso"
	"github.com/Thermoquad/heliograph/pkg/radio"
	"github.com/spf13/cobra"
)

var monitorCmd = &cobra.Command{
	Use:   "monitor",
	Short: "Display received frames in human-readable format",
	Long: `Continuously receive and display frames as they arrive.

Each frame is shown with timestamp, signal strength, and the stage of the
contact exchange it would match. Frames matching no grammar are shown as
plain text, frames that are not valid UTF-8 as a hex dump.

The radio is tuned from the configuration file. Nothing is transmitted.
Supports both serial and WebSocket connections.`,
	RunE: runMonitor,
}

func init() {
	rootCmd.AddCommand(monitorCmd)
}

func runMonitor(cmd *cobra.Command, args []string) error {
	logger := stderrLogger()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	r, connInfo, err := OpenRadio(cfg)
	if err != nil {
		return err
	}
	defer r.Close()

	if err := tuneRadio(r, cfg); err != nil {
		return err
	}

	fmt.Printf("Heliograph - Frame Monitor\n")
	fmt.Printf("Connection: %s\n", connInfo)
	fmt.Printf("Frequency: %.3f MHz\n", r.Frequency())
	fmt.Printf("Press Ctrl+C to exit\n\n")

	for {
		frame, err := r.Receive(time.Second)
		if err != nil {
			// A closed link does not come back
			if errors.Is(err, radio.ErrClosed) {
				if link, ok := r.(*radio.Link); ok && link.Err() != nil {
					logger.Info("connection closed", "err", link.Err())
				} else {
					logger.Info("connection closed")
				}
				return nil
			}
			logger.Warn("receive failed", "err", err)
			continue
		}
		if frame == nil {
			continue
		}
		fmt.Print(qso.FormatFrame(time.Now(), frame, r.RSSI()))
	}
}
