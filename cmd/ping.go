// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/Thermoquad/heliograph/pkg/qso"
	"github.com/Thermoquad/heliograph/pkg/radio"
	"github.com/spf13/cobra"
)

var (
	pingTimeout int
	pingCount   int
)

var pingCmd = &cobra.Command{
	Use:   "ping",
	Short: "Transmit the beacon and report frames heard back",
	Long: `Transmit the configured beacon and wait for any frame in reply.

This command tests the radio path end to end. Another station in beacon mode
answers nothing, but a station running sequence or free mode, or a second
ping, is heard and reported with its signal strength.

This is useful for verifying:
  - The modem or relay connection is established
  - HTTP Basic authentication works (relay only)
  - Power and frequency settings reach another station
  - Bidirectional frame flow works

Exit codes:
  0 - Every beacon was answered
  1 - One or more beacons went unanswered
  2 - Connection error`,
	RunE: runPing,
}

func init() {
	rootCmd.AddCommand(pingCmd)
	pingCmd.Flags().IntVar(&pingTimeout, "timeout", 5, "Timeout in seconds for each beacon")
	pingCmd.Flags().IntVar(&pingCount, "count", 3, "Number of beacons to send")
}

func runPing(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	beacon, err := qso.Render(cfg.Messages.Beacon, qso.Params{
		qso.ParamMyCall: cfg.Callsign,
		qso.ParamMyGrid: cfg.Grid,
	})
	if err != nil {
		return fmt.Errorf("beacon template: %w", err)
	}

	// Open connection (serial or WebSocket)
	r, connInfo, err := OpenRadio(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Connection error: %v\n", err)
		os.Exit(2)
	}
	defer r.Close()

	if err := tuneRadio(r, cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Connection error: %v\n", err)
		os.Exit(2)
	}

	fmt.Printf("Heliograph - Beacon Ping\n")
	fmt.Printf("Connection: %s\n", connInfo)
	fmt.Printf("Beacon: %s\n", beacon)
	fmt.Printf("Timeout: %d seconds per beacon\n", pingTimeout)
	fmt.Printf("Count: %d beacons\n\n", pingCount)

	successCount := 0
	failCount := 0
	timeout := time.Duration(pingTimeout) * time.Second

loop:
	for i := 1; i <= pingCount; i++ {
		fmt.Printf("Beacon %d/%d: ", i, pingCount)

		startTime := time.Now()
		if err := r.Transmit(beacon); err != nil {
			fmt.Printf("SEND FAILED: %v\n", err)
			failCount++
			continue
		}

		frame, err := waitFrame(r, timeout)
		switch {
		case err != nil:
			fmt.Printf("READ FAILED: %v\n", err)
			failCount++
			// A closed link does not come back
			if errors.Is(err, radio.ErrClosed) {
				failCount += pingCount - i
				break loop
			}

		case frame == nil:
			fmt.Printf("TIMEOUT (nothing heard in %ds)\n", pingTimeout)
			failCount++

		default:
			rtt := time.Since(startTime)
			fmt.Printf("heard %q, rssi=%d dBm, rtt=%v\n", qso.Normalize(string(frame)), r.RSSI(), rtt.Round(time.Millisecond))
			successCount++
		}

		// Small delay between beacons
		if i < pingCount {
			time.Sleep(100 * time.Millisecond)
		}
	}

	// Summary
	fmt.Printf("\n--- Ping statistics ---\n")
	fmt.Printf("%d beacons sent, %d replies heard, %.0f%% unanswered\n",
		pingCount, successCount, float64(failCount)/float64(pingCount)*100)

	if failCount > 0 {
		os.Exit(1)
	}
	return nil
}

// waitFrame receives until a usable frame arrives or timeout passes
func waitFrame(r radio.Radio, timeout time.Duration) ([]byte, error) {
	deadline := time.Now().Add(timeout)
	for {
		remaining := time.Until(deadline)
		if remaining <= 0 {
			return nil, nil
		}
		frame, err := r.Receive(remaining)
		if err != nil {
			return nil, err
		}
		if frame != nil {
			return frame, nil
		}
	}
}
