// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/Thermoquad/heliograph/pkg/config"
	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
)

var (
	configPath string
	logLevel   string

	// Serial connection flags
	portName string
	baudRate int

	// WebSocket connection flags
	wsURL         string
	wsUsername    string
	wsNoSSLVerify bool
)

var rootCmd = &cobra.Command{
	Use:   "heliograph",
	Short: "Handheld beacon and contact radio",
	Long: `Heliograph - A handheld radio for beacons and short automated contacts.

Runs a six-stage contact exchange (CQ, grid, report, acknowledged report,
RRR, 73) between two stations, an unattended beacon, or free-text messages.

Radio modes:
  Serial:    --port /dev/ttyUSB0 [--baud 115200]   (RYLR896 LoRa modem)
  WebSocket: --url ws://host/air [--username user] (heliograph relay)

For WebSocket authentication, the password is read from the HELIOGRAPH_PASSWORD
environment variable, or prompted interactively if not set. The --password
flag is intentionally not provided to avoid leaking credentials in shell history.`,
	Version:       "0.3.0",
	SilenceUsage:  true,
	SilenceErrors: false,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", config.DefaultPath, "Station configuration file")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")

	// Serial connection flags
	rootCmd.PersistentFlags().StringVarP(&portName, "port", "p", "", "Serial port of the LoRa modem")
	rootCmd.PersistentFlags().IntVarP(&baudRate, "baud", "b", 115200, "Baud rate (serial only)")

	// WebSocket connection flags
	rootCmd.PersistentFlags().StringVarP(&wsURL, "url", "u", "", "Relay URL (ws:// or wss://)")
	rootCmd.PersistentFlags().StringVar(&wsUsername, "username", "", "Username for HTTP Basic auth")
	rootCmd.PersistentFlags().BoolVar(&wsNoSSLVerify, "no-ssl-verify", false, "Skip TLS certificate verification (wss:// only)")
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

// newLogger creates the process logger at the --log-level level
func newLogger(w io.Writer) (*log.Logger, error) {
	level, err := log.ParseLevel(logLevel)
	if err != nil {
		return nil, fmt.Errorf("invalid --log-level %q: %w", logLevel, err)
	}
	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		Prefix:          "heliograph",
		Level:           level,
	}), nil
}

// loadConfig loads the --config file
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	return cfg, nil
}

func stderrLogger() *log.Logger {
	logger, err := newLogger(os.Stderr)
	if err != nil {
		logger = log.New(os.Stderr)
		logger.Warn("falling back to info level", "err", err)
	}
	return logger
}
