// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
	"syscall"

	"github.com/Thermoquad/heliograph/pkg/config"
	"github.com/Thermoquad/heliograph/pkg/radio"
	"golang.org/x/term"
)

// passwordEnv holds the relay password for non-interactive use
const passwordEnv = "HELIOGRAPH_PASSWORD"

// GetPassword retrieves password from environment or prompts user
func GetPassword() (string, error) {
	// First check environment variable
	if pw := os.Getenv(passwordEnv); pw != "" {
		return pw, nil
	}

	// Prompt user for password (hide input)
	fmt.Fprint(os.Stderr, "Password: ")

	// Read password without echo
	passwordBytes, err := term.ReadPassword(int(syscall.Stdin))
	if err != nil {
		// Fallback to regular input if terminal functions fail
		reader := bufio.NewReader(os.Stdin)
		password, err := reader.ReadString('\n')
		if err != nil {
			return "", fmt.Errorf("failed to read password: %v", err)
		}
		fmt.Fprintln(os.Stderr) // newline after password
		return strings.TrimSpace(password), nil
	}

	fmt.Fprintln(os.Stderr) // newline after password
	return string(passwordBytes), nil
}

// OpenRadio opens the modem or relay link named by the flags. The returned
// string describes the connection for display.
func OpenRadio(cfg *config.Config) (radio.Radio, string, error) {
	if wsURL != "" {
		password := ""
		if wsUsername != "" {
			var err error
			password, err = GetPassword()
			if err != nil {
				return nil, "", err
			}
		}

		link, err := radio.DialLink(context.Background(), wsURL, radio.LinkOptions{
			Station:       cfg.Callsign,
			Username:      wsUsername,
			Password:      password,
			SkipSSLVerify: wsNoSSLVerify,
			Power:         cfg.Power,
			Frequency:     cfg.Frequency,
		})
		if err != nil {
			return nil, "", err
		}
		return link, fmt.Sprintf("Relay: %s", wsURL), nil
	}

	if portName != "" {
		modem, err := radio.OpenModem(portName, baudRate)
		if err != nil {
			return nil, "", err
		}
		return modem, fmt.Sprintf("Modem: %s @ %d baud", portName, baudRate), nil
	}

	return nil, "", fmt.Errorf("either --port or --url must be specified")
}

// tuneRadio applies the configured power and frequency
func tuneRadio(r radio.Radio, cfg *config.Config) error {
	if err := r.SetPower(cfg.Power); err != nil {
		return fmt.Errorf("failed to set power: %w", err)
	}
	if err := r.SetFrequency(cfg.Frequency); err != nil {
		return fmt.Errorf("failed to set frequency: %w", err)
	}
	return r.Listen()
}
