// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/Thermoquad/heliograph/pkg/buttons"
	"github.com/Thermoquad/heliograph/pkg/display"
	"github.com/Thermoquad/heliograph/pkg/fsm"
	"github.com/spf13/cobra"
)

var (
	gpioChip    string
	buttonLines []int
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the device headless with GPIO buttons",
	Long: `Run the protocol state machine on real hardware.

Buttons are read from three GPIO lines (active low, pulled up). The screen is
replaced by the log: every display change is logged at info level.

Button roles:
  0 (left)    previous, hold to reset the session
  1 (center)  send, hold for the configure menu
  2 (right)   next

The device runs until interrupted. Statistics are logged on exit.`,
	RunE: runDevice,
}

func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().StringVar(&gpioChip, "gpio-chip", "gpiochip0", "GPIO chip the buttons are wired to")
	runCmd.Flags().IntSliceVar(&buttonLines, "buttons", []int{17, 27, 22}, "GPIO line offsets of buttons 0, 1 and 2")
}

func runDevice(cmd *cobra.Command, args []string) error {
	logger, err := newLogger(os.Stderr)
	if err != nil {
		return err
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	if len(buttonLines) != buttons.Count {
		return fmt.Errorf("--buttons needs %d line offsets, got %d", buttons.Count, len(buttonLines))
	}
	var offsets [buttons.Count]int
	copy(offsets[:], buttonLines)

	src, err := buttons.OpenGPIO(gpioChip, offsets, cfg.LongPress())
	if err != nil {
		return err
	}
	defer src.Close()

	r, connInfo, err := OpenRadio(cfg)
	if err != nil {
		return err
	}
	defer r.Close()

	if err := tuneRadio(r, cfg); err != nil {
		return err
	}

	screen, err := display.NewLogDisplay(logger, cfg.ClockFormat)
	if err != nil {
		return err
	}

	logger.Info("starting", "callsign", cfg.Callsign, "grid", cfg.Grid, "mode", cfg.Mode, "radio", connInfo)

	c := fsm.NewContext(cfg, r, screen, logger)
	machine := fsm.NewMachine(c)
	driver := &fsm.Driver{Machine: machine, Buttons: src}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err = driver.Run(ctx)

	c.Stats.CalculateRates()
	logger.Info("statistics\n" + c.Stats.String())

	if err != nil {
		if errors.Is(err, fsm.ErrInvalidTransition) {
			logger.Error("state machine stopped", "state", machine.State().Name(), "err", err)
		}
		return err
	}
	return nil
}
