// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package fsm

import (
	"context"
	"time"

	"github.com/Thermoquad/heliograph/pkg/buttons"
)

// Driver polls the buttons and ticks the machine until the context ends.
// Ticks run back to back; the radio receive timeout paces the loop. The
// context is only checked between ticks, a tick always runs to completion.
type Driver struct {
	Machine *Machine
	Buttons buttons.Poller

	// Interval is an optional pause between ticks
	Interval time.Duration

	// Clock defaults to time.Now
	Clock func() time.Time
}

// Step runs a single tick
func (d *Driver) Step() error {
	now := time.Now
	if d.Clock != nil {
		now = d.Clock
	}
	short, long := d.Buttons.Poll()
	return d.Machine.Tick(Input{Short: short, Long: long, Now: now()})
}

// Run ticks until ctx is done or a transition fails
func (d *Driver) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		if err := d.Step(); err != nil {
			return err
		}

		if d.Interval > 0 {
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(d.Interval):
			}
		}
	}
}
