// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

//go:build linux

package buttons

import (
	"fmt"
	"time"

	"github.com/warthog618/go-gpiocdev"
)

// GPIOSource reads the buttons from GPIO character-device lines. Buttons are
// wired active-low against the internal pull-ups, so a falling edge is a press.
type GPIOSource struct {
	*Tracker
	lines   *gpiocdev.Lines
	offsets []int
}

// DefaultDebounce is applied to every button line
const DefaultDebounce = 10 * time.Millisecond

// OpenGPIO requests the three button lines on chip (e.g. "gpiochip0").
// offsets holds the line offset for buttons 0, 1 and 2 in that order.
func OpenGPIO(chip string, offsets [Count]int, longPress time.Duration) (*GPIOSource, error) {
	g := &GPIOSource{
		Tracker: NewTracker(longPress),
		offsets: offsets[:],
	}

	lines, err := gpiocdev.RequestLines(chip, g.offsets,
		gpiocdev.AsInput,
		gpiocdev.WithPullUp,
		gpiocdev.WithBothEdges,
		gpiocdev.WithDebounce(DefaultDebounce),
		gpiocdev.WithConsumer("heliograph"),
		gpiocdev.WithEventHandler(g.handle),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to request button lines on %s: %w", chip, err)
	}
	g.lines = lines
	return g, nil
}

func (g *GPIOSource) handle(evt gpiocdev.LineEvent) {
	b := g.button(evt.Offset)
	if b < 0 {
		return
	}
	// Event timestamps are monotonic and not comparable to wall time
	now := time.Now()
	switch evt.Type {
	case gpiocdev.LineEventFallingEdge:
		g.Press(b, now)
	case gpiocdev.LineEventRisingEdge:
		g.Release(b, now)
	}
}

func (g *GPIOSource) button(offset int) Button {
	for i, o := range g.offsets {
		if o == offset {
			return Button(i)
		}
	}
	return -1
}

// Close releases the lines
func (g *GPIOSource) Close() error {
	return g.lines.Close()
}
