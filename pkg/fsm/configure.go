// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package fsm

import (
	"time"

	"github.com/Thermoquad/heliograph/pkg/buttons"
	"github.com/Thermoquad/heliograph/pkg/config"
	"github.com/Thermoquad/heliograph/pkg/display"
)

// MenuItem is one entry of the configure menu
type MenuItem int

const (
	MenuResume MenuItem = iota
	MenuBeacon
	MenuSequence
	MenuFree
	MenuPowerOff

	menuCount = 5
)

var menuLabels = [menuCount]string{
	MenuResume:   "RESUME",
	MenuBeacon:   "BEACON",
	MenuSequence: "SEQUENCE",
	MenuFree:     "FREE",
	MenuPowerOff: "POWER OFF",
}

func (i MenuItem) String() string {
	if i < 0 || i >= menuCount {
		return "?"
	}
	return menuLabels[i]
}

var menuModes = map[MenuItem]config.Mode{
	MenuBeacon:   config.ModeBeacon,
	MenuSequence: config.ModeSequence,
	MenuFree:     config.ModeFree,
}

// configure is the menu. It keeps the state it interrupted so Resume, or
// another long press of the center button, can go back to it.
type configure struct {
	prev   State
	cursor MenuItem
}

func enterConfigure(c *Context, prev State) State {
	s := &configure{prev: prev}
	c.Display.SetMode(display.ModeMenu)
	c.Display.SetRXError(false)
	s.show(c)
	return s
}

// show renders a three-line window over the menu that keeps the cursor visible
func (s *configure) show(c *Context) {
	top := max(0, min(int(s.cursor)-1, menuCount-display.Lines))
	lines := make([]string, 0, display.Lines)
	for i := top; i < top+display.Lines; i++ {
		lines = append(lines, MenuItem(i).String())
	}
	c.Display.SetAllText(lines)
	c.Display.SetSelect(int(s.cursor) - top)
}

func (s *configure) Name() string { return "Configure" }

// Cursor is the highlighted menu item
func (s *configure) Cursor() MenuItem { return s.cursor }

func (s *configure) Next(in Input, c *Context) State {
	switch {
	case in.Short.Has(buttons.Center):
		return s.activate(c, in.Now)
	case in.Short.Has(buttons.Left):
		s.cursor = (s.cursor + menuCount - 1) % menuCount
		s.show(c)
	case in.Short.Has(buttons.Right):
		s.cursor = (s.cursor + 1) % menuCount
		s.show(c)
	}
	return s
}

func (s *configure) activate(c *Context, now time.Time) State {
	switch s.cursor {
	case MenuResume:
		return resume(c, s.prev, now)
	case MenuPowerOff:
		return enterPoweredOff(c, s.prev)
	}

	mode := menuModes[s.cursor]
	c.Log.Info("mode selected", "mode", mode)
	c.Mode = mode
	c.Session.Reset()
	c.Session.BeaconCount = 0
	c.retry = retryState{}
	c.Display.ClearText()
	return enterMode(c, now)
}

// poweredOff sleeps the radio and display until any button is pressed
type poweredOff struct {
	prev State
}

func enterPoweredOff(c *Context, prev State) State {
	c.Log.Info("powering off")
	c.Display.Sleep()
	if err := c.Radio.PowerOff(); err != nil {
		c.Log.Warn("radio power off failed", "err", err)
	}
	return &poweredOff{prev: prev}
}

func (s *poweredOff) Name() string { return "PoweredOff" }

func (s *poweredOff) Next(in Input, c *Context) State {
	if in.Short.Empty() && in.Long.Empty() {
		return s
	}
	c.Log.Info("powering on")
	if err := c.Radio.PowerOn(); err != nil {
		c.Log.Warn("radio power on failed", "err", err)
	}
	c.Display.Wake()
	return resume(c, s.prev, in.Now)
}
