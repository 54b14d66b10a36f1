// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package fsm

import (
	"time"

	"github.com/Thermoquad/heliograph/pkg/config"
	"github.com/Thermoquad/heliograph/pkg/display"
	"github.com/Thermoquad/heliograph/pkg/qso"
)

// initial waits until a mode is armed
type initial struct{}

func enterInitial(c *Context) State {
	c.Display.SetMode(display.ModeNone)
	c.Display.SetSelect(display.NoSelect)
	c.Display.SetAllText([]string{
		"HELIOGRAPH",
		c.Session.Params[qso.ParamMyCall] + " " + c.Session.Params[qso.ParamMyGrid],
		"HOLD 1 FOR MENU",
	})
	return &initial{}
}

func (s *initial) Name() string { return "Initial" }

func (s *initial) Next(in Input, c *Context) State {
	if c.Mode == config.ModeNone || c.Mode == "" {
		return s
	}
	return enterMode(c, in.Now)
}

func (s *initial) Resume(c *Context, now time.Time) State {
	return enterMode(c, now)
}
