// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package fsm

import (
	"fmt"
	"time"

	"github.com/Thermoquad/heliograph/pkg/buttons"
	"github.com/Thermoquad/heliograph/pkg/display"
)

func showFree(c *Context) {
	msgs := c.Config.Messages.Free
	sel := c.Session.Selection
	c.Display.SetMode(display.ModeFree)
	c.Display.SetText(0, c.renderWith("FreeListen", msgs[sel], c.Session.FreeParams()), true)
	c.Display.SetText(1, fmt.Sprintf("MSG %d/%d", sel+1, len(msgs)), false)
	c.Display.SetText(2, c.lastHeard, false)
	c.Display.SetSelect(0)
}

func (c *Context) moveSelection(delta int) {
	n := len(c.Config.Messages.Free)
	c.Session.Selection = ((c.Session.Selection+delta)%n + n) % n
}

// freeListen lets the operator pick a canned message and shows what is heard
type freeListen struct{}

func enterFreeListen(c *Context) State {
	if c.Session.Selection >= len(c.Config.Messages.Free) {
		c.Session.Selection = 0
	}
	showFree(c)
	if err := c.Radio.Listen(); err != nil {
		c.Log.Warn("listen failed", "err", err)
	}
	return &freeListen{}
}

func (s *freeListen) Name() string { return "FreeListen" }

func (s *freeListen) Next(in Input, c *Context) State {
	if in.Short.Has(buttons.Center) {
		return enterFreeSend(c)
	}
	if in.Short.Has(buttons.Left) || in.Short.Has(buttons.Right) {
		if in.Short.Has(buttons.Left) {
			c.moveSelection(-1)
		}
		if in.Short.Has(buttons.Right) {
			c.moveSelection(1)
		}
		showFree(c)
	}
	if data := c.receive(); data != nil {
		return enterFreePrint(c, data)
	}
	return s
}

func (s *freeListen) Resume(c *Context, now time.Time) State {
	return enterFreeListen(c)
}

// freePrint shows a received frame verbatim
type freePrint struct{}

func enterFreePrint(c *Context, data []byte) State {
	if text, ok := c.decode(data); ok {
		c.lastHeard = text
		c.Stats.RecordFreeText()
		c.Display.SetRXError(false)
		c.Display.SetText(2, text, false)
		c.Log.Info("frame heard", "text", text, "rssi", c.Radio.RSSI())
	}
	return &freePrint{}
}

func (s *freePrint) Name() string { return "FreePrint" }

func (s *freePrint) Next(in Input, c *Context) State {
	if in.Short.Has(buttons.Center) {
		return enterFreeSend(c)
	}
	return enterFreeListen(c)
}

// freeSend transmits the selected message
type freeSend struct{}

func enterFreeSend(c *Context) State {
	msg := c.Config.Messages.Free[c.Session.Selection]
	c.transmit(c.renderWith("FreeSend", msg, c.Session.FreeParams()))
	return &freeSend{}
}

func (s *freeSend) Name() string { return "FreeSend" }

func (s *freeSend) Next(in Input, c *Context) State {
	return enterFreeListen(c)
}
