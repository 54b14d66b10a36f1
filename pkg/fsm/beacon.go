// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package fsm

import (
	"fmt"
	"time"

	"github.com/Thermoquad/heliograph/pkg/buttons"
	"github.com/Thermoquad/heliograph/pkg/display"
	"github.com/Thermoquad/heliograph/pkg/qso"
)

// Beacon screen: the beacon text, the count of frames heard, the last frame.

func showBeacon(c *Context) {
	c.Display.SetMode(display.ModeBeacon)
	c.Display.SetSelect(display.NoSelect)
	c.Display.SetText(0, c.render("BeaconListen", c.Config.Messages.Beacon), false)
	c.Display.SetText(1, fmt.Sprintf("RX %d", c.Session.BeaconCount), false)
}

func resetBeacon(c *Context) {
	c.Session.BeaconCount = 0
	c.Display.SetRX(false)
	c.Display.SetRXError(false)
	c.Display.ClearText()
	showBeacon(c)
}

// beaconListen waits for a frame or a send request
type beaconListen struct{}

func enterBeaconListen(c *Context) State {
	showBeacon(c)
	if err := c.Radio.Listen(); err != nil {
		c.Log.Warn("listen failed", "err", err)
	}
	return &beaconListen{}
}

func (s *beaconListen) Name() string { return "BeaconListen" }

func (s *beaconListen) Next(in Input, c *Context) State {
	if in.Short.Has(buttons.Center) {
		return enterBeaconSend(c)
	}
	if in.Short.Has(buttons.Left) {
		resetBeacon(c)
		return s
	}
	if data := c.receive(); data != nil {
		return enterBeaconPrint(c, data, s)
	}
	return s
}

func (s *beaconListen) Resume(c *Context, now time.Time) State {
	return enterBeaconListen(c)
}

// beaconPrint shows a received frame for one tick, then returns to the
// state that heard it
type beaconPrint struct {
	back State
}

func enterBeaconPrint(c *Context, data []byte, back State) State {
	if text, ok := c.decode(data); ok {
		c.Session.BeaconCount++
		c.Stats.RecordBeacon()
		c.Display.SetRXError(false)
		c.Display.SetText(1, fmt.Sprintf("RX %d", c.Session.BeaconCount), false)
		c.Display.SetText(2, text, false)
		if f, ok := qso.MatchBeacon(qso.Normalize(text)); ok {
			c.Log.Info("beacon heard", "from", f.From, "grid", f.Grid, "rssi", c.Radio.RSSI())
		} else {
			c.Log.Info("frame heard", "text", text, "rssi", c.Radio.RSSI())
		}
	}
	return &beaconPrint{back: back}
}

func (s *beaconPrint) Name() string { return "BeaconPrint" }

func (s *beaconPrint) Next(in Input, c *Context) State {
	if in.Short.Has(buttons.Center) {
		return enterBeaconSend(c)
	}
	return s.back
}

// beaconSend transmits the beacon; the next tick starts the wait
type beaconSend struct{}

func enterBeaconSend(c *Context) State {
	c.transmit(c.render("BeaconSend", c.Config.Messages.Beacon))
	return &beaconSend{}
}

func (s *beaconSend) Name() string { return "BeaconSend" }

func (s *beaconSend) Next(in Input, c *Context) State {
	return enterBeaconWait(c, in.Now)
}

// beaconWait listens until beacon_time has passed since it was entered
type beaconWait struct {
	since time.Time
}

func enterBeaconWait(c *Context, now time.Time) State {
	return &beaconWait{since: now}
}

func (s *beaconWait) Name() string { return "BeaconWait" }

func (s *beaconWait) Next(in Input, c *Context) State {
	if in.Short.Has(buttons.Center) {
		return enterBeaconSend(c)
	}
	if in.Short.Has(buttons.Left) {
		resetBeacon(c)
		return enterBeaconListen(c)
	}
	if in.Now.Sub(s.since) >= c.Config.BeaconInterval() {
		return enterBeaconSend(c)
	}
	if data := c.receive(); data != nil {
		return enterBeaconPrint(c, data, s)
	}
	return s
}

// Resume keeps the original timer
func (s *beaconWait) Resume(c *Context, now time.Time) State {
	showBeacon(c)
	return s
}
