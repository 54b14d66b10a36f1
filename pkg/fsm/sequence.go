// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package fsm

import (
	"time"

	"github.com/Thermoquad/heliograph/pkg/buttons"
	"github.com/Thermoquad/heliograph/pkg/display"
	"github.com/Thermoquad/heliograph/pkg/qso"
)

// showSequence renders up to three templates starting at the cursor. The
// cursor line is selected and inverted when it is the stage we expect.
func showSequence(c *Context) {
	s := c.Session
	lines := make([]string, 0, display.Lines)
	for i := s.Cursor; i < len(s.Templates) && len(lines) < display.Lines; i++ {
		lines = append(lines, c.render("SeqListen", s.Templates[i]))
	}
	c.Display.SetMode(display.ModeSequence)
	c.Display.SetAllText(lines)
	if s.Cursor == int(s.Stage) {
		c.Display.SetText(0, lines[0], true)
	}
	c.Display.SetSelect(0)
}

// hardReset returns the exchange to CQ and forgets the peer
func hardReset(c *Context) {
	c.Session.Reset()
	c.retry = retryState{}
	c.Display.SetRXError(false)
	c.Log.Info("session reset")
}

// seqListen shows the templates around the cursor and waits for a frame
type seqListen struct{}

func enterSeqListen(c *Context) State {
	showSequence(c)
	if err := c.Radio.Listen(); err != nil {
		c.Log.Warn("listen failed", "err", err)
	}
	return &seqListen{}
}

func (s *seqListen) Name() string { return "SeqListen" }

func (s *seqListen) Next(in Input, c *Context) State {
	if in.Long.Has(buttons.Left) {
		hardReset(c)
		showSequence(c)
		return s
	}
	if in.Short.Has(buttons.Center) {
		return enterSeqSend(c, in.Now)
	}
	if in.Short.Has(buttons.Left) || in.Short.Has(buttons.Right) {
		if in.Short.Has(buttons.Left) {
			c.Session.MoveCursor(-1)
		}
		if in.Short.Has(buttons.Right) {
			c.Session.MoveCursor(1)
		}
		showSequence(c)
	}
	if data := c.receive(); data != nil {
		return enterSeqParse(c, data)
	}
	s.retransmit(c, in.Now)
	return s
}

// retransmit resends the last sent stage when the peer has gone quiet
func (s *seqListen) retransmit(c *Context, now time.Time) {
	interval := c.Config.RetryInterval()
	r := &c.retry
	if interval <= 0 || r.text == "" || r.count >= c.Config.Sequence.MaxRetries {
		return
	}
	if now.Sub(r.at) < interval {
		return
	}
	r.count++
	r.at = now
	c.Log.Info("retransmit", "text", r.text, "attempt", r.count)
	c.transmit(r.text)
}

func (s *seqListen) Resume(c *Context, now time.Time) State {
	return enterSeqListen(c)
}

// seqParse matches a received frame against the expected stage
type seqParse struct{}

func enterSeqParse(c *Context, data []byte) State {
	out := c.Session.Receive(data)
	c.Stats.Update(out)
	c.Log.Debug("parse", "outcome", qso.FormatOutcome(out))

	switch out.Kind {
	case qso.Invalid:
		c.Display.SetRXError(true)
		c.Log.Warn("decode error", "expected", out.Expected, "err", out.Err())
	case qso.NoMatch:
		c.Display.SetRXError(true)
		c.Log.Warn("frame rejected", "expected", out.Expected, "text", out.Text, "reason", out.Reason)
	case qso.Matched:
		c.Display.SetRXError(false)
		c.retry = retryState{}
		if out.Completed {
			c.Log.Info("contact complete", "text", out.Text)
		} else {
			c.Session.SetTheirReport(c.Radio.RSSI())
			c.Log.Info("frame accepted", "stage", out.Expected, "text", out.Text,
				"next", c.Session.Stage, "rssi", c.Radio.RSSI())
		}
	}
	showSequence(c)
	return &seqParse{}
}

func (s *seqParse) Name() string { return "SeqParse" }

func (s *seqParse) Next(in Input, c *Context) State {
	if in.Long.Has(buttons.Left) {
		hardReset(c)
		return enterSeqListen(c)
	}
	if in.Short.Has(buttons.Center) {
		return enterSeqSend(c, in.Now)
	}
	return enterSeqListen(c)
}

// seqSend transmits the template under the cursor. Only sending the
// expected stage advances the exchange; earlier stages are plain resends.
type seqSend struct{}

func enterSeqSend(c *Context, now time.Time) State {
	s := c.Session
	cursor := s.Cursor
	text := c.render("SeqSend", s.Templates[cursor])
	if !c.transmit(text) {
		return &seqSend{}
	}

	c.retry = retryState{text: text, at: now}
	if cursor == int(s.Stage) {
		if s.Advance() {
			c.Stats.RecordContact()
			c.Log.Info("contact complete", "text", text)
		}
	}
	return &seqSend{}
}

func (s *seqSend) Name() string { return "SeqSend" }

func (s *seqSend) Next(in Input, c *Context) State {
	if in.Long.Has(buttons.Left) {
		hardReset(c)
	}
	return enterSeqListen(c)
}
