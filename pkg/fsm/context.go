// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package fsm

import (
	"io"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/Thermoquad/heliograph/pkg/buttons"
	"github.com/Thermoquad/heliograph/pkg/config"
	"github.com/Thermoquad/heliograph/pkg/display"
	"github.com/Thermoquad/heliograph/pkg/qso"
	"github.com/Thermoquad/heliograph/pkg/radio"
	"github.com/charmbracelet/log"
)

// DefaultReceiveTimeout bounds each tick's wait for a radio frame
const DefaultReceiveTimeout = 50 * time.Millisecond

// Input is what the driver feeds the machine each tick
type Input struct {
	Short buttons.Set
	Long  buttons.Set
	Now   time.Time
}

// Context is everything the states share. It is owned by the Machine and
// only touched from inside Tick.
type Context struct {
	Session *qso.Session
	Config  *config.Config
	Mode    config.Mode // active mode, starts as Config.Mode
	Radio   radio.Radio
	Display display.Display
	Log     *log.Logger
	Stats   *qso.Statistics

	// Sleep blocks between repeated transmissions
	Sleep          func(time.Duration)
	ReceiveTimeout time.Duration

	lastHeard string // free mode, survives re-entry
	retry     retryState
}

// retryState tracks sequence retransmission of the last sent stage
type retryState struct {
	text  string
	at    time.Time
	count int
}

// NewContext builds a context for cfg with a fresh session
func NewContext(cfg *config.Config, r radio.Radio, d display.Display, logger *log.Logger) *Context {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Context{
		Session:        qso.NewSession(cfg.Callsign, cfg.Grid, cfg.Messages.Sequence),
		Config:         cfg,
		Mode:           cfg.Mode,
		Radio:          r,
		Display:        d,
		Log:            logger,
		Stats:          qso.NewStatistics(),
		Sleep:          time.Sleep,
		ReceiveTimeout: DefaultReceiveTimeout,
	}
}

// render renders a template or aborts the transition
func (c *Context) render(state, tmpl string) string {
	return c.renderWith(state, tmpl, c.Session.Params)
}

func (c *Context) renderWith(state, tmpl string, params qso.Params) string {
	text, err := qso.Render(tmpl, params)
	if err != nil {
		violation(state, "%v", err)
	}
	return text
}

// receive polls the radio once. Radio errors are logged and read as no data.
func (c *Context) receive() []byte {
	data, err := c.Radio.Receive(c.ReceiveTimeout)
	if err != nil {
		c.Log.Warn("receive failed", "err", err)
		return nil
	}
	if data != nil {
		c.Display.SetRX(true)
	}
	return data
}

// decode returns the frame as trimmed text, flagging the display when it is not text
func (c *Context) decode(data []byte) (string, bool) {
	if !utf8.Valid(data) {
		c.Display.SetRXError(true)
		c.Stats.RecordDecodeError()
		c.Log.Warn("decode error", "err", qso.ErrDecode, "len", len(data))
		return "", false
	}
	return strings.TrimSpace(string(data)), true
}

// transmit sends text ping_length times with the repeat delay between
// copies. It blocks the tick for the whole burst.
func (c *Context) transmit(text string) bool {
	n := max(c.Config.PingLength, 1)

	c.Display.SetRX(false)
	c.Display.SetTX(true)
	defer c.Display.SetTX(false)

	for i := 0; i < n; i++ {
		if err := c.Radio.Transmit(text); err != nil {
			c.Log.Error("transmit failed", "text", text, "err", err)
			return false
		}
		if i < n-1 {
			c.Sleep(c.Config.RepeatDelay())
		}
	}
	c.Stats.RecordTransmit(n)
	c.Log.Info("transmit", "text", text, "repeats", n)

	if err := c.Radio.Listen(); err != nil {
		c.Log.Warn("listen failed", "err", err)
	}
	return true
}

// enterMode enters the steady state of the active mode
func enterMode(c *Context, now time.Time) State {
	switch c.Mode {
	case config.ModeBeacon:
		return enterBeaconListen(c)
	case config.ModeSequence:
		return enterSeqListen(c)
	case config.ModeFree:
		return enterFreeListen(c)
	case config.ModeNone, "":
		return enterInitial(c)
	}
	violation("Initial", "unknown mode %q", c.Mode)
	return nil
}
