// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package fsm

import (
	"testing"
	"time"

	"github.com/Thermoquad/heliograph/pkg/buttons"
	"github.com/Thermoquad/heliograph/pkg/config"
	"github.com/Thermoquad/heliograph/pkg/display"
	"github.com/Thermoquad/heliograph/pkg/radio"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2025, 5, 4, 12, 0, 0, 0, time.UTC)

var (
	press0 = buttons.SetOf(buttons.Left)
	press1 = buttons.SetOf(buttons.Center)
	press2 = buttons.SetOf(buttons.Right)
	none   buttons.Set
)

// station is one simulated device driven tick by tick
type station struct {
	t      *testing.T
	cfg    *config.Config
	radio  *radio.Stub
	screen *display.Screen
	m      *Machine
	now    time.Time
	sleeps []time.Duration
}

func testConfig(call, grid string, mode config.Mode) *config.Config {
	cfg := config.Default()
	cfg.Callsign = call
	cfg.Grid = grid
	cfg.Mode = mode
	return cfg
}

func newStation(t *testing.T, cfg *config.Config, r *radio.Stub) *station {
	t.Helper()
	require.NoError(t, cfg.Validate())
	return newUncheckedStation(t, cfg, r)
}

func newUncheckedStation(t *testing.T, cfg *config.Config, r *radio.Stub) *station {
	t.Helper()
	if r == nil {
		r = radio.NewStub()
	}
	screen, err := display.NewScreen(cfg.ClockFormat)
	require.NoError(t, err)

	s := &station{t: t, cfg: cfg, radio: r, screen: screen, now: t0}
	c := NewContext(cfg, r, screen, nil)
	c.Sleep = func(d time.Duration) { s.sleeps = append(s.sleeps, d) }
	s.m = NewMachine(c)
	return s
}

func newTestStation(t *testing.T, mode config.Mode, opts ...func(*config.Config)) *station {
	t.Helper()
	cfg := testConfig("KD1ABC", "FN42", mode)
	for _, opt := range opts {
		opt(cfg)
	}
	return newStation(t, cfg, nil)
}

func (s *station) ctx() *Context { return s.m.Context() }

func (s *station) tick(short, long buttons.Set) {
	s.t.Helper()
	require.NoError(s.t, s.m.Tick(Input{Short: short, Long: long, Now: s.now}))
}

func (s *station) press(short buttons.Set) {
	s.t.Helper()
	s.tick(short, none)
}

func (s *station) hold(long buttons.Set) {
	s.t.Helper()
	s.tick(none, long)
}

func (s *station) idle() {
	s.t.Helper()
	s.tick(none, none)
}

func (s *station) wait(d time.Duration) { s.now = s.now.Add(d) }

func (s *station) state() string { return s.m.State().Name() }

func (s *station) requireState(name string) {
	s.t.Helper()
	require.Equal(s.t, name, s.state())
}

func (s *station) text(line int) string { return s.screen.Snapshot().Text[line] }
