// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package fsm

import (
	"testing"
	"time"

	"github.com/Thermoquad/heliograph/pkg/buttons"
	"github.com/Thermoquad/heliograph/pkg/config"
	"github.com/Thermoquad/heliograph/pkg/display"
	"github.com/Thermoquad/heliograph/pkg/qso"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// menuTo moves the menu cursor to item and checks it got there
func (s *station) menuTo(item MenuItem) {
	s.t.Helper()
	for i := 0; i < menuCount; i++ {
		if s.m.State().(*configure).Cursor() == item {
			return
		}
		s.press(press2)
	}
	s.t.Fatalf("menu item %s not reached", item)
}

func TestConfigure_EnterFromAnyMode(t *testing.T) {
	for _, mode := range []config.Mode{config.ModeNone, config.ModeBeacon, config.ModeSequence, config.ModeFree} {
		t.Run(string(mode), func(t *testing.T) {
			s := newTestStation(t, mode)
			s.idle()

			s.hold(press1)
			s.requireState("Configure")
			st := s.screen.Snapshot()
			assert.Equal(t, display.ModeMenu, st.Mode)
			assert.Equal(t, [display.Lines]string{"RESUME", "BEACON", "SEQUENCE"}, st.Text)
			assert.Equal(t, 0, st.Select)
		})
	}
}

func TestConfigure_LongPressPreemptsShortPress(t *testing.T) {
	s := newTestStation(t, config.ModeSequence)
	s.idle()

	s.tick(press1, press1)
	s.requireState("Configure")
	assert.Empty(t, s.radio.TxLog(), "the interrupt runs before the state sees the short press")
}

func TestConfigure_ResumeKeepsBeaconTimer(t *testing.T) {
	s := newTestStation(t, config.ModeBeacon)
	s.idle()
	s.press(press1)
	s.idle()
	s.requireState("BeaconWait")
	wait := s.m.State()

	s.wait(3 * time.Second)
	s.hold(press1)
	s.requireState("Configure")
	s.idle()

	s.hold(press1)
	assert.Same(t, wait, s.m.State())
	assert.Equal(t, display.ModeBeacon, s.screen.Snapshot().Mode)

	s.wait(7 * time.Second)
	s.idle()
	s.requireState("BeaconSend")
}

func TestConfigure_ResumeItem(t *testing.T) {
	s := newTestStation(t, config.ModeSequence)
	s.idle()
	s.radio.InjectRx([]byte("CQ W2XYZ FN20"))
	s.idle()
	s.idle()
	require.Equal(t, qso.StageGrid, s.ctx().Session.Stage)

	s.hold(press1)
	s.press(press1)
	s.requireState("SeqListen")
	assert.Equal(t, qso.StageGrid, s.ctx().Session.Stage, "session survives the menu")
	assert.Equal(t, "W2XYZ KD1ABC FN42", s.text(0))
}

func TestConfigure_Navigation(t *testing.T) {
	s := newTestStation(t, config.ModeNone)
	s.hold(press1)

	s.press(press0)
	assert.Equal(t, MenuPowerOff, s.m.State().(*configure).Cursor(), "cursor wraps")
	st := s.screen.Snapshot()
	assert.Equal(t, [display.Lines]string{"SEQUENCE", "FREE", "POWER OFF"}, st.Text)
	assert.Equal(t, 2, st.Select)

	s.press(press2)
	assert.Equal(t, MenuResume, s.m.State().(*configure).Cursor())
}

func TestConfigure_SwitchMode(t *testing.T) {
	s := newTestStation(t, config.ModeSequence)
	s.idle()
	s.radio.InjectRx([]byte("CQ W2XYZ FN20"))
	s.idle()
	s.idle()

	s.hold(press1)
	s.menuTo(MenuFree)
	s.press(press1)
	s.requireState("FreeListen")
	assert.Equal(t, config.ModeFree, s.ctx().Mode)
	assert.Equal(t, config.ModeSequence, s.cfg.Mode, "configuration is not modified")
	assert.Equal(t, qso.StageCQ, s.ctx().Session.Stage)
	assert.Equal(t, qso.SentinelCall, s.ctx().Session.Params[qso.ParamTheirCall])

	s.hold(press1)
	s.menuTo(MenuBeacon)
	s.press(press1)
	s.requireState("BeaconListen")
}

func TestConfigure_ArmFromInitial(t *testing.T) {
	s := newTestStation(t, config.ModeNone)
	s.idle()
	s.requireState("Initial")

	s.hold(press1)
	s.menuTo(MenuSequence)
	s.press(press1)
	s.requireState("SeqListen")
}

func TestConfigure_PowerOff(t *testing.T) {
	s := newTestStation(t, config.ModeSequence)
	s.idle()

	s.hold(press1)
	s.menuTo(MenuPowerOff)
	s.press(press1)
	s.requireState("PoweredOff")
	assert.True(t, s.radio.Asleep())
	assert.True(t, s.screen.Snapshot().Asleep)

	s.radio.InjectRx([]byte("CQ W2XYZ FN20"))
	s.idle()
	s.requireState("PoweredOff")

	s.press(buttons.SetOf(buttons.Right))
	s.requireState("SeqListen")
	assert.False(t, s.radio.Asleep())
	assert.True(t, s.radio.Listening())
	assert.False(t, s.screen.Snapshot().Asleep)
}

func TestConfigure_LongPressWakes(t *testing.T) {
	s := newTestStation(t, config.ModeFree)
	s.idle()
	s.hold(press1)
	s.menuTo(MenuPowerOff)
	s.press(press1)

	s.hold(press1)
	s.requireState("FreeListen")
}
