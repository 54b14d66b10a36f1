// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package fsm

import (
	"testing"
	"time"

	"github.com/Thermoquad/heliograph/pkg/config"
	"github.com/Thermoquad/heliograph/pkg/display"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startBeacon(t *testing.T, opts ...func(*config.Config)) *station {
	s := newTestStation(t, config.ModeBeacon, opts...)
	s.requireState("Initial")
	s.idle()
	s.requireState("BeaconListen")
	return s
}

func TestBeacon_Listening(t *testing.T) {
	s := startBeacon(t)

	st := s.screen.Snapshot()
	assert.Equal(t, display.ModeBeacon, st.Mode)
	assert.Equal(t, "BCN KD1ABC FN42", st.Text[0])
	assert.Equal(t, "RX 0", st.Text[1])
	assert.True(t, s.radio.Listening())

	s.idle()
	s.requireState("BeaconListen")
	assert.Empty(t, s.radio.TxLog(), "listening never transmits on its own")
}

func TestBeacon_SendAndWait(t *testing.T) {
	s := startBeacon(t)

	s.press(press1)
	s.requireState("BeaconSend")
	assert.Equal(t, []string{"BCN KD1ABC FN42"}, s.radio.TxLog())

	s.idle()
	s.requireState("BeaconWait")
}

func TestBeacon_TimerFiresAtBeaconTime(t *testing.T) {
	s := startBeacon(t)
	s.press(press1)
	s.idle()
	s.requireState("BeaconWait")

	s.wait(9999 * time.Millisecond)
	s.idle()
	s.requireState("BeaconWait")
	assert.Len(t, s.radio.TxLog(), 1, "no send before beacon_time")

	s.wait(time.Millisecond)
	s.idle()
	s.requireState("BeaconSend")
	assert.Len(t, s.radio.TxLog(), 2, "send exactly at beacon_time")

	s.idle()
	s.requireState("BeaconWait")
}

func TestBeacon_ShortPressOverridesTimer(t *testing.T) {
	s := startBeacon(t)
	s.press(press1)
	s.idle()

	s.wait(time.Second)
	s.press(press1)
	s.requireState("BeaconSend")
	assert.Len(t, s.radio.TxLog(), 2)
}

func TestBeacon_PingLength(t *testing.T) {
	s := startBeacon(t, func(c *config.Config) {
		c.PingLength = 3
		c.RepeatDelayMS = 100
	})

	s.press(press1)
	assert.Equal(t, []string{"BCN KD1ABC FN42", "BCN KD1ABC FN42", "BCN KD1ABC FN42"}, s.radio.TxLog())
	assert.Equal(t, []time.Duration{100 * time.Millisecond, 100 * time.Millisecond}, s.sleeps)
	assert.False(t, s.screen.Snapshot().TX, "TX indicator cleared after the burst")
	assert.EqualValues(t, 1, s.ctx().Stats.Transmissions)
	assert.EqualValues(t, 3, s.ctx().Stats.Repeats)
}

func TestBeacon_Receive(t *testing.T) {
	s := startBeacon(t)

	s.radio.InjectRx([]byte("bcn w2xyz fn20"))
	s.idle()
	s.requireState("BeaconPrint")
	assert.Equal(t, 1, s.ctx().Session.BeaconCount)
	assert.Equal(t, "RX 1", s.text(1))
	assert.Equal(t, "bcn w2xyz fn20", s.text(2), "shown as received")
	assert.True(t, s.screen.Snapshot().RX)

	s.idle()
	s.requireState("BeaconListen")
}

func TestBeacon_ReceiveWhileWaitingKeepsTimer(t *testing.T) {
	s := startBeacon(t)
	s.press(press1)
	s.idle()
	wait := s.m.State()

	s.wait(4 * time.Second)
	s.radio.InjectRx([]byte("BCN W2XYZ FN20"))
	s.idle()
	s.requireState("BeaconPrint")
	s.idle()
	assert.Same(t, wait, s.m.State(), "print returns to the same wait")

	s.wait(6 * time.Second)
	s.idle()
	s.requireState("BeaconSend")
}

func TestBeacon_ResetButton(t *testing.T) {
	s := startBeacon(t)
	s.radio.InjectRx([]byte("BCN W2XYZ FN20"))
	s.idle()
	s.idle()

	s.press(press0)
	s.requireState("BeaconListen")
	assert.Zero(t, s.ctx().Session.BeaconCount)
	assert.Equal(t, "RX 0", s.text(1))
	assert.Empty(t, s.text(2))

	// From the wait the reset stops the beacon and returns to listening
	s.press(press1)
	s.idle()
	s.press(press0)
	s.requireState("BeaconListen")
}

func TestBeacon_InvalidFrame(t *testing.T) {
	s := startBeacon(t)
	s.radio.InjectRx([]byte{0xC3, 0x28})
	s.idle()

	assert.True(t, s.screen.Snapshot().RXError)
	assert.Zero(t, s.ctx().Session.BeaconCount)
	require.EqualValues(t, 1, s.ctx().Stats.DecodeErrors)
}
