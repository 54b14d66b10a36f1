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

func startSequence(t *testing.T, opts ...func(*config.Config)) *station {
	s := newTestStation(t, config.ModeSequence, opts...)
	s.idle()
	s.requireState("SeqListen")
	return s
}

func TestSequence_Display(t *testing.T) {
	s := startSequence(t)

	st := s.screen.Snapshot()
	assert.Equal(t, display.ModeSequence, st.Mode)
	assert.Equal(t, [display.Lines]string{
		"CQ KD1ABC FN42",
		"______ KD1ABC FN42",
		"______ KD1ABC ___",
	}, st.Text)
	assert.True(t, st.Inverse[0], "expected stage highlighted")
	assert.Equal(t, 0, st.Select)
}

func TestSequence_ExampleExchange(t *testing.T) {
	s := startSequence(t)

	s.radio.InjectRxRSSI([]byte("CQ W2XYZ FN20"), -87)
	s.idle()
	s.requireState("SeqParse")

	sess := s.ctx().Session
	assert.Equal(t, qso.StageGrid, sess.Stage)
	assert.Equal(t, "W2XYZ", sess.Params[qso.ParamTheirCall])
	assert.Equal(t, "FN20", sess.Params[qso.ParamTheirGrid])
	assert.Equal(t, "-87", sess.Params[qso.ParamTheirRSSI])
	assert.Equal(t, "W2XYZ KD1ABC FN42", s.text(0))
	assert.False(t, s.screen.Snapshot().RXError)

	s.idle()
	s.requireState("SeqListen")

	s.press(press1)
	s.requireState("SeqSend")
	assert.Equal(t, []string{"W2XYZ KD1ABC FN42"}, s.radio.TxLog())
	assert.Equal(t, qso.StageReport, sess.Stage)
}

func TestSequence_RejectsOtherStages(t *testing.T) {
	s := startSequence(t)

	s.radio.InjectRx([]byte("KD1ABC W2XYZ RRR"))
	s.idle()
	s.requireState("SeqParse")
	assert.True(t, s.screen.Snapshot().RXError)
	assert.Equal(t, qso.StageCQ, s.ctx().Session.Stage)
	assert.EqualValues(t, 1, s.ctx().Stats.Mismatches)

	s.idle()
	s.radio.InjectRx([]byte("CQ W2XYZ FN20"))
	s.idle()
	assert.False(t, s.screen.Snapshot().RXError, "cleared by the next good frame")
}

func TestSequence_InvalidFrame(t *testing.T) {
	s := startSequence(t)
	s.radio.InjectRx([]byte{0xFF, 0xFE})
	s.idle()

	assert.True(t, s.screen.Snapshot().RXError)
	assert.EqualValues(t, 1, s.ctx().Stats.DecodeErrors)
	assert.Equal(t, qso.StageCQ, s.ctx().Session.Stage)
}

func TestSequence_Navigation(t *testing.T) {
	s := startSequence(t)
	sess := s.ctx().Session

	s.press(press2)
	s.requireState("SeqListen")
	assert.Equal(t, 1, sess.Cursor)
	assert.Equal(t, "______ KD1ABC FN42", s.text(0))
	assert.False(t, s.screen.Snapshot().Inverse[0], "cursor is not the expected stage")

	// Sending a stage other than the expected one does not advance
	s.press(press1)
	assert.Equal(t, []string{"______ KD1ABC FN42"}, s.radio.TxLog())
	assert.Equal(t, qso.StageCQ, sess.Stage)
	s.idle()

	s.press(press0)
	assert.Equal(t, 0, sess.Cursor)
	s.press(press0)
	assert.Equal(t, 5, sess.Cursor, "cursor wraps")
	assert.Equal(t, "______ KD1ABC 73", s.text(0))
	assert.Empty(t, s.text(1), "no lines past the last template")

	s.press(press2)
	s.press(press1)
	assert.Equal(t, "CQ KD1ABC FN42", s.radio.TxLog()[1])
	assert.Equal(t, qso.StageGrid, sess.Stage)
	assert.Equal(t, 1, sess.Cursor, "cursor follows the stage")
}

func TestSequence_HardReset(t *testing.T) {
	for stage := qso.StageCQ; stage <= qso.StageSignoff; stage++ {
		t.Run(stage.String(), func(t *testing.T) {
			s := startSequence(t)
			sess := s.ctx().Session
			sess.Stage = stage
			sess.Cursor = 2
			sess.Params[qso.ParamTheirCall] = "W2XYZ"
			sess.Params[qso.ParamTheirGrid] = "FN20"
			sess.Params[qso.ParamMyRSSI] = "-10"
			sess.Params[qso.ParamTheirRSSI] = "-12"

			s.hold(press0)
			s.requireState("SeqListen")
			assert.Equal(t, qso.StageCQ, sess.Stage)
			assert.Equal(t, 0, sess.Cursor)
			assert.Equal(t, qso.SentinelCall, sess.Params[qso.ParamTheirCall])
			assert.Equal(t, qso.SentinelGrid, sess.Params[qso.ParamTheirGrid])
			assert.Equal(t, qso.SentinelReport, sess.Params[qso.ParamMyRSSI])
			assert.Equal(t, qso.SentinelReport, sess.Params[qso.ParamTheirRSSI])
			assert.Equal(t, "CQ KD1ABC FN42", s.text(0))
		})
	}
}

func TestSequence_HardResetOutsideListen(t *testing.T) {
	requireReset := func(t *testing.T, s *station) {
		t.Helper()
		sess := s.ctx().Session
		s.hold(press0)
		s.requireState("SeqListen")
		assert.Equal(t, qso.StageCQ, sess.Stage)
		assert.Equal(t, 0, sess.Cursor)
		assert.Equal(t, qso.SentinelCall, sess.Params[qso.ParamTheirCall])
		assert.Equal(t, qso.SentinelGrid, sess.Params[qso.ParamTheirGrid])
		assert.Equal(t, "CQ KD1ABC FN42", s.text(0))

		s.idle()
		assert.Equal(t, qso.StageCQ, sess.Stage, "reset holds on the next tick")
	}

	t.Run("SeqParse", func(t *testing.T) {
		s := startSequence(t)
		s.radio.InjectRx([]byte("CQ W2XYZ FN20"))
		s.idle()
		s.requireState("SeqParse")
		require.Equal(t, qso.StageGrid, s.ctx().Session.Stage)
		require.Equal(t, "W2XYZ", s.ctx().Session.Params[qso.ParamTheirCall])

		requireReset(t, s)
	})

	t.Run("SeqSend", func(t *testing.T) {
		s := startSequence(t)
		s.press(press1)
		s.requireState("SeqSend")
		require.Equal(t, qso.StageGrid, s.ctx().Session.Stage)

		requireReset(t, s)
	})
}

func TestSequence_Retransmit(t *testing.T) {
	s := startSequence(t, func(c *config.Config) {
		c.Sequence.RetryTime = 5
		c.Sequence.MaxRetries = 2
	})

	s.press(press1)
	s.idle()
	require.Len(t, s.radio.TxLog(), 1)

	s.wait(4 * time.Second)
	s.idle()
	assert.Len(t, s.radio.TxLog(), 1)

	s.wait(time.Second)
	s.idle()
	assert.Len(t, s.radio.TxLog(), 2)
	s.wait(5 * time.Second)
	s.idle()
	assert.Len(t, s.radio.TxLog(), 3)
	s.wait(5 * time.Second)
	s.idle()
	assert.Len(t, s.radio.TxLog(), 3, "stops after max_retries")

	for _, text := range s.radio.TxLog() {
		assert.Equal(t, "CQ KD1ABC FN42", text)
	}
	assert.Equal(t, qso.StageGrid, s.ctx().Session.Stage, "resends do not advance")
}

func TestSequence_RetransmitStopsOnReply(t *testing.T) {
	s := startSequence(t, func(c *config.Config) { c.Sequence.RetryTime = 5 })

	s.press(press1)
	s.idle()
	s.radio.InjectRx([]byte("KD1ABC W2XYZ FN20"))
	s.idle()
	s.requireState("SeqParse")
	s.idle()

	s.wait(time.Minute)
	s.idle()
	assert.Len(t, s.radio.TxLog(), 1)
}

func TestSequence_NavigateAndReceiveSameTick(t *testing.T) {
	s := startSequence(t)
	s.radio.InjectRx([]byte("CQ W2XYZ FN20"))

	s.tick(buttons.SetOf(buttons.Right), none)
	s.requireState("SeqParse")
	assert.Equal(t, qso.StageGrid, s.ctx().Session.Stage)
	assert.Equal(t, 1, s.ctx().Session.Cursor)
}
