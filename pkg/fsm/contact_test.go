// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package fsm

import (
	"testing"

	"github.com/Thermoquad/heliograph/pkg/config"
	"github.com/Thermoquad/heliograph/pkg/qso"
	"github.com/Thermoquad/heliograph/pkg/radio"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// send has from transmit its current stage and to parse it
func send(t *testing.T, from, to *station) {
	t.Helper()
	from.press(press1)
	from.requireState("SeqSend")
	from.idle()

	to.idle()
	to.requireState("SeqParse")
	require.False(t, to.screen.Snapshot().RXError, "%s rejected %q", to.cfg.Callsign, from.radio.TxLog())
	to.idle()
	to.requireState("SeqListen")
}

func TestContact_TwoStations(t *testing.T) {
	ra, rb := radio.NewStubPair()
	a := newStation(t, testConfig("KD1ABC", "FN42", config.ModeSequence), ra)
	b := newStation(t, testConfig("W2XYZ", "FN20", config.ModeSequence), rb)
	a.idle()
	b.idle()

	for cycle := 0; cycle < 2; cycle++ {
		send(t, a, b) // CQ
		send(t, b, a) // grid
		send(t, a, b) // report
		send(t, b, a) // acknowledged report
		send(t, a, b) // RRR
		send(t, b, a) // 73

		for _, s := range []*station{a, b} {
			sess := s.ctx().Session
			assert.Equal(t, qso.StageCQ, sess.Stage)
			assert.Equal(t, qso.SentinelCall, sess.Params[qso.ParamTheirCall])
			assert.Equal(t, qso.SentinelGrid, sess.Params[qso.ParamTheirGrid])
			assert.Equal(t, qso.SentinelReport, sess.Params[qso.ParamMyRSSI])
			assert.Equal(t, qso.SentinelReport, sess.Params[qso.ParamTheirRSSI])
			assert.EqualValues(t, cycle+1, s.ctx().Stats.Contacts)
		}
	}

	report := qso.FormatReport(radio.SimulatedRSSI(14))
	assert.Equal(t, []string{
		"CQ KD1ABC FN42",
		"W2XYZ KD1ABC " + report,
		"W2XYZ KD1ABC RRR",
	}, a.radio.TxLog()[:3])
	assert.Equal(t, []string{
		"KD1ABC W2XYZ FN20",
		"KD1ABC W2XYZ R" + report,
		"KD1ABC W2XYZ 73",
	}, b.radio.TxLog()[:3])
}

func TestContact_ThirdStationIgnored(t *testing.T) {
	ra, rb := radio.NewStubPair()
	a := newStation(t, testConfig("KD1ABC", "FN42", config.ModeSequence), ra)
	b := newStation(t, testConfig("W2XYZ", "FN20", config.ModeSequence), rb)
	a.idle()
	b.idle()

	send(t, a, b)
	send(t, b, a)

	// A station outside the contact answers in the report slot
	b.radio.InjectRx([]byte("W2XYZ N0CALL -5"))
	b.idle()
	assert.True(t, b.screen.Snapshot().RXError)
	assert.Equal(t, qso.StageReport, b.ctx().Session.Stage)
}

func TestContact_FreeTextAddressesLastContact(t *testing.T) {
	ra, rb := radio.NewStubPair()
	a := newStation(t, testConfig("KD1ABC", "FN42", config.ModeSequence), ra)
	b := newStation(t, testConfig("W2XYZ", "FN20", config.ModeSequence), rb)
	a.idle()
	b.idle()

	send(t, a, b)
	send(t, b, a)
	send(t, a, b)
	send(t, b, a)
	send(t, a, b)
	send(t, b, a)
	require.Equal(t, qso.SentinelCall, a.ctx().Session.Params[qso.ParamTheirCall])

	a.hold(press1)
	a.menuTo(MenuFree)
	a.press(press1)
	a.requireState("FreeListen")
	assert.Equal(t, "W2XYZ KD1ABC QRZ?", a.text(0))

	a.press(press1)
	log := a.radio.TxLog()
	assert.Equal(t, "W2XYZ KD1ABC QRZ?", log[len(log)-1])
}
