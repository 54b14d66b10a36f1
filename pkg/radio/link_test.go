// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package radio

import (
	"context"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startRelay(t *testing.T) (*Relay, string) {
	t.Helper()
	relay := NewRelay(log.New(io.Discard))
	srv := httptest.NewServer(relay)
	t.Cleanup(srv.Close)
	return relay, "ws" + strings.TrimPrefix(srv.URL, "http")
}

func dial(t *testing.T, url string, opts LinkOptions) *Link {
	t.Helper()
	l, err := DialLink(context.Background(), url, opts)
	require.NoError(t, err)
	t.Cleanup(func() { l.Close() })
	return l
}

func TestLink_RelayFansOut(t *testing.T) {
	relay, url := startRelay(t)

	a := dial(t, url, LinkOptions{Station: "KD1ABC", Power: 14})
	b := dial(t, url, LinkOptions{Station: "W2XYZ", Power: 14})
	other := dial(t, url, LinkOptions{Station: "K9XX", Frequency: 868.1})
	var _ Radio = a

	require.Eventually(t, func() bool { return relay.Stations() == 3 }, 2*time.Second, 5*time.Millisecond)

	require.NoError(t, a.Transmit("CQ KD1ABC FN42"))

	frame, err := b.Receive(2 * time.Second)
	require.NoError(t, err)
	assert.Equal(t, "CQ KD1ABC FN42", string(frame))
	assert.Equal(t, SimulatedRSSI(14), b.RSSI())

	frame, err = a.Receive(50 * time.Millisecond)
	require.NoError(t, err)
	assert.Nil(t, frame, "sender does not hear itself")

	frame, err = other.Receive(50 * time.Millisecond)
	require.NoError(t, err)
	assert.Nil(t, frame, "other frequency is not heard")
}

func TestLink_PowerOff(t *testing.T) {
	relay, url := startRelay(t)
	a := dial(t, url, LinkOptions{Station: "KD1ABC"})
	b := dial(t, url, LinkOptions{Station: "W2XYZ"})
	require.Eventually(t, func() bool { return relay.Stations() == 2 }, 2*time.Second, 5*time.Millisecond)

	require.NoError(t, b.PowerOff())
	assert.ErrorIs(t, b.Transmit("x"), ErrAsleep)
	require.NoError(t, a.Transmit("lost"))

	frame, err := b.Receive(100 * time.Millisecond)
	require.NoError(t, err)
	assert.Nil(t, frame)
}

func TestLink_Closed(t *testing.T) {
	_, url := startRelay(t)
	l, err := DialLink(context.Background(), url, LinkOptions{})
	require.NoError(t, err)
	require.NoError(t, l.Close())

	_, err = l.Receive(2 * time.Second)
	assert.ErrorIs(t, err, ErrClosed)
	assert.Error(t, l.Err(), "the reader keeps the error that ended it")
}

func TestLink_DrainAfterCloseKeepsRSSI(t *testing.T) {
	l := &Link{
		rssi:   -90,
		frames: make(chan *Envelope, 1),
		done:   make(chan struct{}),
	}
	l.frames <- &Envelope{Sender: "W2XYZ", RSSI: -42, Payload: []byte("CQ W2XYZ FN20")}
	close(l.done)

	frame, err := l.Receive(time.Second)
	require.NoError(t, err)
	assert.Equal(t, "CQ W2XYZ FN20", string(frame))
	assert.Equal(t, -42, l.RSSI())

	_, err = l.Receive(time.Second)
	assert.ErrorIs(t, err, ErrClosed)
}

func TestRelay_BasicAuth(t *testing.T) {
	relay, url := startRelay(t)
	relay.Username, relay.Password = "op", "secret"

	_, err := DialLink(context.Background(), url, LinkOptions{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "401")

	l := dial(t, url, LinkOptions{Username: "op", Password: "secret"})
	assert.NoError(t, l.Listen())
}

func TestDialLink_BadScheme(t *testing.T) {
	_, err := DialLink(context.Background(), "http://localhost:1", LinkOptions{})
	assert.ErrorContains(t, err, "unsupported URL scheme")
}
