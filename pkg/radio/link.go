// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package radio

import (
	"context"
	"crypto/tls"
	"encoding/base64"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// LinkOptions configures a connection to a relay
type LinkOptions struct {
	Station       string // sender name stamped on outgoing frames
	Username      string
	Password      string
	SkipSSLVerify bool
	Power         int
	Frequency     float64
}

// Link is a radio whose air is a relay reached over WebSocket. A reader
// goroutine decodes envelopes into a buffered channel; frames on other
// frequencies, or heard while powered off, are dropped.
type Link struct {
	conn    *websocket.Conn
	station string

	writeMu sync.Mutex

	mu        sync.Mutex
	rssi      int
	power     int
	frequency float64
	asleep    bool

	frames chan *Envelope
	done   chan struct{}
	err    error
}

// linkBuffer is the number of frames held before new ones are dropped
const linkBuffer = 64

// DialLink connects to a relay at a ws:// or wss:// URL with optional Basic auth
func DialLink(ctx context.Context, wsURL string, opts LinkOptions) (*Link, error) {
	u, err := url.Parse(wsURL)
	if err != nil {
		return nil, fmt.Errorf("invalid URL: %w", err)
	}

	switch u.Scheme {
	case "ws", "wss":
	default:
		return nil, fmt.Errorf("unsupported URL scheme: %s (use ws:// or wss://)", u.Scheme)
	}

	dialer := websocket.Dialer{
		HandshakeTimeout: 10 * time.Second,
	}
	if u.Scheme == "wss" {
		dialer.TLSClientConfig = &tls.Config{
			InsecureSkipVerify: opts.SkipSSLVerify,
		}
	}

	headers := http.Header{}
	if opts.Username != "" && opts.Password != "" {
		credentials := base64.StdEncoding.EncodeToString([]byte(opts.Username + ":" + opts.Password))
		headers.Set("Authorization", "Basic "+credentials)
	}

	ctx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	conn, resp, err := dialer.DialContext(ctx, wsURL, headers)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("WebSocket connection failed (HTTP %d): %w", resp.StatusCode, err)
		}
		return nil, fmt.Errorf("WebSocket connection failed: %w", err)
	}

	return NewLink(conn, opts), nil
}

// NewLink runs a link over an established connection
func NewLink(conn *websocket.Conn, opts LinkOptions) *Link {
	if opts.Frequency == 0 {
		opts.Frequency = 915.0
	}
	l := &Link{
		conn:      conn,
		station:   opts.Station,
		power:     opts.Power,
		frequency: opts.Frequency,
		frames:    make(chan *Envelope, linkBuffer),
		done:      make(chan struct{}),
	}
	go l.readerLoop()
	return l
}

func (l *Link) readerLoop() {
	defer close(l.done)
	for {
		messageType, data, err := l.conn.ReadMessage()
		if err != nil {
			l.mu.Lock()
			l.err = err
			l.mu.Unlock()
			return
		}
		if messageType != websocket.BinaryMessage {
			continue
		}

		env, err := ParseEnvelope(data)
		if err != nil {
			continue
		}

		l.mu.Lock()
		drop := l.asleep || !SameChannel(env.Frequency, l.frequency)
		l.mu.Unlock()
		if drop {
			continue
		}

		select {
		case l.frames <- env:
		default:
		}
	}
}

// Listen is a no-op; the link always receives while powered on
func (l *Link) Listen() error {
	select {
	case <-l.done:
		return ErrClosed
	default:
		return nil
	}
}

func (l *Link) Receive(timeout time.Duration) ([]byte, error) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case env := <-l.frames:
		return l.deliver(env), nil
	case <-l.done:
		// Drain anything that arrived before the connection dropped
		select {
		case env := <-l.frames:
			return l.deliver(env), nil
		default:
		}
		return nil, ErrClosed
	case <-timer.C:
		return nil, nil
	}
}

// deliver records the frame's RSSI and returns its payload
func (l *Link) deliver(env *Envelope) []byte {
	l.mu.Lock()
	l.rssi = env.RSSI
	l.mu.Unlock()
	return usable(env.Payload)
}

func (l *Link) Transmit(text string) error {
	l.mu.Lock()
	env := &Envelope{
		Sender:    l.station,
		Frequency: l.frequency,
		Power:     l.power,
		Payload:   []byte(text),
	}
	asleep := l.asleep
	l.mu.Unlock()

	if asleep {
		return ErrAsleep
	}

	data, err := env.Marshal()
	if err != nil {
		return err
	}

	l.writeMu.Lock()
	defer l.writeMu.Unlock()
	if err := l.conn.WriteMessage(websocket.BinaryMessage, data); err != nil {
		return fmt.Errorf("%w: %v", ErrClosed, err)
	}
	return nil
}

// Err returns the error that ended the reader, if any
func (l *Link) Err() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.err
}

func (l *Link) RSSI() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.rssi
}

func (l *Link) Power() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.power
}

func (l *Link) SetPower(dbm int) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.power = dbm
	return nil
}

func (l *Link) Frequency() float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.frequency
}

func (l *Link) SetFrequency(mhz float64) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.frequency = mhz
	return nil
}

func (l *Link) PowerOff() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.asleep = true
	return nil
}

func (l *Link) PowerOn() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.asleep = false
	return nil
}

func (l *Link) Close() error {
	l.writeMu.Lock()
	l.conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	l.writeMu.Unlock()
	return l.conn.Close()
}
