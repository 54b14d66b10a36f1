// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package radio

import (
	"sync"
	"time"
)

// Stub is an in-memory radio for host-side testing. Frames injected with
// InjectRx are handed out by Receive; everything transmitted is logged and,
// when the stub is paired, delivered to the peer.
type Stub struct {
	mu        sync.Mutex
	rx        [][]byte
	tx        []string
	rxRSSI    []int
	rssi      int
	power     int
	frequency float64
	asleep    bool
	listening bool
	closed    bool
	peer      *Stub
}

// DefaultStubRSSI is reported for injected frames without an explicit RSSI
const DefaultStubRSSI = -60

// NewStub creates an unpaired stub
func NewStub() *Stub {
	return &Stub{power: 14, frequency: 915.0}
}

// NewStubPair creates two stubs that hear each other
func NewStubPair() (*Stub, *Stub) {
	a, b := NewStub(), NewStub()
	a.peer, b.peer = b, a
	return a, b
}

func (s *Stub) Listen() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	s.listening = true
	return nil
}

// Receive never blocks longer than the next queued frame
func (s *Stub) Receive(timeout time.Duration) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, ErrClosed
	}
	if s.asleep || len(s.rx) == 0 {
		return nil, nil
	}
	frame := s.rx[0]
	s.rx = s.rx[1:]
	s.rssi = s.rxRSSI[0]
	s.rxRSSI = s.rxRSSI[1:]
	return usable(frame), nil
}

func (s *Stub) Transmit(text string) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrClosed
	}
	if s.asleep {
		s.mu.Unlock()
		return ErrAsleep
	}
	s.tx = append(s.tx, text)
	peer, power := s.peer, s.power
	s.mu.Unlock()

	if peer != nil {
		peer.InjectRxRSSI([]byte(text), SimulatedRSSI(power))
	}
	return nil
}

// InjectRx queues a received frame
func (s *Stub) InjectRx(data []byte) {
	s.InjectRxRSSI(data, DefaultStubRSSI)
}

// InjectRxRSSI queues a received frame with its signal strength
func (s *Stub) InjectRxRSSI(data []byte, rssi int) {
	frame := make([]byte, len(data))
	copy(frame, data)

	s.mu.Lock()
	s.rx = append(s.rx, frame)
	s.rxRSSI = append(s.rxRSSI, rssi)
	s.mu.Unlock()
}

// TxLog returns everything transmitted so far
func (s *Stub) TxLog() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.tx...)
}

// Pending is the number of frames waiting to be received
func (s *Stub) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.rx)
}

// Listening reports whether Listen has been called
func (s *Stub) Listening() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.listening
}

// Asleep reports whether the stub is powered off
func (s *Stub) Asleep() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.asleep
}

func (s *Stub) RSSI() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rssi
}

func (s *Stub) Power() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.power
}

func (s *Stub) SetPower(dbm int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.power = dbm
	return nil
}

func (s *Stub) Frequency() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.frequency
}

func (s *Stub) SetFrequency(mhz float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.frequency = mhz
	return nil
}

func (s *Stub) PowerOff() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.asleep = true
	s.listening = false
	return nil
}

func (s *Stub) PowerOn() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.asleep = false
	return nil
}

func (s *Stub) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}
