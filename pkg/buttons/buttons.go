// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

// Package buttons turns raw press and release events from three physical
// buttons into per-poll short-press and long-press sets.
package buttons

import (
	"strings"
	"sync"
	"time"
)

// Button is a logical button index
type Button int

const (
	Left   Button = 0 // reset / previous
	Center Button = 1 // send, long press opens the menu
	Right  Button = 2 // next

	Count = 3
)

// DefaultLongPress is the hold time after which a press counts as long
const DefaultLongPress = 2 * time.Second

func (b Button) String() string {
	switch b {
	case Left:
		return "0"
	case Center:
		return "1"
	case Right:
		return "2"
	default:
		return "?"
	}
}

// Set is a set of buttons
type Set uint8

// SetOf builds a set from the given buttons
func SetOf(bs ...Button) Set {
	var s Set
	for _, b := range bs {
		s = s.Add(b)
	}
	return s
}

// Add returns the set with b included
func (s Set) Add(b Button) Set {
	if b < 0 || b >= Count {
		return s
	}
	return s | 1<<uint(b)
}

// Has reports whether b is in the set
func (s Set) Has(b Button) bool {
	if b < 0 || b >= Count {
		return false
	}
	return s&(1<<uint(b)) != 0
}

// Empty reports whether no button is in the set
func (s Set) Empty() bool {
	return s == 0
}

func (s Set) String() string {
	var parts []string
	for b := Left; b < Count; b++ {
		if s.Has(b) {
			parts = append(parts, b.String())
		}
	}
	return "{" + strings.Join(parts, ",") + "}"
}

// Poller is polled once per driver tick
type Poller interface {
	Poll() (short, long Set)
}

// Tracker accumulates press and release events between polls.
//
// A release that follows a hold shorter than the threshold is reported once as
// a short press. A hold that reaches the threshold is reported once as a long
// press on the first poll that sees it; the matching release is swallowed. A
// hold that crosses the threshold and ends between polls is still reported
// as a long press by the next poll.
// Events may arrive from another goroutine.
type Tracker struct {
	mu        sync.Mutex
	threshold time.Duration
	now       func() time.Time

	down    [Count]time.Time
	pressed [Count]bool
	fired   [Count]bool
	short   Set
	long    Set
}

// NewTracker creates a tracker with the given long-press threshold
func NewTracker(threshold time.Duration) *Tracker {
	if threshold <= 0 {
		threshold = DefaultLongPress
	}
	return &Tracker{threshold: threshold, now: time.Now}
}

// Press records that b went down at t
func (t *Tracker) Press(b Button, at time.Time) {
	if b < 0 || b >= Count {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.pressed[b] {
		return
	}
	t.pressed[b] = true
	t.fired[b] = false
	t.down[b] = at
}

// Release records that b came up at t
func (t *Tracker) Release(b Button, at time.Time) {
	if b < 0 || b >= Count {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.pressed[b] {
		return
	}
	t.pressed[b] = false
	if t.fired[b] {
		return
	}
	if at.Sub(t.down[b]) >= t.threshold {
		t.fired[b] = true
		t.long = t.long.Add(b)
		return
	}
	t.short = t.short.Add(b)
}

// Poll returns the presses completed since the previous poll
func (t *Tracker) Poll() (short, long Set) {
	return t.PollAt(t.now())
}

// PollAt is Poll with an explicit clock
func (t *Tracker) PollAt(now time.Time) (short, long Set) {
	t.mu.Lock()
	defer t.mu.Unlock()

	long = t.long
	t.long = 0
	for b := Left; b < Count; b++ {
		if t.pressed[b] && !t.fired[b] && now.Sub(t.down[b]) >= t.threshold {
			t.fired[b] = true
			long = long.Add(b)
		}
	}
	short = t.short
	t.short = 0
	return short, long
}
