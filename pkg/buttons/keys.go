// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package buttons

import "sync"

// Keys is a keyboard stand-in for the buttons. A key maps to a short press
// and its shifted form to a long press. Presses are held until the next poll.
type Keys struct {
	mu    sync.Mutex
	short Set
	long  Set
}

// KeyMap lists the default keys for buttons 0, 1 and 2
var KeyMap = [Count]rune{'a', 's', 'd'}

// Key feeds one keystroke. It reports whether the key was mapped.
func (k *Keys) Key(r rune) bool {
	for i, key := range KeyMap {
		b := Button(i)
		switch r {
		case key:
			k.Short(b)
			return true
		case key - 'a' + 'A':
			k.Long(b)
			return true
		}
	}
	return false
}

// Short queues a short press of b
func (k *Keys) Short(b Button) {
	k.mu.Lock()
	k.short = k.short.Add(b)
	k.mu.Unlock()
}

// Long queues a long press of b
func (k *Keys) Long(b Button) {
	k.mu.Lock()
	k.long = k.long.Add(b)
	k.mu.Unlock()
}

// Poll returns and clears the queued presses
func (k *Keys) Poll() (short, long Set) {
	k.mu.Lock()
	defer k.mu.Unlock()
	short, long = k.short, k.long
	k.short, k.long = 0, 0
	return short, long
}
