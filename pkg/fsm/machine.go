// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

// Package fsm is the protocol state machine: beacon, sequence and free-text
// modes plus the configure menu reached by holding the center button.
//
// Each state runs its entry action when constructed and exposes one
// transition, Next, which consumes a tick's input and returns the next state
// (itself when nothing changes).
package fsm

import (
	"fmt"
	"time"

	"github.com/Thermoquad/heliograph/pkg/buttons"
)

// State is one node of the protocol state machine
type State interface {
	Name() string
	Next(in Input, c *Context) State
}

// Resumer is implemented by states that can be re-entered after the
// configure menu. Other states resume into their mode's listening state.
type Resumer interface {
	Resume(c *Context, now time.Time) State
}

// Machine holds the current state and the context it runs against
type Machine struct {
	ctx   *Context
	state State
}

// NewMachine starts a machine in the initial state
func NewMachine(c *Context) *Machine {
	return &Machine{ctx: c, state: enterInitial(c)}
}

// State returns the current state
func (m *Machine) State() State {
	return m.state
}

// Context returns the shared context
func (m *Machine) Context() *Context {
	return m.ctx
}

// Tick runs one transition. A long press of the center button is handled
// before the current state sees the input. If the transition hits a
// contract violation the current state is kept and the error returned.
func (m *Machine) Tick(in Input) (err error) {
	if m == nil || m.ctx == nil || m.state == nil {
		return &TransitionError{State: "<none>", Reason: "machine has no state"}
	}
	if in.Now.IsZero() {
		in.Now = time.Now()
	}

	defer func() {
		if r := recover(); r != nil {
			te, ok := r.(*TransitionError)
			if !ok {
				panic(r)
			}
			m.ctx.Log.Error("contract violation", "state", te.State, "reason", te.Reason)
			err = te
		}
	}()

	m.ctx.Display.DrawTime(in.Now)

	next := m.dispatch(in)
	if next == nil {
		violation(m.state.Name(), "returned no next state")
	}
	if next != m.state {
		m.ctx.Log.Debug("enter state", "state", next.Name())
	}
	m.state = next
	return nil
}

func (m *Machine) dispatch(in Input) State {
	if in.Long.Has(buttons.Center) {
		switch s := m.state.(type) {
		case *configure:
			return resume(m.ctx, s.prev, in.Now)
		case *poweredOff:
			return s.Next(in, m.ctx)
		default:
			return enterConfigure(m.ctx, m.state)
		}
	}
	return m.state.Next(in, m.ctx)
}

// resume re-enters a state captured by the configure menu
func resume(c *Context, prev State, now time.Time) State {
	if r, ok := prev.(Resumer); ok {
		return r.Resume(c, now)
	}
	return enterMode(c, now)
}

func (m *Machine) String() string {
	if m == nil || m.state == nil {
		return "Machine(<none>)"
	}
	return fmt.Sprintf("Machine(%s)", m.state.Name())
}
