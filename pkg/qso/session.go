// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package qso

import (
	"fmt"
	"unicode/utf8"
)

// Session is the mutable data shared by the protocol states.
//
// Stage is both the stage we send next and the stage we expect to receive.
// Cursor is the template the operator is looking at; it follows Stage after
// every advance but can be moved freely to preview or resend.
type Session struct {
	Templates   []string
	Stage       Stage
	Cursor      int
	Params      Params
	BeaconCount int
	Selection   int // free-text message selection

	// LastCall is the peer of the last completed contact. It survives Reset.
	LastCall string
}

// NewSession creates a session for the local station
func NewSession(mycall, mygrid string, templates []string) *Session {
	if len(templates) == 0 {
		templates = DefaultSequence
	}
	s := &Session{
		Templates: templates,
		Params: Params{
			ParamMyCall: Normalize(mycall),
			ParamMyGrid: Normalize(mygrid),
		},
	}
	s.ResetPeer()
	return s
}

// ResetPeer returns every peer-scoped parameter to its sentinel
func (s *Session) ResetPeer() {
	for name, sentinel := range peerParams {
		s.Params[name] = sentinel
	}
}

// Reset is the hard session reset: stage and cursor to zero, peer forgotten
func (s *Session) Reset() {
	s.Stage = 0
	s.Cursor = 0
	s.ResetPeer()
}

// Bound reports whether a peer-scoped parameter holds a real value
func (s *Session) Bound(name string) bool {
	v, ok := s.Params[name]
	if !ok {
		return false
	}
	if sentinel, peer := peerParams[name]; peer {
		return v != sentinel
	}
	return true
}

// Advance moves to the next stage. When the exchange wraps back to the first
// stage the peer parameters are reset in the same step. It reports whether
// the contact completed.
func (s *Session) Advance() bool {
	n := len(s.Templates)
	s.Stage = Stage((int(s.Stage) + 1) % n)
	s.Cursor = int(s.Stage)
	if s.Stage == 0 {
		if s.Bound(ParamTheirCall) {
			s.LastCall = s.Params[ParamTheirCall]
		}
		s.ResetPeer()
		return true
	}
	return false
}

// MoveCursor steps the display cursor by delta, wrapping around the templates
func (s *Session) MoveCursor(delta int) {
	n := len(s.Templates)
	s.Cursor = ((s.Cursor+delta)%n + n) % n
}

// RenderTemplate renders template i with the current parameters
func (s *Session) RenderTemplate(i int) (string, error) {
	if i < 0 || i >= len(s.Templates) {
		return "", fmt.Errorf("template index %d out of range (0-%d)", i, len(s.Templates)-1)
	}
	return Render(s.Templates[i], s.Params)
}

// FreeParams are the parameters for free-text messages: the current ones,
// with theircall falling back to the last completed contact.
func (s *Session) FreeParams() Params {
	p := s.Params.Clone()
	if !s.Bound(ParamTheirCall) && s.LastCall != "" {
		p[ParamTheirCall] = s.LastCall
	}
	return p
}

// SetTheirReport records the signal strength we measured for the peer
func (s *Session) SetTheirReport(dbm int) {
	s.Params[ParamTheirRSSI] = FormatReport(dbm)
}

// FormatReport formats a dBm reading as a signed, non-zero report
func FormatReport(dbm int) string {
	if dbm == 0 {
		dbm = -1
	}
	return fmt.Sprintf("%+d", dbm)
}

// Receive parses raw against the grammar of the expected stage only. On a
// match the newly observed fields are stored and the session advances.
func (s *Session) Receive(raw []byte) Outcome {
	out := Outcome{Expected: s.Stage}

	if !utf8.Valid(raw) {
		out.Kind = Invalid
		out.Reason = ErrDecode.Error()
		return out
	}
	out.Text = Normalize(string(raw))

	frame, ok := Match(s.Stage, out.Text)
	if !ok {
		out.Kind = NoMatch
		out.Reason = fmt.Sprintf("not a %s frame", s.Stage)
		return out
	}

	if reason := s.checkBinding(frame); reason != "" {
		out.Kind = NoMatch
		out.Reason = reason
		return out
	}

	out.Updated = s.apply(frame)
	out.Kind = Matched
	out.Frame = frame
	out.Completed = s.Advance()
	return out
}

// checkBinding verifies the frame's callsigns against the session
func (s *Session) checkBinding(f Frame) string {
	if f.Stage == StageCQ {
		return ""
	}
	if f.To != s.Params[ParamMyCall] {
		return fmt.Sprintf("addressed to %s, not %s", f.To, s.Params[ParamMyCall])
	}
	theirs := s.Params[ParamTheirCall]
	switch f.Stage {
	case StageGrid:
		// The CQ caller learns the peer's call here
		if s.Bound(ParamTheirCall) && f.From != theirs {
			return fmt.Sprintf("from %s, in contact with %s", f.From, theirs)
		}
	default:
		if f.From != theirs {
			return fmt.Sprintf("from %s, in contact with %s", f.From, theirs)
		}
	}
	return ""
}

// apply stores the fields a stage defines and returns their names
func (s *Session) apply(f Frame) []string {
	switch f.Stage {
	case StageCQ, StageGrid:
		s.Params[ParamTheirCall] = f.From
		s.Params[ParamTheirGrid] = f.Grid
		return []string{ParamTheirCall, ParamTheirGrid}
	case StageReport, StageAckReport:
		s.Params[ParamMyRSSI] = f.Report
		return []string{ParamMyRSSI}
	}
	return nil
}
