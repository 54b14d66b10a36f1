// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package qso

import "errors"

// ErrDecode marks a received frame that is not valid text
var ErrDecode = errors.New("frame is not valid text")

// OutcomeKind classifies the result of parsing a received frame
type OutcomeKind int

const (
	// Invalid means the bytes could not be decoded as text
	Invalid OutcomeKind = iota
	// NoMatch means the text did not fit the expected stage, or the callsigns
	// did not match the ones bound to this session
	NoMatch
	// Matched means the frame was accepted and the session advanced
	Matched
)

func (k OutcomeKind) String() string {
	switch k {
	case Invalid:
		return "INVALID"
	case NoMatch:
		return "NO_MATCH"
	case Matched:
		return "MATCHED"
	default:
		return "UNKNOWN"
	}
}

// Outcome is the result of Session.Receive
type Outcome struct {
	Kind     OutcomeKind
	Expected Stage  // stage the session was expecting
	Text     string // normalized text, empty when Invalid
	Frame    Frame  // decoded fields, zero unless Matched
	Reason   string // why a frame was rejected
	Updated  []string
	// Completed is set when the frame finished a contact and the session wrapped
	Completed bool
}

// OK reports whether the frame was accepted
func (o Outcome) OK() bool {
	return o.Kind == Matched
}

// Err returns ErrDecode for Invalid outcomes and nil otherwise
func (o Outcome) Err() error {
	if o.Kind == Invalid {
		return ErrDecode
	}
	return nil
}
