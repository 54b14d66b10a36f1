// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package fsm

import (
	"errors"
	"fmt"
)

// ErrInvalidTransition marks a gap in the transition table. It never occurs
// in a correct build.
var ErrInvalidTransition = errors.New("invalid state transition")

// TransitionError reports which state hit an invalid transition
type TransitionError struct {
	State  string
	Reason string
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("%s: %s: %s", ErrInvalidTransition, e.State, e.Reason)
}

func (e *TransitionError) Unwrap() error {
	return ErrInvalidTransition
}

// violation aborts the current transition. Machine.Tick recovers it.
func violation(state, format string, args ...any) {
	panic(&TransitionError{State: state, Reason: fmt.Sprintf(format, args...)})
}
