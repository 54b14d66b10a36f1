// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package qso

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

var (
	// ErrUnboundParam is returned when a template names a parameter with no value
	ErrUnboundParam = errors.New("unbound template parameter")

	// ErrMalformedTemplate is returned for unbalanced braces
	ErrMalformedTemplate = errors.New("malformed template")
)

var placeholderRe = regexp.MustCompile(`\{([A-Za-z_]+)\}`)

// Params maps placeholder names to their current values
type Params map[string]string

// Clone returns an independent copy
func (p Params) Clone() Params {
	out := make(Params, len(p))
	for k, v := range p {
		out[k] = v
	}
	return out
}

// Render substitutes every {name} placeholder in tmpl with its value in params
func Render(tmpl string, params Params) (string, error) {
	var missing []string
	out := placeholderRe.ReplaceAllStringFunc(tmpl, func(ph string) string {
		name := ph[1 : len(ph)-1]
		v, ok := params[name]
		if !ok {
			missing = append(missing, name)
			return ph
		}
		return v
	})
	if len(missing) > 0 {
		return "", fmt.Errorf("%w: %s in %q", ErrUnboundParam, strings.Join(missing, ", "), tmpl)
	}

	// Anything left over is a stray brace in the template itself
	rest := placeholderRe.ReplaceAllString(tmpl, "")
	if strings.ContainsAny(rest, "{}") {
		return "", fmt.Errorf("%w: %q", ErrMalformedTemplate, tmpl)
	}
	return out, nil
}

// Placeholders returns the parameter names referenced by tmpl, in order
func Placeholders(tmpl string) []string {
	var names []string
	for _, m := range placeholderRe.FindAllStringSubmatch(tmpl, -1) {
		names = append(names, m[1])
	}
	return names
}
