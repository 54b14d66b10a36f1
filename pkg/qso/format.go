// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package qso

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"
)

// FormatFrame formats a received frame into a human-readable line
func FormatFrame(ts time.Time, raw []byte, rssi int) string {
	timestamp := ts.Format("15:04:05.000")

	if !utf8.Valid(raw) {
		return fmt.Sprintf("[%s] INVALID rssi=%d len=%d\n%s", timestamp, rssi, len(raw), formatHex(raw))
	}

	text := Normalize(string(raw))
	f, ok := Classify(text)
	if !ok {
		return fmt.Sprintf("[%s] TEXT rssi=%d %q\n", timestamp, rssi, text)
	}
	return fmt.Sprintf("[%s] %s rssi=%d %s\n", timestamp, FormatFrameType(f), rssi, FormatFields(f))
}

// FormatFrameType returns the display name for a decoded frame
func FormatFrameType(f Frame) string {
	if f.Beacon {
		return "BEACON"
	}
	return f.Stage.String()
}

// FormatFields renders the decoded fields of a frame
func FormatFields(f Frame) string {
	var parts []string
	if f.To != "" {
		parts = append(parts, fmt.Sprintf("%s > %s", f.From, f.To))
	} else {
		parts = append(parts, fmt.Sprintf("from=%s", f.From))
	}
	if f.Grid != "" {
		parts = append(parts, fmt.Sprintf("grid=%s", f.Grid))
	}
	if f.Report != "" {
		parts = append(parts, fmt.Sprintf("report=%s", f.Report))
	}
	return strings.Join(parts, " ")
}

// FormatOutcome describes a parse outcome in one line
func FormatOutcome(o Outcome) string {
	switch o.Kind {
	case Matched:
		s := fmt.Sprintf("%s accepted: %s", o.Expected, FormatFields(o.Frame))
		if o.Completed {
			s += " (contact complete)"
		}
		return s
	case NoMatch:
		return fmt.Sprintf("expected %s, rejected %q: %s", o.Expected, o.Text, o.Reason)
	default:
		return fmt.Sprintf("expected %s, %s", o.Expected, o.Reason)
	}
}

func formatHex(data []byte) string {
	result := "  Payload: "
	for i, b := range data {
		if i > 0 && i%16 == 0 {
			result += "\n           "
		}
		result += fmt.Sprintf("%02X ", b)
	}
	return result + "\n"
}
