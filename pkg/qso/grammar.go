// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package qso

import (
	"regexp"
	"strings"
)

// Token grammars
const (
	callPattern   = `[A-Z0-9]*[0-9][A-Z0-9]*[A-Z]`
	gridPattern   = `[A-Z]{2}[0-9]{2}[A-Z]*`
	reportPattern = `[+-][1-9][0-9]*`
)

var (
	callRe   = regexp.MustCompile(`^` + callPattern + `$`)
	gridRe   = regexp.MustCompile(`^` + gridPattern + `$`)
	reportRe = regexp.MustCompile(`^` + reportPattern + `$`)

	beaconRe = regexp.MustCompile(`^BCN\s+(` + callPattern + `)\s+(` + gridPattern + `)$`)

	stageRes = [StageCount]*regexp.Regexp{
		StageCQ:        regexp.MustCompile(`^CQ\s+(` + callPattern + `)\s+(` + gridPattern + `)$`),
		StageGrid:      regexp.MustCompile(`^(` + callPattern + `)\s+(` + callPattern + `)\s+(` + gridPattern + `)$`),
		StageReport:    regexp.MustCompile(`^(` + callPattern + `)\s+(` + callPattern + `)\s+(` + reportPattern + `)$`),
		StageAckReport: regexp.MustCompile(`^(` + callPattern + `)\s+(` + callPattern + `)\s+R(` + reportPattern + `)$`),
		StageRoger:     regexp.MustCompile(`^(` + callPattern + `)\s+(` + callPattern + `)\s+RRR$`),
		StageSignoff:   regexp.MustCompile(`^(` + callPattern + `)\s+(` + callPattern + `)\s+73$`),
	}
)

// IsCallsign reports whether s has amateur callsign shape
func IsCallsign(s string) bool { return callRe.MatchString(s) }

// IsGrid reports whether s is a Maidenhead grid locator
func IsGrid(s string) bool { return gridRe.MatchString(s) }

// IsReport reports whether s is a signed, non-zero signal report
func IsReport(s string) bool { return reportRe.MatchString(s) }

// Frame holds the fields decoded from one received text frame.
// For CQ and beacon frames only From and Grid are set.
type Frame struct {
	Stage  Stage
	Beacon bool
	To     string // station being addressed
	From   string // station sending
	Grid   string
	Report string
}

// Normalize upper-cases a frame and strips surrounding whitespace
func Normalize(text string) string {
	return strings.ToUpper(strings.TrimSpace(text))
}

// Match tries only the grammar of the given stage against normalized text
func Match(stage Stage, text string) (Frame, bool) {
	if stage < 0 || int(stage) >= StageCount {
		return Frame{}, false
	}
	m := stageRes[stage].FindStringSubmatch(text)
	if m == nil {
		return Frame{}, false
	}

	f := Frame{Stage: stage}
	switch stage {
	case StageCQ:
		f.From, f.Grid = m[1], m[2]
	case StageGrid:
		f.To, f.From, f.Grid = m[1], m[2], m[3]
	case StageReport, StageAckReport:
		f.To, f.From, f.Report = m[1], m[2], m[3]
	case StageRoger, StageSignoff:
		f.To, f.From = m[1], m[2]
	}
	return f, true
}

// MatchBeacon matches a "BCN <call> <grid>" frame
func MatchBeacon(text string) (Frame, bool) {
	m := beaconRe.FindStringSubmatch(text)
	if m == nil {
		return Frame{}, false
	}
	return Frame{Beacon: true, From: m[1], Grid: m[2]}, true
}

// Classify finds any grammar the text matches. It is meant for monitoring
// only; protocol parsing must go through Session.Receive.
func Classify(text string) (Frame, bool) {
	if f, ok := MatchBeacon(text); ok {
		return f, true
	}
	for stage := StageCQ; stage <= StageSignoff; stage++ {
		if f, ok := Match(stage, text); ok {
			return f, true
		}
	}
	return Frame{}, false
}
