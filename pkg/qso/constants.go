// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

// Package qso implements the six-stage contact exchange used by heliograph.
//
// A contact runs CQ -> grid reply -> signal report -> acknowledged report ->
// RRR -> 73. Each stage has exactly one frame grammar, and a Session only ever
// tries the grammar of the stage it currently expects, so an out-of-sequence
// frame is indistinguishable from noise.
package qso

// Stage is one position in the contact exchange
type Stage int

// Contact stages
const (
	StageCQ Stage = iota
	StageGrid
	StageReport
	StageAckReport
	StageRoger
	StageSignoff
)

// StageCount is the number of stages in a full contact
const StageCount = 6

var stageNames = [StageCount]string{"CQ", "GRID", "REPORT", "R-REPORT", "RRR", "73"}

// String returns the stage's display name
func (s Stage) String() string {
	if s < 0 || int(s) >= StageCount {
		return "UNKNOWN"
	}
	return stageNames[s]
}

// Placeholder names usable in message templates
const (
	ParamMyCall    = "mycall"
	ParamMyGrid    = "mygrid"
	ParamTheirCall = "theircall"
	ParamTheirGrid = "theirgrid"
	ParamTheirRSSI = "theirrssi"
	ParamMyRSSI    = "myrssi"
)

// Sentinel values for peer-scoped parameters that are not bound yet
const (
	SentinelCall   = "______"
	SentinelGrid   = "____"
	SentinelReport = "___"
)

// peerParams lists the session-scoped parameters and their sentinels
var peerParams = map[string]string{
	ParamTheirCall: SentinelCall,
	ParamTheirGrid: SentinelGrid,
	ParamTheirRSSI: SentinelReport,
	ParamMyRSSI:    SentinelReport,
}

// DefaultSequence is the stock six-stage template list
var DefaultSequence = []string{
	"CQ {mycall} {mygrid}",
	"{theircall} {mycall} {mygrid}",
	"{theircall} {mycall} {theirrssi}",
	"{theircall} {mycall} R{theirrssi}",
	"{theircall} {mycall} RRR",
	"{theircall} {mycall} 73",
}

// DefaultBeacon is the stock beacon template
const DefaultBeacon = "BCN {mycall} {mygrid}"
