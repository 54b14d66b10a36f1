// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package qso

import (
	"fmt"
	"time"
)

// Statistics tracks received frames, parse results and transmissions
type Statistics struct {
	StartTime      time.Time
	LastUpdateTime time.Time

	// Counters
	TotalFrames    uint64
	MatchedFrames  uint64
	Mismatches     uint64
	DecodeErrors   uint64
	Transmissions  uint64
	Repeats        uint64
	Contacts       uint64
	BeaconsHeard   uint64
	FreeTextFrames uint64

	// Rates (calculated)
	FrameRate float64 // frames/min
	ErrorRate float64 // errors/min
}

// NewStatistics creates a new statistics tracker
func NewStatistics() *Statistics {
	now := time.Now()
	return &Statistics{
		StartTime:      now,
		LastUpdateTime: now,
	}
}

// Update records the outcome of parsing a received frame
func (s *Statistics) Update(o Outcome) {
	s.TotalFrames++

	switch o.Kind {
	case Invalid:
		s.DecodeErrors++
	case NoMatch:
		s.Mismatches++
	case Matched:
		s.MatchedFrames++
		if o.Completed {
			s.Contacts++
		}
	}

	s.LastUpdateTime = time.Now()
}

// RecordBeacon records a frame heard in beacon mode
func (s *Statistics) RecordBeacon() {
	s.TotalFrames++
	s.BeaconsHeard++
	s.LastUpdateTime = time.Now()
}

// RecordFreeText records a frame shown in free-text mode
func (s *Statistics) RecordFreeText() {
	s.TotalFrames++
	s.FreeTextFrames++
	s.LastUpdateTime = time.Now()
}

// RecordDecodeError records a frame that could not be decoded outside sequence mode
func (s *Statistics) RecordDecodeError() {
	s.TotalFrames++
	s.DecodeErrors++
	s.LastUpdateTime = time.Now()
}

// RecordTransmit records one logical message sent as repeats copies
func (s *Statistics) RecordTransmit(repeats int) {
	s.Transmissions++
	s.Repeats += uint64(repeats)
	s.LastUpdateTime = time.Now()
}

// RecordContact records a contact we completed by sending the sign-off
func (s *Statistics) RecordContact() {
	s.Contacts++
	s.LastUpdateTime = time.Now()
}

// CalculateRates calculates frame and error rates
func (s *Statistics) CalculateRates() {
	elapsed := time.Since(s.StartTime).Minutes()
	if elapsed > 0 {
		s.FrameRate = float64(s.TotalFrames) / elapsed
		s.ErrorRate = float64(s.DecodeErrors+s.Mismatches) / elapsed
	}
}

// String returns a formatted statistics summary
func (s *Statistics) String() string {
	s.CalculateRates()

	var matchedPercent, mismatchPercent, decodePercent float64
	if s.TotalFrames > 0 {
		matchedPercent = float64(s.MatchedFrames) * 100.0 / float64(s.TotalFrames)
		mismatchPercent = float64(s.Mismatches) * 100.0 / float64(s.TotalFrames)
		decodePercent = float64(s.DecodeErrors) * 100.0 / float64(s.TotalFrames)
	}

	elapsed := time.Since(s.StartTime)

	result := fmt.Sprintf("=== Statistics (%.0f seconds) ===\n", elapsed.Seconds())
	result += fmt.Sprintf("Frames Heard:    %8d\n", s.TotalFrames)
	result += fmt.Sprintf("Matched:         %8d (%.1f%%)\n", s.MatchedFrames, matchedPercent)

	if s.Mismatches > 0 {
		result += fmt.Sprintf("Mismatches:      %8d (%.1f%%)\n", s.Mismatches, mismatchPercent)
	}
	if s.DecodeErrors > 0 {
		result += fmt.Sprintf("Decode Errors:   %8d (%.1f%%)\n", s.DecodeErrors, decodePercent)
	}
	if s.BeaconsHeard > 0 {
		result += fmt.Sprintf("Beacons Heard:   %8d\n", s.BeaconsHeard)
	}
	if s.FreeTextFrames > 0 {
		result += fmt.Sprintf("Free Text:       %8d\n", s.FreeTextFrames)
	}

	result += fmt.Sprintf("Transmissions:   %8d (%d repeats)\n", s.Transmissions, s.Repeats)
	result += fmt.Sprintf("Contacts:        %8d\n", s.Contacts)
	result += fmt.Sprintf("Frame Rate:      %8.1f frames/min\n", s.FrameRate)
	result += fmt.Sprintf("Error Rate:      %8.1f errors/min\n", s.ErrorRate)
	result += "================================\n"

	return result
}
