// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package display

import (
	"time"

	"github.com/charmbracelet/log"
)

// LogDisplay is a headless display that logs what would be shown
type LogDisplay struct {
	*Screen
	log *log.Logger
}

// NewLogDisplay wraps a screen so every visible change is logged
func NewLogDisplay(logger *log.Logger, clockFormat string) (*LogDisplay, error) {
	s, err := NewScreen(clockFormat)
	if err != nil {
		return nil, err
	}
	return &LogDisplay{Screen: s, log: logger}, nil
}

func (d *LogDisplay) SetText(line int, text string, inverse bool) {
	d.Screen.SetText(line, text, inverse)
	d.log.Info("display", "line", line, "text", text, "inverse", inverse)
}

func (d *LogDisplay) SetAllText(lines []string) {
	d.Screen.SetAllText(lines)
	d.log.Info("display", "lines", lines)
}

func (d *LogDisplay) ClearText() {
	d.Screen.ClearText()
	d.log.Debug("display cleared")
}

func (d *LogDisplay) SetSelect(index int) {
	d.Screen.SetSelect(index)
	d.log.Debug("display select", "index", index)
}

func (d *LogDisplay) SetRXError(on bool) {
	if on != d.Snapshot().RXError {
		d.log.Debug("rx error indicator", "on", on)
	}
	d.Screen.SetRXError(on)
}

func (d *LogDisplay) SetMode(m Mode) {
	d.Screen.SetMode(m)
	d.log.Info("mode", "mode", m)
}

// DrawTime logs only when the rendered clock changes
func (d *LogDisplay) DrawTime(now time.Time) {
	before := d.Snapshot().Clock
	d.Screen.DrawTime(now)
	if after := d.Snapshot().Clock; after != before {
		d.log.Debug("clock", "time", after)
	}
}

func (d *LogDisplay) Sleep() {
	d.Screen.Sleep()
	d.log.Info("display sleeping")
}

func (d *LogDisplay) Wake() {
	d.Screen.Wake()
	d.log.Info("display awake")
}
