// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

// Package config loads the station configuration from YAML.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/Thermoquad/heliograph/pkg/qso"
	"github.com/lestrrat-go/strftime"
	"gopkg.in/yaml.v3"
)

// ErrInvalid is wrapped by every validation failure
var ErrInvalid = errors.New("invalid configuration")

// DefaultPath is used when no --config flag is given
const DefaultPath = "heliograph.yaml"

// Mode is the operating mode armed at startup
type Mode string

const (
	ModeNone     Mode = "none"
	ModeBeacon   Mode = "beacon"
	ModeSequence Mode = "sequence"
	ModeFree     Mode = "free"
)

// Messages holds the message templates for each mode
type Messages struct {
	Beacon   string   `yaml:"beacon"`
	Sequence []string `yaml:"sequence"`
	Free     []string `yaml:"free"`
}

// Sequence holds sequence-mode retransmission settings
type Sequence struct {
	RetryTime  float64 `yaml:"retry_time"` // seconds, 0 disables
	MaxRetries int     `yaml:"max_retries"`
}

// Config is the station configuration. It is not modified after Load.
type Config struct {
	Callsign      string   `yaml:"callsign"`
	Grid          string   `yaml:"grid"`
	Mode          Mode     `yaml:"mode"`
	BeaconTime    float64  `yaml:"beacon_time"` // seconds
	PingLength    int      `yaml:"ping_length"`
	RepeatDelayMS int      `yaml:"repeat_delay_ms"`
	Power         int      `yaml:"power"`     // dBm
	Frequency     float64  `yaml:"frequency"` // MHz
	LongPressMS   int      `yaml:"long_press_ms"`
	ClockFormat   string   `yaml:"clock_format"`
	Messages      Messages `yaml:"messages"`
	Sequence      Sequence `yaml:"sequence"`
}

// DefaultFree is the canned free-text list
var DefaultFree = []string{
	"{theircall} {mycall} QRZ?",
	"{theircall} {mycall} TNX",
	"{theircall} {mycall} QRT",
}

// Default returns a configuration with every default filled in and no station identity
func Default() *Config {
	return &Config{
		Mode:          ModeNone,
		BeaconTime:    10,
		PingLength:    1,
		RepeatDelayMS: 250,
		Power:         14,
		Frequency:     915.0,
		LongPressMS:   2000,
		ClockFormat:   "%H:%M",
		Messages: Messages{
			Beacon:   qso.DefaultBeacon,
			Sequence: append([]string(nil), qso.DefaultSequence...),
			Free:     append([]string(nil), DefaultFree...),
		},
		Sequence: Sequence{MaxRetries: 3},
	}
}

// Load reads and validates the configuration at path
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}
	c, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return c, nil
}

// Parse decodes YAML over the defaults and validates. Keys absent from the
// document keep their default; keys present keep their value, zero included.
func Parse(data []byte) (*Config, error) {
	c := Default()
	if err := yaml.Unmarshal(data, c); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	c.Callsign = qso.Normalize(c.Callsign)
	c.Grid = qso.Normalize(c.Grid)
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalid, fmt.Sprintf(format, args...))
}

// Validate checks the configuration for values the device cannot run with
func (c *Config) Validate() error {
	if !qso.IsCallsign(c.Callsign) {
		return invalid("callsign %q is not a valid callsign", c.Callsign)
	}
	if !qso.IsGrid(c.Grid) {
		return invalid("grid %q is not a valid grid locator", c.Grid)
	}
	switch c.Mode {
	case ModeNone, ModeBeacon, ModeSequence, ModeFree:
	default:
		return invalid("mode %q must be one of beacon, sequence, free, none", c.Mode)
	}
	if c.BeaconTime <= 0 {
		return invalid("beacon_time must be positive")
	}
	if c.PingLength < 1 {
		return invalid("ping_length must be at least 1")
	}
	if c.RepeatDelayMS < 0 {
		return invalid("repeat_delay_ms must not be negative")
	}
	if c.LongPressMS <= 0 {
		return invalid("long_press_ms must be positive")
	}
	if c.Frequency <= 0 {
		return invalid("frequency must be positive")
	}
	if len(c.Messages.Sequence) != qso.StageCount {
		return invalid("messages.sequence must have %d templates, got %d", qso.StageCount, len(c.Messages.Sequence))
	}
	if len(c.Messages.Free) == 0 {
		return invalid("messages.free must not be empty")
	}
	if c.Sequence.RetryTime < 0 || c.Sequence.MaxRetries < 0 {
		return invalid("sequence retry settings must not be negative")
	}

	// Beacon mode never learns a peer
	for _, name := range qso.Placeholders(c.Messages.Beacon) {
		if name != qso.ParamMyCall && name != qso.ParamMyGrid {
			return invalid("messages.beacon may only use {%s} and {%s}, not {%s}", qso.ParamMyCall, qso.ParamMyGrid, name)
		}
	}

	params := qso.NewSession(c.Callsign, c.Grid, nil).Params
	templates := append([]string{c.Messages.Beacon}, c.Messages.Sequence...)
	templates = append(templates, c.Messages.Free...)
	for _, tmpl := range templates {
		if _, err := qso.Render(tmpl, params); err != nil {
			return invalid("template %q: %v", tmpl, err)
		}
	}

	if _, err := strftime.New(c.ClockFormat); err != nil {
		return invalid("clock_format %q: %v", c.ClockFormat, err)
	}
	return nil
}

// BeaconInterval is beacon_time as a duration
func (c *Config) BeaconInterval() time.Duration {
	return time.Duration(c.BeaconTime * float64(time.Second))
}

// RepeatDelay is the pause between repeated transmissions
func (c *Config) RepeatDelay() time.Duration {
	return time.Duration(c.RepeatDelayMS) * time.Millisecond
}

// LongPress is the button hold time that counts as a long press
func (c *Config) LongPress() time.Duration {
	return time.Duration(c.LongPressMS) * time.Millisecond
}

// RetryInterval is the sequence resend interval, zero when disabled
func (c *Config) RetryInterval() time.Duration {
	return time.Duration(c.Sequence.RetryTime * float64(time.Second))
}
