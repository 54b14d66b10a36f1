// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package display

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/lestrrat-go/strftime"
)

// DefaultClockFormat is the strftime pattern of the status-row clock
const DefaultClockFormat = "%H:%M"

// Width is the number of characters per line
const Width = 21

// Screen keeps the display state in memory and renders it for a terminal.
// It is safe for concurrent use: the state machine writes while the
// terminal program reads.
type Screen struct {
	mu    sync.Mutex
	state State
	clock *strftime.Strftime
}

// NewScreen creates a blank screen. An empty clock format uses the default.
func NewScreen(clockFormat string) (*Screen, error) {
	if clockFormat == "" {
		clockFormat = DefaultClockFormat
	}
	clock, err := strftime.New(clockFormat)
	if err != nil {
		return nil, fmt.Errorf("invalid clock format %q: %w", clockFormat, err)
	}
	return &Screen{
		state: State{Select: NoSelect},
		clock: clock,
	}, nil
}

func (s *Screen) SetText(line int, text string, inverse bool) {
	if line < 0 || line >= Lines {
		return
	}
	s.mu.Lock()
	s.state.Text[line] = text
	s.state.Inverse[line] = inverse
	s.mu.Unlock()
}

// SetAllText replaces every line. Missing lines are cleared, extra lines dropped.
func (s *Screen) SetAllText(lines []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := 0; i < Lines; i++ {
		s.state.Text[i] = ""
		s.state.Inverse[i] = false
		if i < len(lines) {
			s.state.Text[i] = lines[i]
		}
	}
}

func (s *Screen) ClearText() {
	s.SetAllText(nil)
}

func (s *Screen) SetSelect(index int) {
	if index < NoSelect || index >= Lines {
		index = NoSelect
	}
	s.mu.Lock()
	s.state.Select = index
	s.mu.Unlock()
}

func (s *Screen) SetRX(on bool) {
	s.mu.Lock()
	s.state.RX = on
	s.mu.Unlock()
}

func (s *Screen) SetTX(on bool) {
	s.mu.Lock()
	s.state.TX = on
	s.mu.Unlock()
}

func (s *Screen) SetRXError(on bool) {
	s.mu.Lock()
	s.state.RXError = on
	s.mu.Unlock()
}

func (s *Screen) SetMode(m Mode) {
	s.mu.Lock()
	s.state.Mode = m
	s.mu.Unlock()
}

func (s *Screen) DrawTime(now time.Time) {
	text := s.clock.FormatString(now)
	s.mu.Lock()
	s.state.Clock = text
	s.mu.Unlock()
}

func (s *Screen) Sleep() {
	s.mu.Lock()
	s.state.Asleep = true
	s.mu.Unlock()
}

func (s *Screen) Wake() {
	s.mu.Lock()
	s.state.Asleep = false
	s.mu.Unlock()
}

// Snapshot returns a copy of the current state
func (s *Screen) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

var (
	panelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240")).
			Padding(0, 1)

	badgeStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("12")).
			Background(lipgloss.Color("235")).
			Padding(0, 1)

	lineStyle    = lipgloss.NewStyle().Width(Width)
	inverseStyle = lineStyle.Reverse(true)
	rxStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Bold(true)
	txStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("11")).Bold(true)
	errStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
	dimStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

// View renders the screen
func (s *Screen) View() string {
	st := s.Snapshot()
	if st.Asleep {
		return panelStyle.Render(dimStyle.Render(lineStyle.Render("")) + "\n\n\n")
	}

	indicator := func(on bool, label string, style lipgloss.Style) string {
		if on {
			return style.Render(label)
		}
		return dimStyle.Render(label)
	}

	status := fmt.Sprintf("%s %s %s %s  %s",
		badgeStyle.Render(st.Mode.String()),
		indicator(st.RX, "RX", rxStyle),
		indicator(st.TX, "TX", txStyle),
		indicator(st.RXError, "ERR", errStyle),
		st.Clock,
	)

	var b strings.Builder
	b.WriteString(status)
	for i := 0; i < Lines; i++ {
		b.WriteString("\n")
		marker := "  "
		if st.Select == i {
			marker = "> "
		}
		style := lineStyle
		if st.Inverse[i] {
			style = inverseStyle
		}
		b.WriteString(marker + style.Render(truncate(st.Text[i], Width)))
	}
	return panelStyle.Render(b.String())
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
