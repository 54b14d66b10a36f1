// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/Thermoquad/heliograph/pkg/buttons"
	"github.com/Thermoquad/heliograph/pkg/display"
	"github.com/Thermoquad/heliograph/pkg/fsm"
	"github.com/Thermoquad/heliograph/pkg/qso"
	"github.com/Thermoquad/heliograph/pkg/radio"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
)

var simTickInterval int

var simCmd = &cobra.Command{
	Use:   "sim",
	Short: "Simulate the device in the terminal",
	Long: `Run the protocol state machine with the screen drawn in the terminal and
the three buttons on the keyboard.

  a / s / d   previous / send / next (short press of button 0 / 1 / 2)
  A / S / D   long press of button 0 / 1 / 2
              A resets the session, S opens the configure menu
  q           quit

Without --port or --url the radio is a local stub: transmissions go nowhere.
Run a relay and point two sims at it with --url to hold a contact.`,
	RunE: runSim,
}

func init() {
	rootCmd.AddCommand(simCmd)
	simCmd.Flags().IntVar(&simTickInterval, "tick", 50, "Milliseconds between machine ticks")
}

// simReceiveTimeout keeps the UI responsive while still polling the radio
const simReceiveTimeout = 5 * time.Millisecond

// eventLog collects logger output for the events panel
type eventLog struct {
	mu         sync.Mutex
	lines      []string
	maxEntries int
}

func (l *eventLog) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.lines = append(l.lines, strings.Split(strings.TrimRight(string(p), "\n"), "\n")...)
	// Keep only last N entries
	if len(l.lines) > l.maxEntries {
		l.lines = l.lines[len(l.lines)-l.maxEntries:]
	}
	return len(p), nil
}

func (l *eventLog) String() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return strings.Join(l.lines, "\n")
}

// simKeyMap binds the keyboard to the device buttons
type simKeyMap struct {
	Short [buttons.Count]key.Binding
	Long  [buttons.Count]key.Binding
	Quit  key.Binding
}

func newSimKeyMap() simKeyMap {
	var km simKeyMap
	labels := [buttons.Count]string{"prev", "send", "next"}
	longLabels := [buttons.Count]string{"reset", "menu", "hold next"}
	for i, r := range buttons.KeyMap {
		lower := string(r)
		upper := strings.ToUpper(lower)
		km.Short[i] = key.NewBinding(key.WithKeys(lower), key.WithHelp(lower, labels[i]))
		km.Long[i] = key.NewBinding(key.WithKeys(upper), key.WithHelp(upper, longLabels[i]))
	}
	km.Quit = key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit"))
	return km
}

func (km simKeyMap) ShortHelp() []key.Binding {
	out := append([]key.Binding{}, km.Short[:]...)
	out = append(out, km.Long[buttons.Left], km.Long[buttons.Center], km.Quit)
	return out
}

func (km simKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{km.Short[:], km.Long[:], {km.Quit}}
}

// TUI model
type simModel struct {
	driver   *fsm.Driver
	machine  *fsm.Machine
	screen   *display.Screen
	keys     *buttons.Keys
	events   *eventLog
	stats    *qso.Statistics
	connInfo string
	callsign string
	interval time.Duration

	keyMap   simKeyMap
	help     help.Model
	viewport viewport.Model

	width    int
	height   int
	quitting bool
	err      error
}

// Messages
type simTickMsg time.Time

func (m simModel) Init() tea.Cmd {
	return tea.Batch(
		m.tick(),
		tea.EnterAltScreen,
	)
}

func (m simModel) tick() tea.Cmd {
	return tea.Tick(m.interval, func(t time.Time) tea.Msg {
		return simTickMsg(t)
	})
}

func (m simModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if key.Matches(msg, m.keyMap.Quit) {
			m.quitting = true
			return m, tea.Quit
		}
		for i := range m.keyMap.Short {
			switch {
			case key.Matches(msg, m.keyMap.Short[i]):
				m.keys.Short(buttons.Button(i))
			case key.Matches(msg, m.keyMap.Long[i]):
				m.keys.Long(buttons.Button(i))
			}
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		m.viewport.Width = msg.Width - 6
		m.viewport.Height = m.logHeight()

	case simTickMsg:
		if err := m.driver.Step(); err != nil {
			m.err = err
			m.quitting = true
			return m, tea.Quit
		}
		m.stats.CalculateRates()
		m.viewport.SetContent(m.events.String())
		m.viewport.GotoBottom()
		return m, m.tick()
	}

	return m, nil
}

// logHeight is the number of event lines that fit below the device
func (m simModel) logHeight() int {
	// Reserve space for header, device, stats and help
	h := m.height - 20
	if h < 5 {
		h = 5
	}
	return h
}

var (
	simTitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("12")).
			Background(lipgloss.Color("235")).
			Padding(0, 1)

	simHeaderStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241"))

	simLabelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("12")).
			Bold(true)

	simValueStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("10"))

	simErrorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("9")).
			Bold(true)

	simBoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240")).
			Padding(0, 1)
)

func (m simModel) View() string {
	if m.quitting {
		return "Shutting down...\n"
	}

	var s strings.Builder
	s.WriteString(simTitleStyle.Render("HELIOGRAPH - " + m.callsign))
	s.WriteString("\n")
	s.WriteString(simHeaderStyle.Render(fmt.Sprintf("%s | State: %s", m.connInfo, m.machine.State().Name())))
	s.WriteString("\n\n")

	s.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, m.screen.View(), "  ", simBoxStyle.Render(m.statsView())))
	s.WriteString("\n\n")

	s.WriteString(simLabelStyle.Render("Recent Events:"))
	s.WriteString("\n")
	if m.events.String() == "" {
		s.WriteString(simBoxStyle.Width(m.width - 4).Render(simHeaderStyle.Render("  (no events yet)")))
	} else {
		s.WriteString(simBoxStyle.Width(m.width - 4).Render(m.viewport.View()))
	}
	s.WriteString("\n")
	s.WriteString(m.help.View(m.keyMap))

	return s.String()
}

func (m simModel) statsView() string {
	st := m.stats
	errStyle := simValueStyle
	if st.Mismatches+st.DecodeErrors > 0 {
		errStyle = simErrorStyle
	}

	var b strings.Builder
	b.WriteString(fmt.Sprintf("%s %s   %s %s\n",
		simLabelStyle.Render("Frames:"), simValueStyle.Render(fmt.Sprintf("%d", st.TotalFrames)),
		simLabelStyle.Render("Matched:"), simValueStyle.Render(fmt.Sprintf("%d", st.MatchedFrames)),
	))
	b.WriteString(fmt.Sprintf("%s %s   %s %s\n",
		simLabelStyle.Render("Mismatch:"), errStyle.Render(fmt.Sprintf("%d", st.Mismatches)),
		simLabelStyle.Render("Decode:"), errStyle.Render(fmt.Sprintf("%d", st.DecodeErrors)),
	))
	b.WriteString(fmt.Sprintf("%s %s   %s %s\n",
		simLabelStyle.Render("Sent:"), simValueStyle.Render(fmt.Sprintf("%d", st.Transmissions)),
		simLabelStyle.Render("Contacts:"), simValueStyle.Render(fmt.Sprintf("%d", st.Contacts)),
	))
	b.WriteString(fmt.Sprintf("%s %s",
		simLabelStyle.Render("Rate:"), simValueStyle.Render(fmt.Sprintf("%.1f frames/min", st.FrameRate)),
	))
	return b.String()
}

func runSim(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	level, err := log.ParseLevel(logLevel)
	if err != nil {
		return fmt.Errorf("invalid --log-level %q: %w", logLevel, err)
	}
	events := &eventLog{maxEntries: 200}
	logger := log.NewWithOptions(events, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05.000",
		Level:           level,
	})

	var r radio.Radio
	connInfo := "Radio: local stub"
	if wsURL == "" && portName == "" {
		r = radio.NewStub()
		logger.Warn("no --port or --url, transmissions go nowhere")
	} else {
		r, connInfo, err = OpenRadio(cfg)
		if err != nil {
			return err
		}
	}
	defer r.Close()

	if err := tuneRadio(r, cfg); err != nil {
		return err
	}

	screen, err := display.NewScreen(cfg.ClockFormat)
	if err != nil {
		return err
	}

	c := fsm.NewContext(cfg, r, screen, logger)
	c.ReceiveTimeout = simReceiveTimeout
	machine := fsm.NewMachine(c)
	keys := &buttons.Keys{}

	m := simModel{
		driver:   &fsm.Driver{Machine: machine, Buttons: keys},
		machine:  machine,
		screen:   screen,
		keys:     keys,
		events:   events,
		stats:    c.Stats,
		connInfo: connInfo,
		callsign: cfg.Callsign,
		interval: time.Duration(simTickInterval) * time.Millisecond,
		keyMap:   newSimKeyMap(),
		help:     help.New(),
		viewport: viewport.New(74, 5),
		width:    80,
		height:   24,
	}

	final, err := tea.NewProgram(m).Run()
	if err != nil {
		return err
	}

	out := stderrLogger()
	c.Stats.CalculateRates()
	out.Info("statistics\n" + c.Stats.String())

	if fm, ok := final.(simModel); ok && fm.err != nil {
		if errors.Is(fm.err, fsm.ErrInvalidTransition) {
			out.Error("state machine stopped", "state", machine.State().Name(), "err", fm.err)
		}
		fmt.Fprintln(os.Stderr, events.String())
		return fm.err
	}
	return nil
}
