// Package tui is the interactive controller console: a compass of the
// profile's directions, the retained telemetry, and single-key steering.
package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/n2rd/phaselink/internal/antenna"
	"github.com/n2rd/phaselink/internal/controller"
	"github.com/n2rd/phaselink/internal/protocol"
)

// pollInterval is how often the console refreshes the position on its own.
const pollInterval = 30 * time.Second

// roundTripTimeout bounds one command from the console. Generous: a LoRa
// round trip with retries can take several seconds.
const roundTripTimeout = 30 * time.Second

// Model is the console's bubbletea model.
type Model struct {
	session *controller.Session
	profile *antenna.Profile
	styles  Styles

	busy      bool
	stageMode bool
	status    string
	statusErr bool
	lastRTT   time.Duration
	quitting  bool
}

// NewModel creates a console model over an established session.
func NewModel(session *controller.Session) *Model {
	return &Model{
		session: session,
		profile: session.Profile(),
		styles:  DefaultStyles,
		status:  "querying phaser...",
	}
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(
		m.roundTrip("position", func(ctx context.Context) (protocol.Reply, error) {
			return m.session.QueryPosition(ctx, false)
		}),
		tickCmd(),
	)
}

// tickMsg drives the periodic position poll.
type tickMsg time.Time

func tickCmd() tea.Cmd {
	return tea.Tick(pollInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// roundTripMsg is sent when a command's round trip completes.
type roundTripMsg struct {
	label string
	reply protocol.Reply
	err   error
	rtt   time.Duration
}

// clipboardMsg is sent after a clipboard copy operation.
type clipboardMsg struct {
	err error
}

// roundTrip runs one blocking command off the UI goroutine.
func (m *Model) roundTrip(label string, fn func(ctx context.Context) (protocol.Reply, error)) tea.Cmd {
	m.busy = true
	m.status = label + "..."
	m.statusErr = false
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), roundTripTimeout)
		defer cancel()
		start := time.Now()
		reply, err := fn(ctx)
		return roundTripMsg{label: label, reply: reply, err: err, rtt: time.Since(start)}
	}
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tickMsg:
		if m.busy {
			return m, tickCmd()
		}
		return m, tea.Batch(
			m.roundTrip("position", func(ctx context.Context) (protocol.Reply, error) {
				return m.session.QueryPosition(ctx, false)
			}),
			tickCmd(),
		)

	case roundTripMsg:
		m.busy = false
		m.lastRTT = msg.rtt
		if msg.err != nil {
			m.statusErr = true
			if controller.IsTimeout(msg.err) {
				m.status = fmt.Sprintf("%s: no answer from phaser", msg.label)
			} else {
				m.status = fmt.Sprintf("%s: %v", msg.label, msg.err)
			}
			return m, nil
		}
		m.statusErr = false
		m.status = fmt.Sprintf("%s ok (%.0f ms)", msg.label, float64(msg.rtt.Milliseconds()))
		return m, nil

	case clipboardMsg:
		if msg.err != nil {
			m.statusErr = true
			m.status = fmt.Sprintf("clipboard: %v", msg.err)
		} else {
			m.statusErr = false
			m.status = "telemetry copied to clipboard"
		}
		return m, nil
	}
	return m, nil
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		m.quitting = true
		return m, tea.Quit
	}
	if m.busy {
		return m, nil
	}

	switch key := msg.String(); key {
	case "s":
		m.stageMode = !m.stageMode
		if m.stageMode {
			m.status = "staging: direction keys set the target, 'a' applies it"
		} else {
			m.status = "direct: direction keys move immediately"
		}
		m.statusErr = false
		return m, nil

	case "a":
		return m, m.roundTrip("apply target", func(ctx context.Context) (protocol.Reply, error) {
			return m.session.QueryPosition(ctx, true)
		})

	case "r":
		return m, m.roundTrip("position", func(ctx context.Context) (protocol.Reply, error) {
			return m.session.QueryPosition(ctx, false)
		})

	case "p":
		return m, m.roundTrip("power", func(ctx context.Context) (protocol.Reply, error) {
			return m.session.QueryPower(ctx)
		})

	case "x":
		return m, m.roundTrip("stop", func(ctx context.Context) (protocol.Reply, error) {
			return m.session.Stop(ctx)
		})

	case "c":
		text := m.telemetryText()
		return m, func() tea.Msg {
			return clipboardMsg{err: clipboard.WriteAll(text)}
		}

	default:
		if d, ok := m.directionForKey(key); ok {
			name := m.profile.DirectionName(d)
			azimuth := m.profile.Azimuth(d)
			executeNow := !m.stageMode
			label := "steer " + name
			if !executeNow {
				label = "stage " + name
			}
			return m, m.roundTrip(label, func(ctx context.Context) (protocol.Reply, error) {
				return m.session.SetDirection(ctx, azimuth, executeNow)
			})
		}
	}
	return m, nil
}

// directionForKey maps "1".."9" to the profile's direction indices.
func (m *Model) directionForKey(key string) (antenna.Direction, bool) {
	if len(key) != 1 || key[0] < '1' || key[0] > '9' {
		return 0, false
	}
	d := antenna.Direction(key[0] - '1')
	if !m.profile.Valid(d) {
		return 0, false
	}
	return d, true
}

// View implements tea.Model.
func (m *Model) View() string {
	if m.quitting {
		return ""
	}

	title := m.styles.Title.Render("PHASELINK - " + strings.ToUpper(m.profile.Name()) + " ARRAY")

	body := lipgloss.JoinHorizontal(lipgloss.Top,
		m.styles.Panel.Render(m.compassView()),
		" ",
		m.styles.Panel.Render(m.telemetryView()),
	)

	status := m.styles.StatusOK.Render(m.status)
	if m.statusErr {
		status = m.styles.StatusErr.Render(m.status)
	}

	help := m.styles.Help.Render(m.helpView())

	return strings.Join([]string{title, body, status, help}, "\n") + "\n"
}

// compassView renders the direction grid with the current direction
// highlighted and the staged target marked.
func (m *Model) compassView() string {
	current, haveFix := m.session.Direction()

	cell := func(name string) string {
		d, err := m.profile.ByName(name)
		if err != nil {
			return "    "
		}
		label := fmt.Sprintf("%d:%-2s", int(d)+1, name)
		if haveFix && d == current {
			return m.styles.Current.Render(label)
		}
		return m.styles.Inactive.Render(label)
	}

	rows := []string{
		cell("NW") + " " + cell("N") + " " + cell("NE"),
		cell("W") + "      " + cell("E"),
		cell("SW") + " " + cell("S") + " " + cell("SE"),
	}
	return strings.Join(rows, "\n")
}

func (m *Model) telemetryView() string {
	pos, haveFix := m.session.LastPosition()
	watts, havePower := m.session.LastPower()

	l := m.styles.Label.Render
	v := m.styles.Value.Render

	lines := []string{
		l("Direction ") + v(m.session.DirectionName()),
	}
	if haveFix {
		lines = append(lines,
			l("Azimuth   ")+v(fmt.Sprintf("%d deg", pos.Azimuth)),
			l("RSSI      ")+v(fmt.Sprintf("%d dBm", pos.RSSIdBm)),
			l("Bus       ")+v(fmt.Sprintf("%.2f V  %d mA", float64(pos.BusMV)/1000, pos.BusMA)),
			l("MCU       ")+v(fmt.Sprintf("%.2f V", float64(pos.MCUMV)/1000)),
		)
	} else {
		lines = append(lines, l("no telemetry yet"))
	}
	if havePower {
		lines = append(lines, l("Rev power ")+v(fmt.Sprintf("%.1f W", watts)))
	}
	if m.stageMode {
		lines = append(lines, m.styles.Staged.Render("STAGING"))
	}
	return strings.Join(lines, "\n")
}

func (m *Model) helpView() string {
	keys := fmt.Sprintf("1-%d steer", m.profile.NumDirections())
	return keys + " · s stage mode · a apply · r refresh · p power · x stop · c copy · q quit"
}

// telemetryText is the plain-text telemetry for the clipboard.
func (m *Model) telemetryText() string {
	pos, haveFix := m.session.LastPosition()
	if !haveFix {
		return "phaselink: no telemetry"
	}
	text := fmt.Sprintf("phaselink %s az=%d rssi=%ddBm bus=%.2fV %dmA mcu=%.2fV",
		m.session.DirectionName(), pos.Azimuth, pos.RSSIdBm,
		float64(pos.BusMV)/1000, pos.BusMA, float64(pos.MCUMV)/1000)
	if watts, ok := m.session.LastPower(); ok {
		text += fmt.Sprintf(" rev=%.1fW", watts)
	}
	return text
}

// Run starts the controller console.
func Run(session *controller.Session) error {
	program := tea.NewProgram(NewModel(session), tea.WithAltScreen())
	_, err := program.Run()
	return err
}
