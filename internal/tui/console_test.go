package tui

import (
	"context"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/n2rd/phaselink/internal/antenna"
	"github.com/n2rd/phaselink/internal/controller"
	"github.com/n2rd/phaselink/internal/logging"
	"github.com/n2rd/phaselink/internal/protocol"
	"github.com/n2rd/phaselink/internal/transport"
)

var testSecret = []byte("N2RD-ANTENNA-KEY")

// loopTransport answers every command with a fixed tagged position reply.
type loopTransport struct {
	position protocol.Position
}

func (t *loopTransport) SendAndWait(_ context.Context, _ []byte) ([]byte, error) {
	frame, err := protocol.EncodePosition(t.position)
	if err != nil {
		return nil, err
	}
	return protocol.AppendTag(frame, testSecret), nil
}

func newTestModel(t *testing.T) *Model {
	t.Helper()
	log, err := logging.NewLogger(logging.LogLevelSilent, "")
	if err != nil {
		t.Fatalf("NewLogger: %v", err)
	}
	tr := &loopTransport{position: protocol.Position{Azimuth: 45, RSSIdBm: -95, BusMV: 13800, BusMA: 500, MCUMV: 4200}}
	session := controller.NewSession(tr, antenna.Full, testSecret, log)
	return NewModel(session)
}

func key(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestNewModel(t *testing.T) {
	m := newTestModel(t)
	if m == nil {
		t.Fatal("NewModel returned nil")
	}
	if m.profile.NumDirections() != 8 {
		t.Errorf("profile directions = %d, want 8", m.profile.NumDirections())
	}
	if m.busy {
		t.Error("model should not start busy")
	}
}

func TestStageModeToggle(t *testing.T) {
	m := newTestModel(t)

	m.Update(key("s"))
	if !m.stageMode {
		t.Error("'s' should enable stage mode")
	}
	m.Update(key("s"))
	if m.stageMode {
		t.Error("'s' should toggle stage mode off")
	}
}

func TestDirectionKeyStartsRoundTrip(t *testing.T) {
	m := newTestModel(t)

	_, cmd := m.Update(key("2")) // NE on the full profile
	if cmd == nil {
		t.Fatal("direction key produced no command")
	}
	if !m.busy {
		t.Error("model should be busy while the round trip runs")
	}

	msg := cmd()
	rt, ok := msg.(roundTripMsg)
	if !ok {
		t.Fatalf("msg = %T, want roundTripMsg", msg)
	}
	if rt.err != nil {
		t.Fatalf("round trip error: %v", rt.err)
	}
	if rt.reply.Position.Azimuth != 45 {
		t.Errorf("reply azimuth = %d, want 45", rt.reply.Position.Azimuth)
	}

	m.Update(rt)
	if m.busy {
		t.Error("model still busy after the round trip finished")
	}
	if m.statusErr {
		t.Errorf("status marked as error: %s", m.status)
	}
}

func TestKeysIgnoredWhileBusy(t *testing.T) {
	m := newTestModel(t)
	m.busy = true

	if _, cmd := m.Update(key("1")); cmd != nil {
		t.Error("direction key accepted while busy")
	}
	if _, cmd := m.Update(key("p")); cmd != nil {
		t.Error("power key accepted while busy")
	}
}

func TestQuitAlwaysWorks(t *testing.T) {
	m := newTestModel(t)
	m.busy = true

	_, cmd := m.Update(key("q"))
	if cmd == nil {
		t.Fatal("'q' produced no command")
	}
}

func TestInvalidDirectionKey(t *testing.T) {
	m := newTestModel(t)
	if _, cmd := m.Update(key("9")); cmd != nil {
		t.Error("'9' is out of range for the full profile but produced a command")
	}
}

func TestRoundTripErrorShowsTimeout(t *testing.T) {
	m := newTestModel(t)
	m.busy = true

	m.Update(roundTripMsg{label: "position", err: transport.ErrNoAck, rtt: 3 * time.Second})
	if !m.statusErr {
		t.Error("error round trip did not mark status")
	}
	if !strings.Contains(m.status, "no answer") {
		t.Errorf("status = %q, want timeout wording", m.status)
	}
}

func TestViewShowsCompassAndTelemetry(t *testing.T) {
	m := newTestModel(t)

	// Complete one round trip so the session retains a fix.
	_, cmd := m.Update(key("r"))
	m.Update(cmd())

	view := m.View()
	for _, want := range []string{"PHASELINK - FULL ARRAY", "NE", "SW", "45 deg", "-95 dBm", "13.80 V"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q", want)
		}
	}
}

func TestTelemetryText(t *testing.T) {
	m := newTestModel(t)
	if got := m.telemetryText(); !strings.Contains(got, "no telemetry") {
		t.Errorf("empty-session text = %q", got)
	}

	_, cmd := m.Update(key("r"))
	m.Update(cmd())
	got := m.telemetryText()
	for _, want := range []string{"NE", "az=45", "rssi=-95dBm", "bus=13.80V"} {
		if !strings.Contains(got, want) {
			t.Errorf("telemetry text missing %q: %s", want, got)
		}
	}
}
