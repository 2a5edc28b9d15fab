package controller

import (
	"context"
	"errors"
	"testing"

	"github.com/n2rd/phaselink/internal/antenna"
	"github.com/n2rd/phaselink/internal/logging"
	"github.com/n2rd/phaselink/internal/metrics"
	"github.com/n2rd/phaselink/internal/protocol"
	"github.com/n2rd/phaselink/internal/transport"
)

var testSecret = []byte("N2RD-ANTENNA-KEY")

// scriptedTransport returns canned responses in order. A nil frame entry
// means that round trip fails with the scripted error.
type scriptedTransport struct {
	frames [][]byte
	errs   []error
	sent   [][]byte
}

func (t *scriptedTransport) SendAndWait(_ context.Context, frame []byte) ([]byte, error) {
	t.sent = append(t.sent, append([]byte(nil), frame...))
	i := len(t.sent) - 1
	if i < len(t.errs) && t.errs[i] != nil {
		return nil, t.errs[i]
	}
	return t.frames[i], nil
}

func taggedPosition(t *testing.T, p protocol.Position) []byte {
	t.Helper()
	frame, err := protocol.EncodePosition(p)
	if err != nil {
		t.Fatalf("EncodePosition: %v", err)
	}
	return protocol.AppendTag(frame, testSecret)
}

func newTestSession(t *testing.T, tr transport.Transport) *Session {
	t.Helper()
	log, err := logging.NewLogger(logging.LogLevelSilent, "")
	if err != nil {
		t.Fatalf("NewLogger: %v", err)
	}
	return NewSession(tr, antenna.Full, testSecret, log)
}

func TestSubmitUpdatesRetainedState(t *testing.T) {
	tr := &scriptedTransport{frames: [][]byte{
		taggedPosition(t, protocol.Position{Azimuth: 45, RSSIdBm: -95, BusMV: 13800, BusMA: 500, MCUMV: 4200}),
	}}
	s := newTestSession(t, tr)

	reply, err := s.SetDirection(context.Background(), 45, true)
	if err != nil {
		t.Fatalf("SetDirection: %v", err)
	}
	if reply.Position.Azimuth != 45 {
		t.Errorf("reply azimuth = %d, want 45", reply.Position.Azimuth)
	}
	if got := s.DirectionName(); got != "NE" {
		t.Errorf("DirectionName = %q, want NE", got)
	}
	pos, ok := s.LastPosition()
	if !ok || pos.BusMV != 13800 {
		t.Errorf("LastPosition = %+v ok=%v, want bus_mv 13800", pos, ok)
	}

	// The command on the wire carries the tag.
	want := protocol.AppendTag(protocol.EncodeSetDirection(45, true), testSecret)
	if string(tr.sent[0]) != string(want) {
		t.Errorf("sent %x, want %x", tr.sent[0], want)
	}
}

func TestSubmitNoAckLeavesStateUntouched(t *testing.T) {
	tr := &scriptedTransport{
		frames: [][]byte{
			taggedPosition(t, protocol.Position{Azimuth: 90, BusMV: 13800}),
			nil,
		},
		errs: []error{nil, transport.ErrNoAck},
	}
	s := newTestSession(t, tr)

	if _, err := s.QueryPosition(context.Background(), false); err != nil {
		t.Fatalf("QueryPosition: %v", err)
	}
	if _, err := s.SetDirection(context.Background(), 180, true); !errors.Is(err, transport.ErrNoAck) {
		t.Fatalf("err = %v, want ErrNoAck", err)
	}

	// Still pointing at the last confirmed direction.
	if got := s.DirectionName(); got != "E" {
		t.Errorf("DirectionName = %q, want E", got)
	}
}

func TestSubmitTamperedReplyIsNoAck(t *testing.T) {
	frame := taggedPosition(t, protocol.Position{Azimuth: 45})
	frame[len(frame)-1] ^= 0x40
	tr := &scriptedTransport{frames: [][]byte{frame}}
	s := newTestSession(t, tr)

	_, err := s.QueryPosition(context.Background(), false)
	if !errors.Is(err, transport.ErrNoAck) {
		t.Fatalf("err = %v, want ErrNoAck", err)
	}
	if _, ok := s.LastPosition(); ok {
		t.Error("tampered reply was retained")
	}
}

func TestShortReplyKeepsPreviousFields(t *testing.T) {
	tr := &scriptedTransport{frames: [][]byte{
		taggedPosition(t, protocol.Position{Azimuth: 45, RSSIdBm: -95, BusMV: 13800, BusMA: 500, MCUMV: 4200}),
		protocol.AppendTag([]byte(";090r-101"), testSecret),
	}}
	s := newTestSession(t, tr)

	if _, err := s.QueryPosition(context.Background(), false); err != nil {
		t.Fatalf("first query: %v", err)
	}
	reply, err := s.QueryPosition(context.Background(), false)
	if err != nil {
		t.Fatalf("second query: %v", err)
	}
	if reply.Position.Azimuth != 90 || reply.Position.RSSIdBm != -101 {
		t.Errorf("updated fields = %d/%d, want 90/-101", reply.Position.Azimuth, reply.Position.RSSIdBm)
	}
	if reply.Position.BusMV != 13800 || reply.Position.MCUMV != 4200 {
		t.Errorf("short reply lost retained fields: %+v", reply.Position)
	}
}

func TestQueryPowerRetainsWatts(t *testing.T) {
	power, err := protocol.EncodePower(1500.6)
	if err != nil {
		t.Fatalf("EncodePower: %v", err)
	}
	tr := &scriptedTransport{frames: [][]byte{protocol.AppendTag(power, testSecret)}}
	s := newTestSession(t, tr)

	reply, err := s.QueryPower(context.Background())
	if err != nil {
		t.Fatalf("QueryPower: %v", err)
	}
	if reply.Watts < 1500.5 || reply.Watts > 1500.7 {
		t.Errorf("watts = %v, want 1500.6", reply.Watts)
	}
	if w, ok := s.LastPower(); !ok || w != reply.Watts {
		t.Errorf("LastPower = %v ok=%v", w, ok)
	}
}

func TestSetDirectionByName(t *testing.T) {
	tr := &scriptedTransport{frames: [][]byte{
		taggedPosition(t, protocol.Position{Azimuth: 225}),
	}}
	s := newTestSession(t, tr)

	if _, err := s.SetDirectionByName(context.Background(), "sw", true); err != nil {
		t.Fatalf("SetDirectionByName: %v", err)
	}
	want := protocol.AppendTag(protocol.EncodeSetDirection(225, true), testSecret)
	if string(tr.sent[0]) != string(want) {
		t.Errorf("sent %x, want %x", tr.sent[0], want)
	}

	if _, err := s.SetDirectionByName(context.Background(), "NNW", true); err == nil {
		t.Error("unknown name accepted")
	}
}

func TestMetricsRecorded(t *testing.T) {
	tr := &scriptedTransport{
		frames: [][]byte{taggedPosition(t, protocol.Position{Azimuth: 0}), nil},
		errs:   []error{nil, transport.ErrNoAck},
	}
	s := newTestSession(t, tr)
	s.Sink = metrics.NewSink()
	s.RSSI = func() (int, bool) { return -99, true }

	_, _ = s.QueryPosition(context.Background(), false)
	_, _ = s.QueryPower(context.Background())

	sum := s.Sink.GetSummary()
	if sum.TotalRoundTrips != 2 || sum.SuccessfulOps != 1 || sum.FailedOps != 1 {
		t.Errorf("summary = %+v, want 2 trips, 1 success", sum)
	}
	recorded := s.Sink.GetMetrics()
	if recorded[0].RSSIdBm != -99 {
		t.Errorf("RSSIdBm = %d, want -99", recorded[0].RSSIdBm)
	}
}
