// Package controller implements the shack-side node: one blocking
// command/reply round trip at a time over a Transport, with the last good
// telemetry retained for display.
package controller

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/n2rd/phaselink/internal/antenna"
	"github.com/n2rd/phaselink/internal/logging"
	"github.com/n2rd/phaselink/internal/metrics"
	"github.com/n2rd/phaselink/internal/protocol"
	"github.com/n2rd/phaselink/internal/transport"
)

// Session holds the controller's view of the phaser. Retained state changes
// only on a fully verified round trip; a timeout or a bad reply leaves the
// last good values in place.
type Session struct {
	tr      transport.Transport
	secret  []byte
	profile *antenna.Profile
	log     *logging.Logger

	// Sink receives one metric per round trip when set.
	Sink *metrics.Sink

	// RSSI reports link signal strength for metrics when set.
	RSSI func() (int, bool)

	mu         sync.Mutex
	lastPos    protocol.Position
	lastPowerW float64
	current    antenna.Direction
	haveFix    bool
	havePower  bool
}

// NewSession builds a session over tr for the given profile and secret.
func NewSession(tr transport.Transport, profile *antenna.Profile, secret []byte, log *logging.Logger) *Session {
	return &Session{tr: tr, secret: secret, profile: profile, log: log}
}

// Submit performs one command/reply round trip. The reply's integrity tag is
// verified before decoding; a tag or decode failure on the reply is reported
// as ErrNoAck, since a reply we cannot trust is no better than no reply.
func (s *Session) Submit(ctx context.Context, cmd protocol.Command) (protocol.Reply, error) {
	frame := protocol.AppendTag(protocol.EncodeCommand(cmd), s.secret)
	s.log.LogHex("tx", frame)

	start := time.Now()
	reply, err := s.roundTrip(ctx, frame)
	rtt := time.Since(start)

	s.record(cmd, err, rtt)
	s.log.LogRoundTrip(cmd.Kind.String(), err == nil, float64(rtt.Microseconds())/1000, err)
	if err != nil {
		return protocol.Reply{}, err
	}

	s.retain(reply)
	return reply, nil
}

func (s *Session) roundTrip(ctx context.Context, frame []byte) (protocol.Reply, error) {
	raw, err := s.tr.SendAndWait(ctx, frame)
	if err != nil {
		return protocol.Reply{}, err
	}
	s.log.LogHex("rx", raw)

	payload, err := protocol.SplitTag(raw, s.secret)
	if err != nil {
		return protocol.Reply{}, fmt.Errorf("%w: reply failed verification", transport.ErrNoAck)
	}
	reply, err := protocol.DecodeReply(payload, s.lastPosition())
	if err != nil {
		return protocol.Reply{}, fmt.Errorf("%w: reply did not decode", transport.ErrNoAck)
	}
	return reply, nil
}

// retain commits a verified reply to the session's last-known state.
func (s *Session) retain(reply protocol.Reply) {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch reply.Kind {
	case protocol.ReplyPosition:
		s.lastPos = reply.Position
		s.current = s.profile.QuantizeDegrees(reply.Position.Azimuth)
		s.haveFix = true
	case protocol.ReplyPower:
		s.lastPowerW = reply.Watts
		s.havePower = true
	}
}

func (s *Session) record(cmd protocol.Command, err error, rtt time.Duration) {
	if s.Sink == nil {
		return
	}
	m := metrics.Metric{
		Timestamp: time.Now(),
		Command:   cmd.Kind.String(),
		Success:   err == nil,
		RTTMs:     float64(rtt.Microseconds()) / 1000,
	}
	if err != nil {
		m.Error = err.Error()
		m.RTTMs = 0
	}
	if s.RSSI != nil {
		if dbm, ok := s.RSSI(); ok {
			m.RSSIdBm = dbm
		}
	}
	s.Sink.Record(m)
}

// SetDirection steers the phaser to the direction nearest azimuth. With
// executeNow false the move is only staged.
func (s *Session) SetDirection(ctx context.Context, azimuth int, executeNow bool) (protocol.Reply, error) {
	return s.Submit(ctx, protocol.Command{Kind: protocol.CmdSetDirection, Azimuth: azimuth, ExecuteNow: executeNow})
}

// SetDirectionByName resolves a compass name against the profile and steers
// to it.
func (s *Session) SetDirectionByName(ctx context.Context, name string, executeNow bool) (protocol.Reply, error) {
	d, err := s.profile.ByName(name)
	if err != nil {
		return protocol.Reply{}, err
	}
	return s.SetDirection(ctx, s.profile.Azimuth(d), executeNow)
}

// QueryPosition fetches the phaser's position and telemetry. With
// applyTarget the phaser first moves to its staged target.
func (s *Session) QueryPosition(ctx context.Context, applyTarget bool) (protocol.Reply, error) {
	return s.Submit(ctx, protocol.Command{Kind: protocol.CmdQueryPosition, ApplyTarget: applyTarget})
}

// QueryPower fetches the reverse-power reading.
func (s *Session) QueryPower(ctx context.Context) (protocol.Reply, error) {
	return s.Submit(ctx, protocol.Command{Kind: protocol.CmdQueryPower})
}

// Stop sends the safe no-op stop command.
func (s *Session) Stop(ctx context.Context) (protocol.Reply, error) {
	return s.Submit(ctx, protocol.Command{Kind: protocol.CmdStop})
}

// Profile returns the session's antenna profile.
func (s *Session) Profile() *antenna.Profile { return s.profile }

// LastPosition returns the most recent verified position reply, and whether
// one has been received.
func (s *Session) LastPosition() (protocol.Position, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastPos, s.haveFix
}

// LastPower returns the most recent verified power reading.
func (s *Session) LastPower() (float64, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastPowerW, s.havePower
}

// Direction returns the phaser's current direction as last reported.
func (s *Session) Direction() (antenna.Direction, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current, s.haveFix
}

// DirectionName returns the compass name of the last reported direction,
// or "--" before the first fix.
func (s *Session) DirectionName() string {
	d, ok := s.Direction()
	if !ok {
		return "--"
	}
	return s.profile.DirectionName(d)
}

func (s *Session) lastPosition() protocol.Position {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastPos
}

// IsTimeout reports whether err is the link-timeout family of failures, for
// display decisions.
func IsTimeout(err error) bool {
	return errors.Is(err, transport.ErrNoAck) || errors.Is(err, transport.ErrTimeout)
}
