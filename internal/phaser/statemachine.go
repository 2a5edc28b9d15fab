// Package phaser implements the field node: the request/response state
// machine that turns authenticated command frames into relay actions and
// reply frames, and the daemon loop that services a radio link.
package phaser

import (
	"github.com/n2rd/phaselink/internal/antenna"
	"github.com/n2rd/phaselink/internal/logging"
	"github.com/n2rd/phaselink/internal/protocol"
	"github.com/n2rd/phaselink/internal/sensor"
)

// StateMachine holds the phaser's direction state and processes one command
// frame at a time. It is not safe for concurrent use; the daemon loop is its
// single caller.
type StateMachine struct {
	profile *antenna.Profile
	secret  []byte
	relays  RelayDriver
	sensors sensor.Source
	log     *logging.Logger

	current antenna.Direction
	target  antenna.Direction
}

// NewStateMachine builds a state machine pointing at the profile's first
// direction with no staged target.
func NewStateMachine(profile *antenna.Profile, secret []byte, relays RelayDriver, sensors sensor.Source, log *logging.Logger) *StateMachine {
	return &StateMachine{
		profile: profile,
		secret:  secret,
		relays:  relays,
		sensors: sensors,
		log:     log,
	}
}

// Current returns the applied direction.
func (m *StateMachine) Current() antenna.Direction { return m.current }

// Target returns the staged direction.
func (m *StateMachine) Target() antenna.Direction { return m.target }

// Profile returns the active antenna profile.
func (m *StateMachine) Profile() *antenna.Profile { return m.profile }

// HandleFrame processes one received frame and returns the tagged reply to
// transmit. A frame that fails the integrity check or does not decode yields
// (nil, false) and MUST NOT be answered: a prober gets the same silence for
// a malformed frame as for a lost one.
func (m *StateMachine) HandleFrame(frame []byte) ([]byte, bool) {
	payload, err := protocol.SplitTag(frame, m.secret)
	if err != nil {
		m.log.Debug("dropping frame: %v", err)
		return nil, false
	}
	cmd, err := protocol.DecodeCommand(payload)
	if err != nil {
		m.log.Debug("dropping frame: %v", err)
		return nil, false
	}

	reply := m.apply(cmd)
	return protocol.AppendTag(reply, m.secret), true
}

// apply runs one state transition and builds the untagged reply frame.
func (m *StateMachine) apply(cmd protocol.Command) []byte {
	switch cmd.Kind {
	case protocol.CmdSetDirection:
		d := m.profile.QuantizeDegrees(cmd.Azimuth)
		if cmd.ExecuteNow {
			m.moveTo(d)
		} else {
			m.target = d
			m.log.Verbose("staged target %s", m.profile.DirectionName(d))
		}
		return m.positionReply()

	case protocol.CmdQueryPosition:
		if cmd.ApplyTarget {
			m.moveTo(m.target)
		}
		return m.positionReply()

	case protocol.CmdQueryPower:
		s := m.sample()
		frame, overflow := protocol.EncodePower(s.ReversePowerW)
		if overflow != nil {
			m.log.Verbose("power reply clamped: %v", overflow)
		}
		return frame

	default: // Stop is a safe no-op, answered with the current position.
		return m.positionReply()
	}
}

// moveTo applies a direction: relays first, then the state update, so a
// driver failure leaves current honest about what the hardware shows. The
// staged target is left alone; a direct move does not cancel it.
func (m *StateMachine) moveTo(d antenna.Direction) {
	if err := m.relays.Set(m.profile.Relays(d)); err != nil {
		m.log.Error("relay switch to %s failed: %v", m.profile.DirectionName(d), err)
		return
	}
	m.current = d
	m.log.Verbose("moved to %s (%d deg)", m.profile.DirectionName(d), m.profile.Azimuth(d))
}

func (m *StateMachine) positionReply() []byte {
	s := m.sample()
	frame, overflow := protocol.EncodePosition(protocol.Position{
		Azimuth: m.profile.Azimuth(m.current),
		RSSIdBm: s.RSSIdBm,
		BusMV:   s.BusMV,
		BusMA:   s.BusMA,
		MCUMV:   s.MCUMV,
	})
	if overflow != nil {
		m.log.Verbose("position reply clamped: %v", overflow)
	}
	return frame
}

func (m *StateMachine) sample() sensor.Sample {
	s, err := m.sensors.Sample()
	if err != nil {
		m.log.Error("telemetry sample failed: %v", err)
		return sensor.Sample{}
	}
	return s
}
