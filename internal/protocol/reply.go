package protocol

// Phaser-to-controller reply frames.
//
// Position: ';' azi(3) 'r' rssi(+/-,3) 'v' bus_mv(5) 'i' bus_ma(3) 'b' mcu_mv(4)
// Power:    'V' + 6 ASCII chars, one fixed decimal place ("1500.6")
//
// Numeric fields are fixed width, zero or sign padded. A value that does not
// fit its slot is clamped to the slot extreme and reported via OverflowError;
// frame length and neighboring fields are never disturbed.

import (
	"fmt"
	"strconv"
	"strings"
)

// Reply frame byte values and layout offsets.
const (
	replyPrefixPosition = ';'
	replyPrefixPower    = 'V'

	fieldRSSI    = 'r'
	fieldVoltage = 'v'
	fieldCurrent = 'i'
	fieldBattery = 'b'

	// PositionReplyLen is the full position reply; receivers tolerate
	// shorter frames by keeping previous field values.
	PositionReplyLen = 24

	// PowerReplyLen is the fixed power reply length.
	PowerReplyLen = 7
)

// Position field clamp limits.
const (
	maxRSSI  = 999
	minRSSI  = -999
	maxBusMV = 99999
	maxBusMA = 999
	maxMCUMV = 9999
	maxWatts = 9999.9
)

// ReplyKind discriminates the Reply variants.
type ReplyKind int

const (
	ReplyPosition ReplyKind = iota
	ReplyPower
)

// Position is the decoded position/telemetry reply. Azimuth is the canonical
// angle of the phaser's current direction.
type Position struct {
	Azimuth int
	RSSIdBm int
	BusMV   int
	BusMA   int
	MCUMV   int
}

// Reply is a decoded phaser reply.
type Reply struct {
	Kind     ReplyKind
	Position Position // valid when Kind == ReplyPosition
	Watts    float64  // valid when Kind == ReplyPower
}

func clampInt(v, lo, hi int) (int, bool) {
	if v < lo {
		return lo, true
	}
	if v > hi {
		return hi, true
	}
	return v, false
}

// EncodePosition builds a position reply frame. The frame is always valid;
// a non-nil error is an OverflowError for the first clamped field.
func EncodePosition(p Position) ([]byte, error) {
	var overflow error
	note := func(field string, value float64, limit float64) {
		if overflow == nil {
			overflow = &OverflowError{Field: field, Value: value, Limit: limit}
		}
	}

	azi, c := clampInt(p.Azimuth, 0, 359)
	if c {
		note("azimuth", float64(p.Azimuth), float64(azi))
	}
	rssi, c := clampInt(p.RSSIdBm, minRSSI, maxRSSI)
	if c {
		note("rssi", float64(p.RSSIdBm), float64(rssi))
	}
	bus, c := clampInt(p.BusMV, 0, maxBusMV)
	if c {
		note("bus_mv", float64(p.BusMV), float64(bus))
	}
	cur, c := clampInt(p.BusMA, 0, maxBusMA)
	if c {
		note("bus_ma", float64(p.BusMA), float64(cur))
	}
	mcu, c := clampInt(p.MCUMV, 0, maxMCUMV)
	if c {
		note("mcu_mv", float64(p.MCUMV), float64(mcu))
	}

	frame := make([]byte, 0, PositionReplyLen)
	frame = append(frame, replyPrefixPosition)
	frame = fmt.Appendf(frame, "%03d", azi)
	frame = append(frame, fieldRSSI)
	frame = fmt.Appendf(frame, "%+04d", rssi)
	frame = append(frame, fieldVoltage)
	frame = fmt.Appendf(frame, "%05d", bus)
	frame = append(frame, fieldCurrent)
	frame = fmt.Appendf(frame, "%03d", cur)
	frame = append(frame, fieldBattery)
	frame = fmt.Appendf(frame, "%04d", mcu)
	return frame, overflow
}

// EncodePower builds a power reply frame: 'V' plus six characters with one
// decimal place, space padded on the left like the field hardware emits.
func EncodePower(watts float64) ([]byte, error) {
	var overflow error
	w := watts
	if w < 0 {
		w = 0
		overflow = &OverflowError{Field: "watts", Value: watts, Limit: 0}
	} else if w > maxWatts {
		w = maxWatts
		overflow = &OverflowError{Field: "watts", Value: watts, Limit: maxWatts}
	}
	frame := make([]byte, 0, PowerReplyLen)
	frame = append(frame, replyPrefixPower)
	frame = fmt.Appendf(frame, "%6.1f", w)
	return frame, overflow
}

// DecodeReply parses a reply frame, dispatching on the first byte. prev
// supplies field values for position fields missing from a short frame.
func DecodeReply(frame []byte, prev Position) (Reply, error) {
	if len(frame) == 0 {
		return Reply{}, errShort("reply frame", 0, 1)
	}
	switch frame[0] {
	case replyPrefixPosition:
		p, err := DecodePosition(frame, prev)
		if err != nil {
			return Reply{}, err
		}
		return Reply{Kind: ReplyPosition, Position: p}, nil
	case replyPrefixPower:
		w, err := DecodePower(frame)
		if err != nil {
			return Reply{}, err
		}
		return Reply{Kind: ReplyPower, Watts: w}, nil
	}
	return Reply{}, fmt.Errorf("%w: reply prefix 0x%02X", ErrUnknownFrame, frame[0])
}

// DecodePosition parses a position reply. Fields whose marker and full width
// are not present keep their value from prev; the link occasionally delivers
// truncated replies and a stale voltage beats a dropped round trip.
func DecodePosition(frame []byte, prev Position) (Position, error) {
	if len(frame) < 4 || frame[0] != replyPrefixPosition {
		return Position{}, errShort("position reply", len(frame), 4)
	}
	p := prev

	v, err := parseFixedInt(frame[1:4])
	if err != nil {
		return Position{}, fmt.Errorf("%w: azimuth %q", ErrBadDigits, frame[1:4])
	}
	p.Azimuth = v

	if len(frame) >= 9 && frame[4] == fieldRSSI {
		if v, err := parseFixedInt(frame[5:9]); err == nil {
			p.RSSIdBm = v
		}
	}
	if len(frame) >= 15 && frame[9] == fieldVoltage {
		if v, err := parseFixedInt(frame[10:15]); err == nil {
			p.BusMV = v
		}
	}
	if len(frame) >= 19 && frame[15] == fieldCurrent {
		if v, err := parseFixedInt(frame[16:19]); err == nil {
			p.BusMA = v
		}
	}
	if len(frame) >= 24 && frame[19] == fieldBattery {
		if v, err := parseFixedInt(frame[20:24]); err == nil {
			p.MCUMV = v
		}
	}
	return p, nil
}

// DecodePower parses a power reply.
func DecodePower(frame []byte) (float64, error) {
	if len(frame) < PowerReplyLen {
		return 0, errShort("power reply", len(frame), PowerReplyLen)
	}
	if frame[0] != replyPrefixPower {
		return 0, fmt.Errorf("%w: power prefix 0x%02X", ErrUnknownFrame, frame[0])
	}
	s := strings.TrimSpace(string(frame[1:PowerReplyLen]))
	w, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: power value %q", ErrBadDigits, s)
	}
	return w, nil
}

func parseFixedInt(b []byte) (int, error) {
	return strconv.Atoi(string(b))
}
