package protocol

// Controller-to-phaser command frames (DCU-1 derived).
//
// SetDirection:  'A' 'P' '1' d2 d1 d0 T   (7 bytes, T selects execute/stage)
// QueryPosition: 'A' 'I' '1' or 'A' 'M' '1' (3 bytes, second byte selects mode)
// QueryPower:    'V'                      (1 byte)
// Stop:          ';'                      (1 byte)

import "fmt"

// MaxFrameLen bounds any frame on the link, tag included. The radio MTU is
// well above this; the bound exists so receive buffers stay fixed.
const MaxFrameLen = 64

// Command frame byte values.
const (
	cmdPrefixA = 'A'
	cmdPrefixP = 'P'
	cmdPrefix1 = '1'

	cmdModeReport = 'I' // query position, report only
	cmdModeApply  = 'M' // query position, apply staged target first

	cmdPowerSentinel = 'V'
	cmdStopSentinel  = ';'

	// Set-direction terminators. CR executes the move immediately; the
	// semicolon stages the azimuth as a target for a later apply.
	termExecute = '\r'
	termStage   = ';'
)

// Command frame lengths.
const (
	setDirectionLen  = 7
	queryPositionLen = 3
	sentinelLen      = 1
)

// CommandKind discriminates the Command variants.
type CommandKind int

const (
	CmdSetDirection CommandKind = iota
	CmdQueryPosition
	CmdQueryPower
	CmdStop
)

func (k CommandKind) String() string {
	switch k {
	case CmdSetDirection:
		return "SET_DIRECTION"
	case CmdQueryPosition:
		return "QUERY_POSITION"
	case CmdQueryPower:
		return "QUERY_POWER"
	case CmdStop:
		return "STOP"
	}
	return fmt.Sprintf("COMMAND(%d)", int(k))
}

// Command is a decoded controller command.
type Command struct {
	Kind CommandKind

	// Azimuth is the requested pointing angle in degrees, 0-359.
	// Meaningful only for CmdSetDirection.
	Azimuth int

	// ExecuteNow selects immediate relay switching (true) versus staging
	// the azimuth as a target. Meaningful only for CmdSetDirection.
	ExecuteNow bool

	// ApplyTarget requests that the staged target be applied before the
	// position report. Meaningful only for CmdQueryPosition.
	ApplyTarget bool
}

// EncodeSetDirection builds a set-direction frame for the given azimuth.
// Angles outside 0-359 are reduced modulo 360 (the three-digit field cannot
// carry 360, and 360 means north anyway).
func EncodeSetDirection(azimuth int, executeNow bool) []byte {
	a := ((azimuth % 360) + 360) % 360
	term := byte(termStage)
	if executeNow {
		term = termExecute
	}
	frame := make([]byte, 0, setDirectionLen)
	frame = append(frame, cmdPrefixA, cmdPrefixP, cmdPrefix1)
	frame = fmt.Appendf(frame, "%03d", a)
	return append(frame, term)
}

// EncodeQueryPosition builds a position query. With applyTarget the phaser
// moves to its staged target before reporting.
func EncodeQueryPosition(applyTarget bool) []byte {
	mode := byte(cmdModeReport)
	if applyTarget {
		mode = cmdModeApply
	}
	return []byte{cmdPrefixA, mode, cmdPrefix1}
}

// EncodeQueryPower builds a power/telemetry request frame.
func EncodeQueryPower() []byte {
	return []byte{cmdPowerSentinel}
}

// EncodeStop builds a stop frame.
func EncodeStop() []byte {
	return []byte{cmdStopSentinel}
}

// EncodeCommand serializes any Command value.
func EncodeCommand(cmd Command) []byte {
	switch cmd.Kind {
	case CmdSetDirection:
		return EncodeSetDirection(cmd.Azimuth, cmd.ExecuteNow)
	case CmdQueryPosition:
		return EncodeQueryPosition(cmd.ApplyTarget)
	case CmdQueryPower:
		return EncodeQueryPower()
	default:
		return EncodeStop()
	}
}

// DecodeCommand parses a command frame (tag already stripped). Dispatch is
// by length first, then by sentinel or prefix bytes.
func DecodeCommand(frame []byte) (Command, error) {
	switch len(frame) {
	case sentinelLen:
		switch frame[0] {
		case cmdPowerSentinel:
			return Command{Kind: CmdQueryPower}, nil
		case cmdStopSentinel:
			return Command{Kind: CmdStop}, nil
		}
		return Command{}, fmt.Errorf("%w: sentinel 0x%02X", ErrUnknownFrame, frame[0])

	case queryPositionLen:
		if frame[0] != cmdPrefixA || frame[2] != cmdPrefix1 {
			return Command{}, fmt.Errorf("%w: query prefix %q", ErrUnknownFrame, frame)
		}
		switch frame[1] {
		case cmdModeReport:
			return Command{Kind: CmdQueryPosition, ApplyTarget: false}, nil
		case cmdModeApply:
			return Command{Kind: CmdQueryPosition, ApplyTarget: true}, nil
		}
		return Command{}, fmt.Errorf("%w: query mode 0x%02X", ErrUnknownFrame, frame[1])

	case setDirectionLen:
		if frame[0] != cmdPrefixA || frame[1] != cmdPrefixP || frame[2] != cmdPrefix1 {
			return Command{}, fmt.Errorf("%w: set-direction prefix %q", ErrUnknownFrame, frame[:3])
		}
		azimuth := 0
		for _, d := range frame[3:6] {
			if d < '0' || d > '9' {
				return Command{}, fmt.Errorf("%w: %q", ErrBadDigits, frame[3:6])
			}
			azimuth = azimuth*10 + int(d-'0')
		}
		switch frame[6] {
		case termExecute:
			return Command{Kind: CmdSetDirection, Azimuth: azimuth % 360, ExecuteNow: true}, nil
		case termStage:
			return Command{Kind: CmdSetDirection, Azimuth: azimuth % 360, ExecuteNow: false}, nil
		}
		return Command{}, fmt.Errorf("%w: terminator 0x%02X", ErrUnknownFrame, frame[6])
	}
	return Command{}, fmt.Errorf("%w: command frame is %d bytes", ErrBadLength, len(frame))
}
