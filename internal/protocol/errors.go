package protocol

import (
	"errors"
	"fmt"
)

// Decode failure categories. Callers that need to branch on the cause use
// errors.Is against these sentinels; the wrapped message carries the detail.
var (
	// ErrBadLength reports a frame whose length matches no known command or
	// reply shape.
	ErrBadLength = errors.New("bad frame length")

	// ErrUnknownFrame reports a frame of a valid length whose prefix or
	// sentinel byte matches no known frame type.
	ErrUnknownFrame = errors.New("unknown frame")

	// ErrBadDigits reports a set-direction frame whose azimuth field holds
	// non-digit bytes.
	ErrBadDigits = errors.New("bad azimuth digits")

	// ErrAuth reports an integrity tag mismatch. The receiving node must
	// drop the frame without replying.
	ErrAuth = errors.New("authentication tag mismatch")
)

func errShort(what string, got, need int) error {
	return fmt.Errorf("%w: %s is %d bytes (need %d)", ErrBadLength, what, got, need)
}

// OverflowError reports that a reply field value did not fit its fixed-width
// slot and was clamped to the field extreme. The encoded frame is still valid
// and safe to transmit; the error exists so the caller can log the clamp.
type OverflowError struct {
	Field string
	Value float64
	Limit float64
}

func (e *OverflowError) Error() string {
	return fmt.Sprintf("field %s: value %g clamped to %g", e.Field, e.Value, e.Limit)
}

// IsOverflow reports whether err is (or wraps) an OverflowError.
func IsOverflow(err error) bool {
	var oe *OverflowError
	return errors.As(err, &oe)
}
