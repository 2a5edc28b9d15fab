package protocol

import (
	"bytes"
	"errors"
	"math"
	"testing"
)

func TestEncodePositionLayout(t *testing.T) {
	p := Position{Azimuth: 45, RSSIdBm: -95, BusMV: 13800, BusMA: 500, MCUMV: 4200}
	frame, err := EncodePosition(p)
	if err != nil {
		t.Fatalf("EncodePosition: %v", err)
	}
	want := []byte(";045r-095v13800i500b4200")
	if !bytes.Equal(frame, want) {
		t.Fatalf("frame = %q, want %q", frame, want)
	}
	if len(frame) != PositionReplyLen {
		t.Errorf("frame length = %d, want %d", len(frame), PositionReplyLen)
	}
}

func TestEncodePositionPositiveRSSI(t *testing.T) {
	frame, err := EncodePosition(Position{Azimuth: 0, RSSIdBm: 42})
	if err != nil {
		t.Fatalf("EncodePosition: %v", err)
	}
	if !bytes.Equal(frame[4:9], []byte("r+042")) {
		t.Errorf("rssi field = %q, want \"r+042\"", frame[4:9])
	}
}

func TestPositionRoundTrip(t *testing.T) {
	tests := []Position{
		{Azimuth: 0, RSSIdBm: 0, BusMV: 0, BusMA: 0, MCUMV: 0},
		{Azimuth: 315, RSSIdBm: -120, BusMV: 13800, BusMA: 500, MCUMV: 4200},
		{Azimuth: 90, RSSIdBm: 7, BusMV: 99999, BusMA: 999, MCUMV: 9999},
	}
	for _, want := range tests {
		frame, err := EncodePosition(want)
		if err != nil {
			t.Fatalf("EncodePosition(%+v): %v", want, err)
		}
		got, err := DecodePosition(frame, Position{})
		if err != nil {
			t.Fatalf("DecodePosition(%+v): %v", want, err)
		}
		if got != want {
			t.Errorf("round trip: got %+v, want %+v", got, want)
		}
	}
}

func TestEncodePositionClamps(t *testing.T) {
	p := Position{Azimuth: 45, RSSIdBm: -95, BusMV: 123456, BusMA: 500, MCUMV: 4200}
	frame, err := EncodePosition(p)
	if err == nil {
		t.Fatal("expected OverflowError for oversized bus_mv")
	}
	if !IsOverflow(err) {
		t.Fatalf("error = %v, want OverflowError", err)
	}
	// Frame must stay well formed with the field pinned at its extreme.
	if len(frame) != PositionReplyLen {
		t.Fatalf("clamped frame length = %d, want %d", len(frame), PositionReplyLen)
	}
	got, err := DecodePosition(frame, Position{})
	if err != nil {
		t.Fatalf("DecodePosition: %v", err)
	}
	if got.BusMV != 99999 {
		t.Errorf("bus_mv = %d, want clamp 99999", got.BusMV)
	}
	if got.BusMA != 500 || got.MCUMV != 4200 {
		t.Errorf("neighboring fields disturbed: %+v", got)
	}
}

func TestDecodePositionShortFrameKeepsPrevious(t *testing.T) {
	prev := Position{Azimuth: 180, RSSIdBm: -80, BusMV: 12000, BusMA: 450, MCUMV: 3300}

	// Azimuth only.
	got, err := DecodePosition([]byte(";045"), prev)
	if err != nil {
		t.Fatalf("DecodePosition: %v", err)
	}
	want := prev
	want.Azimuth = 45
	if got != want {
		t.Errorf("azimuth-only: got %+v, want %+v", got, want)
	}

	// Azimuth and RSSI, voltage group truncated mid-field.
	got, err = DecodePosition([]byte(";090r-101v138"), prev)
	if err != nil {
		t.Fatalf("DecodePosition: %v", err)
	}
	want = prev
	want.Azimuth = 90
	want.RSSIdBm = -101
	if got != want {
		t.Errorf("truncated voltage: got %+v, want %+v", got, want)
	}
}

func TestDecodePositionErrors(t *testing.T) {
	if _, err := DecodePosition([]byte(";04"), Position{}); !errors.Is(err, ErrBadLength) {
		t.Errorf("short frame: err = %v, want ErrBadLength", err)
	}
	if _, err := DecodePosition([]byte(";x45r-095"), Position{}); !errors.Is(err, ErrBadDigits) {
		t.Errorf("bad azimuth: err = %v, want ErrBadDigits", err)
	}
}

func TestEncodePowerExact(t *testing.T) {
	frame, err := EncodePower(1500.6)
	if err != nil {
		t.Fatalf("EncodePower: %v", err)
	}
	if !bytes.Equal(frame, []byte("V1500.6")) {
		t.Fatalf("frame = %q, want \"V1500.6\"", frame)
	}

	w, err := DecodePower(frame)
	if err != nil {
		t.Fatalf("DecodePower: %v", err)
	}
	if math.Abs(w-1500.6) > 0.05 {
		t.Errorf("watts = %g, want 1500.6", w)
	}
}

func TestEncodePowerPadding(t *testing.T) {
	frame, err := EncodePower(5.0)
	if err != nil {
		t.Fatalf("EncodePower: %v", err)
	}
	if len(frame) != PowerReplyLen {
		t.Fatalf("frame length = %d, want %d", len(frame), PowerReplyLen)
	}
	w, err := DecodePower(frame)
	if err != nil {
		t.Fatalf("DecodePower(%q): %v", frame, err)
	}
	if math.Abs(w-5.0) > 0.05 {
		t.Errorf("watts = %g, want 5.0", w)
	}
}

func TestEncodePowerClamps(t *testing.T) {
	frame, err := EncodePower(123456.7)
	if !IsOverflow(err) {
		t.Fatalf("error = %v, want OverflowError", err)
	}
	w, derr := DecodePower(frame)
	if derr != nil {
		t.Fatalf("DecodePower: %v", derr)
	}
	if w != 9999.9 {
		t.Errorf("watts = %g, want clamp 9999.9", w)
	}

	frame, err = EncodePower(-3.0)
	if !IsOverflow(err) {
		t.Fatalf("error = %v, want OverflowError for negative watts", err)
	}
	if w, _ := DecodePower(frame); w != 0 {
		t.Errorf("watts = %g, want clamp 0", w)
	}
}

func TestPowerRoundTripWithinTenth(t *testing.T) {
	for _, want := range []float64{0, 0.1, 12.5, 999.9, 1500.6, 9999.9} {
		frame, err := EncodePower(want)
		if err != nil {
			t.Fatalf("EncodePower(%g): %v", want, err)
		}
		got, err := DecodePower(frame)
		if err != nil {
			t.Fatalf("DecodePower(%q): %v", frame, err)
		}
		if math.Abs(got-want) > 0.1 {
			t.Errorf("round trip %g: got %g", want, got)
		}
	}
}

func TestDecodeReplyDispatch(t *testing.T) {
	pos, _ := EncodePosition(Position{Azimuth: 135, RSSIdBm: -90, BusMV: 13500, BusMA: 480, MCUMV: 4100})
	r, err := DecodeReply(pos, Position{})
	if err != nil {
		t.Fatalf("DecodeReply position: %v", err)
	}
	if r.Kind != ReplyPosition || r.Position.Azimuth != 135 {
		t.Errorf("position reply: %+v", r)
	}

	pw, _ := EncodePower(42.5)
	r, err = DecodeReply(pw, Position{})
	if err != nil {
		t.Fatalf("DecodeReply power: %v", err)
	}
	if r.Kind != ReplyPower || math.Abs(r.Watts-42.5) > 0.05 {
		t.Errorf("power reply: %+v", r)
	}

	if _, err := DecodeReply([]byte("X123"), Position{}); !errors.Is(err, ErrUnknownFrame) {
		t.Errorf("unknown prefix: err = %v, want ErrUnknownFrame", err)
	}
	if _, err := DecodeReply(nil, Position{}); !errors.Is(err, ErrBadLength) {
		t.Errorf("empty reply: err = %v, want ErrBadLength", err)
	}
	if _, err := DecodeReply([]byte("V12.3"), Position{}); !errors.Is(err, ErrBadLength) {
		t.Errorf("short power: err = %v, want ErrBadLength", err)
	}
}
