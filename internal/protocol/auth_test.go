package protocol

import (
	"bytes"
	"errors"
	"testing"
)

var testSecret = []byte("N2RD-ANTENNA-KEY")

func TestComputeTagDeterministic(t *testing.T) {
	payload := []byte("AP1045\r")
	a := ComputeTag(payload, testSecret)
	b := ComputeTag(payload, testSecret)
	if a != b {
		t.Fatalf("ComputeTag not deterministic: 0x%04X vs 0x%04X", a, b)
	}
}

func TestComputeTagOrderSensitive(t *testing.T) {
	a := ComputeTag([]byte{0x01, 0x02}, testSecret)
	b := ComputeTag([]byte{0x02, 0x01}, testSecret)
	if a == b {
		t.Errorf("swapped payload bytes produced the same tag 0x%04X", a)
	}
}

func TestComputeTagSecretDependent(t *testing.T) {
	payload := []byte("AI1")
	a := ComputeTag(payload, testSecret)
	b := ComputeTag(payload, []byte("OTHER-KEY"))
	if a == b {
		t.Errorf("different secrets produced the same tag 0x%04X", a)
	}
}

func TestVerifyTagRoundTrip(t *testing.T) {
	payloads := [][]byte{
		{0x00},
		[]byte("V"),
		[]byte("AP1315;"),
		bytes.Repeat([]byte{0xA5}, MaxFrameLen-TagLen),
	}
	secrets := [][]byte{testSecret, []byte("k"), []byte("a-much-longer-shared-secret-string")}
	for _, payload := range payloads {
		for _, secret := range secrets {
			tag := ComputeTag(payload, secret)
			if !VerifyTag(payload, tag, secret) {
				t.Errorf("VerifyTag(len=%d, secret=%q) = false, want true", len(payload), secret)
			}
		}
	}
}

func TestVerifyTagRejectsBitFlips(t *testing.T) {
	payload := []byte("AP1225\r")
	tag := ComputeTag(payload, testSecret)

	for i := range payload {
		for bit := 0; bit < 8; bit++ {
			flipped := append([]byte(nil), payload...)
			flipped[i] ^= 1 << bit
			if VerifyTag(flipped, tag, testSecret) {
				t.Errorf("flip byte %d bit %d: tag still verifies", i, bit)
			}
		}
	}
	for bit := 0; bit < 16; bit++ {
		if VerifyTag(payload, tag^(1<<bit), testSecret) {
			t.Errorf("flip tag bit %d: tag still verifies", bit)
		}
	}
}

func TestAppendSplitTag(t *testing.T) {
	payload := []byte("AM1")
	frame := AppendTag(payload, testSecret)
	if len(frame) != len(payload)+TagLen {
		t.Fatalf("tagged frame length = %d, want %d", len(frame), len(payload)+TagLen)
	}

	got, err := SplitTag(frame, testSecret)
	if err != nil {
		t.Fatalf("SplitTag: %v", err)
	}
	if !bytes.Equal(got, payload) {
		t.Errorf("SplitTag payload = %q, want %q", got, payload)
	}
}

func TestSplitTagTampered(t *testing.T) {
	frame := AppendTag([]byte("V"), testSecret)
	frame[len(frame)-1] ^= 0x01

	_, err := SplitTag(frame, testSecret)
	if !errors.Is(err, ErrAuth) {
		t.Fatalf("SplitTag tampered = %v, want ErrAuth", err)
	}
}

func TestSplitTagTooShort(t *testing.T) {
	_, err := SplitTag([]byte{0x01, 0x02}, testSecret)
	if !errors.Is(err, ErrBadLength) {
		t.Fatalf("SplitTag short = %v, want ErrBadLength", err)
	}
}

func TestSplitTagWrongSecret(t *testing.T) {
	frame := AppendTag([]byte("AI1"), testSecret)
	_, err := SplitTag(frame, []byte("WRONG-KEY"))
	if !errors.Is(err, ErrAuth) {
		t.Fatalf("SplitTag wrong secret = %v, want ErrAuth", err)
	}
}
