package protocol

// Integrity tag for link frames.
//
// Every frame carries a 16-bit tag computed over the payload with the shared
// node secret. This is an anti-noise / anti-misfire check, not a security
// mechanism: it keeps a corrupted or stray frame from switching relays, and
// nothing more.

// TagLen is the size of the integrity tag appended to each frame.
const TagLen = 2

// tagSeed is the tag register start value shared by both nodes.
const tagSeed = 0xB33F

// ComputeTag returns the 16-bit integrity tag for payload under secret.
// Per payload byte: rotate the register left by 5, XOR in the next secret
// byte (cycling), then add the payload byte. Order-sensitive, deterministic,
// and deliberately cheap.
func ComputeTag(payload, secret []byte) uint16 {
	tag := uint16(tagSeed)
	for i, b := range payload {
		tag = (tag<<5 | tag>>11) ^ uint16(secret[i%len(secret)])
		tag += uint16(b)
	}
	return tag
}

// VerifyTag reports whether tag matches the recomputed tag for payload.
func VerifyTag(payload []byte, tag uint16, secret []byte) bool {
	return ComputeTag(payload, secret) == tag
}

// AppendTag returns payload with its big-endian integrity tag appended,
// ready for transport framing.
func AppendTag(payload, secret []byte) []byte {
	tag := ComputeTag(payload, secret)
	out := make([]byte, 0, len(payload)+TagLen)
	out = append(out, payload...)
	out = append(out, byte(tag>>8), byte(tag))
	return out
}

// SplitTag separates a received frame into payload and tag and verifies the
// tag. On mismatch it returns ErrAuth; the caller must drop the frame
// without replying.
func SplitTag(frame, secret []byte) ([]byte, error) {
	if len(frame) < TagLen+1 {
		return nil, errShort("tagged frame", len(frame), TagLen+1)
	}
	payload := frame[:len(frame)-TagLen]
	tag := uint16(frame[len(frame)-2])<<8 | uint16(frame[len(frame)-1])
	if !VerifyTag(payload, tag, secret) {
		return nil, ErrAuth
	}
	return payload, nil
}
