package transport

// Addressed, acknowledged datagrams over an unreliable Link.
//
// Wire layout: [to(1)] [from(1)] [id(1)] [flags(1)] [payload...]
// An ACK is a headers-only datagram with the ACK flag set and the id of the
// datagram it confirms. Sending is stop-and-wait: transmit, await the ACK,
// retransmit up to the retry budget. Receivers acknowledge every data
// datagram, including retransmitted duplicates, and deliver each id once.

import (
	"context"
	"fmt"
	"sync"
	"time"
)

const (
	headerLen = 4
	flagAck   = 0x80
)

// Broadcast is the address every node receives.
const Broadcast = 0xFF

type header struct {
	to    byte
	from  byte
	id    byte
	flags byte
}

func (h header) ack() bool { return h.flags&flagAck != 0 }

func splitHeader(raw []byte) (header, []byte, bool) {
	if len(raw) < headerLen {
		return header{}, nil, false
	}
	return header{to: raw[0], from: raw[1], id: raw[2], flags: raw[3]}, raw[headerLen:], true
}

type pendingDatagram struct {
	from    byte
	payload []byte
}

// Endpoint is one node's addressed view of a Link.
type Endpoint struct {
	link    Link
	addr    byte
	timeout time.Duration // per-transmission ack wait
	retries int           // transmissions per SendToWait

	mu      sync.Mutex
	txID    byte
	lastID  map[byte]byte // last delivered id per source
	seen    map[byte]bool
	pending []pendingDatagram // data that arrived while waiting for an ack
}

// NewEndpoint wraps link with addressing and acknowledgment. timeout is the
// ack wait per transmission; retries is the total number of transmissions
// attempted before giving up.
func NewEndpoint(link Link, addr byte, timeout time.Duration, retries int) *Endpoint {
	if retries < 1 {
		retries = 1
	}
	if timeout <= 0 {
		timeout = time.Second
	}
	return &Endpoint{
		link:    link,
		addr:    addr,
		timeout: timeout,
		retries: retries,
		lastID:  make(map[byte]byte),
		seen:    make(map[byte]bool),
	}
}

// Addr returns this endpoint's link address.
func (e *Endpoint) Addr() byte { return e.addr }

// Close closes the underlying link.
func (e *Endpoint) Close() error { return e.link.Close() }

// SendToWait transmits payload to the given address and waits for the
// acknowledgment, retransmitting on silence. Returns ErrNoAck when the
// retry budget runs out and ErrSendFailed on a local transmit error.
func (e *Endpoint) SendToWait(ctx context.Context, to byte, payload []byte) error {
	e.mu.Lock()
	e.txID++
	id := e.txID
	e.mu.Unlock()

	frame := make([]byte, 0, headerLen+len(payload))
	frame = append(frame, to, e.addr, id, 0)
	frame = append(frame, payload...)

	for try := 0; try < e.retries; try++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := e.link.Send(frame); err != nil {
			return fmt.Errorf("%w: %v", ErrSendFailed, err)
		}
		if e.awaitAck(ctx, to, id) {
			return nil
		}
	}
	return ErrNoAck
}

// awaitAck waits one ack window for the ack of (to, id). Data datagrams
// that arrive in the window are acknowledged and queued for RecvFrom.
func (e *Endpoint) awaitAck(ctx context.Context, to byte, id byte) bool {
	deadline := time.Now().Add(e.timeout)
	for {
		remaining := time.Until(deadline)
		if remaining <= 0 || ctx.Err() != nil {
			return false
		}
		raw, err := e.link.Recv(remaining)
		if err != nil {
			return false
		}
		hdr, payload, ok := splitHeader(raw)
		if !ok || (hdr.to != e.addr && hdr.to != Broadcast) {
			continue
		}
		if hdr.ack() {
			if hdr.from == to && hdr.id == id {
				return true
			}
			continue // stale ack
		}
		e.acceptData(hdr, payload)
	}
}

// RecvFrom returns the next delivered datagram, acknowledging it to the
// sender. Returns ErrTimeout when nothing arrives in time.
func (e *Endpoint) RecvFrom(ctx context.Context, timeout time.Duration) ([]byte, byte, error) {
	if payload, from, ok := e.popPending(); ok {
		return payload, from, nil
	}

	deadline := time.Now().Add(timeout)
	for {
		remaining := time.Until(deadline)
		if remaining <= 0 {
			return nil, 0, ErrTimeout
		}
		if err := ctx.Err(); err != nil {
			return nil, 0, err
		}
		raw, err := e.link.Recv(remaining)
		if err != nil {
			if err == ErrTimeout {
				continue // recheck deadline, then report our own timeout
			}
			return nil, 0, err
		}
		hdr, payload, ok := splitHeader(raw)
		if !ok || (hdr.to != e.addr && hdr.to != Broadcast) {
			continue
		}
		if hdr.ack() {
			continue // ack for an abandoned send
		}
		if e.acceptData(hdr, payload) {
			if payload, from, ok := e.popPending(); ok {
				return payload, from, nil
			}
		}
	}
}

// acceptData acknowledges a data datagram and queues it unless it is a
// retransmitted duplicate. Reports whether anything new was queued.
func (e *Endpoint) acceptData(hdr header, payload []byte) bool {
	// Always re-ack: a duplicate means our previous ack was lost.
	ack := []byte{hdr.from, e.addr, hdr.id, flagAck}
	_ = e.link.Send(ack)

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.seen[hdr.from] && e.lastID[hdr.from] == hdr.id {
		return false
	}
	e.seen[hdr.from] = true
	e.lastID[hdr.from] = hdr.id
	e.pending = append(e.pending, pendingDatagram{
		from:    hdr.from,
		payload: append([]byte(nil), payload...),
	})
	return true
}

func (e *Endpoint) popPending() ([]byte, byte, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if len(e.pending) == 0 {
		return nil, 0, false
	}
	d := e.pending[0]
	e.pending = e.pending[1:]
	return d.payload, d.from, true
}

// Roundtrip is the controller-side Transport: one acknowledged command out,
// one reply datagram back.
type Roundtrip struct {
	ep           *Endpoint
	dest         byte
	replyTimeout time.Duration
}

// NewRoundtrip builds a Transport that talks to the phaser at dest.
// replyTimeout bounds the wait for the reply after the command is acked.
func NewRoundtrip(ep *Endpoint, dest byte, replyTimeout time.Duration) *Roundtrip {
	if replyTimeout <= 0 {
		replyTimeout = 2 * time.Second
	}
	return &Roundtrip{ep: ep, dest: dest, replyTimeout: replyTimeout}
}

// SendAndWait implements Transport.
func (t *Roundtrip) SendAndWait(ctx context.Context, frame []byte) ([]byte, error) {
	if err := t.ep.SendToWait(ctx, t.dest, frame); err != nil {
		return nil, err
	}

	deadline := time.Now().Add(t.replyTimeout)
	for {
		remaining := time.Until(deadline)
		if remaining <= 0 {
			return nil, ErrNoAck
		}
		payload, from, err := t.ep.RecvFrom(ctx, remaining)
		if err != nil {
			if err == ErrTimeout {
				return nil, ErrNoAck
			}
			return nil, err
		}
		if from != t.dest {
			continue // not our peer
		}
		return payload, nil
	}
}
