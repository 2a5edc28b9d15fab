// Package transport carries protocol frames between the controller and the
// phaser. A Link is an unreliable datagram byte pipe (radio modem, UDP for
// bench work, in-memory for tests); the Endpoint layers RadioHead-style
// addressed datagrams with acknowledgment, retransmission and duplicate
// suppression on top. The protocol layer above sees only a blocking
// send-and-wait round trip.
package transport

import (
	"context"
	"errors"
	"time"
)

// Sentinel transport failures.
var (
	// ErrTimeout reports that nothing arrived before the deadline.
	ErrTimeout = errors.New("receive timeout")

	// ErrNoAck reports that the retry budget was exhausted without the
	// peer acknowledging, or without a reply arriving.
	ErrNoAck = errors.New("no acknowledgment from peer")

	// ErrSendFailed reports a local transmit failure.
	ErrSendFailed = errors.New("send failed")
)

// Link is an unreliable datagram byte link. Send transmits one datagram;
// Recv blocks up to timeout for the next one and returns ErrTimeout when
// nothing arrives. Implementations are safe for one sender and one
// receiver goroutine.
type Link interface {
	Send(p []byte) error
	Recv(timeout time.Duration) ([]byte, error)
	Close() error
}

// RSSIReporter is implemented by links that know the signal strength of the
// last received datagram (the serial radio modem does; UDP does not).
type RSSIReporter interface {
	LastRSSI() (dbm int, ok bool)
}

// Transport performs one blocking command/reply round trip. The caller
// issues at most one outstanding request at a time.
type Transport interface {
	SendAndWait(ctx context.Context, frame []byte) ([]byte, error)
}

// LinkRSSI returns the last-receive RSSI of link if it reports one.
func LinkRSSI(link Link) (int, bool) {
	if r, ok := link.(RSSIReporter); ok {
		return r.LastRSSI()
	}
	return 0, false
}
