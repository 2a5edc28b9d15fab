package transport

// In-memory link pair for tests and the loopback selftest.

import (
	"sync"
	"time"
)

// PipeLink is one end of an in-process datagram pipe. The fault hooks make
// it a lossy radio stand-in: DropTX drops an outgoing datagram, MangleTX
// rewrites one in flight.
type PipeLink struct {
	tx chan<- []byte
	rx <-chan []byte

	mu       sync.Mutex
	closed   bool
	done     chan struct{}
	DropTX   func(p []byte) bool
	MangleTX func(p []byte) []byte
}

// NewPipe returns two connected links. Each side buffers a handful of
// datagrams, like a modem FIFO; sends beyond that are dropped, not blocked.
func NewPipe() (*PipeLink, *PipeLink) {
	ab := make(chan []byte, 16)
	ba := make(chan []byte, 16)
	a := &PipeLink{tx: ab, rx: ba, done: make(chan struct{})}
	b := &PipeLink{tx: ba, rx: ab, done: make(chan struct{})}
	return a, b
}

// Send implements Link.
func (l *PipeLink) Send(p []byte) error {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return ErrSendFailed
	}
	drop := l.DropTX
	mangle := l.MangleTX
	l.mu.Unlock()

	if drop != nil && drop(p) {
		return nil // lost on the air
	}
	out := append([]byte(nil), p...)
	if mangle != nil {
		out = mangle(out)
	}
	select {
	case l.tx <- out:
	default:
		// FIFO full; a real modem drops too.
	}
	return nil
}

// Recv implements Link.
func (l *PipeLink) Recv(timeout time.Duration) ([]byte, error) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case p := <-l.rx:
		return p, nil
	case <-l.done:
		return nil, ErrTimeout
	case <-timer.C:
		return nil, ErrTimeout
	}
}

// Close implements Link.
func (l *PipeLink) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.closed {
		l.closed = true
		close(l.done)
	}
	return nil
}
