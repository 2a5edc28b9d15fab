package transport

// UDP link for bench work: two processes on a LAN stand in for the two
// radio modems. Datagram semantics match the radio closely enough that the
// endpoint layer behaves the same over both.

import (
	"fmt"
	"net"
	"sync"
	"time"
)

// UDPLink carries datagrams over UDP. A controller dials a fixed peer; a
// phaser listens and learns its peer from the first datagram received, so
// the field config only needs one address.
type UDPLink struct {
	conn *net.UDPConn

	mu   sync.Mutex
	peer *net.UDPAddr
}

// DialUDP returns a link whose datagrams go to the given peer address.
func DialUDP(listen, peer string) (*UDPLink, error) {
	laddr, err := net.ResolveUDPAddr("udp", listen)
	if err != nil {
		return nil, fmt.Errorf("resolve listen address %q: %w", listen, err)
	}
	paddr, err := net.ResolveUDPAddr("udp", peer)
	if err != nil {
		return nil, fmt.Errorf("resolve peer address %q: %w", peer, err)
	}
	conn, err := net.ListenUDP("udp", laddr)
	if err != nil {
		return nil, fmt.Errorf("listen udp %q: %w", listen, err)
	}
	return &UDPLink{conn: conn, peer: paddr}, nil
}

// ListenUDP returns a link with no peer yet; the first datagram received
// sets it. Sends before that are dropped.
func ListenUDP(listen string) (*UDPLink, error) {
	laddr, err := net.ResolveUDPAddr("udp", listen)
	if err != nil {
		return nil, fmt.Errorf("resolve listen address %q: %w", listen, err)
	}
	conn, err := net.ListenUDP("udp", laddr)
	if err != nil {
		return nil, fmt.Errorf("listen udp %q: %w", listen, err)
	}
	return &UDPLink{conn: conn}, nil
}

// Send implements Link.
func (l *UDPLink) Send(p []byte) error {
	l.mu.Lock()
	peer := l.peer
	l.mu.Unlock()
	if peer == nil {
		return nil // nobody has talked to us yet
	}
	if _, err := l.conn.WriteToUDP(p, peer); err != nil {
		return fmt.Errorf("%w: %v", ErrSendFailed, err)
	}
	return nil
}

// Recv implements Link.
func (l *UDPLink) Recv(timeout time.Duration) ([]byte, error) {
	if err := l.conn.SetReadDeadline(time.Now().Add(timeout)); err != nil {
		return nil, err
	}
	buf := make([]byte, 512)
	n, from, err := l.conn.ReadFromUDP(buf)
	if err != nil {
		if ne, ok := err.(net.Error); ok && ne.Timeout() {
			return nil, ErrTimeout
		}
		return nil, err
	}
	l.mu.Lock()
	if l.peer == nil {
		l.peer = from
	}
	l.mu.Unlock()
	return buf[:n], nil
}

// Close implements Link.
func (l *UDPLink) Close() error { return l.conn.Close() }

// LocalAddr returns the bound address, useful when listening on port 0.
func (l *UDPLink) LocalAddr() net.Addr { return l.conn.LocalAddr() }
