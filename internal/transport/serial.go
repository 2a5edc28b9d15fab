package transport

// Serial link to the LoRa radio modem.
//
// The modem firmware speaks a minimal framed protocol on its UART: each
// datagram is 0x7E, a payload length byte, the payload, and one trailing
// signed byte carrying the RSSI of the datagram as heard on the air
// (0x80 on transmit echoes, which the modem does not send). Anything that
// fails to frame is discarded byte by byte until the next sync.

import (
	"fmt"
	"sync"
	"time"

	"go.bug.st/serial"
)

const (
	serialSync    = 0x7E
	serialMaxBody = 255
)

// SerialLink is a Link over a serial LoRa modem.
type SerialLink struct {
	port serial.Port

	mu       sync.Mutex
	lastRSSI int
	hasRSSI  bool
}

// OpenSerial opens the modem at device with the given baud rate.
func OpenSerial(device string, baud int) (*SerialLink, error) {
	if baud <= 0 {
		baud = 57600
	}
	port, err := serial.Open(device, &serial.Mode{BaudRate: baud})
	if err != nil {
		return nil, fmt.Errorf("open serial %q: %w", device, err)
	}
	return &SerialLink{port: port}, nil
}

// Send implements Link.
func (l *SerialLink) Send(p []byte) error {
	if len(p) > serialMaxBody {
		return fmt.Errorf("%w: datagram of %d bytes exceeds modem limit", ErrSendFailed, len(p))
	}
	frame := make([]byte, 0, 2+len(p))
	frame = append(frame, serialSync, byte(len(p)))
	frame = append(frame, p...)
	if _, err := l.port.Write(frame); err != nil {
		return fmt.Errorf("%w: %v", ErrSendFailed, err)
	}
	return nil
}

// Recv implements Link. It resynchronizes on 0x7E after garbage.
func (l *SerialLink) Recv(timeout time.Duration) ([]byte, error) {
	deadline := time.Now().Add(timeout)

	for {
		b, err := l.readByte(deadline)
		if err != nil {
			return nil, err
		}
		if b != serialSync {
			continue
		}
		length, err := l.readByte(deadline)
		if err != nil {
			return nil, err
		}
		payload := make([]byte, int(length)+1) // body plus RSSI trailer
		if err := l.readFull(payload, deadline); err != nil {
			return nil, err
		}
		rssi := int(int8(payload[length]))
		l.mu.Lock()
		l.lastRSSI = rssi
		l.hasRSSI = true
		l.mu.Unlock()
		return payload[:length], nil
	}
}

// LastRSSI implements RSSIReporter.
func (l *SerialLink) LastRSSI() (int, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.lastRSSI, l.hasRSSI
}

// Close implements Link.
func (l *SerialLink) Close() error { return l.port.Close() }

func (l *SerialLink) readByte(deadline time.Time) (byte, error) {
	var one [1]byte
	if err := l.readFull(one[:], deadline); err != nil {
		return 0, err
	}
	return one[0], nil
}

func (l *SerialLink) readFull(buf []byte, deadline time.Time) error {
	off := 0
	for off < len(buf) {
		remaining := time.Until(deadline)
		if remaining <= 0 {
			return ErrTimeout
		}
		if err := l.port.SetReadTimeout(remaining); err != nil {
			return err
		}
		n, err := l.port.Read(buf[off:])
		if err != nil {
			return err
		}
		if n == 0 {
			return ErrTimeout
		}
		off += n
	}
	return nil
}
