// Package capture analyzes packet captures of the UDP bench link. It pulls
// the addressed datagrams out of UDP payloads, classifies acks, commands and
// replies, and verifies integrity tags when given the secret. Useful for
// post-morteming a bench session recorded with tcpdump.
package capture

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcapgo"

	"github.com/n2rd/phaselink/internal/protocol"
)

const (
	datagramHeaderLen = 4
	ackFlag           = 0x80
)

// Summary aggregates one capture file.
type Summary struct {
	TotalPackets  int
	LinkDatagrams int
	Acks          int
	Commands      map[string]int
	Replies       map[string]int
	BadTag        int
	Undecodable   int
	Flows         map[string]int // "from->to" link addresses
}

// Summarize reads a pcap file and summarizes the phaser link traffic on the
// given UDP port (0 means every UDP packet). With a non-empty secret the
// integrity tag of each data datagram is verified; without one the tag is
// stripped unchecked.
func Summarize(path string, port int, secret []byte) (*Summary, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open capture: %w", err)
	}
	defer f.Close()

	r, err := pcapgo.NewReader(f)
	if err != nil {
		return nil, fmt.Errorf("read capture %s: %w", path, err)
	}

	s := &Summary{
		Commands: make(map[string]int),
		Replies:  make(map[string]int),
		Flows:    make(map[string]int),
	}

	for {
		data, _, err := r.ReadPacketData()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read packet: %w", err)
		}
		s.TotalPackets++

		pkt := gopacket.NewPacket(data, r.LinkType(), gopacket.Default)
		udpLayer := pkt.Layer(layers.LayerTypeUDP)
		if udpLayer == nil {
			continue
		}
		udp := udpLayer.(*layers.UDP)
		if port != 0 && int(udp.SrcPort) != port && int(udp.DstPort) != port {
			continue
		}
		s.classify(udp.Payload, secret)
	}

	return s, nil
}

// classify accounts one link datagram.
func (s *Summary) classify(datagram, secret []byte) {
	if len(datagram) < datagramHeaderLen {
		return
	}
	s.LinkDatagrams++
	to, from, flags := datagram[0], datagram[1], datagram[3]
	s.Flows[fmt.Sprintf("%d->%d", from, to)]++

	if flags&ackFlag != 0 {
		s.Acks++
		return
	}

	payload := datagram[datagramHeaderLen:]
	var frame []byte
	if len(secret) > 0 {
		stripped, err := protocol.SplitTag(payload, secret)
		if err != nil {
			s.BadTag++
			return
		}
		frame = stripped
	} else {
		if len(payload) <= protocol.TagLen {
			s.Undecodable++
			return
		}
		frame = payload[:len(payload)-protocol.TagLen]
	}

	if cmd, err := protocol.DecodeCommand(frame); err == nil {
		s.Commands[cmd.Kind.String()]++
		return
	}
	if reply, err := protocol.DecodeReply(frame, protocol.Position{}); err == nil {
		switch reply.Kind {
		case protocol.ReplyPosition:
			s.Replies["POSITION"]++
		case protocol.ReplyPower:
			s.Replies["POWER"]++
		}
		return
	}
	s.Undecodable++
}

// Format renders a summary for terminal output.
func Format(s *Summary) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Packets: %d (%d link datagrams, %d acks)\n",
		s.TotalPackets, s.LinkDatagrams, s.Acks)

	if len(s.Commands) > 0 {
		b.WriteString("Commands:\n")
		for _, k := range sortedKeys(s.Commands) {
			fmt.Fprintf(&b, "  %s: %d\n", k, s.Commands[k])
		}
	}
	if len(s.Replies) > 0 {
		b.WriteString("Replies:\n")
		for _, k := range sortedKeys(s.Replies) {
			fmt.Fprintf(&b, "  %s: %d\n", k, s.Replies[k])
		}
	}
	if s.BadTag > 0 {
		fmt.Fprintf(&b, "Failed tag verification: %d\n", s.BadTag)
	}
	if s.Undecodable > 0 {
		fmt.Fprintf(&b, "Undecodable: %d\n", s.Undecodable)
	}
	if len(s.Flows) > 0 {
		b.WriteString("Flows:\n")
		for _, k := range sortedKeys(s.Flows) {
			fmt.Fprintf(&b, "  %s: %d\n", k, s.Flows[k])
		}
	}

	return b.String()
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
