// Package testutil builds packet and pcap fixtures for tests.
package testutil

import (
	"bytes"
	"net"
	"testing"
	"time"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcapgo"
)

// SampleTCPv4Frame is an Ethernet/IPv4/TCP SYN from 172.20.0.185:59910 to
// 172.217.165.132:80 with a valid header checksum.
var SampleTCPv4Frame = []byte{
	0x00, 0x50, 0xE8, 0x04, 0x77, 0x4B, // Dst MAC
	0x2C, 0xF0, 0xA2, 0xF3, 0xA8, 0xEE, // Src MAC
	0x08, 0x00, // EtherType: IPv4
	0x45, 0x00, 0x00, 0x40, 0x00, 0x00, 0x40, 0x00, 0x40, 0x06, 0x3B, 0x8D,
	0xAC, 0x14, 0x00, 0xB9, // Src IP
	0xAC, 0xD9, 0xA5, 0x84, // Dst IP
	0xEA, 0x06, 0x00, 0x50, 0xAB, 0x8C, 0x75, 0x56, 0x00, 0x00, 0x00, 0x00,
	0xB0, 0xC2, 0xFF, 0xFF, 0x8E, 0xFD, 0x00, 0x00, 0x02, 0x04, 0x05, 0xB4,
	0x01, 0x03, 0x03, 0x06, 0x01, 0x01, 0x08, 0x0A, 0x72, 0x22, 0x2A, 0xB7,
	0x00, 0x00, 0x00, 0x00, 0x04, 0x02, 0x00, 0x00,
}

// SampleTCPv4 is the IP packet inside SampleTCPv4Frame.
var SampleTCPv4 = SampleTCPv4Frame[14:]

var serializeOpts = gopacket.SerializeOptions{FixLengths: true, ComputeChecksums: true}

func serialize(t testing.TB, l ...gopacket.SerializableLayer) []byte {
	t.Helper()
	buf := gopacket.NewSerializeBuffer()
	if err := gopacket.SerializeLayers(buf, serializeOpts, l...); err != nil {
		t.Fatalf("serialize layers: %v", err)
	}
	return append([]byte(nil), buf.Bytes()...)
}

func ipv6Layer(src, dst string, next layers.IPProtocol) *layers.IPv6 {
	return &layers.IPv6{
		Version:    6,
		NextHeader: next,
		HopLimit:   64,
		SrcIP:      net.ParseIP(src),
		DstIP:      net.ParseIP(dst),
	}
}

// IPv6UDP builds an IPv6/UDP packet with correct lengths and checksum.
func IPv6UDP(t testing.TB, src, dst string, sport, dport uint16, payload []byte) []byte {
	ip := ipv6Layer(src, dst, layers.IPProtocolUDP)
	udp := &layers.UDP{SrcPort: layers.UDPPort(sport), DstPort: layers.UDPPort(dport)}
	if err := udp.SetNetworkLayerForChecksum(ip); err != nil {
		t.Fatalf("set network layer: %v", err)
	}
	return serialize(t, ip, udp, gopacket.Payload(payload))
}

// IPv6TCP builds an IPv6/TCP SYN with correct lengths and checksum.
func IPv6TCP(t testing.TB, src, dst string, sport, dport uint16, payload []byte) []byte {
	ip := ipv6Layer(src, dst, layers.IPProtocolTCP)
	tcp := &layers.TCP{
		SrcPort: layers.TCPPort(sport),
		DstPort: layers.TCPPort(dport),
		Seq:     0x01020304,
		SYN:     true,
		Window:  65535,
	}
	if err := tcp.SetNetworkLayerForChecksum(ip); err != nil {
		t.Fatalf("set network layer: %v", err)
	}
	return serialize(t, ip, tcp, gopacket.Payload(payload))
}

// IPv6ICMPEcho builds an IPv6 ICMPv6 echo request.
func IPv6ICMPEcho(t testing.TB, src, dst string, payload []byte) []byte {
	ip := ipv6Layer(src, dst, layers.IPProtocolICMPv6)
	icmp := &layers.ICMPv6{TypeCode: layers.CreateICMPv6TypeCode(layers.ICMPv6TypeEchoRequest, 0)}
	if err := icmp.SetNetworkLayerForChecksum(ip); err != nil {
		t.Fatalf("set network layer: %v", err)
	}
	echo := &layers.ICMPv6Echo{Identifier: 0x1234, SeqNumber: 1}
	return serialize(t, ip, icmp, echo, gopacket.Payload(payload))
}

// IPv4UDP builds an unfragmented IPv4/UDP packet with the DF flag set.
func IPv4UDP(t testing.TB, src, dst string, ttl uint8, sport, dport uint16, payload []byte) []byte {
	ip := &layers.IPv4{
		Version:  4,
		TTL:      ttl,
		Flags:    layers.IPv4DontFragment,
		Protocol: layers.IPProtocolUDP,
		SrcIP:    net.ParseIP(src).To4(),
		DstIP:    net.ParseIP(dst).To4(),
	}
	udp := &layers.UDP{SrcPort: layers.UDPPort(sport), DstPort: layers.UDPPort(dport)}
	if err := udp.SetNetworkLayerForChecksum(ip); err != nil {
		t.Fatalf("set network layer: %v", err)
	}
	return serialize(t, ip, udp, gopacket.Payload(payload))
}

// Ethernet prepends an Ethernet II header to payload.
func Ethernet(dst, src [6]byte, etherType uint16, payload []byte) []byte {
	frame := make([]byte, 0, 14+len(payload))
	frame = append(frame, dst[:]...)
	frame = append(frame, src[:]...)
	frame = append(frame, byte(etherType>>8), byte(etherType))
	return append(frame, payload...)
}

// Record is one pcap record fixture.
type Record struct {
	Time time.Time
	Data []byte
}

// PcapFile renders a little-endian microsecond pcap savefile.
func PcapFile(t testing.TB, linkType layers.LinkType, records ...Record) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := pcapgo.NewWriter(&buf)
	if err := w.WriteFileHeader(65535, linkType); err != nil {
		t.Fatalf("write file header: %v", err)
	}
	for _, r := range records {
		ci := gopacket.CaptureInfo{Timestamp: r.Time, CaptureLength: len(r.Data), Length: len(r.Data)}
		if err := w.WritePacket(ci, r.Data); err != nil {
			t.Fatalf("write packet: %v", err)
		}
	}
	return buf.Bytes()
}

// PcapRecord renders a single record header plus data, without file header.
func PcapRecord(t testing.TB, ts time.Time, data []byte) []byte {
	return PcapFile(t, layers.LinkTypeEthernet, Record{Time: ts, Data: data})[24:]
}

// Noise returns n filler bytes that no recognizer accepts: no byte has an IP
// version nibble, no pair is an IP EtherType and every little-endian 32-bit
// value falls outside the default pcap timestamp window.
func Noise(n int) []byte {
	pattern := [4]byte{0xAA, 0xBB, 0xCC, 0x11}
	b := make([]byte, n)
	for i := range b {
		b[i] = pattern[i%4]
	}
	return b
}

// Embed places payload inside noise at offset off.
func Embed(size, off int, payload []byte) []byte {
	b := Noise(size)
	copy(b[off:], payload)
	return b
}

// ReadPcap decodes every record in a savefile.
func ReadPcap(t testing.TB, data []byte) (*pcapgo.Reader, []Record) {
	t.Helper()
	r, err := pcapgo.NewReader(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("open pcap: %v", err)
	}
	var out []Record
	for {
		pkt, ci, err := r.ReadPacketData()
		if err != nil {
			break
		}
		out = append(out, Record{Time: ci.Timestamp, Data: pkt})
	}
	return r, out
}
