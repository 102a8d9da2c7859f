// Package decoder implements protocol decoding.
package decoder

import (
	"fmt"
	"net/netip"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"golang.org/x/net/ipv6"

	"firestige.xyz/netcarve/internal/core"
)

const (
	udpHeaderLen    = 8
	tcpHeaderMinLen = 20
	icmpv6MinLen    = 4

	// Protocol numbers
	protocolTCP    = uint8(layers.IPProtocolTCP)
	protocolUDP    = uint8(layers.IPProtocolUDP)
	protocolICMPv6 = uint8(layers.IPProtocolICMPv6)
)

// minTransportLen is the smallest IPv6 payload that can hold the transport
// header named by protocol.
func minTransportLen(protocol uint8) int {
	switch protocol {
	case protocolTCP:
		return tcpHeaderMinLen
	case protocolUDP:
		return udpHeaderLen
	case protocolICMPv6:
		return icmpv6MinLen
	default:
		return 0
	}
}

// FlowSummary renders a one-line description of the transport flow carried
// by the packet whose IP header starts at off, for example
// "172.20.0.185:59910 -> 172.217.165.132:80 (TCPv4) Size: 64".
// ok is false when the transport header cannot be decoded from the window.
func FlowSummary(w core.Window, off int, ip core.GenericIPHeader) (string, bool) {
	l4Off := off + ip.HeaderLen
	avail := w.Remaining(l4Off)
	if avail > ip.PayloadLen {
		avail = ip.PayloadLen
	}
	data, err := w.Bytes(l4Off, avail)
	if err != nil {
		return "", false
	}

	src, dst := ip.SrcAddr(), ip.DstAddr()
	size := ip.TotalLen()

	switch ip.Protocol {
	case protocolTCP:
		var tcp layers.TCP
		if err := tcp.DecodeFromBytes(data, gopacket.NilDecodeFeedback); err != nil {
			return "", false
		}
		return portFlow(src, uint16(tcp.SrcPort), dst, uint16(tcp.DstPort), "TCP", ip.Family, size), true
	case protocolUDP:
		var udp layers.UDP
		if err := udp.DecodeFromBytes(data, gopacket.NilDecodeFeedback); err != nil {
			return "", false
		}
		return portFlow(src, uint16(udp.SrcPort), dst, uint16(udp.DstPort), "UDP", ip.Family, size), true
	case protocolICMPv6:
		var icmp layers.ICMPv6
		if err := icmp.DecodeFromBytes(data, gopacket.NilDecodeFeedback); err != nil {
			return "", false
		}
		name := ipv6.ICMPType(icmp.TypeCode.Type()).String()
		return fmt.Sprintf("%s -> %s (ICMPv6 %s) Size: %d", src, dst, name, size), true
	default:
		return "", false
	}
}

func portFlow(src netip.Addr, sport uint16, dst netip.Addr, dport uint16, proto string, family core.Family, size int) string {
	version := "v4"
	if family == core.FamilyIPv6 {
		version = "v6"
	}
	return fmt.Sprintf("%s -> %s (%s%s) Size: %d",
		netip.AddrPortFrom(src, sport), netip.AddrPortFrom(dst, dport), proto, version, size)
}
