// Package decoder implements protocol decoding.
package decoder

import (
	"golang.org/x/net/ipv4"
	"golang.org/x/net/ipv6"

	"firestige.xyz/netcarve/internal/core"
)

const (
	ipv4HeaderLen = ipv4.HeaderLen // options are not supported
	ipv6HeaderLen = ipv6.HeaderLen // extension headers are not supported

	ipv4MinTotalLen = 28
	maxIPLen        = 8192

	ipv4FlagDontFragment = 0x4000
)

// ParseGenericHeader validates the IPv4 or IPv6 header at off and returns
// its normalized form. ok is false for anything that is not a plausible
// header, including reads past the end of the window.
func ParseGenericHeader(w core.Window, off int) (core.GenericIPHeader, bool) {
	b, err := w.U8(off)
	if err != nil {
		return core.GenericIPHeader{}, false
	}

	// Check IP version (first 4 bits)
	switch b >> 4 {
	case 4:
		return parseIPv4(w, off)
	case 6:
		return parseIPv6(w, off)
	default:
		return core.GenericIPHeader{}, false
	}
}

// parseIPv4 accepts only unfragmented 20-byte TCP/UDP headers.
func parseIPv4(w core.Window, off int) (core.GenericIPHeader, bool) {
	data, err := w.Bytes(off, ipv4HeaderLen)
	if err != nil {
		return core.GenericIPHeader{}, false
	}

	// IHL must be exactly 5 words
	if data[0] != 0x45 {
		return core.GenericIPHeader{}, false
	}

	// Flags and Fragment Offset: nothing, or DF alone
	flagsOffset := uint16(data[6])<<8 | uint16(data[7])
	if flagsOffset != 0 && flagsOffset != ipv4FlagDontFragment {
		return core.GenericIPHeader{}, false
	}

	protocol := data[9]
	if protocol != protocolTCP && protocol != protocolUDP {
		return core.GenericIPHeader{}, false
	}

	totalLen := int(data[2])<<8 | int(data[3])
	if totalLen < ipv4MinTotalLen || totalLen > maxIPLen {
		return core.GenericIPHeader{}, false
	}

	ip := core.GenericIPHeader{
		Family:        core.FamilyIPv4,
		TTL:           data[8],
		Protocol:      protocol,
		HeaderLen:     ipv4HeaderLen,
		PayloadLen:    totalLen - ipv4HeaderLen,
		ChecksumValid: ValidIPv4Checksum(data),
	}
	copy(ip.Src[12:], data[12:16])
	copy(ip.Dst[12:], data[16:20])
	return ip, true
}

// parseIPv6 accepts fixed 40-byte headers carrying TCP, UDP or ICMPv6.
func parseIPv6(w core.Window, off int) (core.GenericIPHeader, bool) {
	data, err := w.Bytes(off, ipv6HeaderLen)
	if err != nil {
		return core.GenericIPHeader{}, false
	}

	nextHeader := data[6]
	checksumOff, ok := transportChecksumOffset(nextHeader)
	if !ok {
		return core.GenericIPHeader{}, false
	}

	payloadLen := int(data[4])<<8 | int(data[5])
	if payloadLen < minTransportLen(nextHeader) || payloadLen > maxIPLen {
		return core.GenericIPHeader{}, false
	}

	ip := core.GenericIPHeader{
		Family:        core.FamilyIPv6,
		TTL:           data[7], // Hop Limit
		Protocol:      nextHeader,
		HeaderLen:     ipv6HeaderLen,
		PayloadLen:    payloadLen,
		ChecksumValid: validIPv6L4Checksum(w, off, checksumOff),
	}
	copy(ip.Src[:], data[8:24])
	copy(ip.Dst[:], data[24:40])
	return ip, true
}
