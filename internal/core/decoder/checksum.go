package decoder

import (
	"encoding/binary"

	"firestige.xyz/netcarve/internal/core"
)

const (
	ipv4ChecksumOff = 10

	// Offset of the checksum field inside each transport header.
	tcpChecksumOff    = 16
	udpChecksumOff    = 6
	icmpv6ChecksumOff = 2
)

// sumWords adds data as big-endian 16-bit words, skipping the word at skip
// (skip < 0 disables skipping). A trailing odd byte is padded with zero.
func sumWords(csum uint32, data []byte, skip int) uint32 {
	length := len(data) - 1
	for i := 0; i < length; i += 2 {
		if i == skip {
			continue
		}
		csum += uint32(data[i]) << 8
		csum += uint32(data[i+1])
	}
	if len(data)%2 == 1 && length != skip {
		csum += uint32(data[length]) << 8
	}
	return csum
}

// foldChecksum folds carries back into the low 16 bits and complements.
func foldChecksum(csum uint32) uint16 {
	for csum>>16 != 0 {
		csum = (csum & 0xffff) + (csum >> 16)
	}
	return ^uint16(csum)
}

// IPv4Checksum computes the RFC 1071 header checksum, ignoring the value
// currently stored in bytes 10-11.
func IPv4Checksum(header []byte) uint16 {
	return foldChecksum(sumWords(0, header, ipv4ChecksumOff))
}

// ValidIPv4Checksum reports whether the stored header checksum matches.
func ValidIPv4Checksum(header []byte) bool {
	if len(header) < ipv4HeaderLen {
		return false
	}
	stored := binary.BigEndian.Uint16(header[ipv4ChecksumOff:])
	return IPv4Checksum(header) == stored
}

// IPv6L4Checksum computes the transport checksum of the IPv6 packet at off
// over the pseudo-header and the L4 payload. l4ChecksumOff is the position
// of the checksum field inside the transport header; it is skipped.
func IPv6L4Checksum(w core.Window, off int, l4ChecksumOff int) (uint16, error) {
	addrs, err := w.Bytes(off+8, 32) // source + destination
	if err != nil {
		return 0, err
	}
	payloadLen, err := w.BE16(off + 4)
	if err != nil {
		return 0, err
	}
	nextHeader, err := w.U8(off + 6)
	if err != nil {
		return 0, err
	}
	payload, err := w.Bytes(off+ipv6HeaderLen, int(payloadLen))
	if err != nil {
		return 0, err
	}

	csum := sumWords(0, addrs, -1)
	csum += uint32(payloadLen) // upper 16 bits of the 32-bit length are zero
	csum += uint32(nextHeader)
	csum = sumWords(csum, payload, l4ChecksumOff)
	return foldChecksum(csum), nil
}

// validIPv6L4Checksum recomputes and compares the transport checksum. Any
// read failure is reported as an invalid checksum.
func validIPv6L4Checksum(w core.Window, off int, l4ChecksumOff int) bool {
	stored, err := w.BE16(off + ipv6HeaderLen + l4ChecksumOff)
	if err != nil {
		return false
	}
	computed, err := IPv6L4Checksum(w, off, l4ChecksumOff)
	if err != nil {
		return false
	}
	if computed == stored {
		return true
	}
	// RFC 768: a computed zero is transmitted as all ones.
	return computed == 0 && stored == 0xffff
}

// transportChecksumOffset maps a next-header value to its checksum field
// offset. ok is false for unsupported protocols.
func transportChecksumOffset(protocol uint8) (int, bool) {
	switch protocol {
	case protocolTCP:
		return tcpChecksumOff, true
	case protocolUDP:
		return udpChecksumOff, true
	case protocolICMPv6:
		return icmpv6ChecksumOff, true
	default:
		return 0, false
	}
}
