// Package core defines core types with zero external dependencies.
package core

import (
	"fmt"
	"net/netip"
)

// Family is the IP version of a carved header.
type Family uint8

const (
	FamilyIPv4 Family = 4
	FamilyIPv6 Family = 6
)

// String returns "IPv4" or "IPv6".
func (f Family) String() string {
	switch f {
	case FamilyIPv4:
		return "IPv4"
	case FamilyIPv6:
		return "IPv6"
	default:
		return fmt.Sprintf("Family(%d)", uint8(f))
	}
}

// GenericIPHeader is the normalized view of a validated IPv4 or IPv6 header.
// It is built once per candidate and never mutated afterwards.
type GenericIPHeader struct {
	Family        Family
	Src           [16]byte // IPv4 addresses are right-justified
	Dst           [16]byte
	TTL           uint8 // Hop limit for IPv6
	Protocol      uint8 // TCP=6, UDP=17, ICMPv6=58
	HeaderLen     int   // Offset of the next header, 20 or 40
	PayloadLen    int
	ChecksumValid bool
}

// SrcAddr returns the source address.
func (h GenericIPHeader) SrcAddr() netip.Addr {
	return h.addr(h.Src)
}

// DstAddr returns the destination address.
func (h GenericIPHeader) DstAddr() netip.Addr {
	return h.addr(h.Dst)
}

// TotalLen is the header plus the declared payload.
func (h GenericIPHeader) TotalLen() int {
	return h.HeaderLen + h.PayloadLen
}

func (h GenericIPHeader) addr(b [16]byte) netip.Addr {
	if h.Family == FamilyIPv4 {
		return netip.AddrFrom4([4]byte(b[12:16]))
	}
	return netip.AddrFrom16(b)
}

// PcapRecordHeader is the 16-byte per-record header of a pcap savefile.
type PcapRecordHeader struct {
	Seconds      uint32
	Microseconds uint32
	CapLen       uint32
	PktLen       uint32
}

// PcapRecordHeaderLen is the encoded size of PcapRecordHeader.
const PcapRecordHeaderLen = 16

// ParsePcapRecordHeader reads a little-endian record header at off.
func ParsePcapRecordHeader(w Window, off int) (PcapRecordHeader, error) {
	var (
		hdr PcapRecordHeader
		err error
	)
	if hdr.Seconds, err = w.LE32(off); err != nil {
		return hdr, err
	}
	if hdr.Microseconds, err = w.LE32(off + 4); err != nil {
		return hdr, err
	}
	if hdr.CapLen, err = w.LE32(off + 8); err != nil {
		return hdr, err
	}
	if hdr.PktLen, err = w.LE32(off + 12); err != nil {
		return hdr, err
	}
	return hdr, nil
}

// CarveResult is the outcome of one recognizer invocation.
type CarveResult struct {
	Recognized bool
	Consumed   int  // Bytes the cursor advances by; >0 when Recognized
	Written    bool // Whether anything reached the pcap output
}

// NotRecognized is returned by recognizers that did not match.
var NotRecognized = CarveResult{}

// Recognized builds a successful result.
func Recognized(consumed int, written bool) CarveResult {
	return CarveResult{Recognized: true, Consumed: consumed, Written: written}
}
