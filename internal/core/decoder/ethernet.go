// Package decoder implements protocol decoding.
package decoder

import (
	"encoding/binary"
	"net"

	"github.com/google/gopacket/layers"

	"firestige.xyz/netcarve/internal/core"
)

const (
	// Ethernet constants
	EthernetHeaderLen = 14

	// EtherType values
	EtherTypeIPv4 = uint16(layers.EthernetTypeIPv4)
	EtherTypeIPv6 = uint16(layers.EthernetTypeIPv6)
)

// EthernetHeader is an Ethernet II header read from a window.
type EthernetHeader struct {
	DstMAC    [6]byte
	SrcMAC    [6]byte
	EtherType uint16
}

// DecodeEthernet reads the 14-byte Ethernet II header at off.
// VLAN tags are not followed.
func DecodeEthernet(w core.Window, off int) (EthernetHeader, error) {
	data, err := w.Bytes(off, EthernetHeaderLen)
	if err != nil {
		return EthernetHeader{}, err
	}

	eth := EthernetHeader{}

	// Destination MAC (6 bytes)
	copy(eth.DstMAC[:], data[0:6])

	// Source MAC (6 bytes)
	copy(eth.SrcMAC[:], data[6:12])

	// EtherType (2 bytes)
	eth.EtherType = binary.BigEndian.Uint16(data[12:14])
	return eth, nil
}

// EtherTypeFor returns the EtherType that carries the given IP family.
func EtherTypeFor(f core.Family) uint16 {
	if f == core.FamilyIPv6 {
		return EtherTypeIPv6
	}
	return EtherTypeIPv4
}

// FamilyFor maps an EtherType to an IP family. ok is false for non-IP types.
func FamilyFor(etherType uint16) (core.Family, bool) {
	switch etherType {
	case EtherTypeIPv4:
		return core.FamilyIPv4, true
	case EtherTypeIPv6:
		return core.FamilyIPv6, true
	default:
		return 0, false
	}
}

// PlaceholderEthernet builds a synthetic Ethernet header whose MAC bytes are
// 0x00..0x0b, used when a bare IP packet has to be stored as Ethernet.
func PlaceholderEthernet(etherType uint16) [EthernetHeaderLen]byte {
	var hdr [EthernetHeaderLen]byte
	for i := 0; i < 12; i++ {
		hdr[i] = byte(i)
	}
	binary.BigEndian.PutUint16(hdr[12:], etherType)
	return hdr
}

// FormatMAC renders a MAC address as lower-case colon-separated hex.
func FormatMAC(mac [6]byte) string {
	return net.HardwareAddr(mac[:]).String()
}
