package decoder

// Heuristics that keep coincidental byte patterns out of the carve output.

// IsPowerOfTwoTTL reports whether ttl is a common operating-system default,
// meaning the packet has not crossed a router yet.
func IsPowerOfTwoTTL(ttl uint8) bool {
	switch ttl {
	case 32, 64, 128, 255:
		return true
	default:
		return false
	}
}

// InvalidMAC reports whether more than one octet is 0x00 or more than one
// octet is 0xFF.
func InvalidMAC(mac [6]byte) bool {
	zeros, ones := 0, 0
	for _, b := range mac {
		switch b {
		case 0x00:
			zeros++
		case 0xff:
			ones++
		}
	}
	return zeros > 1 || ones > 1
}

// InvalidIPv4 rejects network/broadcast-looking, loopback, multicast and
// reserved addresses, plus a few patterns typical of random data.
func InvalidIPv4(a [4]byte) bool {
	switch {
	case a[0] == 0 || a[0] == 255 || a[3] == 0 || a[3] == 255:
		return true
	case a[0] == 127 || a[0] >= 224:
		return true
	case a[1] == 0 && a[2] == 0, a[1] == 255 && a[2] == 255:
		return true
	case a[0] == a[1] && a[1] == a[2]:
		return true
	}
	return false
}

// InvalidIPv6 accepts only global unicast (2000::/3), multicast (ff00::/8)
// and link-local unicast (fe80::/10).
func InvalidIPv6(a [16]byte) bool {
	switch {
	case a[0]&0xe0 == 0x20:
		return false
	case a[0] == 0xff:
		return false
	case a[0] == 0xfe && a[1]&0xc0 == 0x80:
		return false
	}
	return true
}

var sanePorts = map[uint16]struct{}{
	80: {}, 443: {}, 53: {}, 25: {}, 110: {}, 143: {}, 993: {},
	587: {}, 23: {}, 22: {}, 21: {}, 20: {}, 119: {}, 123: {},
}

// SanePort reports whether port is one of a handful of well-known service
// ports. Only the memory-structure recognizers use it.
func SanePort(port uint16) bool {
	_, ok := sanePorts[port]
	return ok
}
