package carver

import (
	"fmt"
	"net/netip"

	"firestige.xyz/netcarve/internal/core"
	"firestige.xyz/netcarve/internal/core/decoder"
)

const (
	afInet         = 2
	sockaddrInLen  = 16
	sockaddrZeroAt = 8

	// Windows pool header: BlockSize lives in bits 16..24 of the first
	// little-endian word, in 8-byte units.
	tcptPoolBlockSize = 0x28
	tcptTagOff        = 4
	tcptObjectOff     = 8
	tcptRemoteIPOff   = tcptObjectOff + 0x0c
	tcptLocalIPOff    = tcptObjectOff + 0x10
	tcptRemotePortOff = tcptObjectOff + 0x14
	tcptLocalPortOff  = tcptObjectOff + 0x16
	tcptPidOff        = tcptObjectOff + 0x18
)

var tcptTag = [4]byte{'T', 'C', 'P', 'T'}

// sockaddrInRecognizer finds struct sockaddr_in values left in memory: a
// little-endian AF_INET family, a port, an address and eight zero bytes.
type sockaddrInRecognizer struct {
	rep reporter
}

func (r *sockaddrInRecognizer) Name() string { return NameSockaddrIn }

func (r *sockaddrInRecognizer) Recognize(w core.Window, off int) (core.CarveResult, error) {
	raw, err := w.Bytes(off, sockaddrInLen)
	if err != nil {
		return core.NotRecognized, nil
	}
	if family, _ := w.LE16(off); family != afInet {
		return core.NotRecognized, nil
	}
	for _, b := range raw[sockaddrZeroAt:] {
		if b != 0 {
			return core.NotRecognized, nil
		}
	}
	port, _ := w.BE16(off + 2)
	addr := [4]byte(raw[4:8])
	if decoder.InvalidIPv4(addr) || !decoder.SanePort(port) {
		return core.NotRecognized, nil
	}

	ctx := fmt.Sprintf("%s port %d", core.LabelSockaddrIn, port)
	if err := r.rep.record(core.FeatureIP, w.Abs(off), netip.AddrFrom4(addr).String(), ctx); err != nil {
		return core.NotRecognized, err
	}
	return core.Recognized(sockaddrInLen, false), nil
}

// tcptRecognizer finds Windows _TCPT_OBJECT pool allocations and reports
// the connection endpoints and owning process.
type tcptRecognizer struct {
	rep reporter
}

func (r *tcptRecognizer) Name() string { return NameTCPT }

func (r *tcptRecognizer) Recognize(w core.Window, off int) (core.CarveResult, error) {
	if !w.Has(off, tcptPoolBlockSize) {
		return core.NotRecognized, nil
	}
	poolHeader, _ := w.LE32(off)
	if blockSize := (poolHeader >> 16) & 0x1ff; blockSize*8 != tcptPoolBlockSize {
		return core.NotRecognized, nil
	}
	tag, _ := w.Bytes(off+tcptTagOff, len(tcptTag))
	if [4]byte(tag) != tcptTag {
		return core.NotRecognized, nil
	}

	remoteRaw, _ := w.Bytes(off+tcptRemoteIPOff, 4)
	localRaw, _ := w.Bytes(off+tcptLocalIPOff, 4)
	remote, local := [4]byte(remoteRaw), [4]byte(localRaw)
	remotePort, _ := w.BE16(off + tcptRemotePortOff)
	localPort, _ := w.BE16(off + tcptLocalPortOff)
	pid, _ := w.LE32(off + tcptPidOff)

	if decoder.InvalidIPv4(remote) || decoder.InvalidIPv4(local) || !decoder.SanePort(remotePort) {
		return core.NotRecognized, nil
	}

	abs := w.Abs(off)
	remoteAddr := netip.AddrPortFrom(netip.AddrFrom4(remote), remotePort)
	localAddr := netip.AddrPortFrom(netip.AddrFrom4(local), localPort)
	if err := r.rep.record(core.FeatureIP, abs, remoteAddr.Addr().String(), core.LabelTCPT+" "+core.LabelRemote); err != nil {
		return core.NotRecognized, err
	}
	if err := r.rep.record(core.FeatureIP, abs, localAddr.Addr().String(), core.LabelTCPT+" "+core.LabelLocal); err != nil {
		return core.NotRecognized, err
	}
	flow := fmt.Sprintf("%s -> %s (%s) PID: %d", localAddr, remoteAddr, core.LabelTCPT, pid)
	if err := r.rep.record(core.FeatureTCP, abs, flow, core.LabelTCPT); err != nil {
		return core.NotRecognized, err
	}
	return core.Recognized(tcptPoolBlockSize, false), nil
}
