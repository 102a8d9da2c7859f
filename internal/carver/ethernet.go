package carver

import (
	"firestige.xyz/netcarve/internal/core"
	"firestige.xyz/netcarve/internal/core/decoder"
	"firestige.xyz/netcarve/internal/pcapwriter"
)

// ethernetRecognizer carves an Ethernet II frame around an IPv4 or IPv6
// packet and stores it with a zero timestamp.
type ethernetRecognizer struct {
	opts Options
	out  PacketWriter
	rep  reporter
}

func (r *ethernetRecognizer) Name() string { return NameEthernet }

func (r *ethernetRecognizer) Recognize(w core.Window, off int) (core.CarveResult, error) {
	eth, err := decoder.DecodeEthernet(w, off)
	if err != nil {
		return core.NotRecognized, nil
	}
	first, err := w.U8(off + decoder.EthernetHeaderLen)
	if err != nil {
		return core.NotRecognized, nil
	}
	switch {
	case eth.EtherType == decoder.EtherTypeIPv4 && first == 0x45:
	case eth.EtherType == decoder.EtherTypeIPv6 && first>>4 == 6:
	default:
		return core.NotRecognized, nil
	}

	hdr, ok := decoder.ParseGenericHeader(w, off+decoder.EthernetHeaderLen)
	if !ok {
		return core.NotRecognized, nil
	}
	if !hdr.ChecksumValid && !r.opts.ReportChecksumBad {
		return core.NotRecognized, nil
	}

	n := decoder.EthernetHeaderLen + hdr.TotalLen()
	if avail := w.Remaining(off); n > avail {
		n = avail
	}
	if n > pcapwriter.SnapLen {
		n = pcapwriter.SnapLen
	}
	frame, err := w.Bytes(off, n)
	if err != nil {
		return core.NotRecognized, nil
	}

	if err := r.rep.ether(w, off, eth); err != nil {
		return core.NotRecognized, err
	}
	if err := r.rep.ip(w, off+decoder.EthernetHeaderLen, hdr); err != nil {
		return core.NotRecognized, err
	}
	size := uint32(n)
	if err := r.out.Write(core.PcapRecordHeader{CapLen: size, PktLen: size}, frame, false, 0); err != nil {
		return core.NotRecognized, err
	}
	return core.Recognized(n, true), nil
}
