package carver

import (
	"firestige.xyz/netcarve/internal/core"
	"firestige.xyz/netcarve/internal/core/decoder"
)

// rawIPRecognizer carves an IP packet with no link layer. Without a wrapper
// to corroborate it, the checksum must check out.
type rawIPRecognizer struct {
	out PacketWriter
	rep reporter
}

func (r *rawIPRecognizer) Name() string { return NameRawIP }

func (r *rawIPRecognizer) Recognize(w core.Window, off int) (core.CarveResult, error) {
	hdr, ok := decoder.ParseGenericHeader(w, off)
	if !ok || !hdr.ChecksumValid {
		return core.NotRecognized, nil
	}

	n := hdr.TotalLen()
	if avail := w.Remaining(off); n > avail {
		n = avail
	}
	packet, err := w.Bytes(off, n)
	if err != nil {
		return core.NotRecognized, nil
	}

	if err := r.rep.ip(w, off, hdr); err != nil {
		return core.NotRecognized, err
	}

	link := decoder.PlaceholderEthernet(decoder.EtherTypeFor(hdr.Family))
	frame := make([]byte, 0, len(link)+n)
	frame = append(frame, link[:]...)
	frame = append(frame, packet...)
	size := uint32(len(frame))
	if err := r.out.Write(core.PcapRecordHeader{CapLen: size, PktLen: size}, frame, false, 0); err != nil {
		return core.NotRecognized, err
	}
	return core.Recognized(n, true), nil
}
