package carver

import (
	"bytes"
	"time"

	"github.com/google/gopacket/layers"

	"firestige.xyz/netcarve/internal/core"
	"firestige.xyz/netcarve/internal/core/decoder"
)

const (
	pcapGlobalHeaderLen = 24
	pcapLinkTypeOff     = 20

	minRecordLen = 20
	maxRecordLen = 65535
)

// pcapSignature is the little-endian microsecond magic followed by
// version 2.4.
var pcapSignature = []byte{0xd4, 0xc3, 0xb2, 0xa1, 0x02, 0x00, 0x04, 0x00}

// validRecordHeader applies the record plausibility rules.
func validRecordHeader(hdr core.PcapRecordHeader, opts Options) bool {
	if hdr.Seconds == 0 || hdr.Microseconds >= 1_000_000 {
		return false
	}
	ts := time.Unix(int64(hdr.Seconds), 0)
	if ts.Before(opts.PcapTimeMin) || !ts.Before(opts.PcapTimeMax) {
		return false
	}
	if hdr.CapLen < minRecordLen || hdr.CapLen > maxRecordLen {
		return false
	}
	if hdr.PktLen < minRecordLen || hdr.PktLen > maxRecordLen {
		return false
	}
	return hdr.CapLen <= hdr.PktLen
}

// readRecord parses the record at off and checks that its payload is inside
// the window.
func readRecord(w core.Window, off int, opts Options) (core.PcapRecordHeader, bool) {
	hdr, err := core.ParsePcapRecordHeader(w, off)
	if err != nil || !validRecordHeader(hdr, opts) {
		return hdr, false
	}
	return hdr, w.Has(off+core.PcapRecordHeaderLen, int(hdr.CapLen))
}

// writeRecord stores the record at off. Bare IP payloads get a forged
// Ethernet header when forge is set; everything else is copied verbatim.
func writeRecord(w core.Window, off int, hdr core.PcapRecordHeader, forge bool, out PacketWriter, rep reporter) error {
	payloadOff := off + core.PcapRecordHeaderLen
	payload, err := w.Bytes(payloadOff, int(hdr.CapLen))
	if err != nil {
		return nil
	}
	family, bare, err := rep.payload(w, payloadOff, int(hdr.CapLen))
	if err != nil {
		return err
	}
	if forge && bare {
		return out.Write(hdr, payload, true, decoder.EtherTypeFor(family))
	}
	return out.Write(hdr, payload, false, 0)
}

// pcapFileRecognizer carves a whole embedded savefile: the global header and
// every following record up to the first implausible one.
type pcapFileRecognizer struct {
	opts Options
	out  PacketWriter
	rep  reporter
}

func (r *pcapFileRecognizer) Name() string { return NamePcapFile }

func (r *pcapFileRecognizer) Recognize(w core.Window, off int) (core.CarveResult, error) {
	sig, err := w.Bytes(off, len(pcapSignature))
	if err != nil || !bytes.Equal(sig, pcapSignature) {
		return core.NotRecognized, nil
	}
	linkType, err := w.LE32(off + pcapLinkTypeOff)
	if err != nil {
		return core.NotRecognized, nil
	}
	// Records already framed as Ethernet are kept as they are.
	forge := linkType != uint32(layers.LinkTypeEthernet)

	pos := off + pcapGlobalHeaderLen
	written := false
	for {
		hdr, ok := readRecord(w, pos, r.opts)
		if !ok {
			break
		}
		if err := writeRecord(w, pos, hdr, forge, r.out, r.rep); err != nil {
			return core.NotRecognized, err
		}
		written = true
		pos += core.PcapRecordHeaderLen + int(hdr.CapLen)
	}
	return core.Recognized(pos-off, written), nil
}

// pcapRecordRecognizer carves a lone record, typically one whose file header
// was overwritten. One record of lookahead keeps a single coincidental
// 16-byte match out.
type pcapRecordRecognizer struct {
	opts Options
	out  PacketWriter
	rep  reporter
}

func (r *pcapRecordRecognizer) Name() string { return NamePcapRecord }

func (r *pcapRecordRecognizer) Recognize(w core.Window, off int) (core.CarveResult, error) {
	hdr, ok := readRecord(w, off, r.opts)
	if !ok {
		return core.NotRecognized, nil
	}

	next := off + core.PcapRecordHeaderLen + int(hdr.CapLen)
	if w.Remaining(next) > 0 {
		nextHdr, err := core.ParsePcapRecordHeader(w, next)
		if err != nil || !validRecordHeader(nextHdr, r.opts) {
			return core.NotRecognized, nil
		}
	}

	if err := writeRecord(w, off, hdr, true, r.out, r.rep); err != nil {
		return core.NotRecognized, err
	}
	return core.Recognized(next-off, true), nil
}
