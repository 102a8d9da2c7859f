package carver

import (
	"fmt"

	"firestige.xyz/netcarve/internal/core"
	"firestige.xyz/netcarve/internal/core/decoder"
	"firestige.xyz/netcarve/internal/feature"
)

// reporter turns carved headers into feature triples.
type reporter struct {
	features feature.Recorder
}

func (r reporter) record(kind string, off int64, value, context string) error {
	if r.features == nil {
		return nil
	}
	return r.features.Record(feature.Feature{Kind: kind, Offset: off, Value: value, Context: context})
}

// ip reports both addresses of the header at off, then its flow line.
func (r reporter) ip(w core.Window, off int, hdr core.GenericIPHeader) error {
	structName := "struct ip"
	if hdr.Family == core.FamilyIPv6 {
		structName = "struct ip6"
	}
	srcLabel, dstLabel := core.LabelRemote, core.LabelLocal
	if decoder.IsPowerOfTwoTTL(hdr.TTL) {
		srcLabel, dstLabel = core.LabelLocal, core.LabelRemote
	}
	cksum := core.ChecksumLabel(hdr.ChecksumValid)
	abs := w.Abs(off)

	if plausibleAddr(hdr.Family, hdr.Src) {
		ctx := fmt.Sprintf("%s %s (src) %s", structName, srcLabel, cksum)
		if err := r.record(core.FeatureIP, abs, hdr.SrcAddr().String(), ctx); err != nil {
			return err
		}
	}
	if plausibleAddr(hdr.Family, hdr.Dst) {
		ctx := fmt.Sprintf("%s %s (dst) %s", structName, dstLabel, cksum)
		if err := r.record(core.FeatureIP, abs, hdr.DstAddr().String(), ctx); err != nil {
			return err
		}
	}
	if flow, ok := decoder.FlowSummary(w, off, hdr); ok {
		return r.record(core.FeatureTCP, abs, flow, structName+" "+cksum)
	}
	return nil
}

// ether reports the destination then the source MAC of the frame at off.
func (r reporter) ether(w core.Window, off int, eth decoder.EthernetHeader) error {
	abs := w.Abs(off)
	if !decoder.InvalidMAC(eth.DstMAC) {
		if err := r.record(core.FeatureEther, abs, decoder.FormatMAC(eth.DstMAC), core.LabelEtherDst); err != nil {
			return err
		}
	}
	if !decoder.InvalidMAC(eth.SrcMAC) {
		if err := r.record(core.FeatureEther, abs, decoder.FormatMAC(eth.SrcMAC), core.LabelEtherSrc); err != nil {
			return err
		}
	}
	return nil
}

// payload reports whatever packet a pcap record carries: a bare IP packet
// or an Ethernet frame around one. It returns the family of a bare IP
// payload so the caller can forge a link header for it.
func (r reporter) payload(w core.Window, off, n int) (core.Family, bool, error) {
	body := w.Slice(off).Truncate(n)
	if hdr, ok := decoder.ParseGenericHeader(body, 0); ok {
		return hdr.Family, true, r.ip(body, 0, hdr)
	}

	eth, err := decoder.DecodeEthernet(body, 0)
	if err != nil {
		return 0, false, nil
	}
	family, ok := decoder.FamilyFor(eth.EtherType)
	if !ok {
		return 0, false, nil
	}
	hdr, ok := decoder.ParseGenericHeader(body, decoder.EthernetHeaderLen)
	if !ok || hdr.Family != family {
		return 0, false, nil
	}
	if err := r.ether(body, 0, eth); err != nil {
		return 0, false, err
	}
	return 0, false, r.ip(body, decoder.EthernetHeaderLen, hdr)
}

func plausibleAddr(f core.Family, a [16]byte) bool {
	if f == core.FamilyIPv4 {
		return !decoder.InvalidIPv4([4]byte(a[12:16]))
	}
	return !decoder.InvalidIPv6(a)
}
