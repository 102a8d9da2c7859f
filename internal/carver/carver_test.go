package carver

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/google/gopacket/layers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"firestige.xyz/netcarve/internal/core"
	"firestige.xyz/netcarve/internal/feature"
	"firestige.xyz/netcarve/internal/pcapwriter"
	"firestige.xyz/netcarve/internal/testutil"
)

const testBase = 4096

type nopCloser struct{ *bytes.Buffer }

func (nopCloser) Close() error { return nil }

type harness struct {
	buf      *bytes.Buffer
	out      *pcapwriter.Writer
	features *feature.MemoryRecorder
	carver   *Carver
}

func newHarness(opts Options) *harness {
	h := &harness{buf: &bytes.Buffer{}, features: feature.NewMemoryRecorder()}
	h.out = pcapwriter.NewWithOpener(func() (io.WriteCloser, error) { return nopCloser{h.buf}, nil })
	h.carver = New(opts, h.out, h.features)
	return h
}

func (h *harness) scan(t *testing.T, data []byte) Stats {
	t.Helper()
	stats, err := h.carver.Scan(core.NewWindow(data, testBase))
	require.NoError(t, err)
	return stats
}

// output closes the writer and returns the savefile bytes and its records.
func (h *harness) output(t *testing.T) ([]byte, []testutil.Record) {
	t.Helper()
	require.NoError(t, h.out.Close())
	if h.buf.Len() == 0 {
		return nil, nil
	}
	_, records := testutil.ReadPcap(t, h.buf.Bytes())
	return h.buf.Bytes(), records
}

var (
	macA = [6]byte{0x2c, 0xf0, 0xa2, 0xf3, 0xa8, 0xee}
	macB = [6]byte{0x00, 0x50, 0xe8, 0x04, 0x77, 0x4b}
	ts   = time.Date(2010, 6, 1, 12, 30, 0, 250_000_000, time.UTC)
)

func TestBatteryOrder(t *testing.T) {
	names := func(c *Carver) []string {
		var out []string
		for _, r := range c.Recognizers() {
			out = append(out, r.Name())
		}
		return out
	}

	c := New(DefaultOptions(), nil, nil)
	assert.Equal(t, []string{NamePcapFile, NamePcapRecord, NameEthernet, NameRawIP}, names(c))

	opts := DefaultOptions()
	opts.CarveNetMemory = true
	c = New(opts, nil, nil)
	assert.Equal(t, []string{NamePcapFile, NamePcapRecord, NameEthernet, NameRawIP, NameSockaddrIn, NameTCPT}, names(c))
}

// stepRecognizer matches at fixed offsets and remembers every probe.
type stepRecognizer struct {
	matches map[int]int
	probed  []int
}

func (s *stepRecognizer) Name() string { return "step" }

func (s *stepRecognizer) Recognize(w core.Window, off int) (core.CarveResult, error) {
	s.probed = append(s.probed, off)
	if n, ok := s.matches[off]; ok {
		return core.Recognized(n, false), nil
	}
	return core.NotRecognized, nil
}

func TestScanCursor(t *testing.T) {
	step := &stepRecognizer{matches: map[int]int{2: 5, 8: 0}}
	c := NewWithRecognizers(step)

	stats, err := c.Scan(core.NewPagedWindow(make([]byte, 20), 0, 10))
	require.NoError(t, err)

	assert.Equal(t, []int{0, 1, 2, 7, 8, 9}, step.probed, "match skips consumed bytes, page end stops the walk")
	assert.Equal(t, uint64(2), stats.Carved["step"])
	assert.Equal(t, uint64(0), stats.Written)
	assert.Equal(t, int64(10), stats.Bytes)
}

type failingRecognizer struct{}

func (failingRecognizer) Name() string { return "failing" }
func (failingRecognizer) Recognize(core.Window, int) (core.CarveResult, error) {
	return core.NotRecognized, core.ErrOutputIO
}

func TestScanStopsOnError(t *testing.T) {
	c := NewWithRecognizers(failingRecognizer{})
	_, err := c.Scan(core.NewWindow(make([]byte, 4), 100))
	require.Error(t, err)
	assert.True(t, errors.Is(err, core.ErrOutputIO))
	assert.Contains(t, err.Error(), "failing at offset 100")
}

func TestSampleFrameAtUnalignedOffset(t *testing.T) {
	const off = 131
	h := newHarness(DefaultOptions())
	stats := h.scan(t, testutil.Embed(512, off, testutil.SampleTCPv4Frame))

	assert.Equal(t, uint64(1), stats.Total())
	assert.Equal(t, uint64(1), stats.Carved[NameEthernet])
	assert.Equal(t, uint64(1), stats.Written)

	_, records := h.output(t)
	require.Len(t, records, 1)
	assert.Equal(t, testutil.SampleTCPv4Frame, records[0].Data)
	assert.Equal(t, int64(0), records[0].Time.Unix())

	ipOff := int64(testBase + off + 14)
	assert.Equal(t, []feature.Feature{
		{Kind: core.FeatureIP, Offset: ipOff, Value: "172.20.0.185", Context: "struct ip L (src) cksum-ok"},
		{Kind: core.FeatureIP, Offset: ipOff, Value: "172.217.165.132", Context: "struct ip R (dst) cksum-ok"},
	}, h.features.ByKind(core.FeatureIP))
	assert.Equal(t, []string{"00:50:e8:04:77:4b", "2c:f0:a2:f3:a8:ee"}, h.features.Values(core.FeatureEther))
	assert.Equal(t, []string{"172.20.0.185:59910 -> 172.217.165.132:80 (TCPv4) Size: 64"}, h.features.Values(core.FeatureTCP))
}

func TestSampleFrameBadChecksum(t *testing.T) {
	frame := append([]byte(nil), testutil.SampleTCPv4Frame...)
	frame[33]++ // last octet of the destination address

	h := newHarness(DefaultOptions())
	stats := h.scan(t, testutil.Embed(512, 77, frame))
	assert.Equal(t, uint64(0), stats.Total(), "framed packet with a bad checksum is dropped by default")
	assert.False(t, h.out.Opened())
	assert.Empty(t, h.features.Features())

	opts := DefaultOptions()
	opts.ReportChecksumBad = true
	h = newHarness(opts)
	stats = h.scan(t, testutil.Embed(512, 77, frame))
	assert.Equal(t, uint64(1), stats.Carved[NameEthernet])
	assert.Equal(t, []string{"struct ip L (src) cksum-bad", "struct ip R (dst) cksum-bad"}, contexts(h.features.ByKind(core.FeatureIP)))
	assert.Equal(t, "172.217.165.133", h.features.ByKind(core.FeatureIP)[1].Value)

	_, records := h.output(t)
	require.Len(t, records, 1)
	assert.Equal(t, frame, records[0].Data)
}

func TestSampleFrameCorruptHeaderLength(t *testing.T) {
	frame := append([]byte(nil), testutil.SampleTCPv4Frame...)
	frame[14] = 0x46

	opts := DefaultOptions()
	opts.ReportChecksumBad = true
	h := newHarness(opts)
	stats := h.scan(t, testutil.Embed(512, 33, frame))
	assert.Equal(t, uint64(0), stats.Total())
	assert.Empty(t, h.features.Features())
}

func TestFrameTruncatedAtWindowEnd(t *testing.T) {
	data := append(testutil.Noise(20), testutil.SampleTCPv4Frame[:60]...)

	h := newHarness(DefaultOptions())
	stats := h.scan(t, data)
	require.Equal(t, uint64(1), stats.Carved[NameEthernet])

	_, records := h.output(t)
	require.Len(t, records, 1)
	assert.Equal(t, testutil.SampleTCPv4Frame[:60], records[0].Data, "frame is clamped to the available bytes")
}

func TestPageOwnership(t *testing.T) {
	data := append(testutil.Noise(100), testutil.SampleTCPv4Frame...)
	data = append(data, testutil.Noise(40)...)

	h := newHarness(DefaultOptions())
	stats, err := h.carver.Scan(core.NewPagedWindow(data, 0, 100))
	require.NoError(t, err)
	assert.Equal(t, uint64(0), stats.Total(), "a frame starting in the margin belongs to the next page")

	h = newHarness(DefaultOptions())
	stats, err = h.carver.Scan(core.NewPagedWindow(data, 0, 101))
	require.NoError(t, err)
	assert.Equal(t, uint64(1), stats.Total())
	_, records := h.output(t)
	require.Len(t, records, 1)
	assert.Equal(t, testutil.SampleTCPv4Frame, records[0].Data, "reads run into the margin")
}

func TestPcapFileRoundTrip(t *testing.T) {
	udp := testutil.IPv4UDP(t, "10.1.2.3", "192.168.7.9", 64, 5353, 53, []byte("netcarve query"))
	tcp6 := testutil.IPv6TCP(t, "2001:db8::1", "2001:db8::2", 40000, 443, []byte("hello"))
	file := testutil.PcapFile(t, layers.LinkTypeEthernet,
		testutil.Record{Time: ts, Data: testutil.SampleTCPv4Frame},
		testutil.Record{Time: ts.Add(time.Second), Data: testutil.Ethernet(macA, macB, 0x0800, udp)},
		testutil.Record{Time: ts.Add(2 * time.Second), Data: testutil.Ethernet(macB, macA, 0x86dd, tcp6)},
	)

	h := newHarness(DefaultOptions())
	stats := h.scan(t, testutil.Embed(len(file)+300, 77, file))

	assert.Equal(t, uint64(1), stats.Total())
	assert.Equal(t, uint64(1), stats.Carved[NamePcapFile])

	out, records := h.output(t)
	assert.Equal(t, file, out, "embedded savefile is reproduced byte for byte")
	require.Len(t, records, 3)
	assert.Equal(t, ts.UnixMicro(), records[0].Time.UnixMicro())

	assert.Contains(t, h.features.Values(core.FeatureIP), "10.1.2.3")
	assert.Contains(t, h.features.Values(core.FeatureIP), "2001:db8::2")
	assert.Contains(t, h.features.Values(core.FeatureTCP), "10.1.2.3:5353 -> 192.168.7.9:53 (UDPv4) Size: 42")
}

func TestPcapFileRawLinkTypeForgesFrames(t *testing.T) {
	udp := testutil.IPv4UDP(t, "10.1.2.3", "192.168.7.9", 128, 5353, 53, []byte("payload"))
	file := testutil.PcapFile(t, layers.LinkTypeRaw, testutil.Record{Time: ts, Data: udp})

	h := newHarness(DefaultOptions())
	stats := h.scan(t, testutil.Embed(len(file)+64, 12, file))
	require.Equal(t, uint64(1), stats.Carved[NamePcapFile])

	_, records := h.output(t)
	require.Len(t, records, 1)
	want := append(make([]byte, 12), 0x08, 0x00)
	assert.Equal(t, append(want, udp...), records[0].Data)
}

func TestPcapFileWithoutRecords(t *testing.T) {
	file := testutil.PcapFile(t, layers.LinkTypeEthernet)

	h := newHarness(DefaultOptions())
	stats := h.scan(t, testutil.Embed(128, 40, file))
	assert.Equal(t, uint64(1), stats.Carved[NamePcapFile])
	assert.Equal(t, uint64(0), stats.Written)
	assert.False(t, h.out.Opened())
}

func TestPcapRecordForgesFrame(t *testing.T) {
	udp := testutil.IPv4UDP(t, "10.1.2.3", "192.168.7.9", 64, 5353, 53, []byte("netcarve"))
	rec := testutil.PcapRecord(t, ts, udp)
	data := append(testutil.Noise(64), rec...) // end of buffer satisfies the lookahead

	h := newHarness(DefaultOptions())
	stats := h.scan(t, data)
	assert.Equal(t, uint64(1), stats.Total())
	assert.Equal(t, uint64(1), stats.Carved[NamePcapRecord])

	out, records := h.output(t)
	require.Len(t, records, 1)
	assert.Equal(t, ts.UnixMicro(), records[0].Time.UnixMicro())
	assert.Equal(t, append([]byte{0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0x08, 0x00}, udp...), records[0].Data)

	recHdr := out[24:40]
	assert.Equal(t, uint32(len(udp)+14), binary.LittleEndian.Uint32(recHdr[8:]))
	assert.Equal(t, uint32(len(udp)+14), binary.LittleEndian.Uint32(recHdr[12:]))
	assert.Equal(t, []string{"10.1.2.3", "192.168.7.9"}, h.features.Values(core.FeatureIP))
}

func TestPcapRecordLookahead(t *testing.T) {
	udp := testutil.IPv4UDP(t, "10.1.2.3", "192.168.7.9", 64, 5353, 53, []byte("netcarve"))

	// A lone record followed by noise is not trusted; its packet is still
	// found by the bare IP recognizer.
	lone := append(testutil.Noise(64), testutil.PcapRecord(t, ts, udp)...)
	lone = append(lone, testutil.Noise(32)...)
	h := newHarness(DefaultOptions())
	stats := h.scan(t, lone)
	assert.Equal(t, uint64(0), stats.Carved[NamePcapRecord])
	assert.Equal(t, uint64(1), stats.Carved[NameRawIP])

	// A short tail is neither end of buffer nor a record header.
	short := append(testutil.Noise(64), testutil.PcapRecord(t, ts, udp)...)
	short = append(short, testutil.Noise(8)...)
	h = newHarness(DefaultOptions())
	stats = h.scan(t, short)
	assert.Equal(t, uint64(0), stats.Carved[NamePcapRecord])
	assert.Equal(t, uint64(1), stats.Carved[NameRawIP])

	// Two chained records vouch for each other.
	chained := append(testutil.Noise(64), testutil.PcapRecord(t, ts, udp)...)
	chained = append(chained, testutil.PcapRecord(t, ts.Add(time.Second), testutil.SampleTCPv4Frame)...)
	h = newHarness(DefaultOptions())
	stats = h.scan(t, chained)
	assert.Equal(t, uint64(2), stats.Carved[NamePcapRecord])
	assert.Equal(t, uint64(2), stats.Total())

	_, records := h.output(t)
	require.Len(t, records, 2)
	assert.Equal(t, testutil.SampleTCPv4Frame, records[1].Data, "framed payload is written verbatim")
}

func TestPcapRecordTimeWindow(t *testing.T) {
	udp := testutil.IPv4UDP(t, "10.1.2.3", "192.168.7.9", 64, 5353, 53, []byte("netcarve"))
	modern := time.Date(2023, 3, 1, 0, 0, 0, 0, time.UTC)
	data := append(testutil.Noise(64), testutil.PcapRecord(t, modern, udp)...)

	h := newHarness(DefaultOptions())
	stats := h.scan(t, data)
	assert.Equal(t, uint64(0), stats.Carved[NamePcapRecord], "2023 is outside the default window")

	opts := DefaultOptions()
	opts.PcapTimeMax = time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)
	h = newHarness(opts)
	stats = h.scan(t, data)
	assert.Equal(t, uint64(1), stats.Carved[NamePcapRecord])
}

func TestValidRecordHeader(t *testing.T) {
	opts := DefaultOptions()
	good := core.PcapRecordHeader{Seconds: uint32(ts.Unix()), Microseconds: 250000, CapLen: 60, PktLen: 60}

	tests := []struct {
		name   string
		mutate func(*core.PcapRecordHeader)
		want   bool
	}{
		{"good", func(*core.PcapRecordHeader) {}, true},
		{"zero seconds", func(h *core.PcapRecordHeader) { h.Seconds = 0 }, false},
		{"before window", func(h *core.PcapRecordHeader) { h.Seconds = uint32(opts.PcapTimeMin.Unix() - 1) }, false},
		{"window start", func(h *core.PcapRecordHeader) { h.Seconds = uint32(opts.PcapTimeMin.Unix()) }, true},
		{"window end", func(h *core.PcapRecordHeader) { h.Seconds = uint32(opts.PcapTimeMax.Unix()) }, false},
		{"microseconds overflow", func(h *core.PcapRecordHeader) { h.Microseconds = 1_000_000 }, false},
		{"short capture", func(h *core.PcapRecordHeader) { h.CapLen = 19 }, false},
		{"capture larger than packet", func(h *core.PcapRecordHeader) { h.CapLen = 61 }, false},
		{"truncated capture", func(h *core.PcapRecordHeader) { h.CapLen = 20 }, true},
		{"oversized packet", func(h *core.PcapRecordHeader) { h.PktLen = 65536 }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hdr := good
			tt.mutate(&hdr)
			assert.Equal(t, tt.want, validRecordHeader(hdr, opts))
		})
	}
}

func TestRawIPv6(t *testing.T) {
	tcp6 := testutil.IPv6TCP(t, "2001:db8::1", "2001:db8::2", 40000, 443, []byte("hello"))

	h := newHarness(DefaultOptions())
	stats := h.scan(t, testutil.Embed(256, 45, tcp6))
	assert.Equal(t, uint64(1), stats.Carved[NameRawIP])
	assert.Equal(t, uint64(1), stats.Total())

	_, records := h.output(t)
	require.Len(t, records, 1)
	link := []byte{0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 0x86, 0xdd}
	assert.Equal(t, append(link, tcp6...), records[0].Data)
	assert.Equal(t, int64(0), records[0].Time.Unix())

	assert.Equal(t, []feature.Feature{
		{Kind: core.FeatureIP, Offset: testBase + 45, Value: "2001:db8::1", Context: "struct ip6 L (src) cksum-ok"},
		{Kind: core.FeatureIP, Offset: testBase + 45, Value: "2001:db8::2", Context: "struct ip6 R (dst) cksum-ok"},
	}, h.features.ByKind(core.FeatureIP))
	assert.Equal(t, []string{"[2001:db8::1]:40000 -> [2001:db8::2]:443 (TCPv6) Size: 65"}, h.features.Values(core.FeatureTCP))
}

func TestRawIPv6ChecksumMismatch(t *testing.T) {
	udp6 := testutil.IPv6UDP(t, "2001:db8::1", "2001:db8::2", 5353, 53, []byte("query"))
	udp6[len(udp6)-1] ^= 0xff

	opts := DefaultOptions()
	opts.ReportChecksumBad = true
	h := newHarness(opts)
	stats := h.scan(t, testutil.Embed(256, 9, udp6))
	assert.Equal(t, uint64(0), stats.Total(), "bare packets always need a valid checksum")
}

func TestRawICMPv6Echo(t *testing.T) {
	echo := testutil.IPv6ICMPEcho(t, "fe80::1", "ff02::1", []byte("ping"))

	h := newHarness(DefaultOptions())
	stats := h.scan(t, testutil.Embed(256, 3, echo))
	require.Equal(t, uint64(1), stats.Carved[NameRawIP])
	assert.Equal(t, []string{"fe80::1 -> ff02::1 (ICMPv6 echo request) Size: 52"}, h.features.Values(core.FeatureTCP))
}

func TestRawIPImplausibleAddress(t *testing.T) {
	udp := testutil.IPv4UDP(t, "10.1.2.3", "127.0.0.1", 64, 5353, 53, []byte("query"))

	// The packet is carved; only the loopback address is kept out of the
	// feature output.
	h := newHarness(DefaultOptions())
	stats := h.scan(t, testutil.Embed(256, 9, udp))
	assert.Equal(t, uint64(1), stats.Carved[NameRawIP])
	assert.Equal(t, uint64(1), stats.Written)
	assert.Equal(t, []string{"10.1.2.3"}, h.features.Values(core.FeatureIP))

	_, records := h.output(t)
	require.Len(t, records, 1)
	assert.Equal(t, udp, records[0].Data[14:])

	// Same behaviour behind an Ethernet header.
	frame := testutil.Ethernet(macB, macA, 0x0800, udp)
	h = newHarness(DefaultOptions())
	stats = h.scan(t, testutil.Embed(256, 9, frame))
	assert.Equal(t, uint64(1), stats.Carved[NameEthernet])
	assert.Equal(t, []string{"10.1.2.3"}, h.features.Values(core.FeatureIP))
}

func TestRawIPPrivateAddressesCarved(t *testing.T) {
	udp := testutil.IPv4UDP(t, "10.0.0.1", "10.0.0.2", 64, 40000, 53, []byte("lookup"))

	h := newHarness(DefaultOptions())
	stats := h.scan(t, testutil.Embed(256, 37, udp))
	assert.Equal(t, uint64(1), stats.Carved[NameRawIP])
	assert.Equal(t, uint64(1), stats.Written)
	assert.Empty(t, h.features.Values(core.FeatureIP), "addresses with zero middle octets are not reported")
	assert.Len(t, h.features.ByKind(core.FeatureTCP), 1)

	_, records := h.output(t)
	require.Len(t, records, 1)
	assert.Equal(t, udp, records[0].Data[14:])
}

func TestTTLLabels(t *testing.T) {
	udp := testutil.IPv4UDP(t, "10.1.2.3", "192.168.7.9", 57, 5353, 53, []byte("query"))

	h := newHarness(DefaultOptions())
	h.scan(t, testutil.Embed(256, 9, udp))
	assert.Equal(t, []string{"struct ip R (src) cksum-ok", "struct ip L (dst) cksum-ok"}, contexts(h.features.ByKind(core.FeatureIP)))
}

func sockaddrIn(port uint16, addr [4]byte) []byte {
	b := make([]byte, 16)
	binary.LittleEndian.PutUint16(b, 2)
	binary.BigEndian.PutUint16(b[2:], port)
	copy(b[4:], addr[:])
	return b
}

func tcpt(remote, local [4]byte, remotePort, localPort uint16, pid uint32) []byte {
	b := make([]byte, 0x28)
	binary.LittleEndian.PutUint32(b, 5<<16) // BlockSize 5 * 8 = 0x28
	copy(b[4:], "TCPT")
	copy(b[8+0x0c:], remote[:])
	copy(b[8+0x10:], local[:])
	binary.BigEndian.PutUint16(b[8+0x14:], remotePort)
	binary.BigEndian.PutUint16(b[8+0x16:], localPort)
	binary.LittleEndian.PutUint32(b[8+0x18:], pid)
	return b
}

func TestMemoryStructures(t *testing.T) {
	data := testutil.Noise(256)
	copy(data[21:], sockaddrIn(443, [4]byte{10, 1, 2, 3}))
	copy(data[101:], tcpt([4]byte{93, 184, 216, 34}, [4]byte{192, 168, 1, 20}, 443, 49152, 1234))

	h := newHarness(DefaultOptions())
	stats := h.scan(t, data)
	assert.Equal(t, uint64(0), stats.Total(), "memory recognizers are off by default")

	opts := DefaultOptions()
	opts.CarveNetMemory = true
	h = newHarness(opts)
	stats = h.scan(t, data)
	assert.Equal(t, uint64(1), stats.Carved[NameSockaddrIn])
	assert.Equal(t, uint64(1), stats.Carved[NameTCPT])
	assert.Equal(t, uint64(0), stats.Written)
	assert.False(t, h.out.Opened(), "memory structures never reach the pcap output")

	assert.Equal(t, []feature.Feature{
		{Kind: core.FeatureIP, Offset: testBase + 21, Value: "10.1.2.3", Context: "sockaddr_in port 443"},
		{Kind: core.FeatureIP, Offset: testBase + 101, Value: "93.184.216.34", Context: "TCPT R"},
		{Kind: core.FeatureIP, Offset: testBase + 101, Value: "192.168.1.20", Context: "TCPT L"},
	}, h.features.ByKind(core.FeatureIP))
	assert.Equal(t, []string{"192.168.1.20:49152 -> 93.184.216.34:443 (TCPT) PID: 1234"}, h.features.Values(core.FeatureTCP))
}

func TestMemoryStructuresRejected(t *testing.T) {
	opts := DefaultOptions()
	opts.CarveNetMemory = true

	tests := []struct {
		name string
		data []byte
	}{
		{"sockaddr odd port", sockaddrIn(31337, [4]byte{10, 1, 2, 3})},
		{"sockaddr loopback", sockaddrIn(80, [4]byte{127, 0, 0, 1})},
		{"sockaddr dirty padding", func() []byte { b := sockaddrIn(80, [4]byte{10, 1, 2, 3}); b[15] = 1; return b }()},
		{"tcpt odd remote port", tcpt([4]byte{93, 184, 216, 34}, [4]byte{192, 168, 1, 20}, 31337, 49152, 1)},
		{"tcpt bad block size", func() []byte {
			b := tcpt([4]byte{93, 184, 216, 34}, [4]byte{192, 168, 1, 20}, 443, 49152, 1)
			b[2] = 6
			return b
		}()},
		{"tcpt multicast local", tcpt([4]byte{93, 184, 216, 34}, [4]byte{239, 1, 2, 3}, 443, 49152, 1)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(opts)
			stats := h.scan(t, testutil.Embed(128, 16, tt.data))
			assert.Equal(t, uint64(0), stats.Total())
		})
	}
}

func TestOutputFailureAbortsScan(t *testing.T) {
	out := pcapwriter.NewWithOpener(func() (io.WriteCloser, error) { return nil, errors.New("read-only file system") })
	c := New(DefaultOptions(), out, feature.NewMemoryRecorder())

	_, err := c.Scan(core.NewWindow(testutil.Embed(256, 10, testutil.SampleTCPv4Frame), 0))
	require.Error(t, err)
	assert.True(t, errors.Is(err, core.ErrOutputIO))
}

func TestStatsAdd(t *testing.T) {
	var total Stats
	total.Add(Stats{Bytes: 10, Written: 1, Carved: map[string]uint64{NameEthernet: 1}})
	total.Add(Stats{Bytes: 5, Written: 2, Carved: map[string]uint64{NameEthernet: 1, NameRawIP: 1}})

	assert.Equal(t, int64(15), total.Bytes)
	assert.Equal(t, uint64(3), total.Written)
	assert.Equal(t, uint64(3), total.Total())
	assert.Equal(t, uint64(2), total.Carved[NameEthernet])
}

func contexts(fs []feature.Feature) []string {
	var out []string
	for _, f := range fs {
		out = append(out, f.Context)
	}
	return out
}
