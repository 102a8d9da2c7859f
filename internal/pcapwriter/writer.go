// Package pcapwriter serializes carved packets into a single pcap savefile
// shared by every carving goroutine of a run.
package pcapwriter

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcapgo"

	"firestige.xyz/netcarve/internal/core"
	"firestige.xyz/netcarve/internal/core/decoder"
)

const (
	// SnapLen is the snapshot length advertised in the global header.
	SnapLen = 65535

	forgedHeaderLen = decoder.EthernetHeaderLen
)

var zeroHeader [forgedHeaderLen]byte

// Opener creates the output stream on first use.
type Opener func() (io.WriteCloser, error)

// FileOpener returns an Opener that truncates and creates path.
func FileOpener(path string) Opener {
	return func() (io.WriteCloser, error) {
		return os.Create(path)
	}
}

// Writer is the run-wide pcap output. Every method is safe for concurrent
// use; all bytes of one record are written under one lock acquisition.
type Writer struct {
	mu      sync.Mutex
	open    Opener
	out     io.WriteCloser
	buf     *bufio.Writer
	pw      *pcapgo.Writer
	records uint64
	scratch []byte
}

// New returns a Writer that creates path when the first record arrives.
func New(path string) *Writer {
	return NewWithOpener(FileOpener(path))
}

// NewWithOpener returns a Writer backed by the given opener.
func NewWithOpener(open Opener) *Writer {
	return &Writer{open: open}
}

// Write appends one record. When addFrame is set and the enlarged record
// still fits the snapshot length, a placeholder Ethernet header carrying
// etherType is prepended and both lengths grow by 14.
func (w *Writer) Write(hdr core.PcapRecordHeader, payload []byte, addFrame bool, etherType uint16) error {
	if uint32(len(payload)) != hdr.CapLen {
		return fmt.Errorf("payload is %d bytes, header declares %d", len(payload), hdr.CapLen)
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if err := w.ensureOpen(); err != nil {
		return err
	}

	forged := 0
	if addFrame && int(hdr.CapLen)+forgedHeaderLen <= SnapLen {
		forged = forgedHeaderLen
	}

	data := payload
	if forged > 0 {
		w.scratch = append(w.scratch[:0], zeroHeader[:]...)
		w.scratch[12] = byte(etherType >> 8)
		w.scratch[13] = byte(etherType)
		w.scratch = append(w.scratch, payload...)
		data = w.scratch
	}

	ci := gopacket.CaptureInfo{
		Timestamp:     time.Unix(int64(hdr.Seconds), int64(hdr.Microseconds)*int64(time.Microsecond)),
		CaptureLength: int(hdr.CapLen) + forged,
		Length:        int(hdr.PktLen) + forged,
	}
	if err := w.pw.WritePacket(ci, data); err != nil {
		return fmt.Errorf("write record: %v: %w", err, core.ErrOutputIO)
	}
	w.records++
	return nil
}

// WriteFrame stores an already framed Ethernet packet with a zero timestamp.
func (w *Writer) WriteFrame(frame []byte) error {
	n := uint32(len(frame))
	return w.Write(core.PcapRecordHeader{CapLen: n, PktLen: n}, frame, false, 0)
}

// Records returns how many records have been written.
func (w *Writer) Records() uint64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.records
}

// Opened reports whether the output has been created.
func (w *Writer) Opened() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.out != nil
}

// Close flushes and closes the output. A Writer that never received a
// record creates no file.
func (w *Writer) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.out == nil {
		return nil
	}
	flushErr := w.flushLocked()
	closeErr := w.out.Close()
	w.out, w.buf, w.pw = nil, nil, nil
	if flushErr != nil {
		return flushErr
	}
	if closeErr != nil {
		return fmt.Errorf("close pcap output: %v: %w", closeErr, core.ErrOutputIO)
	}
	return nil
}

func (w *Writer) ensureOpen() error {
	if w.pw != nil {
		return nil
	}
	out, err := w.open()
	if err != nil {
		return fmt.Errorf("create pcap output: %v: %w", err, core.ErrOutputIO)
	}
	buf := bufio.NewWriter(out)
	pw := pcapgo.NewWriter(buf)
	if err := pw.WriteFileHeader(SnapLen, layers.LinkTypeEthernet); err != nil {
		out.Close()
		return fmt.Errorf("write pcap header: %v: %w", err, core.ErrOutputIO)
	}
	w.out, w.buf, w.pw = out, buf, pw
	return nil
}

func (w *Writer) flushLocked() error {
	if w.buf == nil {
		return nil
	}
	if err := w.buf.Flush(); err != nil {
		return fmt.Errorf("flush pcap output: %v: %w", err, core.ErrOutputIO)
	}
	return nil
}
