// Package carver finds network traffic in unstructured bytes: embedded pcap
// files, pcap records, Ethernet frames and bare IP packets, plus optional
// in-memory socket structures.
package carver

import (
	"fmt"

	"firestige.xyz/netcarve/internal/core"
	"firestige.xyz/netcarve/internal/feature"
)

// Recognizer tests for one kind of structure at off. A recognizer must not
// keep per-call state; the same value is shared by every scanning goroutine.
// A returned error is fatal to the run.
type Recognizer interface {
	Name() string
	Recognize(w core.Window, off int) (core.CarveResult, error)
}

// PacketWriter stores carved packets. *pcapwriter.Writer implements it.
type PacketWriter interface {
	Write(hdr core.PcapRecordHeader, payload []byte, addFrame bool, etherType uint16) error
}

// Recognizer names, also used as metric labels.
const (
	NamePcapFile   = "pcap_file"
	NamePcapRecord = "pcap_record"
	NameEthernet   = "ethernet"
	NameRawIP      = "raw_ip"
	NameSockaddrIn = "sockaddr_in"
	NameTCPT       = "tcpt"
)

// Carver runs an ordered recognizer battery over scan windows.
type Carver struct {
	recognizers []Recognizer
}

// New builds the standard battery. Order matters: wrapped structures are
// tried before the bare packets they contain.
func New(opts Options, out PacketWriter, features feature.Recorder) *Carver {
	rep := reporter{features: features}
	rs := []Recognizer{
		&pcapFileRecognizer{opts: opts, out: out, rep: rep},
		&pcapRecordRecognizer{opts: opts, out: out, rep: rep},
		&ethernetRecognizer{opts: opts, out: out, rep: rep},
		&rawIPRecognizer{out: out, rep: rep},
	}
	if opts.CarveNetMemory {
		rs = append(rs,
			&sockaddrInRecognizer{rep: rep},
			&tcptRecognizer{rep: rep},
		)
	}
	return NewWithRecognizers(rs...)
}

// NewWithRecognizers builds a carver over an explicit battery.
func NewWithRecognizers(rs ...Recognizer) *Carver {
	return &Carver{recognizers: rs}
}

// Recognizers returns the battery in evaluation order.
func (c *Carver) Recognizers() []Recognizer {
	return append([]Recognizer(nil), c.recognizers...)
}

// Scan walks a cursor over the page region of w. Recognizers may read into
// the margin. On a match the cursor skips the consumed bytes, otherwise it
// advances by one.
func (c *Carver) Scan(w core.Window) (Stats, error) {
	stats := newStats()
	pageLen := w.PageLen()

	for i := 0; i < pageLen; {
		res, name, err := c.recognize(w, i)
		if err != nil {
			return stats, fmt.Errorf("%s at offset %d: %w", name, w.Abs(i), err)
		}
		if !res.Recognized {
			i++
			continue
		}

		stats.Carved[name]++
		if res.Written {
			stats.Written++
		}
		if res.Consumed > 0 {
			i += res.Consumed
		} else {
			i++
		}
	}

	stats.Bytes = int64(pageLen)
	return stats, nil
}

func (c *Carver) recognize(w core.Window, off int) (core.CarveResult, string, error) {
	for _, r := range c.recognizers {
		res, err := r.Recognize(w, off)
		if err != nil || res.Recognized {
			return res, r.Name(), err
		}
	}
	return core.NotRecognized, "", nil
}
