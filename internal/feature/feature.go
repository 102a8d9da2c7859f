// Package feature records the (offset, value, context) triples the carver
// reports for every packet it recognizes.
package feature

import (
	"errors"
	"strings"
)

// Feature is one observation. Offset is absolute within the scanned image.
type Feature struct {
	Kind    string
	Offset  int64
	Value   string
	Context string
}

// Recorder receives features. Implementations are safe for concurrent use.
type Recorder interface {
	Record(f Feature) error
}

// Multi fans a feature out to every recorder.
type Multi []Recorder

// Record passes f to every recorder and joins their errors.
func (m Multi) Record(f Feature) error {
	var errs []error
	for _, r := range m {
		if err := r.Record(f); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Discard drops every feature.
var Discard Recorder = discard{}

type discard struct{}

func (discard) Record(Feature) error { return nil }

// Escape makes s safe for one tab-separated field: control bytes, tab,
// backslash and bytes >= 0x7f become \xHH.
func Escape(s string) string {
	clean := true
	for i := 0; i < len(s); i++ {
		if needsEscape(s[i]) {
			clean = false
			break
		}
	}
	if clean {
		return s
	}

	const hex = "0123456789ABCDEF"
	var b strings.Builder
	b.Grow(len(s) + 8)
	for i := 0; i < len(s); i++ {
		c := s[i]
		if !needsEscape(c) {
			b.WriteByte(c)
			continue
		}
		b.WriteString(`\x`)
		b.WriteByte(hex[c>>4])
		b.WriteByte(hex[c&0x0f])
	}
	return b.String()
}

func needsEscape(c byte) bool {
	return c < 0x20 || c >= 0x7f || c == '\\'
}
