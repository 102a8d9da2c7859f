// Package image opens disk and memory images and cuts them into overlapping
// pages for the carver.
package image

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"firestige.xyz/netcarve/internal/core"
)

// Image is a random-access byte source.
type Image interface {
	io.ReaderAt
	io.Closer
	Name() string
	Size() int64
}

// Open opens a raw image. A path ending in a numeric extension such as
// disk.000 or disk.001 is treated as the first segment of a split raw
// image, and every following segment is opened with it.
func Open(path string) (Image, error) {
	segments, err := splitSegments(path)
	if err != nil {
		return nil, err
	}
	if len(segments) == 0 {
		segments = []string{path}
	}

	img := &rawImage{name: path}
	for _, seg := range segments {
		f, err := os.Open(seg)
		if err != nil {
			img.Close()
			return nil, fmt.Errorf("open %s: %v: %w", seg, err, core.ErrImageOpen)
		}
		st, err := f.Stat()
		if err != nil {
			f.Close()
			img.Close()
			return nil, fmt.Errorf("stat %s: %v: %w", seg, err, core.ErrImageOpen)
		}
		if st.IsDir() {
			f.Close()
			img.Close()
			return nil, fmt.Errorf("%s is a directory: %w", seg, core.ErrImageOpen)
		}
		img.segments = append(img.segments, segment{r: f, c: f, start: img.size, size: st.Size()})
		img.size += st.Size()
	}
	if img.size == 0 {
		img.Close()
		return nil, fmt.Errorf("%s: %w", path, core.ErrImageEmpty)
	}
	return img, nil
}

// FromBytes wraps an in-memory buffer as an image.
func FromBytes(name string, data []byte) Image {
	r := bytes.NewReader(data)
	return &rawImage{
		name:     name,
		size:     int64(len(data)),
		segments: []segment{{r: r, size: int64(len(data))}},
	}
}

// splitSegments lists name.NNN, name.NNN+1, ... starting from path when its
// extension is numeric. It returns nil for ordinary files.
func splitSegments(path string) ([]string, error) {
	ext := filepath.Ext(path)
	if len(ext) < 4 {
		return nil, nil
	}
	digits := ext[1:]
	first, err := strconv.Atoi(digits)
	if err != nil || first > 1 {
		return nil, nil
	}
	stem := strings.TrimSuffix(path, ext)

	var segments []string
	for n := first; ; n++ {
		seg := fmt.Sprintf("%s.%0*d", stem, len(digits), n)
		if _, err := os.Stat(seg); err != nil {
			if errors.Is(err, os.ErrNotExist) {
				break
			}
			return nil, fmt.Errorf("stat %s: %v: %w", seg, err, core.ErrImageOpen)
		}
		segments = append(segments, seg)
	}
	return segments, nil
}

type segment struct {
	r     io.ReaderAt
	c     io.Closer
	start int64
	size  int64
}

// rawImage concatenates one or more segments.
type rawImage struct {
	name     string
	size     int64
	segments []segment
}

func (img *rawImage) Name() string { return img.name }
func (img *rawImage) Size() int64  { return img.size }

// ReadAt reads across segment boundaries.
func (img *rawImage) ReadAt(p []byte, off int64) (int, error) {
	if off < 0 {
		return 0, fmt.Errorf("negative offset %d", off)
	}
	if off >= img.size {
		return 0, io.EOF
	}

	i := sort.Search(len(img.segments), func(i int) bool {
		s := img.segments[i]
		return s.start+s.size > off
	})

	n := 0
	for ; i < len(img.segments) && n < len(p); i++ {
		s := img.segments[i]
		rel := off + int64(n) - s.start
		want := p[n:]
		if left := s.size - rel; int64(len(want)) > left {
			want = want[:left]
		}
		m, err := s.r.ReadAt(want, rel)
		n += m
		if err != nil && !(errors.Is(err, io.EOF) && m == len(want)) {
			return n, err
		}
	}
	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}

func (img *rawImage) Close() error {
	var first error
	for _, s := range img.segments {
		if s.c == nil {
			continue
		}
		if err := s.c.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}
