package image

import (
	"errors"
	"fmt"
	"io"
	"sync"

	"firestige.xyz/netcarve/internal/core"
)

// Page is one scan unit: PageLen owned bytes followed by up to margin bytes
// of the next page.
type Page struct {
	Index   int
	Offset  int64 // absolute offset of Data[0]
	Data    []byte
	PageLen int
}

// Window returns the bounds-checked view the carver scans.
func (p Page) Window() core.Window {
	return core.NewPagedWindow(p.Data, p.Offset, p.PageLen)
}

// Pager cuts an image into consecutive pages. Next is safe for concurrent
// use.
type Pager struct {
	img      Image
	pageSize int
	margin   int

	mu    sync.Mutex
	next  int64
	index int
}

// NewPager returns a pager over img.
func NewPager(img Image, pageSize, margin int) (*Pager, error) {
	if pageSize <= 0 {
		return nil, fmt.Errorf("page size must be positive, got %d: %w", pageSize, core.ErrConfigInvalid)
	}
	if margin < 0 {
		return nil, fmt.Errorf("margin must not be negative, got %d: %w", margin, core.ErrConfigInvalid)
	}
	return &Pager{img: img, pageSize: pageSize, margin: margin}, nil
}

// Pages returns how many pages the image yields.
func (p *Pager) Pages() int {
	size := p.img.Size()
	return int((size + int64(p.pageSize) - 1) / int64(p.pageSize))
}

// Next reads the following page. It returns io.EOF after the last one.
func (p *Pager) Next() (Page, error) {
	p.mu.Lock()
	off, index := p.next, p.index
	if off >= p.img.Size() {
		p.mu.Unlock()
		return Page{}, io.EOF
	}
	p.next += int64(p.pageSize)
	p.index++
	p.mu.Unlock()

	pageLen := int64(p.pageSize)
	if left := p.img.Size() - off; pageLen > left {
		pageLen = left
	}
	total := pageLen + int64(p.margin)
	if left := p.img.Size() - off; total > left {
		total = left
	}

	data := make([]byte, total)
	n, err := p.img.ReadAt(data, off)
	if err != nil && !(errors.Is(err, io.EOF) && int64(n) == total) {
		return Page{}, fmt.Errorf("read page %d at %d of %s: %w", index, off, p.img.Name(), err)
	}
	return Page{Index: index, Offset: off, Data: data, PageLen: int(pageLen)}, nil
}
