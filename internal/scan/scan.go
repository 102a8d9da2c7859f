// Package scan dispatches the pages of an image to a pool of carving
// workers.
package scan

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"firestige.xyz/netcarve/internal/carver"
	"firestige.xyz/netcarve/internal/image"
	"firestige.xyz/netcarve/internal/log"
	"firestige.xyz/netcarve/internal/metrics"
)

// Options sizes the worker pool and the pages it works on.
type Options struct {
	Workers  int
	PageSize int
	Margin   int
}

// Scanner carves whole images. Pages are independent, so any number of
// workers may carve at once; the carver's outputs serialize themselves.
type Scanner struct {
	carver *carver.Carver
	opts   Options
	logger log.Logger
}

// New returns a scanner. Workers below one are treated as one.
func New(c *carver.Carver, opts Options, logger log.Logger) *Scanner {
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	if logger == nil {
		logger = log.GetLogger()
	}
	return &Scanner{carver: c, opts: opts, logger: logger}
}

// Scan carves every page of img. Dispatch stops at the first failure or
// when ctx is cancelled; pages already being carved run to completion.
func (s *Scanner) Scan(ctx context.Context, img image.Image) (carver.Stats, error) {
	var total carver.Stats

	pager, err := image.NewPager(img, s.opts.PageSize, s.opts.Margin)
	if err != nil {
		return total, err
	}

	name := img.Name()
	logger := s.logger.WithField("image", name)
	logger.WithFields(map[string]interface{}{
		"size":    img.Size(),
		"pages":   pager.Pages(),
		"workers": s.opts.Workers,
	}).Info("scan started")
	start := time.Now()

	g, gctx := errgroup.WithContext(ctx)
	pages := make(chan image.Page, s.opts.Workers)

	g.Go(func() error {
		defer close(pages)
		for {
			page, err := pager.Next()
			if errors.Is(err, io.EOF) {
				return nil
			}
			if err != nil {
				metrics.ScanErrorsTotal.WithLabelValues(name, metrics.StageRead).Inc()
				return err
			}
			select {
			case pages <- page:
			case <-gctx.Done():
				return gctx.Err()
			}
		}
	})

	var mu sync.Mutex
	for i := 0; i < s.opts.Workers; i++ {
		g.Go(func() error {
			for page := range pages {
				stats, err := s.carvePage(name, page, logger)
				mu.Lock()
				total.Add(stats)
				mu.Unlock()
				if err != nil {
					return err
				}
				if gctx.Err() != nil {
					return gctx.Err()
				}
			}
			return nil
		})
	}

	err = g.Wait()
	fields := map[string]interface{}{
		"bytes":   total.Bytes,
		"carved":  total.Total(),
		"written": total.Written,
		"elapsed": time.Since(start).Round(time.Millisecond).String(),
	}
	if err != nil {
		logger.WithFields(fields).WithError(err).Error("scan aborted")
		return total, err
	}
	logger.WithFields(fields).Info("scan finished")
	return total, nil
}

func (s *Scanner) carvePage(name string, page image.Page, logger log.Logger) (carver.Stats, error) {
	metrics.ActiveWorkers.Inc()
	defer metrics.ActiveWorkers.Dec()

	start := time.Now()
	stats, err := s.carver.Scan(page.Window())
	metrics.PageScanSeconds.WithLabelValues(name).Observe(time.Since(start).Seconds())
	record(name, stats)

	if err != nil {
		metrics.ScanErrorsTotal.WithLabelValues(name, metrics.StageCarve).Inc()
		return stats, fmt.Errorf("page %d at offset %d: %w", page.Index, page.Offset, err)
	}
	if logger.IsDebugEnabled() {
		logger.WithFields(map[string]interface{}{
			"page":   page.Index,
			"offset": page.Offset,
			"carved": stats.Total(),
		}).Debug("page scanned")
	}
	return stats, nil
}

func record(name string, stats carver.Stats) {
	metrics.ScanBytesTotal.WithLabelValues(name).Add(float64(stats.Bytes))
	metrics.PagesScannedTotal.WithLabelValues(name).Inc()
	metrics.PcapRecordsTotal.WithLabelValues(name).Add(float64(stats.Written))
	for recognizer, n := range stats.Carved {
		metrics.CarvedTotal.WithLabelValues(name, recognizer).Add(float64(n))
	}
}
