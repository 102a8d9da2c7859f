// Package metrics implements Prometheus metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ScanBytesTotal counts page bytes walked by the carver
	ScanBytesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "netcarve_scan_bytes_total",
			Help: "Total number of image bytes scanned",
		},
		[]string{"image"},
	)

	// PagesScannedTotal counts completed pages
	PagesScannedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "netcarve_pages_scanned_total",
			Help: "Total number of pages scanned",
		},
		[]string{"image"},
	)

	// CarvedTotal counts matches per recognizer
	CarvedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "netcarve_carved_total",
			Help: "Total number of structures recognized, by recognizer",
		},
		[]string{"image", "recognizer"},
	)

	// PcapRecordsTotal counts matches that reached the pcap output
	PcapRecordsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "netcarve_pcap_records_total",
			Help: "Total number of carves written to the pcap output",
		},
		[]string{"image"},
	)

	// PageScanSeconds measures how long one page takes to carve
	PageScanSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "netcarve_page_scan_seconds",
			Help:    "Time spent carving one page in seconds",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 16), // 1ms to ~33s
		},
		[]string{"image"},
	)

	// ScanErrorsTotal counts fatal scan errors by stage
	ScanErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "netcarve_scan_errors_total",
			Help: "Total number of fatal scan errors",
		},
		[]string{"image", "stage"},
	)

	// ActiveWorkers tracks page workers currently carving
	ActiveWorkers = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "netcarve_active_workers",
			Help: "Number of page workers currently carving",
		},
	)
)

// Error stages
const (
	StageRead  = "read"
	StageCarve = "carve"
)
