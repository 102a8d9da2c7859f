package carver

import (
	"time"

	"firestige.xyz/netcarve/internal/config"
)

// Options are the run-wide flags every recognizer reads.
type Options struct {
	// CarveNetMemory enables the sockaddr_in and TCPT recognizers.
	CarveNetMemory bool
	// ReportChecksumBad lets Ethernet-framed packets whose checksum fails
	// through. Bare IP packets always need a valid checksum.
	ReportChecksumBad bool
	// Pcap record timestamps must fall in [PcapTimeMin, PcapTimeMax).
	PcapTimeMin time.Time
	PcapTimeMax time.Time
}

// DefaultOptions mirrors the configuration defaults.
func DefaultOptions() Options {
	return Options{
		PcapTimeMin: time.Date(1990, 1, 1, 0, 0, 0, 0, time.UTC),
		PcapTimeMax: time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

// OptionsFromConfig extracts the carver flags from the scan configuration.
func OptionsFromConfig(cfg config.ScanConfig) Options {
	return Options{
		CarveNetMemory:    cfg.CarveNetMemory,
		ReportChecksumBad: cfg.ReportChecksumBad,
		PcapTimeMin:       cfg.PcapTimeMin,
		PcapTimeMax:       cfg.PcapTimeMax,
	}
}
