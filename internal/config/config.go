// Package config handles global configuration loading using viper.
package config

import (
	"fmt"
	"runtime"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"

	"firestige.xyz/netcarve/internal/core"
)

// GlobalConfig represents the top-level configuration.
// Maps to the `netcarve:` root key in YAML.
type GlobalConfig struct {
	Scan    ScanConfig    `mapstructure:"scan" yaml:"scan"`
	Output  OutputConfig  `mapstructure:"output" yaml:"output"`
	Metrics MetricsConfig `mapstructure:"metrics" yaml:"metrics"`
	Log     LogConfig     `mapstructure:"log" yaml:"log"`
}

// ─── Scan ───

// ScanConfig controls the carver and the page scheduler.
type ScanConfig struct {
	CarveNetMemory    bool      `mapstructure:"carve_net_memory" yaml:"carve_net_memory"`       // sockaddr_in / TCPT recognizers
	ReportChecksumBad bool      `mapstructure:"report_checksum_bad" yaml:"report_checksum_bad"` // carve framed packets whose checksum fails
	PcapTimeMin       time.Time `mapstructure:"pcap_time_min" yaml:"pcap_time_min"`
	PcapTimeMax       time.Time `mapstructure:"pcap_time_max" yaml:"pcap_time_max"`
	PageSize          int       `mapstructure:"page_size" yaml:"page_size"` // bytes owned by one page
	Margin            int       `mapstructure:"margin" yaml:"margin"`       // read-ahead past the page end
	Workers           int       `mapstructure:"workers" yaml:"workers"`     // 0 = GOMAXPROCS
}

// ─── Output ───

// OutputConfig names where carved packets and features go.
type OutputConfig struct {
	Dir      string `mapstructure:"dir" yaml:"dir"`
	PcapFile string `mapstructure:"pcap_file" yaml:"pcap_file"` // relative to Dir
}

// ─── Metrics ───

// MetricsConfig contains Prometheus metrics settings.
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled" yaml:"enabled"`
	Listen  string `mapstructure:"listen" yaml:"listen"`
	Path    string `mapstructure:"path" yaml:"path"`
}

// ─── Log ───

// LogConfig contains logging settings.
type LogConfig struct {
	Level   string           `mapstructure:"level" yaml:"level"`     // trace / debug / info / warn / error
	Format  string           `mapstructure:"format" yaml:"format"`   // text / json
	Pattern string           `mapstructure:"pattern" yaml:"pattern"` // text format only
	Time    string           `mapstructure:"time" yaml:"time"`       // Go time layout for %time
	Outputs LogOutputsConfig `mapstructure:"outputs" yaml:"outputs"`
}

// LogOutputsConfig contains log output destinations besides stderr.
type LogOutputsConfig struct {
	File FileOutputConfig `mapstructure:"file" yaml:"file"`
}

// FileOutputConfig configures file log output.
type FileOutputConfig struct {
	Enabled  bool           `mapstructure:"enabled" yaml:"enabled"`
	Path     string         `mapstructure:"path" yaml:"path"`
	Rotation RotationConfig `mapstructure:"rotation" yaml:"rotation"`
}

// RotationConfig configures log file rotation.
type RotationConfig struct {
	MaxSizeMB  int  `mapstructure:"max_size_mb" yaml:"max_size_mb"`
	MaxAgeDays int  `mapstructure:"max_age_days" yaml:"max_age_days"`
	MaxBackups int  `mapstructure:"max_backups" yaml:"max_backups"`
	Compress   bool `mapstructure:"compress" yaml:"compress"`
}

// ─── Loading ───

const (
	rootKey = "netcarve"

	DefaultPcapFile    = "packets.pcap"
	DefaultPageSize    = 16 << 20
	DefaultMargin      = 1 << 20
	DefaultLogPattern  = "%time [%level] %caller: %msg\n"
	DefaultLogTime     = "2006-01-02 15:04:05"
	defaultPcapTimeMin = "1990-01-01T00:00:00Z"
	defaultPcapTimeMax = "2020-01-01T00:00:00Z"
)

// configRoot is the top-level wrapper matching the YAML structure `netcarve: ...`.
type configRoot struct {
	Netcarve GlobalConfig `mapstructure:"netcarve"`
}

// Load loads configuration from file. An empty path yields the defaults plus
// environment overrides.
// The YAML file uses `netcarve:` as root key; env vars use the NETCARVE_ prefix
// (e.g. NETCARVE_SCAN_WORKERS).
func Load(path string) (*GlobalConfig, error) {
	v := viper.New()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %v: %w", err, core.ErrConfigInvalid)
		}
	}

	// The `netcarve.` key prefix maps to NETCARVE_ through the replacer.
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	var root configRoot
	hook := viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeHookFunc(time.RFC3339),
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	))
	if err := v.Unmarshal(&root, hook); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %v: %w", err, core.ErrConfigInvalid)
	}
	cfg := root.Netcarve

	if err := cfg.ValidateAndApplyDefaults(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets default values for configuration.
// All keys use the "netcarve." prefix to match the YAML root wrapper.
func setDefaults(v *viper.Viper) {
	key := func(k string) string { return rootKey + "." + k }

	// Scan defaults
	v.SetDefault(key("scan.carve_net_memory"), false)
	v.SetDefault(key("scan.report_checksum_bad"), false)
	v.SetDefault(key("scan.pcap_time_min"), defaultPcapTimeMin)
	v.SetDefault(key("scan.pcap_time_max"), defaultPcapTimeMax)
	v.SetDefault(key("scan.page_size"), DefaultPageSize)
	v.SetDefault(key("scan.margin"), DefaultMargin)
	v.SetDefault(key("scan.workers"), 0)

	// Output defaults
	v.SetDefault(key("output.dir"), ".")
	v.SetDefault(key("output.pcap_file"), DefaultPcapFile)

	// Metrics defaults
	v.SetDefault(key("metrics.enabled"), false)
	v.SetDefault(key("metrics.listen"), ":9091")
	v.SetDefault(key("metrics.path"), "/metrics")

	// Log defaults
	v.SetDefault(key("log.level"), "info")
	v.SetDefault(key("log.format"), "text")
	v.SetDefault(key("log.pattern"), DefaultLogPattern)
	v.SetDefault(key("log.time"), DefaultLogTime)
	v.SetDefault(key("log.outputs.file.enabled"), false)
	v.SetDefault(key("log.outputs.file.path"), "netcarve.log")
	v.SetDefault(key("log.outputs.file.rotation.max_size_mb"), 100)
	v.SetDefault(key("log.outputs.file.rotation.max_age_days"), 30)
	v.SetDefault(key("log.outputs.file.rotation.max_backups"), 5)
	v.SetDefault(key("log.outputs.file.rotation.compress"), true)
}

// ValidateAndApplyDefaults validates configuration and applies runtime defaults.
func (cfg *GlobalConfig) ValidateAndApplyDefaults() error {
	// ── Log validation ──
	validLevels := map[string]bool{"trace": true, "debug": true, "info": true, "warn": true, "error": true}
	cfg.Log.Level = strings.ToLower(cfg.Log.Level)
	if !validLevels[cfg.Log.Level] {
		return invalid("invalid log level: %s (must be trace/debug/info/warn/error)", cfg.Log.Level)
	}
	cfg.Log.Format = strings.ToLower(cfg.Log.Format)
	if cfg.Log.Format != "json" && cfg.Log.Format != "text" {
		return invalid("invalid log format: %s (must be json/text)", cfg.Log.Format)
	}
	if cfg.Log.Pattern == "" {
		cfg.Log.Pattern = DefaultLogPattern
	}
	if cfg.Log.Time == "" {
		cfg.Log.Time = DefaultLogTime
	}
	if cfg.Log.Outputs.File.Enabled && cfg.Log.Outputs.File.Path == "" {
		return invalid("log.outputs.file.path is required when file output is enabled")
	}

	// ── Scan validation ──
	if cfg.Scan.PcapTimeMin.IsZero() || cfg.Scan.PcapTimeMax.IsZero() {
		return invalid("scan.pcap_time_min and scan.pcap_time_max are required")
	}
	if !cfg.Scan.PcapTimeMin.Before(cfg.Scan.PcapTimeMax) {
		return invalid("scan.pcap_time_min (%s) must be before scan.pcap_time_max (%s)",
			cfg.Scan.PcapTimeMin.Format(time.RFC3339), cfg.Scan.PcapTimeMax.Format(time.RFC3339))
	}
	if cfg.Scan.PageSize <= 0 {
		return invalid("scan.page_size must be positive, got %d", cfg.Scan.PageSize)
	}
	if cfg.Scan.Margin < 0 {
		return invalid("scan.margin must not be negative, got %d", cfg.Scan.Margin)
	}
	if cfg.Scan.Workers < 0 {
		return invalid("scan.workers must not be negative, got %d", cfg.Scan.Workers)
	}
	if cfg.Scan.Workers == 0 {
		cfg.Scan.Workers = runtime.GOMAXPROCS(0)
	}

	// ── Output validation ──
	if cfg.Output.Dir == "" {
		return invalid("output.dir is required")
	}
	if cfg.Output.PcapFile == "" {
		cfg.Output.PcapFile = DefaultPcapFile
	}

	// ── Metrics validation ──
	if cfg.Metrics.Enabled && cfg.Metrics.Listen == "" {
		return invalid("metrics.listen is required when metrics.enabled=true")
	}
	if cfg.Metrics.Path == "" {
		cfg.Metrics.Path = "/metrics"
	}

	return nil
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), core.ErrConfigInvalid)
}
