package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"firestige.xyz/netcarve/internal/carver"
	"firestige.xyz/netcarve/internal/config"
	"firestige.xyz/netcarve/internal/feature"
	"firestige.xyz/netcarve/internal/image"
	"firestige.xyz/netcarve/internal/log"
	"firestige.xyz/netcarve/internal/metrics"
	"firestige.xyz/netcarve/internal/pcapwriter"
	"firestige.xyz/netcarve/internal/scan"
)

var scanCmd = &cobra.Command{
	Use:   "scan IMAGE",
	Short: "Carve network packets out of a raw or split-raw image",
	Long: `Scan an image for embedded network traffic.

Carved packets are appended to one pcap savefile in the output directory;
addresses and flows go to <kind>.txt feature files next to it. Split-raw
images are opened by naming their first segment (image.000 or image.001).

Examples:
  netcarve scan disk.raw
  netcarve scan -o out/ -w 8 memory.dmp
  netcarve scan -c netcarve.yml --carve-net-memory disk.001`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if err := applyScanFlags(cmd.Flags(), cfg); err != nil {
			return err
		}
		if err := initLogging(cfg); err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return runScan(ctx, cfg, args[0], cmd.OutOrStdout())
	},
}

func init() {
	addScanFlags(scanCmd.Flags())
}

func addScanFlags(f *pflag.FlagSet) {
	f.StringP("out", "o", "", "output directory (overrides output.dir)")
	f.String("pcap-file", "", "pcap savefile name inside the output directory (overrides output.pcap_file)")
	f.IntP("workers", "w", 0, "number of carving workers, 0 for GOMAXPROCS (overrides scan.workers)")
	f.Int("page-size", 0, "bytes per page (overrides scan.page_size)")
	f.Int("margin", 0, "read-ahead bytes past each page (overrides scan.margin)")
	f.Bool("carve-net-memory", false, "also carve sockaddr_in and TCPT kernel structures")
	f.Bool("report-checksum-bad", false, "carve Ethernet frames whose IP checksum fails")
	f.Bool("metrics", false, "serve Prometheus metrics while scanning (overrides metrics.enabled)")
}

// applyScanFlags copies explicitly set flags over the loaded configuration
// and validates the result.
func applyScanFlags(flags *pflag.FlagSet, cfg *config.GlobalConfig) error {
	var err error
	set := func(name string, apply func()) {
		if err == nil && flags.Changed(name) {
			apply()
		}
	}
	set("out", func() { cfg.Output.Dir, err = flags.GetString("out") })
	set("pcap-file", func() { cfg.Output.PcapFile, err = flags.GetString("pcap-file") })
	set("workers", func() { cfg.Scan.Workers, err = flags.GetInt("workers") })
	set("page-size", func() { cfg.Scan.PageSize, err = flags.GetInt("page-size") })
	set("margin", func() { cfg.Scan.Margin, err = flags.GetInt("margin") })
	set("carve-net-memory", func() { cfg.Scan.CarveNetMemory, err = flags.GetBool("carve-net-memory") })
	set("report-checksum-bad", func() { cfg.Scan.ReportChecksumBad, err = flags.GetBool("report-checksum-bad") })
	set("metrics", func() { cfg.Metrics.Enabled, err = flags.GetBool("metrics") })
	if err != nil {
		return err
	}
	return cfg.ValidateAndApplyDefaults()
}

// pcapPath resolves the savefile location against the output directory.
func pcapPath(cfg *config.GlobalConfig) string {
	if filepath.IsAbs(cfg.Output.PcapFile) {
		return cfg.Output.PcapFile
	}
	return filepath.Join(cfg.Output.Dir, cfg.Output.PcapFile)
}

func runScan(ctx context.Context, cfg *config.GlobalConfig, imagePath string, stdout io.Writer) (err error) {
	logger := log.GetLogger()

	img, err := image.Open(imagePath)
	if err != nil {
		return err
	}
	defer img.Close()

	files, err := feature.NewFileRecorder(cfg.Output.Dir)
	if err != nil {
		return err
	}
	out := pcapwriter.New(pcapPath(cfg))
	defer func() {
		err = errors.Join(err, out.Close(), files.Close())
	}()

	if cfg.Metrics.Enabled {
		srv := metrics.NewServer(cfg.Metrics.Listen, cfg.Metrics.Path)
		if err := srv.Start(ctx); err != nil {
			return err
		}
		defer func() {
			if err := srv.Stop(context.Background()); err != nil {
				logger.WithError(err).Warn("failed to stop metrics server")
			}
		}()
	}

	features := feature.Multi{files, feature.NewLogRecorder(logger)}
	c := carver.New(carver.OptionsFromConfig(cfg.Scan), out, features)
	s := scan.New(c, scan.Options{
		Workers:  cfg.Scan.Workers,
		PageSize: cfg.Scan.PageSize,
		Margin:   cfg.Scan.Margin,
	}, logger)

	stats, err := s.Scan(ctx, img)
	printSummary(stdout, img.Name(), stats, out, pcapPath(cfg))
	return err
}

func printSummary(w io.Writer, name string, stats carver.Stats, out *pcapwriter.Writer, path string) {
	fmt.Fprintf(w, "Image:   %s\n", name)
	fmt.Fprintf(w, "Scanned: %d bytes\n", stats.Bytes)

	names := make([]string, 0, len(stats.Carved))
	for n := range stats.Carved {
		names = append(names, n)
	}
	sort.Strings(names)
	for _, n := range names {
		fmt.Fprintf(w, "  %-12s %d\n", n, stats.Carved[n])
	}

	if out.Opened() {
		fmt.Fprintf(w, "Packets: %d written to %s\n", out.Records(), path)
	} else {
		fmt.Fprintln(w, "Packets: none found")
	}
}
