package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"firestige.xyz/netcarve/internal/config"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the configuration and print the effective settings",
	Long: `Load the configuration file (plus NETCARVE_* environment overrides), apply
defaults and validation, and print the result as YAML without scanning anything.

Examples:
  netcarve validate -c netcarve.yml
  NETCARVE_SCAN_WORKERS=4 netcarve validate`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "INVALID: %v\n", err)
			return err
		}
		return printConfig(cmd.OutOrStdout(), cfg)
	},
}

// printConfig writes cfg under the same root key the config file uses.
func printConfig(w io.Writer, cfg *config.GlobalConfig) error {
	doc := map[string]*config.GlobalConfig{"netcarve": cfg}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return enc.Close()
}
