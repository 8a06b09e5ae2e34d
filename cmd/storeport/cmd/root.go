package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/storeport/storeport/internal/config"
)

// Build-time variables set via -ldflags.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// Global flags.
var (
	configPath string
	outputRoot string
)

var rootCmd = &cobra.Command{
	Use:   "storeport",
	Short: "Migrate WooCommerce and storefront stores",
	Long: `storeport captures a complete, portable copy of an online store:
catalog, media, extensions, design assets and site content. Each run
writes a per-store output folder with export files, a manual migration
report and a replayable provisioning snapshot.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("storeport %s\n", version)
		fmt.Printf("  commit:  %s\n", commit)
		fmt.Printf("  built:   %s\n", date)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to YAML config file")
	rootCmd.PersistentFlags().StringVar(&outputRoot, "output", "", "output root folder (overrides config)")

	rootCmd.AddCommand(versionCmd)
}

// loadConfig reads the config file (optional) and applies flag overrides.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	if outputRoot != "" {
		cfg.OutputRoot = outputRoot
	}
	return cfg, nil
}

// Execute runs the root command.
func Execute() error {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return err
	}
	return nil
}
