package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/storeport/storeport/internal/migration"
)

var (
	runSourceURL      string
	runConsumerKey    string
	runConsumerSecret string
	runInsecure       bool
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a one-shot migration against a source store",
	Long: `Fetches the source store's catalog and everything around it, writing
export files, downloaded media, a manual migration report and a bundle
archive into the output folder. Interrupting with Ctrl-C stops the run
at the next stage boundary.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if runSourceURL != "" {
			cfg.Source.BaseURL = runSourceURL
		}
		if runConsumerKey != "" {
			cfg.Source.ConsumerKey = runConsumerKey
		}
		if runConsumerSecret != "" {
			cfg.Source.ConsumerSecret = runConsumerSecret
		}
		if runInsecure {
			cfg.Source.Insecure = true
		}
		if cfg.Source.BaseURL == "" {
			return fmt.Errorf("no source URL: set --source or the config file's source.base_url")
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		runner := &migration.Runner{Config: cfg}
		result, err := runner.Run(ctx, func(line string) { fmt.Println(line) })
		if err != nil {
			return err
		}

		if result.ReportPath != "" {
			fmt.Printf("Report: %s\n", result.ReportPath)
		}
		if result.ArchivePath != "" {
			fmt.Printf("Bundle: %s\n", result.ArchivePath)
		}
		return nil
	},
}

func init() {
	runCmd.Flags().StringVar(&runSourceURL, "source", "", "source store base URL")
	runCmd.Flags().StringVar(&runConsumerKey, "consumer-key", "", "WooCommerce REST consumer key")
	runCmd.Flags().StringVar(&runConsumerSecret, "consumer-secret", "", "WooCommerce REST consumer secret")
	runCmd.Flags().BoolVar(&runInsecure, "insecure", false, "skip TLS certificate verification")
	rootCmd.AddCommand(runCmd)
}
