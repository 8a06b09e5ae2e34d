package cmd

import (
	"fmt"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/storeport/storeport/internal/api"
	"github.com/storeport/storeport/internal/models"
)

var serveListen string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the migration API server",
	Long: `Serves the HTTP API: migrations run as async jobs with live log
streaming over WebSocket, and completed runs publish a snapshot that can
be replayed against a target store.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if serveListen != "" {
			cfg.Listen = serveListen
		}

		server := &api.Server{
			Config:    cfg,
			Jobs:      models.NewJobStore(),
			Snapshots: api.NewSnapshotStore(),
		}

		fmt.Printf("storeport %s listening on %s\n", version, cfg.Listen)
		return http.ListenAndServe(cfg.Listen, api.NewRouter(server))
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveListen, "listen", "", "listen address (overrides config)")
	rootCmd.AddCommand(serveCmd)
}
