package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"boqscope/internal/app"
)

func newServeCommand() *cobra.Command {
	var configFile string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the extraction API server",
		Long: `serve starts the HTTP surface: the extraction API, websocket progress
events, health checks and Prometheus metrics. The upload page ships with
the web binary; this server runs headless.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if configFile != "" {
				if _, err := os.Stat(configFile); err != nil {
					return fmt.Errorf("config file %s: %w", configFile, err)
				}
				os.Setenv("BOQ_CONFIG_FILE", configFile)
			}

			application, err := app.NewApplication(nil)
			if err != nil {
				return fmt.Errorf("initialize application: %w", err)
			}
			application.SetOpenBrowser(false)

			return application.Run()
		},
	}

	cmd.Flags().StringVar(&configFile, "config", "", "Path to a YAML config file")

	return cmd
}
