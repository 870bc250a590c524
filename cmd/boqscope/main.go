// Package main provides the CLI entry point for the BOQ scope extractor.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"boqscope/internal/config"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCommand().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "boqscope",
		Short: "Extract pipe scope line items from BOQ archives",
		Long: `boqscope scans tender BOQ spreadsheets for ductile iron pipe line
items (K-7/K-9 class, DIA 80mm and above) and consolidates them into a
single summary table.

The extract command runs the pipeline headless against an archive or an
already-extracted directory. The serve command starts the HTTP API with
websocket progress events.`,
		Version:      config.AppVersion,
		SilenceUsage: true,
	}

	rootCmd.AddCommand(newExtractCommand())
	rootCmd.AddCommand(newServeCommand())

	return rootCmd
}
