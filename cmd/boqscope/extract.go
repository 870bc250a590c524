package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"boqscope/internal/archive"
	"boqscope/internal/batch"
	"boqscope/internal/config"
	"boqscope/internal/exporter"
	"boqscope/internal/extraction"
	"boqscope/internal/files"
	"boqscope/internal/infrastructure"
	"boqscope/internal/validation"
	"boqscope/pkg/contracts/domain"
)

type extractOptions struct {
	archivePath string
	sourceDir   string
	outDir      string
	formats     []string
	workers     int
}

func newExtractCommand() *cobra.Command {
	var opts extractOptions

	cmd := &cobra.Command{
		Use:   "extract",
		Short: "Run the extraction pipeline headless",
		Long: `extract unpacks a BOQ archive (or reads an already-extracted
directory), pulls the matching line items from every workbook and writes
the consolidated summary in the requested formats.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExtract(cmd.Context(), opts)
		},
	}

	defaults := config.Default()
	cmd.Flags().StringVar(&opts.archivePath, "archive", "", "BOQ archive (.zip) to unpack and scan")
	cmd.Flags().StringVar(&opts.sourceDir, "dir", "", "Already-extracted directory to scan instead of an archive")
	cmd.Flags().StringVarP(&opts.outDir, "out", "o", "", "Output directory for the summary files")
	cmd.Flags().StringSliceVar(&opts.formats, "format", []string{config.FormatXLSX}, "Export formats: xlsx, csv, sqlite")
	cmd.Flags().IntVar(&opts.workers, "workers", defaults.Extraction.Workers, "Parallel workbook extractions")
	cmd.MarkFlagRequired("out")

	return cmd
}

func runExtract(ctx context.Context, opts extractOptions) error {
	if (opts.archivePath == "") == (opts.sourceDir == "") {
		return fmt.Errorf("exactly one of --archive or --dir is required")
	}

	formats, err := normalizeFormats(opts.formats)
	if err != nil {
		return err
	}

	outDir, err := filepath.Abs(opts.outDir)
	if err != nil {
		return fmt.Errorf("resolve output directory: %w", err)
	}

	logger := newCLILogger()
	validator := validation.NewFileValidator(logger)
	if err := validator.ValidateOutputDirectory(outDir); err != nil {
		return err
	}

	root, cleanup, err := prepareSource(ctx, opts, validator, logger)
	if err != nil {
		return err
	}
	defer cleanup()

	refs, err := files.NewDiscovery(root).FindSpreadsheets()
	if err != nil {
		return fmt.Errorf("scan %s: %w", root, err)
	}
	fmt.Printf("Found %d BOQ workbooks in %d TDR folders\n",
		len(refs), len(files.CountByFolder(refs)))

	runner := batch.NewRunner(extraction.NewExtractor(logger), opts.workers, logger)
	runner.OnProgress(func(processed, total int, ref files.SpreadsheetRef, failed bool) {
		note := ""
		if failed {
			note = " (failed)"
		}
		fmt.Printf("  [%d/%d] %s/%s%s\n", processed, total, ref.TDRFolder, ref.Name, note)
	})

	result, err := runner.RunRefs(ctx, refs)
	if err != nil {
		return fmt.Errorf("extraction aborted: %w", err)
	}

	for _, diag := range result.Diagnostics {
		fmt.Printf("Warning: %s/%s: %s\n", diag.TDRFolder, diag.BOQFile, diag.Message)
	}

	summary := batch.BuildSummary(result)
	if summary.Empty() {
		fmt.Println("No matching BOQ rows found.")
	} else {
		fmt.Printf("Extracted %d rows with DIA >= 80.\n", len(summary.Rows))
	}

	return writeExports(ctx, outDir, formats, summary)
}

// prepareSource resolves the directory the discovery walk starts from. For
// archives that means unpacking into a temp dir the cleanup func removes.
func prepareSource(ctx context.Context, opts extractOptions, validator *validation.FileValidator, logger *slog.Logger) (string, func(), error) {
	if opts.sourceDir != "" {
		if err := validator.ValidateInputDirectory(opts.sourceDir, "*.xlsx"); err != nil {
			return "", nil, err
		}
		return opts.sourceDir, func() {}, nil
	}

	if err := validator.ValidateArchiveFile(opts.archivePath); err != nil {
		return "", nil, err
	}

	stagingDir, err := os.MkdirTemp("", "boqscope-*")
	if err != nil {
		return "", nil, fmt.Errorf("create staging directory: %w", err)
	}
	cleanup := func() { os.RemoveAll(stagingDir) }

	unpacker := archive.NewUnpacker(archive.DefaultLimits(), logger)
	report, err := unpacker.Unpack(ctx, opts.archivePath, stagingDir)
	if err != nil {
		cleanup()
		return "", nil, fmt.Errorf("unpack %s: %w", filepath.Base(opts.archivePath), err)
	}
	fmt.Printf("Unpacked %d entries (%.1f MB)\n",
		report.Entries, float64(report.TotalBytes)/(1<<20))

	return stagingDir, cleanup, nil
}

func writeExports(ctx context.Context, outDir string, formats []string, summary *domain.Summary) error {
	paths := &config.Paths{ExportsDir: outDir}

	for _, format := range formats {
		target := filepath.Join(outDir, config.SummaryFileName(format))

		var err error
		switch format {
		case config.FormatXLSX:
			err = exporter.NewWorkbookWriter(paths).WriteSummaryWorkbook(target, summary)
		case config.FormatCSV:
			err = exporter.NewCSVWriter(paths).WriteSummaryCSV(target, summary)
		case config.FormatSQLite:
			err = exporter.NewDatabaseWriter(paths).WriteSummaryDatabase(ctx, target, summary)
		}
		if err != nil {
			return fmt.Errorf("write %s export: %w", format, err)
		}
		fmt.Printf("Wrote %s\n", target)
	}

	return nil
}

func normalizeFormats(raw []string) ([]string, error) {
	seen := make(map[string]bool)
	var formats []string

	for _, entry := range raw {
		format := strings.ToLower(strings.TrimSpace(entry))
		switch format {
		case "":
			continue
		case config.FormatXLSX, config.FormatCSV, config.FormatSQLite:
			if !seen[format] {
				seen[format] = true
				formats = append(formats, format)
			}
		default:
			return nil, fmt.Errorf("unknown export format %q (must be xlsx, csv or sqlite)", entry)
		}
	}

	if len(formats) == 0 {
		return nil, fmt.Errorf("no export format given")
	}
	return formats, nil
}

// newCLILogger routes structured logs to a file so stdout stays a clean
// progress stream.
func newCLILogger() *slog.Logger {
	logger, err := infrastructure.InitializeLogger(config.LoggingConfig{
		Level:    "info",
		Format:   "json",
		Output:   "file",
		FilePath: filepath.Join("logs", "boqscope.log"),
	})
	if err != nil {
		return slog.Default()
	}
	return logger
}
