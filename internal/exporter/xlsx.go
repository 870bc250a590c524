package exporter

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"

	"boqscope/internal/config"
	"boqscope/pkg/contracts/domain"
)

// WorkbookWriter renders the consolidated summary as an .xlsx workbook.
type WorkbookWriter struct {
	paths *config.Paths
}

// NewWorkbookWriter creates a new workbook writer instance
func NewWorkbookWriter(paths *config.Paths) *WorkbookWriter {
	return &WorkbookWriter{paths: paths}
}

// WriteSummaryWorkbook writes the summary table to filePath. The header
// row carries the canonical column names; data starts on row two.
func (w *WorkbookWriter) WriteSummaryWorkbook(filePath string, summary *domain.Summary) error {
	fullPath := w.resolvePath(filePath)

	slog.Info("Writing summary workbook",
		slog.String("file_path", filePath),
		slog.String("full_path", fullPath),
		slog.Int("row_count", len(summary.Rows)))

	dir := filepath.Dir(fullPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	f := excelize.NewFile()
	defer f.Close()

	sheet := f.GetSheetName(0)

	if err := writeSheetRow(f, sheet, 1, domain.SummaryColumns); err != nil {
		return fmt.Errorf("failed to write header row: %w", err)
	}

	for i, record := range summaryRecords(summary) {
		if err := writeSheetRow(f, sheet, i+2, record); err != nil {
			return fmt.Errorf("failed to write row %d: %w", i+1, err)
		}
	}

	if err := f.SaveAs(fullPath); err != nil {
		return fmt.Errorf("failed to save workbook: %w", err)
	}

	return nil
}

func writeSheetRow(f *excelize.File, sheet string, row int, values []string) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	return f.SetSheetRow(sheet, cell, &values)
}

func (w *WorkbookWriter) resolvePath(filePath string) string {
	if filepath.IsAbs(filePath) {
		return filePath
	}
	return filepath.Join(w.paths.ExportsDir, filePath)
}
