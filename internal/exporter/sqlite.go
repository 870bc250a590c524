package exporter

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"boqscope/internal/config"
	"boqscope/pkg/contracts/domain"
)

// DatabaseWriter renders the consolidated summary as a SQLite database
// holding a single boq_summary table. Cell values are stored exactly as
// rendered, so the database agrees with the CSV and workbook outputs.
type DatabaseWriter struct {
	paths *config.Paths
}

// NewDatabaseWriter creates a new database writer instance
func NewDatabaseWriter(paths *config.Paths) *DatabaseWriter {
	return &DatabaseWriter{paths: paths}
}

const summarySchema = `
CREATE TABLE IF NOT EXISTS boq_summary (
	sl_no            TEXT PRIMARY KEY,
	tdr_folder       TEXT NOT NULL,
	boq_file         TEXT NOT NULL,
	item_description TEXT NOT NULL,
	k9               TEXT NOT NULL,
	k7               TEXT NOT NULL,
	dia              TEXT NOT NULL,
	estimate_rate    TEXT NOT NULL,
	units            TEXT NOT NULL,
	quantity         TEXT NOT NULL
)`

const summaryInsert = `
INSERT INTO boq_summary (
	sl_no, tdr_folder, boq_file, item_description,
	k9, k7, dia, estimate_rate, units, quantity
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

// WriteSummaryDatabase writes the summary table to a fresh SQLite file at
// filePath, replacing any previous export.
func (w *DatabaseWriter) WriteSummaryDatabase(ctx context.Context, filePath string, summary *domain.Summary) error {
	fullPath := w.resolvePath(filePath)

	slog.Info("Writing summary database",
		slog.String("file_path", filePath),
		slog.String("full_path", fullPath),
		slog.Int("row_count", len(summary.Rows)))

	dir := filepath.Dir(fullPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	// Start from scratch so stale rows from a previous run cannot linger.
	if err := os.Remove(fullPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove previous database: %w", err)
	}

	db, err := sql.Open("sqlite", fullPath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	if _, err := db.ExecContext(ctx, summarySchema); err != nil {
		return fmt.Errorf("failed to create table: %w", err)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, summaryInsert)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, row := range summary.Rows {
		if _, err := stmt.ExecContext(ctx,
			row.SLNo, row.TDRFolder, row.BOQFile, row.Description,
			row.K9, row.K7, row.DIA, row.Rate, row.Units, row.Quantity,
		); err != nil {
			return fmt.Errorf("failed to insert row %s: %w", row.SLNo, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit: %w", err)
	}

	return nil
}

func (w *DatabaseWriter) resolvePath(filePath string) string {
	if filepath.IsAbs(filePath) {
		return filePath
	}
	return filepath.Join(w.paths.ExportsDir, filePath)
}
