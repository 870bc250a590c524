// Package exporter writes the consolidated BOQ summary to its download
// formats.
//
// This package contains three main components:
//
// CSVWriter: Core CSV writing functionality with support for headers,
// streaming, and UTF-8 BOM for Excel compatibility.
//
// WorkbookWriter: Renders the summary as an .xlsx workbook, the primary
// download format.
//
// DatabaseWriter: Renders the summary as a SQLite database with a single
// boq_summary table for downstream querying.
//
// All writers emit the canonical column set in order; every cell is the
// pre-rendered text of the summary row, so the formats agree byte for
// byte on values.
//
// Example usage:
//
//	w := exporter.NewWorkbookWriter(paths)
//	err := w.WriteSummaryWorkbook(paths.GetSummaryExportPath(jobID, "xlsx"), summary)
//
//	c := exporter.NewCSVWriter(paths)
//	err = c.WriteSummaryCSV(paths.GetSummaryExportPath(jobID, "csv"), summary)
package exporter
