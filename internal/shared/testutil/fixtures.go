// Package testutil provides shared fixtures for BOQ extractor tests:
// programmatically built xlsx workbooks and zip archives, plus a log
// capture handler for asserting structured log output.
package testutil

import (
	"archive/zip"
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/xuri/excelize/v2"
)

// WriteWorkbook builds a single-sheet xlsx workbook from the given cell
// rows and saves it at path. Nil cells stay empty, which mirrors the holes
// merged-cell banners leave in real BOQ sheets.
func WriteWorkbook(t *testing.T, path string, rows [][]interface{}) {
	t.Helper()

	f := buildWorkbook(t, rows)
	defer f.Close()

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("failed to create workbook dir: %v", err)
	}
	if err := f.SaveAs(path); err != nil {
		t.Fatalf("failed to save workbook %s: %v", path, err)
	}
}

// WorkbookBytes builds the same workbook in memory, for embedding into
// archives or multipart uploads.
func WorkbookBytes(t *testing.T, rows [][]interface{}) []byte {
	t.Helper()

	f := buildWorkbook(t, rows)
	defer f.Close()

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		t.Fatalf("failed to serialize workbook: %v", err)
	}
	return buf.Bytes()
}

func buildWorkbook(t *testing.T, rows [][]interface{}) *excelize.File {
	t.Helper()

	f := excelize.NewFile()
	sheet := f.GetSheetName(0)

	for r, row := range rows {
		for c, val := range row {
			if val == nil {
				continue
			}
			cell, err := excelize.CoordinatesToCellName(c+1, r+1)
			if err != nil {
				t.Fatalf("bad cell coordinates (%d,%d): %v", c+1, r+1, err)
			}
			if err := f.SetCellValue(sheet, cell, val); err != nil {
				t.Fatalf("failed to set cell %s: %v", cell, err)
			}
		}
	}
	return f
}

// WriteArchive builds a zip archive at path whose members are the given
// name -> content pairs. Member names may contain directories ("TDR-A/boq.xlsx").
func WriteArchive(t *testing.T, path string, members map[string][]byte) {
	t.Helper()

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("failed to create archive dir: %v", err)
	}
	out, err := os.Create(path)
	if err != nil {
		t.Fatalf("failed to create archive %s: %v", path, err)
	}
	defer out.Close()

	zw := zip.NewWriter(out)
	for name, content := range members {
		w, err := zw.Create(name)
		if err != nil {
			t.Fatalf("failed to add archive member %s: %v", name, err)
		}
		if _, err := w.Write(content); err != nil {
			t.Fatalf("failed to write archive member %s: %v", name, err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("failed to finalize archive: %v", err)
	}
}

// ArchiveBytes is WriteArchive into memory.
func ArchiveBytes(t *testing.T, members map[string][]byte) []byte {
	t.Helper()

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, content := range members {
		w, err := zw.Create(name)
		if err != nil {
			t.Fatalf("failed to add archive member %s: %v", name, err)
		}
		if _, err := w.Write(content); err != nil {
			t.Fatalf("failed to write archive member %s: %v", name, err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("failed to finalize archive: %v", err)
	}
	return buf.Bytes()
}

// StandardBOQRows returns a small, realistic BOQ sheet: two banner rows, a
// header row, then the provided data rows under Description/Unit/Qty/Rate
// columns.
func StandardBOQRows(dataRows ...[]interface{}) [][]interface{} {
	rows := [][]interface{}{
		{"Water Supply Improvement Scheme"},
		{"Bill of Quantities"},
		{"Sl", "Item Description", "Unit", "Quantity", "Estimate Rate"},
	}
	return append(rows, dataRows...)
}
