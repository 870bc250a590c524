package batch

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"boqscope/internal/archive"
	"boqscope/internal/extraction"
	"boqscope/internal/shared/testutil"
)

// TestArchivePipeline drives the full chain: zip upload, unpack, batch
// extraction, summary build.
func TestArchivePipeline(t *testing.T) {
	dir := t.TempDir()
	logger, _ := testutil.NewTestLogger(t)

	boq1 := testutil.WorkbookBytes(t, testutil.StandardBOQRows(
		[]interface{}{1, "Supply of DI K-9 pipe 200mm", "RMT", 120, "1,450.50"},
		[]interface{}{2, "Laying DI K-7 pipe 100 mm", "Mtr", 80, 950},
		[]interface{}{3, "GI pipe 15mm for house connections", "Mtr", 300, 45},
		[]interface{}{4, "Earthwork in excavation for trenches", "Cum", 500, 80},
	))
	boq2 := testutil.WorkbookBytes(t, testutil.StandardBOQRows(
		[]interface{}{1, "HDPE pipe OD 90mm welded", "Each", "", "2,000"},
		[]interface{}{2, "CI pipe 350 mm with jointing", "per metre", 15.5, 1200},
		[]interface{}{3, "PVC pipe jointing material", "Set", 10, 60},
	))

	archivePath := filepath.Join(dir, "upload.zip")
	testutil.WriteArchive(t, archivePath, map[string][]byte{
		"TDR-001/boq1.xlsx":   boq1,
		"TDR-001/readme.txt":  []byte("site notes"),
		"TDR-002/boq2.xlsx":   boq2,
		"TDR-002/~$boq2.xlsx": []byte("owner lock"),
		"TDR-002/broken.xlsx": []byte("not a workbook"),
	})

	staging := filepath.Join(dir, "staging")
	_, err := archive.NewUnpacker(archive.Limits{}, logger).Unpack(context.Background(), archivePath, staging)
	require.NoError(t, err)

	runner := NewRunner(extraction.NewExtractor(logger), 4, logger)
	batch, err := runner.Run(context.Background(), staging)
	require.NoError(t, err)

	// Three workbooks: the owner file and readme are never considered.
	assert.Equal(t, 3, batch.FilesSeen)

	// Six pipe items cross the keyword gate; earthwork does not.
	require.Len(t, batch.Items, 6)

	require.Len(t, batch.Diagnostics, 1)
	assert.Equal(t, "TDR-002", batch.Diagnostics[0].TDRFolder)
	assert.Equal(t, "broken.xlsx", batch.Diagnostics[0].BOQFile)
	assert.Contains(t, batch.Diagnostics[0].Message, "Failed to read file:")

	summary := BuildSummary(batch)
	require.Len(t, summary.Rows, 4, "15mm pipe and the diameterless item stay out")

	want := [][]string{
		{"1", "TDR-001", "boq1.xlsx", "Supply of DI K-9 pipe 200mm", "Yes", "", "200", "1450.5", "meter", "120"},
		{"2", "TDR-001", "boq1.xlsx", "Laying DI K-7 pipe 100 mm", "", "Yes", "100", "950", "meter", "80"},
		{"3", "TDR-002", "boq2.xlsx", "HDPE pipe OD 90mm welded", "", "", "90", "2000", "Each", ""},
		{"4", "TDR-002", "boq2.xlsx", "CI pipe 350 mm with jointing", "", "", "350", "1200", "meter", "15.5"},
	}
	for i, row := range summary.Rows {
		assert.Equal(t, want[i], row.Cells(), "row %d", i+1)
	}
}

// TestArchivePipeline_NoMatches covers the empty-result outcome: a valid
// archive whose sheets hold no qualifying pipe work.
func TestArchivePipeline_NoMatches(t *testing.T) {
	dir := t.TempDir()
	logger, _ := testutil.NewTestLogger(t)

	boq := testutil.WorkbookBytes(t, testutil.StandardBOQRows(
		[]interface{}{1, "Earthwork in excavation", "Cum", 500, 80},
		[]interface{}{2, "Cement concrete 1:2:4 in foundation", "Cum", 50, 4500},
	))

	archivePath := filepath.Join(dir, "upload.zip")
	testutil.WriteArchive(t, archivePath, map[string][]byte{
		"TDR-001/civil.xlsx": boq,
	})

	staging := filepath.Join(dir, "staging")
	_, err := archive.NewUnpacker(archive.Limits{}, logger).Unpack(context.Background(), archivePath, staging)
	require.NoError(t, err)

	runner := NewRunner(extraction.NewExtractor(logger), 2, logger)
	batch, err := runner.Run(context.Background(), staging)
	require.NoError(t, err)

	assert.Equal(t, 1, batch.FilesSeen)
	assert.Empty(t, batch.Items)
	assert.Empty(t, batch.Diagnostics)

	summary := BuildSummary(batch)
	assert.True(t, summary.Empty())
}
