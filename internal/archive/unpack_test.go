package archive

import (
	"archive/zip"
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"boqscope/internal/shared/testutil"
)

func TestUnpack(t *testing.T) {
	dir := t.TempDir()
	archivePath := filepath.Join(dir, "upload.zip")
	testutil.WriteArchive(t, archivePath, map[string][]byte{
		"TDR-01/BOQ.xlsx":      []byte("workbook one"),
		"TDR-01/notes.txt":     []byte("notes"),
		"TDR-02/Schedule.xlsx": []byte("workbook two"),
	})

	dest := filepath.Join(dir, "staging")
	report, err := NewUnpacker(Limits{}, nil).Unpack(context.Background(), archivePath, dest)
	require.NoError(t, err)

	assert.Equal(t, 3, report.Entries)
	assert.Zero(t, report.Skipped)
	assert.Positive(t, report.TotalBytes)

	assert.FileExists(t, filepath.Join(dest, "TDR-01", "BOQ.xlsx"))
	assert.FileExists(t, filepath.Join(dest, "TDR-01", "notes.txt"))
	assert.FileExists(t, filepath.Join(dest, "TDR-02", "Schedule.xlsx"))

	data, err := os.ReadFile(filepath.Join(dest, "TDR-01", "BOQ.xlsx"))
	require.NoError(t, err)
	assert.Equal(t, "workbook one", string(data))
}

func TestUnpack_DirectoryEntries(t *testing.T) {
	dir := t.TempDir()
	archivePath := filepath.Join(dir, "upload.zip")

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	_, err := zw.CreateHeader(&zip.FileHeader{Name: "TDR-01/"})
	require.NoError(t, err)
	w, err := zw.Create("TDR-01/BOQ.xlsx")
	require.NoError(t, err)
	_, err = w.Write([]byte("workbook"))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	require.NoError(t, os.WriteFile(archivePath, buf.Bytes(), 0o644))

	dest := filepath.Join(dir, "staging")
	report, err := NewUnpacker(Limits{}, nil).Unpack(context.Background(), archivePath, dest)
	require.NoError(t, err)

	assert.Equal(t, 1, report.Directories)
	assert.Equal(t, 1, report.Entries)
	assert.DirExists(t, filepath.Join(dest, "TDR-01"))
}

func TestUnpack_TraversalRejected(t *testing.T) {
	dir := t.TempDir()
	archivePath := filepath.Join(dir, "upload.zip")
	testutil.WriteArchive(t, archivePath, map[string][]byte{
		"../evil.txt": []byte("escape attempt"),
	})

	dest := filepath.Join(dir, "staging")
	_, err := NewUnpacker(Limits{}, nil).Unpack(context.Background(), archivePath, dest)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnsafePath)
	assert.NoFileExists(t, filepath.Join(dir, "evil.txt"))
}

func TestUnpack_ArchiveTooLarge(t *testing.T) {
	dir := t.TempDir()
	archivePath := filepath.Join(dir, "upload.zip")
	testutil.WriteArchive(t, archivePath, map[string][]byte{
		"TDR-01/BOQ.xlsx": bytes.Repeat([]byte("x"), 4096),
	})

	limits := Limits{MaxArchiveBytes: 16}
	_, err := NewUnpacker(limits, nil).Unpack(context.Background(), archivePath, t.TempDir())
	assert.ErrorIs(t, err, ErrArchiveTooLarge)
}

func TestUnpack_EntryTooLarge(t *testing.T) {
	dir := t.TempDir()
	archivePath := filepath.Join(dir, "upload.zip")
	testutil.WriteArchive(t, archivePath, map[string][]byte{
		"TDR-01/huge.xlsx": bytes.Repeat([]byte("x"), 200),
	})

	limits := Limits{MaxEntryBytes: 64}
	_, err := NewUnpacker(limits, nil).Unpack(context.Background(), archivePath, t.TempDir())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrEntryTooLarge)
	assert.Contains(t, err.Error(), "huge.xlsx")
}

func TestUnpack_TotalBudgetExceeded(t *testing.T) {
	dir := t.TempDir()
	archivePath := filepath.Join(dir, "upload.zip")
	testutil.WriteArchive(t, archivePath, map[string][]byte{
		"a.bin": bytes.Repeat([]byte("x"), 30),
		"b.bin": bytes.Repeat([]byte("x"), 30),
		"c.bin": bytes.Repeat([]byte("x"), 30),
	})

	limits := Limits{MaxEntryBytes: 50, MaxTotalBytes: 60}
	_, err := NewUnpacker(limits, nil).Unpack(context.Background(), archivePath, t.TempDir())
	assert.ErrorIs(t, err, ErrDecompressedTooLarge)
}

func TestUnpack_TooManyEntries(t *testing.T) {
	dir := t.TempDir()
	archivePath := filepath.Join(dir, "upload.zip")
	testutil.WriteArchive(t, archivePath, map[string][]byte{
		"a.xlsx": []byte("a"),
		"b.xlsx": []byte("b"),
		"c.xlsx": []byte("c"),
	})

	limits := Limits{MaxEntries: 2}
	_, err := NewUnpacker(limits, nil).Unpack(context.Background(), archivePath, t.TempDir())
	assert.ErrorIs(t, err, ErrTooManyEntries)
}

func TestUnpack_InvalidArchive(t *testing.T) {
	dir := t.TempDir()
	archivePath := filepath.Join(dir, "upload.zip")
	require.NoError(t, os.WriteFile(archivePath, []byte("this is not a zip"), 0o644))

	_, err := NewUnpacker(Limits{}, nil).Unpack(context.Background(), archivePath, t.TempDir())
	assert.ErrorIs(t, err, ErrInvalidArchive)
}

func TestUnpack_MissingArchive(t *testing.T) {
	_, err := NewUnpacker(Limits{}, nil).Unpack(context.Background(), filepath.Join(t.TempDir(), "nope.zip"), t.TempDir())
	assert.Error(t, err)
}

func TestUnpack_SymlinkSkipped(t *testing.T) {
	dir := t.TempDir()
	archivePath := filepath.Join(dir, "upload.zip")

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	hdr := &zip.FileHeader{Name: "TDR-01/link.xlsx", Method: zip.Deflate}
	hdr.SetMode(os.ModeSymlink | 0o777)
	w, err := zw.CreateHeader(hdr)
	require.NoError(t, err)
	_, err = w.Write([]byte("../target"))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	require.NoError(t, os.WriteFile(archivePath, buf.Bytes(), 0o644))

	logger, capture := testutil.NewTestLogger(t)
	dest := filepath.Join(dir, "staging")

	report, err := NewUnpacker(Limits{}, logger).Unpack(context.Background(), archivePath, dest)
	require.NoError(t, err)

	assert.Equal(t, 1, report.Skipped)
	assert.Zero(t, report.Entries)
	assert.NoFileExists(t, filepath.Join(dest, "TDR-01", "link.xlsx"))
	assert.True(t, capture.Contains("Skipping non-regular archive entry"))
}

func TestUnpack_ContextCancelled(t *testing.T) {
	dir := t.TempDir()
	archivePath := filepath.Join(dir, "upload.zip")
	testutil.WriteArchive(t, archivePath, map[string][]byte{
		"TDR-01/BOQ.xlsx": []byte("workbook"),
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewUnpacker(Limits{}, nil).Unpack(ctx, archivePath, t.TempDir())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSaveUpload(t *testing.T) {
	t.Run("writes within cap", func(t *testing.T) {
		dst := filepath.Join(t.TempDir(), "uploads", "upload.zip")

		written, err := SaveUpload(dst, strings.NewReader("archive bytes"), 1024)
		require.NoError(t, err)
		assert.Equal(t, int64(len("archive bytes")), written)
		assert.FileExists(t, dst)
	})

	t.Run("rejects oversized upload", func(t *testing.T) {
		dst := filepath.Join(t.TempDir(), "upload.zip")

		_, err := SaveUpload(dst, strings.NewReader(strings.Repeat("x", 100)), 10)
		assert.ErrorIs(t, err, ErrArchiveTooLarge)
	})
}

func TestLimitsNormalized(t *testing.T) {
	limits := Limits{}.normalized()

	assert.Equal(t, int64(1<<30), limits.MaxArchiveBytes)
	assert.Equal(t, int64(256<<20), limits.MaxEntryBytes)
	assert.Equal(t, 10000, limits.MaxEntries)
	assert.Equal(t, int64(4<<30), limits.MaxTotalBytes)

	custom := Limits{MaxArchiveBytes: 100}.normalized()
	assert.Equal(t, int64(400), custom.MaxTotalBytes)
}
