package archive

import (
	"archive/zip"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"boqscope/internal/config"
)

var (
	// ErrArchiveTooLarge means the uploaded archive exceeds the configured cap.
	ErrArchiveTooLarge = errors.New("archive exceeds maximum allowed size")
	// ErrInvalidArchive means the upload is not a readable zip file.
	ErrInvalidArchive = errors.New("archive is not a valid zip file")
	// ErrTooManyEntries means the archive holds more entries than allowed.
	ErrTooManyEntries = errors.New("archive holds too many entries")
	// ErrEntryTooLarge means a single entry decompresses beyond the per-entry cap.
	ErrEntryTooLarge = errors.New("archive entry exceeds maximum allowed size")
	// ErrDecompressedTooLarge means the archive decompresses beyond the total budget.
	ErrDecompressedTooLarge = errors.New("archive decompresses beyond the allowed total size")
	// ErrUnsafePath means an entry would escape the staging directory.
	ErrUnsafePath = errors.New("archive entry path escapes the staging directory")
)

// Limits bounds how much an uploaded archive may cost to unpack.
type Limits struct {
	MaxArchiveBytes int64 // compressed upload size
	MaxEntryBytes   int64 // decompressed size of a single entry
	MaxTotalBytes   int64 // decompressed size of the whole archive
	MaxEntries      int
}

// DefaultLimits returns the standard intake limits.
func DefaultLimits() Limits {
	return Limits{
		MaxArchiveBytes: config.DefaultMaxArchiveBytes,
		MaxEntryBytes:   config.DefaultMaxEntryBytes,
		MaxEntries:      config.DefaultMaxEntries,
	}
}

// normalized fills zero fields with workable defaults. The total budget
// defaults to four times the compressed cap, which is generous for real
// spreadsheet bundles and still shuts down decompression bombs.
func (l Limits) normalized() Limits {
	if l.MaxArchiveBytes <= 0 {
		l.MaxArchiveBytes = config.DefaultMaxArchiveBytes
	}
	if l.MaxEntryBytes <= 0 {
		l.MaxEntryBytes = config.DefaultMaxEntryBytes
	}
	if l.MaxEntries <= 0 {
		l.MaxEntries = config.DefaultMaxEntries
	}
	if l.MaxTotalBytes <= 0 {
		l.MaxTotalBytes = 4 * l.MaxArchiveBytes
	}
	return l
}

// Report summarizes one unpack.
type Report struct {
	Entries     int   // regular files written
	Directories int   // directories created from entries
	Skipped     int   // symlink and other non-regular entries ignored
	TotalBytes  int64 // decompressed bytes written
}

// Unpacker extracts uploaded archives into job staging directories.
type Unpacker struct {
	limits Limits
	logger *slog.Logger
}

// NewUnpacker creates an Unpacker with the given limits.
func NewUnpacker(limits Limits, logger *slog.Logger) *Unpacker {
	if logger == nil {
		logger = slog.Default()
	}
	return &Unpacker{
		limits: limits.normalized(),
		logger: logger.With(slog.String("component", "archive")),
	}
}

// Unpack extracts the zip at archivePath into destDir. On any error the
// staging directory may hold partial output; the caller removes it.
func (u *Unpacker) Unpack(ctx context.Context, archivePath, destDir string) (*Report, error) {
	info, err := os.Stat(archivePath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat archive: %w", err)
	}
	if info.Size() > u.limits.MaxArchiveBytes {
		return nil, fmt.Errorf("%w: %d bytes", ErrArchiveTooLarge, info.Size())
	}

	reader, err := zip.OpenReader(archivePath)
	if err != nil {
		if errors.Is(err, zip.ErrInsecurePath) {
			return nil, fmt.Errorf("%w: %v", ErrUnsafePath, err)
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidArchive, err)
	}
	defer reader.Close()

	if len(reader.File) > u.limits.MaxEntries {
		return nil, fmt.Errorf("%w: %d entries", ErrTooManyEntries, len(reader.File))
	}

	report := &Report{}
	cleanDest := filepath.Clean(destDir)

	for _, entry := range reader.File {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		target, err := securePath(cleanDest, entry.Name)
		if err != nil {
			return nil, err
		}

		mode := entry.Mode()
		switch {
		case entry.FileInfo().IsDir():
			if err := os.MkdirAll(target, 0o755); err != nil {
				return nil, fmt.Errorf("failed to create directory %s: %w", entry.Name, err)
			}
			report.Directories++

		case !mode.IsRegular():
			u.logger.Warn("Skipping non-regular archive entry",
				slog.String("name", entry.Name),
				slog.String("mode", mode.String()))
			report.Skipped++

		default:
			written, err := u.writeEntry(entry, target, report.TotalBytes)
			if err != nil {
				return nil, err
			}
			report.TotalBytes += written
			report.Entries++
		}
	}

	u.logger.Info("Archive unpacked",
		slog.String("dest", destDir),
		slog.Int("entries", report.Entries),
		slog.Int("directories", report.Directories),
		slog.Int("skipped", report.Skipped),
		slog.Int64("total_bytes", report.TotalBytes))

	return report, nil
}

// writeEntry copies one regular entry to disk, enforcing the per-entry
// and running total decompression budgets.
func (u *Unpacker) writeEntry(entry *zip.File, target string, totalSoFar int64) (int64, error) {
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return 0, fmt.Errorf("failed to create directory for %s: %w", entry.Name, err)
	}

	src, err := entry.Open()
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrInvalidArchive, err)
	}
	defer src.Close()

	dst, err := os.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return 0, fmt.Errorf("failed to create %s: %w", entry.Name, err)
	}
	defer dst.Close()

	// Copy one byte past the cap so overruns are detectable.
	written, err := io.Copy(dst, io.LimitReader(src, u.limits.MaxEntryBytes+1))
	if err != nil {
		return written, fmt.Errorf("failed to write %s: %w", entry.Name, err)
	}
	if written > u.limits.MaxEntryBytes {
		return written, fmt.Errorf("%w: %s", ErrEntryTooLarge, entry.Name)
	}
	if totalSoFar+written > u.limits.MaxTotalBytes {
		return written, fmt.Errorf("%w: over %d bytes", ErrDecompressedTooLarge, u.limits.MaxTotalBytes)
	}

	return written, nil
}

// securePath joins an entry name onto the staging root and rejects names
// that would resolve outside it.
func securePath(cleanDest, name string) (string, error) {
	target := filepath.Join(cleanDest, filepath.FromSlash(name))
	if target != cleanDest && !strings.HasPrefix(target, cleanDest+string(os.PathSeparator)) {
		return "", fmt.Errorf("%w: %s", ErrUnsafePath, name)
	}
	return target, nil
}

// SaveUpload streams an uploaded archive to dst, refusing to write more
// than maxBytes. It returns the number of bytes written.
func SaveUpload(dst string, r io.Reader, maxBytes int64) (int64, error) {
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return 0, fmt.Errorf("failed to create upload directory: %w", err)
	}

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return 0, fmt.Errorf("failed to create upload file: %w", err)
	}
	defer out.Close()

	written, err := io.Copy(out, io.LimitReader(r, maxBytes+1))
	if err != nil {
		return written, fmt.Errorf("failed to save upload: %w", err)
	}
	if written > maxBytes {
		return written, fmt.Errorf("%w: over %d bytes", ErrArchiveTooLarge, maxBytes)
	}

	return written, nil
}
