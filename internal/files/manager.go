package files

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"boqscope/internal/config"
)

// Manager owns the on-disk workspace for extraction jobs. Each job gets a
// staging directory for the unpacked archive and an export directory for
// generated summary files.
type Manager struct {
	paths *config.Paths
}

// NewManager creates a file manager over the configured paths.
func NewManager(paths *config.Paths) *Manager {
	return &Manager{paths: paths}
}

// JobStagingDir creates and returns the staging directory for a job.
func (m *Manager) JobStagingDir(jobID string) (string, error) {
	dir := filepath.Join(m.paths.StagingDir, jobID)

	slog.Info("Creating job staging directory",
		slog.String("job_id", jobID),
		slog.String("dir", dir))

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create staging directory: %w", err)
	}
	return dir, nil
}

// JobExportDir creates and returns the export directory for a job.
func (m *Manager) JobExportDir(jobID string) (string, error) {
	dir := filepath.Join(m.paths.ExportsDir, jobID)

	slog.Info("Creating job export directory",
		slog.String("job_id", jobID),
		slog.String("dir", dir))

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create export directory: %w", err)
	}
	return dir, nil
}

// RemoveJob deletes a job's staging and export directories.
func (m *Manager) RemoveJob(jobID string) error {
	staging := filepath.Join(m.paths.StagingDir, jobID)
	exports := filepath.Join(m.paths.ExportsDir, jobID)

	slog.Info("Removing job workspace",
		slog.String("job_id", jobID),
		slog.String("staging", staging),
		slog.String("exports", exports))

	if err := os.RemoveAll(staging); err != nil {
		return fmt.Errorf("failed to remove staging directory: %w", err)
	}
	if err := os.RemoveAll(exports); err != nil {
		return fmt.Errorf("failed to remove export directory: %w", err)
	}
	return nil
}

// RemoveStaging deletes only the staging directory for a job, keeping any
// exported files available for download.
func (m *Manager) RemoveStaging(jobID string) error {
	staging := filepath.Join(m.paths.StagingDir, jobID)

	slog.Debug("Removing job staging directory",
		slog.String("job_id", jobID),
		slog.String("staging", staging))

	return os.RemoveAll(staging)
}

// SweepStale removes job directories whose contents have not been touched
// within maxAge. It returns the number of directories removed. Used at
// startup to reclaim space left by interrupted runs.
func (m *Manager) SweepStale(maxAge time.Duration) (int, error) {
	cutoff := time.Now().Add(-maxAge)
	removed := 0

	for _, base := range []string{m.paths.StagingDir, m.paths.ExportsDir} {
		entries, err := os.ReadDir(base)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return removed, fmt.Errorf("failed to read %s: %w", base, err)
		}

		for _, entry := range entries {
			if !entry.IsDir() {
				continue
			}
			info, err := entry.Info()
			if err != nil {
				continue
			}
			if info.ModTime().After(cutoff) {
				continue
			}

			dir := filepath.Join(base, entry.Name())
			slog.Info("Sweeping stale job directory",
				slog.String("dir", dir),
				slog.Time("mod_time", info.ModTime()))

			if err := os.RemoveAll(dir); err != nil {
				return removed, fmt.Errorf("failed to remove %s: %w", dir, err)
			}
			removed++
		}
	}

	return removed, nil
}

// EnsureWorkspace creates the staging and export roots if they are missing.
func (m *Manager) EnsureWorkspace() error {
	for _, dir := range []string{m.paths.StagingDir, m.paths.ExportsDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create workspace directory %s: %w", dir, err)
		}
	}
	return nil
}
