package services

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"boqscope/internal/archive"
	"boqscope/internal/batch"
	"boqscope/internal/config"
	apierrors "boqscope/internal/errors"
	"boqscope/internal/extraction"
	"boqscope/internal/exporter"
	"boqscope/internal/files"
	"boqscope/internal/infrastructure"
	"boqscope/internal/validation"
	"boqscope/pkg/contracts/domain"
	"boqscope/pkg/contracts/events"
)

// ProgressBroadcaster pushes job snapshots to subscribed clients.
type ProgressBroadcaster interface {
	BroadcastSnapshotWithTrace(snapshot events.ExtractionSnapshot, traceID string)
}

// JobStatus is the full state of one extraction job as reported to API
// clients: the live snapshot plus a bounded preview of the final table and
// the per-file diagnostics collected so far. The snapshot already carries
// the diagnostics count; FileDiagnostics holds the entries themselves.
type JobStatus struct {
	events.ExtractionSnapshot
	Preview         []domain.SummaryRow `json:"preview,omitempty"`
	FileDiagnostics []domain.Diagnostic `json:"file_diagnostics,omitempty"`
}

// jobRecord is the store entry for one job. The snapshot is the only state
// clients ever see; summary and diagnostics back the status preview.
type jobRecord struct {
	snapshot    events.ExtractionSnapshot
	traceID     string
	summary     *domain.Summary
	diagnostics []domain.Diagnostic
	cancel      context.CancelFunc
}

// ExtractionService owns the extraction job lifecycle: archive intake,
// asynchronous pipeline execution, progress broadcasting, export artifacts
// and TTL-based cleanup. Jobs live in a mutex-guarded in-memory store keyed
// by uuid.
type ExtractionService struct {
	cfg         config.ExtractionConfig
	paths       *config.Paths
	fileManager *files.Manager
	validator   *validation.FileValidator
	unpacker    *archive.Unpacker
	extractor   *extraction.Extractor
	workbooks   *exporter.WorkbookWriter
	csvFiles    *exporter.CSVWriter
	databases   *exporter.DatabaseWriter
	broadcaster ProgressBroadcaster
	metrics     *infrastructure.BusinessMetrics
	logger      *slog.Logger

	mu   sync.RWMutex
	jobs map[string]*jobRecord
}

// NewExtractionService creates the job service and ensures the on-disk
// workspace exists. broadcaster and metrics may be nil; progress events and
// business metrics are then skipped.
func NewExtractionService(cfg config.ExtractionConfig, paths *config.Paths, broadcaster ProgressBroadcaster, metrics *infrastructure.BusinessMetrics, logger *slog.Logger) (*ExtractionService, error) {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With(slog.String("component", "extraction_service"))

	manager := files.NewManager(paths)
	if err := manager.EnsureWorkspace(); err != nil {
		return nil, fmt.Errorf("failed to prepare workspace: %w", err)
	}

	limits := archive.Limits{
		MaxArchiveBytes: cfg.MaxArchiveBytes,
		MaxEntryBytes:   cfg.MaxEntryBytes,
		MaxEntries:      cfg.MaxEntries,
	}

	logger.Info("ExtractionService initialized",
		slog.String("staging_dir", paths.StagingDir),
		slog.String("exports_dir", paths.ExportsDir),
		slog.Int("workers", cfg.Workers),
		slog.Duration("job_ttl", cfg.JobTTL))

	return &ExtractionService{
		cfg:         cfg,
		paths:       paths,
		fileManager: manager,
		validator:   validation.NewFileValidator(logger),
		unpacker:    archive.NewUnpacker(limits, logger),
		extractor:   extraction.NewExtractor(logger),
		workbooks:   exporter.NewWorkbookWriter(paths),
		csvFiles:    exporter.NewCSVWriter(paths),
		databases:   exporter.NewDatabaseWriter(paths),
		broadcaster: broadcaster,
		metrics:     metrics,
		logger:      logger,
		jobs:        make(map[string]*jobRecord),
	}, nil
}

// Submit stores the uploaded archive, registers a new job and starts the
// pipeline in the background. filename is the client-supplied name and is
// only used for the .zip extension gate; the upload itself is staged under
// a fixed name. Returns the job id.
func (s *ExtractionService) Submit(ctx context.Context, upload io.Reader, filename string) (string, error) {
	if upload == nil {
		return "", apierrors.ErrUploadMissing
	}
	if filename != "" && !strings.EqualFold(filepath.Ext(filename), ".zip") {
		return "", fmt.Errorf("upload %s: %w", filename, archive.ErrInvalidArchive)
	}

	jobID := uuid.New().String()
	traceID := infrastructure.GetTraceID(ctx)
	logger := infrastructure.LoggerWithContext(ctx).With(
		slog.String("component", "extraction_service"),
		slog.String("job_id", jobID))

	staging, err := s.fileManager.JobStagingDir(jobID)
	if err != nil {
		return "", err
	}

	archivePath := filepath.Join(staging, config.UploadFileName)
	size, err := archive.SaveUpload(archivePath, upload, s.cfg.MaxArchiveBytes)
	if err != nil {
		s.fileManager.RemoveJob(jobID)
		return "", err
	}
	if err := s.validator.ValidateArchiveFile(archivePath); err != nil {
		s.fileManager.RemoveJob(jobID)
		return "", err
	}

	logger.Info("Archive upload accepted",
		slog.String("filename", filename),
		slog.Int64("size_bytes", size))

	now := time.Now().UTC()
	rec := &jobRecord{
		snapshot: events.ExtractionSnapshot{
			JobID:     jobID,
			Phase:     events.PhaseUpload,
			Progress:  5,
			Message:   fmt.Sprintf("Archive received (%d bytes).", size),
			StartedAt: now,
			UpdatedAt: now,
		},
		traceID: traceID,
	}

	runCtx, cancel := context.WithTimeout(context.Background(), config.DefaultOperationTimeout)
	runCtx = infrastructure.WithTraceID(runCtx, traceID)
	rec.cancel = cancel

	s.mu.Lock()
	s.jobs[jobID] = rec
	s.mu.Unlock()

	s.publish(rec.snapshot, traceID)
	infrastructure.RecordActiveJobChange(runCtx, s.metrics, 1)

	go s.run(runCtx, cancel, jobID, archivePath, staging)

	return jobID, nil
}

// run executes the pipeline phases for one job. It owns the job's staging
// directory and removes it when the job reaches a terminal phase.
func (s *ExtractionService) run(ctx context.Context, cancel context.CancelFunc, jobID, archivePath, stagingDir string) {
	defer cancel()

	started := time.Now()
	logger := infrastructure.LoggerWithContext(ctx).With(
		slog.String("component", "extraction_service"),
		slog.String("job_id", jobID))

	extractedDir := filepath.Join(stagingDir, "extracted")

	// unpack
	s.transition(jobID, events.PhaseUnpack, 10, "Unpacking archive.")
	unpackCtx, cancelUnpack := context.WithTimeout(ctx, config.UnpackTimeout)
	report, err := s.unpacker.Unpack(unpackCtx, archivePath, extractedDir)
	cancelUnpack()
	if err != nil {
		s.fail(ctx, jobID, started, fmt.Errorf("unpack failed: %w", err))
		return
	}
	logger.Info("Archive unpacked",
		slog.Int("entries", report.Entries),
		slog.Int64("total_bytes", report.TotalBytes))

	// discover
	s.transition(jobID, events.PhaseDiscover, 20, "Scanning for BOQ workbooks.")
	refs, err := files.NewDiscovery(extractedDir).FindSpreadsheets()
	if err != nil {
		s.fail(ctx, jobID, started, fmt.Errorf("discovery failed: %w", err))
		return
	}
	s.update(jobID, func(snap *events.ExtractionSnapshot) {
		snap.FilesTotal = len(refs)
		snap.Progress = 25
		snap.Message = fmt.Sprintf("Found %d workbooks in %d TDR folders.", len(refs), len(files.CountByFolder(refs)))
	})

	// extract
	runner := batch.NewRunner(s.extractor, s.cfg.Workers, logger)
	runner.OnProgress(func(processed, total int, ref files.SpreadsheetRef, failed bool) {
		s.update(jobID, func(snap *events.ExtractionSnapshot) {
			snap.Phase = events.PhaseExtract
			snap.FilesProcessed = processed
			if failed {
				snap.Diagnostics++
			}
			if total > 0 {
				snap.Progress = 25 + processed*60/total
			}
			snap.Message = fmt.Sprintf("Extracted %d of %d workbooks.", processed, total)
		})
	})
	result, err := runner.RunRefs(ctx, refs)
	if err != nil {
		s.fail(ctx, jobID, started, fmt.Errorf("extraction failed: %w", err))
		return
	}
	s.recordBatchMetrics(ctx, refs, result)

	// aggregate
	s.transition(jobID, events.PhaseAggregate, 90, "Building the consolidated summary.")
	summary := batch.BuildSummary(result)
	message := fmt.Sprintf("Extracted %d rows with DIA >= 80.", len(summary.Rows))
	if summary.Empty() {
		message = "No matching BOQ rows found."
	}
	s.mu.Lock()
	if rec, ok := s.jobs[jobID]; ok {
		rec.summary = summary
		rec.diagnostics = result.Diagnostics
		rec.snapshot.RowsExtracted = len(summary.Rows)
		rec.snapshot.Diagnostics = len(result.Diagnostics)
	}
	s.mu.Unlock()

	// export
	s.transition(jobID, events.PhaseExport, 95, "Writing summary exports.")
	if err := s.writeExports(ctx, jobID, summary); err != nil {
		s.fail(ctx, jobID, started, err)
		return
	}

	if err := s.fileManager.RemoveStaging(jobID); err != nil {
		logger.Warn("Failed to remove staging directory", slog.String("error", err.Error()))
	}

	s.update(jobID, func(snap *events.ExtractionSnapshot) {
		snap.Phase = events.PhaseComplete
		snap.Progress = 100
		snap.Message = message
		completed := time.Now().UTC()
		snap.CompletedAt = &completed
	})

	logger.Info("Extraction job complete",
		slog.Int("files", result.FilesSeen),
		slog.Int("rows", len(summary.Rows)),
		slog.Int("diagnostics", len(result.Diagnostics)),
		slog.Duration("duration", time.Since(started)))

	infrastructure.RecordJobMetrics(ctx, s.metrics, jobID, time.Since(started), true, nil)
	infrastructure.RecordActiveJobChange(ctx, s.metrics, -1)
}

// writeExports renders the summary in every supported format so downloads
// can stream whichever the client asks for.
func (s *ExtractionService) writeExports(ctx context.Context, jobID string, summary *domain.Summary) error {
	if _, err := s.fileManager.JobExportDir(jobID); err != nil {
		return err
	}

	exportCtx, cancel := context.WithTimeout(ctx, config.ExportTimeout)
	defer cancel()

	if err := s.workbooks.WriteSummaryWorkbook(s.paths.GetSummaryExportPath(jobID, config.FormatXLSX), summary); err != nil {
		return fmt.Errorf("xlsx export failed: %w", err)
	}
	infrastructure.RecordExport(exportCtx, s.metrics, config.FormatXLSX)

	if err := s.csvFiles.WriteSummaryCSV(s.paths.GetSummaryExportPath(jobID, config.FormatCSV), summary); err != nil {
		return fmt.Errorf("csv export failed: %w", err)
	}
	infrastructure.RecordExport(exportCtx, s.metrics, config.FormatCSV)

	if err := s.databases.WriteSummaryDatabase(exportCtx, s.paths.GetSummaryExportPath(jobID, config.FormatSQLite), summary); err != nil {
		return fmt.Errorf("sqlite export failed: %w", err)
	}
	infrastructure.RecordExport(exportCtx, s.metrics, config.FormatSQLite)

	return nil
}

// fail marks a job failed, cleans its staging directory and records the
// failure metrics. The export directory is left alone; failed jobs have no
// artifacts worth keeping but cleanup handles stragglers.
func (s *ExtractionService) fail(ctx context.Context, jobID string, started time.Time, err error) {
	logger := infrastructure.LoggerWithContext(ctx).With(
		slog.String("component", "extraction_service"),
		slog.String("job_id", jobID))
	logger.Error("Extraction job failed", slog.String("error", err.Error()))

	s.update(jobID, func(snap *events.ExtractionSnapshot) {
		snap.Phase = events.PhaseFailed
		snap.Message = "Extraction failed."
		snap.Error = err.Error()
		completed := time.Now().UTC()
		snap.CompletedAt = &completed
	})

	if removeErr := s.fileManager.RemoveStaging(jobID); removeErr != nil {
		logger.Warn("Failed to remove staging directory", slog.String("error", removeErr.Error()))
	}

	infrastructure.RecordJobMetrics(ctx, s.metrics, jobID, time.Since(started), false, err)
	infrastructure.RecordActiveJobChange(ctx, s.metrics, -1)
}

// Status returns the current state of a job, including up to PreviewRows
// rows of the final table once aggregation has run.
func (s *ExtractionService) Status(ctx context.Context, jobID string) (*JobStatus, error) {
	s.mu.RLock()
	rec, ok := s.jobs[jobID]
	if !ok {
		s.mu.RUnlock()
		return nil, apierrors.ErrJobNotFound
	}

	status := &JobStatus{ExtractionSnapshot: rec.snapshot}
	if rec.summary != nil {
		limit := len(rec.summary.Rows)
		if s.cfg.PreviewRows > 0 && limit > s.cfg.PreviewRows {
			limit = s.cfg.PreviewRows
		}
		status.Preview = append([]domain.SummaryRow(nil), rec.summary.Rows[:limit]...)
	}
	status.FileDiagnostics = append([]domain.Diagnostic(nil), rec.diagnostics...)
	s.mu.RUnlock()

	return status, nil
}

// ExportPath resolves the on-disk artifact for a finished job in the given
// format. The artifact must still exist; cleanup may have swept it.
func (s *ExtractionService) ExportPath(ctx context.Context, jobID, format string) (string, error) {
	switch format {
	case config.FormatXLSX, config.FormatCSV, config.FormatSQLite:
	default:
		return "", fmt.Errorf("%q: %w", format, apierrors.ErrUnknownFormat)
	}

	s.mu.RLock()
	rec, ok := s.jobs[jobID]
	var phase events.Phase
	if ok {
		phase = rec.snapshot.Phase
	}
	s.mu.RUnlock()

	if !ok {
		return "", apierrors.ErrJobNotFound
	}
	switch phase {
	case events.PhaseComplete:
	case events.PhaseFailed:
		return "", fmt.Errorf("job %s failed: %w", jobID, apierrors.ErrJobNotFinished)
	default:
		return "", fmt.Errorf("job %s is in phase %s: %w", jobID, phase, apierrors.ErrJobStillRunning)
	}

	path := s.paths.GetSummaryExportPath(jobID, format)
	if err := s.validator.ValidateFile(path); err != nil {
		return "", fmt.Errorf("export artifact removed: %w", apierrors.ErrJobNotFound)
	}
	return path, nil
}

// ActiveJobs counts jobs that have not reached a terminal phase.
func (s *ExtractionService) ActiveJobs() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	active := 0
	for _, rec := range s.jobs {
		switch rec.snapshot.Phase {
		case events.PhaseComplete, events.PhaseFailed:
		default:
			active++
		}
	}
	return active
}

// JobCount returns the number of jobs currently in the store.
func (s *ExtractionService) JobCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.jobs)
}

// CancelAll cancels every running job. Each cancelled pipeline observes the
// context error at its next phase boundary and lands in the failed phase.
func (s *ExtractionService) CancelAll() {
	s.mu.RLock()
	cancels := make([]context.CancelFunc, 0, len(s.jobs))
	for _, rec := range s.jobs {
		switch rec.snapshot.Phase {
		case events.PhaseComplete, events.PhaseFailed:
		default:
			if rec.cancel != nil {
				cancels = append(cancels, rec.cancel)
			}
		}
	}
	s.mu.RUnlock()

	for _, cancel := range cancels {
		cancel()
	}

	if len(cancels) > 0 {
		s.logger.Info("Cancelled running extraction jobs", slog.Int("count", len(cancels)))
	}
}

// StartCleanup runs the expiry loop until ctx is cancelled. A non-positive
// interval defaults to a quarter of the job TTL.
func (s *ExtractionService) StartCleanup(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = s.cfg.JobTTL / 4
	}
	if interval <= 0 {
		interval = 15 * time.Minute
	}

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.CleanupExpired()
				s.SweepStaleWorkspace()
			}
		}
	}()
}

// SweepStaleWorkspace removes staging and export directories untouched for
// longer than the configured sweep age. These are leftovers from interrupted
// runs; live jobs are always younger than the sweep age.
func (s *ExtractionService) SweepStaleWorkspace() int {
	removed, err := s.fileManager.SweepStale(s.cfg.SweepAge)
	if err != nil {
		s.logger.Warn("Workspace sweep failed",
			slog.Int("removed", removed),
			slog.String("error", err.Error()))
	}
	return removed
}

// CleanupExpired drops finished jobs older than the TTL together with their
// export directories. Returns the number of jobs removed.
func (s *ExtractionService) CleanupExpired() int {
	cutoff := time.Now().UTC().Add(-s.cfg.JobTTL)

	s.mu.Lock()
	expired := make([]string, 0)
	for id, rec := range s.jobs {
		if rec.snapshot.CompletedAt == nil {
			continue
		}
		if rec.snapshot.CompletedAt.Before(cutoff) {
			expired = append(expired, id)
			delete(s.jobs, id)
		}
	}
	s.mu.Unlock()

	for _, id := range expired {
		if err := s.fileManager.RemoveJob(id); err != nil {
			s.logger.Warn("Failed to remove expired job workspace",
				slog.String("job_id", id),
				slog.String("error", err.Error()))
		}
	}

	if len(expired) > 0 {
		s.logger.Info("Expired extraction jobs removed", slog.Int("count", len(expired)))
	}
	return len(expired)
}

// transition moves a job to a new phase with a fixed progress value.
func (s *ExtractionService) transition(jobID string, phase events.Phase, progress int, message string) {
	s.update(jobID, func(snap *events.ExtractionSnapshot) {
		snap.Phase = phase
		snap.Progress = progress
		snap.Message = message
	})
}

// update mutates a job's snapshot under the lock and broadcasts the result.
func (s *ExtractionService) update(jobID string, fn func(*events.ExtractionSnapshot)) {
	s.mu.Lock()
	rec, ok := s.jobs[jobID]
	if !ok {
		s.mu.Unlock()
		return
	}
	fn(&rec.snapshot)
	rec.snapshot.UpdatedAt = time.Now().UTC()
	snap := rec.snapshot
	traceID := rec.traceID
	s.mu.Unlock()

	s.publish(snap, traceID)
}

func (s *ExtractionService) publish(snap events.ExtractionSnapshot, traceID string) {
	if s.broadcaster == nil {
		return
	}
	s.broadcaster.BroadcastSnapshotWithTrace(snap, traceID)
}

// recordBatchMetrics emits one per-file metric sample for every discovered
// workbook after the batch settles, with exact item counts.
func (s *ExtractionService) recordBatchMetrics(ctx context.Context, refs []files.SpreadsheetRef, result *domain.BatchResult) {
	if s.metrics == nil {
		return
	}

	type fileKey struct{ folder, name string }
	itemCounts := make(map[fileKey]int, len(refs))
	for _, item := range result.Items {
		itemCounts[fileKey{item.TDRFolder, item.BOQFile}]++
	}
	failed := make(map[fileKey]bool, len(result.Diagnostics))
	for _, diag := range result.Diagnostics {
		failed[fileKey{diag.TDRFolder, diag.BOQFile}] = true
	}

	for _, ref := range refs {
		key := fileKey{ref.TDRFolder, ref.Name}
		infrastructure.RecordFileMetrics(ctx, s.metrics, ref.TDRFolder, itemCounts[key], failed[key])
	}
}
