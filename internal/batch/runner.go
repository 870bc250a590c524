package batch

import (
	"context"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"

	"boqscope/internal/extraction"
	"boqscope/internal/files"
	"boqscope/pkg/contracts/domain"
)

// ProgressFunc receives a notification after each workbook completes.
// processed counts finished files, failed reports whether this file
// produced a diagnostic. Calls are serialized.
type ProgressFunc func(processed, total int, ref files.SpreadsheetRef, failed bool)

// Runner extracts every workbook of an archive with a bounded worker pool.
type Runner struct {
	extractor *extraction.Extractor
	workers   int
	logger    *slog.Logger
	progress  ProgressFunc
}

// NewRunner creates a Runner. workers below one is raised to one.
func NewRunner(extractor *extraction.Extractor, workers int, logger *slog.Logger) *Runner {
	if workers < 1 {
		workers = 1
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{
		extractor: extractor,
		workers:   workers,
		logger:    logger.With(slog.String("component", "batch")),
	}
}

// OnProgress registers a progress callback. Must be set before Run.
func (r *Runner) OnProgress(fn ProgressFunc) {
	r.progress = fn
}

// Run discovers all workbooks under root and extracts them.
func (r *Runner) Run(ctx context.Context, root string) (*domain.BatchResult, error) {
	refs, err := files.NewDiscovery(root).FindSpreadsheets()
	if err != nil {
		return nil, err
	}
	return r.RunRefs(ctx, refs)
}

// RunRefs extracts the given workbooks in parallel. Results are folded in
// ref order, so the output is deterministic no matter how the pool
// schedules the work. Extraction failures become diagnostics; only
// cancellation aborts the batch.
func (r *Runner) RunRefs(ctx context.Context, refs []files.SpreadsheetRef) (*domain.BatchResult, error) {
	results := make([]domain.FileResult, len(refs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.workers)

	var mu sync.Mutex
	processed := 0

	for i, ref := range refs {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}

			results[i] = r.extractor.Extract(gctx, ref.Path, ref.TDRFolder, ref.Name)

			mu.Lock()
			processed++
			if r.progress != nil {
				r.progress(processed, len(refs), ref, results[i].Failed())
			}
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	batch := &domain.BatchResult{FilesSeen: len(refs)}
	for _, res := range results {
		if res.Failed() {
			batch.Diagnostics = append(batch.Diagnostics, *res.Diagnostic)
			continue
		}
		batch.Items = append(batch.Items, res.Items...)
	}

	r.logger.Info("Batch extraction complete",
		slog.Int("files", batch.FilesSeen),
		slog.Int("items", len(batch.Items)),
		slog.Int("diagnostics", len(batch.Diagnostics)))

	return batch, nil
}
