// Package batch runs the extraction pipeline across a whole unpacked
// archive and folds the per-file results into the final consolidated
// summary.
//
// The Runner discovers every workbook under a staging root, extracts them
// with a bounded worker pool, and concatenates the results in the
// deterministic (TDR folder, file name) order regardless of which worker
// finished first. Files that fail to extract contribute a diagnostic
// instead of aborting the batch.
//
// BuildSummary then applies the diameter gate: only items with a parsed
// DIA of at least 80mm reach the table, serial numbered 1..N, with every
// value rendered as clean text.
package batch
