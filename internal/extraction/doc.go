// Package extraction implements the per-file BOQ pipeline: locating the
// header row inside an unstructured spreadsheet, resolving semantic columns
// by fuzzy name matching, classifying rows as pipe-related, parsing embedded
// diameters from free-text descriptions, and normalizing unit strings.
//
// # Architecture
//
// The package is organized around small pure functions driven by explicit
// keyword tables:
//
//  1. Heuristics: the keyword tables (header detection, column roles, pipe
//     classification, unit synonyms) with their matching rules
//  2. Extractor: the orchestrator turning one spreadsheet file into a
//     domain.FileResult
//
// # Usage
//
// Basic extraction example:
//
//	ex := extraction.NewExtractor(logger)
//	result := ex.Extract(ctx, "TDR-A/boq.xlsx", "TDR-A", "boq.xlsx")
//	if result.Failed() {
//	    log.Println(result.Diagnostic.Message)
//	}
//
// # Data Flow
//
// The per-file pipeline:
//
//	Spreadsheet → RawSheet → header row → structured view → resolved
//	columns → classified rows → []domain.Item
//
// # Error Handling
//
// No failure escapes a file: unreadable bytes, a missing header row, a
// failed structured re-read and missing required columns all collapse into
// a single diagnostic record so the surrounding batch never aborts. A file
// with zero matching rows is a valid empty result, not an error.
package extraction
