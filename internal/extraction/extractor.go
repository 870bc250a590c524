package extraction

import (
	"context"
	"log/slog"
	"strconv"
	"strings"

	"boqscope/pkg/contracts/domain"
)

// Extractor turns one BOQ spreadsheet into a domain.FileResult. All state
// is read-only after construction, so one Extractor serves concurrent
// per-file goroutines.
type Extractor struct {
	heuristics Heuristics
	logger     *slog.Logger
}

// NewExtractor returns an Extractor using the production keyword tables.
func NewExtractor(logger *slog.Logger) *Extractor {
	return NewExtractorWithHeuristics(DefaultHeuristics(), logger)
}

// NewExtractorWithHeuristics returns an Extractor with custom keyword
// tables, used to tune the matching heuristics without touching the
// pipeline.
func NewExtractorWithHeuristics(h Heuristics, logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Extractor{heuristics: h, logger: logger}
}

// Heuristics returns the keyword tables the extractor runs with.
func (e *Extractor) Heuristics() Heuristics {
	return e.heuristics
}

// Extract runs the per-file pipeline: read the raw grid, locate the header
// row, build the structured view, resolve the semantic columns, then
// classify every data row and build items for the pipe-related ones.
// Every failure is downgraded to a single diagnostic record carrying only
// provenance and a message; nothing is raised to the caller, so a batch
// loop over many files never aborts. A file where no row classifies as
// pipe-related yields an empty, diagnostic-free result.
func (e *Extractor) Extract(ctx context.Context, path, tdrFolder, boqFile string) domain.FileResult {
	log := e.logger.With(
		slog.String("tdr_folder", tdrFolder),
		slog.String("boq_file", boqFile),
	)

	diag := func(msg string) domain.FileResult {
		log.InfoContext(ctx, "file downgraded to diagnostic", slog.String("reason", msg))
		return domain.FileResult{Diagnostic: &domain.Diagnostic{
			TDRFolder: tdrFolder,
			BOQFile:   boqFile,
			Message:   msg,
		}}
	}

	if err := ctx.Err(); err != nil {
		return diag("Failed to read file: " + err.Error())
	}

	raw, err := ReadRawSheet(path)
	if err != nil {
		return diag("Failed to read file: " + err.Error())
	}

	headerRow, err := e.heuristics.LocateHeader(raw)
	if err != nil {
		return diag("Header not found")
	}
	log.DebugContext(ctx, "header row located", slog.Int("row", headerRow))

	headers, records, err := StructuredView(raw, headerRow)
	if err != nil {
		return diag("Error loading structured data: " + err.Error())
	}

	// With the default tables this cannot fail after LocateHeader matched
	// the same keywords; custom header rules can still land on a row
	// without resolvable role labels.
	cols, err := e.heuristics.ResolveColumns(headers)
	if err != nil {
		return diag("Missing required columns")
	}
	log.DebugContext(ctx, "columns resolved",
		slog.Int("description", cols.Description),
		slog.Int("unit", cols.Unit),
		slog.Int("quantity", cols.Quantity),
		slog.Int("rate", cols.Rate))

	items := e.buildItems(records, cols, tdrFolder, boqFile)
	log.DebugContext(ctx, "file extracted",
		slog.Int("data_rows", len(records)),
		slog.Int("pipe_rows", len(items)))

	return domain.FileResult{Items: items}
}

// buildItems walks the data rows, keeps the pipe-related ones and shapes
// them into domain items.
func (e *Extractor) buildItems(records [][]string, cols ColumnMap, tdrFolder, boqFile string) []domain.Item {
	items := make([]domain.Item, 0, len(records)/4)

	for _, row := range records {
		description := cellAt(row, cols.Description)
		if !e.heuristics.IsPipeRow(description) {
			continue
		}

		k9, k7 := e.heuristics.Flags(description)
		display, normalized := e.heuristics.NormalizeUnit(cellAt(row, cols.Unit))

		item := domain.Item{
			TDRFolder:      tdrFolder,
			BOQFile:        boqFile,
			Description:    description,
			K9:             k9,
			K7:             k7,
			Unit:           display,
			UnitNormalized: normalized,
		}

		if dia, ok := ParseDiameter(description); ok {
			item.DIA = &dia
		}
		if cols.HasRate() {
			item.Rate = parseNumeric(cellAt(row, cols.Rate))
		}
		if cols.HasQuantity() {
			if qty, ok := parseOptionalNumeric(cellAt(row, cols.Quantity)); ok {
				item.Quantity = &qty
			}
		}

		items = append(items, item)
	}
	return items
}

// parseNumeric parses a cell as a float, stripping the thousands commas
// Excel likes to format in; unparsable cells collapse to zero.
func parseNumeric(cell string) float64 {
	v, _ := strconv.ParseFloat(strings.ReplaceAll(cell, ",", ""), 64)
	return v
}

// parseOptionalNumeric is parseNumeric with the unparsable case kept
// distinct from a literal zero.
func parseOptionalNumeric(cell string) (float64, bool) {
	v, err := strconv.ParseFloat(strings.ReplaceAll(cell, ",", ""), 64)
	if err != nil {
		return 0, false
	}
	return v, true
}
