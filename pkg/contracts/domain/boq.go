// Package domain contains the shared domain types for the BOQ Scope
// Extractor: extracted line items, file-level diagnostics, and the final
// consolidated summary table.
package domain

// ColumnRole identifies the semantic meaning of a spreadsheet column.
type ColumnRole string

const (
	RoleDescription ColumnRole = "description"
	RoleUnit        ColumnRole = "unit"
	RoleQuantity    ColumnRole = "quantity"
	RoleRate        ColumnRole = "rate"
)

// SummaryColumns lists the canonical headers of the final summary table in
// export order. Exporters and handlers must not reorder or rename these.
var SummaryColumns = []string{
	"SL No",
	"TDR Folder",
	"BOQ File",
	"Item Description",
	"K-9",
	"K-7",
	"DIA",
	"estimate rate",
	"Units",
	"Quantity",
}

// Item is one pipe-related line item extracted from a BOQ sheet.
// DIA and Quantity are nil when the source cell had no parseable value;
// Rate defaults to zero when the rate column is missing or unparsable.
type Item struct {
	TDRFolder   string   `json:"tdr_folder"`
	BOQFile     string   `json:"boq_file"`
	Description string   `json:"item_description"`
	K9          bool     `json:"k9"`
	K7          bool     `json:"k7"`
	DIA         *int     `json:"dia,omitempty"`
	Rate        float64  `json:"estimate_rate"`
	Unit        string   `json:"units"`
	Quantity    *float64 `json:"quantity,omitempty"`

	// UnitNormalized is the trimmed, lowercased, synonym-collapsed unit
	// used for internal comparisons only. The exported Units value is Unit.
	UnitNormalized string `json:"-"`
}

// DIAValue returns the parsed diameter and whether one was present.
func (i Item) DIAValue() (int, bool) {
	if i.DIA == nil {
		return 0, false
	}
	return *i.DIA, true
}

// Diagnostic represents a file-level extraction failure. It carries only
// provenance and a message; diagnostics never survive the DIA filter into
// the final table.
type Diagnostic struct {
	TDRFolder string `json:"tdr_folder"`
	BOQFile   string `json:"boq_file"`
	Message   string `json:"message"`
}

// FileResult is the outcome of extracting one BOQ file: either a possibly
// empty item sequence or a single diagnostic, never both. An empty Items
// slice with a nil Diagnostic is a valid "no matching rows" outcome.
type FileResult struct {
	Items      []Item      `json:"items"`
	Diagnostic *Diagnostic `json:"diagnostic,omitempty"`
}

// Failed reports whether the file produced a diagnostic instead of items.
func (r FileResult) Failed() bool {
	return r.Diagnostic != nil
}

// BatchResult holds the concatenated pre-filter output of a whole archive.
type BatchResult struct {
	Items       []Item       `json:"items"`
	Diagnostics []Diagnostic `json:"diagnostics"`
	FilesSeen   int          `json:"files_seen"`
}

// SummaryRow is one row of the final filtered table. Every value is
// rendered as text with illegal control characters stripped; K9 and K7
// are "Yes" or the empty string.
type SummaryRow struct {
	SLNo        string `json:"sl_no"`
	TDRFolder   string `json:"tdr_folder"`
	BOQFile     string `json:"boq_file"`
	Description string `json:"item_description"`
	K9          string `json:"k9"`
	K7          string `json:"k7"`
	DIA         string `json:"dia"`
	Rate        string `json:"estimate_rate"`
	Units       string `json:"units"`
	Quantity    string `json:"quantity"`
}

// Cells returns the row's values in SummaryColumns order.
func (r SummaryRow) Cells() []string {
	return []string{
		r.SLNo,
		r.TDRFolder,
		r.BOQFile,
		r.Description,
		r.K9,
		r.K7,
		r.DIA,
		r.Rate,
		r.Units,
		r.Quantity,
	}
}

// Summary is the final consolidated table: rows with DIA >= 80, serial
// numbered 1..N in deterministic (folder, file) order.
type Summary struct {
	Rows []SummaryRow `json:"rows"`
}

// Empty reports whether no rows survived the diameter filter.
func (s Summary) Empty() bool {
	return len(s.Rows) == 0
}
