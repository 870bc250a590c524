package extraction

import (
	"errors"
)

// ErrMissingRequiredColumns is returned when the description or unit role
// cannot be resolved against the header labels.
var ErrMissingRequiredColumns = errors.New("missing required columns")

// ColumnMap holds the resolved column index for each semantic role.
// Description and Unit always hold valid indexes once ResolveColumns
// succeeds; Quantity and Rate are -1 when the sheet has no such column.
type ColumnMap struct {
	Description int
	Unit        int
	Quantity    int
	Rate        int
}

// HasQuantity reports whether the sheet carries a quantity column.
func (c ColumnMap) HasQuantity() bool { return c.Quantity >= 0 }

// HasRate reports whether the sheet carries a rate column.
func (c ColumnMap) HasRate() bool { return c.Rate >= 0 }

// ResolveColumns maps the header row's labels to the four semantic roles.
// For each role the first column in sheet order whose lowercased label
// contains any of the role's keywords wins; there is no scoring beyond
// substring containment. A sheet without a resolvable description or unit
// column fails with ErrMissingRequiredColumns; a missing quantity or rate
// column is valid and yields absent/zero values downstream.
func (h Heuristics) ResolveColumns(headers []string) (ColumnMap, error) {
	cols := ColumnMap{
		Description: findColumn(headers, h.DescriptionKeys),
		Unit:        findColumn(headers, h.UnitKeys),
		Quantity:    findColumn(headers, h.QuantityKeys),
		Rate:        findColumn(headers, h.RateKeys),
	}
	if cols.Description < 0 || cols.Unit < 0 {
		return ColumnMap{}, ErrMissingRequiredColumns
	}
	return cols, nil
}

// findColumn returns the index of the first label containing any keyword,
// or -1.
func findColumn(headers []string, keys []string) int {
	for i, label := range headers {
		if containsAny(foldCell(label), keys) {
			return i
		}
	}
	return -1
}
