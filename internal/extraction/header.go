package extraction

import (
	"errors"
)

// ErrHeaderNotFound is returned when no row inside the scan window looks
// like a column-title row.
var ErrHeaderNotFound = errors.New("header not found")

// LocateHeader scans at most the first HeaderScanRows rows of the raw grid
// and returns the index of the first row where every HeaderKeys group is
// satisfied: some cell contains "desc" or "item" and some cell (possibly a
// different one) contains "unit". BOQ sheets commonly prepend title blocks,
// logos and merged-cell banners before the real header, so keyword
// co-occurrence beats any fixed row assumption. The first matching row
// wins; later candidates are never considered.
func (h Heuristics) LocateHeader(sheet RawSheet) (int, error) {
	limit := h.HeaderScanRows
	if limit > len(sheet) {
		limit = len(sheet)
	}

	for i := 0; i < limit; i++ {
		if h.headerRow(sheet[i]) {
			return i, nil
		}
	}
	return 0, ErrHeaderNotFound
}

// headerRow checks one row against every keyword group.
func (h Heuristics) headerRow(row []string) bool {
	for _, group := range h.HeaderKeys {
		matched := false
		for _, cell := range row {
			if containsAny(foldCell(cell), group) {
				matched = true
				break
			}
		}
		if !matched {
			return false
		}
	}
	return len(h.HeaderKeys) > 0
}
