package extraction

import (
	"strings"
)

// NormalizeUnit maps a raw unit cell to its display and comparison forms.
// The comparison form is trimmed, lowercased and synonym-collapsed; the
// display form keeps the original casing, merely trimmed, except when the
// folded value hits the synonym table, in which case both forms carry the
// canonical "meter". Callers must not lowercase the display form again.
func (h Heuristics) NormalizeUnit(raw string) (display, normalized string) {
	display = strings.TrimSpace(raw)
	normalized = strings.ToLower(display)
	if canonical, ok := h.UnitSynonyms[normalized]; ok {
		return canonical, canonical
	}
	return display, normalized
}
