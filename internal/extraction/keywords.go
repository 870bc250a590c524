package extraction

import (
	"strings"
)

// Heuristics holds the keyword tables driving header detection, column
// resolution, pipe classification and unit normalization. All matching is
// substring containment over trimmed, lowercased text; synonym lookup is an
// exact match on the folded value.
type Heuristics struct {
	// HeaderScanRows caps how many leading rows are scanned for the header.
	HeaderScanRows int

	// HeaderKeys lists the keyword alternatives a candidate header row must
	// co-locate: some cell must contain a keyword from each group.
	HeaderKeys [][]string

	// Column role keywords, matched against header labels in sheet order.
	DescriptionKeys []string
	UnitKeys        []string
	QuantityKeys    []string
	RateKeys        []string

	// PipeKeys classify a row as pipe-related when any appears in the
	// description.
	PipeKeys []string

	// K9Keys and K7Keys derive the wall-thickness class flags.
	K9Keys []string
	K7Keys []string

	// UnitSynonyms collapses folded unit values to a canonical spelling.
	UnitSynonyms map[string]string
}

// DefaultHeuristics returns the keyword tables used in production. The
// short "di"/"ci" keys deliberately over-match (they hit unrelated words
// like "dividing"); tightening them would silently change which rows are
// extracted, so the broad behavior is kept.
func DefaultHeuristics() Heuristics {
	return Heuristics{
		HeaderScanRows: 30,
		HeaderKeys: [][]string{
			{"desc", "item"},
			{"unit"},
		},
		DescriptionKeys: []string{"desc", "item"},
		UnitKeys:        []string{"unit"},
		QuantityKeys:    []string{"qty", "quantity"},
		RateKeys:        []string{"rate", "amount", "estimate"},
		PipeKeys: []string{
			"pipe", "di", "ci", "m.s", "k-7", "k-9", "hdpe", "pvc", "upvc",
		},
		K9Keys: []string{"k-9", "k9"},
		K7Keys: []string{"k-7"},
		UnitSynonyms: map[string]string{
			"per metre": "meter",
			"rm":        "meter",
			"rmt":       "meter",
			"mtr":       "meter",
			"mtrs":      "meter",
		},
	}
}

// containsAny reports whether s contains at least one of the keys.
func containsAny(s string, keys []string) bool {
	for _, k := range keys {
		if k != "" && strings.Contains(s, k) {
			return true
		}
	}
	return false
}
