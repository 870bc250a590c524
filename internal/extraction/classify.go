package extraction

// IsPipeRow classifies a description as pipe-related when its lowercased
// text contains any pipe keyword. The heuristic is intentionally broad:
// "di" and "ci" hit substrings of longer unrelated words, which keeps the
// recall the estimators rely on at the cost of occasional noise rows that
// the diameter filter later discards.
func (h Heuristics) IsPipeRow(description string) bool {
	return containsAny(foldCell(description), h.PipeKeys)
}

// Flags derives the K-9 and K-7 wall-thickness class flags from the
// description. The flags are independent: a combined "K-7/K-9" item sets
// both.
func (h Heuristics) Flags(description string) (k9, k7 bool) {
	folded := foldCell(description)
	return containsAny(folded, h.K9Keys), containsAny(folded, h.K7Keys)
}
