package extraction

import (
	"strings"
)

// CleanIllegal removes the control characters spreadsheet libraries refuse
// to serialize (0x00-0x08, 0x0B, 0x0C, 0x0E-0x1F). Tab, LF and CR are legal
// sheet content and pass through.
func CleanIllegal(s string) string {
	if !strings.ContainsFunc(s, isIllegal) {
		return s
	}
	return strings.Map(func(r rune) rune {
		if isIllegal(r) {
			return -1
		}
		return r
	}, s)
}

func isIllegal(r rune) bool {
	switch {
	case r >= 0x00 && r <= 0x08:
		return true
	case r == 0x0B || r == 0x0C:
		return true
	case r >= 0x0E && r <= 0x1F:
		return true
	}
	return false
}

// foldCell prepares a cell for keyword comparison.
func foldCell(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// cellAt returns the trimmed cell at idx, or "" when the row is shorter.
// Rows coming out of excelize drop trailing empty cells, so short rows are
// routine, not an error.
func cellAt(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}
