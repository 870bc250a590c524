package extraction

import (
	"regexp"
	"strconv"
	"strings"
)

// diameterPattern matches the first "<digits> mm" callout, with optional
// whitespace between the digits and the unit.
var diameterPattern = regexp.MustCompile(`(\d+)\s*mm`)

// ParseDiameter extracts the nominal diameter in millimeters from a
// free-text description. Only the first match counts; descriptions with
// multiple diameter callouts (transition fittings) are not disambiguated.
// Returns false when the text carries no diameter.
func ParseDiameter(text string) (int, bool) {
	m := diameterPattern.FindStringSubmatch(strings.ToLower(text))
	if m == nil {
		return 0, false
	}
	dia, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, false
	}
	return dia, true
}
