package extraction

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeUnit(t *testing.T) {
	h := DefaultHeuristics()

	tests := []struct {
		name           string
		raw            string
		wantDisplay    string
		wantNormalized string
	}{
		{"rmt collapses", "RMT", "meter", "meter"},
		{"per metre collapses", "Per Metre", "meter", "meter"},
		{"rm collapses", " rm ", "meter", "meter"},
		{"mtrs collapses", "Mtrs", "meter", "meter"},
		{"non synonym keeps case", "Each", "Each", "each"},
		{"non synonym trimmed", "  Cum  ", "Cum", "cum"},
		{"already meter", "meter", "meter", "meter"},
		{"empty", "", "", ""},
		{"synonym only on exact value", "rmt extra", "rmt extra", "rmt extra"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			display, normalized := h.NormalizeUnit(tt.raw)
			assert.Equal(t, tt.wantDisplay, display, "display form")
			assert.Equal(t, tt.wantNormalized, normalized, "normalized form")
		})
	}
}
