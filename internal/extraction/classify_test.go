package extraction

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsPipeRow(t *testing.T) {
	h := DefaultHeuristics()

	tests := []struct {
		name        string
		description string
		want        bool
	}{
		{"hdpe pipe", "HDPE Pipe 110mm", true},
		{"di class item", "Providing and laying DI K-9 pipe 200 mm", true},
		{"upvc", "uPVC pipe 90mm ring fit", true},
		{"ms casing", "M.S casing pipe", true},
		{"plain concrete work", "Cement Concrete Work", false},
		{"case insensitive", "SUPPLYING PVC CONDUIT", true},
		{"short key inside longer word", "Dismantling of existing road", true},
		{"empty description", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, h.IsPipeRow(tt.description))
		})
	}
}

func TestFlags(t *testing.T) {
	h := DefaultHeuristics()

	tests := []struct {
		name        string
		description string
		wantK9      bool
		wantK7      bool
	}{
		{"k9 hyphenated", "DI K-9 Pipe 100mm", true, false},
		{"k9 compact", "DI K9 Pipe 100mm", true, false},
		{"k7 only", "DI k-7 pipe 150 mm", false, true},
		{"both classes", "K-7/K-9 DI Pipe", true, true},
		{"neither", "HDPE Pipe 110mm", false, false},
		{"compact k7 does not count", "DI K7 Pipe", false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			k9, k7 := h.Flags(tt.description)
			assert.Equal(t, tt.wantK9, k9, "K-9 flag")
			assert.Equal(t, tt.wantK7, k7, "K-7 flag")
		})
	}
}
