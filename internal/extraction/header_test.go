package extraction

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocateHeader(t *testing.T) {
	h := DefaultHeuristics()

	tests := []struct {
		name    string
		sheet   RawSheet
		wantRow int
		wantErr error
	}{
		{
			name: "header on first row",
			sheet: RawSheet{
				{"Item Description", "Unit", "Qty", "Rate"},
				{"DI Pipe 100mm", "RMT", "10", "500"},
			},
			wantRow: 0,
		},
		{
			name: "header behind banner rows",
			sheet: RawSheet{
				{"Water Supply Scheme"},
				{"Bill of Quantities"},
				{},
				{"Sl", "Description of work", "Unit", "Quantity"},
			},
			wantRow: 3,
		},
		{
			name: "desc alone is not enough",
			sheet: RawSheet{
				{"Description", "Qty"},
				{"Item", "Unit"},
			},
			wantRow: 1,
		},
		{
			name: "first qualifying row wins",
			sheet: RawSheet{
				{"Item", "Unit"},
				{"Description", "Unit"},
			},
			wantRow: 0,
		},
		{
			name: "no qualifying row",
			sheet: RawSheet{
				{"Water Supply Scheme"},
				{"Totals", "123"},
			},
			wantErr: ErrHeaderNotFound,
		},
		{
			name:    "empty sheet",
			sheet:   RawSheet{},
			wantErr: ErrHeaderNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			row, err := h.LocateHeader(tt.sheet)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantRow, row)
		})
	}
}

// TestLocateHeader_ScanWindow pins the 30-row scan limit: a header on row
// 29 (29 banner rows before it) is found, one on row 30 is not.
func TestLocateHeader_ScanWindow(t *testing.T) {
	h := DefaultHeuristics()
	header := []string{"Item Description", "Unit"}

	build := func(banners int) RawSheet {
		sheet := make(RawSheet, 0, banners+1)
		for i := 0; i < banners; i++ {
			sheet = append(sheet, []string{"banner"})
		}
		return append(sheet, header)
	}

	row, err := h.LocateHeader(build(29))
	require.NoError(t, err)
	assert.Equal(t, 29, row)

	_, err = h.LocateHeader(build(30))
	assert.ErrorIs(t, err, ErrHeaderNotFound)
}
