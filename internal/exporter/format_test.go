package exporter

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"boqscope/pkg/contracts/domain"
)

func TestSummaryRecords(t *testing.T) {
	tests := []struct {
		name     string
		summary  *domain.Summary
		expected [][]string
	}{
		{
			name:     "empty summary yields no records",
			summary:  &domain.Summary{},
			expected: [][]string{},
		},
		{
			name: "rows flatten in canonical column order",
			summary: &domain.Summary{
				Rows: []domain.SummaryRow{
					{
						SLNo:        "1",
						TDRFolder:   "TDR-001",
						BOQFile:     "boq.xlsx",
						Description: "DI K-7 pipe 100mm",
						K9:          "",
						K7:          "Yes",
						DIA:         "100",
						Rate:        "980",
						Units:       "meter",
						Quantity:    "45",
					},
				},
			},
			expected: [][]string{
				{"1", "TDR-001", "boq.xlsx", "DI K-7 pipe 100mm", "", "Yes", "100", "980", "meter", "45"},
			},
		},
		{
			name: "blank optional fields stay blank",
			summary: &domain.Summary{
				Rows: []domain.SummaryRow{
					{
						SLNo:        "1",
						TDRFolder:   "TDR-002",
						BOQFile:     "boq2.xlsx",
						Description: "MS pipe 80mm",
						DIA:         "80",
						Rate:        "0",
						Units:       "Rm",
					},
				},
			},
			expected: [][]string{
				{"1", "TDR-002", "boq2.xlsx", "MS pipe 80mm", "", "", "80", "0", "Rm", ""},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := summaryRecords(tt.summary)
			assert.Equal(t, tt.expected, got)

			for _, record := range got {
				assert.Len(t, record, len(domain.SummaryColumns))
			}
		})
	}
}
