package exporter

import (
	"boqscope/pkg/contracts/domain"
)

// summaryRecords flattens the summary into row slices in canonical
// column order, shared by every output format.
func summaryRecords(summary *domain.Summary) [][]string {
	records := make([][]string, 0, len(summary.Rows))
	for _, row := range summary.Rows {
		records = append(records, row.Cells())
	}
	return records
}
