package batch

import (
	"strconv"

	"boqscope/internal/extraction"
	"boqscope/pkg/contracts/domain"
)

// minDiameterMM is the inclusive diameter gate for the final table.
// Items without a parsed diameter never pass it.
const minDiameterMM = 80

// BuildSummary filters the batch down to large-diameter pipe items and
// renders the canonical summary table with fresh serial numbers.
func BuildSummary(batch *domain.BatchResult) *domain.Summary {
	summary := &domain.Summary{}

	for _, item := range batch.Items {
		dia, ok := item.DIAValue()
		if !ok || dia < minDiameterMM {
			continue
		}
		summary.Rows = append(summary.Rows, renderRow(len(summary.Rows)+1, item, dia))
	}

	return summary
}

func renderRow(serial int, item domain.Item, dia int) domain.SummaryRow {
	return domain.SummaryRow{
		SLNo:        strconv.Itoa(serial),
		TDRFolder:   extraction.CleanIllegal(item.TDRFolder),
		BOQFile:     extraction.CleanIllegal(item.BOQFile),
		Description: extraction.CleanIllegal(item.Description),
		K9:          yesOrBlank(item.K9),
		K7:          yesOrBlank(item.K7),
		DIA:         strconv.Itoa(dia),
		Rate:        formatNumber(item.Rate),
		Units:       extraction.CleanIllegal(item.Unit),
		Quantity:    formatOptional(item.Quantity),
	}
}

func yesOrBlank(v bool) string {
	if v {
		return "Yes"
	}
	return ""
}

// formatNumber renders without trailing zeros: 1450.50 becomes "1450.5",
// 950 stays "950".
func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func formatOptional(v *float64) string {
	if v == nil {
		return ""
	}
	return formatNumber(*v)
}
