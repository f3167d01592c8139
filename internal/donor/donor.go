package donor

import (
	"sort"

	"erp/portal/internal/model"
)

// SortNewest orders payments by payment_date, newest first.
func SortNewest(payments []model.Payment) []model.Payment {
	out := append([]model.Payment(nil), payments...)
	sort.SliceStable(out, func(i, j int) bool {
		return model.NewestFirst(out[i].PaymentDate, out[j].PaymentDate)
	})
	return out
}

type Summary struct {
	Payments []model.Payment `json:"payments"`
	Total    float64         `json:"total"`
}

// Summarize sorts the history and totals the amounts.
func Summarize(payments []model.Payment) Summary {
	summary := Summary{Payments: SortNewest(payments)}
	for _, p := range payments {
		summary.Total += p.Amount
	}
	return summary
}
