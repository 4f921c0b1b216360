package ledger

import (
	"cmp"
	"slices"

	"github.com/shopspring/decimal"
	"gitlab.com/yelinaung/expense-splitter/internal/models"
)

// CategoryStat aggregates one category.
type CategoryStat struct {
	Category    models.Category `json:"category"`
	Count       int             `json:"count"`
	TotalAmount decimal.Decimal `json:"totalAmount"`
	AvgAmount   decimal.Decimal `json:"avgAmount"`
}

// MonthStat aggregates one calendar month.
type MonthStat struct {
	Year        int             `json:"year"`
	Month       int             `json:"month"`
	Count       int             `json:"count"`
	TotalAmount decimal.Decimal `json:"totalAmount"`
}

// Statistics is the spending breakdown of a set of expenditures.
type Statistics struct {
	Overall    AmountSummary  `json:"overall"`
	ByCategory []CategoryStat `json:"byCategory"`
	ByMonth    []MonthStat    `json:"byMonth"`
}

// ComputeStatistics groups es by category (largest total first) and by
// month (most recent first). Months are taken in UTC.
func ComputeStatistics(es []models.Expenditure) Statistics {
	stats := Statistics{
		Overall:    SummarizeAmounts(es),
		ByCategory: []CategoryStat{},
		ByMonth:    []MonthStat{},
	}

	categories := make(map[models.Category]*CategoryStat)
	type monthKey struct{ year, month int }
	months := make(map[monthKey]*MonthStat)

	for _, e := range es {
		cs, ok := categories[e.Category]
		if !ok {
			cs = &CategoryStat{Category: e.Category, TotalAmount: decimal.Zero}
			categories[e.Category] = cs
		}
		cs.Count++
		cs.TotalAmount = cs.TotalAmount.Add(e.Amount)

		d := e.Date.UTC()
		key := monthKey{d.Year(), int(d.Month())}
		ms, ok := months[key]
		if !ok {
			ms = &MonthStat{Year: key.year, Month: key.month, TotalAmount: decimal.Zero}
			months[key] = ms
		}
		ms.Count++
		ms.TotalAmount = ms.TotalAmount.Add(e.Amount)
	}

	for _, cs := range categories {
		cs.AvgAmount = average(cs.TotalAmount, cs.Count)
		stats.ByCategory = append(stats.ByCategory, *cs)
	}
	slices.SortFunc(stats.ByCategory, func(a, b CategoryStat) int {
		if c := b.TotalAmount.Cmp(a.TotalAmount); c != 0 {
			return c
		}
		return cmp.Compare(a.Category, b.Category)
	})

	for _, ms := range months {
		stats.ByMonth = append(stats.ByMonth, *ms)
	}
	slices.SortFunc(stats.ByMonth, func(a, b MonthStat) int {
		if c := cmp.Compare(b.Year, a.Year); c != 0 {
			return c
		}
		return cmp.Compare(b.Month, a.Month)
	})

	return stats
}
