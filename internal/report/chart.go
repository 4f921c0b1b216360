package report

import (
	"errors"
	"fmt"
	"time"

	"github.com/go-analyze/charts"
	"gitlab.com/yelinaung/expense-splitter/internal/ledger"
)

// ErrNoData is returned when there is nothing to chart.
var ErrNoData = errors.New("no expenditures to chart")

// GenerateCategoryChart creates a pie chart of spending per category and
// returns it as PNG bytes. Slices follow the order of stats.
func GenerateCategoryChart(stats []ledger.CategoryStat, title string) ([]byte, error) {
	values := make([]float64, 0, len(stats))
	names := make([]string, 0, len(stats))
	for _, s := range stats {
		if !s.TotalAmount.IsPositive() {
			continue
		}
		values = append(values, s.TotalAmount.InexactFloat64())
		names = append(names, string(s.Category))
	}
	if len(values) == 0 {
		return nil, ErrNoData
	}

	p, err := charts.PieRender(
		values,
		charts.TitleOptionFunc(charts.TitleOption{
			Text: title,
		}),
		charts.LegendLabelsOptionFunc(names),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create chart: %w", err)
	}

	buf, err := p.Bytes()
	if err != nil {
		return nil, fmt.Errorf("failed to render chart: %w", err)
	}

	return buf, nil
}

// ChartTitle describes the date range a chart covers. Either bound may be nil.
func ChartTitle(from, to *time.Time) string {
	const layout = "2006-01-02"
	switch {
	case from != nil && to != nil:
		return fmt.Sprintf("Spending by Category - %s to %s", from.Format(layout), to.Format(layout))
	case from != nil:
		return fmt.Sprintf("Spending by Category - since %s", from.Format(layout))
	case to != nil:
		return fmt.Sprintf("Spending by Category - until %s", to.Format(layout))
	default:
		return "Spending by Category"
	}
}
