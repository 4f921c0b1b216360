package ledger

import (
	"testing"

	"github.com/stretchr/testify/require"
	"gitlab.com/yelinaung/expense-splitter/internal/models"
)

func TestComputeStatistics(t *testing.T) {
	t.Parallel()

	t.Run("groups by category and month", func(t *testing.T) {
		t.Parallel()

		transport := bill(2, 1, "80", 20)
		transport.Category = models.CategoryTransportation
		april := bill(3, 1, "10", 1)
		april.Date = april.Date.AddDate(0, -1, 0)

		stats := ComputeStatistics([]models.Expenditure{
			bill(1, 1, "30", 2),
			transport,
			april,
		})

		require.Equal(t, 3, stats.Overall.Count)
		require.True(t, stats.Overall.TotalAmount.Equal(dec("120")))

		require.Len(t, stats.ByCategory, 2)
		require.Equal(t, models.CategoryTransportation, stats.ByCategory[0].Category)
		require.Equal(t, models.CategoryFood, stats.ByCategory[1].Category)
		require.Equal(t, 2, stats.ByCategory[1].Count)
		require.True(t, stats.ByCategory[1].TotalAmount.Equal(dec("40")))
		require.True(t, stats.ByCategory[1].AvgAmount.Equal(dec("20")))

		require.Len(t, stats.ByMonth, 2)
		require.Equal(t, MonthStat{Year: 2026, Month: 5, Count: 2, TotalAmount: stats.ByMonth[0].TotalAmount}, stats.ByMonth[0])
		require.True(t, stats.ByMonth[0].TotalAmount.Equal(dec("110")))
		require.Equal(t, 4, stats.ByMonth[1].Month)
	})

	t.Run("empty input yields empty slices", func(t *testing.T) {
		t.Parallel()

		stats := ComputeStatistics(nil)
		require.NotNil(t, stats.ByCategory)
		require.NotNil(t, stats.ByMonth)
		require.Empty(t, stats.ByCategory)
		require.Zero(t, stats.Overall.Count)
	})
}
