package analytics

import (
	"bytes"
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tordrt/ecomstats/internal/observability"
)

func TestDefinitionsMatchNames(t *testing.T) {
	assert.Equal(t, []string{
		ReportTopCustomers,
		ReportBestSellers,
		ReportMonthlyTrends,
		ReportSegmentation,
		ReportProductPerformance,
		ReportCategoryRevenue,
		ReportCrossSell,
	}, Names())

	def, ok := Lookup(ReportCrossSell)
	require.True(t, ok)
	assert.Equal(t, "Cross-Selling Analysis - Products Frequently Bought Together", def.Title)

	_, ok = Lookup("churn")
	assert.False(t, ok)
}

func TestRunnerRunsEveryReport(t *testing.T) {
	q, _ := loadedQueries(t, storeDataset())
	r := NewRunner(q, nil, nil)
	generated := time.Date(2024, time.May, 1, 9, 30, 0, 0, time.UTC)
	r.now = func() time.Time { return generated }

	run, err := r.Run(context.Background())
	require.NoError(t, err)
	assert.NotEmpty(t, run.ID)
	assert.Equal(t, generated, run.GeneratedAt)
	assert.Empty(t, run.Failed())
	require.Len(t, run.Reports, len(Definitions))

	for _, report := range run.Reports {
		t.Run(report.Name, func(t *testing.T) {
			assert.NoError(t, report.Err)
			assert.NotEmpty(t, report.Title)
			assert.NotEmpty(t, report.Rows)
			for _, row := range report.Rows {
				assert.Len(t, row, len(report.Columns))
			}
		})
	}

	perf := run.Reports[4]
	require.Equal(t, ReportProductPerformance, perf.Name)
	last := perf.Rows[len(perf.Rows)-1]
	assert.Equal(t, "Rake", last[1])
	assert.Equal(t, PerformanceNoSales, last[8])
	assert.Nil(t, last[9])

	segments := run.Reports[3]
	require.Equal(t, ReportSegmentation, segments.Name)
	noOrders := segments.Rows[len(segments.Rows)-1]
	assert.Equal(t, SegmentNoOrders.String(), noOrders[0])
	assert.Nil(t, noOrders[2])

	top := run.Reports[0]
	assert.Equal(t, "2024-02-05", top.Rows[0][6])
	assert.True(t, decimal.RequireFromString("550").Equal(top.Rows[0][4].(decimal.Decimal)))
}

func TestRunnerSelectsReports(t *testing.T) {
	q, _ := loadedQueries(t, storeDataset())
	r := NewRunner(q, nil, nil)

	run, err := r.Run(context.Background(), ReportCrossSell, ReportSegmentation)
	require.NoError(t, err)
	require.Len(t, run.Reports, 2)
	assert.Equal(t, ReportCrossSell, run.Reports[0].Name)
	assert.Equal(t, ReportSegmentation, run.Reports[1].Name)

	_, err = r.Run(context.Background(), "churn")
	assert.EqualError(t, err, "unknown report: churn")
}

func TestRunnerContinuesAfterFailure(t *testing.T) {
	q, client := loadedQueries(t, storeDataset())
	_, err := client.GetDB().Exec("DROP TABLE order_items")
	require.NoError(t, err)

	var logs bytes.Buffer
	r := NewRunner(q, observability.NewLogger(&logs, slog.LevelInfo), nil)

	run, err := r.Run(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrQuery)
	require.Len(t, run.Reports, len(Definitions))

	failed := make(map[string]bool)
	for _, report := range run.Failed() {
		failed[report.Name] = true
		assert.Empty(t, report.Rows)
	}
	assert.Equal(t, map[string]bool{
		ReportBestSellers:        true,
		ReportMonthlyTrends:      true,
		ReportProductPerformance: true,
		ReportCategoryRevenue:    true,
		ReportCrossSell:          true,
	}, failed)

	assert.NoError(t, run.Reports[0].Err)
	assert.NotEmpty(t, run.Reports[0].Rows)
	assert.NoError(t, run.Reports[3].Err)
	assert.Contains(t, logs.String(), "report failed")
	assert.Contains(t, logs.String(), "run_id="+run.ID)
}
