package ecomstats

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/tordrt/ecomstats/internal/analytics"
	"github.com/tordrt/ecomstats/internal/dataset"
	"github.com/tordrt/ecomstats/internal/db"
	"github.com/tordrt/ecomstats/internal/schema"
)

const sampleDataset = "testdata/ecommerce_data.json"

func tempStore(t *testing.T) (url, path string) {
	t.Helper()
	path = filepath.Join(t.TempDir(), "ecommerce.db")
	return "sqlite://" + path, path
}

func TestLoadAndReport(t *testing.T) {
	ctx := context.Background()
	url, _ := tempStore(t)

	summary, err := Load(ctx, url, sampleDataset, &LoadOptions{RecomputeTotals: true})
	require.NoError(t, err)
	assert.True(t, summary.Verification.OK())
	assert.Equal(t, 3, summary.Verification.Count(schema.TableOrders))
	assert.Equal(t, 4, summary.Verification.Count(schema.TableOrderItems))
	assert.NotEmpty(t, summary.Result.RunID)

	var buf bytes.Buffer
	run, err := Report(ctx, url, nil, &OutputOptions{Writer: &buf})
	require.NoError(t, err)
	assert.Len(t, run.Reports, len(analytics.Definitions))
	assert.Empty(t, run.Failed())

	out := buf.String()
	assert.Contains(t, out, "ECOMMERCE DATABASE ANALYTICS REPORT")
	assert.Contains(t, out, "QUERY: Top 10 Customers by Total Revenue")
	assert.Contains(t, out, "Ada Park")
	assert.NotContains(t, out, "Bo Lindqvist", "Bo only has a cancelled order")
	assert.Contains(t, out, "ANALYTICS REPORT COMPLETED")

	top := run.Reports[0]
	require.Len(t, top.Rows, 1)
	assert.True(t, decimal.NewFromInt(70).Equal(top.Rows[0][4].(decimal.Decimal)))
}

func TestLoadTwiceIsIdempotent(t *testing.T) {
	ctx := context.Background()
	url, _ := tempStore(t)

	first, err := Load(ctx, url, sampleDataset, &LoadOptions{RecomputeTotals: true})
	require.NoError(t, err)
	second, err := Load(ctx, url, sampleDataset, &LoadOptions{RecomputeTotals: true})
	require.NoError(t, err)

	assert.Equal(t, first.Verification.Counts, second.Verification.Counts)
	assert.NotEqual(t, first.Result.RunID, second.Result.RunID)
}

func TestLoadMissingDatasetTouchesNothing(t *testing.T) {
	url, path := tempStore(t)

	_, err := Load(context.Background(), url, filepath.Join(t.TempDir(), "nope.json"), nil)
	assert.ErrorIs(t, err, dataset.ErrMissingInput)
	assert.NoFileExists(t, path)
}

func TestLoadInvalidDataset(t *testing.T) {
	d, err := dataset.ReadFile(sampleDataset)
	require.NoError(t, err)
	d.Products[0].Price = decimal.NewFromInt(-5)

	data, err := yaml.Marshal(d)
	require.NoError(t, err)
	input := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(input, data, 0o600))

	t.Run("validated", func(t *testing.T) {
		url, path := tempStore(t)
		_, err := Load(context.Background(), url, input, nil)
		assert.ErrorIs(t, err, dataset.ErrInvalid)
		assert.NoFileExists(t, path)
	})

	t.Run("store constraint", func(t *testing.T) {
		url, _ := tempStore(t)
		_, err := Load(context.Background(), url, input, &LoadOptions{SkipValidation: true})
		assert.ErrorIs(t, err, db.ErrConstraintViolation)

		v, err := Verify(context.Background(), url, nil)
		require.NoError(t, err)
		for _, c := range v.Counts {
			assert.Zero(t, c.Rows, c.Table)
		}
	})
}

func TestReportToDirectory(t *testing.T) {
	ctx := context.Background()
	url, _ := tempStore(t)
	_, err := Load(ctx, url, sampleDataset, &LoadOptions{RecomputeTotals: true})
	require.NoError(t, err)

	dir := filepath.Join(t.TempDir(), "reports")
	_, err = Report(ctx, url, &ReportOptions{Reports: []string{analytics.ReportSegmentation}}, &OutputOptions{OutputDir: dir, Format: "markdown"})
	require.NoError(t, err)

	assert.FileExists(t, filepath.Join(dir, "_overview.md"))
	content, err := os.ReadFile(filepath.Join(dir, analytics.ReportSegmentation+".md"))
	require.NoError(t, err)
	assert.Contains(t, string(content), "| Occasional Buyer | 1 | 70.00 | 2.00 |")
	assert.Contains(t, string(content), "| No Orders | 2 | NULL | 0.00 |")
	assert.NoFileExists(t, filepath.Join(dir, analytics.ReportCrossSell+".md"))
}

func TestReportRejectsUnknownFormat(t *testing.T) {
	ctx := context.Background()
	url, _ := tempStore(t)
	require.NoError(t, Init(ctx, url, nil))

	run, err := Report(ctx, url, nil, &OutputOptions{Writer: &bytes.Buffer{}, Format: "html"})
	assert.Error(t, err)
	assert.NotNil(t, run)
}

func TestDescribe(t *testing.T) {
	ctx := context.Background()
	url, _ := tempStore(t)
	require.NoError(t, Init(ctx, url, nil))
	require.NoError(t, Init(ctx, url, nil))

	var buf bytes.Buffer
	err := Describe(ctx, url, &DescribeOptions{ExcludeTables: []string{schema.TableOrderItems}}, &OutputOptions{Writer: &buf, Format: "markdown"})
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "## orders")
	assert.Contains(t, out, "- customer_id → customers.id")
	assert.NotContains(t, out, "## order_items")

	err = Describe(ctx, url, nil, &OutputOptions{Writer: &buf, Format: "pdf"})
	assert.Error(t, err)
}

func TestFilterExcludedTables(t *testing.T) {
	tests := []struct {
		name        string
		schema      *schema.Schema
		excludeList []string
		wantTables  []string
	}{
		{
			name:        "exclude single table",
			schema:      &schema.Schema{Tables: []schema.Table{{Name: "customers"}, {Name: "orders"}, {Name: "order_items"}}},
			excludeList: []string{"orders"},
			wantTables:  []string{"customers", "order_items"},
		},
		{
			name:        "exclude no tables",
			schema:      &schema.Schema{Tables: []schema.Table{{Name: "customers"}, {Name: "orders"}}},
			excludeList: nil,
			wantTables:  []string{"customers", "orders"},
		},
		{
			name:        "exclude non-existent table",
			schema:      &schema.Schema{Tables: []schema.Table{{Name: "customers"}}},
			excludeList: []string{"returns"},
			wantTables:  []string{"customers"},
		},
		{
			name:        "exclude all tables",
			schema:      &schema.Schema{Tables: []schema.Table{{Name: "customers"}, {Name: "orders"}}},
			excludeList: []string{"customers", "orders"},
			wantTables:  []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			filterExcludedTables(tt.schema, tt.excludeList)

			got := []string{}
			for _, table := range tt.schema.Tables {
				got = append(got, table.Name)
			}
			assert.Equal(t, tt.wantTables, got)
		})
	}
}
