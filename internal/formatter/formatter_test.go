package formatter

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tordrt/ecomstats/internal/analytics"
	"github.com/tordrt/ecomstats/internal/loader"
	"github.com/tordrt/ecomstats/internal/schema"
)

func sampleRun() *analytics.Run {
	return &analytics.Run{
		ID:          "3f1c2a9e-0000-4000-8000-000000000001",
		GeneratedAt: time.Date(2024, time.May, 1, 9, 30, 0, 0, time.UTC),
		Reports: []analytics.Report{
			{
				Name:    analytics.ReportProductPerformance,
				Title:   "Product Performance Metrics",
				Columns: []string{"id", "name", "total_revenue", "avg_selling_price"},
				Rows: [][]any{
					{int64(1), "Headphones | Pro", decimal.RequireFromString("20"), decimal.RequireFromString("10")},
					{int64(6), "Shovel", decimal.Zero, nil},
				},
			},
			{
				Name:    analytics.ReportCrossSell,
				Title:   "Cross-Selling Analysis - Products Frequently Bought Together",
				Columns: []string{"product1", "product2"},
				Err:     errors.New("query failed: cross-sell: no such table: order_items"),
			},
		},
	}
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    Format
		wantErr bool
	}{
		{in: "text", want: FormatText},
		{in: "Markdown", want: FormatMarkdown},
		{in: "md", want: FormatMarkdown},
		{in: "json", want: FormatJSON},
		{in: "pdf", want: FormatPDF},
		{in: "html", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseFormat(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNewSchemaFormatterRejectsReportFormats(t *testing.T) {
	_, err := NewSchemaFormatter(&bytes.Buffer{}, FormatPDF)
	assert.Error(t, err)

	_, err = NewRunFormatter(&bytes.Buffer{}, Format("html"))
	assert.Error(t, err)
}

func TestTextSchema(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewTextFormatter(&buf).Format(schema.Ecommerce()))
	out := buf.String()

	assert.Contains(t, out, "TABLE orders (PK: id)")
	assert.Contains(t, out, "status: varchar (pending|processing|shipped|delivered|cancelled) NOT NULL")
	assert.Contains(t, out, "email: varchar UNIQUE NOT NULL")
	assert.Contains(t, out, "price: decimal NOT NULL CHECK(price >= 0)")
	assert.Contains(t, out, "customer_id → customers.id (N:1)")
	assert.Contains(t, out, "idx_orders_date (order_date)")
}

func TestMarkdownSchema(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewMarkdownFormatter(&buf).Format(schema.Ecommerce()))
	out := buf.String()

	assert.True(t, strings.HasPrefix(out, "# Database Schema\n"))
	assert.Contains(t, out, "## order_items")
	assert.Contains(t, out, "- **id:** integer, PK, NOT NULL")
	assert.Contains(t, out, "- **description:** text\n")
	assert.Contains(t, out, "- product_id → products.id (N:1)")
	assert.Contains(t, out, "- idx_order_items_product on (product_id)")
}

func TestTextRun(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewTextFormatter(&buf).FormatRun(sampleRun()))
	out := buf.String()

	assert.True(t, strings.HasPrefix(out, "ECOMMERCE DATABASE ANALYTICS REPORT\nGenerated on: 2024-05-01 09:30:00\n"))
	assert.Contains(t, out, "QUERY: Product Performance Metrics")
	assert.Contains(t, out, "Headphones | Pro")
	assert.Contains(t, out, "20.00")
	assert.Contains(t, out, "NULL")
	assert.Contains(t, out, "Rows returned: 2")
	assert.Contains(t, out, "Error executing query: query failed: cross-sell: no such table: order_items")
	assert.True(t, strings.HasSuffix(out, "ANALYTICS REPORT COMPLETED\n"+rule+"\n"))
}

func TestTextVerification(t *testing.T) {
	v := &loader.Verification{
		Counts: []loader.TableCount{{Table: "categories", Rows: 10}, {Table: "products", Rows: 100}},
		Orphans: []loader.OrphanCheck{
			{Table: "products", Column: "category_id", TargetTable: "categories", TargetColumn: "id", Orphans: 0},
		},
	}

	var buf bytes.Buffer
	require.NoError(t, NewTextFormatter(&buf).FormatVerification(v))
	assert.Equal(t, "Data verification:\n"+
		"- categories: 10 records\n"+
		"- products: 100 records\n"+
		"\n"+
		"Data integrity check:\n"+
		"- Orphaned products.category_id (→ categories.id): 0\n", buf.String())
}

func TestMarkdownRun(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewMarkdownFormatter(&buf).FormatRun(sampleRun()))
	out := buf.String()

	assert.Contains(t, out, "## Product Performance Metrics")
	assert.Contains(t, out, "| id | name | total_revenue | avg_selling_price |")
	assert.Contains(t, out, "| ---: | --- | ---: | ---: |")
	assert.Contains(t, out, `| 1 | Headphones \| Pro | 20.00 | 10.00 |`)
	assert.Contains(t, out, "| 6 | Shovel | 0.00 | NULL |")
	assert.Contains(t, out, "> **Error:** query failed")
}

func TestJSONRun(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewJSONFormatter(&buf).FormatRun(sampleRun()))

	var doc struct {
		RunID   string `json:"run_id"`
		Reports []struct {
			Name  string           `json:"name"`
			Rows  []map[string]any `json:"rows"`
			Error string           `json:"error"`
		} `json:"reports"`
	}
	dec := json.NewDecoder(&buf)
	dec.UseNumber()
	require.NoError(t, dec.Decode(&doc))

	assert.Equal(t, "3f1c2a9e-0000-4000-8000-000000000001", doc.RunID)
	require.Len(t, doc.Reports, 2)

	perf := doc.Reports[0]
	require.Len(t, perf.Rows, 2)
	assert.Equal(t, json.Number("20.00"), perf.Rows[0]["total_revenue"])
	assert.Equal(t, json.Number("1"), perf.Rows[0]["id"])
	assert.Nil(t, perf.Rows[1]["avg_selling_price"])
	assert.Empty(t, perf.Error)

	assert.Empty(t, doc.Reports[1].Rows)
	assert.Contains(t, doc.Reports[1].Error, "no such table")
}

func TestPDFRun(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewPDFFormatter(&buf).FormatRun(sampleRun()))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")))
}

func TestMultiFileRun(t *testing.T) {
	tests := []struct {
		format   Format
		overview string
	}{
		{FormatText, "_overview.txt"},
		{FormatMarkdown, "_overview.md"},
		{FormatJSON, "_overview.txt"},
		{FormatPDF, "_overview.txt"},
	}

	for _, tt := range tests {
		t.Run(string(tt.format), func(t *testing.T) {
			dir := filepath.Join(t.TempDir(), "reports")
			require.NoError(t, NewMultiFileFormatter(dir, tt.format).FormatRun(sampleRun()))

			overview, err := os.ReadFile(filepath.Join(dir, tt.overview))
			require.NoError(t, err)
			assert.Contains(t, string(overview), "2 rows")
			assert.Contains(t, string(overview), "failed: query failed")

			for _, name := range []string{analytics.ReportProductPerformance, analytics.ReportCrossSell} {
				info, err := os.Stat(filepath.Join(dir, name+tt.format.Extension()))
				require.NoError(t, err)
				assert.Positive(t, info.Size())
			}
		})
	}
}

func TestMultiFileSchema(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, NewMultiFileFormatter(dir, FormatMarkdown).Format(schema.Ecommerce()))

	overview, err := os.ReadFile(filepath.Join(dir, "_overview.md"))
	require.NoError(t, err)
	assert.Contains(t, string(overview), "- **order_items** (references: orders, products)")

	orders, err := os.ReadFile(filepath.Join(dir, "orders.md"))
	require.NoError(t, err)
	assert.Contains(t, string(orders), "### Referenced by")
	assert.Contains(t, string(orders), "- order_items.order_id → id")

	err = NewMultiFileFormatter(dir, FormatJSON).Format(schema.Ecommerce())
	assert.Error(t, err)
}
