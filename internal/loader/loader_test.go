package loader

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tordrt/ecomstats/internal/dataset"
	"github.com/tordrt/ecomstats/internal/db"
	"github.com/tordrt/ecomstats/internal/schema"
)

func openStore(t *testing.T) *db.Client {
	t.Helper()

	path := filepath.Join(t.TempDir(), "ecommerce.db")
	client, err := db.Open(context.Background(), "sqlite://"+path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	require.NoError(t, client.Apply(context.Background(), schema.Ecommerce()))
	return client
}

// sampleDataset is one customer who bought two headphones at 10.00 and one
// tablet at 20.00 in a single delivered order.
func sampleDataset() *dataset.Dataset {
	return &dataset.Dataset{
		Categories: []dataset.Category{
			{ID: 1, Name: "Electronics", Description: "Electronic devices and gadgets"},
		},
		Customers: []dataset.Customer{
			{ID: 1, Name: "Ada Park", Email: "ada@example.com", Phone: "555-0100", Address: "1 Main St", RegistrationDate: dataset.NewDate(2024, time.February, 10)},
		},
		Products: []dataset.Product{
			{ID: 1, Name: "Headphones", CategoryID: 1, Price: decimal.RequireFromString("10.00"), StockQuantity: 5},
			{ID: 2, Name: "Tablet", CategoryID: 1, Price: decimal.RequireFromString("20.00"), StockQuantity: 3},
		},
		Orders: []dataset.Order{
			{ID: 1, CustomerID: 1, OrderDate: dataset.NewDate(2024, time.March, 1), Status: schema.StatusDelivered},
		},
		OrderItems: []dataset.OrderItem{
			{ID: 1, OrderID: 1, ProductID: 1, Quantity: 2, UnitPrice: decimal.RequireFromString("10.00")},
			{ID: 2, OrderID: 1, ProductID: 2, Quantity: 1, UnitPrice: decimal.RequireFromString("20.00")},
		},
	}
}

func TestLoadSample(t *testing.T) {
	ctx := context.Background()
	client := openStore(t)
	l := New(client, Options{RecomputeTotals: true})

	result, err := l.Load(ctx, sampleDataset())
	require.NoError(t, err)
	assert.NotEmpty(t, result.RunID)
	require.Len(t, result.Tables, len(schema.LoadOrder))
	for i, stats := range result.Tables {
		assert.Equal(t, schema.LoadOrder[i], stats.Table)
		assert.Zero(t, stats.Replaced)
	}

	v, err := l.Verify(ctx)
	require.NoError(t, err)
	assert.True(t, v.OK())
	assert.Len(t, v.Orphans, 4)
	assert.Equal(t, 1, v.Count(schema.TableCategories))
	assert.Equal(t, 1, v.Count(schema.TableCustomers))
	assert.Equal(t, 2, v.Count(schema.TableProducts))
	assert.Equal(t, 1, v.Count(schema.TableOrders))
	assert.Equal(t, 2, v.Count(schema.TableOrderItems))
	assert.Equal(t, -1, v.Count("returns"))

	var total decimal.Decimal
	require.NoError(t, client.GetDB().QueryRowContext(ctx, "SELECT total_amount FROM orders WHERE id = 1").Scan(&total))
	assert.Equal(t, "40.00", total.StringFixed(2))

	var orderDate dataset.Date
	require.NoError(t, client.GetDB().QueryRowContext(ctx, "SELECT order_date FROM orders WHERE id = 1").Scan(&orderDate))
	assert.Equal(t, "2024-03-01", orderDate.String())
}

func TestLoadTwiceReplacesRows(t *testing.T) {
	ctx := context.Background()
	client := openStore(t)
	l := New(client, Options{RecomputeTotals: true})

	_, err := l.Load(ctx, sampleDataset())
	require.NoError(t, err)

	d := sampleDataset()
	d.Products[0].Price = decimal.RequireFromString("12.50")
	result, err := l.Load(ctx, d)
	require.NoError(t, err)

	for _, stats := range result.Tables {
		assert.Zero(t, stats.Inserted, stats.Table)
		assert.Positive(t, stats.Replaced, stats.Table)
	}

	v, err := l.Verify(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, v.Count(schema.TableProducts))
	assert.Equal(t, 2, v.Count(schema.TableOrderItems))

	var price decimal.Decimal
	require.NoError(t, client.GetDB().QueryRowContext(ctx, "SELECT price FROM products WHERE id = 1").Scan(&price))
	assert.Equal(t, "12.50", price.StringFixed(2))
}

func TestLoadRepeatedIDLastWins(t *testing.T) {
	ctx := context.Background()
	client := openStore(t)
	l := New(client, Options{})

	d := sampleDataset()
	d.Categories = append(d.Categories, dataset.Category{ID: 1, Name: "Gadgets"})

	result, err := l.Load(ctx, d)
	require.NoError(t, err)
	assert.Equal(t, TableStats{Table: schema.TableCategories, Inserted: 1, Replaced: 1}, result.Tables[0])

	var name string
	require.NoError(t, client.GetDB().QueryRowContext(ctx, "SELECT name FROM categories WHERE id = 1").Scan(&name))
	assert.Equal(t, "Gadgets", name)
}

func TestLoadRollsBackOnConstraintViolation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(d *dataset.Dataset)
	}{
		{
			name:   "negative price",
			mutate: func(d *dataset.Dataset) { d.Products[1].Price = decimal.RequireFromString("-1") },
		},
		{
			name:   "missing category",
			mutate: func(d *dataset.Dataset) { d.Products[0].CategoryID = 99 },
		},
		{
			name: "duplicate email",
			mutate: func(d *dataset.Dataset) {
				d.Customers = append(d.Customers, dataset.Customer{
					ID: 2, Name: "Bo Lee", Email: "ada@example.com", RegistrationDate: dataset.NewDate(2024, time.April, 2),
				})
			},
		},
		{
			name:   "unknown status",
			mutate: func(d *dataset.Dataset) { d.Orders[0].Status = "returned" },
		},
		{
			name:   "zero quantity",
			mutate: func(d *dataset.Dataset) { d.OrderItems[1].Quantity = 0 },
		},
		{
			name:   "item for missing order",
			mutate: func(d *dataset.Dataset) { d.OrderItems[1].OrderID = 7 },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			client := openStore(t)
			l := New(client, Options{})

			d := sampleDataset()
			tt.mutate(d)

			_, err := l.Load(ctx, d)
			require.Error(t, err)
			assert.ErrorIs(t, err, db.ErrConstraintViolation)

			v, err := l.Verify(ctx)
			require.NoError(t, err)
			for _, c := range v.Counts {
				assert.Zero(t, c.Rows, "%s should be empty after rollback", c.Table)
			}
		})
	}
}

func TestLoadKeepsTotalsWithoutRecompute(t *testing.T) {
	ctx := context.Background()
	client := openStore(t)
	l := New(client, Options{})

	d := sampleDataset()
	d.Orders[0].TotalAmount = decimal.RequireFromString("39.99")
	_, err := l.Load(ctx, d)
	require.NoError(t, err)

	var total decimal.Decimal
	require.NoError(t, client.GetDB().QueryRowContext(ctx, "SELECT total_amount FROM orders WHERE id = 1").Scan(&total))
	assert.Equal(t, "39.99", total.StringFixed(2))
}

func TestLoadLeavesDatasetUntouched(t *testing.T) {
	ctx := context.Background()
	client := openStore(t)
	l := New(client, Options{RecomputeTotals: true})

	d := sampleDataset()
	d.Orders[0].TotalAmount = decimal.RequireFromString("39.99")
	_, err := l.Load(ctx, d)
	require.NoError(t, err)

	assert.Equal(t, "39.99", d.Orders[0].TotalAmount.StringFixed(2))

	var total decimal.Decimal
	require.NoError(t, client.GetDB().QueryRowContext(ctx, "SELECT total_amount FROM orders WHERE id = 1").Scan(&total))
	assert.Equal(t, "40.00", total.StringFixed(2))
}

func TestVerifyReportsOrphans(t *testing.T) {
	ctx := context.Background()
	client := openStore(t)
	l := New(client, Options{})

	_, err := l.Load(ctx, sampleDataset())
	require.NoError(t, err)

	// The SQLite client holds a single connection, so the pragma applies to
	// the statements that follow.
	_, err = client.GetDB().ExecContext(ctx, "PRAGMA foreign_keys = OFF")
	require.NoError(t, err)
	_, err = client.GetDB().ExecContext(ctx, "DELETE FROM products WHERE id = 2")
	require.NoError(t, err)

	v, err := l.Verify(ctx)
	require.NoError(t, err)
	assert.False(t, v.OK())

	for _, o := range v.Orphans {
		if o.Table == schema.TableOrderItems && o.Column == "product_id" {
			assert.Equal(t, 1, o.Orphans)
			assert.Equal(t, schema.TableProducts, o.TargetTable)
		} else {
			assert.Zero(t, o.Orphans, "%s.%s", o.Table, o.Column)
		}
	}
}
