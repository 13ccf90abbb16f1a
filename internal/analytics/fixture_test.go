package analytics

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/tordrt/ecomstats/internal/dataset"
	"github.com/tordrt/ecomstats/internal/db"
	"github.com/tordrt/ecomstats/internal/loader"
	"github.com/tordrt/ecomstats/internal/schema"
)

type item struct {
	product  int64
	quantity int
	price    string
}

type builder struct {
	d *dataset.Dataset
}

func (b *builder) order(customer int64, date dataset.Date, status string, items ...item) {
	id := int64(len(b.d.Orders) + 1)
	b.d.Orders = append(b.d.Orders, dataset.Order{ID: id, CustomerID: customer, OrderDate: date, Status: status})
	for _, it := range items {
		b.d.OrderItems = append(b.d.OrderItems, dataset.OrderItem{
			ID:        int64(len(b.d.OrderItems) + 1),
			OrderID:   id,
			ProductID: it.product,
			Quantity:  it.quantity,
			UnitPrice: decimal.RequireFromString(it.price),
		})
	}
}

func day(month time.Month, d int) dataset.Date {
	return dataset.NewDate(2024, month, d)
}

// storeDataset builds a small shop:
//
//   - Ada (1) places 11 orders of headphones + 2 tablets (6 in January, 5 in February)
//   - Bo (2) places 6 February orders of a novel + a cookbook
//   - Cy (3) places 2 March orders of one cable
//   - Di (4) places 1 March order of headphones + cable
//   - Ed (5) only has 3 cancelled orders of headphones + 3 shovels
//   - Fay (6) never ordered
//   - nobody ever ordered a rake (7)
func storeDataset() *dataset.Dataset {
	b := &builder{d: &dataset.Dataset{
		Categories: []dataset.Category{
			{ID: 1, Name: "Electronics"},
			{ID: 2, Name: "Books"},
			{ID: 3, Name: "Garden"},
		},
		Products: []dataset.Product{
			{ID: 1, Name: "Headphones", CategoryID: 1, Price: decimal.RequireFromString("10.00"), StockQuantity: 50},
			{ID: 2, Name: "Tablet", CategoryID: 1, Price: decimal.RequireFromString("20.00"), StockQuantity: 40},
			{ID: 3, Name: "Cable", CategoryID: 1, Price: decimal.RequireFromString("5.00"), StockQuantity: 100},
			{ID: 4, Name: "Novel", CategoryID: 2, Price: decimal.RequireFromString("15.00"), StockQuantity: 10},
			{ID: 5, Name: "Cookbook", CategoryID: 2, Price: decimal.RequireFromString("15.00"), StockQuantity: 10},
			{ID: 6, Name: "Shovel", CategoryID: 3, Price: decimal.RequireFromString("30.00"), StockQuantity: 7},
			{ID: 7, Name: "Rake", CategoryID: 3, Price: decimal.RequireFromString("25.00"), StockQuantity: 4},
		},
	}}

	for i, name := range []string{"Ada", "Bo", "Cy", "Di", "Ed", "Fay"} {
		b.d.Customers = append(b.d.Customers, dataset.Customer{
			ID:               int64(i + 1),
			Name:             name,
			Email:            name + "@example.com",
			RegistrationDate: day(time.January, 1),
		})
	}

	for i := 1; i <= 6; i++ {
		b.order(1, day(time.January, i), schema.StatusDelivered, item{1, 1, "10.00"}, item{2, 2, "20.00"})
	}
	for i := 1; i <= 5; i++ {
		b.order(1, day(time.February, i), schema.StatusShipped, item{1, 1, "10.00"}, item{2, 2, "20.00"})
	}
	for i := 10; i < 16; i++ {
		b.order(2, day(time.February, i), schema.StatusDelivered, item{4, 1, "15.00"}, item{5, 1, "15.00"})
	}
	b.order(3, day(time.March, 1), schema.StatusPending, item{3, 1, "5.00"})
	b.order(3, day(time.March, 2), schema.StatusProcessing, item{3, 1, "5.00"})
	b.order(4, day(time.March, 5), schema.StatusDelivered, item{1, 1, "10.00"}, item{3, 1, "5.00"})
	for i := 10; i < 13; i++ {
		b.order(5, day(time.March, i), schema.StatusCancelled, item{1, 1, "10.00"}, item{6, 3, "30.00"})
	}

	return b.d
}

func openStore(t *testing.T) *db.Client {
	t.Helper()

	path := filepath.Join(t.TempDir(), "ecommerce.db")
	client, err := db.Open(context.Background(), "sqlite://"+path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	require.NoError(t, client.Apply(context.Background(), schema.Ecommerce()))
	return client
}

func loadedQueries(t *testing.T, d *dataset.Dataset) (*Queries, *db.Client) {
	t.Helper()

	client := openStore(t)
	_, err := loader.New(client, loader.Options{RecomputeTotals: true}).Load(context.Background(), d)
	require.NoError(t, err)
	return New(client), client
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}
