// Package dataset holds the in-memory shape of a generated ecommerce dataset
// and reads it from JSON or YAML documents.
package dataset

import (
	"github.com/shopspring/decimal"

	"github.com/tordrt/ecomstats/internal/schema"
)

// Dataset is the five collections produced by the generator.
type Dataset struct {
	Categories []Category  `json:"categories" yaml:"categories"`
	Customers  []Customer  `json:"customers" yaml:"customers"`
	Products   []Product   `json:"products" yaml:"products"`
	Orders     []Order     `json:"orders" yaml:"orders"`
	OrderItems []OrderItem `json:"order_items" yaml:"order_items"`

	// Fingerprint is the xxhash of the source document, zero when built in memory.
	Fingerprint uint64 `json:"-" yaml:"-"`
}

// Category groups products.
type Category struct {
	ID          int64  `json:"id" yaml:"id"`
	Name        string `json:"name" yaml:"name"`
	Description string `json:"description" yaml:"description"`
}

// Customer is a registered buyer. Email is unique across customers.
type Customer struct {
	ID               int64  `json:"id" yaml:"id"`
	Name             string `json:"name" yaml:"name"`
	Email            string `json:"email" yaml:"email"`
	Phone            string `json:"phone" yaml:"phone"`
	Address          string `json:"address" yaml:"address"`
	RegistrationDate Date   `json:"registration_date" yaml:"registration_date"`
}

// Product is a sellable item of one category.
type Product struct {
	ID            int64           `json:"id" yaml:"id"`
	Name          string          `json:"name" yaml:"name"`
	CategoryID    int64           `json:"category_id" yaml:"category_id"`
	Price         decimal.Decimal `json:"price" yaml:"price"`
	StockQuantity int             `json:"stock_quantity" yaml:"stock_quantity"`
	Description   string          `json:"description" yaml:"description"`
}

// Order.TotalAmount is denormalized: the rounded sum of its items' line
// totals as of load time. Nothing keeps it in step with later item edits.
type Order struct {
	ID          int64           `json:"id" yaml:"id"`
	CustomerID  int64           `json:"customer_id" yaml:"customer_id"`
	OrderDate   Date            `json:"order_date" yaml:"order_date"`
	TotalAmount decimal.Decimal `json:"total_amount" yaml:"total_amount"`
	Status      string          `json:"status" yaml:"status"`
}

// OrderItem is one product line of an order, priced at order time.
type OrderItem struct {
	ID        int64           `json:"id" yaml:"id"`
	OrderID   int64           `json:"order_id" yaml:"order_id"`
	ProductID int64           `json:"product_id" yaml:"product_id"`
	Quantity  int             `json:"quantity" yaml:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price" yaml:"unit_price"`
}

// LineTotal is quantity × unit price.
func (i OrderItem) LineTotal() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// Counts returns the number of records per table name.
func (d *Dataset) Counts() map[string]int {
	return map[string]int{
		schema.TableCategories: len(d.Categories),
		schema.TableCustomers:  len(d.Customers),
		schema.TableProducts:   len(d.Products),
		schema.TableOrders:     len(d.Orders),
		schema.TableOrderItems: len(d.OrderItems),
	}
}
