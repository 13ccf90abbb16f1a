package dataset

import (
	"errors"
	"fmt"
	"strings"

	"github.com/tordrt/ecomstats/internal/schema"
)

// ErrInvalid marks a dataset that would violate a store constraint.
var ErrInvalid = errors.New("invalid dataset")

// Validate checks d against the constraints the store enforces and returns
// every problem found, joined. Records sharing an id are not an error: the
// later record replaces the earlier one on load.
func (d *Dataset) Validate() error {
	var problems []error
	add := func(format string, args ...any) {
		problems = append(problems, fmt.Errorf(format, args...))
	}

	categories := make(map[int64]bool, len(d.Categories))
	categoryNames := make(map[string]int64, len(d.Categories))
	for _, c := range d.Categories {
		categories[c.ID] = true
		if strings.TrimSpace(c.Name) == "" {
			add("category %d: name is required", c.ID)
			continue
		}
		if other, ok := categoryNames[c.Name]; ok && other != c.ID {
			add("category %d: name %q already used by category %d", c.ID, c.Name, other)
		}
		categoryNames[c.Name] = c.ID
	}

	customers := make(map[int64]bool, len(d.Customers))
	emails := make(map[string]int64, len(d.Customers))
	for _, c := range d.Customers {
		customers[c.ID] = true
		if strings.TrimSpace(c.Name) == "" {
			add("customer %d: name is required", c.ID)
		}
		if c.RegistrationDate.IsZero() {
			add("customer %d: registration_date is required", c.ID)
		}
		if strings.TrimSpace(c.Email) == "" {
			add("customer %d: email is required", c.ID)
			continue
		}
		if other, ok := emails[c.Email]; ok && other != c.ID {
			add("customer %d: email %q already used by customer %d", c.ID, c.Email, other)
		}
		emails[c.Email] = c.ID
	}

	products := make(map[int64]bool, len(d.Products))
	for _, p := range d.Products {
		products[p.ID] = true
		if strings.TrimSpace(p.Name) == "" {
			add("product %d: name is required", p.ID)
		}
		if !categories[p.CategoryID] {
			add("product %d: category %d does not exist", p.ID, p.CategoryID)
		}
		if p.Price.IsNegative() {
			add("product %d: price %s is negative", p.ID, p.Price)
		}
		if p.StockQuantity < 0 {
			add("product %d: stock_quantity %d is negative", p.ID, p.StockQuantity)
		}
	}

	orders := make(map[int64]bool, len(d.Orders))
	for _, o := range d.Orders {
		orders[o.ID] = true
		if !customers[o.CustomerID] {
			add("order %d: customer %d does not exist", o.ID, o.CustomerID)
		}
		if o.OrderDate.IsZero() {
			add("order %d: order_date is required", o.ID)
		}
		if o.TotalAmount.IsNegative() {
			add("order %d: total_amount %s is negative", o.ID, o.TotalAmount)
		}
		if !schema.ValidStatus(o.Status) {
			add("order %d: status %q is not one of %s", o.ID, o.Status, strings.Join(schema.OrderStatuses, ", "))
		}
	}

	for _, i := range d.OrderItems {
		if !orders[i.OrderID] {
			add("order item %d: order %d does not exist", i.ID, i.OrderID)
		}
		if !products[i.ProductID] {
			add("order item %d: product %d does not exist", i.ID, i.ProductID)
		}
		if i.Quantity <= 0 {
			add("order item %d: quantity %d must be positive", i.ID, i.Quantity)
		}
		if i.UnitPrice.IsNegative() {
			add("order item %d: unit_price %s is negative", i.ID, i.UnitPrice)
		}
	}

	if len(problems) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrInvalid, errors.Join(problems...))
}
