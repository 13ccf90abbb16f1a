package loader

import (
	"github.com/tordrt/ecomstats/internal/dataset"
	"github.com/tordrt/ecomstats/internal/schema"
)

// tableRows returns the dataset's records for table as value lists in the
// column order declared by schema.Ecommerce.
func tableRows(d *dataset.Dataset, table string) [][]any {
	var rows [][]any
	switch table {
	case schema.TableCategories:
		for _, c := range d.Categories {
			rows = append(rows, []any{c.ID, c.Name, c.Description})
		}
	case schema.TableCustomers:
		for _, c := range d.Customers {
			rows = append(rows, []any{c.ID, c.Name, c.Email, c.Phone, c.Address, c.RegistrationDate})
		}
	case schema.TableProducts:
		for _, p := range d.Products {
			rows = append(rows, []any{p.ID, p.Name, p.CategoryID, p.Price, p.StockQuantity, p.Description})
		}
	case schema.TableOrders:
		for _, o := range d.Orders {
			rows = append(rows, []any{o.ID, o.CustomerID, o.OrderDate, o.TotalAmount, o.Status})
		}
	case schema.TableOrderItems:
		for _, i := range d.OrderItems {
			rows = append(rows, []any{i.ID, i.OrderID, i.ProductID, i.Quantity, i.UnitPrice})
		}
	}
	return rows
}
