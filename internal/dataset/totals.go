package dataset

import "github.com/shopspring/decimal"

// RecomputeTotals sets every order's TotalAmount to the sum of its items'
// line totals, rounded to cents. When item ids repeat, the last record wins,
// matching how the loader applies them. Orders without items total zero.
func (d *Dataset) RecomputeTotals() {
	latest := make(map[int64]OrderItem, len(d.OrderItems))
	var ids []int64
	for _, item := range d.OrderItems {
		if _, seen := latest[item.ID]; !seen {
			ids = append(ids, item.ID)
		}
		latest[item.ID] = item
	}

	totals := make(map[int64]decimal.Decimal, len(d.Orders))
	for _, id := range ids {
		item := latest[id]
		totals[item.OrderID] = totals[item.OrderID].Add(item.LineTotal())
	}

	for i := range d.Orders {
		d.Orders[i].TotalAmount = totals[d.Orders[i].ID].Round(2)
	}
}
