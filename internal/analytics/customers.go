package analytics

import (
	"context"
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/tordrt/ecomstats/internal/dataset"
)

// TopCustomer is one row of the top customers report.
type TopCustomer struct {
	CustomerID    int64
	Name          string
	Email         string
	TotalOrders   int64
	TotalSpent    decimal.Decimal
	AvgOrderValue decimal.Decimal
	LastOrderDate dataset.Date
}

// TopCustomers returns the customers with the highest spend on non-cancelled
// orders, highest first. Customers without such orders never appear. Equal
// spend is ordered by customer id.
func (q *Queries) TopCustomers(ctx context.Context) ([]TopCustomer, error) {
	query := fmt.Sprintf(`
		SELECT
			c.id,
			c.name,
			c.email,
			COUNT(o.id) AS total_orders,
			SUM(o.total_amount) AS total_spent,
			MAX(o.order_date) AS last_order_date
		FROM customers c
		INNER JOIN orders o ON c.id = o.customer_id
		WHERE %s
		GROUP BY c.id, c.name, c.email
		ORDER BY total_spent DESC, c.id ASC
		LIMIT %d
	`, notCancelled("o"), TopCustomersLimit)

	rows, err := q.q.QueryContext(ctx, query)
	if err != nil {
		return nil, queryError("top customers", err)
	}
	defer func() { _ = rows.Close() }()

	var result []TopCustomer
	for rows.Next() {
		var c TopCustomer
		if err := rows.Scan(&c.CustomerID, &c.Name, &c.Email, &c.TotalOrders, &c.TotalSpent, &c.LastOrderDate); err != nil {
			return nil, queryError("top customers", err)
		}
		c.AvgOrderValue = average(c.TotalSpent, c.TotalOrders)
		c.TotalSpent = c.TotalSpent.Round(2)
		result = append(result, c)
	}
	if err := rows.Err(); err != nil {
		return nil, queryError("top customers", err)
	}
	return result, nil
}

// Segment classifies a customer by the number of non-cancelled orders.
type Segment int

// Segments in report order.
const (
	SegmentVIP Segment = iota
	SegmentRegular
	SegmentOccasional
	SegmentOneTime
	SegmentNoOrders
)

var segmentNames = map[Segment]string{
	SegmentVIP:        "VIP Customer",
	SegmentRegular:    "Regular Customer",
	SegmentOccasional: "Occasional Buyer",
	SegmentOneTime:    "One-time Buyer",
	SegmentNoOrders:   "No Orders",
}

func (s Segment) String() string {
	if name, ok := segmentNames[s]; ok {
		return name
	}
	return fmt.Sprintf("Segment(%d)", int(s))
}

// SegmentFor buckets an order count.
func SegmentFor(orders int64) Segment {
	switch {
	case orders <= 0:
		return SegmentNoOrders
	case orders == 1:
		return SegmentOneTime
	case orders <= 5:
		return SegmentOccasional
	case orders <= 10:
		return SegmentRegular
	default:
		return SegmentVIP
	}
}

// SegmentSummary aggregates the customers of one segment.
type SegmentSummary struct {
	Segment              Segment
	CustomerCount        int64
	AvgOrdersPerCustomer decimal.Decimal

	// AvgTotalSpent is invalid for customers without orders.
	AvgTotalSpent decimal.NullDecimal
}

// Segmentation buckets every customer, including those without orders, and
// returns one summary per non-empty segment ordered VIP first.
func (q *Queries) Segmentation(ctx context.Context) ([]SegmentSummary, error) {
	query := fmt.Sprintf(`
		SELECT
			c.id,
			COUNT(o.id) AS total_orders,
			SUM(o.total_amount) AS total_spent
		FROM customers c
		LEFT JOIN orders o ON c.id = o.customer_id AND %s
		GROUP BY c.id
	`, notCancelled("o"))

	rows, err := q.q.QueryContext(ctx, query)
	if err != nil {
		return nil, queryError("segmentation", err)
	}
	defer func() { _ = rows.Close() }()

	type totals struct {
		customers int64
		orders    int64
		spent     decimal.NullDecimal
	}
	bySegment := make(map[Segment]*totals)

	for rows.Next() {
		var (
			id     int64
			orders int64
			spent  decimal.NullDecimal
		)
		if err := rows.Scan(&id, &orders, &spent); err != nil {
			return nil, queryError("segmentation", err)
		}

		seg := SegmentFor(orders)
		t, ok := bySegment[seg]
		if !ok {
			t = &totals{}
			bySegment[seg] = t
		}
		t.customers++
		t.orders += orders
		if spent.Valid {
			t.spent = decimal.NewNullDecimal(t.spent.Decimal.Add(spent.Decimal))
		}
	}
	if err := rows.Err(); err != nil {
		return nil, queryError("segmentation", err)
	}

	result := make([]SegmentSummary, 0, len(bySegment))
	for seg, t := range bySegment {
		summary := SegmentSummary{
			Segment:              seg,
			CustomerCount:        t.customers,
			AvgOrdersPerCustomer: average(decimal.NewFromInt(t.orders), t.customers),
		}
		if t.spent.Valid {
			summary.AvgTotalSpent = decimal.NewNullDecimal(average(t.spent.Decimal, t.customers))
		}
		result = append(result, summary)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Segment < result[j].Segment })

	return result, nil
}
