package analytics

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
)

// MonthlyTrend aggregates the non-cancelled sales of one calendar month.
type MonthlyTrend struct {
	Month           string // YYYY-MM
	TotalOrders     int64
	UniqueCustomers int64
	TotalRevenue    decimal.Decimal
	AvgOrderValue   decimal.Decimal
	TotalItemsSold  int64
}

// MonthlyTrends returns the most recent months with sales, newest first.
// Revenue is summed from order items and every order is counted once.
func (q *Queries) MonthlyTrends(ctx context.Context) ([]MonthlyTrend, error) {
	month := q.dialect.MonthExpr("o.order_date")
	query := fmt.Sprintf(`
		SELECT
			%s AS order_month,
			COUNT(DISTINCT o.id) AS total_orders,
			COUNT(DISTINCT o.customer_id) AS unique_customers,
			SUM(oi.quantity * oi.unit_price) AS total_revenue,
			SUM(oi.quantity) AS total_items_sold
		FROM orders o
		INNER JOIN order_items oi ON o.id = oi.order_id
		WHERE %s
		GROUP BY %s
		ORDER BY order_month DESC
		LIMIT %d
	`, month, notCancelled("o"), month, TrendMonths)

	rows, err := q.q.QueryContext(ctx, query)
	if err != nil {
		return nil, queryError("monthly trends", err)
	}
	defer func() { _ = rows.Close() }()

	var result []MonthlyTrend
	for rows.Next() {
		var m MonthlyTrend
		if err := rows.Scan(&m.Month, &m.TotalOrders, &m.UniqueCustomers, &m.TotalRevenue, &m.TotalItemsSold); err != nil {
			return nil, queryError("monthly trends", err)
		}
		m.AvgOrderValue = average(m.TotalRevenue, m.TotalOrders)
		m.TotalRevenue = m.TotalRevenue.Round(2)
		result = append(result, m)
	}
	if err := rows.Err(); err != nil {
		return nil, queryError("monthly trends", err)
	}
	return result, nil
}

// CategoryRevenue aggregates one category's non-cancelled sales in a month.
type CategoryRevenue struct {
	Category        string
	Month           string // YYYY-MM
	OrdersCount     int64
	ItemsSold       int64
	Revenue         decimal.Decimal
	AvgItemPrice    decimal.Decimal
	UniqueCustomers int64
}

// CategoryRevenue returns revenue per category and month, newest month
// first and within a month highest revenue first. Groups without positive
// revenue are dropped.
func (q *Queries) CategoryRevenue(ctx context.Context) ([]CategoryRevenue, error) {
	month := q.dialect.MonthExpr("o.order_date")
	query := fmt.Sprintf(`
		SELECT
			c.name AS category,
			%s AS order_month,
			COUNT(DISTINCT o.id) AS orders_count,
			SUM(oi.quantity) AS items_sold,
			SUM(oi.quantity * oi.unit_price) AS revenue,
			SUM(oi.unit_price) AS unit_price_sum,
			COUNT(oi.id) AS item_lines,
			COUNT(DISTINCT o.customer_id) AS unique_customers
		FROM categories c
		INNER JOIN products p ON c.id = p.category_id
		INNER JOIN order_items oi ON p.id = oi.product_id
		INNER JOIN orders o ON oi.order_id = o.id
		WHERE %s
		GROUP BY c.id, c.name, %s
		HAVING SUM(oi.quantity * oi.unit_price) > 0
		ORDER BY order_month DESC, revenue DESC, category ASC
	`, month, notCancelled("o"), month)

	rows, err := q.q.QueryContext(ctx, query)
	if err != nil {
		return nil, queryError("category revenue", err)
	}
	defer func() { _ = rows.Close() }()

	var result []CategoryRevenue
	for rows.Next() {
		var (
			r         CategoryRevenue
			priceSum  decimal.Decimal
			itemLines int64
		)
		if err := rows.Scan(&r.Category, &r.Month, &r.OrdersCount, &r.ItemsSold, &r.Revenue, &priceSum, &itemLines, &r.UniqueCustomers); err != nil {
			return nil, queryError("category revenue", err)
		}
		r.Revenue = r.Revenue.Round(2)
		r.AvgItemPrice = average(priceSum, itemLines)
		result = append(result, r)
	}
	if err := rows.Err(); err != nil {
		return nil, queryError("category revenue", err)
	}
	return result, nil
}
