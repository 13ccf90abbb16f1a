package analytics

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
)

// BestSeller is a product ranked within its category by revenue.
type BestSeller struct {
	CategoryName      string
	ProductID         int64
	ProductName       string
	TotalQuantitySold int64
	TotalRevenue      decimal.Decimal
	OrdersCount       int64
	Rank              int64
}

// BestSellers returns the top products of every category by revenue from
// non-cancelled orders. Within a category equal revenue ranks the lower
// product id first. Rows are ordered by category name, then rank.
func (q *Queries) BestSellers(ctx context.Context) ([]BestSeller, error) {
	query := fmt.Sprintf(`
		WITH product_sales AS (
			SELECT
				p.id AS product_id,
				p.name AS product_name,
				c.id AS category_id,
				c.name AS category_name,
				SUM(oi.quantity) AS total_quantity_sold,
				SUM(oi.quantity * oi.unit_price) AS total_revenue,
				COUNT(DISTINCT oi.order_id) AS orders_count
			FROM products p
			INNER JOIN categories c ON p.category_id = c.id
			INNER JOIN order_items oi ON p.id = oi.product_id
			INNER JOIN orders o ON oi.order_id = o.id
			WHERE %s
			GROUP BY p.id, p.name, c.id, c.name
		),
		ranked_products AS (
			SELECT
				ps.*,
				ROW_NUMBER() OVER (
					PARTITION BY ps.category_id
					ORDER BY ps.total_revenue DESC, ps.product_id ASC
				) AS sales_rank
			FROM product_sales ps
		)
		SELECT
			category_name,
			product_id,
			product_name,
			total_quantity_sold,
			total_revenue,
			orders_count,
			sales_rank
		FROM ranked_products
		WHERE sales_rank <= %d
		ORDER BY category_name, sales_rank
	`, notCancelled("o"), BestSellersPerCategory)

	rows, err := q.q.QueryContext(ctx, query)
	if err != nil {
		return nil, queryError("best sellers", err)
	}
	defer func() { _ = rows.Close() }()

	var result []BestSeller
	for rows.Next() {
		var b BestSeller
		if err := rows.Scan(&b.CategoryName, &b.ProductID, &b.ProductName, &b.TotalQuantitySold, &b.TotalRevenue, &b.OrdersCount, &b.Rank); err != nil {
			return nil, queryError("best sellers", err)
		}
		b.TotalRevenue = b.TotalRevenue.Round(2)
		result = append(result, b)
	}
	if err := rows.Err(); err != nil {
		return nil, queryError("best sellers", err)
	}
	return result, nil
}

// Performance labels by units sold.
const (
	PerformanceNoSales = "No Sales"
	PerformanceLow     = "Low Performer"
	PerformanceAverage = "Average Performer"
	PerformanceHigh    = "High Performer"
)

// PerformanceLabel classifies a product by units sold.
func PerformanceLabel(unitsSold int64) string {
	switch {
	case unitsSold <= 0:
		return PerformanceNoSales
	case unitsSold < 5:
		return PerformanceLow
	case unitsSold <= 20:
		return PerformanceAverage
	default:
		return PerformanceHigh
	}
}

// ProductPerformance is the sales summary of one product.
type ProductPerformance struct {
	ProductID     int64
	Name          string
	Category      string
	Price         decimal.Decimal
	StockQuantity int64
	TotalSold     int64
	TotalRevenue  decimal.Decimal
	OrdersCount   int64
	Label         string

	// AvgSellingPrice is invalid when nothing was sold.
	AvgSellingPrice decimal.NullDecimal
}

// ProductPerformance summarizes every product, including those never sold,
// ordered by revenue descending then product id. Every order item counts,
// whatever the status of its order.
func (q *Queries) ProductPerformance(ctx context.Context) ([]ProductPerformance, error) {
	query := `
		SELECT
			p.id,
			p.name,
			c.name AS category,
			p.price,
			p.stock_quantity,
			COALESCE(SUM(oi.quantity), 0) AS total_sold,
			COALESCE(SUM(oi.quantity * oi.unit_price), 0) AS total_revenue,
			COUNT(DISTINCT oi.order_id) AS orders_count
		FROM products p
		INNER JOIN categories c ON p.category_id = c.id
		LEFT JOIN order_items oi ON p.id = oi.product_id
		GROUP BY p.id, p.name, c.name, p.price, p.stock_quantity
		ORDER BY total_revenue DESC, p.id ASC
	`

	rows, err := q.q.QueryContext(ctx, query)
	if err != nil {
		return nil, queryError("product performance", err)
	}
	defer func() { _ = rows.Close() }()

	var result []ProductPerformance
	for rows.Next() {
		var p ProductPerformance
		if err := rows.Scan(&p.ProductID, &p.Name, &p.Category, &p.Price, &p.StockQuantity, &p.TotalSold, &p.TotalRevenue, &p.OrdersCount); err != nil {
			return nil, queryError("product performance", err)
		}
		p.Price = p.Price.Round(2)
		p.TotalRevenue = p.TotalRevenue.Round(2)
		p.Label = PerformanceLabel(p.TotalSold)
		if p.TotalSold > 0 {
			p.AvgSellingPrice = decimal.NewNullDecimal(average(p.TotalRevenue, p.TotalSold))
		}
		result = append(result, p)
	}
	if err := rows.Err(); err != nil {
		return nil, queryError("product performance", err)
	}
	return result, nil
}

// CrossSell is a pair of products bought together in the same orders.
type CrossSell struct {
	Product1ID          int64
	Product1            string
	Category1           string
	Product2ID          int64
	Product2            string
	Category2           string
	TimesBoughtTogether int64

	// Product1Orders is the number of orders of any status containing Product1.
	Product1Orders int64

	// CrossSellRate is TimesBoughtTogether as a percentage of Product1Orders.
	CrossSellRate decimal.Decimal
}

// CrossSell counts unordered product pairs per non-cancelled order. A pair
// is reported once with the lower product id first and never pairs a
// product with itself. The rate divides by every order containing the first
// product, cancelled ones included. Only pairs seen together often enough
// are kept, most frequent first.
func (q *Queries) CrossSell(ctx context.Context) ([]CrossSell, error) {
	query := fmt.Sprintf(`
		WITH order_product_pairs AS (
			SELECT DISTINCT
				oi1.product_id AS product1_id,
				oi2.product_id AS product2_id,
				oi1.order_id
			FROM order_items oi1
			INNER JOIN order_items oi2 ON oi1.order_id = oi2.order_id
			INNER JOIN orders o ON oi1.order_id = o.id
			WHERE oi1.product_id < oi2.product_id
			AND %s
		),
		product_orders AS (
			SELECT product_id, COUNT(DISTINCT order_id) AS orders_count
			FROM order_items
			GROUP BY product_id
		)
		SELECT
			p1.id,
			p1.name,
			c1.name,
			p2.id,
			p2.name,
			c2.name,
			COUNT(*) AS times_bought_together,
			po.orders_count
		FROM order_product_pairs opp
		INNER JOIN products p1 ON opp.product1_id = p1.id
		INNER JOIN products p2 ON opp.product2_id = p2.id
		INNER JOIN categories c1 ON p1.category_id = c1.id
		INNER JOIN categories c2 ON p2.category_id = c2.id
		INNER JOIN product_orders po ON po.product_id = p1.id
		GROUP BY p1.id, p1.name, c1.name, p2.id, p2.name, c2.name, po.orders_count
		HAVING COUNT(*) >= %d
		ORDER BY times_bought_together DESC, p1.id ASC, p2.id ASC
		LIMIT %d
	`, notCancelled("o"), CrossSellMinCount, CrossSellLimit)

	rows, err := q.q.QueryContext(ctx, query)
	if err != nil {
		return nil, queryError("cross-sell", err)
	}
	defer func() { _ = rows.Close() }()

	var result []CrossSell
	for rows.Next() {
		var c CrossSell
		if err := rows.Scan(&c.Product1ID, &c.Product1, &c.Category1, &c.Product2ID, &c.Product2, &c.Category2, &c.TimesBoughtTogether, &c.Product1Orders); err != nil {
			return nil, queryError("cross-sell", err)
		}
		c.CrossSellRate = crossSellRate(c.TimesBoughtTogether, c.Product1Orders)
		result = append(result, c)
	}
	if err := rows.Err(); err != nil {
		return nil, queryError("cross-sell", err)
	}
	return result, nil
}

func crossSellRate(together, orders int64) decimal.Decimal {
	if orders == 0 {
		return decimal.Zero
	}
	return decimal.NewFromInt(together * 100).Div(decimal.NewFromInt(orders)).Round(2)
}
