package analytics

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/tordrt/ecomstats/internal/observability"
)

// Report names.
const (
	ReportTopCustomers       = "top_customers"
	ReportBestSellers        = "best_sellers"
	ReportMonthlyTrends      = "monthly_trends"
	ReportSegmentation       = "segmentation"
	ReportProductPerformance = "product_performance"
	ReportCategoryRevenue    = "category_revenue"
	ReportCrossSell          = "cross_sell"
)

// Report is the tabular result of one query. Cells hold strings, int64,
// decimal.Decimal or nil.
type Report struct {
	Name    string
	Title   string
	Columns []string
	Rows    [][]any

	// Err is set when the query failed; Rows is then empty.
	Err error
}

// Definition describes a report the Runner can produce.
type Definition struct {
	Name    string
	Title   string
	Columns []string
	run     func(ctx context.Context, q *Queries) ([][]any, error)
}

// Definitions lists every report in presentation order.
var Definitions = []Definition{
	{
		Name:    ReportTopCustomers,
		Title:   "Top 10 Customers by Total Revenue",
		Columns: []string{"id", "name", "email", "total_orders", "total_spent", "avg_order_value", "last_order_date"},
		run: func(ctx context.Context, q *Queries) ([][]any, error) {
			rows, err := q.TopCustomers(ctx)
			if err != nil {
				return nil, err
			}
			out := make([][]any, len(rows))
			for i, r := range rows {
				out[i] = []any{r.CustomerID, r.Name, r.Email, r.TotalOrders, r.TotalSpent, r.AvgOrderValue, r.LastOrderDate.String()}
			}
			return out, nil
		},
	},
	{
		Name:    ReportBestSellers,
		Title:   "Top 3 Best-Selling Products by Category",
		Columns: []string{"category_name", "product_name", "total_quantity_sold", "total_revenue", "orders_count", "rank"},
		run: func(ctx context.Context, q *Queries) ([][]any, error) {
			rows, err := q.BestSellers(ctx)
			if err != nil {
				return nil, err
			}
			out := make([][]any, len(rows))
			for i, r := range rows {
				out[i] = []any{r.CategoryName, r.ProductName, r.TotalQuantitySold, r.TotalRevenue, r.OrdersCount, r.Rank}
			}
			return out, nil
		},
	},
	{
		Name:    ReportMonthlyTrends,
		Title:   "Monthly Sales Trends (Last 12 Months)",
		Columns: []string{"month", "total_orders", "unique_customers", "total_revenue", "avg_order_value", "total_items_sold"},
		run: func(ctx context.Context, q *Queries) ([][]any, error) {
			rows, err := q.MonthlyTrends(ctx)
			if err != nil {
				return nil, err
			}
			out := make([][]any, len(rows))
			for i, r := range rows {
				out[i] = []any{r.Month, r.TotalOrders, r.UniqueCustomers, r.TotalRevenue, r.AvgOrderValue, r.TotalItemsSold}
			}
			return out, nil
		},
	},
	{
		Name:    ReportSegmentation,
		Title:   "Customer Segmentation by Order Frequency",
		Columns: []string{"customer_segment", "customer_count", "avg_total_spent", "avg_orders_per_customer"},
		run: func(ctx context.Context, q *Queries) ([][]any, error) {
			rows, err := q.Segmentation(ctx)
			if err != nil {
				return nil, err
			}
			out := make([][]any, len(rows))
			for i, r := range rows {
				out[i] = []any{r.Segment.String(), r.CustomerCount, nullable(r.AvgTotalSpent), r.AvgOrdersPerCustomer}
			}
			return out, nil
		},
	},
	{
		Name:  ReportProductPerformance,
		Title: "Product Performance Metrics",
		Columns: []string{
			"id", "name", "category", "price", "stock_quantity", "total_sold",
			"total_revenue", "orders_count", "performance_category", "avg_selling_price",
		},
		run: func(ctx context.Context, q *Queries) ([][]any, error) {
			rows, err := q.ProductPerformance(ctx)
			if err != nil {
				return nil, err
			}
			out := make([][]any, len(rows))
			for i, r := range rows {
				out[i] = []any{r.ProductID, r.Name, r.Category, r.Price, r.StockQuantity, r.TotalSold, r.TotalRevenue, r.OrdersCount, r.Label, nullable(r.AvgSellingPrice)}
			}
			return out, nil
		},
	},
	{
		Name:    ReportCategoryRevenue,
		Title:   "Revenue Analysis by Category and Month",
		Columns: []string{"category", "month", "orders_count", "items_sold", "revenue", "avg_item_price", "unique_customers"},
		run: func(ctx context.Context, q *Queries) ([][]any, error) {
			rows, err := q.CategoryRevenue(ctx)
			if err != nil {
				return nil, err
			}
			out := make([][]any, len(rows))
			for i, r := range rows {
				out[i] = []any{r.Category, r.Month, r.OrdersCount, r.ItemsSold, r.Revenue, r.AvgItemPrice, r.UniqueCustomers}
			}
			return out, nil
		},
	},
	{
		Name:    ReportCrossSell,
		Title:   "Cross-Selling Analysis - Products Frequently Bought Together",
		Columns: []string{"product1", "product2", "category1", "category2", "times_bought_together", "cross_sell_rate_percent"},
		run: func(ctx context.Context, q *Queries) ([][]any, error) {
			rows, err := q.CrossSell(ctx)
			if err != nil {
				return nil, err
			}
			out := make([][]any, len(rows))
			for i, r := range rows {
				out[i] = []any{r.Product1, r.Product2, r.Category1, r.Category2, r.TimesBoughtTogether, r.CrossSellRate}
			}
			return out, nil
		},
	},
}

// Lookup returns the definition with the given name.
func Lookup(name string) (Definition, bool) {
	for _, def := range Definitions {
		if def.Name == name {
			return def, true
		}
	}
	return Definition{}, false
}

// Names returns the names of all reports.
func Names() []string {
	names := make([]string, len(Definitions))
	for i, def := range Definitions {
		names[i] = def.Name
	}
	return names
}

// Run is the outcome of one Runner.Run call.
type Run struct {
	ID          string
	GeneratedAt time.Time
	Reports     []Report
}

// Failed returns the reports whose query failed.
func (r *Run) Failed() []Report {
	var failed []Report
	for _, rep := range r.Reports {
		if rep.Err != nil {
			failed = append(failed, rep)
		}
	}
	return failed
}

// Runner executes reports one after another.
type Runner struct {
	queries *Queries
	logger  *slog.Logger
	tracer  *observability.Tracer
	now     func() time.Time
}

// NewRunner creates a Runner. A nil logger or tracer uses the defaults.
func NewRunner(queries *Queries, logger *slog.Logger, tracer *observability.Tracer) *Runner {
	if tracer == nil {
		tracer = observability.NewTracer(nil)
	}
	return &Runner{
		queries: queries,
		logger:  observability.LoggerOrDefault(logger),
		tracer:  tracer,
		now:     time.Now,
	}
}

// Run executes the named reports, or all of them when names is empty. A
// failing query is recorded on its report and the remaining reports still
// run; the returned error joins every failure. Unknown names fail before
// any query runs.
func (r *Runner) Run(ctx context.Context, names ...string) (*Run, error) {
	defs := Definitions
	if len(names) > 0 {
		defs = make([]Definition, 0, len(names))
		for _, name := range names {
			def, ok := Lookup(name)
			if !ok {
				return nil, fmt.Errorf("unknown report: %s", name)
			}
			defs = append(defs, def)
		}
	}

	run := &Run{ID: observability.NewRunID(), GeneratedAt: r.now()}
	logger := r.logger.With("run_id", run.ID)

	var errs []error
	for _, def := range defs {
		report := r.runOne(ctx, def, run.ID)
		if report.Err != nil {
			logger.Error("report failed", "report", def.Name, "error", report.Err)
			errs = append(errs, report.Err)
		} else {
			logger.Debug("report complete", "report", def.Name, "rows", len(report.Rows))
		}
		run.Reports = append(run.Reports, report)
	}

	return run, errors.Join(errs...)
}

func (r *Runner) runOne(ctx context.Context, def Definition, runID string) Report {
	ctx, span := r.tracer.StartSpan(ctx, "analytics."+def.Name,
		observability.RunIDAttr(runID),
		observability.ReportAttr(def.Name),
	)

	report := Report{Name: def.Name, Title: def.Title, Columns: def.Columns}
	rows, err := def.run(ctx, r.queries)
	if err != nil {
		report.Err = err
	} else {
		report.Rows = rows
		span.SetAttributes(observability.RowsAttr(len(rows)))
	}

	observability.End(span, err)
	return report
}

// nullable turns an invalid decimal into a nil cell.
func nullable(d decimal.NullDecimal) any {
	if !d.Valid {
		return nil
	}
	return d.Decimal
}
