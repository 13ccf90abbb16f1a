// Package analytics runs the fixed set of business reports over a loaded
// ecommerce store. Every query is a read; none of them mutate data.
//
// Only orders whose status is not cancelled contribute to any figure.
// Monetary results are decimals rounded to cents.
package analytics

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/tordrt/ecomstats/internal/db"
	"github.com/tordrt/ecomstats/internal/schema"
)

// ErrQuery marks a failed report query.
var ErrQuery = errors.New("query failed")

// Result limits and thresholds.
const (
	TopCustomersLimit      = 10
	BestSellersPerCategory = 3
	TrendMonths            = 12
	CrossSellMinCount      = 3
	CrossSellLimit         = 15
)

// Queries executes the report queries against one store.
type Queries struct {
	q       db.Querier
	dialect db.Dialect
}

// New creates Queries reading through client.
func New(client *db.Client) *Queries {
	return &Queries{q: client.GetDB(), dialect: client.Dialect()}
}

// notCancelled is the predicate restricting alias to orders that count.
func notCancelled(alias string) string {
	return fmt.Sprintf("%s.status <> '%s'", alias, schema.StatusCancelled)
}

func queryError(name string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrQuery, name, err)
}

// average divides sum by n, rounded to cents. It is zero when n is zero.
func average(sum decimal.Decimal, n int64) decimal.Decimal {
	if n == 0 {
		return decimal.Zero
	}
	return sum.Div(decimal.NewFromInt(n)).Round(2)
}
