package loader

import (
	"context"
	"fmt"

	"github.com/tordrt/ecomstats/internal/observability"
	"github.com/tordrt/ecomstats/internal/schema"
)

// TableCount is the number of rows in one table.
type TableCount struct {
	Table string
	Rows  int
}

// OrphanCheck counts rows whose foreign key has no matching parent row.
type OrphanCheck struct {
	Table        string
	Column       string
	TargetTable  string
	TargetColumn string
	Orphans      int
}

// Verification is the read-only integrity report produced after a load.
type Verification struct {
	Counts  []TableCount
	Orphans []OrphanCheck
}

// OK reports whether no orphaned rows were found.
func (v *Verification) OK() bool {
	for _, o := range v.Orphans {
		if o.Orphans > 0 {
			return false
		}
	}
	return true
}

// Count returns the row count of table, or -1 when it was not counted.
func (v *Verification) Count(table string) int {
	for _, c := range v.Counts {
		if c.Table == table {
			return c.Rows
		}
	}
	return -1
}

// Verify counts rows per table and checks every declared foreign key for
// orphans with an outer join. It never modifies data.
func (l *Loader) Verify(ctx context.Context) (v *Verification, err error) {
	ctx, span := l.tracer.StartSpan(ctx, "loader.verify")
	defer func() { observability.End(span, err) }()

	q := l.client.GetDB()
	v = &Verification{}

	declared := schema.Ecommerce()
	for _, table := range declared.Tables {
		var n int
		if err := q.QueryRowContext(ctx, fmt.Sprintf("SELECT COUNT(*) FROM %s", table.Name)).Scan(&n); err != nil {
			return nil, fmt.Errorf("failed to count %s: %w", table.Name, err)
		}
		v.Counts = append(v.Counts, TableCount{Table: table.Name, Rows: n})
	}

	for _, table := range declared.Tables {
		for _, rel := range table.Relations {
			query := fmt.Sprintf(`
				SELECT COUNT(*)
				FROM %s s
				LEFT JOIN %s t ON s.%s = t.%s
				WHERE t.%s IS NULL
			`, table.Name, rel.TargetTable, rel.SourceColumn, rel.TargetColumn, rel.TargetColumn)

			check := OrphanCheck{
				Table:        table.Name,
				Column:       rel.SourceColumn,
				TargetTable:  rel.TargetTable,
				TargetColumn: rel.TargetColumn,
			}
			if err := q.QueryRowContext(ctx, query).Scan(&check.Orphans); err != nil {
				return nil, fmt.Errorf("failed to check %s.%s: %w", table.Name, rel.SourceColumn, err)
			}
			v.Orphans = append(v.Orphans, check)
		}
	}

	orphans := 0
	for _, o := range v.Orphans {
		orphans += o.Orphans
	}
	span.SetAttributes(observability.OrphansAttr(orphans))
	if orphans > 0 {
		l.logger.Warn("orphaned rows found", "orphans", orphans)
	}
	return v, nil
}
