package db

import (
	"context"
	"strings"

	"github.com/tordrt/ecomstats/internal/schema"
)

// Inspector reads the live schema of a store.
type Inspector interface {
	// Inspect extracts the schema for the given tables, or every table when
	// tables is empty.
	Inspect(ctx context.Context, tables []string) (*schema.Schema, error)

	// IndexExists reports whether an index named index exists on table.
	IndexExists(ctx context.Context, table, index string) (bool, error)
}

// NewInspector returns the inspector matching the client's dialect.
func NewInspector(c *Client) Inspector {
	if c.dialect == SQLite {
		return &SQLiteInspector{client: c}
	}
	return &InfoSchemaInspector{client: c}
}

// markUniqueColumns flags columns covered by a single-column unique index.
func markUniqueColumns(table *schema.Table) {
	for _, idx := range table.Indexes {
		if !idx.IsUnique || len(idx.Columns) != 1 {
			continue
		}
		if col := table.Column(idx.Columns[0]); col != nil && !contains(table.PrimaryKey, col.Name) {
			col.IsUnique = true
		}
	}
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func splitColumns(list string) []string {
	if list == "" {
		return nil
	}
	cols := strings.Split(list, ",")
	for i := range cols {
		cols[i] = strings.TrimSpace(cols[i])
	}
	return cols
}
