package db

import (
	"context"
	"fmt"
	"strings"

	"github.com/tordrt/ecomstats/internal/schema"
)

// Apply creates every table and index of s that does not exist yet. It is
// safe to run against an already initialized store. A schema declaring a
// foreign key without an index on its column is rejected before any DDL runs.
func (c *Client) Apply(ctx context.Context, s *schema.Schema) error {
	if missing := s.UnindexedForeignKeys(); len(missing) > 0 {
		return fmt.Errorf("foreign keys without an index: %s", strings.Join(missing, ", "))
	}

	for _, table := range s.Tables {
		if _, err := c.db.ExecContext(ctx, c.dialect.CreateTableSQL(table)); err != nil {
			return fmt.Errorf("failed to create table %s: %w", table.Name, err)
		}
	}

	inspector := NewInspector(c)
	for _, table := range s.Tables {
		for _, idx := range table.Indexes {
			if !c.dialect.SupportsIndexIfNotExists() {
				exists, err := inspector.IndexExists(ctx, table.Name, idx.Name)
				if err != nil {
					return fmt.Errorf("failed to look up index %s: %w", idx.Name, err)
				}
				if exists {
					continue
				}
			}
			if _, err := c.db.ExecContext(ctx, c.dialect.CreateIndexSQL(table.Name, idx)); err != nil {
				return fmt.Errorf("failed to create index %s: %w", idx.Name, err)
			}
		}
	}

	return nil
}
