package db

import (
	"fmt"
	"strings"

	"github.com/tordrt/ecomstats/internal/schema"
)

// Dialect identifies the SQL flavour of a store.
type Dialect string

const (
	SQLite   Dialect = "sqlite"
	Postgres Dialect = "postgres"
	MySQL    Dialect = "mysql"
)

// Rebind rewrites ? placeholders into the dialect's bind syntax.
// Queries in this module never carry a literal ? inside a string.
func (d Dialect) Rebind(query string) string {
	if d != Postgres {
		return query
	}

	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			fmt.Fprintf(&b, "$%d", n)
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// MonthExpr returns an expression formatting a date column as YYYY-MM.
func (d Dialect) MonthExpr(column string) string {
	switch d {
	case Postgres:
		return fmt.Sprintf("to_char(%s, 'YYYY-MM')", column)
	case MySQL:
		return fmt.Sprintf("DATE_FORMAT(%s, '%%Y-%%m')", column)
	default:
		return fmt.Sprintf("strftime('%%Y-%%m', %s)", column)
	}
}

// SupportsIndexIfNotExists reports whether CREATE INDEX IF NOT EXISTS is valid.
func (d Dialect) SupportsIndexIfNotExists() bool {
	return d != MySQL
}

// ColumnType renders the SQL type of a declared column.
func (d Dialect) ColumnType(col schema.Column) string {
	switch col.Kind {
	case schema.KindInteger:
		return "INTEGER"
	case schema.KindVarchar:
		if col.Length > 0 {
			return fmt.Sprintf("VARCHAR(%d)", col.Length)
		}
		return "VARCHAR(255)"
	case schema.KindDecimal:
		return "DECIMAL(10,2)"
	case schema.KindDate:
		return "DATE"
	default:
		return "TEXT"
	}
}

// CreateTableSQL renders an idempotent CREATE TABLE statement.
func (d Dialect) CreateTableSQL(table schema.Table) string {
	var lines []string
	for _, col := range table.Columns {
		parts := []string{col.Name, d.ColumnType(col)}
		if !col.Nullable {
			parts = append(parts, "NOT NULL")
		}
		if col.IsUnique {
			parts = append(parts, "UNIQUE")
		}
		if col.DefaultValue != nil {
			parts = append(parts, "DEFAULT "+*col.DefaultValue)
		}
		if col.CheckConstraint != nil {
			parts = append(parts, fmt.Sprintf("CHECK (%s)", *col.CheckConstraint))
		}
		lines = append(lines, "    "+strings.Join(parts, " "))
	}

	if len(table.PrimaryKey) > 0 {
		lines = append(lines, fmt.Sprintf("    PRIMARY KEY (%s)", strings.Join(table.PrimaryKey, ", ")))
	}

	for _, rel := range table.Relations {
		lines = append(lines, fmt.Sprintf("    FOREIGN KEY (%s) REFERENCES %s(%s)", rel.SourceColumn, rel.TargetTable, rel.TargetColumn))
	}

	return fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (\n%s\n)", table.Name, strings.Join(lines, ",\n"))
}

// CreateIndexSQL renders a CREATE INDEX statement, guarded with IF NOT EXISTS
// where the dialect allows it.
func (d Dialect) CreateIndexSQL(table string, idx schema.Index) string {
	unique := ""
	if idx.IsUnique {
		unique = "UNIQUE "
	}
	guard := ""
	if d.SupportsIndexIfNotExists() {
		guard = "IF NOT EXISTS "
	}
	return fmt.Sprintf("CREATE %sINDEX %s%s ON %s(%s)", unique, guard, idx.Name, table, strings.Join(idx.Columns, ", "))
}
