package db

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/tordrt/ecomstats/internal/schema"
)

// InfoSchemaInspector reads schema metadata of PostgreSQL and MySQL stores
// from information_schema, scoped to the connection's current schema.
type InfoSchemaInspector struct {
	client *Client
}

func (e *InfoSchemaInspector) schemaExpr() string {
	if e.client.dialect == MySQL {
		return "DATABASE()"
	}
	return "current_schema()"
}

func (e *InfoSchemaInspector) query(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return e.client.GetDB().QueryContext(ctx, e.client.dialect.Rebind(query), args...)
}

// Inspect extracts the schema for the specified tables
// If tables is empty, extracts all tables in the schema
func (e *InfoSchemaInspector) Inspect(ctx context.Context, tables []string) (*schema.Schema, error) {
	var extractedTables []schema.Table

	tableNames, err := e.getTableNames(ctx, tables)
	if err != nil {
		return nil, fmt.Errorf("failed to get table names: %w", err)
	}

	for _, tableName := range tableNames {
		table, err := e.extractTable(ctx, tableName)
		if err != nil {
			return nil, fmt.Errorf("failed to extract table %s: %w", tableName, err)
		}
		extractedTables = append(extractedTables, *table)
	}

	return &schema.Schema{Tables: extractedTables}, nil
}

// IndexExists checks the engine catalog for a named index on table
func (e *InfoSchemaInspector) IndexExists(ctx context.Context, table, index string) (bool, error) {
	var query string
	var args []any
	if e.client.dialect == MySQL {
		query = `
			SELECT COUNT(*)
			FROM information_schema.statistics
			WHERE table_schema = DATABASE() AND table_name = ? AND index_name = ?
		`
		args = []any{table, index}
	} else {
		query = `
			SELECT COUNT(*)
			FROM pg_indexes
			WHERE schemaname = current_schema() AND tablename = ? AND indexname = ?
		`
		args = []any{table, index}
	}

	var count int
	if err := e.client.GetDB().QueryRowContext(ctx, e.client.dialect.Rebind(query), args...).Scan(&count); err != nil {
		return false, err
	}
	return count > 0, nil
}

// getTableNames returns the list of tables to extract
func (e *InfoSchemaInspector) getTableNames(ctx context.Context, requestedTables []string) ([]string, error) {
	if len(requestedTables) > 0 {
		return requestedTables, nil
	}

	query := fmt.Sprintf(`
		SELECT table_name
		FROM information_schema.tables
		WHERE table_schema = %s AND table_type = 'BASE TABLE'
		ORDER BY table_name
	`, e.schemaExpr())

	rows, err := e.query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tables []string
	for rows.Next() {
		var tableName string
		if err := rows.Scan(&tableName); err != nil {
			return nil, err
		}
		tables = append(tables, tableName)
	}

	return tables, rows.Err()
}

func (e *InfoSchemaInspector) extractTable(ctx context.Context, tableName string) (*schema.Table, error) {
	table := &schema.Table{Name: tableName}

	columns, err := e.extractColumns(ctx, tableName)
	if err != nil {
		return nil, fmt.Errorf("failed to extract columns: %w", err)
	}
	table.Columns = columns

	pk, err := e.extractPrimaryKey(ctx, tableName)
	if err != nil {
		return nil, fmt.Errorf("failed to extract primary key: %w", err)
	}
	table.PrimaryKey = pk

	relations, err := e.extractRelations(ctx, tableName)
	if err != nil {
		return nil, fmt.Errorf("failed to extract relations: %w", err)
	}
	table.Relations = relations

	indexes, err := e.extractIndexes(ctx, tableName)
	if err != nil {
		return nil, fmt.Errorf("failed to extract indexes: %w", err)
	}
	table.Indexes = indexes
	markUniqueColumns(table)

	return table, nil
}

func (e *InfoSchemaInspector) extractColumns(ctx context.Context, tableName string) ([]schema.Column, error) {
	query := fmt.Sprintf(`
		SELECT column_name, data_type, is_nullable, column_default
		FROM information_schema.columns
		WHERE table_schema = %s AND table_name = ?
		ORDER BY ordinal_position
	`, e.schemaExpr())

	rows, err := e.query(ctx, query, tableName)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var columns []schema.Column
	for rows.Next() {
		var col schema.Column
		var nullable string
		var defaultVal sql.NullString

		if err := rows.Scan(&col.Name, &col.Type, &nullable, &defaultVal); err != nil {
			return nil, err
		}

		col.Nullable = nullable == "YES"
		if defaultVal.Valid {
			col.DefaultValue = &defaultVal.String
		}

		columns = append(columns, col)
	}

	return columns, rows.Err()
}

func (e *InfoSchemaInspector) extractPrimaryKey(ctx context.Context, tableName string) ([]string, error) {
	query := fmt.Sprintf(`
		SELECT kcu.column_name
		FROM information_schema.table_constraints tc
		JOIN information_schema.key_column_usage kcu
			ON tc.constraint_name = kcu.constraint_name
			AND tc.table_schema = kcu.table_schema
			AND tc.table_name = kcu.table_name
		WHERE tc.constraint_type = 'PRIMARY KEY'
			AND tc.table_schema = %s
			AND tc.table_name = ?
		ORDER BY kcu.ordinal_position
	`, e.schemaExpr())

	rows, err := e.query(ctx, query, tableName)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var pk []string
	for rows.Next() {
		var colName string
		if err := rows.Scan(&colName); err != nil {
			return nil, err
		}
		pk = append(pk, colName)
	}

	return pk, rows.Err()
}

func (e *InfoSchemaInspector) extractRelations(ctx context.Context, tableName string) ([]schema.Relation, error) {
	query := `
		SELECT
			kcu.column_name,
			ccu.table_name AS foreign_table_name,
			ccu.column_name AS foreign_column_name
		FROM information_schema.table_constraints AS tc
		JOIN information_schema.key_column_usage AS kcu
			ON tc.constraint_name = kcu.constraint_name
			AND tc.table_schema = kcu.table_schema
		JOIN information_schema.constraint_column_usage AS ccu
			ON ccu.constraint_name = tc.constraint_name
			AND ccu.table_schema = tc.table_schema
		WHERE tc.constraint_type = 'FOREIGN KEY'
			AND tc.table_schema = current_schema()
			AND tc.table_name = ?
		ORDER BY kcu.ordinal_position
	`
	if e.client.dialect == MySQL {
		query = `
			SELECT column_name, referenced_table_name, referenced_column_name
			FROM information_schema.key_column_usage
			WHERE table_schema = DATABASE()
				AND table_name = ?
				AND referenced_table_name IS NOT NULL
			ORDER BY ordinal_position
		`
	}

	rows, err := e.query(ctx, query, tableName)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var relations []schema.Relation
	for rows.Next() {
		var rel schema.Relation
		if err := rows.Scan(&rel.SourceColumn, &rel.TargetTable, &rel.TargetColumn); err != nil {
			return nil, err
		}
		rel.Cardinality = "N:1"
		relations = append(relations, rel)
	}

	return relations, rows.Err()
}

func (e *InfoSchemaInspector) extractIndexes(ctx context.Context, tableName string) ([]schema.Index, error) {
	query := `
		SELECT
			i.relname AS index_name,
			ix.indisunique AS is_unique,
			string_agg(a.attname, ',' ORDER BY array_position(ix.indkey, a.attnum)) AS column_names
		FROM pg_class t
		JOIN pg_index ix ON t.oid = ix.indrelid
		JOIN pg_class i ON i.oid = ix.indexrelid
		JOIN pg_attribute a ON a.attrelid = t.oid AND a.attnum = ANY(ix.indkey)
		JOIN pg_namespace n ON n.oid = t.relnamespace
		WHERE t.relkind = 'r'
			AND n.nspname = current_schema()
			AND t.relname = ?
			AND NOT ix.indisprimary
		GROUP BY i.relname, ix.indisunique
		ORDER BY i.relname
	`
	if e.client.dialect == MySQL {
		query = `
			SELECT
				index_name,
				MIN(non_unique) = 0 AS is_unique,
				GROUP_CONCAT(column_name ORDER BY seq_in_index) AS column_names
			FROM information_schema.statistics
			WHERE table_schema = DATABASE()
				AND table_name = ?
				AND index_name <> 'PRIMARY'
			GROUP BY index_name
			ORDER BY index_name
		`
	}

	rows, err := e.query(ctx, query, tableName)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var indexes []schema.Index
	for rows.Next() {
		var idx schema.Index
		var columnList string
		if err := rows.Scan(&idx.Name, &idx.IsUnique, &columnList); err != nil {
			return nil, err
		}
		idx.Columns = splitColumns(columnList)
		indexes = append(indexes, idx)
	}

	return indexes, rows.Err()
}
