package db

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/tordrt/ecomstats/internal/schema"
)

// SQLiteInspector reads schema metadata through SQLite PRAGMAs
type SQLiteInspector struct {
	client *Client
}

// Inspect extracts the schema for the specified tables
// If tables is empty, extracts all tables in the database
func (e *SQLiteInspector) Inspect(ctx context.Context, tables []string) (*schema.Schema, error) {
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

// IndexExists checks sqlite_master for a named index
func (e *SQLiteInspector) IndexExists(ctx context.Context, table, index string) (bool, error) {
	var count int
	err := e.client.GetDB().QueryRowContext(ctx,
		"SELECT COUNT(*) FROM sqlite_master WHERE type = 'index' AND tbl_name = ? AND name = ?",
		table, index,
	).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// getTableNames returns the list of tables to extract
func (e *SQLiteInspector) getTableNames(ctx context.Context, requestedTables []string) ([]string, error) {
	if len(requestedTables) > 0 {
		return requestedTables, nil
	}

	query := `
		SELECT name
		FROM sqlite_master
		WHERE type = 'table' AND name NOT LIKE 'sqlite_%'
		ORDER BY name
	`

	rows, err := e.client.GetDB().QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tableList []string
	for rows.Next() {
		var tableName string
		if err := rows.Scan(&tableName); err != nil {
			return nil, err
		}
		tableList = append(tableList, tableName)
	}

	return tableList, rows.Err()
}

func (e *SQLiteInspector) extractTable(ctx context.Context, tableName string) (*schema.Table, error) {
	table := &schema.Table{Name: tableName}

	columns, pk, err := e.extractColumns(ctx, tableName)
	if err != nil {
		return nil, fmt.Errorf("failed to extract columns: %w", err)
	}
	table.Columns = columns
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

	// Auto-indexes back UNIQUE constraints; they mark columns but are not listed.
	table.Indexes = indexes
	markUniqueColumns(table)
	listed := table.Indexes[:0]
	for _, idx := range table.Indexes {
		if !strings.HasPrefix(idx.Name, "sqlite_autoindex") {
			listed = append(listed, idx)
		}
	}
	table.Indexes = listed

	return table, nil
}

// extractColumns reads PRAGMA table_info, returning columns and primary key
func (e *SQLiteInspector) extractColumns(ctx context.Context, tableName string) ([]schema.Column, []string, error) {
	query := fmt.Sprintf("PRAGMA table_info(%q)", tableName)

	rows, err := e.client.GetDB().QueryContext(ctx, query)
	if err != nil {
		return nil, nil, err
	}
	defer rows.Close()

	var columns []schema.Column
	var pkColumns []string

	for rows.Next() {
		var cid int
		var name, colType string
		var notNull, pk int
		var defaultValue sql.NullString

		if err := rows.Scan(&cid, &name, &colType, &notNull, &defaultValue, &pk); err != nil {
			return nil, nil, err
		}

		col := schema.Column{
			Name:     name,
			Type:     colType,
			Nullable: notNull == 0 && pk == 0,
		}
		if defaultValue.Valid {
			col.DefaultValue = &defaultValue.String
		}
		if pk > 0 {
			pkColumns = append(pkColumns, name)
		}

		columns = append(columns, col)
	}

	return columns, pkColumns, rows.Err()
}

// extractRelations reads PRAGMA foreign_key_list
func (e *SQLiteInspector) extractRelations(ctx context.Context, tableName string) ([]schema.Relation, error) {
	query := fmt.Sprintf("PRAGMA foreign_key_list(%q)", tableName)

	rows, err := e.client.GetDB().QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var relations []schema.Relation

	for rows.Next() {
		var id, seq int
		var targetTable, fromCol, toCol, onUpdate, onDelete, match string

		if err := rows.Scan(&id, &seq, &targetTable, &fromCol, &toCol, &onUpdate, &onDelete, &match); err != nil {
			return nil, err
		}

		relations = append(relations, schema.Relation{
			SourceColumn: fromCol,
			TargetTable:  targetTable,
			TargetColumn: toCol,
			Cardinality:  "N:1",
		})
	}

	return relations, rows.Err()
}

type sqliteIndex struct {
	name   string
	unique bool
}

// extractIndexes reads PRAGMA index_list and index_info
func (e *SQLiteInspector) extractIndexes(ctx context.Context, tableName string) ([]schema.Index, error) {
	listed, err := e.listIndexes(ctx, tableName)
	if err != nil {
		return nil, err
	}

	var indexes []schema.Index
	for _, li := range listed {
		columns, err := e.indexColumns(ctx, li.name)
		if err != nil {
			return nil, err
		}
		if len(columns) > 0 {
			indexes = append(indexes, schema.Index{
				Name:     li.name,
				IsUnique: li.unique,
				Columns:  columns,
			})
		}
	}

	return indexes, nil
}

func (e *SQLiteInspector) listIndexes(ctx context.Context, tableName string) ([]sqliteIndex, error) {
	rows, err := e.client.GetDB().QueryContext(ctx, fmt.Sprintf("PRAGMA index_list(%q)", tableName))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var listed []sqliteIndex
	for rows.Next() {
		var seq int
		var name, origin string
		var unique, partial int

		if err := rows.Scan(&seq, &name, &unique, &origin, &partial); err != nil {
			return nil, err
		}
		listed = append(listed, sqliteIndex{name: name, unique: unique == 1})
	}

	return listed, rows.Err()
}

func (e *SQLiteInspector) indexColumns(ctx context.Context, indexName string) ([]string, error) {
	rows, err := e.client.GetDB().QueryContext(ctx, fmt.Sprintf("PRAGMA index_info(%q)", indexName))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var columns []string
	for rows.Next() {
		var seqno, cid int
		var colName sql.NullString

		if err := rows.Scan(&seqno, &cid, &colName); err != nil {
			return nil, err
		}
		if colName.Valid {
			columns = append(columns, colName.String)
		}
	}

	return columns, rows.Err()
}
