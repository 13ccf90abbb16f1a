package loader

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/tordrt/ecomstats/internal/db"
)

// upserter replaces a row by primary key: it looks the id up, then updates
// the existing row or inserts a new one. The first column is the key.
type upserter struct {
	table   string
	columns []string

	exists *sql.Stmt
	update *sql.Stmt
	insert *sql.Stmt
}

func prepareUpserter(ctx context.Context, tx *sql.Tx, dialect db.Dialect, table string, columns []string) (*upserter, error) {
	key := columns[0]
	rest := columns[1:]

	sets := make([]string, len(rest))
	for i, col := range rest {
		sets[i] = col + " = ?"
	}
	marks := strings.TrimSuffix(strings.Repeat("?, ", len(columns)), ", ")

	u := &upserter{table: table, columns: columns}

	var err error
	u.exists, err = tx.PrepareContext(ctx, dialect.Rebind(fmt.Sprintf("SELECT COUNT(*) FROM %s WHERE %s = ?", table, key)))
	if err != nil {
		return nil, err
	}
	u.update, err = tx.PrepareContext(ctx, dialect.Rebind(fmt.Sprintf("UPDATE %s SET %s WHERE %s = ?", table, strings.Join(sets, ", "), key)))
	if err != nil {
		u.close()
		return nil, err
	}
	u.insert, err = tx.PrepareContext(ctx, dialect.Rebind(fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)", table, strings.Join(columns, ", "), marks)))
	if err != nil {
		u.close()
		return nil, err
	}

	return u, nil
}

// apply writes values (in column order) and reports whether an existing row
// was replaced.
func (u *upserter) apply(ctx context.Context, values []any) (bool, error) {
	if len(values) != len(u.columns) {
		return false, fmt.Errorf("%s: got %d values for %d columns", u.table, len(values), len(u.columns))
	}

	var count int
	if err := u.exists.QueryRowContext(ctx, values[0]).Scan(&count); err != nil {
		return false, err
	}

	if count > 0 {
		args := append(append([]any{}, values[1:]...), values[0])
		if _, err := u.update.ExecContext(ctx, args...); err != nil {
			return false, db.WrapConstraint(err)
		}
		return true, nil
	}

	if _, err := u.insert.ExecContext(ctx, values...); err != nil {
		return false, db.WrapConstraint(err)
	}
	return false, nil
}

func (u *upserter) close() {
	for _, stmt := range []*sql.Stmt{u.exists, u.update, u.insert} {
		if stmt != nil {
			_ = stmt.Close()
		}
	}
}
