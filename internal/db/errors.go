package db

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/mattn/go-sqlite3"
)

// ErrConstraintViolation marks an insert or update rejected by a NOT NULL,
// UNIQUE, CHECK or FOREIGN KEY constraint.
var ErrConstraintViolation = errors.New("constraint violation")

// MySQL server error numbers raised by integrity constraints.
var mysqlConstraintErrors = map[uint16]bool{
	1048: true, // column cannot be null
	1062: true, // duplicate entry
	1216: true, // no referenced row (legacy)
	1217: true, // row is referenced (legacy)
	1451: true, // row is referenced
	1452: true, // no referenced row
	3819: true, // check constraint violated
}

// IsConstraintViolation reports whether err is a driver error raised by an
// integrity constraint.
func IsConstraintViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrConstraintViolation) {
		return true
	}

	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.Code == sqlite3.ErrConstraint
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return strings.HasPrefix(pgErr.Code, "23")
	}

	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		return mysqlConstraintErrors[myErr.Number]
	}

	return false
}

// WrapConstraint tags constraint failures with ErrConstraintViolation and
// returns any other error unchanged.
func WrapConstraint(err error) error {
	if err == nil || errors.Is(err, ErrConstraintViolation) || !IsConstraintViolation(err) {
		return err
	}
	return fmt.Errorf("%w: %w", ErrConstraintViolation, err)
}
