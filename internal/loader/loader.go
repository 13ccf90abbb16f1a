// Package loader writes a dataset into the store in one transaction and
// verifies referential integrity afterwards.
package loader

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"github.com/tordrt/ecomstats/internal/dataset"
	"github.com/tordrt/ecomstats/internal/db"
	"github.com/tordrt/ecomstats/internal/observability"
	"github.com/tordrt/ecomstats/internal/schema"
)

// Options configures a load.
type Options struct {
	// RecomputeTotals replaces every order's total_amount with the rounded
	// sum of its items before inserting.
	RecomputeTotals bool

	// Logger receives progress lines. Defaults to slog.Default().
	Logger *slog.Logger

	// Tracer records spans. Defaults to the global OpenTelemetry provider.
	Tracer *observability.Tracer
}

// Loader loads datasets into a store.
type Loader struct {
	client *db.Client
	opts   Options
	logger *slog.Logger
	tracer *observability.Tracer
}

// TableStats counts the rows written to one table.
type TableStats struct {
	Table    string
	Inserted int
	Replaced int
}

// Result describes a committed load.
type Result struct {
	RunID  string
	Tables []TableStats
}

// New creates a Loader writing through client.
func New(client *db.Client, opts Options) *Loader {
	tracer := opts.Tracer
	if tracer == nil {
		tracer = observability.NewTracer(nil)
	}
	return &Loader{
		client: client,
		opts:   opts,
		logger: observability.LoggerOrDefault(opts.Logger),
		tracer: tracer,
	}
}

// Load upserts every record of d, in dependency order, inside a single
// transaction. Any failure rolls the whole load back; constraint failures
// match db.ErrConstraintViolation. d is never modified: recomputed totals
// are applied to a copy of its orders.
func (l *Loader) Load(ctx context.Context, d *dataset.Dataset) (result *Result, err error) {
	runID := observability.NewRunID()
	logger := l.logger.With("run_id", runID)

	ctx, span := l.tracer.StartSpan(ctx, "loader.load",
		observability.RunIDAttr(runID),
		observability.DialectAttr(string(l.client.Dialect())),
	)
	defer func() { observability.End(span, err) }()

	span.SetAttributes(observability.DatasetAttr(d.Fingerprint))

	if l.opts.RecomputeTotals {
		recomputed := *d
		recomputed.Orders = slices.Clone(d.Orders)
		recomputed.RecomputeTotals()
		d = &recomputed
	}

	counts := d.Counts()
	attrs := []any{"fingerprint", fmt.Sprintf("%016x", d.Fingerprint)}
	for _, table := range schema.LoadOrder {
		attrs = append(attrs, table, counts[table])
	}
	logger.Info("loading dataset", attrs...)

	tx, err := l.client.GetDB().BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	committed := false
	defer func() {
		if committed {
			return
		}
		if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			logger.Warn("rollback failed", "error", rbErr)
		} else {
			logger.Warn("load rolled back")
		}
	}()

	result = &Result{RunID: runID}
	declared := schema.Ecommerce()
	for _, tableName := range schema.LoadOrder {
		stats, err := l.loadTable(ctx, tx, declared.Table(tableName), tableRows(d, tableName))
		if err != nil {
			return nil, err
		}
		logger.Debug("table loaded", "table", stats.Table, "inserted", stats.Inserted, "replaced", stats.Replaced)
		result.Tables = append(result.Tables, stats)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit load: %w", db.WrapConstraint(err))
	}
	committed = true

	logger.Info("dataset loaded")
	return result, nil
}

func (l *Loader) loadTable(ctx context.Context, tx *sql.Tx, table *schema.Table, rows [][]any) (stats TableStats, err error) {
	stats.Table = table.Name

	ctx, span := l.tracer.StartSpan(ctx, "loader.table", observability.TableAttr(table.Name), observability.RowsAttr(len(rows)))
	defer func() { observability.End(span, err) }()

	up, err := prepareUpserter(ctx, tx, l.client.Dialect(), table.Name, table.ColumnNames())
	if err != nil {
		return stats, fmt.Errorf("failed to prepare %s statements: %w", table.Name, err)
	}
	defer up.close()

	for _, values := range rows {
		replaced, err := up.apply(ctx, values)
		if err != nil {
			return stats, fmt.Errorf("failed to upsert %s id %v: %w", table.Name, values[0], err)
		}
		if replaced {
			stats.Replaced++
		} else {
			stats.Inserted++
		}
	}

	span.SetAttributes(observability.ReplacedAttr(stats.Replaced))
	return stats, nil
}
