package observability

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// TracerName is the instrumentation name reported on every span.
const TracerName = "github.com/tordrt/ecomstats"

// Attribute keys.
const (
	AttrRunID    = "ecomstats.run_id"
	AttrTable    = "ecomstats.table"
	AttrRows     = "ecomstats.rows"
	AttrReport   = "ecomstats.report"
	AttrDialect  = "db.system"
	AttrDataset  = "ecomstats.dataset.fingerprint"
	AttrOrphans  = "ecomstats.orphans"
	AttrReplaced = "ecomstats.replaced"
)

// Tracer wraps an OpenTelemetry tracer with the spans this module emits.
type Tracer struct {
	tracer trace.Tracer
}

// NewTracer creates a Tracer from tp. A nil tp uses the global provider,
// which is a no-op unless the application installs one.
func NewTracer(tp trace.TracerProvider) *Tracer {
	if tp == nil {
		tp = otel.GetTracerProvider()
	}
	return &Tracer{tracer: tp.Tracer(TracerName)}
}

// StartSpan starts a new span with the given name and attributes.
func (t *Tracer) StartSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return t.tracer.Start(ctx, name, trace.WithAttributes(attrs...))
}

// End records err on span, if any, and ends it.
func End(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}

func RunIDAttr(id string) attribute.KeyValue { return attribute.String(AttrRunID, id) }

func TableAttr(table string) attribute.KeyValue { return attribute.String(AttrTable, table) }

func RowsAttr(n int) attribute.KeyValue { return attribute.Int(AttrRows, n) }

func ReportAttr(name string) attribute.KeyValue { return attribute.String(AttrReport, name) }

func DialectAttr(dialect string) attribute.KeyValue { return attribute.String(AttrDialect, dialect) }

func DatasetAttr(fingerprint uint64) attribute.KeyValue {
	return attribute.String(AttrDataset, fmt.Sprintf("%016x", fingerprint))
}

func OrphansAttr(n int) attribute.KeyValue { return attribute.Int(AttrOrphans, n) }

func ReplacedAttr(n int) attribute.KeyValue { return attribute.Int(AttrReplaced, n) }
