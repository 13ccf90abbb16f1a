package formatter

import (
	"encoding/json"
	"io"
	"time"

	"github.com/shopspring/decimal"

	"github.com/tordrt/ecomstats/internal/analytics"
)

// JSONFormatter writes reports as a JSON document. Each row is an object
// keyed by column name; money values are numbers with two decimals.
type JSONFormatter struct {
	writer io.Writer
}

// NewJSONFormatter creates a new JSON formatter
func NewJSONFormatter(w io.Writer) *JSONFormatter {
	return &JSONFormatter{writer: w}
}

type jsonRun struct {
	RunID       string       `json:"run_id"`
	GeneratedAt time.Time    `json:"generated_at"`
	Reports     []jsonReport `json:"reports"`
}

type jsonReport struct {
	Name    string           `json:"name"`
	Title   string           `json:"title"`
	Columns []string         `json:"columns"`
	Rows    []map[string]any `json:"rows"`
	Error   string           `json:"error,omitempty"`
}

// FormatRun writes run as indented JSON.
func (f *JSONFormatter) FormatRun(run *analytics.Run) error {
	doc := jsonRun{RunID: run.ID, GeneratedAt: run.GeneratedAt, Reports: make([]jsonReport, 0, len(run.Reports))}
	for _, report := range run.Reports {
		doc.Reports = append(doc.Reports, toJSONReport(report))
	}

	enc := json.NewEncoder(f.writer)
	enc.SetIndent("", "  ")
	return enc.Encode(doc)
}

// FormatReport writes a single report as indented JSON.
func (f *JSONFormatter) FormatReport(report analytics.Report) error {
	enc := json.NewEncoder(f.writer)
	enc.SetIndent("", "  ")
	return enc.Encode(toJSONReport(report))
}

func toJSONReport(report analytics.Report) jsonReport {
	out := jsonReport{
		Name:    report.Name,
		Title:   report.Title,
		Columns: report.Columns,
		Rows:    make([]map[string]any, 0, len(report.Rows)),
	}
	if report.Err != nil {
		out.Error = report.Err.Error()
	}
	for _, row := range report.Rows {
		obj := make(map[string]any, len(row))
		for i, v := range row {
			obj[report.Columns[i]] = jsonValue(v)
		}
		out.Rows = append(out.Rows, obj)
	}
	return out
}

func jsonValue(v any) any {
	if d, ok := v.(decimal.Decimal); ok {
		return json.Number(d.StringFixed(2))
	}
	return v
}
