// Package formatter renders schemas, load verifications and analytics runs
// as text, markdown, JSON or PDF.
package formatter

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/tordrt/ecomstats/internal/analytics"
	"github.com/tordrt/ecomstats/internal/schema"
)

// Format names an output format.
type Format string

const (
	FormatText     Format = "text"
	FormatMarkdown Format = "markdown"
	FormatJSON     Format = "json"
	FormatPDF      Format = "pdf"
)

// ParseFormat validates an output format name.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(s)); f {
	case FormatText, FormatMarkdown, FormatJSON, FormatPDF:
		return f, nil
	case "md":
		return FormatMarkdown, nil
	default:
		return "", fmt.Errorf("invalid format: %s (must be 'text', 'markdown', 'json' or 'pdf')", s)
	}
}

// Extension returns the file extension used for f.
func (f Format) Extension() string {
	switch f {
	case FormatMarkdown:
		return ".md"
	case FormatJSON:
		return ".json"
	case FormatPDF:
		return ".pdf"
	default:
		return ".txt"
	}
}

// RunFormatter renders an analytics run.
type RunFormatter interface {
	FormatRun(run *analytics.Run) error
}

// SchemaFormatter renders a schema.
type SchemaFormatter interface {
	Format(s *schema.Schema) error
}

// NewRunFormatter returns the run formatter for format writing to w.
func NewRunFormatter(w io.Writer, format Format) (RunFormatter, error) {
	switch format {
	case FormatText:
		return NewTextFormatter(w), nil
	case FormatMarkdown:
		return NewMarkdownFormatter(w), nil
	case FormatJSON:
		return NewJSONFormatter(w), nil
	case FormatPDF:
		return NewPDFFormatter(w), nil
	default:
		return nil, fmt.Errorf("unsupported report format: %s", format)
	}
}

// NewSchemaFormatter returns the schema formatter for format writing to w.
// Schemas render as text or markdown only.
func NewSchemaFormatter(w io.Writer, format Format) (SchemaFormatter, error) {
	switch format {
	case FormatText:
		return NewTextFormatter(w), nil
	case FormatMarkdown:
		return NewMarkdownFormatter(w), nil
	default:
		return nil, fmt.Errorf("unsupported schema format: %s (must be 'text' or 'markdown')", format)
	}
}

// cell renders one report value for display.
func cell(v any) string {
	switch v := v.(type) {
	case nil:
		return "NULL"
	case string:
		return v
	case int64:
		return strconv.FormatInt(v, 10)
	case int:
		return strconv.Itoa(v)
	case decimal.Decimal:
		return v.StringFixed(2)
	default:
		return fmt.Sprint(v)
	}
}

// numeric reports whether v is right-aligned in tables.
func numeric(v any) bool {
	switch v.(type) {
	case int64, int, decimal.Decimal:
		return true
	default:
		return false
	}
}

const generatedLayout = "2006-01-02 15:04:05"
