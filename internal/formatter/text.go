package formatter

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/tordrt/ecomstats/internal/analytics"
	"github.com/tordrt/ecomstats/internal/loader"
	"github.com/tordrt/ecomstats/internal/schema"
)

const rule = "============================================================"

// TextFormatter formats schemas, verifications and reports as plain text
type TextFormatter struct {
	writer io.Writer
}

// NewTextFormatter creates a new text formatter
func NewTextFormatter(w io.Writer) *TextFormatter {
	return &TextFormatter{writer: w}
}

// Format writes the schema in compact text format
func (f *TextFormatter) Format(s *schema.Schema) error {
	for i, table := range s.Tables {
		if i > 0 {
			_, _ = fmt.Fprintln(f.writer) // Blank line between tables
		}

		f.formatTable(table)
	}
	return nil
}

func (f *TextFormatter) formatTable(table schema.Table) {
	pkStr := ""
	if len(table.PrimaryKey) > 0 {
		pkStr = fmt.Sprintf(" (PK: %s)", strings.Join(table.PrimaryKey, ", "))
	}
	_, _ = fmt.Fprintf(f.writer, "TABLE %s%s\n", table.Name, pkStr)

	for _, col := range table.Columns {
		_, _ = fmt.Fprintf(f.writer, "  %s\n", f.formatColumn(col))
	}

	if len(table.Relations) > 0 {
		_, _ = fmt.Fprintln(f.writer)
		_, _ = fmt.Fprintln(f.writer, "  RELATIONS:")
		for _, rel := range table.Relations {
			_, _ = fmt.Fprintf(f.writer, "    %s → %s.%s (%s)\n", rel.SourceColumn, rel.TargetTable, rel.TargetColumn, rel.Cardinality)
		}
	}

	if len(table.Indexes) > 0 {
		_, _ = fmt.Fprintln(f.writer)
		_, _ = fmt.Fprintln(f.writer, "  INDEXES:")
		for _, idx := range table.Indexes {
			unique := ""
			if idx.IsUnique {
				unique = " UNIQUE"
			}
			_, _ = fmt.Fprintf(f.writer, "    %s (%s)%s\n", idx.Name, strings.Join(idx.Columns, ", "), unique)
		}
	}
}

func (f *TextFormatter) formatColumn(col schema.Column) string {
	parts := []string{col.Name + ":", columnType(col)}

	if col.IsUnique {
		parts = append(parts, "UNIQUE")
	}
	if !col.Nullable {
		parts = append(parts, "NOT NULL")
	}
	if col.DefaultValue != nil {
		parts = append(parts, fmt.Sprintf("DEFAULT %s", *col.DefaultValue))
	}
	if col.CheckConstraint != nil {
		parts = append(parts, fmt.Sprintf("CHECK(%s)", *col.CheckConstraint))
	}

	return strings.Join(parts, " ")
}

// columnType prefers the engine's reported type and appends enum values.
func columnType(col schema.Column) string {
	typeStr := col.Type
	if typeStr == "" {
		typeStr = kindName(col.Kind)
	}
	if len(col.EnumValues) > 0 {
		typeStr = fmt.Sprintf("%s (%s)", typeStr, strings.Join(col.EnumValues, "|"))
	}
	return typeStr
}

func kindName(k schema.Kind) string {
	switch k {
	case schema.KindInteger:
		return "integer"
	case schema.KindVarchar:
		return "varchar"
	case schema.KindText:
		return "text"
	case schema.KindDecimal:
		return "decimal"
	case schema.KindDate:
		return "date"
	default:
		return "unknown"
	}
}

// FormatVerification writes row counts and orphan checks of a load.
func (f *TextFormatter) FormatVerification(v *loader.Verification) error {
	_, _ = fmt.Fprintln(f.writer, "Data verification:")
	for _, c := range v.Counts {
		_, _ = fmt.Fprintf(f.writer, "- %s: %d records\n", c.Table, c.Rows)
	}

	_, _ = fmt.Fprintln(f.writer)
	_, _ = fmt.Fprintln(f.writer, "Data integrity check:")
	for _, o := range v.Orphans {
		_, _ = fmt.Fprintf(f.writer, "- Orphaned %s.%s (→ %s.%s): %d\n", o.Table, o.Column, o.TargetTable, o.TargetColumn, o.Orphans)
	}
	return nil
}

// FormatRun writes every report of run as an aligned table.
func (f *TextFormatter) FormatRun(run *analytics.Run) error {
	_, _ = fmt.Fprintln(f.writer, "ECOMMERCE DATABASE ANALYTICS REPORT")
	_, _ = fmt.Fprintf(f.writer, "Generated on: %s\n", run.GeneratedAt.Format(generatedLayout))

	for _, report := range run.Reports {
		_, _ = fmt.Fprintln(f.writer)
		if err := f.FormatReport(report); err != nil {
			return err
		}
	}

	_, _ = fmt.Fprintln(f.writer)
	_, _ = fmt.Fprintln(f.writer, rule)
	_, _ = fmt.Fprintln(f.writer, "ANALYTICS REPORT COMPLETED")
	_, _ = fmt.Fprintln(f.writer, rule)
	return nil
}

// FormatReport writes a single report.
func (f *TextFormatter) FormatReport(report analytics.Report) error {
	_, _ = fmt.Fprintln(f.writer, rule)
	_, _ = fmt.Fprintf(f.writer, "QUERY: %s\n", report.Title)
	_, _ = fmt.Fprintln(f.writer, rule)

	if report.Err != nil {
		_, _ = fmt.Fprintf(f.writer, "Error executing query: %v\n", report.Err)
		return nil
	}

	_, _ = fmt.Fprintln(f.writer, "RESULTS:")
	tw := tabwriter.NewWriter(f.writer, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, strings.Join(report.Columns, "\t")+"\t")
	for _, row := range report.Rows {
		cells := make([]string, len(row))
		for i, v := range row {
			cells[i] = cell(v)
		}
		_, _ = fmt.Fprintln(tw, strings.Join(cells, "\t")+"\t")
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	_, _ = fmt.Fprintf(f.writer, "\nRows returned: %d\n", len(report.Rows))
	return nil
}
