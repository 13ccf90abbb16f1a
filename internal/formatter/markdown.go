package formatter

import (
	"fmt"
	"io"
	"strings"

	"github.com/tordrt/ecomstats/internal/analytics"
	"github.com/tordrt/ecomstats/internal/schema"
)

// MarkdownFormatter formats schemas and reports as markdown
type MarkdownFormatter struct {
	writer io.Writer
}

// NewMarkdownFormatter creates a new markdown formatter
func NewMarkdownFormatter(w io.Writer) *MarkdownFormatter {
	return &MarkdownFormatter{writer: w}
}

// Format writes the schema in markdown format
func (f *MarkdownFormatter) Format(s *schema.Schema) error {
	_, _ = fmt.Fprintln(f.writer, "# Database Schema")
	_, _ = fmt.Fprintln(f.writer)

	for _, table := range s.Tables {
		f.FormatTable(table)
	}
	return nil
}

// FormatTable writes a single table section
func (f *MarkdownFormatter) FormatTable(table schema.Table) {
	_, _ = fmt.Fprintf(f.writer, "## %s\n\n", table.Name)

	_, _ = fmt.Fprintln(f.writer, "### Columns")
	_, _ = fmt.Fprintln(f.writer)

	for _, col := range table.Columns {
		constraintStr := f.formatConstraints(col, table.PrimaryKey)
		if constraintStr != "" {
			_, _ = fmt.Fprintf(f.writer, "- **%s:** %s, %s\n", col.Name, columnType(col), constraintStr)
		} else {
			_, _ = fmt.Fprintf(f.writer, "- **%s:** %s\n", col.Name, columnType(col))
		}
	}
	_, _ = fmt.Fprintln(f.writer)

	if len(table.Relations) > 0 {
		_, _ = fmt.Fprintln(f.writer, "### References")
		_, _ = fmt.Fprintln(f.writer)
		for _, rel := range table.Relations {
			_, _ = fmt.Fprintf(f.writer, "- %s → %s.%s (%s)\n",
				rel.SourceColumn,
				rel.TargetTable,
				rel.TargetColumn,
				rel.Cardinality)
		}
		_, _ = fmt.Fprintln(f.writer)
	}

	if len(table.Indexes) > 0 {
		_, _ = fmt.Fprintln(f.writer, "### Indexes")
		_, _ = fmt.Fprintln(f.writer)
		for _, idx := range table.Indexes {
			if idx.IsUnique {
				_, _ = fmt.Fprintf(f.writer, "- %s on (%s), unique\n", idx.Name, strings.Join(idx.Columns, ", "))
			} else {
				_, _ = fmt.Fprintf(f.writer, "- %s on (%s)\n", idx.Name, strings.Join(idx.Columns, ", "))
			}
		}
		_, _ = fmt.Fprintln(f.writer)
	}
}

func (f *MarkdownFormatter) formatConstraints(col schema.Column, primaryKey []string) string {
	var constraints []string

	for _, pk := range primaryKey {
		if pk == col.Name {
			constraints = append(constraints, "PK")
			break
		}
	}

	if col.IsUnique {
		constraints = append(constraints, "UNIQUE")
	}

	if !col.Nullable {
		constraints = append(constraints, "NOT NULL")
	}

	if col.DefaultValue != nil {
		constraints = append(constraints, fmt.Sprintf("DEFAULT %s", *col.DefaultValue))
	}

	if col.CheckConstraint != nil {
		constraints = append(constraints, fmt.Sprintf("CHECK(%s)", *col.CheckConstraint))
	}

	return strings.Join(constraints, ", ")
}

// FormatRun writes every report of run as a markdown table.
func (f *MarkdownFormatter) FormatRun(run *analytics.Run) error {
	_, _ = fmt.Fprintln(f.writer, "# Ecommerce Analytics Report")
	_, _ = fmt.Fprintln(f.writer)
	_, _ = fmt.Fprintf(f.writer, "Generated on %s (run `%s`)\n\n", run.GeneratedAt.Format(generatedLayout), run.ID)

	for _, report := range run.Reports {
		f.FormatReport(report)
	}
	return nil
}

// FormatReport writes one report section.
func (f *MarkdownFormatter) FormatReport(report analytics.Report) {
	_, _ = fmt.Fprintf(f.writer, "## %s\n\n", report.Title)

	if report.Err != nil {
		_, _ = fmt.Fprintf(f.writer, "> **Error:** %s\n\n", escapeCell(report.Err.Error()))
		return
	}
	if len(report.Rows) == 0 {
		_, _ = fmt.Fprintln(f.writer, "_No rows._")
		_, _ = fmt.Fprintln(f.writer)
		return
	}

	_, _ = fmt.Fprintf(f.writer, "| %s |\n", strings.Join(report.Columns, " | "))

	aligns := make([]string, len(report.Columns))
	for i := range aligns {
		aligns[i] = "---"
		if numeric(report.Rows[0][i]) {
			aligns[i] = "---:"
		}
	}
	_, _ = fmt.Fprintf(f.writer, "| %s |\n", strings.Join(aligns, " | "))

	for _, row := range report.Rows {
		cells := make([]string, len(row))
		for i, v := range row {
			cells[i] = escapeCell(cell(v))
		}
		_, _ = fmt.Fprintf(f.writer, "| %s |\n", strings.Join(cells, " | "))
	}
	_, _ = fmt.Fprintln(f.writer)
}

func escapeCell(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}
