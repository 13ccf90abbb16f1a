package formatter

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/tordrt/ecomstats/internal/analytics"
	"github.com/tordrt/ecomstats/internal/schema"
)

// MultiFileFormatter writes one file per table or report into a directory,
// plus an overview file.
type MultiFileFormatter struct {
	OutputDir    string
	OutputFormat Format
}

// NewMultiFileFormatter creates a new multi-file formatter
func NewMultiFileFormatter(outputDir string, format Format) *MultiFileFormatter {
	return &MultiFileFormatter{
		OutputDir:    outputDir,
		OutputFormat: format,
	}
}

// Format writes the schema to multiple files
func (f *MultiFileFormatter) Format(s *schema.Schema) error {
	if f.OutputFormat != FormatText && f.OutputFormat != FormatMarkdown {
		return fmt.Errorf("unsupported schema format: %s (must be 'text' or 'markdown')", f.OutputFormat)
	}

	if err := os.MkdirAll(f.OutputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	if err := f.writeSchemaOverview(s); err != nil {
		return fmt.Errorf("failed to write overview: %w", err)
	}

	for _, table := range s.Tables {
		if err := f.writeTableFile(table, s); err != nil {
			return fmt.Errorf("failed to write table file for %s: %w", table.Name, err)
		}
	}

	return nil
}

func (f *MultiFileFormatter) writeSchemaOverview(s *schema.Schema) error {
	file, err := os.Create(filepath.Join(f.OutputDir, "_overview"+f.OutputFormat.Extension()))
	if err != nil {
		return err
	}
	defer func() { _ = file.Close() }()

	if f.OutputFormat == FormatMarkdown {
		_, _ = fmt.Fprintf(file, "# Schema Overview\n\n")
		_, _ = fmt.Fprintf(file, "Each table has a corresponding file: `<table_name>%s`\n\n", f.OutputFormat.Extension())
		_, _ = fmt.Fprintf(file, "## Tables\n\n")
	} else {
		_, _ = fmt.Fprintf(file, "SCHEMA OVERVIEW\n")
		_, _ = fmt.Fprintf(file, "Each table has a file: <table_name>%s\n\n", f.OutputFormat.Extension())
	}

	sortedTables := make([]schema.Table, len(s.Tables))
	copy(sortedTables, s.Tables)
	sort.Slice(sortedTables, func(i, j int) bool {
		return sortedTables[i].Name < sortedTables[j].Name
	})

	for _, table := range sortedTables {
		if f.OutputFormat == FormatMarkdown {
			_, _ = fmt.Fprintf(file, "- **%s**", table.Name)
		} else {
			_, _ = fmt.Fprintf(file, "%s", table.Name)
		}

		if len(table.Relations) > 0 {
			var targets []string
			for _, rel := range table.Relations {
				targets = append(targets, rel.TargetTable)
			}
			_, _ = fmt.Fprintf(file, " (references: %s)", strings.Join(targets, ", "))
		}
		_, _ = fmt.Fprintln(file)
	}

	return nil
}

func (f *MultiFileFormatter) writeTableFile(table schema.Table, s *schema.Schema) error {
	file, err := os.Create(filepath.Join(f.OutputDir, table.Name+f.OutputFormat.Extension()))
	if err != nil {
		return err
	}
	defer func() { _ = file.Close() }()

	incoming := findIncomingRelations(table.Name, s)

	if f.OutputFormat == FormatMarkdown {
		NewMarkdownFormatter(file).FormatTable(table)
		if len(incoming) > 0 {
			_, _ = fmt.Fprintf(file, "### Referenced by\n\n")
			for _, rel := range incoming {
				_, _ = fmt.Fprintf(file, "- %s.%s → %s\n", rel.SourceTable, rel.SourceColumn, rel.TargetColumn)
			}
			_, _ = fmt.Fprintln(file)
		}
		return nil
	}

	NewTextFormatter(file).formatTable(table)
	if len(incoming) > 0 {
		_, _ = fmt.Fprintln(file)
		_, _ = fmt.Fprintln(file, "  REFERENCED BY:")
		for _, rel := range incoming {
			_, _ = fmt.Fprintf(file, "    %s.%s → %s\n", rel.SourceTable, rel.SourceColumn, rel.TargetColumn)
		}
	}
	return nil
}

// IncomingRelation represents a relationship pointing to a table
type IncomingRelation struct {
	SourceTable  string
	SourceColumn string
	TargetTable  string
	TargetColumn string
	Cardinality  string
}

// findIncomingRelations finds all foreign keys pointing to tableName
func findIncomingRelations(tableName string, s *schema.Schema) []IncomingRelation {
	var incoming []IncomingRelation

	for _, table := range s.Tables {
		for _, rel := range table.Relations {
			if rel.TargetTable == tableName {
				incoming = append(incoming, IncomingRelation{
					SourceTable:  table.Name,
					SourceColumn: rel.SourceColumn,
					TargetTable:  rel.TargetTable,
					TargetColumn: rel.TargetColumn,
					Cardinality:  rel.Cardinality,
				})
			}
		}
	}

	return incoming
}

// FormatRun writes each report to <name><ext> and a _overview file listing
// them with their row counts. The PDF overview is written as text.
func (f *MultiFileFormatter) FormatRun(run *analytics.Run) error {
	if err := os.MkdirAll(f.OutputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	if err := f.writeRunOverview(run); err != nil {
		return fmt.Errorf("failed to write overview: %w", err)
	}

	for _, report := range run.Reports {
		if err := f.writeReportFile(report); err != nil {
			return fmt.Errorf("failed to write report file for %s: %w", report.Name, err)
		}
	}

	return nil
}

func (f *MultiFileFormatter) writeRunOverview(run *analytics.Run) error {
	ext := f.OutputFormat.Extension()
	if f.OutputFormat == FormatPDF || f.OutputFormat == FormatJSON {
		ext = FormatText.Extension()
	}

	file, err := os.Create(filepath.Join(f.OutputDir, "_overview"+ext))
	if err != nil {
		return err
	}
	defer func() { _ = file.Close() }()

	if f.OutputFormat == FormatMarkdown {
		_, _ = fmt.Fprintf(file, "# Analytics Overview\n\n")
		_, _ = fmt.Fprintf(file, "Generated on %s (run `%s`)\n\n", run.GeneratedAt.Format(generatedLayout), run.ID)
	} else {
		_, _ = fmt.Fprintf(file, "ANALYTICS OVERVIEW\n")
		_, _ = fmt.Fprintf(file, "Generated on: %s\nRun: %s\n\n", run.GeneratedAt.Format(generatedLayout), run.ID)
	}

	for _, report := range run.Reports {
		status := fmt.Sprintf("%d rows", len(report.Rows))
		if report.Err != nil {
			status = "failed: " + report.Err.Error()
		}
		filename := report.Name + f.OutputFormat.Extension()
		if f.OutputFormat == FormatMarkdown {
			_, _ = fmt.Fprintf(file, "- [%s](%s): %s\n", report.Title, filename, status)
		} else {
			_, _ = fmt.Fprintf(file, "%s (%s): %s\n", filename, report.Title, status)
		}
	}

	return nil
}

func (f *MultiFileFormatter) writeReportFile(report analytics.Report) error {
	file, err := os.Create(filepath.Join(f.OutputDir, report.Name+f.OutputFormat.Extension()))
	if err != nil {
		return err
	}
	defer func() { _ = file.Close() }()

	switch f.OutputFormat {
	case FormatMarkdown:
		NewMarkdownFormatter(file).FormatReport(report)
		return nil
	case FormatJSON:
		return NewJSONFormatter(file).FormatReport(report)
	case FormatPDF:
		return NewPDFFormatter(file).FormatReport(report)
	default:
		return NewTextFormatter(file).FormatReport(report)
	}
}
