package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tordrt/ecomstats"
	"github.com/tordrt/ecomstats/internal/analytics"
	"github.com/tordrt/ecomstats/internal/config"
	"github.com/tordrt/ecomstats/internal/dataset"
	"github.com/tordrt/ecomstats/internal/formatter"
	"github.com/tordrt/ecomstats/internal/loader"
	"github.com/tordrt/ecomstats/internal/observability"
)

// cli holds the resolved configuration shared by every subcommand.
type cli struct {
	cfg    config.Config
	logger *slog.Logger

	dbURL    string
	logLevel string
}

func newRootCmd() *cobra.Command {
	c := &cli{}

	root := &cobra.Command{
		Use:   "ecomstats",
		Short: "Load ecommerce datasets and run analytics reports",
		Long: `ecomstats creates the ecommerce schema in SQLite, PostgreSQL or MySQL, loads a generated
dataset (JSON or YAML) in one transaction, verifies referential integrity and prints
business analytics reports.`,
		SilenceUsage:      true,
		PersistentPreRunE: c.setup,
	}

	root.PersistentFlags().StringVarP(&c.dbURL, "db-url", "u", "", "Database URL (sqlite://, postgres://, mysql://) (default from "+config.EnvDatabaseURL+" or "+config.DefaultDatabaseURL+")")
	root.PersistentFlags().StringVar(&c.logLevel, "log-level", "", "Log level: debug, info, warn or error")

	root.AddCommand(
		c.initCmd(),
		c.loadCmd(),
		c.verifyCmd(),
		c.reportCmd(),
		c.describeCmd(),
		c.runCmd(),
	)
	return root
}

func (c *cli) setup(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if c.dbURL != "" {
		cfg.DatabaseURL = c.dbURL
	}
	if c.logLevel != "" {
		cfg.LogLevel = c.logLevel
	}

	level, err := observability.ParseLevel(cfg.LogLevel)
	if err != nil {
		return err
	}

	c.cfg = cfg
	c.logger = observability.NewLogger(cmd.ErrOrStderr(), level)
	return nil
}

func (c *cli) options() ecomstats.Options {
	return ecomstats.Options{Logger: c.logger}
}

func (c *cli) initCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Create the ecommerce tables and indexes",
		RunE: func(cmd *cobra.Command, _ []string) error {
			opts := c.options()
			if err := ecomstats.Init(cmd.Context(), c.cfg.DatabaseURL, &opts); err != nil {
				return err
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), "Schema ready.")
			return nil
		},
	}
}

type loadFlags struct {
	dataset         string
	recomputeTotals bool
	skipValidate    bool
}

func (f *loadFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.dataset, "dataset", "i", "", "Dataset file, .json or .yaml (default from "+config.EnvDataset+" or "+config.DefaultDataset+")")
	cmd.Flags().BoolVar(&f.recomputeTotals, "recompute-totals", true, "Recompute order totals from their items before loading")
	cmd.Flags().BoolVar(&f.skipValidate, "skip-validate", false, "Skip dataset validation and rely on store constraints")
}

func (c *cli) loadCmd() *cobra.Command {
	f := &loadFlags{}
	cmd := &cobra.Command{
		Use:   "load",
		Short: "Load a dataset and verify referential integrity",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.load(cmd.Context(), cmd.OutOrStdout(), f)
		},
	}
	f.register(cmd)
	return cmd
}

func (c *cli) load(ctx context.Context, w io.Writer, f *loadFlags) error {
	d, err := c.readDataset(w, f)
	if err != nil {
		return err
	}
	return c.ingest(ctx, w, d, f)
}

// readDataset reads the dataset named by f and validates it unless asked
// not to. Nothing touches the store.
func (c *cli) readDataset(w io.Writer, f *loadFlags) (*dataset.Dataset, error) {
	path := f.dataset
	if path == "" {
		path = c.cfg.Dataset
	}

	_, _ = fmt.Fprintf(w, "Loading %s...\n", path)
	d, err := dataset.ReadFile(path)
	if errors.Is(err, dataset.ErrMissingInput) {
		return nil, fmt.Errorf("%w (generate the dataset first, or point --dataset at it)", err)
	}
	if err != nil {
		return nil, err
	}

	if !f.skipValidate {
		if err := d.Validate(); err != nil {
			return nil, err
		}
	}
	return d, nil
}

func (c *cli) ingest(ctx context.Context, w io.Writer, d *dataset.Dataset, f *loadFlags) error {
	summary, err := ecomstats.LoadDataset(ctx, c.cfg.DatabaseURL, d, &ecomstats.LoadOptions{
		Options:         c.options(),
		RecomputeTotals: f.recomputeTotals,
		// Validated by readDataset.
		SkipValidation: true,
	})
	if err != nil {
		return fmt.Errorf("data ingestion failed: %w", err)
	}

	for _, stats := range summary.Result.Tables {
		_, _ = fmt.Fprintf(w, "- %s: %d inserted, %d replaced\n", stats.Table, stats.Inserted, stats.Replaced)
	}
	_, _ = fmt.Fprintln(w, "Data ingestion completed successfully!")
	_, _ = fmt.Fprintln(w)

	return printVerification(w, summary.Verification)
}

func printVerification(w io.Writer, v *loader.Verification) error {
	if err := formatter.NewTextFormatter(w).FormatVerification(v); err != nil {
		return err
	}
	if !v.OK() {
		return fmt.Errorf("referential integrity check failed")
	}
	return nil
}

func (c *cli) verifyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "verify",
		Short: "Count rows and check for orphaned foreign keys",
		RunE: func(cmd *cobra.Command, _ []string) error {
			opts := c.options()
			v, err := ecomstats.Verify(cmd.Context(), c.cfg.DatabaseURL, &opts)
			if err != nil {
				return err
			}
			return printVerification(cmd.OutOrStdout(), v)
		},
	}
}

type outputFlags struct {
	format     string
	outputFile string
	outputDir  string
}

func (f *outputFlags) register(cmd *cobra.Command, formats string) {
	cmd.Flags().StringVarP(&f.format, "format", "f", "", "Output format: "+formats+" (default from "+config.EnvFormat+" or "+config.DefaultFormat+")")
	cmd.Flags().StringVarP(&f.outputFile, "output", "o", "", "Output file (default: stdout)")
	cmd.Flags().StringVarP(&f.outputDir, "output-dir", "d", "", "Output directory for multi-file output")
}

// open resolves the output flags. The returned close func must be called
// once writing is done.
func (f *outputFlags) open(cfg config.Config, stdout io.Writer) (*ecomstats.OutputOptions, func(), error) {
	if f.outputDir != "" && f.outputFile != "" {
		return nil, nil, fmt.Errorf("cannot use both --output-dir and --output flags")
	}

	format := f.format
	if format == "" {
		format = cfg.Format
	}
	if _, err := formatter.ParseFormat(format); err != nil {
		return nil, nil, err
	}

	opts := &ecomstats.OutputOptions{Writer: stdout, OutputDir: f.outputDir, Format: format}
	if f.outputFile == "" {
		return opts, func() {}, nil
	}

	file, err := os.Create(f.outputFile)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create output file: %w", err)
	}
	opts.Writer = file
	return opts, func() {
		if err := file.Close(); err != nil {
			fmt.Fprintf(os.Stderr, "warning: failed to close output file: %v\n", err)
		}
	}, nil
}

type reportFlags struct {
	outputFlags
	only string
}

func (f *reportFlags) register(cmd *cobra.Command) {
	f.outputFlags.register(cmd, "text, markdown, json or pdf")
	cmd.Flags().StringVar(&f.only, "only", "", "Run only these reports (comma-separated): "+strings.Join(analytics.Names(), ", "))
}

func (c *cli) reportCmd() *cobra.Command {
	f := &reportFlags{}
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Run the analytics reports",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.report(cmd.Context(), cmd.OutOrStdout(), f)
		},
	}
	f.register(cmd)
	return cmd
}

func (c *cli) report(ctx context.Context, w io.Writer, f *reportFlags) error {
	outOpts, closeOutput, err := f.open(c.cfg, w)
	if err != nil {
		return err
	}
	defer closeOutput()

	run, err := ecomstats.Report(ctx, c.cfg.DatabaseURL, &ecomstats.ReportOptions{
		Options: c.options(),
		Reports: splitList(f.only),
	}, outOpts)
	if run != nil && len(run.Failed()) > 0 {
		return fmt.Errorf("%d of %d reports failed: %w", len(run.Failed()), len(run.Reports), err)
	}
	return err
}

func (c *cli) describeCmd() *cobra.Command {
	f := &outputFlags{}
	var tables, exclude string
	cmd := &cobra.Command{
		Use:   "describe",
		Short: "Print the live schema of the store",
		RunE: func(cmd *cobra.Command, _ []string) error {
			outOpts, closeOutput, err := f.open(c.cfg, cmd.OutOrStdout())
			if err != nil {
				return err
			}
			defer closeOutput()

			return ecomstats.Describe(cmd.Context(), c.cfg.DatabaseURL, &ecomstats.DescribeOptions{
				Tables:        splitList(tables),
				ExcludeTables: splitList(exclude),
			}, outOpts)
		},
	}
	f.register(cmd, "text or markdown")
	cmd.Flags().StringVarP(&tables, "tables", "t", "", "Specific tables (comma-separated, optional)")
	cmd.Flags().StringVarP(&exclude, "exclude", "x", "", "Tables to leave out (comma-separated, optional)")
	return cmd
}

func (c *cli) runCmd() *cobra.Command {
	lf := &loadFlags{}
	rf := &reportFlags{}
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Read the dataset, then initialize, load, verify and report in one go",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			w := cmd.OutOrStdout()

			_, _ = fmt.Fprintln(w, "ECOMMERCE DATA EXERCISE - COMPLETE WORKFLOW")

			var d *dataset.Dataset
			steps := []struct {
				description string
				run         func() error
			}{
				{"Reading dataset", func() (err error) {
					d, err = c.readDataset(w, lf)
					return err
				}},
				{"Initializing database schema", func() error {
					opts := c.options()
					return ecomstats.Init(ctx, c.cfg.DatabaseURL, &opts)
				}},
				{"Ingesting data into database", func() error { return c.ingest(ctx, w, d, lf) }},
				{"Running analytics queries", func() error { return c.report(ctx, w, rf) }},
			}

			for _, step := range steps {
				printStep(w, step.description)
				if err := step.run(); err != nil {
					return fmt.Errorf("%s failed, stopping: %w", strings.ToLower(step.description), err)
				}
			}

			rule := strings.Repeat("=", 60)
			_, _ = fmt.Fprintf(w, "\n%s\nEXERCISE COMPLETED SUCCESSFULLY!\n%s\n", rule, rule)
			return nil
		},
	}
	lf.register(cmd)
	rf.register(cmd)
	return cmd
}

func printStep(w io.Writer, description string) {
	rule := strings.Repeat("=", 60)
	_, _ = fmt.Fprintf(w, "\n%s\nSTEP: %s\n%s\n", rule, description, rule)
}

func splitList(s string) []string {
	if s == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func main() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}
