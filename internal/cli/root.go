package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"gagyebu/internal/config"
	"gagyebu/internal/core"
	"gagyebu/internal/log"
	"gagyebu/internal/sheets"
)

const (
	outputTable = "table"
	outputJSON  = "json"
)

// runtime carries the state shared by every command of one invocation.
type runtime struct {
	configPath string
	output     string
	now        func() time.Time
	logOut     io.Writer
	exporter   sheets.Exporter
}

type Option func(*runtime)

// WithClock replaces time.Now when resolving "today".
func WithClock(now func() time.Time) Option {
	return func(rt *runtime) { rt.now = now }
}

// WithExporter replaces the configured Google Sheets exporter.
func WithExporter(e sheets.Exporter) Option {
	return func(rt *runtime) { rt.exporter = e }
}

// WithLogOutput sends log entries to w instead of stderr.
func WithLogOutput(w io.Writer) Option {
	return func(rt *runtime) { rt.logOut = w }
}

// NewRootCmd builds the gagyebu command tree.
func NewRootCmd(opts ...Option) *cobra.Command {
	rt := &runtime{now: time.Now, logOut: os.Stderr}
	for _, opt := range opts {
		opt(rt)
	}

	root := &cobra.Command{
		Use:   "gagyebu",
		Short: "Personal income and expense ledger",
		Long: `gagyebu records income and expenses, filters them by day, month, year
or date range, summarizes totals per category and applies recurring expenses.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if rt.output != outputTable && rt.output != outputJSON {
				return fmt.Errorf("invalid output %q: must be %s or %s", rt.output, outputTable, outputJSON)
			}
			return nil
		},
	}
	root.PersistentFlags().StringVarP(&rt.configPath, "config", "c", "", "config file or directory containing gagyebu.yaml")
	root.PersistentFlags().StringVarP(&rt.output, "output", "o", outputTable, "output format: table or json")

	root.AddCommand(
		newRecordCmd(rt),
		newSummaryCmd(rt),
		newStatsCmd(rt),
		newCategoriesCmd(rt),
		newRecurringCmd(rt),
		newExportCmd(rt),
		newServeCmd(rt),
		newWatchCmd(rt),
	)
	return root
}

// Execute runs the command tree and exits non-zero on failure.
func Execute() {
	if err := NewRootCmd().ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func (rt *runtime) today() core.Date {
	return core.Today(rt.now())
}

func (rt *runtime) loadConfig() (*config.Config, *log.Logger, error) {
	cfg, err := LoadAndValidateConfig(rt.configPath)
	if err != nil {
		return nil, nil, err
	}
	return cfg, SetupLogger(cfg.Log, rt.logOut), nil
}

type appFunc func(cmd *cobra.Command, app *App, args []string) error

// withApp bootstraps the ledger for fn and releases the backend afterwards.
func (rt *runtime) withApp(fn appFunc) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := rt.loadConfig()
		if err != nil {
			return err
		}
		app, err := Bootstrap(cmd.Context(), cfg, logger)
		if err != nil {
			return err
		}
		if rt.exporter != nil {
			app.exporter = rt.exporter
		}
		defer func() {
			if cerr := app.Close(); cerr != nil {
				logger.Warn("Failed to close backend", log.FieldError, cerr)
			}
		}()
		return fn(cmd, app, args)
	}
}

// emit writes v as indented JSON or hands the writer to table.
func (rt *runtime) emit(cmd *cobra.Command, v any, table func(io.Writer) error) error {
	out := cmd.OutOrStdout()
	if rt.output == outputJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}
	return table(out)
}
