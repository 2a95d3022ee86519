package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"gagyebu/internal/core"
	"gagyebu/internal/query"
)

func newSummaryCmd(rt *runtime) *cobra.Command {
	var vf viewFlags
	cmd := &cobra.Command{
		Use:   "summary",
		Short: "Show income, expense and top categories of a period",
		Args:  cobra.NoArgs,
		RunE: rt.withApp(func(cmd *cobra.Command, app *App, _ []string) error {
			p, err := vf.params(rt.today())
			if err != nil {
				return err
			}
			view, err := app.Records.View(p, rt.today())
			if err != nil {
				return err
			}
			view.Records = nil
			return rt.emit(cmd, view, func(w io.Writer) error {
				return writeView(w, view, false)
			})
		}),
	}
	vf.bind(cmd)
	return cmd
}

// monthFlags select a calendar month, defaulting to the current one.
type monthFlags struct {
	year  int
	month int
}

func (f *monthFlags) bind(cmd *cobra.Command) {
	cmd.Flags().IntVar(&f.year, "year", 0, "year (default current)")
	cmd.Flags().IntVar(&f.month, "month", 0, "month 1-12 (default current)")
}

func (f *monthFlags) resolve(today core.Date) (int, int, error) {
	year, month := f.year, f.month
	if year == 0 {
		year = today.Year()
	}
	if month == 0 {
		month = int(today.Month())
	}
	if year < 1 {
		return 0, 0, fmt.Errorf("invalid year %d", year)
	}
	if month < 1 || month > 12 {
		return 0, 0, fmt.Errorf("invalid month %d: must be between 1 and 12", month)
	}
	return year, month, nil
}

func newStatsCmd(rt *runtime) *cobra.Command {
	var mf monthFlags
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show the monthly overview with the full expense breakdown",
		Args:  cobra.NoArgs,
		RunE: rt.withApp(func(cmd *cobra.Command, app *App, _ []string) error {
			year, month, err := mf.resolve(rt.today())
			if err != nil {
				return err
			}
			ov := app.Records.Stats(year, month)
			return rt.emit(cmd, ov, func(w io.Writer) error {
				return writeOverview(w, ov)
			})
		}),
	}
	mf.bind(cmd)
	return cmd
}

func newCategoriesCmd(rt *runtime) *cobra.Command {
	var typ string
	cmd := &cobra.Command{
		Use:   "categories",
		Short: "List the category labels of the active registry revision",
		Args:  cobra.NoArgs,
		RunE: rt.withApp(func(cmd *cobra.Command, app *App, _ []string) error {
			reg := app.Records.Registry()
			var labels []string
			switch t := strings.ToLower(strings.TrimSpace(typ)); t {
			case "":
				labels = reg.All()
			case "recurring":
				labels = append(labels, core.RecurringCategories...)
			default:
				recordType, err := core.ParseRecordType(t)
				if err != nil {
					return err
				}
				labels = reg.FilterOptions(recordType)
			}
			return rt.emit(cmd, labels, func(w io.Writer) error {
				fmt.Fprintf(w, "revision %s\n", reg.Revision)
				for _, l := range labels {
					fmt.Fprintln(w, l)
				}
				return nil
			})
		}),
	}
	cmd.Flags().StringVarP(&typ, "type", "t", "", "income, expense or recurring (default all record labels)")
	return cmd
}

func newExportCmd(rt *runtime) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the ledger to external services",
	}

	var mf monthFlags
	sheetsCmd := &cobra.Command{
		Use:   "sheets",
		Short: "Append a year's records and a month's overview to Google Sheets",
		Args:  cobra.NoArgs,
		RunE: rt.withApp(func(cmd *cobra.Command, app *App, _ []string) error {
			year, month, err := mf.resolve(rt.today())
			if err != nil {
				return err
			}
			exp, err := app.Exporter(cmd.Context())
			if err != nil {
				return err
			}

			records, err := app.Records.List(query.Params{Mode: query.Year, Selected: core.NewDate(year, 1, 1)})
			if err != nil {
				return err
			}
			recordsRange, err := exp.ExportRecords(cmd.Context(), year, records)
			if err != nil {
				return fmt.Errorf("export records: %w", err)
			}
			overviewRange, err := exp.ExportOverview(cmd.Context(), app.Records.Stats(year, month))
			if err != nil {
				return fmt.Errorf("export overview: %w", err)
			}

			result := map[string]any{
				"records":        len(records),
				"records_range":  recordsRange,
				"overview_range": overviewRange,
			}
			return rt.emit(cmd, result, func(w io.Writer) error {
				fmt.Fprintf(w, "Exported %d record(s) to %s\n", len(records), recordsRange)
				fmt.Fprintf(w, "Exported overview to %s\n", overviewRange)
				return nil
			})
		}),
	}
	mf.bind(sheetsCmd)
	cmd.AddCommand(sheetsCmd)
	return cmd
}
