package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"gagyebu/internal/core"
)

func newRecordCmd(rt *runtime) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "record",
		Aliases: []string{"records", "r"},
		Short:   "Add, change, remove and list income and expense records",
	}
	cmd.AddCommand(
		newRecordAddCmd(rt),
		newRecordUpdateCmd(rt),
		newRecordDeleteCmd(rt),
		newRecordListCmd(rt),
	)
	return cmd
}

func newRecordAddCmd(rt *runtime) *cobra.Command {
	var f entryFlags
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a record",
		Example: `  gagyebu record add --type expense --category 식비 --amount 12,000 --memo 점심
  gagyebu record add -t income --category 급여 -a 3000000 -d 2024-03-25`,
		Args: cobra.NoArgs,
		RunE: rt.withApp(func(cmd *cobra.Command, app *App, _ []string) error {
			r, err := f.record(rt.today())
			if err != nil {
				return err
			}
			saved, err := app.Records.Create(cmd.Context(), r)
			if err != nil {
				return err
			}
			return rt.emit(cmd, saved, func(w io.Writer) error {
				fmt.Fprintf(w, "Added record %s\n", saved.ID)
				return writeRecords(w, []core.Record{saved})
			})
		}),
	}
	f.bindRecord(cmd)
	cmd.Flags().StringVar(&f.id, "id", "", "record id (generated when empty)")
	return cmd
}

func newRecordUpdateCmd(rt *runtime) *cobra.Command {
	var f entryFlags
	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Change fields of a record; unset flags keep their value",
		Args:  cobra.ExactArgs(1),
		RunE: rt.withApp(func(cmd *cobra.Command, app *App, args []string) error {
			patch, err := f.recordPatch(cmd)
			if err != nil {
				return err
			}
			updated, err := app.Records.Update(cmd.Context(), args[0], patch)
			if err != nil {
				return err
			}
			return rt.emit(cmd, updated, func(w io.Writer) error {
				fmt.Fprintf(w, "Updated record %s\n", updated.ID)
				return writeRecords(w, []core.Record{updated})
			})
		}),
	}
	f.bindRecord(cmd)
	return cmd
}

func newRecordDeleteCmd(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:     "delete <id>...",
		Aliases: []string{"rm"},
		Short:   "Delete records; unknown ids are ignored",
		Args:    cobra.MinimumNArgs(1),
		RunE: rt.withApp(func(cmd *cobra.Command, app *App, args []string) error {
			deleted := make(map[string]bool, len(args))
			for _, id := range args {
				deleted[id] = app.Records.Delete(cmd.Context(), id)
			}
			return rt.emit(cmd, deleted, func(w io.Writer) error {
				for _, id := range args {
					if deleted[id] {
						fmt.Fprintf(w, "Deleted record %s\n", id)
					} else {
						fmt.Fprintf(w, "No record %s\n", id)
					}
				}
				return nil
			})
		}),
	}
}

func newRecordListCmd(rt *runtime) *cobra.Command {
	var vf viewFlags
	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List the records of a period, newest first, with totals",
		Example: `  gagyebu record list --view month --date 2024-03-01
  gagyebu record list --view range --from 2024-01-01 --to 2024-03-31 --type expense`,
		Args: cobra.NoArgs,
		RunE: rt.withApp(func(cmd *cobra.Command, app *App, _ []string) error {
			p, err := vf.params(rt.today())
			if err != nil {
				return err
			}
			view, err := app.Records.View(p, rt.today())
			if err != nil {
				return err
			}
			return rt.emit(cmd, view, func(w io.Writer) error {
				return writeView(w, view, true)
			})
		}),
	}
	vf.bind(cmd)
	return cmd
}
