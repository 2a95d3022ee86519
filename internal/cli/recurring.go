package cli

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"gagyebu/internal/core"
)

func newRecurringCmd(rt *runtime) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "recurring",
		Aliases: []string{"rec"},
		Short:   "Manage recurring expense templates and apply them as records",
	}
	cmd.AddCommand(
		newRecurringAddCmd(rt),
		newRecurringUpdateCmd(rt),
		newRecurringDeleteCmd(rt),
		newRecurringListCmd(rt),
		newRecurringApplyCmd(rt),
	)
	return cmd
}

func newRecurringAddCmd(rt *runtime) *cobra.Command {
	var f entryFlags
	cmd := &cobra.Command{
		Use:     "add",
		Short:   "Add a recurring expense template",
		Example: `  gagyebu recurring add --category 구독서비스 --amount 9,900 --memo 넷플릭스`,
		Args:    cobra.NoArgs,
		RunE: rt.withApp(func(cmd *cobra.Command, app *App, _ []string) error {
			re, err := f.template()
			if err != nil {
				return err
			}
			saved, err := app.Records.CreateRecurring(cmd.Context(), re)
			if err != nil {
				return err
			}
			return rt.emit(cmd, saved, func(w io.Writer) error {
				fmt.Fprintf(w, "Added recurring expense %s\n", saved.ID)
				return writeTemplates(w, []core.RecurringExpense{saved})
			})
		}),
	}
	f.bindTemplate(cmd)
	cmd.Flags().StringVar(&f.id, "id", "", "template id (generated when empty)")
	return cmd
}

func newRecurringUpdateCmd(rt *runtime) *cobra.Command {
	var f entryFlags
	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Change fields of a recurring expense template",
		Args:  cobra.ExactArgs(1),
		RunE: rt.withApp(func(cmd *cobra.Command, app *App, args []string) error {
			patch, err := f.templatePatch(cmd)
			if err != nil {
				return err
			}
			updated, err := app.Records.UpdateRecurring(cmd.Context(), args[0], patch)
			if err != nil {
				return err
			}
			return rt.emit(cmd, updated, func(w io.Writer) error {
				fmt.Fprintf(w, "Updated recurring expense %s\n", updated.ID)
				return writeTemplates(w, []core.RecurringExpense{updated})
			})
		}),
	}
	f.bindTemplate(cmd)
	return cmd
}

func newRecurringDeleteCmd(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:     "delete <id>...",
		Aliases: []string{"rm"},
		Short:   "Delete recurring expense templates; unknown ids are ignored",
		Args:    cobra.MinimumNArgs(1),
		RunE: rt.withApp(func(cmd *cobra.Command, app *App, args []string) error {
			deleted := make(map[string]bool, len(args))
			for _, id := range args {
				deleted[id] = app.Records.DeleteRecurring(cmd.Context(), id)
			}
			return rt.emit(cmd, deleted, func(w io.Writer) error {
				for _, id := range args {
					if deleted[id] {
						fmt.Fprintf(w, "Deleted recurring expense %s\n", id)
					} else {
						fmt.Fprintf(w, "No recurring expense %s\n", id)
					}
				}
				return nil
			})
		}),
	}
}

func newRecurringListCmd(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List recurring expense templates",
		Args:    cobra.NoArgs,
		RunE: rt.withApp(func(cmd *cobra.Command, app *App, _ []string) error {
			templates := app.Records.ListRecurring()
			return rt.emit(cmd, templates, func(w io.Writer) error {
				return writeTemplates(w, templates)
			})
		}),
	}
}

func newRecurringApplyCmd(rt *runtime) *cobra.Command {
	var date string
	cmd := &cobra.Command{
		Use:   "apply [id]...",
		Short: "Add expense records from templates; without ids every template is applied",
		Example: `  gagyebu recurring apply --date 2024-03-05
  gagyebu recurring apply 7f3c9a1e`,
		RunE: rt.withApp(func(cmd *cobra.Command, app *App, args []string) error {
			target := rt.today()
			if date != "" {
				d, err := parseDate(date)
				if err != nil {
					return err
				}
				target = d
			}

			var (
				created []core.Record
				err     error
			)
			if len(args) == 0 {
				created, err = app.Applier.ApplyStored(cmd.Context(), target)
			} else {
				var errs []error
				for _, id := range args {
					r, applyErr := app.Applier.ApplyByID(cmd.Context(), id, target)
					if applyErr != nil {
						errs = append(errs, applyErr)
						continue
					}
					created = append(created, r)
				}
				err = errors.Join(errs...)
			}

			if emitErr := rt.emit(cmd, created, func(w io.Writer) error {
				fmt.Fprintf(w, "Applied %d recurring expense(s) on %s\n", len(created), target.Key())
				return writeRecords(w, created)
			}); emitErr != nil {
				return emitErr
			}
			return err
		}),
	}
	cmd.Flags().StringVarP(&date, "date", "d", "", "date of the created records (default today)")
	return cmd
}
