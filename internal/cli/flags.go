package cli

import (
	"github.com/spf13/cobra"

	"gagyebu/internal/core"
	"gagyebu/internal/query"
)

// viewFlags are the period and filter selections shared by list and summary.
type viewFlags struct {
	in query.Input
}

func (f *viewFlags) bind(cmd *cobra.Command) {
	fs := cmd.Flags()
	fs.StringVar(&f.in.View, "view", "day", "period: day, month, year or range")
	fs.StringVar(&f.in.Date, "date", "", "selected day for day, month and year views (default today)")
	fs.StringVar(&f.in.Type, "type", "", "only income or expense records")
	fs.StringVar(&f.in.Category, "category", "", "only records with this category")
	fs.StringVar(&f.in.From, "from", "", "range start, inclusive")
	fs.StringVar(&f.in.To, "to", "", "range end, inclusive")
}

func (f *viewFlags) params(today core.Date) (query.Params, error) {
	return f.in.Parse(today)
}

// entryFlags hold the raw values of a record or template submission.
type entryFlags struct {
	id       string
	typ      string
	category string
	amount   string
	date     string
	memo     string
}

func (f *entryFlags) bindRecord(cmd *cobra.Command) {
	fs := cmd.Flags()
	fs.StringVarP(&f.typ, "type", "t", "", "income or expense")
	fs.StringVar(&f.category, "category", "", "category label")
	fs.StringVarP(&f.amount, "amount", "a", "", "amount in won, commas allowed")
	fs.StringVarP(&f.date, "date", "d", "", "date (default today)")
	fs.StringVarP(&f.memo, "memo", "m", "", "free text note")
}

func (f *entryFlags) bindTemplate(cmd *cobra.Command) {
	fs := cmd.Flags()
	fs.StringVar(&f.category, "category", "", "recurring category label")
	fs.StringVarP(&f.amount, "amount", "a", "", "amount in won, commas allowed")
	fs.StringVarP(&f.memo, "memo", "m", "", "free text note")
}

func parseAmount(s string) (core.Amount, error) {
	n, err := core.ParseAmount(s)
	if err != nil {
		return 0, &core.ValidationError{Field: "amount", Err: err}
	}
	return core.Amount(n), nil
}

func parseDate(s string) (core.Date, error) {
	d, err := core.ParseDate(s)
	if err != nil {
		return core.Date{}, &core.ValidationError{Field: "date", Err: err}
	}
	return d, nil
}

func (f *entryFlags) record(today core.Date) (core.Record, error) {
	t, err := core.ParseRecordType(f.typ)
	if err != nil {
		return core.Record{}, err
	}
	amount, err := parseAmount(f.amount)
	if err != nil {
		return core.Record{}, err
	}
	date := today
	if f.date != "" {
		if date, err = parseDate(f.date); err != nil {
			return core.Record{}, err
		}
	}
	return core.Record{ID: f.id, Type: t, Category: f.category, Amount: amount, Date: date, Memo: f.memo}, nil
}

// recordPatch includes only the flags set on the command line.
func (f *entryFlags) recordPatch(cmd *cobra.Command) (core.RecordPatch, error) {
	var patch core.RecordPatch
	changed := cmd.Flags().Changed
	if changed("type") {
		t, err := core.ParseRecordType(f.typ)
		if err != nil {
			return patch, err
		}
		patch.Type = &t
	}
	if changed("category") {
		patch.Category = &f.category
	}
	if changed("amount") {
		a, err := parseAmount(f.amount)
		if err != nil {
			return patch, err
		}
		patch.Amount = &a
	}
	if changed("date") {
		d, err := parseDate(f.date)
		if err != nil {
			return patch, err
		}
		patch.Date = &d
	}
	if changed("memo") {
		patch.Memo = &f.memo
	}
	return patch, nil
}

func (f *entryFlags) template() (core.RecurringExpense, error) {
	amount, err := parseAmount(f.amount)
	if err != nil {
		return core.RecurringExpense{}, err
	}
	return core.RecurringExpense{ID: f.id, Category: f.category, Amount: amount, Memo: f.memo}, nil
}

func (f *entryFlags) templatePatch(cmd *cobra.Command) (core.RecurringPatch, error) {
	var patch core.RecurringPatch
	changed := cmd.Flags().Changed
	if changed("category") {
		patch.Category = &f.category
	}
	if changed("amount") {
		a, err := parseAmount(f.amount)
		if err != nil {
			return patch, err
		}
		patch.Amount = &a
	}
	if changed("memo") {
		patch.Memo = &f.memo
	}
	return patch, nil
}
