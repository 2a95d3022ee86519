package cli

import (
	"fmt"
	"io"
	"text/tabwriter"

	"gagyebu/internal/core"
	"gagyebu/internal/services"
)

func newTable(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
}

// signedAmount prefixes income with + and expense with -.
func signedAmount(r core.Record) string {
	if r.Type == core.Expense {
		return "-" + r.Amount.Display()
	}
	return "+" + r.Amount.Display()
}

func writeRecords(w io.Writer, records []core.Record) error {
	if len(records) == 0 {
		_, err := fmt.Fprintln(w, "(no records)")
		return err
	}
	tw := newTable(w)
	fmt.Fprintln(tw, "DATE\tTYPE\tCATEGORY\tAMOUNT\tMEMO\tID")
	for _, r := range records {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			r.Date.Key(), r.Type.Label(), r.Category, signedAmount(r), r.Memo, r.ID)
	}
	return tw.Flush()
}

func writeSummary(w io.Writer, s core.Summary) error {
	tw := newTable(w)
	fmt.Fprintf(tw, "수입\t%s\n", s.Income.Display())
	fmt.Fprintf(tw, "지출\t%s\n", s.Expense.Display())
	fmt.Fprintf(tw, "합계\t%s\n", s.Total.Display())
	return tw.Flush()
}

func writeBreakdown(w io.Writer, cats []core.CategoryAmount) error {
	if len(cats) == 0 {
		return nil
	}
	tw := newTable(w)
	fmt.Fprintln(tw, "CATEGORY\tAMOUNT\tSHARE")
	for _, c := range cats {
		fmt.Fprintf(tw, "%s\t%s\t%.1f%%\n", c.Name, c.Amount.Display(), c.Percent)
	}
	return tw.Flush()
}

func writeView(w io.Writer, v services.View, withRecords bool) error {
	fmt.Fprintf(w, "%s\n\n", v.Label)
	if withRecords {
		if err := writeRecords(w, v.Records); err != nil {
			return err
		}
		fmt.Fprintln(w)
	}
	if err := writeSummary(w, v.Summary); err != nil {
		return err
	}
	if len(v.TopCategories) > 0 {
		fmt.Fprintln(w)
	}
	return writeBreakdown(w, v.TopCategories)
}

func writeOverview(w io.Writer, ov core.MonthOverview) error {
	fmt.Fprintf(w, "%s\n\n", core.NewDate(ov.Year, ov.Month, 1).MonthDisplay())
	if err := writeSummary(w, ov.Summary); err != nil {
		return err
	}
	if len(ov.ByCategory) > 0 {
		fmt.Fprintln(w)
	}
	return writeBreakdown(w, ov.ByCategory)
}

func writeTemplates(w io.Writer, templates []core.RecurringExpense) error {
	if len(templates) == 0 {
		_, err := fmt.Fprintln(w, "(no recurring expenses)")
		return err
	}
	tw := newTable(w)
	fmt.Fprintln(tw, "CATEGORY\tAMOUNT\tMEMO\tID")
	for _, re := range templates {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", re.Category, re.Amount.Display(), re.Memo, re.ID)
	}
	return tw.Flush()
}
