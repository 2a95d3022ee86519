package core

import (
	"math"
	"sort"
)

// DefaultTopCategories is how many expense categories the breakdown keeps.
const DefaultTopCategories = 5

// Summary holds the income, expense and net totals of a record set.
type Summary struct {
	Income  Amount `json:"income"`
	Expense Amount `json:"expense"`
	Total   Amount `json:"total"`
}

// CategoryAmount represents an amount aggregated by category name.
type CategoryAmount struct {
	Name    string  `json:"name"`
	Amount  Amount  `json:"amount"`
	Percent float64 `json:"percent"`
}

// MonthOverview is a compact summary for a specific year+month.
type MonthOverview struct {
	Year       int              `json:"year"`
	Month      int              `json:"month"` // 1-12
	Summary    Summary          `json:"summary"`
	ByCategory []CategoryAmount `json:"by_category"`
}

// Summarize sums amounts per record type. Total may be negative.
func Summarize(records []Record) Summary {
	var s Summary
	for _, r := range records {
		switch r.Type {
		case Income:
			s.Income += r.Amount
		case Expense:
			s.Expense += r.Amount
		}
	}
	s.Total = s.Income - s.Expense
	return s
}

// CategoryBreakdown groups expense records by category, largest first,
// keeping at most topN groups (all of them when topN <= 0). Percentages are
// relative to the total expense of the whole set, not of the kept groups.
func CategoryBreakdown(records []Record, topN int) []CategoryAmount {
	sums := make(map[string]Amount)
	var total Amount
	for _, r := range records {
		if r.Type != Expense {
			continue
		}
		sums[r.Category] += r.Amount
		total += r.Amount
	}

	out := make([]CategoryAmount, 0, len(sums))
	for name, amount := range sums {
		out = append(out, CategoryAmount{
			Name:    name,
			Amount:  amount,
			Percent: Percent(amount, total),
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Amount != out[j].Amount {
			return out[i].Amount > out[j].Amount
		}
		return out[i].Name < out[j].Name
	})

	if topN > 0 && len(out) > topN {
		out = out[:topN]
	}
	return out
}

// Percent returns part/total*100 rounded to one decimal, or 0 when total is 0.
func Percent(part, total Amount) float64 {
	if total == 0 {
		return 0
	}
	p := float64(part) * 100 / float64(total)
	return math.Round(p*10) / 10
}

// Overview summarizes the records of one calendar month with the full
// expense breakdown.
func Overview(records []Record, year, month int) MonthOverview {
	inMonth := make([]Record, 0, len(records))
	for _, r := range records {
		if r.Date.Year() == year && int(r.Date.Month()) == month {
			inMonth = append(inMonth, r)
		}
	}
	return MonthOverview{
		Year:       year,
		Month:      month,
		Summary:    Summarize(inMonth),
		ByCategory: CategoryBreakdown(inMonth, 0),
	}
}
