package google

import (
	"fmt"
	"strconv"
	"strings"

	"gagyebu/internal/core"
)

var (
	recordHeader   = []any{"날짜", "구분", "분류", "금액", "메모"}
	overviewHeader = []any{"연도", "월", "분류", "금액", "비율(%)"}
)

func recordRows(records []core.Record) [][]any {
	rows := make([][]any, 0, len(records))
	for _, r := range records {
		rows = append(rows, []any{r.Date.Key(), r.Type.Label(), r.Category, int64(r.Amount), r.Memo})
	}
	return rows
}

// overviewRows lists the totals first, then every expense category.
func overviewRows(ov core.MonthOverview) [][]any {
	rows := [][]any{
		{ov.Year, ov.Month, "수입 합계", int64(ov.Summary.Income), ""},
		{ov.Year, ov.Month, "지출 합계", int64(ov.Summary.Expense), ""},
		{ov.Year, ov.Month, "잔액", int64(ov.Summary.Total), ""},
	}
	for _, c := range ov.ByCategory {
		rows = append(rows, []any{ov.Year, ov.Month, c.Name, int64(c.Amount), c.Percent})
	}
	return rows
}

func hasHeader(values [][]any, header []any) bool {
	if len(values) == 0 {
		return false
	}
	got := toStrings(values[0])
	if len(got) < len(header) {
		return false
	}
	for i, h := range header {
		if got[i] != fmt.Sprint(h) {
			return false
		}
	}
	return true
}

func toStrings(in []any) []string {
	out := make([]string, len(in))
	for i, v := range in {
		out[i] = strings.TrimSpace(fmt.Sprint(v))
	}
	return out
}

// lastColumn returns the A1 letter of the n-th column (n <= 26).
func lastColumn(n int) string {
	if n < 1 {
		n = 1
	}
	if n > 26 {
		n = 26
	}
	return string(rune('A' + n - 1))
}

// yearPrefixedName returns "<year> <base>" unless base already starts with a 4-digit year.
func yearPrefixedName(base string, year int) string {
	base = strings.TrimSpace(base)
	if base == "" {
		return base
	}
	if len(base) >= 5 {
		if y, err := strconv.Atoi(base[0:4]); err == nil && base[4] == ' ' && y > 1900 && y < 3000 {
			return base
		}
	}
	return fmt.Sprintf("%d %s", year, base)
}
