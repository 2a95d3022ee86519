package query

import "gagyebu/internal/core"

const (
	todayLabel      = "오늘"
	emptyRangeLabel = "범위 선택"
)

// Label renders the heading of a view, e.g. "2024년 3월" for a month view.
func Label(p Params, today core.Date) string {
	switch p.Mode {
	case Day:
		if p.Selected.Equal(today) {
			return todayLabel
		}
		return p.Selected.ShortDisplay()
	case Month:
		return p.Selected.MonthDisplay()
	case Year:
		return p.Selected.YearDisplay()
	case Range:
		start, end := p.Filter.Start, p.Filter.End
		switch {
		case !start.IsZero() && !end.IsZero():
			return start.RangeDisplay() + " ~ " + end.RangeDisplay()
		case !start.IsZero():
			return start.RangeDisplay() + " ~"
		case !end.IsZero():
			return "~ " + end.RangeDisplay()
		}
		return emptyRangeLabel
	}
	return ""
}
