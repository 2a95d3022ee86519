// Package query selects the records shown for a view: a period anchored on a
// selected day plus optional type and category filters.
package query

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"gagyebu/internal/core"
)

type ViewMode string

const (
	Day   ViewMode = "day"
	Month ViewMode = "month"
	Year  ViewMode = "year"
	Range ViewMode = "range"
)

var ErrInvalidViewMode = errors.New("invalid view mode")

// Filter narrows a view. Zero values mean unset.
type Filter struct {
	Type     core.RecordType `json:"type,omitempty"`
	Category string          `json:"category,omitempty"`
	Start    core.Date       `json:"start_date"`
	End      core.Date       `json:"end_date"`
}

// Params is everything a view needs besides the records themselves.
// Selected anchors day, month and year modes; Range mode reads the filter
// bounds instead.
type Params struct {
	Mode     ViewMode
	Selected core.Date
	Filter   Filter
}

func (m ViewMode) Valid() bool {
	switch m {
	case Day, Month, Year, Range:
		return true
	}
	return false
}

// ParseViewMode accepts a mode name case-insensitively. An empty string is
// the day view.
func ParseViewMode(s string) (ViewMode, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return Day, nil
	}
	m := ViewMode(s)
	if !m.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidViewMode, s)
	}
	return m, nil
}

// Apply returns the records in the view, newest first. Records sharing a date
// keep their input order. The input slice is never modified.
func Apply(records []core.Record, p Params) ([]core.Record, error) {
	inPeriod, err := periodMatcher(p)
	if err != nil {
		return nil, err
	}

	out := make([]core.Record, 0, len(records))
	for _, r := range records {
		if !inPeriod(r.Date) {
			continue
		}
		if p.Filter.Type != "" && r.Type != p.Filter.Type {
			continue
		}
		if p.Filter.Category != "" && r.Category != p.Filter.Category {
			continue
		}
		out = append(out, r)
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Date.After(out[j].Date)
	})
	return out, nil
}

func periodMatcher(p Params) (func(core.Date) bool, error) {
	switch p.Mode {
	case Day:
		return func(d core.Date) bool { return d.Equal(p.Selected) }, nil
	case Month:
		return func(d core.Date) bool { return d.SameMonth(p.Selected) }, nil
	case Year:
		return func(d core.Date) bool { return d.SameYear(p.Selected) }, nil
	case Range:
		start, end := p.Filter.Start, p.Filter.End
		return func(d core.Date) bool {
			if !start.IsZero() && d.Before(start) {
				return false
			}
			if !end.IsZero() && d.After(end) {
				return false
			}
			return true
		}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrInvalidViewMode, p.Mode)
	}
}

// Previous moves the anchor one period back. Range views are unchanged.
func Previous(p Params) Params {
	return shift(p, -1)
}

// Next moves the anchor one period forward. Range views are unchanged.
func Next(p Params) Params {
	return shift(p, 1)
}

// HasNext reports whether moving forward stays on or before today. The day
// view never navigates into the future.
func HasNext(p Params, today core.Date) bool {
	switch p.Mode {
	case Day:
		return p.Selected.Before(today)
	case Month:
		n := shift(p, 1).Selected
		return n.Year() < today.Year() || (n.SameYear(today) && n.Month() <= today.Month())
	case Year:
		return p.Selected.Year() < today.Year()
	}
	return false
}

func shift(p Params, n int) Params {
	switch p.Mode {
	case Day:
		p.Selected = p.Selected.AddDays(n)
	case Month:
		p.Selected = p.Selected.AddMonths(n)
	case Year:
		p.Selected = p.Selected.AddMonths(12 * n)
	}
	return p
}
