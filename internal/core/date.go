package core

import (
	"bytes"
	"encoding/json"
	"strings"
	"time"
)

// DateLayout is the canonical persisted and compared date form.
const DateLayout = "2006-01-02"

var acceptedLayouts = []string{
	DateLayout,
	"2006/01/02",
	"2006.01.02",
	"20060102",
}

// Date is a calendar day at UTC midnight.
type Date struct {
	time.Time
}

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// Today truncates a wall clock reading to its calendar day in the clock's
// own location.
func Today(now time.Time) Date {
	return NewDate(now.Year(), int(now.Month()), now.Day())
}

// ParseDate normalizes any accepted date input to a canonical Date.
func ParseDate(s string) (Date, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Date{}, ErrInvalidDate
	}
	for _, layout := range acceptedLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return Today(t), nil
		}
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return Today(t), nil
	}
	return Date{}, ErrInvalidDate
}

// MustParseDate is ParseDate for literals known to be valid.
func MustParseDate(s string) Date {
	d, err := ParseDate(s)
	if err != nil {
		panic("core: invalid date literal " + s)
	}
	return d
}

// Key returns the canonical YYYY-MM-DD form, or "" for the zero Date.
func (d Date) Key() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(DateLayout)
}

func (d Date) String() string {
	return d.Key()
}

// Equal compares calendar days.
func (d Date) Equal(o Date) bool {
	return d.Key() == o.Key()
}

// Before and After compare calendar days.
func (d Date) Before(o Date) bool {
	return d.Key() < o.Key()
}

func (d Date) After(o Date) bool {
	return d.Key() > o.Key()
}

// SameMonth reports whether both dates fall in the same year and month.
func (d Date) SameMonth(o Date) bool {
	return d.Year() == o.Year() && d.Month() == o.Month()
}

// SameYear reports whether both dates fall in the same year.
func (d Date) SameYear(o Date) bool {
	return d.Year() == o.Year()
}

// AddDays shifts the date by n calendar days.
func (d Date) AddDays(n int) Date {
	return Today(d.Time.AddDate(0, 0, n))
}

// AddMonths shifts the date by n months, clamping the day to the target
// month's length.
func (d Date) AddMonths(n int) Date {
	first := time.Date(d.Year(), d.Month()+time.Month(n), 1, 0, 0, 0, 0, time.UTC)
	last := first.AddDate(0, 1, -1).Day()
	day := d.Day()
	if day > last {
		day = last
	}
	return NewDate(first.Year(), int(first.Month()), day)
}

// Display renders the long form, e.g. "2024년 03월 01일".
func (d Date) Display() string {
	return d.Format("2006년 01월 02일")
}

// ShortDisplay renders "2024년 3월 1일".
func (d Date) ShortDisplay() string {
	return d.Format("2006년 1월 2일")
}

// MonthDisplay renders "2024년 3월".
func (d Date) MonthDisplay() string {
	return d.Format("2006년 1월")
}

// YearDisplay renders "2024년".
func (d Date) YearDisplay() string {
	return d.Format("2006년")
}

// RangeDisplay renders the dotted form used in range labels.
func (d Date) RangeDisplay() string {
	return d.Format("2006.01.02")
}

func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.Key())
}

func (d *Date) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		*d = Date{}
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	if s == "" {
		*d = Date{}
		return nil
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}
