package query

import (
	"fmt"
	"strings"

	"gagyebu/internal/core"
)

// Input holds unparsed view selections as they arrive from a query string
// or command-line flags. Empty fields mean unset.
type Input struct {
	View     string
	Date     string
	Type     string
	Category string
	From     string
	To       string
}

// Parse validates in and resolves it to Params. The selected day defaults to
// today; the range bounds stay open when absent.
func (in Input) Parse(today core.Date) (Params, error) {
	mode, err := ParseViewMode(in.View)
	if err != nil {
		return Params{}, err
	}
	p := Params{Mode: mode}

	if p.Selected, err = optionalDate("date", in.Date, today); err != nil {
		return Params{}, err
	}
	if v := strings.TrimSpace(in.Type); v != "" {
		if p.Filter.Type, err = core.ParseRecordType(v); err != nil {
			return Params{}, err
		}
	}
	p.Filter.Category = strings.TrimSpace(in.Category)
	if p.Filter.Start, err = optionalDate("from", in.From, core.Date{}); err != nil {
		return Params{}, err
	}
	if p.Filter.End, err = optionalDate("to", in.To, core.Date{}); err != nil {
		return Params{}, err
	}
	return p, nil
}

func optionalDate(field, s string, def core.Date) (core.Date, error) {
	if strings.TrimSpace(s) == "" {
		return def, nil
	}
	d, err := core.ParseDate(s)
	if err != nil {
		return core.Date{}, &core.ValidationError{Field: field, Err: fmt.Errorf("%w %q", err, s)}
	}
	return d, nil
}
