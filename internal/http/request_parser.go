// Package http exposes the ledger as a JSON API.
//
// This file implements utilities for parsing and validating HTTP request data:
// view query parameters and record or template bodies sent as JSON or
// form-encoded data.

package http

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"gagyebu/internal/core"
	"gagyebu/internal/query"
)

const maxBodyBytes = 1 << 20

// MonthParams holds parsed year/month values from request parameters.
type MonthParams struct {
	Year  int
	Month int
}

// ParseMonthParams extracts year and month from query parameters, using
// today as the default. Unparseable or out of range values are errors.
func ParseMonthParams(q url.Values, today core.Date) (MonthParams, error) {
	params := MonthParams{
		Year:  today.Year(),
		Month: int(today.Month()),
	}

	if v := strings.TrimSpace(q.Get("year")); v != "" {
		y, err := strconv.Atoi(v)
		if err != nil || y < 1 {
			return MonthParams{}, fmt.Errorf("%w: invalid year %q", errBadRequest, v)
		}
		params.Year = y
	}
	if v := strings.TrimSpace(q.Get("month")); v != "" {
		m, err := strconv.Atoi(v)
		if err != nil || m < 1 || m > 12 {
			return MonthParams{}, fmt.Errorf("%w: invalid month %q", errBadRequest, v)
		}
		params.Month = m
	}
	return params, nil
}

// ParseViewParams reads view, date, type, category, from and to. The
// selected day defaults to today.
func ParseViewParams(q url.Values, today core.Date) (query.Params, error) {
	p, err := query.Input{
		View:     q.Get("view"),
		Date:     q.Get("date"),
		Type:     q.Get("type"),
		Category: sanitizeInput(q.Get("category")),
		From:     q.Get("from"),
		To:       q.Get("to"),
	}.Parse(today)
	if err != nil {
		return query.Params{}, fmt.Errorf("%w: %w", errBadRequest, err)
	}
	return p, nil
}

// RequestBodyParser handles different content types for request body parsing.
// It supports both JSON and form-encoded data.
type RequestBodyParser struct {
	body        []byte
	contentType string
	jsonData    map[string]any
	formData    url.Values
	parsed      bool
	err         error
}

// NewRequestBodyParser creates a parser for the given request.
// It reads the body once and stores it for subsequent parsing.
func NewRequestBodyParser(r *http.Request) *RequestBodyParser {
	p := &RequestBodyParser{
		contentType: r.Header.Get("Content-Type"),
	}
	if r.Body == nil {
		return p
	}

	p.body, p.err = io.ReadAll(io.LimitReader(r.Body, maxBodyBytes+1))
	if p.err == nil && len(p.body) > maxBodyBytes {
		p.err = fmt.Errorf("%w: request body too large", errBadRequest)
	}
	return p
}

// Parse attempts to parse the body as JSON or form data.
func (p *RequestBodyParser) Parse() error {
	if p.parsed {
		return p.err
	}
	p.parsed = true

	if p.err != nil {
		return p.err
	}

	trimmed := bytes.TrimSpace(p.body)
	if len(trimmed) == 0 {
		p.formData = url.Values{}
		return nil
	}

	if trimmed[0] == '{' {
		dec := json.NewDecoder(bytes.NewReader(trimmed))
		dec.UseNumber()
		p.jsonData = make(map[string]any)
		if err := dec.Decode(&p.jsonData); err != nil {
			p.err = fmt.Errorf("%w: malformed JSON: %v", errBadRequest, err)
			return p.err
		}
		return nil
	}

	formData, err := url.ParseQuery(string(trimmed))
	if err != nil {
		p.err = fmt.Errorf("%w: malformed form data: %v", errBadRequest, err)
		return p.err
	}
	p.formData = formData
	return nil
}

// Get returns a string value from the parsed data (JSON or form).
func (p *RequestBodyParser) Get(key string) string {
	if p.jsonData != nil {
		if val, ok := p.jsonData[key]; ok {
			return sanitizeInput(stringValue(val))
		}
		return ""
	}
	if p.formData != nil {
		return sanitizeInput(p.formData.Get(key))
	}
	return ""
}

// Has reports whether the body carried key at all, even with an empty value.
func (p *RequestBodyParser) Has(key string) bool {
	if p.jsonData != nil {
		_, ok := p.jsonData[key]
		return ok
	}
	if p.formData != nil {
		_, ok := p.formData[key]
		return ok
	}
	return false
}

// IsJSON returns true if the parsed content was JSON.
func (p *RequestBodyParser) IsJSON() bool {
	return p.jsonData != nil
}

func stringValue(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case json.Number:
		return val.String()
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	default:
		return ""
	}
}

func parseBody(r *http.Request) (*RequestBodyParser, error) {
	p := NewRequestBodyParser(r)
	if err := p.Parse(); err != nil {
		return nil, err
	}
	return p, nil
}

func amountField(s string) (core.Amount, error) {
	n, err := core.ParseAmount(s)
	if err != nil {
		return 0, &core.ValidationError{Field: "amount", Err: err}
	}
	return core.Amount(n), nil
}

func dateField(s string) (core.Date, error) {
	d, err := core.ParseDate(s)
	if err != nil {
		return core.Date{}, &core.ValidationError{Field: "date", Err: err}
	}
	return d, nil
}

// recordFromBody builds a new record. A missing date means today.
func recordFromBody(p *RequestBodyParser, today core.Date) (core.Record, error) {
	t, err := core.ParseRecordType(p.Get("type"))
	if err != nil {
		return core.Record{}, err
	}
	amount, err := amountField(p.Get("amount"))
	if err != nil {
		return core.Record{}, err
	}
	date := today
	if v := p.Get("date"); v != "" {
		if date, err = dateField(v); err != nil {
			return core.Record{}, err
		}
	}
	return core.Record{
		ID:       p.Get("id"),
		Type:     t,
		Category: p.Get("category"),
		Amount:   amount,
		Date:     date,
		Memo:     p.Get("memo"),
	}, nil
}

// recordPatchFromBody sets only the fields present in the body.
func recordPatchFromBody(p *RequestBodyParser) (core.RecordPatch, error) {
	var patch core.RecordPatch
	if p.Has("type") {
		t, err := core.ParseRecordType(p.Get("type"))
		if err != nil {
			return core.RecordPatch{}, err
		}
		patch.Type = &t
	}
	if p.Has("category") {
		c := p.Get("category")
		patch.Category = &c
	}
	if p.Has("amount") {
		a, err := amountField(p.Get("amount"))
		if err != nil {
			return core.RecordPatch{}, err
		}
		patch.Amount = &a
	}
	if p.Has("date") {
		d, err := dateField(p.Get("date"))
		if err != nil {
			return core.RecordPatch{}, err
		}
		patch.Date = &d
	}
	if p.Has("memo") {
		m := p.Get("memo")
		patch.Memo = &m
	}
	return patch, nil
}

func recurringFromBody(p *RequestBodyParser) (core.RecurringExpense, error) {
	amount, err := amountField(p.Get("amount"))
	if err != nil {
		return core.RecurringExpense{}, err
	}
	return core.RecurringExpense{
		ID:       p.Get("id"),
		Category: p.Get("category"),
		Amount:   amount,
		Memo:     p.Get("memo"),
	}, nil
}

func recurringPatchFromBody(p *RequestBodyParser) (core.RecurringPatch, error) {
	var patch core.RecurringPatch
	if p.Has("category") {
		c := p.Get("category")
		patch.Category = &c
	}
	if p.Has("amount") {
		a, err := amountField(p.Get("amount"))
		if err != nil {
			return core.RecurringPatch{}, err
		}
		patch.Amount = &a
	}
	if p.Has("memo") {
		m := p.Get("memo")
		patch.Memo = &m
	}
	return patch, nil
}
