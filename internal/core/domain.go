package core

import (
	"errors"
	"fmt"
	"strings"
)

const (
	Income  RecordType = "income"
	Expense RecordType = "expense"
)

type (
	RecordType string

	// Record is a single dated income or expense entry.
	Record struct {
		ID       string     `json:"id"`
		Type     RecordType `json:"type"`
		Category string     `json:"category"`
		Amount   Amount     `json:"amount"`
		Date     Date       `json:"date"`
		Memo     string     `json:"memo,omitempty"`
	}

	// RecurringExpense is an expense blueprint without a date. It always
	// materializes as an expense record.
	RecurringExpense struct {
		ID       string `json:"id"`
		Category string `json:"category"`
		Amount   Amount `json:"amount"`
		Memo     string `json:"memo,omitempty"`
	}

	// RecordPatch carries the fields of an update. Nil fields keep the
	// current value; the ID is never patched.
	RecordPatch struct {
		Type     *RecordType `json:"type,omitempty"`
		Category *string     `json:"category,omitempty"`
		Amount   *Amount     `json:"amount,omitempty"`
		Date     *Date       `json:"date,omitempty"`
		Memo     *string     `json:"memo,omitempty"`
	}

	RecurringPatch struct {
		Category *string `json:"category,omitempty"`
		Amount   *Amount `json:"amount,omitempty"`
		Memo     *string `json:"memo,omitempty"`
	}
)

var (
	ErrInvalidType     = errors.New("invalid record type")
	ErrInvalidAmount   = errors.New("invalid amount")
	ErrInvalidDate     = errors.New("invalid date")
	ErrEmptyCategory   = errors.New("empty category")
	ErrUnknownCategory = errors.New("unknown category")
	ErrDuplicateID     = errors.New("duplicate id")
)

// ValidationError ties a validation failure to the submitted field.
type ValidationError struct {
	Field string
	Err   error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %v", e.Field, e.Err)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

func invalid(field string, err error) error {
	return &ValidationError{Field: field, Err: err}
}

// Valid reports whether t is one of the two record types.
func (t RecordType) Valid() bool {
	return t == Income || t == Expense
}

// Label returns the display name of t, or t itself when unknown.
func (t RecordType) Label() string {
	switch t {
	case Income:
		return "수입"
	case Expense:
		return "지출"
	}
	return string(t)
}

// ParseRecordType accepts the type name case-insensitively.
func ParseRecordType(s string) (RecordType, error) {
	t := RecordType(strings.ToLower(strings.TrimSpace(s)))
	if !t.Valid() {
		return "", invalid("type", ErrInvalidType)
	}
	return t, nil
}

func (r Record) Validate() error {
	if !r.Type.Valid() {
		return invalid("type", ErrInvalidType)
	}
	if strings.TrimSpace(r.Category) == "" {
		return invalid("category", ErrEmptyCategory)
	}
	if r.Amount < 0 {
		return invalid("amount", ErrInvalidAmount)
	}
	if r.Date.IsZero() {
		return invalid("date", ErrInvalidDate)
	}
	return nil
}

func (re RecurringExpense) Validate() error {
	if strings.TrimSpace(re.Category) == "" {
		return invalid("category", ErrEmptyCategory)
	}
	if re.Amount < 0 {
		return invalid("amount", ErrInvalidAmount)
	}
	return nil
}

// FullRecordPatch builds a patch that overwrites every field of a record.
func FullRecordPatch(r Record) RecordPatch {
	return RecordPatch{
		Type:     &r.Type,
		Category: &r.Category,
		Amount:   &r.Amount,
		Date:     &r.Date,
		Memo:     &r.Memo,
	}
}

// Apply returns a copy of r with the patch merged in.
func (p RecordPatch) Apply(r Record) Record {
	if p.Type != nil {
		r.Type = *p.Type
	}
	if p.Category != nil {
		r.Category = *p.Category
	}
	if p.Amount != nil {
		r.Amount = *p.Amount
	}
	if p.Date != nil {
		r.Date = *p.Date
	}
	if p.Memo != nil {
		r.Memo = *p.Memo
	}
	return r
}

// TouchesCategory reports whether applying the patch can move the record
// to a different category label.
func (p RecordPatch) TouchesCategory() bool {
	return p.Type != nil || p.Category != nil
}

func (p RecurringPatch) Apply(re RecurringExpense) RecurringExpense {
	if p.Category != nil {
		re.Category = *p.Category
	}
	if p.Amount != nil {
		re.Amount = *p.Amount
	}
	if p.Memo != nil {
		re.Memo = *p.Memo
	}
	return re
}
