package services

import (
	"context"
	"errors"

	"gagyebu/internal/core"
)

var (
	ErrRecordNotFound   = errors.New("record not found")
	ErrTemplateNotFound = errors.New("recurring expense not found")
)

// Ledger is the record store as seen by the services. *store.Store
// implements it.
type Ledger interface {
	// Version changes whenever the record collection does.
	Version() uint64
	Records() []core.Record
	Record(id string) (core.Record, bool)
	AddRecord(ctx context.Context, r core.Record) (core.Record, error)
	UpdateRecord(ctx context.Context, id string, patch core.RecordPatch, checks ...func(core.Record) error) (core.Record, bool, error)
	DeleteRecord(ctx context.Context, id string) bool

	RecurringExpenses() []core.RecurringExpense
	RecurringExpense(id string) (core.RecurringExpense, bool)
	AddRecurringExpense(ctx context.Context, re core.RecurringExpense) (core.RecurringExpense, error)
	UpdateRecurringExpense(ctx context.Context, id string, patch core.RecurringPatch) (core.RecurringExpense, bool, error)
	DeleteRecurringExpense(ctx context.Context, id string) bool
}
