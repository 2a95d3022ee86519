package services

import (
	"context"
	"errors"
	"fmt"

	"gagyebu/internal/core"
	"gagyebu/internal/log"
)

// RecurringApplier turns recurring templates into dated expense records.
// Template categories come from core.RecurringCategories and are not checked
// against the expense registry.
type RecurringApplier struct {
	ledger Ledger
	logger *log.Logger
}

func NewRecurringApplier(ledger Ledger, logger *log.Logger) *RecurringApplier {
	if logger == nil {
		logger = log.Discard()
	}
	return &RecurringApplier{
		ledger: ledger,
		logger: logger.WithComponent(log.ComponentApplier),
	}
}

// ApplyOne adds one expense record built from tpl on target. The template
// itself is left unchanged.
func (a *RecurringApplier) ApplyOne(ctx context.Context, tpl core.RecurringExpense, target core.Date) (core.Record, error) {
	if target.IsZero() {
		return core.Record{}, &core.ValidationError{Field: "date", Err: core.ErrInvalidDate}
	}

	r, err := a.ledger.AddRecord(ctx, core.Record{
		Type:     core.Expense,
		Category: tpl.Category,
		Amount:   tpl.Amount,
		Date:     target,
		Memo:     tpl.Memo,
	})
	if err != nil {
		return core.Record{}, fmt.Errorf("apply recurring expense %s: %w", tpl.ID, err)
	}

	a.logger.InfoContext(ctx, "Recurring expense applied",
		log.FieldTemplateID, tpl.ID,
		log.FieldRecordID, r.ID,
		log.FieldCategory, r.Category,
		log.FieldAmount, int64(r.Amount),
		log.FieldDate, target.Key())
	return r, nil
}

// ApplyAll applies each template independently. Records created before a
// failure are kept; the returned error joins every failure.
func (a *RecurringApplier) ApplyAll(ctx context.Context, templates []core.RecurringExpense, target core.Date) ([]core.Record, error) {
	created := make([]core.Record, 0, len(templates))
	var errs []error
	for _, tpl := range templates {
		r, err := a.ApplyOne(ctx, tpl, target)
		if err != nil {
			a.logger.WarnContext(ctx, "Failed to apply recurring expense",
				log.FieldTemplateID, tpl.ID,
				log.FieldError, err)
			errs = append(errs, err)
			continue
		}
		created = append(created, r)
	}

	a.logger.InfoContext(ctx, "Recurring expenses applied",
		log.FieldOperation, log.OpApply,
		"total", len(templates),
		"created", len(created),
		"failed", len(errs))
	return created, errors.Join(errs...)
}

// ApplyByID looks the template up in the ledger and applies it.
func (a *RecurringApplier) ApplyByID(ctx context.Context, id string, target core.Date) (core.Record, error) {
	tpl, ok := a.ledger.RecurringExpense(id)
	if !ok {
		return core.Record{}, fmt.Errorf("recurring expense %s: %w", id, ErrTemplateNotFound)
	}
	return a.ApplyOne(ctx, tpl, target)
}

// ApplyStored applies every stored template.
func (a *RecurringApplier) ApplyStored(ctx context.Context, target core.Date) ([]core.Record, error) {
	return a.ApplyAll(ctx, a.ledger.RecurringExpenses(), target)
}
