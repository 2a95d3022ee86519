package services

import (
	"context"
	"fmt"

	"gagyebu/internal/cache"
	"gagyebu/internal/core"
	"gagyebu/internal/log"
	"gagyebu/internal/query"
)

// RecordService validates submissions against the active category registry
// before they reach the ledger, and assembles the views adapters render.
type RecordService struct {
	ledger   Ledger
	registry core.Registry
	logger   *log.Logger
	topN     int
	months   *cache.LRUCache[core.MonthOverview]
}

// overviewCacheSize bounds how many month overviews Stats keeps.
const overviewCacheSize = 24

// View is one rendered period: the visible records with their totals.
type View struct {
	Label         string                `json:"label"`
	Mode          query.ViewMode        `json:"mode"`
	Filter        query.Filter          `json:"filter"`
	Selected      core.Date             `json:"selected"`
	Previous      core.Date             `json:"previous"`
	Next          core.Date             `json:"next"`
	HasNext       bool                  `json:"has_next"`
	Records       []core.Record         `json:"records"`
	Summary       core.Summary          `json:"summary"`
	TopCategories []core.CategoryAmount `json:"top_categories"`
}

func NewRecordService(ledger Ledger, registry core.Registry, logger *log.Logger) *RecordService {
	if logger == nil {
		logger = log.Discard()
	}
	return &RecordService{
		ledger:   ledger,
		registry: registry,
		logger:   logger.WithComponent(log.ComponentRecords),
		topN:     core.DefaultTopCategories,
		months:   cache.NewLRUCache[core.MonthOverview](overviewCacheSize, 0),
	}
}

// SetTopCategories changes how many expense categories a View keeps.
func (s *RecordService) SetTopCategories(n int) {
	s.topN = n
}

func (s *RecordService) Registry() core.Registry {
	return s.registry
}

// Create validates the category for the record's type and stores the record.
func (s *RecordService) Create(ctx context.Context, r core.Record) (core.Record, error) {
	if err := s.registry.CheckCategory(r.Type, r.Category); err != nil {
		return core.Record{}, err
	}
	saved, err := s.ledger.AddRecord(ctx, r)
	if err != nil {
		return core.Record{}, fmt.Errorf("add record: %w", err)
	}
	s.logSaved(ctx, log.OpCreate, saved)
	return saved, nil
}

// Update merges patch into an existing record. The category is re-checked
// only when the patch can change it, so records saved under an older
// registry revision stay editable. The check runs against the merged record
// inside the ledger's update.
func (s *RecordService) Update(ctx context.Context, id string, patch core.RecordPatch) (core.Record, error) {
	var check func(core.Record) error
	if patch.TouchesCategory() {
		check = func(merged core.Record) error {
			return s.registry.CheckCategory(merged.Type, merged.Category)
		}
	}

	updated, found, err := s.ledger.UpdateRecord(ctx, id, patch, check)
	if err != nil {
		return core.Record{}, fmt.Errorf("update record: %w", err)
	}
	if !found {
		return core.Record{}, fmt.Errorf("record %s: %w", id, ErrRecordNotFound)
	}
	s.logSaved(ctx, log.OpUpdate, updated)
	return updated, nil
}

// Delete removes a record; false means there was nothing to remove.
func (s *RecordService) Delete(ctx context.Context, id string) bool {
	deleted := s.ledger.DeleteRecord(ctx, id)
	s.logger.DebugContext(ctx, "Record delete", log.FieldRecordID, id, "deleted", deleted)
	return deleted
}

func (s *RecordService) Get(id string) (core.Record, error) {
	r, ok := s.ledger.Record(id)
	if !ok {
		return core.Record{}, fmt.Errorf("record %s: %w", id, ErrRecordNotFound)
	}
	return r, nil
}

func (s *RecordService) List(p query.Params) ([]core.Record, error) {
	return query.Apply(s.ledger.Records(), p)
}

// View filters the ledger for p and summarizes the result.
func (s *RecordService) View(p query.Params, today core.Date) (View, error) {
	records, err := query.Apply(s.ledger.Records(), p)
	if err != nil {
		return View{}, err
	}
	return View{
		Label:         query.Label(p, today),
		Mode:          p.Mode,
		Filter:        p.Filter,
		Selected:      p.Selected,
		Previous:      query.Previous(p).Selected,
		Next:          query.Next(p).Selected,
		HasNext:       query.HasNext(p, today),
		Records:       records,
		Summary:       core.Summarize(records),
		TopCategories: core.CategoryBreakdown(records, s.topN),
	}, nil
}

// Stats summarizes one calendar month of the whole ledger. Overviews are
// cached per ledger version, so any record mutation invalidates them.
func (s *RecordService) Stats(year, month int) core.MonthOverview {
	key := fmt.Sprintf("%04d-%02d@%d", year, month, s.ledger.Version())
	return s.months.GetOrCompute(key, func() core.MonthOverview {
		return core.Overview(s.ledger.Records(), year, month)
	})
}

// CacheStats reports the month overview cache counters.
func (s *RecordService) CacheStats() cache.Stats {
	return s.months.Stats()
}

func (s *RecordService) ListRecurring() []core.RecurringExpense {
	return s.ledger.RecurringExpenses()
}

func (s *RecordService) CreateRecurring(ctx context.Context, re core.RecurringExpense) (core.RecurringExpense, error) {
	if err := checkRecurringCategory(re.Category); err != nil {
		return core.RecurringExpense{}, err
	}
	saved, err := s.ledger.AddRecurringExpense(ctx, re)
	if err != nil {
		return core.RecurringExpense{}, fmt.Errorf("add recurring expense: %w", err)
	}
	s.logger.InfoContext(ctx, "Recurring expense saved",
		log.FieldTemplateID, saved.ID,
		log.FieldCategory, saved.Category,
		log.FieldAmount, int64(saved.Amount))
	return saved, nil
}

func (s *RecordService) UpdateRecurring(ctx context.Context, id string, patch core.RecurringPatch) (core.RecurringExpense, error) {
	if patch.Category != nil {
		if err := checkRecurringCategory(*patch.Category); err != nil {
			return core.RecurringExpense{}, err
		}
	}
	updated, found, err := s.ledger.UpdateRecurringExpense(ctx, id, patch)
	if err != nil {
		return core.RecurringExpense{}, fmt.Errorf("update recurring expense: %w", err)
	}
	if !found {
		return core.RecurringExpense{}, fmt.Errorf("recurring expense %s: %w", id, ErrTemplateNotFound)
	}
	return updated, nil
}

func (s *RecordService) DeleteRecurring(ctx context.Context, id string) bool {
	return s.ledger.DeleteRecurringExpense(ctx, id)
}

func checkRecurringCategory(category string) error {
	if category == "" {
		return &core.ValidationError{Field: "category", Err: core.ErrEmptyCategory}
	}
	if !core.IsRecurringCategory(category) {
		return &core.ValidationError{
			Field: "category",
			Err:   fmt.Errorf("%w %q for recurring expense", core.ErrUnknownCategory, category),
		}
	}
	return nil
}

func (s *RecordService) logSaved(ctx context.Context, op string, r core.Record) {
	log.NewStructuredLogger(s.logger).
		LogRecordSaved(ctx, op, r.ID, string(r.Type), r.Category, int64(r.Amount), r.Date.Key())
}
