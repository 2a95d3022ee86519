// Package store holds the ledger's records and recurring templates in memory
// and writes each collection back to a key-value store after every mutation.
package store

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"gagyebu/internal/core"
	"gagyebu/internal/kv"
	"gagyebu/internal/log"
)

// Store is the single source of truth for both collections. It is safe for
// concurrent use.
//
// Persistence failures never fail a mutation: the in-memory state stays
// authoritative and the failure is logged.
type Store struct {
	mu        sync.RWMutex
	kv        kv.Store
	keys      Keys
	logger    *log.Logger
	notifier  Notifier
	newID     func() string
	records   []core.Record
	recurring []core.RecurringExpense
	version   uint64

	writeTimeout time.Duration
}

// New loads both collections from kv. Absent, empty or malformed values load
// as empty collections. Entries that break an invariant or repeat an earlier
// id are dropped with a warning; entries without an id get a fresh one.
func New(ctx context.Context, store kv.Store, opts ...Option) *Store {
	s := &Store{
		kv:           store,
		keys:         DefaultKeys,
		logger:       log.Discard(),
		newID:        uuid.NewString,
		writeTimeout: DefaultWriteTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}

	var records []core.Record
	var recurring []core.RecurringExpense
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		records = load[core.Record](gctx, s, s.keys.Records)
		return nil
	})
	g.Go(func() error {
		recurring = load[core.RecurringExpense](gctx, s, s.keys.Recurring)
		return nil
	})
	_ = g.Wait()

	s.records = sanitize(ctx, s, s.keys.Records, records, func(r *core.Record) *string { return &r.ID })
	s.recurring = sanitize(ctx, s, s.keys.Recurring, recurring, func(re *core.RecurringExpense) *string { return &re.ID })

	s.logger.InfoContext(ctx, "Ledger loaded",
		"records", len(s.records),
		"recurring", len(s.recurring))
	return s
}

func load[T any](ctx context.Context, s *Store, key string) []T {
	raw, err := s.kv.Get(ctx, key)
	if errors.Is(err, kv.ErrNotFound) {
		return []T{}
	}
	if err != nil {
		s.logger.WarnContext(ctx, "Failed to read collection, starting empty",
			log.FieldKey, key, log.FieldError, err)
		return []T{}
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		return []T{}
	}

	var items []T
	if err := json.Unmarshal(raw, &items); err != nil {
		s.logger.WarnContext(ctx, "Malformed collection, starting empty",
			log.FieldKey, key, log.FieldError, err)
		return []T{}
	}
	return items
}

// sanitize enforces the collection invariants on loaded items: each one
// validates and ids are unique. The first occurrence of an id wins.
func sanitize[T interface{ Validate() error }](ctx context.Context, s *Store, key string, items []T, id func(*T) *string) []T {
	out := make([]T, 0, len(items))
	seen := make(map[string]struct{}, len(items))
	for _, item := range items {
		if err := item.Validate(); err != nil {
			s.logger.WarnContext(ctx, "Dropping invalid entry",
				log.FieldKey, key, log.FieldID, *id(&item), log.FieldError, err)
			continue
		}
		ref := id(&item)
		if *ref == "" {
			*ref = s.uniqueID(func(candidate string) bool {
				_, taken := seen[candidate]
				return taken
			})
		}
		if _, dup := seen[*ref]; dup {
			s.logger.WarnContext(ctx, "Dropping entry with duplicate id",
				log.FieldKey, key, log.FieldID, *ref)
			continue
		}
		seen[*ref] = struct{}{}
		out = append(out, item)
	}
	return out
}

// persist writes a full collection. Callers hold the write lock so writes
// land in mutation order. The write ignores cancellation of ctx and is
// bounded by the store's write timeout instead.
func persist[T any](ctx context.Context, s *Store, key string, items []T) bool {
	wctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.writeTimeout)
	defer cancel()

	raw, err := json.Marshal(items)
	if err == nil {
		err = s.kv.Set(wctx, key, raw)
	}
	if err != nil {
		s.logger.WarnContext(ctx, "Failed to persist collection, keeping in-memory state",
			log.NewFields().WithCollection(key, len(items)).WithError(err).ToSlice()...)
		return false
	}
	return true
}

// notify must run after the write lock is released.
func (s *Store) notify(ctx context.Context, c *Change) {
	if s.notifier == nil || c == nil {
		return
	}
	if err := s.notifier.Notify(context.WithoutCancel(ctx), *c); err != nil {
		s.logger.WarnContext(ctx, "Change notification failed",
			log.FieldCollection, string(c.Collection),
			log.FieldOperation, string(c.Op),
			log.FieldError, err)
	}
}

// commitRecords persists the records and returns the change to announce,
// or nil when the write failed.
func (s *Store) commitRecords(ctx context.Context, op Op, id string) *Change {
	s.version++
	if !persist(ctx, s, s.keys.Records, s.records) {
		return nil
	}
	return &Change{Collection: RecordsCollection, Op: op, ID: id, Count: len(s.records)}
}

func (s *Store) commitRecurring(ctx context.Context, op Op, id string) *Change {
	if !persist(ctx, s, s.keys.Recurring, s.recurring) {
		return nil
	}
	return &Change{Collection: RecurringCollection, Op: op, ID: id, Count: len(s.recurring)}
}

// Keys returns the collection keys in use.
func (s *Store) Keys() Keys {
	return s.keys
}

// Version counts record mutations since the store was loaded.
func (s *Store) Version() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.version
}

// Records returns a copy of every record in insertion order.
func (s *Store) Records() []core.Record {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.records)
}

func (s *Store) Record(id string) (core.Record, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if i := s.recordIndex(id); i >= 0 {
		return s.records[i], true
	}
	return core.Record{}, false
}

func (s *Store) recordIndex(id string) int {
	return slices.IndexFunc(s.records, func(r core.Record) bool { return r.ID == id })
}

// AddRecord appends r, assigning an id when it has none.
func (s *Store) AddRecord(ctx context.Context, r core.Record) (core.Record, error) {
	if err := r.Validate(); err != nil {
		return core.Record{}, err
	}

	// Deferred before the unlock, so it runs after it.
	var change *Change
	defer func() { s.notify(ctx, change) }()
	s.mu.Lock()
	defer s.mu.Unlock()

	if r.ID == "" {
		r.ID = s.uniqueID(func(id string) bool { return s.recordIndex(id) >= 0 })
	} else if s.recordIndex(r.ID) >= 0 {
		return core.Record{}, fmt.Errorf("record %s: %w", r.ID, core.ErrDuplicateID)
	}

	s.records = append(s.records, r)
	change = s.commitRecords(ctx, OpAdd, r.ID)
	return r, nil
}

// UpdateRecord merges patch into the record with id. It reports false when
// no such record exists; nothing is inserted in that case. A merge that
// breaks a record invariant, or that one of checks rejects, returns the
// error and leaves the record as is. Checks run under the store lock.
func (s *Store) UpdateRecord(ctx context.Context, id string, patch core.RecordPatch, checks ...func(core.Record) error) (core.Record, bool, error) {
	var change *Change
	defer func() { s.notify(ctx, change) }()
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.recordIndex(id)
	if i < 0 {
		return core.Record{}, false, nil
	}
	merged := patch.Apply(s.records[i])
	merged.ID = id
	if err := merged.Validate(); err != nil {
		return s.records[i], true, err
	}
	for _, check := range checks {
		if check == nil {
			continue
		}
		if err := check(merged); err != nil {
			return s.records[i], true, err
		}
	}

	s.records[i] = merged
	change = s.commitRecords(ctx, OpUpdate, id)
	return merged, true, nil
}

// DeleteRecord removes the record with id. Deleting an unknown id is a no-op
// that reports false.
func (s *Store) DeleteRecord(ctx context.Context, id string) bool {
	var change *Change
	defer func() { s.notify(ctx, change) }()
	s.mu.Lock()
	defer s.mu.Unlock()

	before := len(s.records)
	s.records = slices.DeleteFunc(s.records, func(r core.Record) bool { return r.ID == id })
	if len(s.records) == before {
		return false
	}
	change = s.commitRecords(ctx, OpDelete, id)
	return true
}

// RecurringExpenses returns a copy of every template in insertion order.
func (s *Store) RecurringExpenses() []core.RecurringExpense {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.recurring)
}

func (s *Store) RecurringExpense(id string) (core.RecurringExpense, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if i := s.recurringIndex(id); i >= 0 {
		return s.recurring[i], true
	}
	return core.RecurringExpense{}, false
}

func (s *Store) recurringIndex(id string) int {
	return slices.IndexFunc(s.recurring, func(re core.RecurringExpense) bool { return re.ID == id })
}

func (s *Store) AddRecurringExpense(ctx context.Context, re core.RecurringExpense) (core.RecurringExpense, error) {
	if err := re.Validate(); err != nil {
		return core.RecurringExpense{}, err
	}

	var change *Change
	defer func() { s.notify(ctx, change) }()
	s.mu.Lock()
	defer s.mu.Unlock()

	if re.ID == "" {
		re.ID = s.uniqueID(func(id string) bool { return s.recurringIndex(id) >= 0 })
	} else if s.recurringIndex(re.ID) >= 0 {
		return core.RecurringExpense{}, fmt.Errorf("recurring expense %s: %w", re.ID, core.ErrDuplicateID)
	}

	s.recurring = append(s.recurring, re)
	change = s.commitRecurring(ctx, OpAdd, re.ID)
	return re, nil
}

func (s *Store) UpdateRecurringExpense(ctx context.Context, id string, patch core.RecurringPatch) (core.RecurringExpense, bool, error) {
	var change *Change
	defer func() { s.notify(ctx, change) }()
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.recurringIndex(id)
	if i < 0 {
		return core.RecurringExpense{}, false, nil
	}
	merged := patch.Apply(s.recurring[i])
	merged.ID = id
	if err := merged.Validate(); err != nil {
		return s.recurring[i], true, err
	}

	s.recurring[i] = merged
	change = s.commitRecurring(ctx, OpUpdate, id)
	return merged, true, nil
}

func (s *Store) DeleteRecurringExpense(ctx context.Context, id string) bool {
	var change *Change
	defer func() { s.notify(ctx, change) }()
	s.mu.Lock()
	defer s.mu.Unlock()

	before := len(s.recurring)
	s.recurring = slices.DeleteFunc(s.recurring, func(re core.RecurringExpense) bool { return re.ID == id })
	if len(s.recurring) == before {
		return false
	}
	change = s.commitRecurring(ctx, OpDelete, id)
	return true
}

// uniqueID draws ids until taken reports a free one, falling back to a
// random uuid after a few collisions.
func (s *Store) uniqueID(taken func(string) bool) string {
	id := s.newID()
	for attempt := 0; attempt < 8 && taken(id); attempt++ {
		id = s.newID()
	}
	if taken(id) {
		id = uuid.NewString()
	}
	return id
}
