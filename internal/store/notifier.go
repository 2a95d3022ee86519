package store

import "context"

// Collection identifies which persisted collection a change touched.
type Collection string

const (
	RecordsCollection   Collection = "records"
	RecurringCollection Collection = "recurring"
)

type Op string

const (
	OpAdd    Op = "add"
	OpUpdate Op = "update"
	OpDelete Op = "delete"
)

// Change describes one persisted mutation. Count is the collection size
// after the change.
type Change struct {
	Collection Collection `json:"collection"`
	Op         Op         `json:"op"`
	ID         string     `json:"id"`
	Count      int        `json:"count"`
}

// Notifier is told about every mutation that reached storage.
type Notifier interface {
	Notify(ctx context.Context, c Change) error
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(ctx context.Context, c Change) error

func (f NotifierFunc) Notify(ctx context.Context, c Change) error {
	return f(ctx, c)
}
