package store

import (
	"time"

	"gagyebu/internal/log"
)

// Keys names the two persisted collections.
type Keys struct {
	Records   string
	Recurring string
}

// DefaultKeys are the storage keys written by earlier versions of the ledger.
var DefaultKeys = Keys{
	Records:   "budgetRecords",
	Recurring: "recurringExpenses",
}

type Option func(*Store)

// WithKeys overrides the collection keys. Empty fields keep the default.
func WithKeys(k Keys) Option {
	return func(s *Store) {
		if k.Records != "" {
			s.keys.Records = k.Records
		}
		if k.Recurring != "" {
			s.keys.Recurring = k.Recurring
		}
	}
}

func WithLogger(l *log.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.logger = l.WithComponent(log.ComponentStore)
		}
	}
}

// WithNotifier registers a receiver for successful mutations.
func WithNotifier(n Notifier) Option {
	return func(s *Store) {
		s.notifier = n
	}
}

// WithIDGenerator replaces the id source used when a submission has no id.
func WithIDGenerator(gen func() string) Option {
	return func(s *Store) {
		if gen != nil {
			s.newID = gen
		}
	}
}

// DefaultWriteTimeout bounds one collection write.
const DefaultWriteTimeout = 10 * time.Second

// WithWriteTimeout changes how long a single collection write may take.
func WithWriteTimeout(d time.Duration) Option {
	return func(s *Store) {
		if d > 0 {
			s.writeTimeout = d
		}
	}
}
