// Package kv is the persistence boundary of the ledger: a string-keyed store
// of opaque values.
package kv

import (
	"context"
	"errors"
)

// ErrNotFound is returned by Get when the key has never been written.
var ErrNotFound = errors.New("kv: key not found")

type (
	Reader interface {
		Get(ctx context.Context, key string) ([]byte, error)
	}

	Writer interface {
		// Set replaces the whole value stored under key.
		Set(ctx context.Context, key string, value []byte) error
	}

	Store interface {
		Reader
		Writer
	}
)
