// Package redis persists ledger collections as plain string values in Redis.
package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	goredis "github.com/go-redis/redis"

	"gagyebu/internal/kv"
)

const DefaultPrefix = "gagyebu"

type Store struct {
	client *goredis.Client
	prefix string
}

type Options struct {
	Addr     string
	Password string
	DB       int
	Prefix   string
	Timeout  time.Duration
}

// New connects and pings the server once.
func New(ctx context.Context, opts Options) (*Store, error) {
	if opts.Addr == "" {
		return nil, errors.New("redis: address is required")
	}
	ro := &goredis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	}
	if opts.Timeout > 0 {
		ro.DialTimeout = opts.Timeout
		ro.ReadTimeout = opts.Timeout
		ro.WriteTimeout = opts.Timeout
	}
	client := goredis.NewClient(ro)
	if err := client.WithContext(ctx).Ping().Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis: ping %s: %w", opts.Addr, err)
	}
	return NewWithClient(client, opts.Prefix), nil
}

// NewWithClient wraps an existing client. An empty prefix means DefaultPrefix.
func NewWithClient(client *goredis.Client, prefix string) *Store {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return &Store{client: client, prefix: prefix}
}

// Key returns the namespaced Redis key for a ledger key.
func (s *Store) Key(key string) string {
	return fmt.Sprintf("%s:%s", s.prefix, key)
}

func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	v, err := s.client.WithContext(ctx).Get(s.Key(key)).Bytes()
	if err == goredis.Nil {
		return nil, kv.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("redis: get %s: %w", key, err)
	}
	return v, nil
}

func (s *Store) Set(ctx context.Context, key string, value []byte) error {
	if err := s.client.WithContext(ctx).Set(s.Key(key), value, 0).Err(); err != nil {
		return fmt.Errorf("redis: set %s: %w", key, err)
	}
	return nil
}

func (s *Store) Close() error {
	return s.client.Close()
}
