// Package memory provides a process-local cache.Store backed by an
// expirable LRU.
package memory

import (
	"context"
	"strings"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/pinkoogupta/eduzap/cache"
)

// Options bounds the in-memory store.
type Options struct {
	// MaxEntries caps the number of cached keys; least recently used keys are
	// evicted first.
	MaxEntries int
	// MaxTTL is the upper bound applied to every entry, including entries set
	// with a zero TTL.
	MaxTTL time.Duration
}

func (o Options) withDefaults() Options {
	if o.MaxEntries <= 0 {
		o.MaxEntries = 4096
	}
	if o.MaxTTL <= 0 {
		o.MaxTTL = 10 * time.Minute
	}
	return o
}

type entry struct {
	value     []byte
	expiresAt time.Time
}

// Store implements cache.Store in memory. Per-entry TTLs shorter than MaxTTL
// are enforced on read.
type Store struct {
	lru *expirable.LRU[string, entry]
	now func() time.Time
}

var _ cache.Store = (*Store)(nil)

// NewStore builds an in-memory cache store.
func NewStore(opts Options) *Store {
	cfg := opts.withDefaults()
	return &Store{
		lru: expirable.NewLRU[string, entry](cfg.MaxEntries, nil, cfg.MaxTTL),
		now: time.Now,
	}
}

func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	e, ok := s.lru.Get(key)
	if !ok {
		return nil, cache.ErrNotFound
	}
	if !e.expiresAt.IsZero() && !s.now().Before(e.expiresAt) {
		s.lru.Remove(key)
		return nil, cache.ErrNotFound
	}
	return append([]byte(nil), e.value...), nil
}

func (s *Store) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	e := entry{value: append([]byte(nil), value...)}
	if ttl > 0 {
		e.expiresAt = s.now().Add(ttl)
	}
	s.lru.Add(key, e)
	return nil
}

func (s *Store) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !s.lru.Remove(key) {
		return cache.ErrNotFound
	}
	return nil
}

func (s *Store) DeletePrefix(ctx context.Context, prefix string) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	removed := 0
	for _, k := range s.lru.Keys() {
		if strings.HasPrefix(k, prefix) && s.lru.Remove(k) {
			removed++
		}
	}
	return removed, nil
}

// Len reports the number of live keys.
func (s *Store) Len() int { return s.lru.Len() }
