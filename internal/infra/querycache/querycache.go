// Package querycache implements the cached-query facility the dashboard
// dialogs read reference data through. Each query key is registered with
// a fetcher; reads are served from cache inside the TTL, and invalidation
// drops the entry and refetches it in the background for keys that have
// been read before.
package querycache

import (
	"context"
	"sync"
	"time"

	"github.com/adstack/adboard-bff-go/internal/infra/observability"

	"go.uber.org/zap"
)

// Fetcher loads fresh data for a query key.
type Fetcher func(ctx context.Context) (any, error)

type entry struct {
	value     any
	expiresAt time.Time
}

// Store is a thread-safe registry of keyed queries with TTL caching.
type Store struct {
	mu         sync.Mutex
	fetchers   map[string]Fetcher
	entries    map[string]entry
	subscribed map[string]bool // keys read at least once
	refreshing map[string]bool // background refetch in flight
	ttl        time.Duration
	timeout    time.Duration
	metrics    *observability.Metrics
	logger     *zap.Logger
}

// New creates an empty query store. timeout bounds background refetches
// triggered by Invalidate, which run without a caller context.
func New(ttl, timeout time.Duration, metrics *observability.Metrics, logger *zap.Logger) *Store {
	return &Store{
		fetchers:   make(map[string]Fetcher),
		entries:    make(map[string]entry),
		subscribed: make(map[string]bool),
		refreshing: make(map[string]bool),
		ttl:        ttl,
		timeout:    timeout,
		metrics:    metrics,
		logger:     logger,
	}
}

// Register binds a fetcher to a query key. Re-registering replaces the
// fetcher but keeps any cached value.
func (s *Store) Register(key string, f Fetcher) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fetchers[key] = f
}

// Read returns the cached value for key, fetching on miss or expiry.
func (s *Store) Read(ctx context.Context, key string) (any, error) {
	s.mu.Lock()
	f, ok := s.fetchers[key]
	if !ok {
		s.mu.Unlock()
		return nil, &UnknownKeyError{Key: key}
	}
	s.subscribed[key] = true

	if e, ok := s.entries[key]; ok && time.Now().Before(e.expiresAt) {
		s.mu.Unlock()
		s.metrics.IncrCacheHit(key)
		return e.value, nil
	}
	s.mu.Unlock()

	s.metrics.IncrCacheMiss(key)
	value, err := f(ctx)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.entries[key] = entry{value: value, expiresAt: time.Now().Add(s.ttl)}
	s.mu.Unlock()

	return value, nil
}

// Invalidate drops the cached value for key. Keys that have been read
// before are refetched in the background so the next read is warm; the
// refetch is fire-and-forget and at most one runs per key at a time.
// Invalidating an unknown or never-read key is a no-op.
func (s *Store) Invalidate(key string) {
	s.mu.Lock()
	delete(s.entries, key)

	f, known := s.fetchers[key]
	if !known || !s.subscribed[key] || s.refreshing[key] {
		s.mu.Unlock()
		return
	}
	s.refreshing[key] = true
	s.mu.Unlock()

	go func() {
		defer func() {
			s.mu.Lock()
			s.refreshing[key] = false
			s.mu.Unlock()
		}()

		ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
		defer cancel()

		value, err := f(ctx)
		if err != nil {
			// Next Read will fetch again; stale data is never served.
			s.logger.Warn("querycache: background refetch failed",
				zap.String("key", key),
				zap.Error(err),
			)
			return
		}

		s.mu.Lock()
		s.entries[key] = entry{value: value, expiresAt: time.Now().Add(s.ttl)}
		s.mu.Unlock()

		s.logger.Debug("querycache: refetched after invalidation", zap.String("key", key))
	}()
}

// UnknownKeyError is returned by Read for a key with no registered fetcher.
type UnknownKeyError struct {
	Key string
}

func (e *UnknownKeyError) Error() string {
	return "querycache: no fetcher registered for key " + e.Key
}
