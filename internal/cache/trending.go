// Package cache provides the single-slot, time-boxed trending cache.
package cache

import (
	"context"
	"sync"
	"time"

	"github.com/museup/museup-api/internal/logger"
	"github.com/museup/museup-api/types"
)

// FillFunc performs the expensive upstream query on a cache miss.
type FillFunc func(ctx context.Context) ([]types.ResultRecord, error)

type entry struct {
	records []types.ResultRecord
	fetched time.Time
}

// Trending is a single global slot (not per-query). A stored value is
// served while younger than the validity window; otherwise it is refreshed
// synchronously by the call that discovers the expiry. Refills are not
// serialized: two requests observing expiry may both fill, last writer wins.
// Refilled values are equivalent in content, so the race is benign.
type Trending struct {
	window time.Duration
	fill   FillFunc
	now    func() time.Time
	log    *logger.ComponentLogger

	mu    sync.Mutex
	entry *entry
}

// NewTrending creates an empty cache with the given validity window.
func NewTrending(window time.Duration, fill FillFunc) *Trending {
	return &Trending{
		window: window,
		fill:   fill,
		now:    time.Now,
		log:    logger.WithComponent(logger.ComponentCache),
	}
}

// WithClock overrides the time source. Test hook.
func (t *Trending) WithClock(now func() time.Time) *Trending {
	t.now = now
	return t
}

// Get returns the cached records, filling or refreshing the slot first when
// needed. Callers must not mutate the returned slice. A failed fill leaves
// any previous entry in place and returns the error.
func (t *Trending) Get(ctx context.Context) ([]types.ResultRecord, error) {
	t.mu.Lock()
	if t.entry != nil && t.now().Sub(t.entry.fetched) < t.window {
		records := t.entry.records
		t.mu.Unlock()
		t.log.Debug("cache hit", map[string]interface{}{"records": len(records)})
		return records, nil
	}
	t.mu.Unlock()

	t.log.Info("cache miss, querying upstream")
	records, err := t.fill(ctx)
	if err != nil {
		return nil, err
	}

	t.mu.Lock()
	t.entry = &entry{records: records, fetched: t.now()}
	t.mu.Unlock()

	return records, nil
}
