package item

import (
	"context"
	"sync"

	"github.com/feirahq/feirachat/internal/state"
	"go.uber.org/zap"
)

// Fetcher retrieves listing details from the backend.
type Fetcher interface {
	ItemDetail(ctx context.Context, itemID int64) (*state.ItemSnapshot, error)
}

// Cache memoizes item snapshots for the session. A failed fetch caches an
// explicit unavailable sentinel so the same id is not retried. Concurrent
// resolves for one id share a single outstanding fetch.
//
// This is the one structure in the engine that needs its own locking: the
// in-flight table is touched from whichever goroutine asks first.
type Cache struct {
	fetcher Fetcher
	logger  *zap.Logger

	mu        sync.Mutex
	snapshots map[int64]*state.ItemSnapshot
	inflight  map[int64]chan struct{}
}

// NewCache creates an empty cache backed by the given fetcher.
func NewCache(fetcher Fetcher, logger *zap.Logger) *Cache {
	return &Cache{
		fetcher:   fetcher,
		logger:    logger,
		snapshots: make(map[int64]*state.ItemSnapshot),
		inflight:  make(map[int64]chan struct{}),
	}
}

// Resolve returns the cached snapshot for the id, fetching it at most once.
// Callers racing on an uncached id wait for the first fetch instead of
// issuing their own. The returned snapshot may be the unavailable sentinel;
// the only error returned is context cancellation.
func (c *Cache) Resolve(ctx context.Context, itemID int64) (*state.ItemSnapshot, error) {
	for {
		c.mu.Lock()
		if snap, ok := c.snapshots[itemID]; ok {
			c.mu.Unlock()
			return snap, nil
		}
		if done, ok := c.inflight[itemID]; ok {
			c.mu.Unlock()
			select {
			case <-done:
				continue
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}
		done := make(chan struct{})
		c.inflight[itemID] = done
		c.mu.Unlock()

		snap, err := c.fetcher.ItemDetail(ctx, itemID)
		if err != nil {
			c.logger.Warn("item detail fetch failed, caching unavailable",
				zap.Int64("item_id", itemID), zap.Error(err))
			snap = &state.ItemSnapshot{ID: itemID, Unavailable: true}
		}

		c.mu.Lock()
		c.snapshots[itemID] = snap
		delete(c.inflight, itemID)
		c.mu.Unlock()
		close(done)
		return snap, nil
	}
}

// Cached returns the snapshot without fetching, or nil if unknown.
func (c *Cache) Cached(itemID int64) *state.ItemSnapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshots[itemID]
}
