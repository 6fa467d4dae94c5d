package memorystore

import (
	"context"
	"sync"
	"time"

	"github.com/loverust/paybridge/idem"
)

// Guard is an in-memory implementation of idem.Guard with per-tier TTLs.
// Entries are pruned lazily on access; there is no background goroutine.
type Guard struct {
	mu           sync.Mutex
	inflightTTL  time.Duration
	processedTTL time.Duration
	inflight     map[string]time.Time
	processed    map[string]time.Time
	now          func() time.Time
}

// NewGuard creates a new in-memory guard. Non-positive TTLs fall back to
// the idem defaults.
func NewGuard(inflightTTL, processedTTL time.Duration) *Guard {
	if inflightTTL <= 0 {
		inflightTTL = idem.DefaultInflightTTL
	}
	if processedTTL <= 0 {
		processedTTL = idem.DefaultProcessedTTL
	}
	return &Guard{
		inflightTTL:  inflightTTL,
		processedTTL: processedTTL,
		inflight:     make(map[string]time.Time),
		processed:    make(map[string]time.Time),
		now:          time.Now,
	}
}

func (g *Guard) IsDuplicate(ctx context.Context, txnID string) (bool, error) {
	_ = ctx
	g.mu.Lock()
	defer g.mu.Unlock()
	g.prune()
	if _, ok := g.inflight[txnID]; ok {
		return true, nil
	}
	if _, ok := g.processed[txnID]; ok {
		return true, nil
	}
	return false, nil
}

func (g *Guard) MarkInflight(ctx context.Context, txnID string) error {
	_ = ctx
	g.mu.Lock()
	defer g.mu.Unlock()
	g.prune()
	g.inflight[txnID] = g.now().Add(g.inflightTTL)
	return nil
}

func (g *Guard) MarkProcessed(ctx context.Context, txnID string) error {
	_ = ctx
	g.mu.Lock()
	defer g.mu.Unlock()
	g.prune()
	delete(g.inflight, txnID)
	g.processed[txnID] = g.now().Add(g.processedTTL)
	return nil
}

func (g *Guard) Release(ctx context.Context, txnID string) error {
	_ = ctx
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.inflight, txnID)
	return nil
}

// prune drops expired entries. Callers must hold the mutex.
func (g *Guard) prune() {
	now := g.now()
	for k, exp := range g.inflight {
		if now.After(exp) {
			delete(g.inflight, k)
		}
	}
	for k, exp := range g.processed {
		if now.After(exp) {
			delete(g.processed, k)
		}
	}
}
