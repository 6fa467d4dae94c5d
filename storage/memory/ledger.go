package memorystore

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/loverust/paybridge/ledger"
)

// Ledger is an in-memory implementation of ledger.Store for tests and for
// running without a database. Not durable; a restart loses pending revokes.
type Ledger struct {
	mu   sync.Mutex
	rows map[uuid.UUID]ledger.Entitlement
}

func NewLedger() *Ledger {
	return &Ledger{rows: make(map[uuid.UUID]ledger.Entitlement)}
}

func (l *Ledger) Insert(ctx context.Context, e *ledger.Entitlement) error {
	_ = ctx
	l.mu.Lock()
	defer l.mu.Unlock()
	l.rows[e.ID] = *e
	return nil
}

func (l *Ledger) Due(ctx context.Context, now time.Time) ([]ledger.Entitlement, error) {
	_ = ctx
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []ledger.Entitlement
	for _, e := range l.rows {
		if e.ExpiresAt != nil && e.RevokedAt == nil && !e.ExpiresAt.After(now) {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ExpiresAt.Before(*out[j].ExpiresAt) })
	return out, nil
}

func (l *Ledger) MarkRevoked(ctx context.Context, id uuid.UUID, at time.Time) error {
	_ = ctx
	l.mu.Lock()
	defer l.mu.Unlock()
	e, ok := l.rows[id]
	if !ok || e.RevokedAt != nil {
		return nil
	}
	e.RevokedAt = &at
	l.rows[id] = e
	return nil
}

// All returns every row, for test assertions.
func (l *Ledger) All() []ledger.Entitlement {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]ledger.Entitlement, 0, len(l.rows))
	for _, e := range l.rows {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].GrantedAt.Before(out[j].GrantedAt) })
	return out
}
