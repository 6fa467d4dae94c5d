// Package ledger owns the durable record of time-bounded grants. Rows are
// inserted when a grant dispatches, mutated only by the sweep (setting
// revoked_at), and never deleted.
package ledger

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Entitlement is one revokable grant tied to a payment transaction.
// ExpiresAt nil means permanent; RevokedAt nil means still active.
type Entitlement struct {
	ID            uuid.UUID  `json:"id"`
	SteamID       string     `json:"steamid64"`
	SKU           string     `json:"sku"`
	TxnID         string     `json:"txn_id"`
	GrantedAt     time.Time  `json:"granted_at"`
	ExpiresAt     *time.Time `json:"expires_at,omitempty"`
	RevokedAt     *time.Time `json:"revoked_at,omitempty"`
	RevokeCommand string     `json:"revoke_command"`
}

// Store is the persistence boundary for entitlements.
type Store interface {
	// Insert persists a new entitlement. The caller assigns the ID.
	Insert(ctx context.Context, e *Entitlement) error

	// Due returns entitlements whose expiry has passed and that have not
	// been revoked yet.
	Due(ctx context.Context, now time.Time) ([]Entitlement, error)

	// MarkRevoked records a successful revoke.
	MarkRevoked(ctx context.Context, id uuid.UUID, at time.Time) error
}
