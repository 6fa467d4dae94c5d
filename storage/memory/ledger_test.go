package memorystore

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/loverust/paybridge/ledger"
)

func TestLedgerDueSelection(t *testing.T) {
	ctx := context.Background()
	l := NewLedger()
	now := time.Now()

	past1 := now.Add(-2 * time.Hour)
	past2 := now.Add(-time.Hour)
	future := now.Add(time.Hour)

	for _, e := range []ledger.Entitlement{
		{ID: uuid.New(), SteamID: "a", ExpiresAt: &past2, RevokeCommand: "r a"},
		{ID: uuid.New(), SteamID: "b", ExpiresAt: &past1, RevokeCommand: "r b"},
		{ID: uuid.New(), SteamID: "c", ExpiresAt: &future, RevokeCommand: "r c"},
		{ID: uuid.New(), SteamID: "d", RevokeCommand: "r d"}, // permanent
	} {
		e := e
		if err := l.Insert(ctx, &e); err != nil {
			t.Fatal(err)
		}
	}

	due, err := l.Due(ctx, now)
	if err != nil {
		t.Fatal(err)
	}
	if len(due) != 2 {
		t.Fatalf("due = %d rows, want 2", len(due))
	}
	// Ordered by expiry, oldest first.
	if due[0].SteamID != "b" || due[1].SteamID != "a" {
		t.Errorf("order = %s, %s", due[0].SteamID, due[1].SteamID)
	}
}

func TestLedgerMarkRevoked(t *testing.T) {
	ctx := context.Background()
	l := NewLedger()
	past := time.Now().Add(-time.Hour)

	e := ledger.Entitlement{ID: uuid.New(), SteamID: "a", ExpiresAt: &past}
	if err := l.Insert(ctx, &e); err != nil {
		t.Fatal(err)
	}
	if err := l.MarkRevoked(ctx, e.ID, time.Now()); err != nil {
		t.Fatal(err)
	}

	due, _ := l.Due(ctx, time.Now())
	if len(due) != 0 {
		t.Error("revoked entitlement still due")
	}
	if rows := l.All(); rows[0].RevokedAt == nil {
		t.Error("revoked_at not set")
	}
}
