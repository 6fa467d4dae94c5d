package memorystore

import (
	"context"
	"testing"
	"time"
)

func TestGuardDuplicateDetection(t *testing.T) {
	ctx := context.Background()
	g := NewGuard(0, 0)

	dup, err := g.IsDuplicate(ctx, "txn1")
	if err != nil {
		t.Fatal(err)
	}
	if dup {
		t.Fatal("fresh txn reported as duplicate")
	}

	if err := g.MarkInflight(ctx, "txn1"); err != nil {
		t.Fatal(err)
	}
	if dup, _ := g.IsDuplicate(ctx, "txn1"); !dup {
		t.Error("in-flight txn not reported as duplicate")
	}

	if err := g.MarkProcessed(ctx, "txn1"); err != nil {
		t.Fatal(err)
	}
	if dup, _ := g.IsDuplicate(ctx, "txn1"); !dup {
		t.Error("processed txn not reported as duplicate")
	}
}

func TestGuardRelease(t *testing.T) {
	ctx := context.Background()
	g := NewGuard(0, 0)

	_ = g.MarkInflight(ctx, "txn1")
	if err := g.Release(ctx, "txn1"); err != nil {
		t.Fatal(err)
	}
	if dup, _ := g.IsDuplicate(ctx, "txn1"); dup {
		t.Error("released txn still reported as duplicate")
	}
}

func TestGuardTTLExpiry(t *testing.T) {
	ctx := context.Background()
	g := NewGuard(5*time.Minute, 24*time.Hour)

	current := time.Now()
	g.now = func() time.Time { return current }

	_ = g.MarkInflight(ctx, "inflight")
	_ = g.MarkProcessed(ctx, "done")

	// Just past the in-flight window: the inflight mark is gone, the
	// processed mark survives.
	current = current.Add(5*time.Minute + time.Second)
	if dup, _ := g.IsDuplicate(ctx, "inflight"); dup {
		t.Error("in-flight mark survived its TTL")
	}
	if dup, _ := g.IsDuplicate(ctx, "done"); !dup {
		t.Error("processed mark expired too early")
	}

	current = current.Add(24 * time.Hour)
	if dup, _ := g.IsDuplicate(ctx, "done"); dup {
		t.Error("processed mark survived its TTL")
	}
}

func TestGuardProcessedSupersedesInflight(t *testing.T) {
	ctx := context.Background()
	g := NewGuard(time.Minute, 24*time.Hour)

	current := time.Now()
	g.now = func() time.Time { return current }

	_ = g.MarkInflight(ctx, "txn1")
	_ = g.MarkProcessed(ctx, "txn1")

	// Long after the in-flight TTL the processed mark still holds.
	current = current.Add(2 * time.Minute)
	if dup, _ := g.IsDuplicate(ctx, "txn1"); !dup {
		t.Error("processed mark did not supersede the in-flight mark")
	}
}
