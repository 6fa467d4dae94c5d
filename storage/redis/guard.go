package redisstore

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/loverust/paybridge/idem"
)

// Guard is a Redis-backed implementation of idem.Guard. Redis handles the
// TTL pruning; keys simply expire. The two tiers live under separate key
// namespaces so their lifetimes stay independent.
type Guard struct {
	rdb          *redis.Client
	keyNS        string
	inflightTTL  time.Duration
	processedTTL time.Duration
}

// NewGuard creates a Redis-backed guard. An empty prefix defaults to
// "pay:txn:"; non-positive TTLs fall back to the idem defaults.
func NewGuard(rdb *redis.Client, keyPrefix string, inflightTTL, processedTTL time.Duration) *Guard {
	if keyPrefix == "" {
		keyPrefix = "pay:txn:"
	}
	if inflightTTL <= 0 {
		inflightTTL = idem.DefaultInflightTTL
	}
	if processedTTL <= 0 {
		processedTTL = idem.DefaultProcessedTTL
	}
	return &Guard{rdb: rdb, keyNS: keyPrefix, inflightTTL: inflightTTL, processedTTL: processedTTL}
}

func (g *Guard) inflightKey(txnID string) string  { return g.keyNS + "inflight:" + txnID }
func (g *Guard) processedKey(txnID string) string { return g.keyNS + "done:" + txnID }

func (g *Guard) IsDuplicate(ctx context.Context, txnID string) (bool, error) {
	n, err := g.rdb.Exists(ctx, g.inflightKey(txnID), g.processedKey(txnID)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (g *Guard) MarkInflight(ctx context.Context, txnID string) error {
	return g.rdb.Set(ctx, g.inflightKey(txnID), "1", g.inflightTTL).Err()
}

func (g *Guard) MarkProcessed(ctx context.Context, txnID string) error {
	pipe := g.rdb.TxPipeline()
	pipe.Set(ctx, g.processedKey(txnID), "1", g.processedTTL)
	pipe.Del(ctx, g.inflightKey(txnID))
	_, err := pipe.Exec(ctx)
	return err
}

func (g *Guard) Release(ctx context.Context, txnID string) error {
	return g.rdb.Del(ctx, g.inflightKey(txnID)).Err()
}
