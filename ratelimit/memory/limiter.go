// Package memorylimiter is a single-node sliding-window rate limiter used
// when Redis is not configured. Payment processors retry aggressively on
// non-200 answers, so limits here should stay generous.
package memorylimiter

import (
	"fmt"
	"sync"
	"time"
)

// Limit defines window and max count for a bucket.
type Limit struct {
	Limit  int
	Window time.Duration
}

// Limiter tracks request timestamps per bucket+key in memory.
type Limiter struct {
	mu      sync.Mutex
	limits  map[string]Limit
	history map[string][]int64
	now     func() time.Time
}

// New constructs an in-memory limiter with the provided per-bucket limits.
// A "default" bucket entry covers anything not listed.
func New(limits map[string]Limit) *Limiter {
	if limits == nil {
		limits = map[string]Limit{}
	}
	return &Limiter{
		limits:  limits,
		history: make(map[string][]int64),
		now:     time.Now,
	}
}

func (l *Limiter) limitFor(bucket string) Limit {
	if v, ok := l.limits[bucket]; ok {
		return v
	}
	if v, ok := l.limits["default"]; ok {
		return v
	}
	return Limit{Limit: 100, Window: time.Minute}
}

// AllowNamed reports whether one more request in bucket for key fits the
// window. Expired timestamps are pruned on every call; empty histories are
// dropped so memory stays bounded.
func (l *Limiter) AllowNamed(bucket, key string) (bool, error) {
	if l == nil {
		return true, nil
	}
	if bucket == "" || key == "" {
		return false, fmt.Errorf("bucket and key required")
	}

	lim := l.limitFor(bucket)
	nowMs := l.now().UnixNano() / 1e6
	windowStart := nowMs - lim.Window.Milliseconds()
	histKey := key + ":" + bucket

	l.mu.Lock()
	defer l.mu.Unlock()

	ts := l.history[histKey]
	for len(ts) > 0 && ts[0] < windowStart {
		ts = ts[1:]
	}

	if len(ts) >= lim.Limit {
		l.history[histKey] = ts
		return false, nil
	}

	ts = append(ts, nowMs)
	l.history[histKey] = ts
	return true, nil
}
