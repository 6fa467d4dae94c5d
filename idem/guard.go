// Package idem defines the duplicate-delivery guard for payment
// transactions. Implementations live under storage/.
package idem

import (
	"context"
	"time"
)

// Default retention windows. Completed work is remembered long enough to
// reject late resubmits; in-flight marks only need to cover the window in
// which a vendor can deliver the same webhook twice.
const (
	DefaultProcessedTTL = 24 * time.Hour
	DefaultInflightTTL  = 5 * time.Minute
)

// Guard tracks which transaction ids have been fulfilled or are being
// fulfilled right now. MarkInflight must be called before any suspending
// operation so that two near-simultaneous deliveries cannot both pass
// IsDuplicate.
type Guard interface {
	// IsDuplicate reports whether txnID is already in-flight or processed.
	IsDuplicate(ctx context.Context, txnID string) (bool, error)

	// MarkInflight records txnID as being worked on.
	MarkInflight(ctx context.Context, txnID string) error

	// MarkProcessed records txnID as fully completed, superseding any
	// in-flight mark.
	MarkProcessed(ctx context.Context, txnID string) error

	// Release drops the in-flight mark after a terminal dispatch failure
	// so a legitimate vendor retry is not blocked.
	Release(ctx context.Context, txnID string) error
}
