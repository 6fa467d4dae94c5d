// Package grant resolves normalized descriptors into console command
// sequences and executes them against the game server.
package grant

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/loverust/paybridge/ledger"
	"github.com/loverust/paybridge/rcon"
	"github.com/loverust/paybridge/sku"
)

const (
	// DefaultStepDelay spaces consecutive commands so the console is
	// never burst.
	DefaultStepDelay = 300 * time.Millisecond

	// DefaultFirstTimeout bounds the critical first command; later
	// commands get the looser DefaultLaterTimeout.
	DefaultFirstTimeout = 5 * time.Second
	DefaultLaterTimeout = 8 * time.Second
)

// SubFailure records a non-critical command that failed during an otherwise
// successful grant.
type SubFailure struct {
	Command string
	Err     error
}

// Result describes a completed dispatch.
type Result struct {
	Commands     []string
	SubFailures  []SubFailure
	Entitlements []ledger.Entitlement
}

// Partial reports whether some non-critical step failed.
func (r Result) Partial() bool { return len(r.SubFailures) > 0 }

// Dispatcher turns descriptors into executed grants. It owns the
// partial-failure policy: a failed critical step aborts the grant, a failed
// non-critical step is swallowed into the result.
type Dispatcher struct {
	rcon   rcon.Commander
	store  ledger.Store
	log    *logrus.Logger
	clock  func() time.Time
	sleep  func(time.Duration)
	delay  time.Duration
	firstT time.Duration
	laterT time.Duration
}

// NewDispatcher wires a dispatcher. A store is required so revokable grants
// can be swept; a nil logger gets a default.
func NewDispatcher(commander rcon.Commander, store ledger.Store, log *logrus.Logger) *Dispatcher {
	if log == nil {
		log = logrus.New()
	}
	return &Dispatcher{
		rcon:   commander,
		store:  store,
		log:    log,
		clock:  time.Now,
		sleep:  time.Sleep,
		delay:  DefaultStepDelay,
		firstT: DefaultFirstTimeout,
		laterT: DefaultLaterTimeout,
	}
}

// Dispatch executes the command sequence for desc on behalf of steamID.
// The returned error is non-nil only when a critical step failed; the
// caller must then release its idempotency mark so the vendor retry can
// land.
func (d *Dispatcher) Dispatch(ctx context.Context, desc sku.Descriptor, steamID, txnID string) (Result, error) {
	templates := Templates(desc.Kind)
	if len(templates) == 0 {
		return Result{}, fmt.Errorf("grant: no commands for kind %q", desc.Kind)
	}

	grantedAt := d.clock()
	var res Result

	for i, tpl := range templates {
		if i > 0 {
			d.sleep(d.delay)
		}
		timeout := d.laterT
		if i == 0 {
			timeout = d.firstT
		}

		cmd := Render(tpl.Command, steamID, desc.Duration.Token())
		_, err := d.rcon.Send(ctx, cmd, timeout)
		if err != nil {
			if tpl.Critical {
				return res, fmt.Errorf("grant: critical command failed: %w", err)
			}
			d.log.WithFields(logrus.Fields{
				"txn_id": txnID,
				"cmd":    cmd,
			}).WithError(err).Warn("non-critical grant command failed")
			res.SubFailures = append(res.SubFailures, SubFailure{Command: cmd, Err: err})
			continue
		}
		res.Commands = append(res.Commands, cmd)

		// Only executed steps with a revoke action and a bounded
		// duration create revoke obligations.
		if tpl.Revoke == "" || desc.Duration.Permanent {
			continue
		}
		expires := grantedAt.Add(desc.Duration.Length())
		ent := ledger.Entitlement{
			ID:            uuid.New(),
			SteamID:       steamID,
			SKU:           desc.EffectiveSKU,
			TxnID:         txnID,
			GrantedAt:     grantedAt,
			ExpiresAt:     &expires,
			RevokeCommand: Render(tpl.Revoke, steamID, desc.Duration.Token()),
		}
		if err := d.store.Insert(ctx, &ent); err != nil {
			// The player already has the grant; losing the row only
			// loses the future revoke. Surface loudly but do not
			// fail the purchase.
			d.log.WithFields(logrus.Fields{
				"txn_id": txnID,
				"sku":    desc.EffectiveSKU,
			}).WithError(err).Error("failed to persist entitlement; revoke will not be swept")
			continue
		}
		res.Entitlements = append(res.Entitlements, ent)
	}
	return res, nil
}
