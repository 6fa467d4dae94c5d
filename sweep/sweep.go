// Package sweep revokes expired entitlements on a fixed schedule.
package sweep

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/loverust/paybridge/ledger"
	"github.com/loverust/paybridge/rcon"
)

const revokeTimeout = 8 * time.Second

// Availability lets the sweeper skip ticks while the console is down
// without marking anything. The rcon client satisfies it.
type Availability interface {
	Configured() bool
}

// Sweeper scans the ledger every interval and issues stored revoke
// commands. A failed revoke leaves its row untouched; the next tick picks
// it up again. Retries are unbounded with no backoff: the row is the retry
// state.
type Sweeper struct {
	store    ledger.Store
	rcon     rcon.Commander
	avail    Availability
	log      *logrus.Logger
	interval time.Duration
	cron     *cron.Cron
	clock    func() time.Time
}

// New creates a sweeper. A non-positive interval defaults to one minute.
func New(store ledger.Store, commander rcon.Commander, avail Availability, interval time.Duration, log *logrus.Logger) *Sweeper {
	if interval <= 0 {
		interval = time.Minute
	}
	if log == nil {
		log = logrus.New()
	}
	return &Sweeper{
		store:    store,
		rcon:     commander,
		avail:    avail,
		log:      log,
		interval: interval,
		clock:    time.Now,
	}
}

// Start schedules the sweep. It returns immediately; ticks run on the cron
// scheduler's goroutine.
func (s *Sweeper) Start() error {
	s.cron = cron.New()
	_, err := s.cron.AddFunc("@every "+s.interval.String(), func() {
		s.Tick(context.Background())
	})
	if err != nil {
		return err
	}
	s.cron.Start()
	return nil
}

// Stop halts the scheduler and waits for a running tick to finish.
func (s *Sweeper) Stop() {
	if s.cron != nil {
		<-s.cron.Stop().Done()
	}
}

// Tick performs one sweep pass. Exported so tests and operators can force a
// pass without waiting for the schedule.
func (s *Sweeper) Tick(ctx context.Context) {
	if s.avail != nil && !s.avail.Configured() {
		s.log.Warn("sweep: console unavailable, skipping tick")
		return
	}

	now := s.clock()
	due, err := s.store.Due(ctx, now)
	if err != nil {
		s.log.WithError(err).Error("sweep: loading due entitlements failed")
		return
	}

	for _, e := range due {
		log := s.log.WithFields(logrus.Fields{
			"entitlement": e.ID,
			"steamid64":   e.SteamID,
			"sku":         e.SKU,
		})
		if _, err := s.rcon.Send(ctx, e.RevokeCommand, revokeTimeout); err != nil {
			// Left unmarked on purpose; the next tick retries.
			log.WithError(err).Warn("sweep: revoke failed, will retry")
			continue
		}
		if err := s.store.MarkRevoked(ctx, e.ID, s.clock()); err != nil {
			log.WithError(err).Error("sweep: revoked on server but failed to mark; revoke will repeat")
			continue
		}
		log.Info("sweep: entitlement revoked")
	}
}
