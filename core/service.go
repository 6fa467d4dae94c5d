// Package core runs the fulfillment pipeline: probe the payment callback,
// check approval, normalize the product, guard against duplicate delivery,
// dispatch the grant, and record the outcome.
package core

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/loverust/paybridge/grant"
	"github.com/loverust/paybridge/idem"
	"github.com/loverust/paybridge/notify"
	"github.com/loverust/paybridge/sku"
)

// Validation failures rejected before the pipeline touches anything.
var (
	ErrInvalidPlayerID = errors.New("invalid steamid64")
	ErrMissingTxnID    = errors.New("missing transaction id")
	ErrRconUnavailable = errors.New("rcon unavailable")
)

var steamIDRe = regexp.MustCompile(`^\d{17}$`)

// donationTokens are recognized products that grant nothing in-game.
var donationTokens = map[string]struct{}{
	"coffee": {},
}

// OutcomeStatus classifies how a notification was handled.
type OutcomeStatus string

const (
	OutcomeGranted        OutcomeStatus = "granted"
	OutcomeDuplicate      OutcomeStatus = "duplicate"
	OutcomeNotApproved    OutcomeStatus = "not_approved"
	OutcomeUnknownProduct OutcomeStatus = "unknown_product"
	OutcomeDonation       OutcomeStatus = "donation"
)

// Outcome is the business result of a processed notification. All outcomes
// here answer 200 at the HTTP boundary; hard failures travel as errors.
type Outcome struct {
	Status      OutcomeStatus
	Reason      sku.Reason
	SKU         string
	Commands    []string
	SubFailures []grant.SubFailure
}

// Dispatcher is the grant execution boundary, satisfied by
// grant.Dispatcher.
type Dispatcher interface {
	Dispatch(ctx context.Context, desc sku.Descriptor, steamID, txnID string) (grant.Result, error)
}

// Console reports whether the remote command channel can be used at all.
type Console interface {
	Configured() bool
}

// Service wires the pipeline together.
type Service struct {
	mu         sync.Mutex
	guard      idem.Guard
	dispatcher Dispatcher
	console    Console
	notifier   notify.Notifier
	log        *logrus.Logger
	testAmount string
}

// Config collects Service collaborators. Guard and Dispatcher are required;
// the rest have safe defaults.
type Config struct {
	Guard      idem.Guard
	Dispatcher Dispatcher
	Console    Console
	Notifier   notify.Notifier
	Logger     *logrus.Logger

	// TestAmount is the processor's fixed test-charge amount; empty
	// disables the rainbow override.
	TestAmount string
}

func NewService(cfg Config) *Service {
	if cfg.Logger == nil {
		cfg.Logger = logrus.New()
	}
	return &Service{
		guard:      cfg.Guard,
		dispatcher: cfg.Dispatcher,
		console:    cfg.Console,
		notifier:   cfg.Notifier,
		log:        cfg.Logger,
		testAmount: cfg.TestAmount,
	}
}

// ProcessNotification runs one payment callback through the pipeline.
// Returned errors map to hard HTTP failures: ErrInvalidPlayerID and
// ErrMissingTxnID to 400, ErrRconUnavailable and dispatch failures to 502.
func (s *Service) ProcessNotification(ctx context.Context, n Notification) (Outcome, error) {
	log := s.log.WithFields(logrus.Fields{
		"steamid64": Truncate(n.SteamID),
		"txn_id":    Truncate(n.TxnID),
		"status":    Truncate(n.Status),
	})

	if !steamIDRe.MatchString(n.SteamID) {
		return Outcome{}, ErrInvalidPlayerID
	}

	if !Approved(n.Status, n.ResponseCode) {
		log.Info("payment not approved, ignoring")
		s.post(fmt.Sprintf("❌ Payment not successful\nSteamID: %s\nStatus: %s\nTxn: %s",
			n.SteamID, orEmpty(n.Status), orEmpty(n.TxnID)))
		return Outcome{Status: OutcomeNotApproved}, nil
	}

	if n.TxnID == "" {
		return Outcome{}, ErrMissingTxnID
	}

	desc, reason := sku.Normalize(n.ProductCandidates, n.Amount, s.testAmount)
	if reason != sku.ReasonNone {
		if s.isDonation(n.ProductCandidates) {
			log.Info("donation received, nothing to grant")
			s.post(fmt.Sprintf("☕ Donation received\nSteamID: %s\nTxn: %s", n.SteamID, n.TxnID))
			return Outcome{Status: OutcomeDonation}, nil
		}
		// Vendor vocabulary evolves independently of this bridge; an
		// unknown product is a business event, not a system error.
		log.WithField("reason", reason).Warn("unrecognized product, not granted")
		s.post(fmt.Sprintf("⚠️ Payment received but product is unknown\nSteamID: %s\nProduct: %s\nTxn: %s\nAction: NOT GRANTED",
			n.SteamID, Truncate(firstOr(n.ProductCandidates, "(empty)")), n.TxnID))
		return Outcome{Status: OutcomeUnknownProduct, Reason: reason}, nil
	}

	if s.console != nil && !s.console.Configured() {
		log.Error("rcon not configured, cannot grant")
		s.post(fmt.Sprintf("⚠️ Payment received but RCON is not configured\nSteamID: %s\nProduct: %s\nTxn: %s\nAction: NOT GRANTED",
			n.SteamID, desc.EffectiveSKU, n.TxnID))
		return Outcome{}, ErrRconUnavailable
	}

	// Check-and-mark must be atomic: two near-simultaneous deliveries of
	// the same webhook must not both pass the duplicate check.
	dup, err := s.acquire(ctx, n.TxnID)
	if err != nil {
		return Outcome{}, err
	}
	if dup {
		log.Info("duplicate delivery, skipping")
		return Outcome{Status: OutcomeDuplicate, SKU: desc.EffectiveSKU}, nil
	}

	res, err := s.dispatcher.Dispatch(ctx, desc, n.SteamID, n.TxnID)
	if err != nil {
		// Release so the vendor's natural retry can land once the
		// console recovers.
		if relErr := s.guard.Release(ctx, n.TxnID); relErr != nil {
			log.WithError(relErr).Error("failed to release in-flight mark")
		}
		s.post(fmt.Sprintf("❌ RCON failed\nSteamID: %s\nProduct: %s\nTxn: %s\nError: %v",
			n.SteamID, desc.EffectiveSKU, n.TxnID, err))
		return Outcome{}, fmt.Errorf("grant dispatch: %w", err)
	}

	if err := s.guard.MarkProcessed(ctx, n.TxnID); err != nil {
		log.WithError(err).Error("failed to mark transaction processed")
	}

	msg := fmt.Sprintf("✅ **New Purchase**\n**Player (SteamID64):** %s\n**Product:** %s\n**Txn:** %s",
		n.SteamID, desc.EffectiveSKU, n.TxnID)
	for _, f := range res.SubFailures {
		msg += fmt.Sprintf("\n**Sub-failure:** `%s`", f.Command)
	}
	if desc.Kind == sku.KindRainbow {
		msg += "\n**Note:** Player can use `/cc rainbow` in-game."
	}
	s.post(msg)

	log.WithField("sku", desc.EffectiveSKU).Info("grant fulfilled")
	return Outcome{
		Status:      OutcomeGranted,
		SKU:         desc.EffectiveSKU,
		Commands:    res.Commands,
		SubFailures: res.SubFailures,
	}, nil
}

// acquire atomically checks for a duplicate and, when the transaction is
// new, marks it in-flight. The mutex closes the window between check and
// mark that concurrent handlers would otherwise race through.
func (s *Service) acquire(ctx context.Context, txnID string) (duplicate bool, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	dup, err := s.guard.IsDuplicate(ctx, txnID)
	if err != nil {
		return false, fmt.Errorf("idempotency check: %w", err)
	}
	if dup {
		return true, nil
	}
	if err := s.guard.MarkInflight(ctx, txnID); err != nil {
		return false, fmt.Errorf("idempotency mark: %w", err)
	}
	return false, nil
}

func (s *Service) isDonation(candidates []string) bool {
	for _, c := range candidates {
		if _, ok := donationTokens[sku.CleanToken(c)]; ok {
			return true
		}
	}
	return false
}

func (s *Service) post(content string) {
	notify.Async(s.notifier, s.log, content)
}

func orEmpty(v string) string {
	if v == "" {
		return "(empty)"
	}
	return v
}

func firstOr(values []string, fallback string) string {
	if len(values) > 0 {
		return values[0]
	}
	return fallback
}
