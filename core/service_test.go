package core

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/loverust/paybridge/grant"
	"github.com/loverust/paybridge/sku"
	memorystore "github.com/loverust/paybridge/storage/memory"
)

type fakeDispatcher struct {
	mu        sync.Mutex
	calls     int32
	fail      bool
	result    grant.Result
	lastDesc  sku.Descriptor
	lastSteam string
}

func (f *fakeDispatcher) Dispatch(ctx context.Context, desc sku.Descriptor, steamID, txnID string) (grant.Result, error) {
	atomic.AddInt32(&f.calls, 1)
	f.mu.Lock()
	f.lastDesc = desc
	f.lastSteam = steamID
	f.mu.Unlock()
	if f.fail {
		return grant.Result{}, errors.New("critical command failed")
	}
	return f.result, nil
}

type fakeConsole struct{ configured bool }

func (f fakeConsole) Configured() bool { return f.configured }

func approvedNotification() Notification {
	return Notification{
		SteamID:           "76561199026505924",
		Status:            "approved",
		TxnID:             "abc123",
		ResponseCode:      "000",
		ProductCandidates: []string{"vip_30d"},
	}
}

func newTestService(d Dispatcher) (*Service, *memorystore.Guard) {
	guard := memorystore.NewGuard(0, 0)
	svc := NewService(Config{
		Guard:      guard,
		Dispatcher: d,
		Console:    fakeConsole{configured: true},
	})
	return svc, guard
}

func TestProcessGrantsOnce(t *testing.T) {
	d := &fakeDispatcher{result: grant.Result{Commands: []string{"loverustvip.grant x 30d"}}}
	svc, _ := newTestService(d)

	out, err := svc.ProcessNotification(context.Background(), approvedNotification())
	if err != nil {
		t.Fatalf("process: %v", err)
	}
	if out.Status != OutcomeGranted {
		t.Fatalf("status = %q, want granted", out.Status)
	}
	if out.SKU != "vip_30d" {
		t.Errorf("sku = %q", out.SKU)
	}

	// Resubmission after completion is a duplicate with zero dispatches.
	out, err = svc.ProcessNotification(context.Background(), approvedNotification())
	if err != nil {
		t.Fatalf("resubmit: %v", err)
	}
	if out.Status != OutcomeDuplicate {
		t.Errorf("status = %q, want duplicate", out.Status)
	}
	if atomic.LoadInt32(&d.calls) != 1 {
		t.Errorf("dispatch calls = %d, want 1", d.calls)
	}
}

func TestProcessConcurrentDuplicates(t *testing.T) {
	d := &fakeDispatcher{}
	svc, _ := newTestService(d)

	const workers = 8
	var wg sync.WaitGroup
	var granted int32
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			out, err := svc.ProcessNotification(context.Background(), approvedNotification())
			if err == nil && out.Status == OutcomeGranted {
				atomic.AddInt32(&granted, 1)
			}
		}()
	}
	wg.Wait()

	if atomic.LoadInt32(&d.calls) != 1 {
		t.Errorf("dispatch calls = %d, want exactly 1", d.calls)
	}
	if granted != 1 {
		t.Errorf("granted outcomes = %d, want exactly 1", granted)
	}
}

func TestProcessReleasesOnDispatchFailure(t *testing.T) {
	d := &fakeDispatcher{fail: true}
	svc, _ := newTestService(d)

	if _, err := svc.ProcessNotification(context.Background(), approvedNotification()); err == nil {
		t.Fatal("expected dispatch error")
	}

	// The vendor retry must get through once dispatch recovers.
	d.fail = false
	out, err := svc.ProcessNotification(context.Background(), approvedNotification())
	if err != nil {
		t.Fatalf("retry: %v", err)
	}
	if out.Status != OutcomeGranted {
		t.Errorf("status = %q, want granted", out.Status)
	}
}

func TestProcessValidation(t *testing.T) {
	d := &fakeDispatcher{}
	svc, _ := newTestService(d)

	n := approvedNotification()
	n.SteamID = "not-a-steamid"
	if _, err := svc.ProcessNotification(context.Background(), n); !errors.Is(err, ErrInvalidPlayerID) {
		t.Errorf("err = %v, want ErrInvalidPlayerID", err)
	}

	n = approvedNotification()
	n.TxnID = ""
	if _, err := svc.ProcessNotification(context.Background(), n); !errors.Is(err, ErrMissingTxnID) {
		t.Errorf("err = %v, want ErrMissingTxnID", err)
	}

	if atomic.LoadInt32(&d.calls) != 0 {
		t.Errorf("validation failures must not dispatch (calls = %d)", d.calls)
	}
}

func TestProcessNotApproved(t *testing.T) {
	d := &fakeDispatcher{}
	svc, _ := newTestService(d)

	n := approvedNotification()
	n.Status = "declined"
	n.ResponseCode = "051"
	out, err := svc.ProcessNotification(context.Background(), n)
	if err != nil {
		t.Fatal(err)
	}
	if out.Status != OutcomeNotApproved {
		t.Errorf("status = %q, want not_approved", out.Status)
	}
	if atomic.LoadInt32(&d.calls) != 0 {
		t.Error("unapproved payment dispatched a grant")
	}
}

func TestProcessUnknownProduct(t *testing.T) {
	d := &fakeDispatcher{}
	svc, guard := newTestService(d)

	n := approvedNotification()
	n.ProductCandidates = []string{"mystery_box"}
	out, err := svc.ProcessNotification(context.Background(), n)
	if err != nil {
		t.Fatal(err)
	}
	if out.Status != OutcomeUnknownProduct {
		t.Errorf("status = %q, want unknown_product", out.Status)
	}
	if out.Reason != sku.ReasonUnsupportedProduct {
		t.Errorf("reason = %q", out.Reason)
	}
	// Unknown products must not consume the transaction id; the same txn
	// may arrive later with a fixed vocabulary.
	if dup, _ := guard.IsDuplicate(context.Background(), n.TxnID); dup {
		t.Error("unknown product marked txn as duplicate")
	}
}

func TestProcessDonation(t *testing.T) {
	d := &fakeDispatcher{}
	svc, _ := newTestService(d)

	n := approvedNotification()
	n.ProductCandidates = []string{"Coffee"}
	out, err := svc.ProcessNotification(context.Background(), n)
	if err != nil {
		t.Fatal(err)
	}
	if out.Status != OutcomeDonation {
		t.Errorf("status = %q, want donation", out.Status)
	}
	if atomic.LoadInt32(&d.calls) != 0 {
		t.Error("donation dispatched a grant")
	}
}

func TestProcessRconUnavailable(t *testing.T) {
	guard := memorystore.NewGuard(0, 0)
	d := &fakeDispatcher{}
	svc := NewService(Config{
		Guard:      guard,
		Dispatcher: d,
		Console:    fakeConsole{configured: false},
	})

	_, err := svc.ProcessNotification(context.Background(), approvedNotification())
	if !errors.Is(err, ErrRconUnavailable) {
		t.Fatalf("err = %v, want ErrRconUnavailable", err)
	}
	// Nothing marked; the retry must work once the console is up.
	if dup, _ := guard.IsDuplicate(context.Background(), "abc123"); dup {
		t.Error("unavailable console consumed the txn id")
	}
}

func TestProcessPartialFailureStillSuccess(t *testing.T) {
	d := &fakeDispatcher{result: grant.Result{
		Commands:    []string{"loverustvip.grant x 30d"},
		SubFailures: []grant.SubFailure{{Command: "oxide.usergroup add x vip", Err: errors.New("boom")}},
	}}
	svc, guard := newTestService(d)

	out, err := svc.ProcessNotification(context.Background(), approvedNotification())
	if err != nil {
		t.Fatalf("process: %v", err)
	}
	if out.Status != OutcomeGranted {
		t.Errorf("status = %q, want granted", out.Status)
	}
	if len(out.SubFailures) != 1 {
		t.Errorf("sub-failures = %v", out.SubFailures)
	}
	// Partial success still consumes the transaction.
	if dup, _ := guard.IsDuplicate(context.Background(), "abc123"); !dup {
		t.Error("partial success did not mark txn processed")
	}
}
