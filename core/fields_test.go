package core

import (
	"reflect"
	"testing"
)

func TestPickFirstPriorityAcrossSources(t *testing.T) {
	body := Source{"steam_id": "111", "userid": "222"}
	query := Source{"steamid64": "333"}

	// Body is consulted before query, and within a source the key order
	// decides.
	if got := PickFirst([]Source{body, query}, playerIDKeys); got != "111" {
		t.Errorf("got %q, want 111", got)
	}
	if got := PickFirst([]Source{{}, query}, playerIDKeys); got != "333" {
		t.Errorf("got %q, want 333", got)
	}
}

func TestPickFirstSkipsBlank(t *testing.T) {
	src := Source{"txn_id": "   ", "order_id": "abc123"}
	if got := PickFirst([]Source{src}, txnKeys); got != "abc123" {
		t.Errorf("got %q, want abc123", got)
	}
	if got := PickFirst([]Source{src}, []string{"missing"}); got != "" {
		t.Errorf("got %q, want empty", got)
	}
}

func TestExtractProductCandidates(t *testing.T) {
	body := Source{"description": "VIP Monthly", "product": "vip_30d"}
	query := Source{"custom2": "vip_30d"}

	n := Extract([]Source{body, query})
	// Key priority order within the body, duplicate from query dropped.
	want := []string{"vip_30d", "VIP Monthly"}
	if !reflect.DeepEqual(n.ProductCandidates, want) {
		t.Errorf("candidates = %v, want %v", n.ProductCandidates, want)
	}
}

func TestExtractAllFields(t *testing.T) {
	body := Source{
		"steamid64":     "76561199026505924",
		"product":       "vip_30d",
		"status":        "approved",
		"txn_id":        "abc123",
		"amount":        "19.90",
		"response_code": "000",
		"secret":        "hunter2",
	}
	n := Extract([]Source{body})
	if n.SteamID != "76561199026505924" || n.Status != "approved" || n.TxnID != "abc123" ||
		n.Amount != "19.90" || n.ResponseCode != "000" || n.Secret != "hunter2" {
		t.Errorf("extract mismatch: %+v", n)
	}
}

func TestTruncate(t *testing.T) {
	long := make([]byte, 200)
	for i := range long {
		long[i] = 'a'
	}
	if got := Truncate(string(long)); len(got) != 83 {
		t.Errorf("len = %d, want 83", len(got))
	}
	if got := Truncate("short"); got != "short" {
		t.Errorf("got %q", got)
	}
}
