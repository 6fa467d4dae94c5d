package core

import "strings"

// Source is one place a payload field can come from. Sources are consulted
// in order (body first, then query) so the probing stays independent of the
// HTTP layer.
type Source map[string]string

// Processor payloads have drifted over the years; each logical field is
// probed under every key name that has ever been observed, in priority
// order. First non-empty value wins.
var (
	playerIDKeys = []string{"steamid64", "steam_id", "steamid", "userid", "contact", "customer_id"}
	productKeys  = []string{"product", "product_id", "item", "plan", "custom2", "pdesc", "description", "product_description"}
	statusKeys   = []string{"status", "payment_status", "result", "resp", "response", "response_code"}
	txnKeys      = []string{"txn_id", "transaction_id", "order_id", "index", "confirmation_code"}
	amountKeys   = []string{"amount", "sum", "price", "total"}
	respCodeKeys = []string{"response_code", "resp_code", "responseCode"}
	secretKeys   = []string{"secret", "api_secret", "token"}
)

// Notification is the probed, HTTP-independent view of an inbound payment
// callback.
type Notification struct {
	SteamID      string
	Status       string
	TxnID        string
	Amount       string
	ResponseCode string
	Secret       string

	// ProductCandidates holds every product-ish value found, in key
	// priority order, for the normalizer to try.
	ProductCandidates []string
}

// PickFirst returns the first non-empty trimmed value for keys across
// sources.
func PickFirst(sources []Source, keys []string) string {
	for _, src := range sources {
		for _, k := range keys {
			if v, ok := src[k]; ok {
				if t := strings.TrimSpace(v); t != "" {
					return t
				}
			}
		}
	}
	return ""
}

// pickAll returns every non-empty value for keys across sources, preserving
// key priority order and dropping duplicates.
func pickAll(sources []Source, keys []string) []string {
	var out []string
	seen := make(map[string]struct{})
	for _, src := range sources {
		for _, k := range keys {
			v, ok := src[k]
			if !ok {
				continue
			}
			t := strings.TrimSpace(v)
			if t == "" {
				continue
			}
			if _, dup := seen[t]; dup {
				continue
			}
			seen[t] = struct{}{}
			out = append(out, t)
		}
	}
	return out
}

// Extract probes all logical fields from the given sources.
func Extract(sources []Source) Notification {
	return Notification{
		SteamID:           PickFirst(sources, playerIDKeys),
		Status:            PickFirst(sources, statusKeys),
		TxnID:             PickFirst(sources, txnKeys),
		Amount:            PickFirst(sources, amountKeys),
		ResponseCode:      PickFirst(sources, respCodeKeys),
		Secret:            PickFirst(sources, secretKeys),
		ProductCandidates: pickAll(sources, productKeys),
	}
}

// Truncate bounds untrusted payload values before they reach logs.
func Truncate(v string) string {
	const max = 80
	if len(v) <= max {
		return v
	}
	return v[:max] + "..."
}
