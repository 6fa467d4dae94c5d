// Package sku normalizes raw product identifiers from payment-processor
// payloads into canonical grant descriptors.
package sku

import (
	"regexp"
	"strconv"
	"strings"
)

// Kind identifies what a purchase grants on the game server.
type Kind string

const (
	KindVIP     Kind = "vip"
	KindRainbow Kind = "rainbow"
)

// Reason explains why no descriptor could be derived. The empty string
// means success.
type Reason string

const (
	ReasonNone                Reason = ""
	ReasonEmptySKU            Reason = "empty_sku"
	ReasonUnsupportedProduct  Reason = "unsupported_product"
	ReasonInvalidDuration     Reason = "invalid_duration"
	ReasonNonPositiveDuration Reason = "non_positive_duration"
)

// Descriptor is the canonical, immutable result of normalization.
type Descriptor struct {
	Kind         Kind
	Duration     Duration
	EffectiveSKU string
}

// aliases maps historical spellings seen in live processor payloads to
// canonical tokens. Keys are post-normalization (lowercase, underscores).
var aliases = map[string]string{
	"vip_monthly": "vip_30d",
	"vipmonthly":  "vip_30d",
	"vip_30":      "vip_30d",
	"vip30":       "vip_30d",
	"vip_month":   "vip_30d",
	"rainbow_30":  "rainbow_30d",
	"rainbow30":   "rainbow_30d",
	"rainbowname": "rainbow_30d",
}

var collapseRe = regexp.MustCompile(`[\s\-]+`)
var underscoreRe = regexp.MustCompile(`_+`)

// CleanToken lowercases, collapses whitespace and hyphens to single
// underscores, and trims leading/trailing underscores.
func CleanToken(raw string) string {
	s := strings.ToLower(strings.TrimSpace(raw))
	s = collapseRe.ReplaceAllString(s, "_")
	s = underscoreRe.ReplaceAllString(s, "_")
	return strings.Trim(s, "_")
}

// Normalize derives a grant descriptor from raw candidate strings, tried in
// priority order; the first non-empty candidate wins. The paid amount is
// consulted only for the test-charge override. A non-empty Reason means no
// descriptor was produced; callers decide whether that is a hard rejection.
func Normalize(candidates []string, amount string, testAmount string) (Descriptor, Reason) {
	token := ""
	for _, c := range candidates {
		if t := CleanToken(c); t != "" {
			token = t
			break
		}
	}

	// Processor test charges always carry the designated minimal amount.
	// When one arrives with anything rainbow-flavored, force the canonical
	// rainbow grant regardless of the literal token.
	if testAmount != "" && amountsEqual(amount, testAmount) {
		for _, c := range candidates {
			if strings.Contains(strings.ToLower(c), string(KindRainbow)) {
				return Descriptor{
					Kind:         KindRainbow,
					Duration:     Duration{Amount: 30, Unit: UnitDays},
					EffectiveSKU: "rainbow_30d",
				}, ReasonNone
			}
		}
	}

	if token == "" {
		return Descriptor{}, ReasonEmptySKU
	}
	if alias, ok := aliases[token]; ok {
		token = alias
	}

	kind, durToken := splitToken(token)
	switch kind {
	case KindVIP, KindRainbow:
	default:
		return Descriptor{}, ReasonUnsupportedProduct
	}

	dur, reason := parseDuration(durToken)
	if reason != ReasonNone {
		return Descriptor{}, reason
	}

	return Descriptor{
		Kind:         kind,
		Duration:     dur,
		EffectiveSKU: string(kind) + "_" + dur.Token(),
	}, ReasonNone
}

// splitToken separates <kind>[_<duration>]. Only the first underscore
// matters; the duration token may itself be empty. Fused spellings with no
// separator at all ("vip30d") carry the kind as a bare prefix, recognized
// only when the remainder reads like a duration so that unrelated products
// sharing the prefix ("viper") still fail as unsupported.
func splitToken(token string) (Kind, string) {
	if i := strings.IndexByte(token, '_'); i >= 0 {
		return Kind(token[:i]), token[i+1:]
	}
	for _, k := range []Kind{KindRainbow, KindVIP} {
		if rest, ok := strings.CutPrefix(token, string(k)); ok && looksLikeDuration(rest) {
			return k, rest
		}
	}
	return Kind(token), ""
}

func looksLikeDuration(s string) bool {
	if s == "" {
		return false
	}
	return (s[0] >= '0' && s[0] <= '9') || s == "perm" || s == "permanent"
}

// amountsEqual compares two monetary strings numerically, so "1", "1.0" and
// "1.00" all match.
func amountsEqual(a, b string) bool {
	av, errA := strconv.ParseFloat(strings.TrimSpace(a), 64)
	bv, errB := strconv.ParseFloat(strings.TrimSpace(b), 64)
	if errA != nil || errB != nil {
		return false
	}
	return av == bv
}
