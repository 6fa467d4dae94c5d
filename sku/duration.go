package sku

import (
	"strconv"
	"strings"
	"time"
)

// Unit is a duration unit accepted in SKU tokens.
type Unit string

const (
	UnitMinutes Unit = "m"
	UnitHours   Unit = "h"
	UnitDays    Unit = "d"
	UnitWeeks   Unit = "w"
	UnitMonths  Unit = "mo"
)

// caps bounds each unit's magnitude; requests above the cap are clamped
// down rather than rejected, so an over-eager storefront entry still grants.
var caps = map[Unit]int{
	UnitMinutes: 43200,
	UnitHours:   720,
	UnitDays:    30,
	UnitWeeks:   4,
	UnitMonths:  1,
}

var unitLength = map[Unit]time.Duration{
	UnitMinutes: time.Minute,
	UnitHours:   time.Hour,
	UnitDays:    24 * time.Hour,
	UnitWeeks:   7 * 24 * time.Hour,
	UnitMonths:  30 * 24 * time.Hour,
}

// Duration is a grant lifetime as expressed in a SKU token.
type Duration struct {
	Amount    int
	Unit      Unit
	Permanent bool
}

// Token renders the duration in command-line form ("30d", "perm").
func (d Duration) Token() string {
	if d.Permanent {
		return "perm"
	}
	return strconv.Itoa(d.Amount) + string(d.Unit)
}

// Length converts to a wall-clock duration. Permanent grants report zero;
// callers must check Permanent before using this for expiry math.
func (d Duration) Length() time.Duration {
	if d.Permanent {
		return 0
	}
	return time.Duration(d.Amount) * unitLength[d.Unit]
}

// parseDuration understands "perm"/"permanent", a bare positive integer
// (days), or <integer><unit>. The empty token defaults to 30 days.
func parseDuration(token string) (Duration, Reason) {
	if token == "" {
		return Duration{Amount: 30, Unit: UnitDays}, ReasonNone
	}
	if token == "perm" || token == "permanent" {
		return Duration{Permanent: true}, ReasonNone
	}

	if n, err := strconv.Atoi(token); err == nil {
		if n <= 0 {
			return Duration{}, ReasonNonPositiveDuration
		}
		return clamp(Duration{Amount: n, Unit: UnitDays}), ReasonNone
	}

	for _, unit := range []Unit{UnitMonths, UnitMinutes, UnitHours, UnitDays, UnitWeeks} {
		if !strings.HasSuffix(token, string(unit)) {
			continue
		}
		digits := strings.TrimSuffix(token, string(unit))
		n, err := strconv.Atoi(digits)
		if err != nil {
			return Duration{}, ReasonInvalidDuration
		}
		if n <= 0 {
			return Duration{}, ReasonNonPositiveDuration
		}
		return clamp(Duration{Amount: n, Unit: unit}), ReasonNone
	}
	return Duration{}, ReasonInvalidDuration
}

func clamp(d Duration) Duration {
	if cap, ok := caps[d.Unit]; ok && d.Amount > cap {
		d.Amount = cap
	}
	return d
}
