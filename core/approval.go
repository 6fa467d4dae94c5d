package core

import "strings"

// approvedStatuses are the status spellings processors have used for a
// successful charge.
var approvedStatuses = map[string]struct{}{
	"success":  {},
	"approved": {},
	"ok":       {},
	"true":     {},
}

// Approved reports whether a payment should be fulfilled: either the status
// field matches a known-good value (case-insensitively) or the numeric
// response code is zero under any zero-padding ("0", "00", "000").
func Approved(status, responseCode string) bool {
	s := strings.ToLower(strings.TrimSpace(status))
	if _, ok := approvedStatuses[s]; ok {
		return true
	}
	return zeroCode(responseCode)
}

func zeroCode(code string) bool {
	code = strings.TrimSpace(code)
	if code == "" {
		return false
	}
	for _, r := range code {
		if r != '0' {
			return false
		}
	}
	return true
}
