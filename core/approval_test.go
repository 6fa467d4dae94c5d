package core

import "testing"

func TestApprovedStatuses(t *testing.T) {
	for _, s := range []string{"success", "APPROVED", "Ok", "true", " approved "} {
		if !Approved(s, "") {
			t.Errorf("status %q should be approved", s)
		}
	}
	for _, s := range []string{"failed", "declined", "", "pending"} {
		if Approved(s, "") {
			t.Errorf("status %q should not be approved", s)
		}
	}
}

func TestApprovedResponseCodes(t *testing.T) {
	for _, c := range []string{"0", "00", "000", "0000"} {
		if !Approved("", c) {
			t.Errorf("code %q should be approved", c)
		}
	}
	for _, c := range []string{"", "1", "001", "0x0", "abc"} {
		if Approved("", c) {
			t.Errorf("code %q should not be approved", c)
		}
	}
}
