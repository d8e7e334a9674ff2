package models

import (
	"testing"
)

func TestAlertVerificationAttempted(t *testing.T) {
	alert := &Alert{ID: "a1", Event: "Tornado Warning"}

	if alert.VerificationAttempted() {
		t.Error("fresh alert must read as never attempted")
	}
	if alert.IsVerified() {
		t.Error("fresh alert must not read as verified")
	}

	// Attempted but unmatched: verified false, method none
	verified := false
	method := MatchMethodNone
	alert.Verified = &verified
	alert.MatchMethod = &method

	if !alert.VerificationAttempted() {
		t.Error("alert with method none must read as attempted")
	}
	if alert.IsVerified() {
		t.Error("unmatched alert must not read as verified")
	}

	// Matched
	verifiedTrue := true
	methodFIPS := MatchMethodFIPS
	alert.Verified = &verifiedTrue
	alert.MatchMethod = &methodFIPS

	if !alert.IsVerified() {
		t.Error("matched alert must read as verified")
	}
}

func TestMatchMethodValid(t *testing.T) {
	for _, m := range []MatchMethod{MatchMethodFIPS, MatchMethodLatLon, MatchMethodNone} {
		if !m.Valid() {
			t.Errorf("%v should be valid", m)
		}
	}
	if MatchMethod("radar").Valid() {
		t.Error("unknown match method should be invalid")
	}
}
