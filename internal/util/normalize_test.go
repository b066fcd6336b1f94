package util

import "testing"

func TestNormalizeLogin(t *testing.T) {
	// Composed and decomposed forms of "josé" must collapse to the
	// same string.
	composed := "josé"
	decomposed := "josé"
	if NormalizeLogin(composed) != NormalizeLogin(decomposed) {
		t.Errorf("NFKD forms differ: %q vs %q", NormalizeLogin(composed), NormalizeLogin(decomposed))
	}
	if got := NormalizeLogin("alice"); got != "alice" {
		t.Errorf("NormalizeLogin(alice) = %q", got)
	}
}
