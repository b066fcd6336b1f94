// Package util holds small helpers shared across packages.
package util

import "golang.org/x/text/unicode/norm"

// NormalizeLogin canonicalizes a user-typed login the same way the
// backend does before matching, so visually identical input always
// names the same account.
func NormalizeLogin(s string) string {
	return norm.NFKD.String(s)
}
