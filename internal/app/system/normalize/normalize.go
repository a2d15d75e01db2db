// Package normalize cleans user-entered identity fields before they are
// validated and stored.
package normalize

import "strings"

// Email trims and lowercases.
func Email(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Name trims and collapses internal whitespace, preserving case.
func Name(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// Organization is normalized like Name; case folding for comparison is
// done by the stores.
func Organization(s string) string {
	return Name(s)
}

// Code trims and uppercases a registration code.
func Code(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}
