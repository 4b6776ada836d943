package utils

import (
	"regexp"
	"strings"
)

var validName = regexp.MustCompile(`^[a-zA-Z0-9\s\-_]+$`)

// ValidateWalletName returns the problems with name, or nil.
func ValidateWalletName(name string) []string {
	var issues []string

	name = strings.TrimSpace(name)
	if len(name) == 0 {
		return append(issues, "Wallet name cannot be empty")
	}
	if len(name) < 3 {
		issues = append(issues, "Wallet name must be at least 3 characters long")
	}
	if len(name) > 50 {
		issues = append(issues, "Wallet name must be less than 50 characters")
	}
	if !validName.MatchString(name) {
		issues = append(issues, "Wallet name can only contain letters, numbers, spaces, hyphens and underscores")
	}

	return issues
}

// ClassifySecret reports whether input looks like a hex private key rather
// than a mnemonic phrase.
func ClassifySecret(input string) (isKey bool) {
	s := strings.TrimPrefix(strings.TrimSpace(input), "0x")
	if len(s) != 64 {
		return false
	}
	for _, r := range s {
		if !strings.ContainsRune("0123456789abcdefABCDEF", r) {
			return false
		}
	}
	return true
}
