package wallet

import (
	"errors"
	"unicode"
)

const MinPasswordLength = 8

var ErrWeakPassword = errors.New("password too weak")

// CheckPassword lists the reasons password is unacceptable for a keystore.
func CheckPassword(password string) []string {
	var issues []string

	if len(password) < MinPasswordLength {
		issues = append(issues, "Password must be at least 8 characters long")
	}

	hasLetter, hasDigit := false, false
	for _, r := range password {
		switch {
		case unicode.IsLetter(r):
			hasLetter = true
		case unicode.IsDigit(r):
			hasDigit = true
		}
	}
	if !hasLetter {
		issues = append(issues, "Password must contain at least one letter")
	}
	if !hasDigit {
		issues = append(issues, "Password must contain at least one number")
	}

	return issues
}
