package utils

import (
	"net/mail"
	"strings"
	"unicode"
	"unicode/utf8"
)

// minPasswordLen is the minimum password length in runes.
const minPasswordLen = 8

// IsValidEmail reports whether the address parses as a bare RFC 5322
// address with a dotted domain.
func IsValidEmail(email string) bool {
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return false
	}
	at := strings.LastIndex(email, "@")
	return strings.Contains(email[at:], ".")
}

// IsComplexPassword requires minPasswordLen runes with at least one upper,
// one lower, one digit, and one punctuation or symbol rune.
func IsComplexPassword(password string) bool {
	if utf8.RuneCountInString(password) < minPasswordLen {
		return false
	}

	var upper, lower, digit, special bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsDigit(r):
			digit = true
		case unicode.IsPunct(r) || unicode.IsSymbol(r):
			special = true
		}
	}
	return upper && lower && digit && special
}
