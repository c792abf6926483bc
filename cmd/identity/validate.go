package identity

import (
	"regexp"
	"strings"
)

// Credential format rules. These are a compatibility contract with the
// existing client applications and must not be loosened or tightened
// without a coordinated change on both sides.
var (
	// One non-whitespace run, "@", non-whitespace run, ".", non-whitespace run.
	emailRe = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

	// Hangul syllables, ASCII letters, and digits only. No spaces, no punctuation.
	nameRe = regexp.MustCompile(`^[가-힣a-zA-Z0-9]+$`)
)

const passwordSymbols = "@$!%*?&"

// ValidEmail reports whether s has the loose email shape accepted at signup.
func ValidEmail(s string) bool { return emailRe.MatchString(s) }

// ValidName reports whether s is a legal display name.
func ValidName(s string) bool { return nameRe.MatchString(s) }

// ValidPassword reports whether s satisfies the password policy:
// at least 8 characters, at least one ASCII letter, one digit, and one
// symbol from the fixed allow-set, and no characters outside those
// three classes.
//
// RE2 has no lookaheads, so the policy is a single scan rather than a
// lookahead regex; the accepted language is identical.
func ValidPassword(s string) bool {
	if len(s) < 8 {
		return false
	}
	var hasLetter, hasDigit, hasSymbol bool
	for _, r := range s {
		switch {
		case (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z'):
			hasLetter = true
		case r >= '0' && r <= '9':
			hasDigit = true
		case strings.ContainsRune(passwordSymbols, r):
			hasSymbol = true
		default:
			return false
		}
	}
	return hasLetter && hasDigit && hasSymbol
}

// NormalizeEmail performs case-insensitive canonicalization.
func NormalizeEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
