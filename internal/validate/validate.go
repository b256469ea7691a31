// Package validate holds the pre-network form checks shared by both session
// namespaces. All checks are pure; the caller decides what to do with a
// failing Result.
package validate

import (
	"regexp"
	"strings"
)

type Result struct {
	OK      bool
	Message string
}

var valid = Result{OK: true}

func invalid(message string) Result {
	return Result{OK: false, Message: message}
}

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

func Email(email string) Result {
	if !emailPattern.MatchString(email) {
		return invalid("Please enter a valid email address")
	}
	return valid
}

const passwordSpecials = `!@#$%^&*(),.?":{}|<>`

type passwordRule struct {
	ok      func(string) bool
	message string
}

// Rules are evaluated in order and the first failure wins, so the user is
// told about one problem at a time.
var passwordRules = []passwordRule{
	{
		ok:      func(p string) bool { return len(p) >= 8 },
		message: "Password must be at least 8 characters long",
	},
	{
		ok:      func(p string) bool { return strings.ContainsFunc(p, isUpper) },
		message: "Password must contain at least one uppercase letter",
	},
	{
		ok:      func(p string) bool { return strings.ContainsFunc(p, isLower) },
		message: "Password must contain at least one lowercase letter",
	},
	{
		ok:      func(p string) bool { return strings.ContainsFunc(p, isDigit) },
		message: "Password must contain at least one number",
	},
	{
		ok:      func(p string) bool { return strings.ContainsAny(p, passwordSpecials) },
		message: "Password must contain at least one special character",
	},
}

func Password(password string) Result {
	for _, rule := range passwordRules {
		if !rule.ok(password) {
			return invalid(rule.message)
		}
	}
	return valid
}

func isUpper(r rune) bool { return r >= 'A' && r <= 'Z' }
func isLower(r rune) bool { return r >= 'a' && r <= 'z' }
func isDigit(r rune) bool { return r >= '0' && r <= '9' }
