// Package contact validates and classifies emergency-contact addresses.
package contact

import (
	"regexp"
	"strings"
)

var (
	phoneRe  = regexp.MustCompile(`^\+?1?[-.\s]?\(?([0-9]{3})\)?[-.\s]?([0-9]{3})[-.\s]?([0-9]{4})$`)
	emailRe  = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	handleRe = regexp.MustCompile(`^[a-zA-Z0-9-]+$`)
	nonDigit = regexp.MustCompile(`\D`)
)

// ValidatePhone accepts North American numbers with optional +1 and separators.
func ValidatePhone(phone string) bool {
	return phoneRe.MatchString(phone)
}

// FormatPhone renders a 10-digit number as "(555) 123-4567"; anything else
// is returned unchanged.
func FormatPhone(phone string) string {
	digits := nonDigit.ReplaceAllString(phone, "")
	if len(digits) != 10 {
		return phone
	}
	return "(" + digits[:3] + ") " + digits[3:6] + "-" + digits[6:]
}

func ValidateEmail(email string) bool {
	return emailRe.MatchString(email)
}

// ValidateHandle checks a social handle, with or without the leading "@".
func ValidateHandle(handle string) bool {
	return handleRe.MatchString(strings.TrimPrefix(handle, "@"))
}

type Kind string

const (
	KindSMS    Kind = "sms"
	KindSocial Kind = "social"
	KindEmail  Kind = "email"
)

// Classify picks the delivery channel for a recipient: "@handle" is social,
// any other string with "@" is email, everything else is treated as a phone.
func Classify(recipient string) Kind {
	switch {
	case strings.HasPrefix(recipient, "@"):
		return KindSocial
	case strings.Contains(recipient, "@"):
		return KindEmail
	default:
		return KindSMS
	}
}

// Valid reports whether the recipient is well formed for its kind.
func Valid(recipient string) bool {
	switch Classify(recipient) {
	case KindSocial:
		return ValidateHandle(recipient)
	case KindEmail:
		return ValidateEmail(recipient)
	default:
		return ValidatePhone(recipient)
	}
}
