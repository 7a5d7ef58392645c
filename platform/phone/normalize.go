// Package phone provides phone number utilities.
// This is part of the platform layer and contains no business logic.
package phone

import (
	"strings"

	"github.com/nyaruka/phonenumbers"
)

// DefaultRegion is used when a number carries no country code.
const DefaultRegion = "IN"

// StripForMessaging keeps digits and '+' only. Messaging gateways reject
// spaces, dashes and parentheses.
func StripForMessaging(input string) string {
	var b strings.Builder
	b.Grow(len(input))
	for _, r := range input {
		if (r >= '0' && r <= '9') || r == '+' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// NormalizeE164 formats a phone number to E.164 using region for local numbers.
// If parsing fails, it returns the stripped input.
func NormalizeE164(input, region string) string {
	stripped := StripForMessaging(strings.TrimSpace(input))
	if stripped == "" {
		return ""
	}
	if region == "" {
		region = DefaultRegion
	}

	number, err := phonenumbers.Parse(stripped, strings.ToUpper(region))
	if err != nil || !phonenumbers.IsValidNumber(number) {
		return stripped
	}
	return phonenumbers.Format(number, phonenumbers.E164)
}

// ForMessaging returns the gateway form of a number (E.164 without '+'),
// or "" when the input holds no digits.
func ForMessaging(input, region string) string {
	normalized := strings.TrimPrefix(NormalizeE164(input, region), "+")
	if strings.Trim(normalized, "+") == "" {
		return ""
	}
	return normalized
}
