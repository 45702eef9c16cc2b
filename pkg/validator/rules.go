package validator

import (
	"fmt"
	"net/mail"
	"slices"
	"strings"
	"unicode"
)

// Required fails when the trimmed value is empty.
func Required(field, value string) Rule {
	return Rule{
		Check: func() bool { return strings.TrimSpace(value) != "" },
		Error: ValidationError{Field: field, Message: "is required"},
	}
}

// ValidEmail checks RFC 5322 address syntax.
func ValidEmail(field, value string) Rule {
	return Rule{
		Check: func() bool {
			addr, err := mail.ParseAddress(value)
			return err == nil && addr.Address == value
		},
		Error: ValidationError{Field: field, Message: "must be a valid email address"},
	}
}

// MaxLen fails when the value exceeds max characters.
func MaxLen(field, value string, max int) Rule {
	return Rule{
		Check: func() bool { return len([]rune(value)) <= max },
		Error: ValidationError{Field: field, Message: fmt.Sprintf("must be at most %d characters", max)},
	}
}

// MinLen fails when the value is shorter than min characters.
func MinLen(field, value string, min int) Rule {
	return Rule{
		Check: func() bool { return len([]rune(value)) >= min },
		Error: ValidationError{Field: field, Message: fmt.Sprintf("must be at least %d characters", min)},
	}
}

// OneOf fails when the value is not in the allowed set. Empty values pass so
// optional fields can fall back to defaults.
func OneOf(field, value string, allowed ...string) Rule {
	return Rule{
		Check: func() bool { return value == "" || slices.Contains(allowed, value) },
		Error: ValidationError{Field: field, Message: "must be one of: " + strings.Join(allowed, ", ")},
	}
}

// StrongPassword requires at least 8 characters drawn from two or more
// character classes (lower, upper, digit, other).
func StrongPassword(field, value string) Rule {
	return Rule{
		Check: func() bool {
			if len(value) < 8 || len(value) > 128 {
				return false
			}
			var lower, upper, digit, other bool
			for _, r := range value {
				switch {
				case unicode.IsLower(r):
					lower = true
				case unicode.IsUpper(r):
					upper = true
				case unicode.IsDigit(r):
					digit = true
				default:
					other = true
				}
			}
			classes := 0
			for _, ok := range []bool{lower, upper, digit, other} {
				if ok {
					classes++
				}
			}
			return classes >= 2
		},
		Error: ValidationError{Field: field, Message: "must be 8-128 characters with at least two character classes"},
	}
}
