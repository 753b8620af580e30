package validators

import (
	"strings"
	"unicode"
)

func SanitizeString(input string, maxLen int) string {
	trimmed := strings.TrimSpace(input)
	if maxLen > 0 && len(trimmed) > maxLen {
		return trimmed[:maxLen]
	}
	return trimmed
}

// SanitizeOptional trims value and maps blanks to nil.
func SanitizeOptional(value *string, maxLen int) *string {
	if value == nil {
		return nil
	}
	cleaned := SanitizeString(*value, maxLen)
	if cleaned == "" {
		return nil
	}
	return &cleaned
}

// DigitsOnly strips formatting from phone numbers taken from URLs.
func DigitsOnly(input string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsDigit(r) || r == '+' {
			return r
		}
		return -1
	}, input)
}
