package normalize

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/kirillkom/tradedoc-reconciler/internal/core/domain"
)

const (
	MinCodeDigits = 4
	MaxCodeDigits = 10
)

// CleanCode strips everything but digits.
func CleanCode(raw string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsDigit(r) && r < unicode.MaxASCII {
			return r
		}
		return -1
	}, raw)
}

// ValidCode reports whether a cleaned code has a classifiable length.
func ValidCode(digits string) bool {
	return len(digits) >= MinCodeDigits && len(digits) <= MaxCodeDigits
}

// Code cleans a classification code. Codes outside 4-10 digits fail with
// InvalidCodeFormat but still return the cleaned digits as their canonical form.
func Code(raw string) (domain.NormalizedValue, error) {
	digits := CleanCode(raw)
	if digits == "" {
		return domain.NormalizedValue{}, newError(domain.CodeInvalidCodeFormat, domain.KindCode, raw, "no digits")
	}
	out := domain.NormalizedValue{Canonical: digits}
	if !ValidCode(digits) {
		return out, newError(domain.CodeInvalidCodeFormat, domain.KindCode, raw,
			fmt.Sprintf("%d digits, expected %d-%d", len(digits), MinCodeDigits, MaxCodeDigits))
	}
	return out, nil
}
