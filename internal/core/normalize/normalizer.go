// Package normalize converts raw extracted values into comparable canonical
// forms. Every function here is pure.
package normalize

import (
	"strings"

	"github.com/kirillkom/tradedoc-reconciler/internal/core/domain"
)

// Context carries the hints a single normalization may need.
type Context struct {
	// Region disambiguates numeric day/month order ("us" selects month-first).
	Region string
	// ExpectedUnit is used when the raw value carries none. For money it is
	// the fallback currency.
	ExpectedUnit string
}

// Value normalizes raw according to kind. On failure it returns a
// *domain.NormalizationError; for codes a best-effort value is returned
// together with the error so that matching can proceed at reduced confidence.
func Value(raw string, kind domain.ValueKind, ctx Context) (domain.NormalizedValue, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return domain.NormalizedValue{}, newError(domain.CodeEmptyValue, kind, raw, "")
	}

	var (
		out domain.NormalizedValue
		err error
	)
	switch kind {
	case domain.KindQuantity:
		out, err = Quantity(trimmed, ctx.ExpectedUnit)
	case domain.KindDate:
		out, err = Date(trimmed, ctx.Region)
	case domain.KindMoney:
		out, err = Money(trimmed, ctx.ExpectedUnit)
	case domain.KindAddress:
		out = AddressValue(trimmed)
	case domain.KindCode:
		out, err = Code(trimmed)
	case domain.KindIdentifier:
		out, err = Identifier(trimmed)
	default:
		out = Text(trimmed)
	}
	out.Raw = raw
	return out, err
}

func newError(code domain.NormalizationCode, kind domain.ValueKind, raw, message string) *domain.NormalizationError {
	return &domain.NormalizationError{Code: code, Kind: kind, Raw: raw, Message: message}
}
