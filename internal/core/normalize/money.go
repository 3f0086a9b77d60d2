package normalize

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/kirillkom/tradedoc-reconciler/internal/core/domain"
)

var (
	reCurrencyCode = regexp.MustCompile(`\b[A-Z]{3}\b`)
	reRupeePrefix  = regexp.MustCompile(`(?:^|[^A-Z])RS\.?\s*[-(]?\d`)
)

var isoCurrencies = map[string]bool{
	"USD": true, "EUR": true, "GBP": true, "INR": true, "JPY": true, "CNY": true,
	"AED": true, "SGD": true, "HKD": true, "AUD": true, "CAD": true, "CHF": true,
	"SEK": true, "NOK": true, "DKK": true, "NZD": true, "KRW": true, "THB": true,
	"MYR": true, "IDR": true, "VND": true, "BDT": true, "LKR": true, "SAR": true,
	"ZAR": true, "BRL": true, "MXN": true, "TRY": true, "RUB": true, "PLN": true,
}

// Order matters: longer symbols are tried first.
var currencySymbols = []struct {
	symbol string
	code   string
}{
	{"US$", "USD"},
	{"S$", "SGD"},
	{"HK$", "HKD"},
	{"RMB", "CNY"},
	{"₹", "INR"},
	{"€", "EUR"},
	{"£", "GBP"},
	{"¥", "JPY"},
	{"$", "USD"},
}

// Money separates the amount from its currency and renders the amount with
// two decimals. defaultCurrency applies when none is written.
func Money(raw, defaultCurrency string) (domain.NormalizedValue, error) {
	numeral, _, negative, ok := findNumeral(raw)
	if !ok {
		return domain.NormalizedValue{}, newError(domain.CodeUnparseableMoney, domain.KindMoney, raw, "no amount found")
	}
	amount, ok := parseAmount(numeral)
	if !ok {
		return domain.NormalizedValue{}, newError(domain.CodeUnparseableMoney, domain.KindMoney, raw, "malformed amount "+numeral)
	}
	if negative {
		amount = -amount
	}

	currency := detectCurrency(raw)
	if currency == "" {
		currency = strings.ToUpper(strings.TrimSpace(defaultCurrency))
	}
	return MoneyValue(amount, currency), nil
}

// parseAmount differs from parseDecimal for a lone "." followed by exactly
// three digits: amounts carry at most two decimals, so "EUR 1.234" groups
// thousands.
func parseAmount(numeral string) (float64, bool) {
	if dot := strings.Index(numeral, "."); dot >= 0 &&
		strings.Count(numeral, ".") == 1 &&
		!strings.Contains(numeral, ",") &&
		len(numeral)-dot-1 == 3 {
		numeral = numeral[:dot] + numeral[dot+1:]
	}
	return parseDecimal(numeral)
}

// MoneyValue builds the canonical form for amount in currency.
func MoneyValue(amount float64, currency string) domain.NormalizedValue {
	v := round(amount, 2)
	if v == 0 {
		v = 0
	}
	canonical := strconv.FormatFloat(v, 'f', 2, 64)
	if currency != "" {
		canonical += " " + currency
	}
	return domain.NormalizedValue{Canonical: canonical, Unit: currency, Number: &v}
}

func detectCurrency(raw string) string {
	upper := strings.ToUpper(raw)
	for _, code := range reCurrencyCode.FindAllString(upper, -1) {
		if isoCurrencies[code] {
			return code
		}
	}
	if reRupeePrefix.MatchString(upper) {
		return "INR"
	}
	for _, sym := range currencySymbols {
		if strings.Contains(upper, sym.symbol) {
			return sym.code
		}
	}
	return ""
}
