package normalize

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

// reNumeral matches the first numeral, including thousands separators and an
// optional decimal part in either notation.
var reNumeral = regexp.MustCompile(`[-+]?\d(?:[\d.,']|\s\d{3}\b)*`)

// findNumeral returns the first numeral in s and the text after it. A sign
// only counts when it starts a word, so "Wt-37" reads as 37.
func findNumeral(s string) (numeral, rest string, negative bool, ok bool) {
	loc := reNumeral.FindStringIndex(s)
	if loc == nil {
		return "", "", false, false
	}
	numeral = strings.TrimRight(s[loc[0]:loc[1]], ".,'")
	rest = s[loc[0]+len(numeral):]
	prefix := strings.TrimSpace(s[:loc[0]])

	signed := strings.HasPrefix(numeral, "-") || strings.HasPrefix(numeral, "+")
	wordStart := loc[0] == 0 || strings.ContainsRune(" \t(", rune(s[loc[0]-1]))
	negative = (strings.HasPrefix(numeral, "-") && wordStart) || strings.HasSuffix(prefix, "(")
	if signed {
		numeral = numeral[1:]
	}
	return numeral, rest, negative, true
}

// parseDecimal interprets a numeral written with either "," or "." as the
// decimal mark. When both appear the last one is the decimal mark; a single
// separator followed by exactly three digits is a thousands separator for ","
// and a decimal mark for ".".
func parseDecimal(numeral string) (float64, bool) {
	s := strings.NewReplacer(" ", "", "'", "", "\u00a0", "").Replace(numeral)
	if s == "" {
		return 0, false
	}

	lastDot := strings.LastIndex(s, ".")
	lastComma := strings.LastIndex(s, ",")
	switch {
	case lastDot >= 0 && lastComma >= 0:
		if lastDot > lastComma {
			s = strings.ReplaceAll(s, ",", "")
		} else {
			s = strings.ReplaceAll(s, ".", "")
			s = strings.Replace(s, ",", ".", 1)
		}
	case lastComma >= 0:
		if strings.Count(s, ",") > 1 || len(s)-lastComma-1 == 3 {
			s = strings.ReplaceAll(s, ",", "")
		} else {
			s = strings.Replace(s, ",", ".", 1)
		}
	case lastDot >= 0:
		if strings.Count(s, ".") > 1 {
			s = strings.ReplaceAll(s, ".", "")
		}
	}

	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsInf(v, 0) || math.IsNaN(v) {
		return 0, false
	}
	return v, true
}

func round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}

// formatNumber renders v without trailing zeros after rounding to three places.
func formatNumber(v float64) string {
	v = round(v, 3)
	if v == 0 {
		v = 0
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}
