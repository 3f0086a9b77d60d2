package normalize

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/kirillkom/tradedoc-reconciler/internal/core/domain"
)

const isoDate = "2006-01-02"

var (
	reISODate     = regexp.MustCompile(`^(\d{4})[-/.](\d{1,2})[-/.](\d{1,2})(?:[T\s].*)?$`)
	reNumericDate = regexp.MustCompile(`^(\d{1,2})([-/.])(\d{1,2})[-/.](\d{2}|\d{4})(?:\s.*)?$`)
	reCompactDate = regexp.MustCompile(`^(\d{4})(\d{2})(\d{2})$`)
	reOrdinal     = regexp.MustCompile(`^(\d{1,2})(?:st|nd|rd|th)$`)
)

var monthNames = map[string]time.Month{
	"jan": time.January, "january": time.January,
	"feb": time.February, "february": time.February,
	"mar": time.March, "march": time.March,
	"apr": time.April, "april": time.April,
	"may": time.May,
	"jun": time.June, "june": time.June,
	"jul": time.July, "july": time.July,
	"aug": time.August, "august": time.August,
	"sep": time.September, "sept": time.September, "september": time.September,
	"oct": time.October, "october": time.October,
	"nov": time.November, "november": time.November,
	"dec": time.December, "december": time.December,
}

// monthFirstRegions read 03/04/2024 as March 4th.
var monthFirstRegions = map[string]bool{
	"us":            true,
	"usa":           true,
	"en-us":         true,
	"en_us":         true,
	"united states": true,
	"ph":            true,
	"en-ph":         true,
}

// MonthFirst reports whether region writes numeric dates month-first.
func MonthFirst(region string) bool {
	return monthFirstRegions[strings.ToLower(strings.TrimSpace(region))]
}

// Date parses raw into an ISO 8601 calendar date. Numeric day/month order is
// taken from the values themselves when one exceeds 12, otherwise from region.
func Date(raw, region string) (domain.NormalizedValue, error) {
	s := strings.TrimSpace(raw)

	if m := reISODate.FindStringSubmatch(s); m != nil {
		return buildDate(raw, atoi(m[1]), atoi(m[2]), atoi(m[3]))
	}
	if m := reCompactDate.FindStringSubmatch(s); m != nil {
		return buildDate(raw, atoi(m[1]), atoi(m[2]), atoi(m[3]))
	}
	if m := reNumericDate.FindStringSubmatch(s); m != nil {
		return numericDate(raw, atoi(m[1]), atoi(m[3]), expandYear(m[4]), m[2] == ".", region)
	}
	return freeTextDate(raw, s)
}

func numericDate(raw string, first, second, year int, dotted bool, region string) (domain.NormalizedValue, error) {
	switch {
	case first > 12 && second > 12:
		return domain.NormalizedValue{}, newError(domain.CodeAmbiguousDate, domain.KindDate, raw,
			"neither position can be a month")
	case first > 12:
		return buildDate(raw, year, second, first)
	case second > 12:
		return buildDate(raw, year, first, second)
	case MonthFirst(region) && !dotted:
		return buildDate(raw, year, first, second)
	default:
		return buildDate(raw, year, second, first)
	}
}

func freeTextDate(raw, s string) (domain.NormalizedValue, error) {
	fields := strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return r == ' ' || r == ',' || r == '-' || r == '/' || r == '.' || r == '\t'
	})

	var (
		month   time.Month
		numbers []string
	)
	for _, f := range fields {
		if m, ok := monthNames[f]; ok && month == 0 {
			month = m
			continue
		}
		if om := reOrdinal.FindStringSubmatch(f); om != nil {
			numbers = append(numbers, om[1])
			continue
		}
		if _, err := strconv.Atoi(f); err == nil {
			numbers = append(numbers, f)
		}
	}
	if month == 0 || len(numbers) < 2 {
		return domain.NormalizedValue{}, newError(domain.CodeUnparseableDate, domain.KindDate, raw, "no recognizable date")
	}

	day, year := -1, -1
	for _, n := range numbers {
		if len(n) == 4 && year < 0 {
			year = atoi(n)
		}
	}
	for _, n := range numbers {
		if len(n) == 4 {
			continue
		}
		switch {
		case day < 0:
			day = atoi(n)
		case year < 0:
			year = expandYear(n)
		}
	}
	if day < 0 || year < 0 {
		return domain.NormalizedValue{}, newError(domain.CodeUnparseableDate, domain.KindDate, raw, "day or year missing")
	}
	return buildDate(raw, year, int(month), day)
}

func buildDate(raw string, year, month, day int) (domain.NormalizedValue, error) {
	if month < 1 || month > 12 || day < 1 || day > 31 {
		return domain.NormalizedValue{}, newError(domain.CodeUnparseableDate, domain.KindDate, raw,
			fmt.Sprintf("invalid calendar date %04d-%02d-%02d", year, month, day))
	}
	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	if t.Day() != day {
		return domain.NormalizedValue{}, newError(domain.CodeUnparseableDate, domain.KindDate, raw,
			fmt.Sprintf("day %d out of range for %04d-%02d", day, year, month))
	}
	return dateValue(t), nil
}

func dateValue(t time.Time) domain.NormalizedValue {
	return domain.NormalizedValue{Canonical: t.Format(isoDate)}
}

// ParseCanonicalDate reads a date produced by Date.
func ParseCanonicalDate(canonical string) (time.Time, bool) {
	t, err := time.Parse(isoDate, canonical)
	return t, err == nil
}

// DaysBetween returns b-a in whole days.
func DaysBetween(a, b time.Time) int {
	return int(b.Sub(a).Hours() / 24)
}

func expandYear(s string) int {
	y := atoi(s)
	if len(s) == 2 {
		if y < 70 {
			return 2000 + y
		}
		return 1900 + y
	}
	return y
}

func atoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}
