package normalize

import (
	"regexp"
	"strings"

	"github.com/kirillkom/tradedoc-reconciler/internal/core/domain"
)

var (
	reAddressSep = regexp.MustCompile(`[\n;,|]+`)
	rePostal     = []*regexp.Regexp{
		regexp.MustCompile(`\b\d{3}\s?\d{3}\b`),
		regexp.MustCompile(`\b\d{5}(?:-\d{4})?\b`),
		regexp.MustCompile(`(?i)\b[A-Z]{1,2}\d[A-Z\d]?\s*\d[A-Z]{2}\b`),
		regexp.MustCompile(`\b\d{3}-\d{4}\b`),
		regexp.MustCompile(`(?i)\b[A-Z]\d[A-Z]\s?\d[A-Z]\d\b`),
	}
)

var countryAliases = map[string]string{
	"india":                    "india",
	"bharat":                   "india",
	"usa":                      "united states",
	"us":                       "united states",
	"u s a":                    "united states",
	"united states":            "united states",
	"united states of america": "united states",
	"uk":                       "united kingdom",
	"u k":                      "united kingdom",
	"united kingdom":           "united kingdom",
	"great britain":            "united kingdom",
	"england":                  "united kingdom",
	"germany":                  "germany",
	"deutschland":              "germany",
	"china":                    "china",
	"prc":                      "china",
	"uae":                      "united arab emirates",
	"united arab emirates":     "united arab emirates",
	"singapore":                "singapore",
	"hong kong":                "hong kong",
	"hk":                       "hong kong",
	"japan":                    "japan",
	"france":                   "france",
	"italy":                    "italy",
	"spain":                    "spain",
	"netherlands":              "netherlands",
	"holland":                  "netherlands",
	"belgium":                  "belgium",
	"switzerland":              "switzerland",
	"south korea":              "south korea",
	"korea":                    "south korea",
	"republic of korea":        "south korea",
	"australia":                "australia",
	"canada":                   "canada",
	"bangladesh":               "bangladesh",
	"sri lanka":                "sri lanka",
	"vietnam":                  "vietnam",
	"viet nam":                 "vietnam",
	"thailand":                 "thailand",
	"malaysia":                 "malaysia",
	"indonesia":                "indonesia",
	"turkey":                   "turkey",
	"turkiye":                  "turkey",
	"mexico":                   "mexico",
	"brazil":                   "brazil",
	"saudi arabia":             "saudi arabia",
	"south africa":             "south africa",
}

// Country returns the canonical country name for s, or "".
func Country(s string) string {
	return countryAliases[Fold(s)]
}

// ParseAddress splits raw into components using separator heuristics. The
// country, when present, is usually the last token. Any component may be
// left empty.
func ParseAddress(raw string) domain.Address {
	parts := splitAddress(raw)
	var addr domain.Address
	if len(parts) == 0 {
		return addr
	}

	last := len(parts) - 1
	if c := Country(parts[last]); c != "" {
		addr.Country = c
		parts = parts[:last]
	} else if c, rest := trailingCountry(parts[last]); c != "" {
		addr.Country = c
		parts[last] = rest
	}

	postalIdx := -1
	for i := len(parts) - 1; i >= 0 && postalIdx < 0; i-- {
		for _, re := range rePostal {
			loc := re.FindStringIndex(parts[i])
			if loc == nil {
				continue
			}
			addr.Postal = strings.ToUpper(strings.ReplaceAll(parts[i][loc[0]:loc[1]], " ", ""))
			parts[i] = strings.TrimSpace(strings.Trim(parts[i][:loc[0]]+" "+parts[i][loc[1]:], " -"))
			postalIdx = i
			break
		}
	}

	// Text sharing the postal part is the city in "New Delhi 110019" and the
	// region in "Springfield, IL 62704"; a short state code or the part count
	// tells them apart.
	if postalIdx >= 0 {
		head := nonEmpty(parts[:postalIdx])
		regions := nonEmpty(parts[postalIdx+1:])
		shared := parts[postalIdx]
		switch {
		case len(head) == 1 && regionCode(shared):
			regions = append([]string{shared}, regions...)
			addr.City = head[0]
			head = nil
		case shared != "" && len(head) < 2:
			addr.City = shared
		case len(head) >= 2:
			if shared != "" {
				regions = append([]string{shared}, regions...)
			}
			addr.City = head[len(head)-1]
			head = head[:len(head)-1]
		}
		addr.Region = strings.Join(regions, ", ")
		addr.Line = strings.Join(head, ", ")
		return addr
	}

	parts = nonEmpty(parts)
	switch {
	case len(parts) >= 3:
		addr.Region = parts[len(parts)-1]
		addr.City = parts[len(parts)-2]
		addr.Line = strings.Join(parts[:len(parts)-2], ", ")
	case len(parts) == 2:
		addr.City = parts[1]
		addr.Line = parts[0]
	case len(parts) == 1:
		addr.Line = parts[0]
	}
	return addr
}

// AddressValue normalizes an address; the canonical form joins the folded
// components so that formatting differences compare equal.
func AddressValue(raw string) domain.NormalizedValue {
	addr := ParseAddress(raw)
	components := []string{Fold(addr.Line), Fold(addr.City), Fold(addr.Region), addr.Postal, addr.Country}
	canonical := strings.Join(nonEmpty(components), ", ")
	if canonical == "" {
		canonical = Fold(raw)
	}
	return domain.NormalizedValue{Canonical: canonical, Address: &addr}
}

// regionCode matches state abbreviations such as "IL" or "NSW".
func regionCode(s string) bool {
	if len(s) < 2 || len(s) > 3 {
		return false
	}
	for _, r := range s {
		if r < 'A' || r > 'Z' {
			return false
		}
	}
	return true
}

func trailingCountry(part string) (string, string) {
	words := strings.Fields(part)
	for n := 4; n >= 1; n-- {
		if len(words) <= n {
			continue
		}
		if c := Country(strings.Join(words[len(words)-n:], " ")); c != "" {
			return c, strings.Join(words[:len(words)-n], " ")
		}
	}
	return "", part
}

func splitAddress(raw string) []string {
	pieces := reAddressSep.Split(raw, -1)
	out := make([]string, 0, len(pieces))
	for _, p := range pieces {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func nonEmpty(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
