package normalize

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/kirillkom/tradedoc-reconciler/internal/core/domain"
)

// Business-name abbreviations expanded before comparison.
var tokenSynonyms = map[string]string{
	"pvt":  "private",
	"pte":  "private",
	"ltd":  "limited",
	"llc":  "limited",
	"co":   "company",
	"corp": "corporation",
	"inc":  "incorporated",
	"intl": "international",
	"mfg":  "manufacturing",
	"inds": "industries",
	"dept": "department",
	"st":   "street",
	"rd":   "road",
	"ave":  "avenue",
	"bldg": "building",
	"and":  "&",
}

// Text folds case, accents, punctuation, and whitespace. Raw is preserved by
// the caller.
func Text(raw string) domain.NormalizedValue {
	return domain.NormalizedValue{Canonical: strings.Join(Tokens(raw), " ")}
}

// Fold lowercases s and strips diacritics and punctuation, collapsing runs of
// whitespace into single spaces.
func Fold(s string) string {
	t := transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, s)
	if err != nil {
		folded = s
	}
	folded = strings.ToLower(folded)

	var b strings.Builder
	b.Grow(len(folded))
	space := false
	for _, r := range folded {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r) || r == '&':
			if space && b.Len() > 0 {
				b.WriteByte(' ')
			}
			space = false
			b.WriteRune(r)
		default:
			space = true
		}
	}
	return b.String()
}

// Tokens returns the folded words of s with abbreviations expanded.
func Tokens(s string) []string {
	words := strings.Fields(Fold(s))
	for i, w := range words {
		if syn, ok := tokenSynonyms[w]; ok {
			words[i] = syn
		}
	}
	return words
}

// Similarity is the Jaccard overlap of the token sets of a and b.
func Similarity(a, b string) float64 {
	setA := tokenSet(a)
	setB := tokenSet(b)
	if len(setA) == 0 && len(setB) == 0 {
		return 1
	}
	inter := 0
	for tok := range setA {
		if _, ok := setB[tok]; ok {
			inter++
		}
	}
	union := len(setA) + len(setB) - inter
	if union == 0 {
		return 0
	}
	return float64(inter) / float64(union)
}

func tokenSet(s string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, tok := range strings.Fields(s) {
		set[tok] = struct{}{}
	}
	return set
}

// Identifier keeps the uppercase alphanumeric core of a document number so
// that "INV-2024/001" and "inv 2024 001" compare equal.
func Identifier(raw string) (domain.NormalizedValue, error) {
	var b strings.Builder
	for _, r := range strings.ToUpper(Fold(raw)) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	if b.Len() == 0 {
		return domain.NormalizedValue{}, newError(domain.CodeEmptyValue, domain.KindIdentifier, raw, "no alphanumeric characters")
	}
	return domain.NormalizedValue{Canonical: b.String()}, nil
}
