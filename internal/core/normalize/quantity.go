package normalize

import (
	"strings"
	"unicode"

	"github.com/kirillkom/tradedoc-reconciler/internal/core/domain"
)

type dimension string

const (
	dimMass   dimension = "mass"
	dimVolume dimension = "volume"
	dimCount  dimension = "count"
)

// unitDef maps a unit spelling onto its canonical name; factor converts one
// of this unit into the dimension's base unit.
type unitDef struct {
	canonical string
	dim       dimension
	factor    float64
}

var baseUnits = map[dimension]string{
	dimMass:   "kg",
	dimVolume: "m3",
}

var units = map[string]unitDef{
	"kg":        {"kg", dimMass, 1},
	"kgs":       {"kg", dimMass, 1},
	"kilo":      {"kg", dimMass, 1},
	"kilos":     {"kg", dimMass, 1},
	"kilogram":  {"kg", dimMass, 1},
	"kilograms": {"kg", dimMass, 1},
	"kgm":       {"kg", dimMass, 1},
	"g":         {"g", dimMass, 0.001},
	"gm":        {"g", dimMass, 0.001},
	"gms":       {"g", dimMass, 0.001},
	"gram":      {"g", dimMass, 0.001},
	"grams":     {"g", dimMass, 0.001},
	"lb":        {"lb", dimMass, 0.45359237},
	"lbs":       {"lb", dimMass, 0.45359237},
	"pound":     {"lb", dimMass, 0.45359237},
	"pounds":    {"lb", dimMass, 0.45359237},
	"t":         {"t", dimMass, 1000},
	"mt":        {"t", dimMass, 1000},
	"ton":       {"t", dimMass, 1000},
	"tons":      {"t", dimMass, 1000},
	"tonne":     {"t", dimMass, 1000},
	"tonnes":    {"t", dimMass, 1000},

	"m3":          {"m3", dimVolume, 1},
	"cbm":         {"m3", dimVolume, 1},
	"cum":         {"m3", dimVolume, 1},
	"m³":          {"m3", dimVolume, 1},
	"cubicmeter":  {"m3", dimVolume, 1},
	"cubicmeters": {"m3", dimVolume, 1},
	"l":           {"l", dimVolume, 0.001},
	"ltr":         {"l", dimVolume, 0.001},
	"ltrs":        {"l", dimVolume, 0.001},
	"litre":       {"l", dimVolume, 0.001},
	"litres":      {"l", dimVolume, 0.001},
	"liter":       {"l", dimVolume, 0.001},
	"liters":      {"l", dimVolume, 0.001},
	"cft":         {"cft", dimVolume, 0.0283168},
	"cuft":        {"cft", dimVolume, 0.0283168},

	"pkg":      {"pkg", dimCount, 1},
	"pkgs":     {"pkg", dimCount, 1},
	"pk":       {"pkg", dimCount, 1},
	"package":  {"pkg", dimCount, 1},
	"packages": {"pkg", dimCount, 1},
	"ctn":      {"ctn", dimCount, 1},
	"ctns":     {"ctn", dimCount, 1},
	"carton":   {"ctn", dimCount, 1},
	"cartons":  {"ctn", dimCount, 1},
	"pc":       {"pcs", dimCount, 1},
	"pcs":      {"pcs", dimCount, 1},
	"piece":    {"pcs", dimCount, 1},
	"pieces":   {"pcs", dimCount, 1},
	"nos":      {"pcs", dimCount, 1},
	"no":       {"pcs", dimCount, 1},
	"units":    {"pcs", dimCount, 1},
	"unit":     {"pcs", dimCount, 1},
	"ea":       {"pcs", dimCount, 1},
	"each":     {"pcs", dimCount, 1},
	"plt":      {"plt", dimCount, 1},
	"plts":     {"plt", dimCount, 1},
	"pallet":   {"plt", dimCount, 1},
	"pallets":  {"plt", dimCount, 1},
	"box":      {"box", dimCount, 1},
	"boxes":    {"box", dimCount, 1},
	"bag":      {"bag", dimCount, 1},
	"bags":     {"bag", dimCount, 1},
	"drum":     {"drum", dimCount, 1},
	"drums":    {"drum", dimCount, 1},
	"roll":     {"roll", dimCount, 1},
	"rolls":    {"roll", dimCount, 1},
	"crate":    {"crate", dimCount, 1},
	"crates":   {"crate", dimCount, 1},
}

func lookupUnit(s string) (unitDef, bool) {
	key := strings.Map(func(r rune) rune {
		if r == '.' || unicode.IsSpace(r) {
			return -1
		}
		return unicode.ToLower(r)
	}, s)
	u, ok := units[key]
	return u, ok
}

// Quantity splits a numeral from its unit and converts mass and volume into
// expectedUnit when it shares their dimension, otherwise into the base unit.
// Count quantities compare on the number alone; their unit is kept for display.
func Quantity(raw, expectedUnit string) (domain.NormalizedValue, error) {
	numeral, rest, negative, ok := findNumeral(raw)
	if !ok {
		return domain.NormalizedValue{}, newError(domain.CodeUnparseableNumber, domain.KindQuantity, raw, "no numeral found")
	}
	amount, ok := parseDecimal(numeral)
	if !ok {
		return domain.NormalizedValue{}, newError(domain.CodeUnparseableNumber, domain.KindQuantity, raw, "malformed numeral "+numeral)
	}
	if negative {
		amount = -amount
	}

	unitText := leadingUnitText(rest)
	expected, hasExpected := lookupUnit(expectedUnit)

	var warning string
	unit, known := lookupUnit(unitText)
	switch {
	case unitText == "" && hasExpected:
		unit, known = expected, true
	case unitText == "" && expectedUnit != "":
		return quantityValue(amount, strings.ToLower(expectedUnit), ""), nil
	case unitText == "":
		return quantityValue(amount, "", ""), nil
	case !known && hasExpected && expected.dim == dimCount:
		unit, known = unitDef{canonical: strings.ToLower(unitText), dim: dimCount, factor: 1}, true
		warning = "unrecognised package unit " + unitText
	case !known:
		return quantityValue(amount, strings.ToLower(unitText), "unrecognised unit "+unitText), nil
	}

	if unit.dim == dimCount {
		v := round(amount, 3)
		return domain.NormalizedValue{
			Canonical: formatNumber(v),
			Unit:      unit.canonical,
			Number:    &v,
			Warning:   warning,
		}, nil
	}

	target := unitDef{canonical: baseUnits[unit.dim], dim: unit.dim, factor: 1}
	if hasExpected && expected.dim == unit.dim {
		target = expected
	}
	converted := amount * unit.factor / target.factor
	return quantityValue(converted, target.canonical, warning), nil
}

func quantityValue(amount float64, unit, warning string) domain.NormalizedValue {
	v := round(amount, 3)
	canonical := formatNumber(v)
	if unit != "" {
		canonical += " " + unit
	}
	return domain.NormalizedValue{Canonical: canonical, Unit: unit, Number: &v, Warning: warning}
}

// leadingUnitText takes the first word after the numeral, which is where the
// unit sits in "37 KGS", "37KG", or "4 ctns (approx)".
func leadingUnitText(rest string) string {
	rest = strings.TrimSpace(rest)
	end := strings.IndexFunc(rest, func(r rune) bool {
		return !(unicode.IsLetter(r) || r == '.' || r == '³' || unicode.IsDigit(r))
	})
	if end >= 0 {
		rest = rest[:end]
	}
	word := strings.TrimRight(rest, ".")
	if word == "" {
		return ""
	}
	if !unicode.IsLetter([]rune(word)[0]) {
		return ""
	}
	return word
}
