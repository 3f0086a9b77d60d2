package rules

import (
	"github.com/kirillkom/tradedoc-reconciler/internal/core/domain"
	"github.com/kirillkom/tradedoc-reconciler/internal/core/registry"
)

var (
	shippingDocs   = []domain.DocumentType{domain.DocAirWaybill, domain.DocHouseWaybill}
	commercialDocs = []domain.DocumentType{domain.DocInvoice, domain.DocPackingList}
)

// WeightConsistency requires gross >= net and a packaging overhead
// (gross-net)/net of at most MaxOverhead.
type WeightConsistency struct {
	MaxOverhead float64
}

func (WeightConsistency) Name() string { return NameWeightConsistency }

func (r WeightConsistency) Evaluate(facts Facts) domain.RuleResult {
	groups := []string{registry.GroupGrossWeight, registry.GroupNetWeight}
	gross, okGross := facts.PickNumber(registry.GroupGrossWeight,
		domain.DocAirWaybill, domain.DocHouseWaybill, domain.DocPackingList, domain.DocInvoice)
	net, okNet := facts.PickNumber(registry.GroupNetWeight, domain.DocPackingList, domain.DocInvoice)
	if !okGross || !okNet {
		return withGroups(insufficient("gross and net weight are both needed"), groups)
	}
	if gross.Unit != net.Unit {
		return withGroups(insufficient("gross weight in %q and net weight in %q cannot be compared", gross.Unit, net.Unit), groups)
	}

	g, n := *gross.Number, *net.Number
	confidence := minOf(gross.Confidence, net.Confidence)
	switch {
	case g < n:
		return withGroups(fail(domain.SeverityError, confidence,
			"gross weight %s (%s) is below net weight %s (%s)",
			gross.Canonical, gross.SourceDocumentID, net.Canonical, net.SourceDocumentID), groups)
	case n <= 0:
		return withGroups(insufficient("net weight %s is not positive", net.Canonical), groups)
	}

	overhead := (g - n) / n
	if overhead > r.MaxOverhead+1e-9 {
		return withGroups(fail(domain.SeverityError, confidence,
			"packaging overhead %.1f%% (gross %s, net %s) exceeds %.0f%%",
			overhead*100, gross.Canonical, net.Canonical, r.MaxOverhead*100), groups)
	}
	return withGroups(pass(confidence, "gross %s and net %s give %.1f%% packaging overhead",
		gross.Canonical, net.Canonical, overhead*100), groups)
}

// PackageConsistency bounds the ratio of the commercial package count
// (invoice, packing list) to the shipping count (waybills). Commercial and
// shipping documents may count different units, so a violation only warns.
type PackageConsistency struct {
	MinRatio float64
	MaxRatio float64
}

func (PackageConsistency) Name() string { return NamePackageConsistency }

func (r PackageConsistency) Evaluate(facts Facts) domain.RuleResult {
	groups := []string{registry.GroupPackages}
	commercial, okC := pickFrom(numeric(facts.Values(registry.GroupPackages, commercialDocs...)), commercialDocs)
	shipping, okS := pickFrom(numeric(facts.Values(registry.GroupPackages, shippingDocs...)), shippingDocs)
	if !okC || !okS {
		return withGroups(insufficient("package counts from both a commercial and a shipping document are needed"), groups)
	}
	if *shipping.Number <= 0 {
		return withGroups(insufficient("shipping package count %s is not positive", shipping.Canonical), groups)
	}

	ratio := *commercial.Number / *shipping.Number
	confidence := minOf(commercial.Confidence, shipping.Confidence)
	if ratio < r.MinRatio-1e-9 || ratio > r.MaxRatio+1e-9 {
		return withGroups(fail(domain.SeverityWarning, confidence,
			"commercial package count %s (%s) vs shipping count %s (%s): ratio %.2f outside [%.2f, %.2f]",
			commercial.Canonical, commercial.SourceDocumentID, shipping.Canonical, shipping.SourceDocumentID,
			ratio, r.MinRatio, r.MaxRatio), groups)
	}
	return withGroups(pass(confidence, "commercial package count %s vs shipping count %s: ratio %.2f",
		commercial.Canonical, shipping.Canonical, ratio), groups)
}

func numeric(values []domain.NormalizedValue) []domain.NormalizedValue {
	out := values[:0]
	for _, v := range values {
		if v.Number != nil {
			out = append(out, v)
		}
	}
	return out
}

func withGroups(r domain.RuleResult, groups []string) domain.RuleResult {
	r.GroupIDs = groups
	return r
}

func minOf(values ...float64) float64 {
	lowest := 1.0
	for _, v := range values {
		if v < lowest {
			lowest = v
		}
	}
	return lowest
}
