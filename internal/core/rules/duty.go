package rules

import (
	"github.com/kirillkom/tradedoc-reconciler/internal/core/domain"
	"github.com/kirillkom/tradedoc-reconciler/internal/core/registry"
)

// DutyRatio bounds duty / invoice value. When no invoice value is stated in
// the duty currency, the bill of entry exchange rate converts it.
type DutyRatio struct {
	MinRatio float64
	MaxRatio float64
}

func (DutyRatio) Name() string { return NameDutyRatio }

func (r DutyRatio) Evaluate(facts Facts) domain.RuleResult {
	groups := []string{registry.GroupDutyAmount, registry.GroupInvoiceValue}
	duty, ok := facts.PickNumber(registry.GroupDutyAmount, domain.DocBillOfEntry)
	if !ok {
		return withGroups(insufficient("no duty amount reported"), groups)
	}

	invoiceValues := numeric(facts.Values(registry.GroupInvoiceValue))
	sameCurrency := make([]domain.NormalizedValue, 0, len(invoiceValues))
	for _, v := range invoiceValues {
		if v.Unit == duty.Unit {
			sameCurrency = append(sameCurrency, v)
		}
	}

	var (
		base       float64
		baseText   string
		confidence float64
	)
	if v, ok := pickFrom(sameCurrency, []domain.DocumentType{domain.DocBillOfEntry, domain.DocInvoice}); ok {
		base, baseText = *v.Number, v.Canonical
		confidence = minOf(duty.Confidence, v.Confidence)
	} else {
		v, ok := pickFrom(invoiceValues, []domain.DocumentType{domain.DocInvoice, domain.DocBillOfEntry})
		if !ok {
			return withGroups(insufficient("no invoice value reported"), groups)
		}
		rate, ok := facts.PickNumber(registry.GroupExchangeRate, domain.DocBillOfEntry)
		if !ok || *rate.Number <= 0 {
			groups = append(groups, registry.GroupExchangeRate)
			return withGroups(insufficient("invoice value %s and duty %s use different currencies and no exchange rate is reported",
				v.Canonical, duty.Canonical), groups)
		}
		groups = append(groups, registry.GroupExchangeRate)
		base = *v.Number * *rate.Number
		baseText = v.Canonical + " at " + rate.Canonical
		confidence = minOf(duty.Confidence, v.Confidence, rate.Confidence)
	}
	if base <= 0 {
		return withGroups(insufficient("invoice value %s is not positive", baseText), groups)
	}

	ratio := *duty.Number / base
	if ratio < r.MinRatio-1e-9 || ratio > r.MaxRatio+1e-9 {
		return withGroups(fail(domain.SeverityWarning, confidence,
			"duty %s is %.1f%% of invoice value %s, outside [%.0f%%, %.0f%%]",
			duty.Canonical, ratio*100, baseText, r.MinRatio*100, r.MaxRatio*100), groups)
	}
	return withGroups(pass(confidence, "duty %s is %.1f%% of invoice value %s", duty.Canonical, ratio*100, baseText), groups)
}
