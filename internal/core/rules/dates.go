package rules

import (
	"fmt"
	"strings"
	"time"

	"github.com/kirillkom/tradedoc-reconciler/internal/core/domain"
	"github.com/kirillkom/tradedoc-reconciler/internal/core/normalize"
	"github.com/kirillkom/tradedoc-reconciler/internal/core/registry"
)

// DateSequence expects invoice <= shipment <= customs entry, with at most
// MaxGapDays between invoice and shipment. Every anomaly is a warning.
type DateSequence struct {
	MaxGapDays int
}

func (DateSequence) Name() string { return NameDateSequence }

func (r DateSequence) Evaluate(facts Facts) domain.RuleResult {
	groups := []string{registry.GroupInvoiceDate, registry.GroupShipmentDate, registry.GroupCustomsDate}
	invoice, okInvoice := pickDate(facts, registry.GroupInvoiceDate, domain.DocInvoice, domain.DocPackingList)
	shipment, okShipment := pickDate(facts, registry.GroupShipmentDate, domain.DocAirWaybill, domain.DocHouseWaybill)
	customs, okCustoms := pickDate(facts, registry.GroupCustomsDate, domain.DocBillOfEntry)
	if !okShipment || (!okInvoice && !okCustoms) {
		return withGroups(insufficient("a shipment date and an invoice or customs date are needed"), groups)
	}

	var (
		problems []string
		checked  []string
	)
	confidence := shipment.value.Confidence
	if okInvoice {
		confidence = minOf(confidence, invoice.value.Confidence)
		gap := normalize.DaysBetween(invoice.at, shipment.at)
		switch {
		case gap < 0:
			problems = append(problems, fmt.Sprintf("shipment date %s precedes invoice date %s by %d days",
				shipment.value.Canonical, invoice.value.Canonical, -gap))
		case gap > r.MaxGapDays:
			problems = append(problems, fmt.Sprintf("%d-day gap between invoice date %s and shipment date %s exceeds %d days",
				gap, invoice.value.Canonical, shipment.value.Canonical, r.MaxGapDays))
		default:
			checked = append(checked, fmt.Sprintf("invoice %s to shipment %s: %d days",
				invoice.value.Canonical, shipment.value.Canonical, gap))
		}
	}
	if okCustoms {
		confidence = minOf(confidence, customs.value.Confidence)
		gap := normalize.DaysBetween(shipment.at, customs.at)
		if gap < 0 {
			problems = append(problems, fmt.Sprintf("customs date %s precedes shipment date %s by %d days",
				customs.value.Canonical, shipment.value.Canonical, -gap))
		} else {
			checked = append(checked, fmt.Sprintf("shipment %s to customs %s: %d days",
				shipment.value.Canonical, customs.value.Canonical, gap))
		}
	}

	if len(problems) > 0 {
		return withGroups(fail(domain.SeverityWarning, confidence, "%s", strings.Join(problems, "; ")), groups)
	}
	return withGroups(pass(confidence, "date sequence holds (%s)", strings.Join(checked, "; ")), groups)
}

type datedValue struct {
	value domain.NormalizedValue
	at    time.Time
}

func pickDate(facts Facts, groupID string, prefer ...domain.DocumentType) (datedValue, bool) {
	values := facts.Values(groupID)
	parsed := values[:0]
	for _, v := range values {
		if _, ok := normalize.ParseCanonicalDate(v.Canonical); ok {
			parsed = append(parsed, v)
		}
	}
	v, ok := pickFrom(parsed, prefer)
	if !ok {
		return datedValue{}, false
	}
	at, _ := normalize.ParseCanonicalDate(v.Canonical)
	return datedValue{value: v, at: at}, true
}
