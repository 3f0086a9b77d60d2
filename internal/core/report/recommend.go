package report

import (
	"fmt"

	"github.com/kirillkom/tradedoc-reconciler/internal/core/domain"
	"github.com/kirillkom/tradedoc-reconciler/internal/core/rules"
)

var ruleAdvice = map[string]string{
	rules.NameWeightConsistency:  "Re-check the gross and net weights declared on the packing list and waybill.",
	rules.NamePackageConsistency: "Confirm whether commercial and shipping documents count the same package unit.",
	rules.NameDateSequence:       "Verify the invoice, shipment and customs dates for typos or late paperwork.",
	rules.NameDutyRatio:          "Verify the assessable value and duty computation on the bill of entry.",
	rules.NameCodeMapping:        "Align the HSN classification on all documents with the bill of entry.",
}

const noActionAdvice = "No action needed: the documents are consistent."

// recommendations renders one templated line per discrepancy, then one per
// non-critical field that disagrees. Duplicates are dropped and priorities
// follow the discrepancy order.
func (b *Builder) recommendations(records []domain.ComparisonRecord, discrepancies []domain.Discrepancy) []domain.Recommendation {
	out := []domain.Recommendation{}
	seen := make(map[string]bool)
	add := func(severity domain.Severity, subject, message string) {
		key := subject + "\x00" + message
		if seen[key] {
			return
		}
		seen[key] = true
		out = append(out, domain.Recommendation{
			Priority: len(out) + 1,
			Severity: severity,
			Subject:  subject,
			Message:  message,
		})
	}

	for _, d := range discrepancies {
		add(d.Severity, subject(d), discrepancyAdvice(d))
	}
	for _, rec := range records {
		if b.critical[rec.GroupID] {
			continue
		}
		switch rec.Status {
		case domain.MatchMismatch:
			add(domain.SeverityInfo, rec.GroupID, fmt.Sprintf("Review %s: the documents disagree.", rec.GroupID))
		case domain.MatchMissing:
			add(domain.SeverityInfo, rec.GroupID, fmt.Sprintf("Add %s where the document type expects it.", rec.GroupID))
		}
	}
	if len(out) == 0 {
		add(domain.SeverityInfo, "shipment", noActionAdvice)
	}
	return out
}

func discrepancyAdvice(d domain.Discrepancy) string {
	switch d.Kind {
	case domain.DiscrepancyRule:
		if advice, ok := ruleAdvice[d.RuleName]; ok {
			return advice
		}
		return fmt.Sprintf("Investigate the %s rule violation.", d.RuleName)
	case domain.DiscrepancyMissing:
		return fmt.Sprintf("Obtain %s for %s.", d.GroupID, joinIDs(d.Documents))
	case domain.DiscrepancyOutlier:
		return fmt.Sprintf("Correct %s on %s to the consensus value.", d.GroupID, joinIDs(d.Documents))
	}

	switch d.Resolution {
	case domain.ResolvedByAuthority:
		return fmt.Sprintf("Align %s with the %s value %q from %s.",
			d.GroupID, d.AuthoritativeSource, d.AuthoritativeValue, d.AuthoritativeDocumentID)
	case domain.AuthorityAbsent:
		return fmt.Sprintf("Obtain the %s to settle %s.", d.AuthoritativeSource, d.GroupID)
	default:
		return fmt.Sprintf("Verify %s manually; no document type is authoritative for it.", d.GroupID)
	}
}

func joinIDs(ids []string) string {
	switch len(ids) {
	case 0:
		return "the affected documents"
	case 1:
		return ids[0]
	}
	out := ids[0]
	for _, id := range ids[1 : len(ids)-1] {
		out += ", " + id
	}
	return out + " and " + ids[len(ids)-1]
}
