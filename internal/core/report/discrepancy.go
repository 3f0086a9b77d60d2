package report

import (
	"fmt"
	"sort"
	"strings"

	"github.com/kirillkom/tradedoc-reconciler/internal/core/domain"
)

func (b *Builder) discrepancies(summaries []domain.DocumentSummary, records []domain.ComparisonRecord, results []domain.RuleResult) []domain.Discrepancy {
	present := make(map[domain.DocumentType]bool, len(summaries))
	for _, s := range summaries {
		present[s.DocumentType] = true
	}
	byGroup := make(map[string]domain.ComparisonRecord, len(records))
	for _, rec := range records {
		byGroup[rec.GroupID] = rec
	}

	out := []domain.Discrepancy{}
	for _, rec := range records {
		if !b.critical[rec.GroupID] {
			continue
		}
		switch rec.Status {
		case domain.MatchMismatch:
			d := b.fieldDiscrepancy(rec, domain.DiscrepancyMismatch, domain.SeverityError)
			d.Documents = documentIDs(rec.Values)
			d.Message = fmt.Sprintf("%s disagrees across %s", rec.GroupID, describeValues(rec.Values))
			out = append(out, b.resolve(d, rec, true))
		case domain.MatchMissing:
			d := b.fieldDiscrepancy(rec, domain.DiscrepancyMissing, domain.SeverityWarning)
			d.Documents = append([]string(nil), rec.MissingIn...)
			d.Message = fmt.Sprintf("%s is required but absent in %s", rec.GroupID, strings.Join(rec.MissingIn, ", "))
			out = append(out, b.resolve(d, rec, true))
		}
		if len(rec.Outliers) > 0 {
			d := b.fieldDiscrepancy(rec, domain.DiscrepancyOutlier, domain.SeverityWarning)
			d.Documents = append([]string(nil), rec.Outliers...)
			d.Message = fmt.Sprintf("%s on %s deviates from the consensus %q",
				rec.GroupID, strings.Join(rec.Outliers, ", "), rec.Consensus)
			out = append(out, b.resolve(d, rec, true))
		}
	}

	for _, r := range results {
		if !r.Violation() {
			continue
		}
		groupID := b.primaryGroup(r.GroupIDs)
		d := domain.Discrepancy{
			Kind:     domain.DiscrepancyRule,
			Severity: r.Severity,
			GroupID:  groupID,
			RuleName: r.RuleName,
			Category: b.category(groupID),
			Message:  r.Message,
		}
		rec, ok := byGroup[groupID]
		out = append(out, b.resolve(d, rec, ok))
	}

	for i := range out {
		if out[i].Resolution == domain.AuthorityAbsent && present[out[i].AuthoritativeSource] {
			// The authoritative type is in the set but did not report the group.
			out[i].Message += fmt.Sprintf("; authoritative %s does not report it", out[i].AuthoritativeSource)
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		a, c := out[i], out[j]
		if ra, rc := a.Severity.Rank(), c.Severity.Rank(); ra != rc {
			return ra > rc
		}
		if ra, rc := a.Category.Rank(), c.Category.Rank(); ra != rc {
			return ra < rc
		}
		if pa, pc := b.reg.Position(a.GroupID), b.reg.Position(c.GroupID); pa != pc {
			return pa < pc
		}
		if na, nc := subject(a), subject(c); na != nc {
			return na < nc
		}
		return a.Kind < c.Kind
	})
	return out
}

func (b *Builder) fieldDiscrepancy(rec domain.ComparisonRecord, kind domain.DiscrepancyKind, severity domain.Severity) domain.Discrepancy {
	return domain.Discrepancy{
		Kind:        kind,
		Severity:    severity,
		GroupID:     rec.GroupID,
		Category:    b.category(rec.GroupID),
		MatchStatus: rec.Status,
	}
}

// resolve looks the group up in the authority table. It never infers a
// source: no entry means no authoritative source.
func (b *Builder) resolve(d domain.Discrepancy, rec domain.ComparisonRecord, hasRecord bool) domain.Discrepancy {
	authority, ok := b.authority[d.GroupID]
	if !ok {
		d.Resolution = domain.NoAuthoritativeSource
		return d
	}
	d.AuthoritativeSource = authority
	if hasRecord {
		for _, v := range rec.Values {
			if v.SourceDocumentType == authority {
				d.Resolution = domain.ResolvedByAuthority
				d.AuthoritativeDocumentID = v.SourceDocumentID
				d.AuthoritativeValue = v.Canonical
				return d
			}
		}
	}
	d.Resolution = domain.AuthorityAbsent
	return d
}

func (b *Builder) primaryGroup(groupIDs []string) string {
	if len(groupIDs) == 0 {
		return ""
	}
	ids := append([]string(nil), groupIDs...)
	b.reg.SortGroupIDs(ids)
	return ids[0]
}

func (b *Builder) category(groupID string) domain.Category {
	if g, ok := b.reg.Group(groupID); ok {
		return g.Category
	}
	return domain.CategoryDescriptive
}

func subject(d domain.Discrepancy) string {
	if d.RuleName != "" {
		return d.RuleName
	}
	return d.GroupID
}

func documentIDs(values []domain.NormalizedValue) []string {
	ids := make([]string, 0, len(values))
	for _, v := range values {
		ids = append(ids, v.SourceDocumentID)
	}
	sort.Strings(ids)
	return ids
}

func describeValues(values []domain.NormalizedValue) string {
	parts := make([]string, 0, len(values))
	for _, v := range values {
		parts = append(parts, fmt.Sprintf("%s=%q", v.SourceDocumentID, v.Canonical))
	}
	return strings.Join(parts, ", ")
}
