// Package report folds comparison records and rule results into the
// validation report handed to presentation layers.
package report

import (
	"sort"

	"github.com/kirillkom/tradedoc-reconciler/internal/core/domain"
	"github.com/kirillkom/tradedoc-reconciler/internal/core/registry"
)

type Options struct {
	// CriticalGroups are weighted by CriticalWeight in metrics and are the
	// only fields whose mismatches become critical discrepancies.
	CriticalGroups []string
	Authority      map[string]domain.DocumentType
	CriticalWeight float64
}

func DefaultOptions() Options {
	return Options{
		CriticalGroups: registry.DefaultCriticalGroups(),
		Authority:      registry.DefaultAuthorityTable(),
		CriticalWeight: 3,
	}
}

// Builder is stateless between calls.
type Builder struct {
	reg       *registry.Registry
	critical  map[string]bool
	authority map[string]domain.DocumentType
	weight    float64
}

func NewBuilder(reg *registry.Registry, opts Options) *Builder {
	critical := make(map[string]bool, len(opts.CriticalGroups))
	for _, id := range opts.CriticalGroups {
		critical[id] = true
	}
	weight := opts.CriticalWeight
	if weight <= 0 {
		weight = 3
	}
	authority := make(map[string]domain.DocumentType, len(opts.Authority))
	for id, t := range opts.Authority {
		authority[id] = t
	}
	return &Builder{reg: reg, critical: critical, authority: authority, weight: weight}
}

func (b *Builder) IsCritical(groupID string) bool {
	return b.critical[groupID]
}

// Build assembles the report. Inputs are not modified, and equal inputs give
// byte-identical JSON.
func (b *Builder) Build(summaries []domain.DocumentSummary, comparisons []domain.ComparisonRecord, results []domain.RuleResult) (domain.ValidationReport, error) {
	if err := b.check(summaries, comparisons); err != nil {
		return domain.ValidationReport{}, err
	}

	records := make([]domain.ComparisonRecord, len(comparisons))
	copy(records, comparisons)
	for i := range records {
		if records[i].Values == nil {
			records[i].Values = []domain.NormalizedValue{}
		}
		if records[i].Notes == nil {
			records[i].Notes = []string{}
		}
	}
	sort.SliceStable(records, func(i, j int) bool {
		return b.reg.Position(records[i].GroupID) < b.reg.Position(records[j].GroupID)
	})

	docs := make([]domain.DocumentSummary, len(summaries))
	copy(docs, summaries)
	rules := append([]domain.RuleResult{}, results...)

	discrepancies := b.discrepancies(summaries, records, rules)
	return domain.ValidationReport{
		DocumentsSummary:      docs,
		FieldComparisons:      records,
		RuleResults:           rules,
		CriticalDiscrepancies: discrepancies,
		Metrics:               b.metrics(records, rules, discrepancies),
		Recommendations:       b.recommendations(records, discrepancies),
	}, nil
}

// check enforces the invariants the matcher guarantees; a failure here is a
// programming error upstream.
func (b *Builder) check(summaries []domain.DocumentSummary, comparisons []domain.ComparisonRecord) error {
	known := make(map[string]struct{}, len(summaries))
	for _, s := range summaries {
		known[s.DocumentID] = struct{}{}
	}
	seenGroups := make(map[string]struct{}, len(comparisons))
	for _, rec := range comparisons {
		if _, dup := seenGroups[rec.GroupID]; dup {
			return domain.AggregationError("report.build", "group %q compared twice", rec.GroupID)
		}
		seenGroups[rec.GroupID] = struct{}{}
		if !validStatus(rec.Status) {
			return domain.AggregationError("report.build", "group %q has status %q", rec.GroupID, rec.Status)
		}

		seenDocs := make(map[string]struct{}, len(rec.Values))
		for _, v := range rec.Values {
			if _, dup := seenDocs[v.SourceDocumentID]; dup {
				return domain.AggregationError("report.build", "group %q holds two values from document %q", rec.GroupID, v.SourceDocumentID)
			}
			seenDocs[v.SourceDocumentID] = struct{}{}
			if _, ok := known[v.SourceDocumentID]; !ok {
				return domain.AggregationError("report.build", "group %q cites unknown document %q", rec.GroupID, v.SourceDocumentID)
			}
		}
		if (rec.Status == domain.MatchMissing) != (len(rec.MissingIn) > 0) {
			return domain.AggregationError("report.build", "group %q: status %s with %d absent documents", rec.GroupID, rec.Status, len(rec.MissingIn))
		}
	}
	return nil
}

func validStatus(s domain.MatchStatus) bool {
	for _, known := range domain.MatchStatuses {
		if s == known {
			return true
		}
	}
	return false
}
