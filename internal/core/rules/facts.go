package rules

import (
	"math"
	"sort"

	"github.com/kirillkom/tradedoc-reconciler/internal/core/domain"
)

// Facts is a read-only index over the comparison records of one run.
type Facts struct {
	records map[string]domain.ComparisonRecord
}

func NewFacts(records []domain.ComparisonRecord) Facts {
	index := make(map[string]domain.ComparisonRecord, len(records))
	for _, rec := range records {
		index[rec.GroupID] = rec
	}
	return Facts{records: index}
}

func (f Facts) Record(groupID string) (domain.ComparisonRecord, bool) {
	rec, ok := f.records[groupID]
	return rec, ok
}

// Values returns the values reported for groupID, optionally restricted to
// the given document types.
func (f Facts) Values(groupID string, types ...domain.DocumentType) []domain.NormalizedValue {
	rec, ok := f.records[groupID]
	if !ok {
		return nil
	}
	if len(types) == 0 {
		return append([]domain.NormalizedValue(nil), rec.Values...)
	}
	out := make([]domain.NormalizedValue, 0, len(rec.Values))
	for _, v := range rec.Values {
		if typeIndex(types, v.SourceDocumentType) >= 0 {
			out = append(out, v)
		}
	}
	return out
}

// Pick chooses the value a rule should reason about: values agreeing with
// the group consensus first, then by the order of prefer, then by confidence.
// Types missing from prefer are still eligible after the preferred ones.
func (f Facts) Pick(groupID string, prefer ...domain.DocumentType) (domain.NormalizedValue, bool) {
	return pickFrom(f.Values(groupID), prefer)
}

// PickNumber is Pick restricted to values with a numeric reading.
func (f Facts) PickNumber(groupID string, prefer ...domain.DocumentType) (domain.NormalizedValue, bool) {
	values := f.Values(groupID)
	numeric := values[:0]
	for _, v := range values {
		if v.Number != nil && !math.IsNaN(*v.Number) {
			numeric = append(numeric, v)
		}
	}
	return pickFrom(numeric, prefer)
}

func pickFrom(values []domain.NormalizedValue, prefer []domain.DocumentType) (domain.NormalizedValue, bool) {
	if len(values) == 0 {
		return domain.NormalizedValue{}, false
	}
	rank := func(t domain.DocumentType) int {
		if i := typeIndex(prefer, t); i >= 0 {
			return i
		}
		return len(prefer)
	}
	sorted := append([]domain.NormalizedValue(nil), values...)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		if a.Outlier != b.Outlier {
			return !a.Outlier
		}
		if ra, rb := rank(a.SourceDocumentType), rank(b.SourceDocumentType); ra != rb {
			return ra < rb
		}
		if a.Confidence != b.Confidence {
			return a.Confidence > b.Confidence
		}
		return a.SourceDocumentID < b.SourceDocumentID
	})
	return sorted[0], true
}

func typeIndex(types []domain.DocumentType, t domain.DocumentType) int {
	for i, candidate := range types {
		if candidate == t {
			return i
		}
	}
	return -1
}

func round4(v float64) float64 {
	return math.Round(v*10000) / 10000
}
