// Package matcher compares every canonical field group across the whole
// document set at once. A group reported by four documents is one four-way
// comparison; the two-document case is not special.
package matcher

import (
	"math"

	"github.com/kirillkom/tradedoc-reconciler/internal/core/codematch"
	"github.com/kirillkom/tradedoc-reconciler/internal/core/domain"
	"github.com/kirillkom/tradedoc-reconciler/internal/core/registry"
)

// Scaling holds the confidence heuristics applied per match status.
// InvalidValue scales a value kept on a best-effort basis after it failed
// format validation. ShareWeight blends the consensus share into a
// majority's confidence: 1 multiplies by the full share, 0 ignores it.
type Scaling struct {
	Semantic     float64 `json:"semantic" yaml:"semantic"`
	Partial      float64 `json:"partial" yaml:"partial"`
	MismatchMin  float64 `json:"mismatchMin" yaml:"mismatchMin"`
	MismatchMax  float64 `json:"mismatchMax" yaml:"mismatchMax"`
	InvalidValue float64 `json:"invalidValue" yaml:"invalidValue"`
	ShareWeight  float64 `json:"shareWeight" yaml:"shareWeight"`
}

func DefaultScaling() Scaling {
	return Scaling{
		Semantic:     0.9,
		Partial:      0.6,
		MismatchMin:  0.1,
		MismatchMax:  0.3,
		InvalidValue: 0.5,
		ShareWeight:  1,
	}
}

// Options configure a Matcher. Region is the date disambiguation hint passed
// to the normalizer. Authority breaks consensus ties: the cluster holding the
// value from the group's authoritative document type wins.
type Options struct {
	Region    string
	Authority map[string]domain.DocumentType
	Scaling   Scaling
	Codes     codematch.Weights
}

func DefaultOptions() Options {
	return Options{
		Authority: registry.DefaultAuthorityTable(),
		Scaling:   DefaultScaling(),
		Codes:     codematch.DefaultWeights(),
	}
}

// Matcher holds no mutable state; one instance may serve concurrent calls.
type Matcher struct {
	reg   *registry.Registry
	opts  Options
	codes *codematch.Matcher
}

func New(reg *registry.Registry, opts Options) *Matcher {
	if opts.Scaling == (Scaling{}) {
		opts.Scaling = DefaultScaling()
	}
	if opts.Codes == (codematch.Weights{}) {
		opts.Codes = codematch.DefaultWeights()
	}
	return &Matcher{reg: reg, opts: opts, codes: codematch.New(opts.Codes)}
}

// CompareAcrossDocuments produces one record per observed group, in registry
// order.
func CompareAcrossDocuments(extractions []domain.DocumentExtraction, reg *registry.Registry, opts Options) ([]domain.ComparisonRecord, error) {
	return New(reg, opts).CompareAcrossDocuments(extractions)
}

func (m *Matcher) CompareAcrossDocuments(extractions []domain.DocumentExtraction) ([]domain.ComparisonRecord, error) {
	obs, err := m.Collect(extractions)
	if err != nil {
		return nil, err
	}
	records := make([]domain.ComparisonRecord, 0, len(obs.Groups))
	for _, groupID := range obs.Groups {
		rec, err := m.Compare(obs, groupID)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, nil
}

func minConfidence(values []domain.NormalizedValue) float64 {
	lowest := 1.0
	for _, v := range values {
		if v.Confidence < lowest {
			lowest = v.Confidence
		}
	}
	return lowest
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}

func round4(v float64) float64 {
	return math.Round(v*10000) / 10000
}
