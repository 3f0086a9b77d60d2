// Package codematch compares hierarchical classification codes (HSN/HS)
// by prefix agreement.
package codematch

import (
	"github.com/kirillkom/tradedoc-reconciler/internal/core/domain"
	"github.com/kirillkom/tradedoc-reconciler/internal/core/normalize"
)

// Weights are the confidence assigned to each agreement level.
type Weights struct {
	Exact      float64 `json:"exact" yaml:"exact"`
	Subheading float64 `json:"subheading" yaml:"subheading"`
	Heading    float64 `json:"heading" yaml:"heading"`
	Chapter    float64 `json:"chapter" yaml:"chapter"`
	None       float64 `json:"none" yaml:"none"`

	// InvalidPenalty scales confidence when either code has an invalid length.
	InvalidPenalty float64 `json:"invalidPenalty" yaml:"invalidPenalty"`
}

func DefaultWeights() Weights {
	return Weights{
		Exact:          0.99,
		Subheading:     0.90,
		Heading:        0.70,
		Chapter:        0.40,
		None:           0.10,
		InvalidPenalty: 0.5,
	}
}

func (w Weights) For(level domain.CodeLevel) float64 {
	switch level {
	case domain.LevelExact:
		return w.Exact
	case domain.LevelSubheading:
		return w.Subheading
	case domain.LevelHeading:
		return w.Heading
	case domain.LevelChapter:
		return w.Chapter
	default:
		return w.None
	}
}

// Result of one code comparison. Valid is false when either input failed the
// 4-10 digit check.
type Result struct {
	Level      domain.CodeLevel `json:"level"`
	Confidence float64          `json:"confidence"`
	Valid      bool             `json:"valid"`
}

// Matcher is safe for concurrent use.
type Matcher struct {
	weights Weights
}

func New(weights Weights) *Matcher {
	return &Matcher{weights: weights}
}

var defaultMatcher = New(DefaultWeights())

// MatchCodes compares two codes with the default weights.
func MatchCodes(a, b string) Result {
	return defaultMatcher.Match(a, b)
}

// Match returns the finest level at which the cleaned digit strings agree.
// A level is claimed only when both codes are long enough to carry it and
// every coarser level also agrees.
func (m *Matcher) Match(a, b string) Result {
	da, db := normalize.CleanCode(a), normalize.CleanCode(b)
	level := Level(da, db)
	valid := normalize.ValidCode(da) && normalize.ValidCode(db)

	confidence := m.weights.For(level)
	if !valid {
		confidence *= m.weights.InvalidPenalty
	}
	return Result{Level: level, Confidence: confidence, Valid: valid}
}

var prefixLevels = []struct {
	digits int
	level  domain.CodeLevel
}{
	{6, domain.LevelSubheading},
	{4, domain.LevelHeading},
	{2, domain.LevelChapter},
}

// Level compares already-cleaned digit strings.
func Level(a, b string) domain.CodeLevel {
	if a == "" || b == "" {
		return domain.LevelNone
	}
	if a == b {
		return domain.LevelExact
	}
	for _, p := range prefixLevels {
		if len(a) >= p.digits && len(b) >= p.digits && a[:p.digits] == b[:p.digits] {
			return p.level
		}
	}
	return domain.LevelNone
}

// Worst returns the pair with the coarsest agreement among codes; ties keep
// the earliest pair. It reports false when fewer than two codes are given.
func (m *Matcher) Worst(codes []string) (Result, int, int, bool) {
	if len(codes) < 2 {
		return Result{}, 0, 0, false
	}
	var (
		worst  Result
		wi, wj int
		found  bool
	)
	for i := 0; i < len(codes); i++ {
		for j := i + 1; j < len(codes); j++ {
			r := m.Match(codes[i], codes[j])
			if !found || r.Level.Rank() < worst.Level.Rank() ||
				(r.Level.Rank() == worst.Level.Rank() && r.Confidence < worst.Confidence) {
				worst, wi, wj, found = r, i, j, true
			}
		}
	}
	return worst, wi, wj, true
}
