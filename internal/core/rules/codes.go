package rules

import (
	"fmt"

	"github.com/kirillkom/tradedoc-reconciler/internal/core/codematch"
	"github.com/kirillkom/tradedoc-reconciler/internal/core/domain"
	"github.com/kirillkom/tradedoc-reconciler/internal/core/registry"
)

type CodeComparer interface {
	Match(a, b string) codematch.Result
}

// CodeMapping checks classification codes pairwise. Two documents of the same
// type are expected to carry the same code, so anything coarser than a
// subheading match between them escalates; across document types a chapter
// match is accepted.
type CodeMapping struct {
	Codes         CodeComparer
	MinConfidence float64
}

func (CodeMapping) Name() string { return NameCodeMapping }

type codeVerdict struct {
	result domain.RuleResult
	rank   int
}

func (r CodeMapping) Evaluate(facts Facts) domain.RuleResult {
	groups := []string{registry.GroupHSNCode}
	values := facts.Values(registry.GroupHSNCode)
	if len(values) < 2 {
		return withGroups(insufficient("fewer than two documents report a classification code"), groups)
	}
	codes := r.Codes
	if codes == nil {
		codes = codematch.New(codematch.DefaultWeights())
	}

	var worst *codeVerdict
	for i := 0; i < len(values); i++ {
		for j := i + 1; j < len(values); j++ {
			v := r.judge(codes, values[i], values[j])
			if worst == nil || v.rank > worst.rank || (v.rank == worst.rank && v.result.Confidence < worst.result.Confidence) {
				worst = &v
			}
		}
	}
	return withGroups(worst.result, groups)
}

// judge ranks a pair: 0 pass, 1 accepted with a note, 2 warning, 3 error.
func (r CodeMapping) judge(codes CodeComparer, a, b domain.NormalizedValue) codeVerdict {
	m := codes.Match(a.Canonical, b.Canonical)
	confidence := m.Confidence
	pair := fmt.Sprintf("%s %s (%s) vs %s (%s)", m.Level, a.Canonical, a.SourceDocumentID, b.Canonical, b.SourceDocumentID)

	if a.SourceDocumentType == b.SourceDocumentType {
		switch m.Level {
		case domain.LevelExact:
			return codeVerdict{result: pass(confidence, "codes agree: %s", pair), rank: 0}
		case domain.LevelSubheading, domain.LevelHeading:
			return codeVerdict{result: fail(domain.SeverityWarning, confidence,
				"same-type documents disagree below %s level: %s", m.Level, pair), rank: 2}
		default:
			return codeVerdict{result: fail(domain.SeverityError, confidence,
				"same-type documents disagree at chapter level: %s", pair), rank: 3}
		}
	}

	switch {
	case m.Level == domain.LevelNone:
		return codeVerdict{result: fail(domain.SeverityWarning, confidence, "codes share no chapter: %s", pair), rank: 2}
	case !m.Valid && confidence < r.MinConfidence:
		return codeVerdict{result: fail(domain.SeverityWarning, confidence,
			"low-confidence match %.2f on malformed code: %s", confidence, pair), rank: 2}
	case m.Level == domain.LevelChapter:
		return codeVerdict{result: pass(confidence, "chapter-only match accepted across document types: %s", pair), rank: 1}
	default:
		return codeVerdict{result: pass(confidence, "codes agree at %s", pair), rank: 0}
	}
}
