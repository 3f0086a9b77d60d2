package matcher

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/kirillkom/tradedoc-reconciler/internal/core/codematch"
	"github.com/kirillkom/tradedoc-reconciler/internal/core/domain"
	"github.com/kirillkom/tradedoc-reconciler/internal/core/normalize"
)

type outcome struct {
	status     domain.MatchStatus
	confidence float64
	consensus  string
	outliers   []int
	notes      []string
}

// Compare builds the record for one observed group. It only reads obs, so
// groups may be compared concurrently.
func (m *Matcher) Compare(obs *Observation, groupID string) (domain.ComparisonRecord, error) {
	group, ok := m.reg.Group(groupID)
	if !ok {
		return domain.ComparisonRecord{}, domain.AggregationError("matcher.compare", "group %q is not registered", groupID)
	}

	values := append([]domain.NormalizedValue{}, obs.Values[groupID]...)
	rec := domain.ComparisonRecord{
		GroupID:   groupID,
		Values:    values,
		MissingIn: append([]string(nil), obs.MissingIn[groupID]...),
		Notes:     append([]string{}, obs.Notes[groupID]...),
	}
	if err := checkOneValuePerDocument(rec); err != nil {
		return domain.ComparisonRecord{}, err
	}

	out := m.compareValues(group, values)
	rec.Status = out.status
	rec.Confidence = out.confidence
	rec.Consensus = out.consensus
	for _, i := range out.outliers {
		rec.Values[i].Outlier = true
		rec.Outliers = append(rec.Outliers, rec.Values[i].SourceDocumentID)
	}
	sort.Strings(rec.Outliers)
	rec.Notes = append(rec.Notes, out.notes...)

	if len(rec.MissingIn) > 0 {
		if len(values) > 0 {
			rec.Notes = append(rec.Notes, fmt.Sprintf("reported values compare as %s", out.status))
		} else {
			rec.Confidence = 0
		}
		rec.Notes = append(rec.Notes, fmt.Sprintf("required but absent in %s", strings.Join(rec.MissingIn, ", ")))
		rec.Status = domain.MatchMissing
	}
	rec.Confidence = round4(clamp01(rec.Confidence))
	return rec, nil
}

func checkOneValuePerDocument(rec domain.ComparisonRecord) error {
	seen := make(map[string]struct{}, len(rec.Values))
	for _, v := range rec.Values {
		if _, dup := seen[v.SourceDocumentID]; dup {
			return domain.AggregationError("matcher.compare", "group %q holds two values from document %q", rec.GroupID, v.SourceDocumentID)
		}
		seen[v.SourceDocumentID] = struct{}{}
	}
	return nil
}

// compareValues walks the statuses from strongest to weakest: exact,
// semantic, partial, consensus (three or more values), mismatch.
func (m *Matcher) compareValues(group domain.CanonicalFieldGroup, values []domain.NormalizedValue) outcome {
	s := m.opts.Scaling
	switch len(values) {
	case 0:
		return outcome{status: domain.MatchMissing}
	case 1:
		return outcome{
			status:     domain.MatchExact,
			confidence: values[0].Confidence,
			consensus:  values[0].Canonical,
			notes:      []string{"single source"},
		}
	}

	if status, ok := agreement(values); ok {
		confidence := minConfidence(values)
		if status == domain.MatchSemantic {
			confidence *= s.Semantic
		}
		return outcome{status: status, confidence: confidence, consensus: values[0].Canonical}
	}

	if m.withinTolerance(group, values) {
		return outcome{
			status:     domain.MatchPartial,
			confidence: minConfidence(values) * s.Partial,
			notes:      []string{"values differ within the group tolerance"},
		}
	}

	if len(values) >= 3 {
		if out, ok := m.consensus(group, values); ok {
			return out
		}
	}

	return outcome{
		status:     domain.MatchMismatch,
		confidence: m.mismatchConfidence(group, values),
		notes:      []string{"values disagree: " + describe(values)},
	}
}

// agreement reports exact when every trimmed raw value is identical and
// semantic when only the canonical forms are.
func agreement(values []domain.NormalizedValue) (domain.MatchStatus, bool) {
	rawEqual := true
	first := values[0]
	for _, v := range values[1:] {
		if v.Canonical != first.Canonical {
			return "", false
		}
		if strings.TrimSpace(v.Raw) != strings.TrimSpace(first.Raw) {
			rawEqual = false
		}
	}
	if rawEqual {
		return domain.MatchExact, true
	}
	return domain.MatchSemantic, true
}

type cluster struct {
	canonical string
	members   []int
}

// consensus looks for a strict-majority canonical value. A tie between the
// largest clusters goes to the one holding the authoritative document's value.
func (m *Matcher) consensus(group domain.CanonicalFieldGroup, values []domain.NormalizedValue) (outcome, bool) {
	var clusters []*cluster
	byCanonical := make(map[string]*cluster)
	for i, v := range values {
		c, ok := byCanonical[v.Canonical]
		if !ok {
			c = &cluster{canonical: v.Canonical}
			byCanonical[v.Canonical] = c
			clusters = append(clusters, c)
		}
		c.members = append(c.members, i)
	}
	sort.SliceStable(clusters, func(i, j int) bool {
		return len(clusters[i].members) > len(clusters[j].members)
	})

	n := len(values)
	top := len(clusters[0].members)
	if top < 2 {
		return outcome{}, false
	}
	var tied []*cluster
	for _, c := range clusters {
		if len(c.members) == top {
			tied = append(tied, c)
		}
	}

	var (
		chosen *cluster
		notes  []string
	)
	switch {
	case len(tied) == 1 && top*2 > n:
		chosen = tied[0]
	case len(tied) > 1:
		authority, ok := m.opts.Authority[group.GroupID]
		if !ok {
			return outcome{}, false
		}
		var holders []*cluster
		for _, c := range tied {
			for _, i := range c.members {
				if values[i].SourceDocumentType == authority {
					holders = append(holders, c)
					break
				}
			}
		}
		if len(holders) != 1 {
			return outcome{}, false
		}
		chosen = holders[0]
		notes = append(notes, fmt.Sprintf("tie broken by authoritative %s", authority))
	default:
		return outcome{}, false
	}

	members := make([]domain.NormalizedValue, 0, len(chosen.members))
	inConsensus := make(map[int]bool, len(chosen.members))
	for _, i := range chosen.members {
		members = append(members, values[i])
		inConsensus[i] = true
	}
	status, _ := agreement(members)
	confidence := minConfidence(members)
	if status == domain.MatchSemantic {
		confidence *= m.opts.Scaling.Semantic
	}
	share := float64(len(members)) / float64(n)
	confidence *= 1 - m.opts.Scaling.ShareWeight*(1-share)

	out := outcome{status: status, confidence: confidence, consensus: chosen.canonical}
	for i, v := range values {
		if inConsensus[i] {
			continue
		}
		out.outliers = append(out.outliers, i)
		notes = append(notes, fmt.Sprintf("%s reports %q; consensus is %q", v.SourceDocumentID, v.Canonical, chosen.canonical))
	}
	out.notes = notes
	return out, true
}

func (m *Matcher) withinTolerance(group domain.CanonicalFieldGroup, values []domain.NormalizedValue) bool {
	if group.Tolerance.IsZero() {
		return false
	}
	for i := 0; i < len(values); i++ {
		for j := i + 1; j < len(values); j++ {
			if !pairWithin(group.Kind, group.Tolerance, values[i], values[j]) {
				return false
			}
		}
	}
	return true
}

func pairWithin(kind domain.ValueKind, tol domain.Tolerance, a, b domain.NormalizedValue) bool {
	if a.Canonical == b.Canonical {
		return true
	}
	switch kind {
	case domain.KindQuantity, domain.KindMoney:
		if tol.Ratio <= 0 || a.Number == nil || b.Number == nil || a.Unit != b.Unit {
			return false
		}
		return relativeDiff(*a.Number, *b.Number) <= tol.Ratio+1e-9
	case domain.KindDate:
		if tol.DayGap <= 0 {
			return false
		}
		days, ok := dayGap(a, b)
		return ok && days <= tol.DayGap
	case domain.KindCode:
		if tol.CodeLevel == "" {
			return false
		}
		return codematch.Level(a.Canonical, b.Canonical).Rank() >= tol.CodeLevel.Rank()
	default:
		if tol.Similarity <= 0 {
			return false
		}
		return textSimilarity(a, b) >= tol.Similarity
	}
}

// mismatchConfidence maps divergence onto [MismatchMin, MismatchMax]: values
// that are nearly equal score close to the maximum.
func (m *Matcher) mismatchConfidence(group domain.CanonicalFieldGroup, values []domain.NormalizedValue) float64 {
	lo, hi := m.opts.Scaling.MismatchMin, m.opts.Scaling.MismatchMax
	span := hi - lo

	switch group.Kind {
	case domain.KindQuantity, domain.KindMoney:
		divergence := 0.0
		eachPair(values, func(a, b domain.NormalizedValue) {
			d := 1.0
			if a.Number != nil && b.Number != nil && a.Unit == b.Unit {
				d = relativeDiff(*a.Number, *b.Number)
			}
			divergence = math.Max(divergence, d)
		})
		return hi - span*clamp01(divergence)
	case domain.KindDate:
		divergence := 0.0
		eachPair(values, func(a, b domain.NormalizedValue) {
			d := 1.0
			if days, ok := dayGap(a, b); ok {
				d = float64(days) / 365
			}
			divergence = math.Max(divergence, d)
		})
		return hi - span*clamp01(divergence)
	case domain.KindCode:
		codeAgreement := 1.0
		eachPair(values, func(a, b domain.NormalizedValue) {
			codeAgreement = math.Min(codeAgreement, m.codes.Match(a.Canonical, b.Canonical).Confidence)
		})
		return lo + span*clamp01(codeAgreement)
	default:
		similarity := 1.0
		eachPair(values, func(a, b domain.NormalizedValue) {
			similarity = math.Min(similarity, textSimilarity(a, b))
		})
		return lo + span*clamp01(similarity)
	}
}

func eachPair(values []domain.NormalizedValue, fn func(a, b domain.NormalizedValue)) {
	for i := 0; i < len(values); i++ {
		for j := i + 1; j < len(values); j++ {
			fn(values[i], values[j])
		}
	}
}

func relativeDiff(a, b float64) float64 {
	scale := math.Max(math.Abs(a), math.Abs(b))
	if scale == 0 {
		return 0
	}
	return math.Abs(a-b) / scale
}

func dayGap(a, b domain.NormalizedValue) (int, bool) {
	ta, okA := normalize.ParseCanonicalDate(a.Canonical)
	tb, okB := normalize.ParseCanonicalDate(b.Canonical)
	if !okA || !okB {
		return 0, false
	}
	days := normalize.DaysBetween(ta, tb)
	if days < 0 {
		days = -days
	}
	return days, true
}

func textSimilarity(a, b domain.NormalizedValue) float64 {
	return normalize.Similarity(
		strings.Join(normalize.Tokens(a.Canonical), " "),
		strings.Join(normalize.Tokens(b.Canonical), " "),
	)
}

func describe(values []domain.NormalizedValue) string {
	parts := make([]string, 0, len(values))
	for _, v := range values {
		parts = append(parts, fmt.Sprintf("%q (%s)", v.Canonical, v.SourceDocumentID))
	}
	return strings.Join(parts, ", ")
}
