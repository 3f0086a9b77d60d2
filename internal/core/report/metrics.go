package report

import (
	"math"

	"github.com/kirillkom/tradedoc-reconciler/internal/core/domain"
)

// metrics weighs every record by its criticality; exact and semantic records
// contribute their confidence, all others contribute nothing.
func (b *Builder) metrics(records []domain.ComparisonRecord, results []domain.RuleResult, discrepancies []domain.Discrepancy) domain.Metrics {
	m := domain.Metrics{
		ComparedFields:    len(records),
		StatusCounts:      make(map[domain.MatchStatus]int, len(domain.MatchStatuses)),
		DiscrepancyCounts: make(map[domain.Severity]int, len(domain.Severities)),
	}
	for _, s := range domain.MatchStatuses {
		m.StatusCounts[s] = 0
	}
	for _, s := range domain.Severities {
		m.DiscrepancyCounts[s] = 0
	}

	var score, total, criticalScore, criticalTotal float64
	for _, rec := range records {
		m.StatusCounts[rec.Status]++
		weight := 1.0
		if b.critical[rec.GroupID] {
			weight = b.weight
			m.CriticalFields++
		}
		contribution := 0.0
		if rec.Status.Consistent() {
			contribution = weight * rec.Confidence
		}
		score += contribution
		total += weight
		if b.critical[rec.GroupID] {
			criticalScore += contribution
			criticalTotal += weight
		}
	}
	m.OverallConsistency = percent(score, total)
	m.CriticalFieldConsistency = percent(criticalScore, criticalTotal)

	for _, r := range results {
		if r.Passed {
			m.RulesPassed++
		} else {
			m.RulesFailed++
		}
	}
	for _, d := range discrepancies {
		m.DiscrepancyCounts[d.Severity]++
	}
	return m
}

func percent(part, whole float64) float64 {
	if whole == 0 {
		return 0
	}
	return math.Round(part/whole*10000) / 100
}
