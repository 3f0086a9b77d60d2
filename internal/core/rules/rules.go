// Package rules holds the cross-document business rules. Each rule reads
// the comparison records and returns one result; rules never call each other
// and every rule runs on every evaluation.
package rules

import (
	"fmt"
	"sort"

	"github.com/kirillkom/tradedoc-reconciler/internal/core/domain"
)

const (
	NameWeightConsistency  = "weight_consistency"
	NamePackageConsistency = "package_count_consistency"
	NameDateSequence       = "date_sequence"
	NameDutyRatio          = "duty_ratio"
	NameCodeMapping        = "code_mapping"
)

type Rule interface {
	Name() string
	Evaluate(facts Facts) domain.RuleResult
}

// Thresholds are the tunable limits of the default rule set.
type Thresholds struct {
	MaxPackagingOverhead float64 `json:"maxPackagingOverhead" yaml:"maxPackagingOverhead"`
	PackageRatioMin      float64 `json:"packageRatioMin" yaml:"packageRatioMin"`
	PackageRatioMax      float64 `json:"packageRatioMax" yaml:"packageRatioMax"`
	MaxShipmentGapDays   int     `json:"maxShipmentGapDays" yaml:"maxShipmentGapDays"`
	DutyRatioMin         float64 `json:"dutyRatioMin" yaml:"dutyRatioMin"`
	DutyRatioMax         float64 `json:"dutyRatioMax" yaml:"dutyRatioMax"`
	MinCodeConfidence    float64 `json:"minCodeConfidence" yaml:"minCodeConfidence"`
}

func DefaultThresholds() Thresholds {
	return Thresholds{
		MaxPackagingOverhead: 0.20,
		PackageRatioMin:      0.5,
		PackageRatioMax:      4.0,
		MaxShipmentGapDays:   30,
		DutyRatioMin:         0,
		DutyRatioMax:         0.5,
		MinCodeConfidence:    0.5,
	}
}

// Default returns the full rule set in reporting order.
func Default(th Thresholds, codes CodeComparer) []Rule {
	return []Rule{
		WeightConsistency{MaxOverhead: th.MaxPackagingOverhead},
		PackageConsistency{MinRatio: th.PackageRatioMin, MaxRatio: th.PackageRatioMax},
		DateSequence{MaxGapDays: th.MaxShipmentGapDays},
		DutyRatio{MinRatio: th.DutyRatioMin, MaxRatio: th.DutyRatioMax},
		CodeMapping{Codes: codes, MinConfidence: th.MinCodeConfidence},
	}
}

// Run evaluates every rule without short-circuiting.
func Run(set []Rule, facts Facts) []domain.RuleResult {
	results := make([]domain.RuleResult, 0, len(set))
	for _, r := range set {
		results = append(results, Evaluate(r, facts))
	}
	return results
}

// Evaluate runs one rule and fills in the fields every result carries.
func Evaluate(r Rule, facts Facts) domain.RuleResult {
	result := r.Evaluate(facts)
	result.RuleName = r.Name()
	if result.Severity == "" {
		result.Severity = domain.SeverityInfo
	}
	result.Confidence = round4(domain.ClampConfidence(result.Confidence))
	if len(result.GroupIDs) > 0 {
		result.GroupIDs = append([]string(nil), result.GroupIDs...)
		sort.Strings(result.GroupIDs)
	}
	return result
}

func insufficient(format string, args ...any) domain.RuleResult {
	return domain.RuleResult{
		Passed:     true,
		Severity:   domain.SeverityInfo,
		Message:    "insufficient data: " + fmt.Sprintf(format, args...),
		Confidence: 0,
	}
}

func pass(confidence float64, format string, args ...any) domain.RuleResult {
	return domain.RuleResult{
		Passed:     true,
		Severity:   domain.SeverityInfo,
		Message:    fmt.Sprintf(format, args...),
		Confidence: confidence,
	}
}

func fail(severity domain.Severity, confidence float64, format string, args ...any) domain.RuleResult {
	return domain.RuleResult{
		Passed:     false,
		Severity:   severity,
		Message:    fmt.Sprintf(format, args...),
		Confidence: confidence,
	}
}
