package domain

type Severity string

const (
	SeverityInfo    Severity = "info"
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

// Severities is the stable reporting order.
var Severities = []Severity{SeverityInfo, SeverityWarning, SeverityError}

// Rank grows with severity: info=0, warning=1, error=2.
func (s Severity) Rank() int {
	switch s {
	case SeverityWarning:
		return 1
	case SeverityError:
		return 2
	default:
		return 0
	}
}

type RuleResult struct {
	RuleName   string   `json:"ruleName"`
	Passed     bool     `json:"passed"`
	Severity   Severity `json:"severity"`
	Message    string   `json:"message"`
	Confidence float64  `json:"confidence"`
	GroupIDs   []string `json:"groups,omitempty"`
}

// Violation reports whether the result should surface as a discrepancy.
func (r RuleResult) Violation() bool {
	return !r.Passed && r.Severity.Rank() >= SeverityWarning.Rank()
}
