package domain

type MatchStatus string

const (
	MatchExact    MatchStatus = "exact"
	MatchSemantic MatchStatus = "semantic"
	MatchPartial  MatchStatus = "partial"
	MatchMismatch MatchStatus = "mismatch"
	MatchMissing  MatchStatus = "missing"
)

// MatchStatuses is the stable reporting order.
var MatchStatuses = []MatchStatus{MatchExact, MatchSemantic, MatchPartial, MatchMismatch, MatchMissing}

// Consistent reports whether the status counts toward consistency metrics.
func (s MatchStatus) Consistent() bool {
	return s == MatchExact || s == MatchSemantic
}

// Address holds the best-effort components of a parsed address. Any of them
// may be empty.
type Address struct {
	Line    string `json:"line,omitempty"`
	City    string `json:"city,omitempty"`
	Region  string `json:"region,omitempty"`
	Postal  string `json:"postal,omitempty"`
	Country string `json:"country,omitempty"`
}

type NormalizedValue struct {
	Raw                string       `json:"raw"`
	Canonical          string       `json:"canonical"`
	Unit               string       `json:"unit,omitempty"`
	SourceDocumentID   string       `json:"sourceDocumentId"`
	SourceDocumentType DocumentType `json:"sourceDocumentType"`
	SourceLabel        string       `json:"sourceLabel"`
	Confidence         float64      `json:"confidence"`
	Outlier            bool         `json:"outlier,omitempty"`
	Warning            string       `json:"warning,omitempty"`

	Number  *float64 `json:"number,omitempty"`
	Address *Address `json:"address,omitempty"`
}

type ComparisonRecord struct {
	GroupID    string            `json:"groupId"`
	Values     []NormalizedValue `json:"values"`
	Status     MatchStatus       `json:"matchStatus"`
	Confidence float64           `json:"confidence"`
	Consensus  string            `json:"consensus,omitempty"`
	Outliers   []string          `json:"outliers,omitempty"`
	MissingIn  []string          `json:"missingIn,omitempty"`
	Notes      []string          `json:"notes"`
}

// ValueFrom returns the value reported by the given document, if any.
func (r ComparisonRecord) ValueFrom(documentID string) (NormalizedValue, bool) {
	for _, v := range r.Values {
		if v.SourceDocumentID == documentID {
			return v, true
		}
	}
	return NormalizedValue{}, false
}
