package domain

type FieldIssue struct {
	Label   string            `json:"label"`
	GroupID string            `json:"groupId"`
	Code    NormalizationCode `json:"code"`
	Message string            `json:"message"`
}

type DocumentSummary struct {
	DocumentID            string       `json:"documentId"`
	DocumentType          DocumentType `json:"documentType"`
	FieldCount            int          `json:"fieldCount"`
	MappedFieldCount      int          `json:"mappedFieldCount"`
	Completeness          float64      `json:"completeness"`
	MissingRequiredFields []string     `json:"missingRequiredFields"`
	UnmappedFields        []string     `json:"unmappedFields"`
	InvalidFields         []FieldIssue `json:"invalidFields"`
}

type DiscrepancyKind string

const (
	DiscrepancyMismatch DiscrepancyKind = "field_mismatch"
	DiscrepancyMissing  DiscrepancyKind = "field_missing"
	DiscrepancyOutlier  DiscrepancyKind = "field_outlier"
	DiscrepancyRule     DiscrepancyKind = "rule_violation"
)

type Resolution string

const (
	ResolvedByAuthority   Resolution = "authoritative"
	AuthorityAbsent       Resolution = "authority_absent"
	NoAuthoritativeSource Resolution = "no_authoritative_source"
)

type Discrepancy struct {
	Kind                    DiscrepancyKind `json:"kind"`
	Severity                Severity        `json:"severity"`
	GroupID                 string          `json:"groupId,omitempty"`
	RuleName                string          `json:"ruleName,omitempty"`
	Category                Category        `json:"category"`
	MatchStatus             MatchStatus     `json:"matchStatus,omitempty"`
	Message                 string          `json:"message"`
	Documents               []string        `json:"documents,omitempty"`
	Resolution              Resolution      `json:"resolution"`
	AuthoritativeSource     DocumentType    `json:"authoritativeSource,omitempty"`
	AuthoritativeDocumentID string          `json:"authoritativeDocumentId,omitempty"`
	AuthoritativeValue      string          `json:"authoritativeValue,omitempty"`
}

type Metrics struct {
	OverallConsistency       float64             `json:"overallConsistency"`
	CriticalFieldConsistency float64             `json:"criticalFieldConsistency"`
	ComparedFields           int                 `json:"comparedFields"`
	CriticalFields           int                 `json:"criticalFields"`
	StatusCounts             map[MatchStatus]int `json:"statusCounts"`
	RulesPassed              int                 `json:"rulesPassed"`
	RulesFailed              int                 `json:"rulesFailed"`
	DiscrepancyCounts        map[Severity]int    `json:"discrepancyCounts"`
}

type Recommendation struct {
	Priority int      `json:"priority"`
	Severity Severity `json:"severity"`
	Subject  string   `json:"subject"`
	Message  string   `json:"message"`
}

// ValidationReport is the stable output contract consumed by presentation
// layers. It carries no timestamps or identifiers so that equal input always
// yields byte-identical JSON.
type ValidationReport struct {
	DocumentsSummary      []DocumentSummary  `json:"documentsSummary"`
	FieldComparisons      []ComparisonRecord `json:"fieldComparisons"`
	RuleResults           []RuleResult       `json:"ruleResults"`
	CriticalDiscrepancies []Discrepancy      `json:"criticalDiscrepancies"`
	Metrics               Metrics            `json:"metrics"`
	Recommendations       []Recommendation   `json:"recommendations"`
}
