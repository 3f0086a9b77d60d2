package domain

type ValueKind string

const (
	KindText     ValueKind = "text"
	KindQuantity ValueKind = "number+unit"
	KindDate     ValueKind = "date"
	KindMoney    ValueKind = "money"
	KindCode     ValueKind = "code"
	KindAddress  ValueKind = "address"

	// KindIdentifier compares document numbers on their alphanumeric core.
	KindIdentifier ValueKind = "identifier"
)

// Category orders field groups when discrepancies are ranked.
type Category string

const (
	CategoryIdentifiers Category = "identifiers"
	CategoryParties     Category = "parties"
	CategoryFinancial   Category = "financial"
	CategoryShipment    Category = "shipment"
	CategoryDescriptive Category = "descriptive"
)

// Rank is lower for more important categories.
func (c Category) Rank() int {
	switch c {
	case CategoryIdentifiers:
		return 0
	case CategoryParties:
		return 1
	case CategoryFinancial:
		return 2
	case CategoryShipment:
		return 3
	case CategoryDescriptive:
		return 4
	default:
		return 5
	}
}

type CodeLevel string

const (
	LevelNone       CodeLevel = "none"
	LevelChapter    CodeLevel = "chapter"
	LevelHeading    CodeLevel = "heading"
	LevelSubheading CodeLevel = "subheading"
	LevelExact      CodeLevel = "exact"
)

// Rank grows with granularity: none=0 ... exact=4.
func (l CodeLevel) Rank() int {
	switch l {
	case LevelChapter:
		return 1
	case LevelHeading:
		return 2
	case LevelSubheading:
		return 3
	case LevelExact:
		return 4
	default:
		return 0
	}
}

// Tolerance is the kind-specific window within which differing values still
// count as a partial match. A zero Tolerance admits no partial matches.
type Tolerance struct {
	Ratio      float64   `json:"ratio,omitempty" yaml:"ratio"`
	DayGap     int       `json:"dayGap,omitempty" yaml:"dayGap"`
	Similarity float64   `json:"similarity,omitempty" yaml:"similarity"`
	CodeLevel  CodeLevel `json:"codeLevel,omitempty" yaml:"codeLevel"`
}

func (t Tolerance) IsZero() bool {
	return t == Tolerance{}
}

type CanonicalFieldGroup struct {
	GroupID      string    `json:"groupId"`
	Label        string    `json:"label"`
	Aliases      []string  `json:"aliases"`
	Kind         ValueKind `json:"valueKind"`
	Category     Category  `json:"category"`
	ExpectedUnit string    `json:"expectedUnit,omitempty"`
	Tolerance    Tolerance `json:"comparisonTolerance"`
}
