package matcher

import (
	"fmt"
	"sort"
	"strings"

	"github.com/kirillkom/tradedoc-reconciler/internal/core/domain"
	"github.com/kirillkom/tradedoc-reconciler/internal/core/normalize"
	"github.com/kirillkom/tradedoc-reconciler/internal/core/registry"
)

// Observation is the normalized, registry-mapped view of a document set.
// Values hold at most one entry per document and are sorted by document id.
type Observation struct {
	Documents []domain.DocumentExtraction
	// Groups lists, in registry order, every group that gets a record.
	Groups    []string
	Values    map[string][]domain.NormalizedValue
	MissingIn map[string][]string
	Notes     map[string][]string
	Summaries []domain.DocumentSummary
}

type candidate struct {
	label  string
	scoped bool
	value  domain.NormalizedValue
}

// Collect resolves and normalizes every field of every document. Values that
// cannot be normalized are dropped and reported on the document summary;
// classification codes are kept at reduced confidence instead.
func (m *Matcher) Collect(extractions []domain.DocumentExtraction) (*Observation, error) {
	if err := ValidateDocuments(extractions); err != nil {
		return nil, err
	}

	obs := &Observation{
		Documents: extractions,
		Values:    make(map[string][]domain.NormalizedValue),
		MissingIn: make(map[string][]string),
		Notes:     make(map[string][]string),
		Summaries: make([]domain.DocumentSummary, 0, len(extractions)),
	}
	observed := make(map[string]bool)
	perDoc := make([]map[string]domain.NormalizedValue, len(extractions))
	for i, doc := range extractions {
		chosen, summary := m.collectDocument(doc, observed, obs.Notes)
		perDoc[i] = chosen
		obs.Summaries = append(obs.Summaries, summary)
	}
	m.inheritCurrencies(extractions, perDoc, obs.Notes)

	for i := range extractions {
		for groupID, v := range perDoc[i] {
			obs.Values[groupID] = append(obs.Values[groupID], v)
		}
	}
	for groupID := range obs.Values {
		values := obs.Values[groupID]
		sort.Slice(values, func(a, b int) bool {
			return values[a].SourceDocumentID < values[b].SourceDocumentID
		})
	}

	for groupID := range observed {
		for i, doc := range extractions {
			if _, ok := perDoc[i][groupID]; !ok && m.reg.IsRequired(groupID, doc.DocumentType) {
				obs.MissingIn[groupID] = append(obs.MissingIn[groupID], doc.DocumentID)
			}
		}
		sort.Strings(obs.MissingIn[groupID])
		if len(obs.Values[groupID]) > 0 || len(obs.MissingIn[groupID]) > 0 {
			obs.Groups = append(obs.Groups, groupID)
		}
	}
	m.reg.SortGroupIDs(obs.Groups)
	for groupID := range obs.Notes {
		sort.Strings(obs.Notes[groupID])
	}

	for i, doc := range extractions {
		summary := &obs.Summaries[i]
		required := m.reg.RequiredGroups(doc.DocumentType)
		for _, groupID := range required {
			if _, ok := perDoc[i][groupID]; !ok {
				summary.MissingRequiredFields = append(summary.MissingRequiredFields, groupID)
			}
		}
		summary.Completeness = 100
		if len(required) > 0 {
			present := len(required) - len(summary.MissingRequiredFields)
			summary.Completeness = round2(float64(present) / float64(len(required)) * 100)
		}
	}
	return obs, nil
}

// ValidateDocuments rejects document sets the engine cannot attribute values
// in: every document needs a distinct, non-empty id.
func ValidateDocuments(extractions []domain.DocumentExtraction) error {
	seen := make(map[string]struct{}, len(extractions))
	for i, doc := range extractions {
		if strings.TrimSpace(doc.DocumentID) == "" {
			return domain.WrapError(domain.ErrInvalidInput, "matcher.collect", fmt.Errorf("document %d has no documentId", i))
		}
		if _, dup := seen[doc.DocumentID]; dup {
			return domain.WrapError(domain.ErrInvalidInput, "matcher.collect", fmt.Errorf("duplicate documentId %q", doc.DocumentID))
		}
		seen[doc.DocumentID] = struct{}{}
		if !doc.DocumentType.Valid() {
			return domain.WrapError(domain.ErrInvalidInput, "matcher.collect",
				fmt.Errorf("document %q has unsupported type %q", doc.DocumentID, doc.DocumentType))
		}
	}
	return nil
}

func (m *Matcher) collectDocument(doc domain.DocumentExtraction, observed map[string]bool, notes map[string][]string) (map[string]domain.NormalizedValue, domain.DocumentSummary) {
	summary := domain.DocumentSummary{
		DocumentID:            doc.DocumentID,
		DocumentType:          doc.DocumentType,
		FieldCount:            len(doc.Fields),
		MissingRequiredFields: []string{},
		UnmappedFields:        []string{},
		InvalidFields:         []domain.FieldIssue{},
	}

	byGroup := make(map[string][]candidate)
	for _, label := range doc.Labels() {
		match, ok := m.reg.Lookup(label, doc.DocumentType)
		if !ok {
			summary.UnmappedFields = append(summary.UnmappedFields, label)
			continue
		}
		summary.MappedFieldCount++
		observed[match.GroupID] = true

		group, _ := m.reg.Group(match.GroupID)
		field := doc.Fields[label]
		v, err := normalize.Value(field.Text(), group.Kind, normalize.Context{
			Region:       m.opts.Region,
			ExpectedUnit: group.ExpectedUnit,
		})
		v.SourceDocumentID = doc.DocumentID
		v.SourceDocumentType = doc.DocumentType
		v.SourceLabel = label
		v.Confidence = domain.ClampConfidence(field.Confidence)

		if err != nil {
			code := domain.NormalizationCodeOf(err)
			if code == domain.CodeEmptyValue {
				continue
			}
			issue := domain.FieldIssue{Label: label, GroupID: match.GroupID, Code: code, Message: err.Error()}
			if v.Canonical == "" {
				summary.InvalidFields = append(summary.InvalidFields, issue)
				notes[match.GroupID] = append(notes[match.GroupID],
					fmt.Sprintf("%s: %q dropped: %v", doc.DocumentID, label, err))
				continue
			}
			issue.Message += "; kept at reduced confidence"
			summary.InvalidFields = append(summary.InvalidFields, issue)
			v.Confidence *= m.opts.Scaling.InvalidValue
			v.Warning = err.Error()
		}
		byGroup[match.GroupID] = append(byGroup[match.GroupID], candidate{label: label, scoped: match.Scoped, value: v})
	}

	chosen := make(map[string]domain.NormalizedValue, len(byGroup))
	for groupID, cands := range byGroup {
		sort.SliceStable(cands, func(i, j int) bool {
			a, b := cands[i], cands[j]
			if a.value.Confidence != b.value.Confidence {
				return a.value.Confidence > b.value.Confidence
			}
			if a.scoped != b.scoped {
				return a.scoped
			}
			return a.label < b.label
		})
		chosen[groupID] = cands[0].value
		for _, dropped := range cands[1:] {
			notes[groupID] = append(notes[groupID], fmt.Sprintf("%s: label %q also maps to %s; kept %q",
				doc.DocumentID, dropped.label, groupID, cands[0].label))
		}
	}
	return chosen, summary
}

// inheritCurrencies fills in money values written without a currency, first
// from the document's own currency field, then from the one currency every
// other document used for the group.
func (m *Matcher) inheritCurrencies(extractions []domain.DocumentExtraction, perDoc []map[string]domain.NormalizedValue, notes map[string][]string) {
	for _, group := range m.reg.Groups() {
		if group.Kind != domain.KindMoney {
			continue
		}
		currencies := make(map[string]struct{})
		for i := range extractions {
			if v, ok := perDoc[i][group.GroupID]; ok && v.Unit != "" {
				currencies[v.Unit] = struct{}{}
			}
		}

		for i, doc := range extractions {
			v, ok := perDoc[i][group.GroupID]
			if !ok || v.Unit != "" || v.Number == nil {
				continue
			}
			currency, source := documentCurrency(perDoc[i]), "the document's currency field"
			if currency == "" && len(currencies) == 1 {
				for c := range currencies {
					currency = c
				}
				source = "the other documents"
			}
			if currency == "" {
				continue
			}
			inherited := normalize.MoneyValue(*v.Number, currency)
			v.Canonical, v.Unit = inherited.Canonical, inherited.Unit
			perDoc[i][group.GroupID] = v
			notes[group.GroupID] = append(notes[group.GroupID],
				fmt.Sprintf("%s: currency %s taken from %s", doc.DocumentID, currency, source))
		}
	}
}

func documentCurrency(values map[string]domain.NormalizedValue) string {
	v, ok := values[registry.GroupInvoiceCurrency]
	if !ok || len(v.Canonical) != 3 {
		return ""
	}
	for _, r := range v.Canonical {
		if r < 'A' || r > 'Z' {
			return ""
		}
	}
	return v.Canonical
}

func round2(v float64) float64 {
	return float64(int64(v*100+0.5)) / 100
}
