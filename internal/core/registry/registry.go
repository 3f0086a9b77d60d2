// Package registry maps the raw labels used by each document type onto
// canonical field groups.
package registry

import (
	"fmt"
	"sort"
	"strings"
	"unicode"

	"github.com/kirillkom/tradedoc-reconciler/internal/core/domain"
)

// Match is a resolved label. Scoped is set when the document-type table, not
// the global alias set, produced the group.
type Match struct {
	GroupID string
	Scoped  bool
}

// Registry is immutable after construction and safe for concurrent use.
type Registry struct {
	groups   []domain.CanonicalFieldGroup
	position map[string]int
	global   map[string]string
	scoped   map[domain.DocumentType]map[string]string
	required map[domain.DocumentType][]string
}

// TypeSchema is the per-document-type part of the registry: label overrides
// that only apply to that type and the groups the type is expected to carry.
type TypeSchema struct {
	Aliases  map[string]string
	Required []string
}

// New builds a registry. Groups keep their given order, which is the order
// used in reports.
func New(groups []domain.CanonicalFieldGroup, schemas map[domain.DocumentType]TypeSchema) (*Registry, error) {
	r := &Registry{
		groups:   make([]domain.CanonicalFieldGroup, 0, len(groups)),
		position: make(map[string]int, len(groups)),
		global:   make(map[string]string),
		scoped:   make(map[domain.DocumentType]map[string]string),
		required: make(map[domain.DocumentType][]string),
	}
	for _, g := range groups {
		if g.GroupID == "" {
			return nil, domain.WrapError(domain.ErrInvalidInput, "registry.new", fmt.Errorf("group without id"))
		}
		if _, dup := r.position[g.GroupID]; dup {
			return nil, domain.WrapError(domain.ErrInvalidInput, "registry.new", fmt.Errorf("duplicate group %q", g.GroupID))
		}
		g.Aliases = append([]string(nil), g.Aliases...)
		r.position[g.GroupID] = len(r.groups)
		r.groups = append(r.groups, g)

		for _, alias := range append([]string{g.GroupID, g.Label}, g.Aliases...) {
			key := LabelKey(alias)
			if key == "" {
				continue
			}
			if owner, taken := r.global[key]; taken && owner != g.GroupID {
				return nil, domain.WrapError(domain.ErrInvalidInput, "registry.new",
					fmt.Errorf("alias %q claimed by %q and %q", alias, owner, g.GroupID))
			}
			r.global[key] = g.GroupID
		}
	}

	for docType, schema := range schemas {
		if err := r.addSchema(docType, schema); err != nil {
			return nil, err
		}
	}
	return r, nil
}

func (r *Registry) addSchema(docType domain.DocumentType, schema TypeSchema) error {
	table := make(map[string]string, len(schema.Aliases))
	for label, groupID := range schema.Aliases {
		if _, ok := r.position[groupID]; !ok {
			return domain.WrapError(domain.ErrInvalidInput, "registry.new",
				fmt.Errorf("%s alias %q points to unknown group %q", docType, label, groupID))
		}
		table[LabelKey(label)] = groupID
	}
	required := make([]string, 0, len(schema.Required))
	for _, groupID := range schema.Required {
		if _, ok := r.position[groupID]; !ok {
			return domain.WrapError(domain.ErrInvalidInput, "registry.new",
				fmt.Errorf("%s requires unknown group %q", docType, groupID))
		}
		required = append(required, groupID)
	}
	r.sortByPosition(required)
	r.scoped[docType] = table
	r.required[docType] = required
	return nil
}

// Resolve maps a raw label to a group id, consulting the document type's own
// table before the global alias set. Labels compare case-insensitively and
// ignore separators, so "Gross Wt.", "gross_wt", and "grossWt" are one label.
func (r *Registry) Resolve(label string, docType domain.DocumentType) (string, bool) {
	m, ok := r.Lookup(label, docType)
	return m.GroupID, ok
}

func (r *Registry) Lookup(label string, docType domain.DocumentType) (Match, bool) {
	key := LabelKey(label)
	if key == "" {
		return Match{}, false
	}
	if groupID, ok := r.scoped[docType][key]; ok {
		return Match{GroupID: groupID, Scoped: true}, true
	}
	if groupID, ok := r.global[key]; ok {
		return Match{GroupID: groupID}, true
	}
	return Match{}, false
}

func (r *Registry) Group(groupID string) (domain.CanonicalFieldGroup, bool) {
	i, ok := r.position[groupID]
	if !ok {
		return domain.CanonicalFieldGroup{}, false
	}
	return r.groups[i], true
}

// Groups returns a copy of every group in registry order.
func (r *Registry) Groups() []domain.CanonicalFieldGroup {
	out := make([]domain.CanonicalFieldGroup, len(r.groups))
	copy(out, r.groups)
	return out
}

// Position is the registry order of groupID; unknown groups sort last.
func (r *Registry) Position(groupID string) int {
	if i, ok := r.position[groupID]; ok {
		return i
	}
	return len(r.groups)
}

// RequiredGroups lists the groups a document of docType is expected to carry,
// in registry order.
func (r *Registry) RequiredGroups(docType domain.DocumentType) []string {
	return append([]string(nil), r.required[docType]...)
}

// IsRequired reports whether groupID is expected on documents of docType.
func (r *Registry) IsRequired(groupID string, docType domain.DocumentType) bool {
	for _, id := range r.required[docType] {
		if id == groupID {
			return true
		}
	}
	return false
}

// WithTolerances returns a copy of r with the given per-group comparison
// windows replaced.
func (r *Registry) WithTolerances(overrides map[string]domain.Tolerance) (*Registry, error) {
	if len(overrides) == 0 {
		return r, nil
	}
	clone := *r
	clone.groups = r.Groups()
	for groupID, tol := range overrides {
		i, ok := r.position[groupID]
		if !ok {
			return nil, domain.WrapError(domain.ErrInvalidInput, "registry.with_tolerances",
				fmt.Errorf("unknown group %q", groupID))
		}
		if tol.Ratio < 0 || tol.DayGap < 0 || tol.Similarity < 0 || tol.Similarity > 1 {
			return nil, domain.WrapError(domain.ErrInvalidInput, "registry.with_tolerances",
				fmt.Errorf("group %q: negative or out-of-range window", groupID))
		}
		clone.groups[i].Tolerance = tol
	}
	return &clone, nil
}

// SortGroupIDs orders ids by registry position, then lexically.
func (r *Registry) SortGroupIDs(ids []string) {
	r.sortByPosition(ids)
}

func (r *Registry) sortByPosition(ids []string) {
	sort.SliceStable(ids, func(i, j int) bool {
		pi, pj := r.Position(ids[i]), r.Position(ids[j])
		if pi != pj {
			return pi < pj
		}
		return ids[i] < ids[j]
	})
}

// LabelKey folds a raw label into its lookup key: camelCase is split,
// everything is lowercased and runs of non-alphanumerics become one space.
func LabelKey(label string) string {
	var b strings.Builder
	b.Grow(len(label) + 4)
	var prev rune
	pendingSpace := false
	for _, r := range label {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			if unicode.IsUpper(r) && unicode.IsLower(prev) {
				pendingSpace = true
			}
			if pendingSpace && b.Len() > 0 {
				b.WriteByte(' ')
			}
			pendingSpace = false
			b.WriteRune(unicode.ToLower(r))
		case r == '#':
			if b.Len() > 0 {
				b.WriteByte(' ')
			}
			b.WriteString("no")
			pendingSpace = true
		default:
			pendingSpace = true
		}
		prev = r
	}
	return b.String()
}
