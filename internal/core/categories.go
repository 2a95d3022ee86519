package core

import (
	"fmt"
	"slices"
	"sort"
)

// DefaultRevision is the registry revision used when configuration names none.
const DefaultRevision = "v2"

// Registry is one revision of the allowed category labels per record type.
// Order is significant: it is the order selection lists present.
type Registry struct {
	Revision string   `mapstructure:"revision" json:"revision"`
	Income   []string `mapstructure:"income" json:"income"`
	Expense  []string `mapstructure:"expense" json:"expense"`
}

// RecurringCategories is the vocabulary for recurring templates. It is
// unrelated to the expense categories of any registry revision.
var RecurringCategories = []string{"주거비", "통신비", "보험료", "구독서비스", "저축", "기타"}

var builtinRegistries = map[string]Registry{
	"v1": {
		Revision: "v1",
		Income:   []string{"급여", "부수입", "용돈", "기타"},
		Expense:  []string{"식비", "교통", "취미", "쇼핑", "의료", "교육", "기타"},
	},
	"v2": {
		Revision: "v2",
		Income:   []string{"급여", "상여금", "부수입", "금융수입", "용돈", "기타"},
		Expense:  []string{"식비", "카페/간식", "교통", "주거/통신", "쇼핑", "취미/여가", "의료/건강", "교육", "경조사", "기타"},
	},
}

// BuiltinRegistry returns a copy of a built-in revision.
func BuiltinRegistry(revision string) (Registry, bool) {
	r, ok := builtinRegistries[revision]
	if !ok {
		return Registry{}, false
	}
	return r.clone(), true
}

// BuiltinRevisions lists the built-in revision names in sorted order.
func BuiltinRevisions() []string {
	out := make([]string, 0, len(builtinRegistries))
	for name := range builtinRegistries {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// ResolveRegistry picks revision from the configured revisions first and
// the built-in ones second.
func ResolveRegistry(revision string, configured []Registry) (Registry, error) {
	if revision == "" {
		revision = DefaultRevision
	}
	for _, r := range configured {
		if r.Revision == revision {
			if err := r.Validate(); err != nil {
				return Registry{}, err
			}
			return r.clone(), nil
		}
	}
	if r, ok := BuiltinRegistry(revision); ok {
		return r, nil
	}
	return Registry{}, fmt.Errorf("unknown category revision %q", revision)
}

func (r Registry) clone() Registry {
	return Registry{
		Revision: r.Revision,
		Income:   slices.Clone(r.Income),
		Expense:  slices.Clone(r.Expense),
	}
}

// Validate requires both label sets to be non-empty and free of blanks.
func (r Registry) Validate() error {
	if r.Revision == "" {
		return fmt.Errorf("category registry: empty revision name")
	}
	if len(r.Income) == 0 || len(r.Expense) == 0 {
		return fmt.Errorf("category registry %s: income and expense sets must be non-empty", r.Revision)
	}
	for _, c := range append(slices.Clone(r.Income), r.Expense...) {
		if c == "" {
			return fmt.Errorf("category registry %s: %w", r.Revision, ErrEmptyCategory)
		}
	}
	return nil
}

// Categories returns the labels allowed for t.
func (r Registry) Categories(t RecordType) []string {
	switch t {
	case Income:
		return slices.Clone(r.Income)
	case Expense:
		return slices.Clone(r.Expense)
	default:
		return nil
	}
}

// Allows reports whether category belongs to the set for t.
func (r Registry) Allows(t RecordType, category string) bool {
	switch t {
	case Income:
		return slices.Contains(r.Income, category)
	case Expense:
		return slices.Contains(r.Expense, category)
	default:
		return false
	}
}

// All returns the union of both sets, income labels first, without duplicates.
func (r Registry) All() []string {
	seen := make(map[string]struct{}, len(r.Income)+len(r.Expense))
	out := make([]string, 0, len(r.Income)+len(r.Expense))
	for _, c := range append(slices.Clone(r.Income), r.Expense...) {
		if _, ok := seen[c]; ok {
			continue
		}
		seen[c] = struct{}{}
		out = append(out, c)
	}
	return out
}

// FilterOptions returns the category choices for a filter bar: the type's
// labels when a type is selected, otherwise every label.
func (r Registry) FilterOptions(t RecordType) []string {
	if t.Valid() {
		return r.Categories(t)
	}
	return r.All()
}

// CheckCategory validates a submission's category against the registry.
func (r Registry) CheckCategory(t RecordType, category string) error {
	if !t.Valid() {
		return invalid("type", ErrInvalidType)
	}
	if category == "" {
		return invalid("category", ErrEmptyCategory)
	}
	if !r.Allows(t, category) {
		return invalid("category", fmt.Errorf("%w %q for %s", ErrUnknownCategory, category, t))
	}
	return nil
}

// IsRecurringCategory reports whether category is in RecurringCategories.
func IsRecurringCategory(category string) bool {
	return slices.Contains(RecurringCategories, category)
}
