package metadata

import (
	"sort"
	"strings"
)

// Operator represents a comparison operator for filtering.
type Operator string

const (
	// OpEqual represents the equality operator.
	OpEqual Operator = "eq"
	// OpNotEqual represents the inequality operator.
	OpNotEqual Operator = "ne"
	// OpGreaterThan represents the greater than operator.
	OpGreaterThan Operator = "gt"
	// OpGreaterEqual represents the greater than or equal operator.
	OpGreaterEqual Operator = "gte"
	// OpLessThan represents the less than operator.
	OpLessThan Operator = "lt"
	// OpLessEqual represents the less than or equal operator.
	OpLessEqual Operator = "lte"
	// OpIn represents the in list operator.
	OpIn Operator = "in"
	// OpContains represents the contains substring operator.
	OpContains Operator = "contains"
)

// Filter represents a single metadata filter condition. A document matches
// only if the key is present; a missing key never matches, regardless of
// operator.
type Filter struct {
	Key      string
	Operator Operator
	Value    Value
}

// FilterSet represents a set of filters that must all match (AND logic).
type FilterSet struct {
	Filters []Filter
}

// NewFilterSet creates a new filter set.
func NewFilterSet(filters ...Filter) *FilterSet {
	return &FilterSet{Filters: filters}
}

// Equals builds the equality filter set for a key→expected-value map: a
// document matches only if every key is present and equal. Keys are added
// in sorted order so the set is deterministic.
func Equals(want map[string]Value) *FilterSet {
	keys := make([]string, 0, len(want))
	for k := range want {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	filters := make([]Filter, 0, len(keys))
	for _, k := range keys {
		filters = append(filters, Filter{Key: k, Operator: OpEqual, Value: want[k]})
	}
	return &FilterSet{Filters: filters}
}

// EqualsAny is Equals for untyped maps, converting each value via FromAny.
func EqualsAny(want map[string]any) (*FilterSet, error) {
	typed := make(map[string]Value, len(want))
	for k, v := range want {
		vv, err := FromAny(v)
		if err != nil {
			return nil, err
		}
		typed[k] = vv
	}
	return Equals(typed), nil
}

// Matches checks if the provided document matches this filter.
func (f *Filter) Matches(doc Document) bool {
	value, exists := doc[f.Key]
	if !exists {
		return false
	}

	switch f.Operator {
	case OpEqual:
		return compareEqual(value, f.Value)
	case OpNotEqual:
		return !compareEqual(value, f.Value)
	case OpGreaterThan:
		return compareGreater(value, f.Value)
	case OpGreaterEqual:
		return compareGreater(value, f.Value) || compareEqual(value, f.Value)
	case OpLessThan:
		return compareLess(value, f.Value)
	case OpLessEqual:
		return compareLess(value, f.Value) || compareEqual(value, f.Value)
	case OpIn:
		return compareIn(value, f.Value)
	case OpContains:
		return compareContains(value, f.Value)
	default:
		return false
	}
}

// Matches checks if the provided document matches all filters in the set.
// A nil set matches everything.
func (fs *FilterSet) Matches(doc Document) bool {
	if fs == nil {
		return true
	}
	for _, filter := range fs.Filters {
		if !filter.Matches(doc) {
			return false
		}
	}
	return true
}

func compareEqual(a, b Value) bool {
	if a.Kind == KindNull && b.Kind == KindNull {
		return true
	}
	if a.Kind == KindNull || b.Kind == KindNull {
		return false
	}

	if isNumber(a) && isNumber(b) {
		// Prefer exact int compare when possible.
		if a.Kind == KindInt && b.Kind == KindInt {
			return a.I64 == b.I64
		}
		return asFloat64(a) == asFloat64(b)
	}

	if a.Kind != b.Kind {
		return false
	}

	switch a.Kind {
	case KindString:
		return a.s == b.s
	case KindBool:
		return a.B == b.B
	case KindArray:
		if len(a.A) != len(b.A) {
			return false
		}
		for i := range a.A {
			if !compareEqual(a.A[i], b.A[i]) {
				return false
			}
		}
		return true
	case KindObject:
		if len(a.O) != len(b.O) {
			return false
		}
		for k, av := range a.O {
			bv, ok := b.O[k]
			if !ok || !compareEqual(av, bv) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

func compareGreater(a, b Value) bool {
	if !isNumber(a) || !isNumber(b) {
		return false
	}
	return asFloat64(a) > asFloat64(b)
}

func compareLess(a, b Value) bool {
	if !isNumber(a) || !isNumber(b) {
		return false
	}
	return asFloat64(a) < asFloat64(b)
}

func compareIn(a, b Value) bool {
	if b.Kind != KindArray {
		return false
	}
	for _, item := range b.A {
		if compareEqual(a, item) {
			return true
		}
	}
	return false
}

func compareContains(a, b Value) bool {
	if a.Kind != KindString || b.Kind != KindString {
		return false
	}
	return strings.Contains(a.s.Value(), b.s.Value())
}

func isNumber(v Value) bool {
	return v.Kind == KindInt || v.Kind == KindFloat
}

func asFloat64(v Value) float64 {
	switch v.Kind {
	case KindInt:
		return float64(v.I64)
	case KindFloat:
		return v.F64
	default:
		return 0
	}
}
