package metadata

import (
	"encoding/json"
	"math"
	"sort"
	"strconv"
	"strings"
	"unique"
)

// Kind identifies the concrete type stored in a Value.
type Kind uint8

const (
	// KindInvalid represents an invalid kind.
	KindInvalid Kind = iota
	// KindNull represents a null value.
	KindNull
	// KindInt represents an integer value.
	KindInt
	// KindFloat represents a float value.
	KindFloat
	// KindString represents a string value.
	KindString
	// KindBool represents a boolean value.
	KindBool
	// KindArray represents an array value.
	KindArray
	// KindObject represents a nested map value.
	KindObject
)

// Value is a small typed value used for metadata documents and filters.
// It round-trips arbitrarily nested maps, lists and scalars losslessly.
//
// The representation keeps filtering fast and predictable: no reflection
// and no fmt-based stringification.
//
// NOTE: This is also the persisted shard representation; keep it stable.
type Value struct {
	Kind Kind                  `json:"k"`
	I64  int64                 `json:"i,omitempty"`
	F64  float64               `json:"f,omitempty"`
	s    unique.Handle[string] `json:"-"` // interned string
	B    bool                  `json:"b,omitempty"`
	A    []Value               `json:"a,omitempty"`
	O    map[string]Value      `json:"o,omitempty"`
}

// StringValue returns the string value if Kind is KindString, otherwise "".
func (v Value) StringValue() string {
	if v.Kind == KindString {
		return v.s.Value()
	}
	return ""
}

// MarshalJSON implements json.Marshaler.
func (v Value) MarshalJSON() ([]byte, error) {
	type Alias Value
	aux := &struct {
		S string `json:"s,omitempty"`
		*Alias
	}{
		Alias: (*Alias)(&v),
	}
	if v.Kind == KindString {
		aux.S = v.s.Value()
	}
	return json.Marshal(aux)
}

// UnmarshalJSON implements json.Unmarshaler.
func (v *Value) UnmarshalJSON(data []byte) error {
	type Alias Value
	aux := &struct {
		S string `json:"s,omitempty"`
		*Alias
	}{
		Alias: (*Alias)(v),
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	if v.Kind == KindString {
		v.s = unique.Make(aux.S)
	}
	return nil
}

// Key returns a stable string representation for use in maps. Object keys
// are emitted in sorted order so equal values always produce equal keys.
func (v Value) Key() string {
	switch v.Kind {
	case KindNull:
		return "null"
	case KindInt:
		return "i:" + strconv.FormatInt(v.I64, 10)
	case KindFloat:
		return "f:" + strconv.FormatUint(math.Float64bits(v.F64), 16)
	case KindString:
		return "s:" + v.s.Value()
	case KindBool:
		if v.B {
			return "b:1"
		}
		return "b:0"
	case KindArray:
		if len(v.A) == 0 {
			return "a:"
		}
		parts := make([]string, len(v.A))
		for i := range v.A {
			parts[i] = v.A[i].Key()
		}
		return "a:" + strings.Join(parts, "\x1f")
	case KindObject:
		if len(v.O) == 0 {
			return "o:"
		}
		keys := make([]string, 0, len(v.O))
		for k := range v.O {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		parts := make([]string, len(keys))
		for i, k := range keys {
			parts[i] = k + "=" + v.O[k].Key()
		}
		return "o:" + strings.Join(parts, "\x1f")
	default:
		return "invalid"
	}
}

// AsInt64 returns the int64 value if Kind is KindInt.
func (v Value) AsInt64() (int64, bool) {
	if v.Kind != KindInt {
		return 0, false
	}
	return v.I64, true
}

// AsFloat64 returns the float64 value if Kind is KindFloat.
func (v Value) AsFloat64() (float64, bool) {
	if v.Kind != KindFloat {
		return 0, false
	}
	return v.F64, true
}

// AsString returns the string value if Kind is KindString.
func (v Value) AsString() (string, bool) {
	if v.Kind != KindString {
		return "", false
	}
	return v.s.Value(), true
}

// AsBool returns the boolean value if Kind is KindBool.
func (v Value) AsBool() (bool, bool) {
	if v.Kind != KindBool {
		return false, false
	}
	return v.B, true
}

// AsArray returns the array value if Kind is KindArray.
func (v Value) AsArray() ([]Value, bool) {
	if v.Kind != KindArray {
		return nil, false
	}
	return v.A, true
}

// AsObject returns the nested map if Kind is KindObject.
func (v Value) AsObject() (map[string]Value, bool) {
	if v.Kind != KindObject {
		return nil, false
	}
	return v.O, true
}

// Null returns a null Value.
func Null() Value { return Value{Kind: KindNull} }

// Int returns an int64 Value.
func Int(v int64) Value { return Value{Kind: KindInt, I64: v} }

// Float returns a float64 Value.
func Float(v float64) Value { return Value{Kind: KindFloat, F64: v} }

// String returns a string Value.
func String(v string) Value { return Value{Kind: KindString, s: unique.Make(v)} }

// Bool returns a boolean Value.
func Bool(v bool) Value { return Value{Kind: KindBool, B: v} }

// Array returns an array Value.
func Array(v []Value) Value { return Value{Kind: KindArray, A: v} }

// Object returns a nested map Value.
func Object(v map[string]Value) Value { return Value{Kind: KindObject, O: v} }

// Document is a typed metadata document.
type Document map[string]Value

// Clone creates a deep copy of the document, including nested arrays and
// objects. It is the safe default to prevent external mutation after Add.
func (d Document) Clone() Document {
	if d == nil {
		return nil
	}

	clone := make(Document, len(d))
	for k, v := range d {
		clone[k] = v.clone()
	}
	return clone
}

func (v Value) clone() Value {
	switch v.Kind {
	case KindArray:
		if len(v.A) == 0 {
			return v
		}
		arr := make([]Value, len(v.A))
		for i := range v.A {
			arr[i] = v.A[i].clone()
		}
		v.A = arr
		return v
	case KindObject:
		if len(v.O) == 0 {
			return v
		}
		obj := make(map[string]Value, len(v.O))
		for k, e := range v.O {
			obj[k] = e.clone()
		}
		v.O = obj
		return v
	default:
		return v
	}
}

// CloneIfNeeded clones a document only if it is non-empty; nil and empty
// inputs return nil without allocating.
func CloneIfNeeded(d Document) Document {
	if len(d) == 0 {
		return nil
	}
	return d.Clone()
}
