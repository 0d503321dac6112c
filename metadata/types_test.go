package metadata

import (
	"encoding/json"
	"testing"

	gojson "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValueConstructors(t *testing.T) {
	assert.Equal(t, KindNull, Null().Kind)

	i, ok := Int(42).AsInt64()
	require.True(t, ok)
	assert.Equal(t, int64(42), i)

	f, ok := Float(2.5).AsFloat64()
	require.True(t, ok)
	assert.Equal(t, 2.5, f)

	s, ok := String("hello").AsString()
	require.True(t, ok)
	assert.Equal(t, "hello", s)

	b, ok := Bool(true).AsBool()
	require.True(t, ok)
	assert.True(t, b)

	arr, ok := Array([]Value{Int(1), Int(2)}).AsArray()
	require.True(t, ok)
	assert.Len(t, arr, 2)

	obj, ok := Object(map[string]Value{"x": Int(1)}).AsObject()
	require.True(t, ok)
	assert.Equal(t, Int(1), obj["x"])

	// Accessors reject mismatched kinds.
	_, ok = Int(1).AsString()
	assert.False(t, ok)
	_, ok = String("x").AsObject()
	assert.False(t, ok)
}

func TestValueJSONRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		val  Value
	}{
		{"Null", Null()},
		{"Int", Int(123)},
		{"NegativeInt", Int(-7)},
		{"String", String("hello")},
		{"EmptyString", String("")},
		{"Bool", Bool(true)},
		{"Array", Array([]Value{Int(1), String("a"), Bool(false)})},
		{"Object", Object(map[string]Value{"a": Int(1), "b": String("x")})},
		{"Nested", Object(map[string]Value{
			"list": Array([]Value{Object(map[string]Value{"deep": Null()})}),
		})},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, err := json.Marshal(tt.val)
			require.NoError(t, err)

			var got Value
			require.NoError(t, json.Unmarshal(b, &got))
			assert.True(t, compareEqual(tt.val, got), "value changed across round-trip: %s", b)
		})
	}

	t.Run("Float", func(t *testing.T) {
		b, err := json.Marshal(Float(3.14))
		require.NoError(t, err)

		var got Value
		require.NoError(t, json.Unmarshal(b, &got))
		assert.Equal(t, KindFloat, got.Kind)
		assert.InDelta(t, 3.14, got.F64, 1e-9)
	})
}

func TestValueJSONGoccyCompatible(t *testing.T) {
	// The custom Marshal/Unmarshal must behave identically under goccy,
	// since it is the default payload codec.
	in := Object(map[string]Value{"tag": String("a"), "n": Int(3)})

	b, err := gojson.Marshal(in)
	require.NoError(t, err)

	var got Value
	require.NoError(t, gojson.Unmarshal(b, &got))
	assert.True(t, compareEqual(in, got))
	assert.Equal(t, "a", got.O["tag"].StringValue())
}

func TestValueKey(t *testing.T) {
	assert.Equal(t, "null", Null().Key())
	assert.Equal(t, "i:5", Int(5).Key())
	assert.Equal(t, "s:x", String("x").Key())
	assert.Equal(t, "b:1", Bool(true).Key())
	assert.Equal(t, "b:0", Bool(false).Key())
	assert.Equal(t, "a:", Array(nil).Key())
	assert.Equal(t, "o:", Object(nil).Key())

	// Object keys are order-independent.
	a := Object(map[string]Value{"x": Int(1), "y": Int(2)})
	b := Object(map[string]Value{"y": Int(2), "x": Int(1)})
	assert.Equal(t, a.Key(), b.Key())

	// Distinct values produce distinct keys.
	assert.NotEqual(t, Int(1).Key(), Float(1).Key())
	assert.NotEqual(t, a.Key(), Object(map[string]Value{"x": Int(1)}).Key())
}

func TestDocumentClone(t *testing.T) {
	orig := Document{
		"tags":   Array([]Value{String("a"), String("b")}),
		"nested": Object(map[string]Value{"k": Int(1)}),
		"n":      Int(9),
	}

	clone := orig.Clone()
	require.Equal(t, len(orig), len(clone))

	// Mutating the clone's containers must not affect the original.
	clone["tags"].A[0] = String("mutated")
	clone["nested"].O["k"] = Int(99)

	assert.Equal(t, "a", orig["tags"].A[0].StringValue())
	v, _ := orig["nested"].O["k"].AsInt64()
	assert.Equal(t, int64(1), v)

	assert.Nil(t, Document(nil).Clone())
	assert.Nil(t, CloneIfNeeded(nil))
	assert.Nil(t, CloneIfNeeded(Document{}))
	assert.NotNil(t, CloneIfNeeded(orig))
}
