// Package metadata models the structured values stored alongside vectors
// and the filters applied to them at search time.
//
// # Values
//
// A [Value] is a tagged union over null, int64, float64, string, bool,
// arrays and nested objects, built with the constructors:
//
//	metadata.String("tech")
//	metadata.Int(2024)
//	metadata.Float(3.14)
//	metadata.Bool(true)
//	metadata.Array([]metadata.Value{...})
//	metadata.Object(map[string]metadata.Value{...})
//
// A [Document] is a map of field name to Value. Strings are interned with
// Go's unique package, so repeated values (tags, categories) share storage
// and compare by handle.
//
// Untyped data converts through [FromAny] and [DocumentFromAny].
//
// # Filtering
//
// A [FilterSet] ANDs single-field conditions. [Equals] builds the common
// case, an equality match over a key→value map:
//
//	fs := metadata.Equals(map[string]metadata.Value{
//		"loc": metadata.String("berlin"),
//	})
//	fs.Matches(doc)
//
// A missing key never matches, whatever the operator.
//
// # Expiry
//
// Documents may carry an "expires_at" field ([ExpiresAtKey]) holding Unix
// seconds (int or float) or an RFC 3339 string; [Expired] evaluates it
// against a caller-supplied instant.
package metadata
