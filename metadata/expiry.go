package metadata

import "time"

// ExpiresAtKey is the conventional document key consulted by purge.
const ExpiresAtKey = "expires_at"

// ExpiresAt extracts the expiry instant from a document.
//
// Supported value forms: Int (Unix seconds), Float (Unix seconds with a
// fractional part), String (RFC 3339). Returns false when the key is absent
// or the value has none of these forms; such entries never expire.
func ExpiresAt(doc Document) (time.Time, bool) {
	v, ok := doc[ExpiresAtKey]
	if !ok {
		return time.Time{}, false
	}

	switch v.Kind {
	case KindInt:
		return time.Unix(v.I64, 0), true
	case KindFloat:
		sec := int64(v.F64)
		nsec := int64((v.F64 - float64(sec)) * float64(time.Second))
		return time.Unix(sec, nsec), true
	case KindString:
		t, err := time.Parse(time.RFC3339, v.s.Value())
		if err != nil {
			return time.Time{}, false
		}
		return t, true
	default:
		return time.Time{}, false
	}
}

// Expired reports whether doc carries an expiry instant at or before now.
func Expired(doc Document, now time.Time) bool {
	exp, ok := ExpiresAt(doc)
	if !ok {
		return false
	}
	return !now.Before(exp)
}
