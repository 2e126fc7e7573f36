// Package attrs works with slog-style key/value slices ([k1, v1, k2, v2, ...]).
package attrs

// ExtractString returns the string value stored under key, or "" when the key
// is absent or its value is not a string.
func ExtractString(attrs []any, key string) string {
	for i := 0; i < len(attrs)-1; i += 2 {
		k, ok := attrs[i].(string)
		if !ok || k != key {
			continue
		}
		if v, ok := attrs[i+1].(string); ok {
			return v
		}
	}
	return ""
}

// AppendNonEmpty appends each key/value pair of kv whose value is not "".
// A trailing key without a value is ignored.
func AppendNonEmpty(attrs []any, kv ...string) []any {
	for i := 0; i < len(kv)-1; i += 2 {
		if kv[i+1] == "" {
			continue
		}
		attrs = append(attrs, kv[i], kv[i+1])
	}
	return attrs
}
