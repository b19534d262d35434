package store

import (
	"bytes"
	"encoding/json"
	"math"
	"slices"
	"strconv"
)

// Fields is the body of a document. Values are strings, integers, floats,
// booleans, nil or lists of strings.
type Fields map[string]any

// Clone returns a normalized copy that shares nothing with f.
func (f Fields) Clone() Fields {
	out := make(Fields, len(f))
	for k, v := range f {
		out[k] = Normalize(v)
	}
	return out
}

// Merge returns a copy of f with every key of patch overwritten.
func (f Fields) Merge(patch Fields) Fields {
	out := f.Clone()
	for k, v := range patch {
		out[k] = Normalize(v)
	}
	return out
}

// String returns the value of key as a string, or "" when absent.
func (f Fields) String(key string) string {
	v, ok := f[key]
	if !ok || v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return Canonical(v)
}

// Int returns the value of key as an int. ok is false when the key is
// absent, nil, or not an integer.
func (f Fields) Int(key string) (int, bool) {
	switch v := Normalize(f[key]).(type) {
	case int:
		return v, true
	case string:
		n, err := strconv.Atoi(v)
		return n, err == nil
	default:
		return 0, false
	}
}

// Strings returns the value of key as a list of strings. A scalar string
// is treated as a one-element list.
func (f Fields) Strings(key string) []string {
	switch v := Normalize(f[key]).(type) {
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			out = append(out, Canonical(item))
		}
		return out
	case string:
		return []string{v}
	default:
		return nil
	}
}

// Matches reports whether the document field equals value, or is a list
// containing value. Scalars compare by their canonical string form.
func (f Fields) Matches(field string, value any) bool {
	got, ok := f[field]
	if !ok || got == nil {
		return false
	}
	want := Canonical(value)
	switch v := Normalize(got).(type) {
	case []string:
		return slices.Contains(v, want)
	case []any:
		for _, item := range v {
			if Canonical(item) == want {
				return true
			}
		}
		return false
	default:
		return Canonical(v) == want
	}
}

// Canonical renders a scalar the same way regardless of how it was decoded,
// so 7, 7.0, int64(7) and "7" all become "7".
func Canonical(v any) string {
	switch n := Normalize(v).(type) {
	case nil:
		return ""
	case string:
		return n
	case bool:
		return strconv.FormatBool(n)
	case int:
		return strconv.Itoa(n)
	case float64:
		return strconv.FormatFloat(n, 'g', -1, 64)
	default:
		b, err := json.Marshal(n)
		if err != nil {
			return ""
		}
		return string(b)
	}
}

// Normalize maps the numeric and list types produced by the various
// decoders (JSON, YAML, database/sql) onto int, float64 and []string.
func Normalize(v any) any {
	switch n := v.(type) {
	case nil, string, bool:
		return n
	case int:
		return n
	case int8:
		return int(n)
	case int16:
		return int(n)
	case int32:
		return int(n)
	case int64:
		return int(n)
	case uint:
		return int(n)
	case uint8:
		return int(n)
	case uint16:
		return int(n)
	case uint32:
		return int(n)
	case uint64:
		return int(n)
	case float32:
		return normalizeFloat(float64(n))
	case float64:
		return normalizeFloat(n)
	case json.Number:
		if i, err := n.Int64(); err == nil {
			return int(i)
		}
		if fl, err := n.Float64(); err == nil {
			return normalizeFloat(fl)
		}
		return n.String()
	case []string:
		return slices.Clone(n)
	case []any:
		allStrings := true
		out := make([]any, len(n))
		for i, item := range n {
			out[i] = Normalize(item)
			if _, ok := out[i].(string); !ok {
				allStrings = false
			}
		}
		if allStrings {
			strs := make([]string, len(out))
			for i, item := range out {
				strs[i] = item.(string)
			}
			return strs
		}
		return out
	default:
		return n
	}
}

func normalizeFloat(f float64) any {
	if f == math.Trunc(f) && math.Abs(f) < 1<<53 {
		return int(f)
	}
	return f
}

// Encode serializes fields as JSON for byte-oriented backends.
func Encode(f Fields) ([]byte, error) {
	return json.Marshal(f.Clone())
}

// Decode parses a JSON document body, keeping integers exact.
func Decode(data []byte) (Fields, error) {
	var raw map[string]any
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&raw); err != nil {
		return nil, err
	}
	return Fields(raw).Clone(), nil
}
