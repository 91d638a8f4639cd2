package metadata

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/gophersatwork/granary"
	"github.com/gophersatwork/granary/dataset"
)

// Document is one parsed metadata blob.
type Document = map[string]any

// Field extracts one typed value from a metadata document.
type Field[V any] struct {
	name string
	path []string
	kind string
	conv func(any) (V, bool)
}

// Name returns the field name; its cache entry is "metadata_<name>".
func (f Field[V]) Name() string {
	return f.name
}

// Path returns the dotted location of the field in the document.
func (f Field[V]) Path() string {
	return strings.Join(f.path, ".")
}

// Extract reads the field from doc.
//
// A null or absent value, or a null object on the way to it, yields
// ok == false. A value of the wrong JSON type is an ErrSchemaViolation.
func (f Field[V]) Extract(project dataset.ProjectID, doc Document) (V, bool, error) {
	var zero V
	var cur any = doc
	for i, key := range f.path {
		obj, ok := cur.(map[string]any)
		if !ok {
			return zero, false, f.violation(project, strings.Join(f.path[:i], "."), "object", cur)
		}
		cur, ok = obj[key]
		if !ok || cur == nil {
			return zero, false, nil
		}
	}
	v, ok := f.conv(cur)
	if !ok {
		return zero, false, f.violation(project, f.Path(), f.kind, cur)
	}
	return v, true, nil
}

func (f Field[V]) violation(project dataset.ProjectID, at, want string, got any) error {
	return granary.SchemaViolation(cellName(f.name),
		"%s: field %q: expected %s, got %s", project, at, want, jsonKind(got))
}

func newField[V any](name, kind string, conv func(any) (V, bool), path []string) Field[V] {
	if len(path) == 0 {
		path = []string{name}
	}
	return Field[V]{name: name, path: path, kind: kind, conv: conv}
}

// Bool declares a boolean field at path, or at the top-level key name.
func Bool(name string, path ...string) Field[bool] {
	return newField(name, "boolean", func(v any) (bool, bool) {
		b, ok := v.(bool)
		return b, ok
	}, path)
}

// Int declares an integer field. Numbers with a fractional part are violations.
func Int(name string, path ...string) Field[int64] {
	return newField(name, "integer", asInt, path)
}

// String declares a string field.
func String(name string, path ...string) Field[string] {
	return newField(name, "string", func(v any) (string, bool) {
		s, ok := v.(string)
		return s, ok
	}, path)
}

// Timestamp declares an RFC 3339 timestamp field, extracted as unix seconds.
func Timestamp(name string, path ...string) Field[int64] {
	return newField(name, "RFC 3339 timestamp", func(v any) (int64, bool) {
		s, ok := v.(string)
		if !ok {
			return 0, false
		}
		t, err := time.Parse(time.RFC3339, s)
		if err != nil {
			return 0, false
		}
		return t.Unix(), true
	}, path)
}

func asInt(v any) (int64, bool) {
	switch n := v.(type) {
	case int64:
		return n, true
	case int:
		return int64(n), true
	case uint64:
		if n > math.MaxInt64 {
			return 0, false
		}
		return int64(n), true
	case float64:
		if n != math.Trunc(n) || n > math.MaxInt64 || n < math.MinInt64 {
			return 0, false
		}
		return int64(n), true
	default:
		return 0, false
	}
}

// jsonKind names the JSON type of a decoded value.
func jsonKind(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case bool:
		return "boolean"
	case string:
		return "string"
	case int, int64, uint64, float64:
		return "number"
	case map[string]any:
		return "object"
	case []any:
		return "array"
	default:
		return fmt.Sprintf("%T", v)
	}
}
