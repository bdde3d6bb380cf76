// Package payload models loosely-typed event payloads as an immutable
// recursive value with an explicit "absent" variant, so that dot-path lookups
// into malformed or partial data never panic and never return nil.
package payload

import (
	"bytes"
	"encoding/json"
	"fmt"
	"maps"
	"math"
	"reflect"
	"slices"
	"strconv"
	"strings"
)

// Kind identifies the variant held by a Value.
type Kind uint8

const (
	KindAbsent Kind = iota
	KindNull
	KindBool
	KindNumber
	KindString
	KindArray
	KindObject
)

var kindName = map[Kind]string{
	KindAbsent: "absent",
	KindNull:   "null",
	KindBool:   "bool",
	KindNumber: "number",
	KindString: "string",
	KindArray:  "array",
	KindObject: "object",
}

func (k Kind) String() string {
	return kindName[k]
}

// Value is one node of a payload. The zero Value is Absent.
// Values are never mutated after construction.
type Value struct {
	kind Kind
	b    bool
	n    float64
	s    string
	arr  []Value
	obj  map[string]Value
}

// Absent returns the sentinel for an unresolvable path.
func Absent() Value { return Value{} }

// Null returns an explicit null.
func Null() Value { return Value{kind: KindNull} }

// Bool wraps a boolean.
func Bool(b bool) Value { return Value{kind: KindBool, b: b} }

// Number wraps a number.
func Number(n float64) Value { return Value{kind: KindNumber, n: n} }

// String wraps a string.
func String(s string) Value { return Value{kind: KindString, s: s} }

// Array builds an array value from the given items.
func Array(items ...Value) Value {
	return Value{kind: KindArray, arr: slices.Clone(items)}
}

// Object builds an object value from the given fields.
func Object(fields map[string]Value) Value {
	if fields == nil {
		fields = map[string]Value{}
	}

	return Value{kind: KindObject, obj: maps.Clone(fields)}
}

// Kind returns the variant of v.
func (v Value) Kind() Kind { return v.kind }

// IsAbsent reports whether v is the absent sentinel.
func (v Value) IsAbsent() bool { return v.kind == KindAbsent }

// IsNull reports whether v is an explicit null.
func (v Value) IsNull() bool { return v.kind == KindNull }

// IsNullish reports whether v is absent or null.
func (v Value) IsNullish() bool { return v.kind == KindAbsent || v.kind == KindNull }

// IsObject reports whether v is a keyed object.
func (v Value) IsObject() bool { return v.kind == KindObject }

// Len returns the number of elements of an array or fields of an object.
func (v Value) Len() int {
	switch v.kind {
	case KindArray:
		return len(v.arr)
	case KindObject:
		return len(v.obj)
	default:
		return 0
	}
}

// Get returns the field named key, or Absent when v is not an object or has
// no such field.
func (v Value) Get(key string) Value {
	if v.kind != KindObject {
		return Absent()
	}

	field, ok := v.obj[key]
	if !ok {
		return Absent()
	}

	return field
}

// Has reports whether v is an object with the given field.
func (v Value) Has(key string) bool {
	if v.kind != KindObject {
		return false
	}

	_, ok := v.obj[key]

	return ok
}

// Index returns the i-th element of an array, or Absent.
func (v Value) Index(i int) Value {
	if v.kind != KindArray || i < 0 || i >= len(v.arr) {
		return Absent()
	}

	return v.arr[i]
}

// Items returns a copy of the elements of an array value.
func (v Value) Items() []Value {
	if v.kind != KindArray {
		return nil
	}

	return slices.Clone(v.arr)
}

// Keys returns the sorted field names of an object value.
func (v Value) Keys() []string {
	if v.kind != KindObject {
		return nil
	}

	return slices.Sorted(maps.Keys(v.obj))
}

// Lookup resolves a dot-separated path such as "vehicle.speed" or
// "stops.0.name". Numeric segments index into arrays. Malformed paths (empty,
// leading/trailing or doubled dots) and missing segments resolve to Absent.
func (v Value) Lookup(path string) Value {
	if path == "" {
		return Absent()
	}

	current := v

	for _, segment := range strings.Split(path, ".") {
		if segment == "" {
			return Absent()
		}

		switch current.kind {
		case KindObject:
			current = current.Get(segment)
		case KindArray:
			i, err := strconv.Atoi(segment)
			if err != nil {
				return Absent()
			}

			current = current.Index(i)
		default:
			return Absent()
		}

		if current.IsAbsent() {
			return current
		}
	}

	return current
}

// Number returns the numeric interpretation of v: numbers as-is and strings
// that parse as finite decimal numbers. Everything else is not numeric.
func (v Value) Number() (float64, bool) {
	switch v.kind {
	case KindNumber:
		return v.n, true
	case KindString:
		s := strings.TrimSpace(v.s)
		if s == "" {
			return 0, false
		}

		n, err := strconv.ParseFloat(s, 64)
		if err != nil || math.IsNaN(n) || math.IsInf(n, 0) {
			return 0, false
		}

		return n, true
	default:
		return 0, false
	}
}

// IsNumeric reports whether v has a numeric interpretation.
func (v Value) IsNumeric() bool {
	_, ok := v.Number()

	return ok
}

// Truthy coerces v to a boolean: true, non-zero numbers and the strings
// "true", "1", "yes", "on" (case-insensitive) are true.
func (v Value) Truthy() bool {
	switch v.kind {
	case KindBool:
		return v.b
	case KindNumber:
		return v.n != 0
	case KindString:
		switch strings.ToLower(strings.TrimSpace(v.s)) {
		case "true", "1", "yes", "on":
			return true
		}

		return false
	default:
		return false
	}
}

// Text returns the string interpretation of v. Absent and null are empty;
// arrays and objects render as JSON.
func (v Value) Text() string {
	switch v.kind {
	case KindString:
		return v.s
	case KindNumber:
		return strconv.FormatFloat(v.n, 'f', -1, 64)
	case KindBool:
		return strconv.FormatBool(v.b)
	case KindArray, KindObject:
		data, err := json.Marshal(v)
		if err != nil {
			return ""
		}

		return string(data)
	default:
		return ""
	}
}

// IsScalar reports whether v is a bool, number or string.
func (v Value) IsScalar() bool {
	return v.kind == KindBool || v.kind == KindNumber || v.kind == KindString
}

// String implements fmt.Stringer for logging.
func (v Value) String() string {
	if v.kind == KindAbsent {
		return "<absent>"
	}

	if v.kind == KindNull {
		return "null"
	}

	return v.Text()
}

// LooselyEqual compares a and b numerically when both are numeric and as
// strings otherwise.
func LooselyEqual(a, b Value) bool {
	an, aok := a.Number()
	bn, bok := b.Number()

	if aok && bok {
		return an == bn
	}

	return a.Text() == b.Text()
}

// Interface converts v back to plain Go values (map[string]any, []any,
// float64, string, bool, nil). Absent converts to nil.
func (v Value) Interface() any {
	switch v.kind {
	case KindBool:
		return v.b
	case KindNumber:
		return v.n
	case KindString:
		return v.s
	case KindArray:
		out := make([]any, len(v.arr))
		for i, item := range v.arr {
			out[i] = item.Interface()
		}

		return out
	case KindObject:
		out := make(map[string]any, len(v.obj))
		for k, field := range v.obj {
			out[k] = field.Interface()
		}

		return out
	default:
		return nil
	}
}

// FromAny converts plain Go data (as produced by encoding/json or written by
// hand in tests) into a Value.
func FromAny(in any) Value {
	switch t := in.(type) {
	case nil:
		return Null()
	case Value:
		return t
	case bool:
		return Bool(t)
	case string:
		return String(t)
	case json.Number:
		n, err := t.Float64()
		if err != nil {
			return String(t.String())
		}

		return Number(n)
	case float64:
		return Number(t)
	case float32:
		return Number(float64(t))
	case int:
		return Number(float64(t))
	case int8:
		return Number(float64(t))
	case int16:
		return Number(float64(t))
	case int32:
		return Number(float64(t))
	case int64:
		return Number(float64(t))
	case uint:
		return Number(float64(t))
	case uint8:
		return Number(float64(t))
	case uint16:
		return Number(float64(t))
	case uint32:
		return Number(float64(t))
	case uint64:
		return Number(float64(t))
	case []any:
		items := make([]Value, len(t))
		for i, item := range t {
			items[i] = FromAny(item)
		}

		return Value{kind: KindArray, arr: items}
	case map[string]any:
		fields := make(map[string]Value, len(t))
		for k, field := range t {
			fields[k] = FromAny(field)
		}

		return Value{kind: KindObject, obj: fields}
	case map[string]string:
		fields := make(map[string]Value, len(t))
		for k, field := range t {
			fields[k] = String(field)
		}

		return Value{kind: KindObject, obj: fields}
	default:
		return fromReflect(in)
	}
}

// fromReflect handles typed slices, maps and structs by round-tripping
// through JSON.
func fromReflect(in any) Value {
	rv := reflect.ValueOf(in)
	if rv.Kind() == reflect.Pointer && rv.IsNil() {
		return Null()
	}

	data, err := json.Marshal(in)
	if err != nil {
		return String(fmt.Sprint(in))
	}

	v, err := Parse(data)
	if err != nil {
		return String(fmt.Sprint(in))
	}

	return v
}

// Parse decodes JSON into a Value.
func Parse(data []byte) (Value, error) {
	decoder := json.NewDecoder(bytes.NewReader(data))
	decoder.UseNumber()

	var raw any

	err := decoder.Decode(&raw)
	if err != nil {
		return Absent(), fmt.Errorf("failed to decode payload: %w", err)
	}

	return FromAny(raw), nil
}

// MarshalJSON encodes v. Absent encodes as null.
func (v Value) MarshalJSON() ([]byte, error) {
	return json.Marshal(v.Interface())
}

// UnmarshalJSON decodes JSON into v.
func (v *Value) UnmarshalJSON(data []byte) error {
	parsed, err := Parse(data)
	if err != nil {
		return err
	}

	*v = parsed

	return nil
}
