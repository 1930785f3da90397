// Package payload models decoded message payloads as a closed set of value
// kinds so field paths can be resolved without reflection on user types.
package payload

import (
	"encoding/json"
	"fmt"
	"reflect"
	"sort"
	"strconv"
	"strings"

	"google.golang.org/protobuf/types/known/structpb"

	"github.com/drblury/fieldcounter/internal/runtime/jsoncodec"
)

// Kind enumerates the payload value variants.
type Kind int

const (
	KindNull Kind = iota
	KindScalar
	KindList
	KindRecord
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindScalar:
		return "scalar"
	case KindList:
		return "list"
	case KindRecord:
		return "record"
	default:
		return "kind(" + strconv.Itoa(int(k)) + ")"
	}
}

// Value is a decoded payload node. The set of implementations is closed:
// Null, Scalar, List and Record.
type Value interface {
	Kind() Kind
	// Interface returns the plain Go form (nil, scalar, []any, map[string]any).
	Interface() any
	// Text returns the form used as a counter value.
	Text() string
	isValue()
}

// Null is an explicit null.
type Null struct{}

func (Null) Kind() Kind     { return KindNull }
func (Null) Interface() any { return nil }
func (Null) Text() string   { return "" }
func (Null) isValue()       {}

// Scalar wraps a string, number or boolean.
type Scalar struct {
	v any
}

// NewScalar wraps v without normalising it.
func NewScalar(v any) Scalar { return Scalar{v: v} }

func (s Scalar) Kind() Kind     { return KindScalar }
func (s Scalar) Interface() any { return s.v }
func (s Scalar) isValue()       {}

func (s Scalar) Text() string {
	switch v := s.v.(type) {
	case string:
		return v
	case json.Number:
		return numberText(v)
	case bool:
		return strconv.FormatBool(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(v), 'f', -1, 32)
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case uint64:
		return strconv.FormatUint(v, 10)
	case fmt.Stringer:
		return v.String()
	default:
		return fmt.Sprint(v)
	}
}

// numberText keeps a JSON number literal as written unless it uses exponent
// notation, which is expanded to plain decimal form with at least one
// fractional digit ("1e2" becomes "100.0").
func numberText(n json.Number) string {
	lit := n.String()
	if !strings.ContainsAny(lit, "eE") {
		return lit
	}
	f, err := n.Float64()
	if err != nil {
		return lit
	}
	text := strconv.FormatFloat(f, 'f', -1, 64)
	if !strings.Contains(text, ".") {
		text += ".0"
	}
	return text
}

// List is an ordered sequence of values.
type List []Value

func (l List) Kind() Kind { return KindList }
func (l List) isValue()   {}

func (l List) Interface() any {
	out := make([]any, len(l))
	for i, item := range l {
		out[i] = item.Interface()
	}
	return out
}

func (l List) Text() string { return compactText(l) }

// Record maps field names to values.
type Record map[string]Value

func (r Record) Kind() Kind { return KindRecord }
func (r Record) isValue()   {}

func (r Record) Interface() any {
	out := make(map[string]any, len(r))
	for k, v := range r {
		out[k] = v.Interface()
	}
	return out
}

func (r Record) Text() string { return compactText(r) }

// Get returns the named field.
func (r Record) Get(name string) (Value, bool) {
	v, ok := r[name]
	return v, ok
}

// Names returns the field names in sorted order.
func (r Record) Names() []string {
	names := make([]string, 0, len(r))
	for k := range r {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

func compactText(v Value) string {
	data, err := jsoncodec.MarshalCompact(v.Interface())
	if err != nil {
		return fmt.Sprint(v.Interface())
	}
	return string(data)
}

// IsNull reports whether v is absent or an explicit null.
func IsNull(v Value) bool {
	return v == nil || v.Kind() == KindNull
}

// FromGo normalises a plain Go value. Maps with string keys and structpb
// structs become Records, slices and arrays become Lists, []byte is treated
// as a string and anything else is kept as a Scalar.
func FromGo(v any) Value {
	switch t := v.(type) {
	case nil:
		return Null{}
	case Value:
		return t
	case string, bool, json.Number,
		int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64,
		float32, float64:
		return Scalar{v: t}
	case []byte:
		return Scalar{v: string(t)}
	case []any:
		out := make(List, len(t))
		for i, item := range t {
			out[i] = FromGo(item)
		}
		return out
	case map[string]any:
		out := make(Record, len(t))
		for k, item := range t {
			out[k] = FromGo(item)
		}
		return out
	case *structpb.Struct:
		if t == nil {
			return Null{}
		}
		return fromStruct(t)
	case *structpb.ListValue:
		if t == nil {
			return Null{}
		}
		return fromListValue(t)
	case *structpb.Value:
		return fromStructValue(t)
	}
	return fromReflect(reflect.ValueOf(v))
}

func fromReflect(rv reflect.Value) Value {
	switch rv.Kind() {
	case reflect.Pointer, reflect.Interface:
		if rv.IsNil() {
			return Null{}
		}
	case reflect.Slice:
		if rv.IsNil() {
			return Null{}
		}
		return reflectList(rv)
	case reflect.Array:
		return reflectList(rv)
	case reflect.Map:
		if rv.IsNil() {
			return Null{}
		}
		if rv.Type().Key().Kind() == reflect.String {
			out := make(Record, rv.Len())
			iter := rv.MapRange()
			for iter.Next() {
				out[iter.Key().String()] = FromGo(iter.Value().Interface())
			}
			return out
		}
	}
	return Scalar{v: rv.Interface()}
}

func reflectList(rv reflect.Value) List {
	out := make(List, rv.Len())
	for i := 0; i < rv.Len(); i++ {
		out[i] = FromGo(rv.Index(i).Interface())
	}
	return out
}

func fromStruct(s *structpb.Struct) Record {
	out := make(Record, len(s.GetFields()))
	for k, v := range s.GetFields() {
		out[k] = fromStructValue(v)
	}
	return out
}

func fromListValue(l *structpb.ListValue) List {
	out := make(List, len(l.GetValues()))
	for i, v := range l.GetValues() {
		out[i] = fromStructValue(v)
	}
	return out
}

func fromStructValue(v *structpb.Value) Value {
	switch k := v.GetKind().(type) {
	case *structpb.Value_StringValue:
		return Scalar{v: k.StringValue}
	case *structpb.Value_NumberValue:
		return Scalar{v: k.NumberValue}
	case *structpb.Value_BoolValue:
		return Scalar{v: k.BoolValue}
	case *structpb.Value_StructValue:
		return fromStruct(k.StructValue)
	case *structpb.Value_ListValue:
		return fromListValue(k.ListValue)
	default:
		return Null{}
	}
}
