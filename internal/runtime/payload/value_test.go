package payload

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/types/known/structpb"
)

func TestFromGoNormalisesShapes(t *testing.T) {
	v := FromGo(map[string]any{
		"color": "red",
		"count": json.Number("5"),
		"tags":  []any{"a", nil},
		"owner": map[string]string{"name": "kim"},
		"ids":   [2]int{1, 2},
	})

	record, ok := v.(Record)
	require.True(t, ok, "expected Record, got %T", v)
	assert.Equal(t, []string{"color", "count", "ids", "owner", "tags"}, record.Names())

	color, ok := record.Get("color")
	require.True(t, ok)
	assert.Equal(t, KindScalar, color.Kind())
	assert.Equal(t, "red", color.Text())

	tags := record["tags"].(List)
	require.Len(t, tags, 2)
	assert.True(t, IsNull(tags[1]))

	owner := record["owner"].(Record)
	assert.Equal(t, "kim", owner["name"].Text())

	ids := record["ids"].(List)
	assert.Equal(t, "2", ids[1].Text())

	_, ok = record.Get("missing")
	assert.False(t, ok)
}

func TestFromGoNilsBecomeNull(t *testing.T) {
	var nilMap map[string]int
	var nilSlice []string
	var nilPtr *int

	for _, in := range []any{nil, nilMap, nilSlice, nilPtr, (*structpb.Struct)(nil)} {
		assert.Equal(t, KindNull, FromGo(in).Kind(), "input %T", in)
	}
}

func TestFromGoKeepsValues(t *testing.T) {
	list := List{NewScalar("x")}
	assert.Equal(t, list, FromGo(list))
	assert.Equal(t, "hello", FromGo([]byte("hello")).Text())
}

func TestScalarText(t *testing.T) {
	tests := []struct {
		in   any
		want string
	}{
		{"red", "red"},
		{json.Number("5"), "5"},
		{json.Number("1.50"), "1.50"},
		{json.Number("1e2"), "100.0"},
		{json.Number("-2.5E+1"), "-25.0"},
		{json.Number("1.5e-3"), "0.0015"},
		{true, "true"},
		{false, "false"},
		{float64(5), "5"},
		{7.25, "7.25"},
		{float32(0.5), "0.5"},
		{42, "42"},
		{int64(-3), "-3"},
		{uint64(9), "9"},
		{int16(12), "12"},
	}

	for _, tt := range tests {
		if got := NewScalar(tt.in).Text(); got != tt.want {
			t.Fatalf("Text(%#v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestCompositeText(t *testing.T) {
	v := FromGo(map[string]any{"b": []any{json.Number("1"), "x"}, "a": true})
	assert.Equal(t, `{"a":true,"b":[1,"x"]}`, v.Text())
	assert.Equal(t, `[null,"y"]`, List{Null{}, NewScalar("y")}.Text())
}

func TestFromGoStructpb(t *testing.T) {
	s, err := structpb.NewStruct(map[string]any{
		"color": "blue",
		"price": 5,
		"ok":    true,
		"items": []any{map[string]any{"price": 7}},
		"none":  nil,
	})
	require.NoError(t, err)

	record := FromGo(s).(Record)
	assert.Equal(t, "blue", record["color"].Text())
	assert.Equal(t, "5", record["price"].Text())
	assert.Equal(t, "true", record["ok"].Text())
	assert.True(t, IsNull(record["none"]))

	items := record["items"].(List)
	require.Len(t, items, 1)
	assert.Equal(t, "7", items[0].(Record)["price"].Text())

	assert.Equal(t, KindScalar, FromGo(structpb.NewStringValue("z")).Kind())
}

func TestInterfaceRoundTrip(t *testing.T) {
	in := map[string]any{"a": []any{"x", nil}, "b": map[string]any{"c": true}}
	assert.Equal(t, in, FromGo(in).Interface())
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "record", KindRecord.String())
	assert.Equal(t, "kind(9)", Kind(9).String())
}
