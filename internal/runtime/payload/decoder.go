package payload

import (
	"errors"
	"fmt"
	"strings"

	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/drblury/fieldcounter/internal/runtime/jsoncodec"
)

// Content types understood by the default registry.
const (
	ContentTypeJSON          = "application/json"
	ContentTypeProtobuf      = "application/x-protobuf"
	ContentTypeProtobufAlias = "application/protobuf"
)

// ErrEmptyPayload is returned when there is nothing to decode.
var ErrEmptyPayload = errors.New("payload: empty payload")

// Decoder turns raw message bytes into a Value.
type Decoder interface {
	Decode(data []byte) (Value, error)
}

// DecoderFunc adapts a function to the Decoder interface.
type DecoderFunc func(data []byte) (Value, error)

func (f DecoderFunc) Decode(data []byte) (Value, error) { return f(data) }

// JSON decodes a JSON document, keeping numbers in their literal form.
var JSON Decoder = DecoderFunc(func(data []byte) (Value, error) {
	if len(strings.TrimSpace(string(data))) == 0 {
		return nil, ErrEmptyPayload
	}
	raw, err := jsoncodec.DecodeValue(data)
	if err != nil {
		return nil, fmt.Errorf("decode json: %w", err)
	}
	return FromGo(raw), nil
})

// Protobuf decodes a binary google.protobuf.Struct.
var Protobuf Decoder = DecoderFunc(func(data []byte) (Value, error) {
	if len(data) == 0 {
		return nil, ErrEmptyPayload
	}
	var s structpb.Struct
	if err := proto.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("decode protobuf struct: %w", err)
	}
	return fromStruct(&s), nil
})

// Registry selects a Decoder by content type. The entry under the empty key
// is the fallback. A Registry must not be modified once handlers use it.
type Registry map[string]Decoder

// DefaultRegistry decodes JSON unless the message says it carries protobuf.
func DefaultRegistry() Registry {
	return Registry{
		"":                       JSON,
		ContentTypeJSON:          JSON,
		ContentTypeProtobuf:      Protobuf,
		ContentTypeProtobufAlias: Protobuf,
	}
}

// Lookup returns the decoder for contentType, or the fallback.
func (r Registry) Lookup(contentType string) (Decoder, bool) {
	if dec, ok := r[strings.ToLower(contentType)]; ok && dec != nil {
		return dec, true
	}
	dec, ok := r[""]
	return dec, ok && dec != nil
}
