package jsoncodec

import (
	"io"

	"github.com/bytedance/sonic"
)

var (
	defaultConfig = sonic.ConfigStd

	// numberConfig keeps numeric literals as json.Number so their original
	// text survives decoding.
	numberConfig = sonic.Config{
		SortMapKeys:    true,
		CopyString:     true,
		ValidateString: true,
		UseNumber:      true,
	}.Froze()

	compactConfig = sonic.Config{
		SortMapKeys:      true,
		CompactMarshaler: true,
	}.Froze()
)

func Marshal(v any) ([]byte, error) {
	return defaultConfig.Marshal(v)
}

func MarshalIndent(v any, prefix, indent string) ([]byte, error) {
	return defaultConfig.MarshalIndent(v, prefix, indent)
}

// MarshalCompact encodes v with sorted keys and without HTML escaping.
func MarshalCompact(v any) ([]byte, error) {
	return compactConfig.Marshal(v)
}

func Unmarshal(data []byte, v any) error {
	return defaultConfig.Unmarshal(data, v)
}

// DecodeValue decodes an arbitrary JSON document into generic Go values.
// Numbers are returned as json.Number.
func DecodeValue(data []byte) (any, error) {
	var out any
	if err := numberConfig.Unmarshal(data, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func Encode(w io.Writer, v any) error {
	enc := defaultConfig.NewEncoder(w)
	return enc.Encode(v)
}

func Decode(r io.Reader, v any) error {
	dec := defaultConfig.NewDecoder(r)
	return dec.Decode(v)
}
