package types

import (
	"encoding/json"
	"fmt"
)

// Codec converts facet data to and from its stored form. Stores that keep a
// JSONL source of truth require Encode to produce valid JSON.
type Codec[D any] interface {
	Encode(data D) ([]byte, error)
	Decode(raw []byte) (D, error)
}

// JSONCodec encodes data with encoding/json.
type JSONCodec[D any] struct{}

// Encode marshals data to JSON.
func (JSONCodec[D]) Encode(data D) ([]byte, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidData, err)
	}
	return raw, nil
}

// Decode unmarshals JSON into a fresh D.
func (JSONCodec[D]) Decode(raw []byte) (D, error) {
	var data D
	if err := json.Unmarshal(raw, &data); err != nil {
		return data, fmt.Errorf("%w: %v", ErrInvalidData, err)
	}
	return data, nil
}
