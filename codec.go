package couchkit

import "encoding/json"

// Codec converts between document values and their JSON wire form. The
// default codec uses encoding/json; supply a custom one with WithCodec to
// register special serialization rules.
type Codec interface {
	Marshal(v any) ([]byte, error)
	Unmarshal(data []byte, v any) error
}

type jsonCodec struct{}

func (jsonCodec) Marshal(v any) ([]byte, error) { return json.Marshal(v) }

func (jsonCodec) Unmarshal(data []byte, v any) error { return json.Unmarshal(data, v) }
