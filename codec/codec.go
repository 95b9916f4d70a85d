// Package codec converts cached values to and from the bytes stored in a
// provider. Every codec is stateless or immutable after construction and safe
// for concurrent use.
package codec

import "fmt"

// Codec encodes/decodes values V to []byte for storage.
type Codec[V any] interface {
	Encode(V) ([]byte, error)
	Decode([]byte) (V, error)
}

// Names accepted by ByName.
const (
	NameJSON    = "json"
	NameMsgpack = "msgpack"
	NameCBOR    = "cbor"
	NameString  = "string" // string values only
)

// ByName returns one of the general purpose codecs by its config name.
// An empty name selects JSON.
func ByName[V any](name string) (Codec[V], error) {
	switch name {
	case "", NameJSON:
		return JSON[V]{}, nil
	case NameMsgpack:
		return Msgpack[V]{}, nil
	case NameCBOR:
		return NewCBOR[V](true)
	case NameString:
		if c, ok := any(String{}).(Codec[V]); ok {
			return c, nil
		}
		return nil, fmt.Errorf("codec: %q encodes string values only", name)
	default:
		return nil, fmt.Errorf("codec: unknown codec %q", name)
	}
}
