package cache

import (
	"bytes"
	"unicode"
)

// Codec translates between a cache Snapshot and its persisted byte form.
// The two implementations are independent and interchangeable: an image
// written through one codec can seed a cache that later persists through
// the other.
type Codec interface {
	// Name identifies the codec in logs and errors, "json" or "binary".
	Name() string

	// Encode serializes a snapshot.
	Encode(snap *Snapshot) ([]byte, error)

	// Decode parses and fully validates data. It returns a
	// *DeserializationError for malformed, truncated, or semantically
	// invalid input.
	Decode(data []byte) (*Snapshot, error)
}

// DetectCodec guesses the codec that produced data: JSON documents open
// with '{' (possibly after whitespace), anything else is treated as the
// binary layout.
func DetectCodec(data []byte) Codec {
	trimmed := bytes.TrimLeftFunc(data, unicode.IsSpace)
	if len(trimmed) > 0 && trimmed[0] == '{' {
		return JSONCodec{}
	}
	return BinaryCodec{}
}
