// Package local provides a deterministic, offline embedding producer. It
// stands in for a real model during demos and tests: the vector for a text
// is derived from the text's SHA-256 digest, so the same text yields the
// same unit-length vector on every run and platform.
package local

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"math"
	"math/rand"
)

// DefaultDimension is used when the configured dimension is zero.
const DefaultDimension = 256

// Embedder generates pseudo-embeddings seeded by the input text.
type Embedder struct {
	dimension int
}

// New creates a local embedder producing vectors of the given dimension.
// Zero means DefaultDimension, negative is an error.
func New(dimension int) (*Embedder, error) {
	if dimension < 0 {
		return nil, fmt.Errorf("dimension cannot be negative, got %d", dimension)
	}
	if dimension == 0 {
		dimension = DefaultDimension
	}
	return &Embedder{dimension: dimension}, nil
}

// Generate creates a unit-normalized pseudo-embedding for text.
func (e *Embedder) Generate(_ context.Context, text string) ([]float32, error) {
	sum := sha256.Sum256([]byte(text))
	seed := int64(binary.LittleEndian.Uint64(sum[:8]))
	rng := rand.New(rand.NewSource(seed))

	vector := make([]float32, e.dimension)
	var norm float64
	for i := range vector {
		v := rng.Float64()*2 - 1
		vector[i] = float32(v)
		norm += v * v
	}
	if norm > 0 {
		scale := float32(1 / math.Sqrt(norm))
		for i := range vector {
			vector[i] *= scale
		}
	}
	return vector, nil
}

// Name returns the producer identifier.
func (e *Embedder) Name() string {
	return "local"
}

// Dimension returns the vector dimension.
func (e *Embedder) Dimension() int {
	return e.dimension
}
