// Package embedding defines the producer interface the cache consumes and a
// concurrency-safe pipeline composing a producer with the cache.
package embedding

import "context"

// Embedder turns text into a fixed-dimension embedding vector. The cache
// layer does not care which model produced a vector; it only stores and
// returns it.
type Embedder interface {
	// Generate creates a vector embedding from text.
	Generate(ctx context.Context, text string) ([]float32, error)

	// Name returns the producer identifier.
	Name() string

	// Dimension returns the vector dimension.
	Dimension() int
}
