package cache

import "fmt"

// DeserializationError reports a persisted cache image that could not be
// decoded: malformed bytes, a truncated buffer, an unrecognized version, or
// contents that cannot form a valid cache. A failed load never modifies the
// in-memory state.
type DeserializationError struct {
	// Format is the codec name, "json" or "binary".
	Format string
	Reason string
	// Err is the underlying cause, may be nil.
	Err error
}

func (e *DeserializationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("decode %s cache: %s: %v", e.Format, e.Reason, e.Err)
	}
	return fmt.Sprintf("decode %s cache: %s", e.Format, e.Reason)
}

func (e *DeserializationError) Unwrap() error { return e.Err }

// DimensionMismatchError reports an attempt to persist vectors of differing
// lengths in one image. Both persisted layouts record a single
// dimensionality for the whole cache.
type DimensionMismatchError struct {
	Want int
	Got  int
}

func (e *DimensionMismatchError) Error() string {
	return fmt.Sprintf("embedding dimension mismatch: cache holds %d-dimensional vectors, found %d", e.Want, e.Got)
}
