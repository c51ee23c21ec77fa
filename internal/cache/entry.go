package cache

import "time"

// Entry is a single cached embedding. Text is kept only when the owning
// cache was configured with RetainText; otherwise it is empty and the key
// alone identifies the entry.
type Entry struct {
	Key            string
	Text           string
	Vector         []float32
	CreatedAt      time.Time
	LastAccessedAt time.Time
	HitCount       int
}
