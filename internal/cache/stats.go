package cache

import "fmt"

// Stats holds the usage counters of one cache instance. Counters only ever
// move through cache operations; Clear resets them along with the contents.
type Stats struct {
	Hits      int64
	Misses    int64
	Sets      int64
	Evictions int64
}

// HitRate reports the fraction of lookups served from the cache as a
// percentage with two decimals, e.g. "75.00%". Before any lookup it
// reports "0.00%".
func (s Stats) HitRate() string {
	total := s.Hits + s.Misses
	if total == 0 {
		return "0.00%"
	}
	return fmt.Sprintf("%.2f%%", float64(s.Hits)/float64(total)*100)
}
