package cache

import (
	"container/list"
	"errors"
	"fmt"
	"sort"
	"time"

	multierror "github.com/hashicorp/go-multierror"
)

// Snapshot is the codec-independent image of a cache: configuration, usage
// counters, and entries ordered least recently used first. It is the
// boundary between the in-memory structure and the persistence codecs.
type Snapshot struct {
	MaxSize    int
	RetainText bool

	// Dimensions is the vector length shared by every entry. Zero when
	// the snapshot is empty.
	Dimensions int

	Stats   Stats
	Entries []Entry
	SavedAt time.Time
}

// Snapshot captures the cache's current contents, least recently used entry
// first. It fails with a *DimensionMismatchError when the cached vectors do
// not share a single dimensionality, since both persisted layouts record
// one dimension value for the whole cache.
func (c *Cache) Snapshot() (*Snapshot, error) {
	snap := &Snapshot{
		MaxSize:    c.maxSize,
		RetainText: c.retainText,
		Stats:      c.stats,
		Entries:    make([]Entry, 0, c.order.Len()),
		SavedAt:    time.Now(),
	}
	for elem := c.order.Back(); elem != nil; elem = elem.Prev() {
		entry := elem.Value.(*Entry)
		snap.Entries = append(snap.Entries, Entry{
			Key:            entry.Key,
			Text:           entry.Text,
			Vector:         cloneVector(entry.Vector),
			CreatedAt:      entry.CreatedAt,
			LastAccessedAt: entry.LastAccessedAt,
			HitCount:       entry.HitCount,
		})
	}
	if len(snap.Entries) > 0 {
		snap.Dimensions = len(snap.Entries[0].Vector)
		for _, entry := range snap.Entries {
			if len(entry.Vector) != snap.Dimensions {
				return nil, &DimensionMismatchError{Want: snap.Dimensions, Got: len(entry.Vector)}
			}
		}
	}
	return snap, nil
}

// Restore replaces the cache's entire state with the snapshot's: capacity,
// text retention, stats, and entries. Validation completes before any live
// state is touched, so a failed Restore leaves the cache exactly as it was.
// Recency is rebuilt from last-access times; entries sharing a timestamp
// keep the snapshot's own ordering.
func (c *Cache) Restore(snap *Snapshot) error {
	if err := snap.validate(); err != nil {
		return fmt.Errorf("invalid cache snapshot: %w", err)
	}

	entries := make([]Entry, len(snap.Entries))
	copy(entries, snap.Entries)
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].LastAccessedAt.Before(entries[j].LastAccessedAt)
	})

	newEntries := make(map[string]*list.Element, len(entries))
	newOrder := list.New()
	for i := range entries {
		entry := entries[i]
		entry.Vector = cloneVector(entry.Vector)
		newEntries[entry.Key] = newOrder.PushFront(&entry)
	}

	c.maxSize = snap.MaxSize
	c.retainText = snap.RetainText
	c.stats = snap.Stats
	c.entries = newEntries
	c.order = newOrder
	return nil
}

// validate checks the structural invariants a snapshot must hold before it
// may replace live state. All violations are reported together.
func (s *Snapshot) validate() error {
	var errs *multierror.Error

	if s.MaxSize < 1 {
		errs = multierror.Append(errs, fmt.Errorf("max size must be at least 1, got %d", s.MaxSize))
	} else if len(s.Entries) > s.MaxSize {
		errs = multierror.Append(errs, fmt.Errorf("%d entries exceed max size %d", len(s.Entries), s.MaxSize))
	}
	if s.Stats.Hits < 0 || s.Stats.Misses < 0 || s.Stats.Sets < 0 || s.Stats.Evictions < 0 {
		errs = multierror.Append(errs, errors.New("stats counters cannot be negative"))
	}

	seen := make(map[string]struct{}, len(s.Entries))
	for i, entry := range s.Entries {
		if entry.Key == "" {
			errs = multierror.Append(errs, fmt.Errorf("entry %d: empty key", i))
		}
		if _, dup := seen[entry.Key]; dup {
			errs = multierror.Append(errs, fmt.Errorf("entry %d: duplicate key %s", i, entry.Key))
		}
		seen[entry.Key] = struct{}{}
		if len(entry.Vector) != s.Dimensions {
			errs = multierror.Append(errs, fmt.Errorf("entry %d: vector has %d dimensions, cache stores %d", i, len(entry.Vector), s.Dimensions))
		}
		if entry.HitCount < 0 {
			errs = multierror.Append(errs, fmt.Errorf("entry %d: negative hit count %d", i, entry.HitCount))
		}
		if !s.RetainText && entry.Text != "" {
			errs = multierror.Append(errs, fmt.Errorf("entry %d: carries text but text retention is off", i))
		}
	}

	return errs.ErrorOrNil()
}
