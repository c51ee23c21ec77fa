package cache

import (
	"encoding/json"
	"fmt"
	"time"
)

// JSONVersion is the version string written to and accepted from JSON cache
// images.
const JSONVersion = "1.0"

// JSONCodec persists a cache as an indented UTF-8 JSON document. It is the
// human-readable counterpart of BinaryCodec and the only layout that keeps
// retained text, creation times, full-precision access times, and usage
// stats. Timestamps inside entries are epoch milliseconds; the envelope
// timestamp is RFC 3339.
type JSONCodec struct{}

// Name implements Codec.
func (JSONCodec) Name() string { return "json" }

type jsonEnvelope struct {
	Version    string      `json:"version"`
	Timestamp  time.Time   `json:"timestamp"`
	MaxSize    int         `json:"maxSize"`
	RetainText bool        `json:"retainText"`
	Stats      jsonStats   `json:"stats"`
	Entries    []jsonEntry `json:"entries"`
}

type jsonStats struct {
	Hits      int64 `json:"hits"`
	Misses    int64 `json:"misses"`
	Sets      int64 `json:"sets"`
	Evictions int64 `json:"evictions"`
}

type jsonEntry struct {
	Key            string    `json:"key"`
	Text           *string   `json:"text"`
	Vector         []float32 `json:"vector"`
	CreatedAt      int64     `json:"createdAt"`
	LastAccessedAt int64     `json:"lastAccessedAt"`
	HitCount       int       `json:"hitCount"`
}

// Encode implements Codec.
func (JSONCodec) Encode(snap *Snapshot) ([]byte, error) {
	env := jsonEnvelope{
		Version:    JSONVersion,
		Timestamp:  snap.SavedAt.UTC(),
		MaxSize:    snap.MaxSize,
		RetainText: snap.RetainText,
		Stats: jsonStats{
			Hits:      snap.Stats.Hits,
			Misses:    snap.Stats.Misses,
			Sets:      snap.Stats.Sets,
			Evictions: snap.Stats.Evictions,
		},
		Entries: make([]jsonEntry, 0, len(snap.Entries)),
	}
	for _, entry := range snap.Entries {
		if len(entry.Vector) != snap.Dimensions {
			return nil, &DimensionMismatchError{Want: snap.Dimensions, Got: len(entry.Vector)}
		}
		je := jsonEntry{
			Key:            entry.Key,
			Vector:         entry.Vector,
			CreatedAt:      entry.CreatedAt.UnixMilli(),
			LastAccessedAt: entry.LastAccessedAt.UnixMilli(),
			HitCount:       entry.HitCount,
		}
		if je.Vector == nil {
			je.Vector = []float32{}
		}
		if snap.RetainText {
			text := entry.Text
			je.Text = &text
		}
		env.Entries = append(env.Entries, je)
	}

	data, err := json.MarshalIndent(env, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode json cache: %w", err)
	}
	return data, nil
}

// Decode implements Codec.
func (c JSONCodec) Decode(data []byte) (*Snapshot, error) {
	var env jsonEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, &DeserializationError{Format: c.Name(), Reason: "malformed document", Err: err}
	}
	if env.Version != JSONVersion {
		return nil, &DeserializationError{Format: c.Name(), Reason: fmt.Sprintf("unrecognized version %q", env.Version)}
	}

	snap := &Snapshot{
		MaxSize:    env.MaxSize,
		RetainText: env.RetainText,
		Stats: Stats{
			Hits:      env.Stats.Hits,
			Misses:    env.Stats.Misses,
			Sets:      env.Stats.Sets,
			Evictions: env.Stats.Evictions,
		},
		Entries: make([]Entry, 0, len(env.Entries)),
		SavedAt: env.Timestamp,
	}
	for _, je := range env.Entries {
		entry := Entry{
			Key:            je.Key,
			Vector:         je.Vector,
			CreatedAt:      time.UnixMilli(je.CreatedAt),
			LastAccessedAt: time.UnixMilli(je.LastAccessedAt),
			HitCount:       je.HitCount,
		}
		if je.Text != nil {
			entry.Text = *je.Text
		}
		snap.Entries = append(snap.Entries, entry)
	}
	if len(snap.Entries) > 0 {
		snap.Dimensions = len(snap.Entries[0].Vector)
	}

	if err := snap.validate(); err != nil {
		return nil, &DeserializationError{Format: c.Name(), Reason: "invalid cache contents", Err: err}
	}
	return snap, nil
}
