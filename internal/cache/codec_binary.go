package cache

import (
	"encoding/binary"
	"fmt"
	"math"
	"time"
)

// BinaryVersion is the version word written to and accepted from binary
// cache images.
const BinaryVersion uint32 = 1

const (
	// binaryHeaderSize is the fixed header length: version, maxSize,
	// entryCount, and vectorDimensions, each a little-endian uint32.
	binaryHeaderSize = 16

	// binaryEntryOverhead is the fixed per-entry footprint beyond key and
	// vector bytes: the two length words, the hit count, and the
	// last-access timestamp.
	binaryEntryOverhead = 16
)

// BinaryCodec persists a cache in a compact fixed layout. The header is four
// little-endian uint32 words (version, maxSize, entryCount,
// vectorDimensions); each entry is keyLength, the raw key bytes,
// vectorLength, the vector as little-endian IEEE 754 float32 values, then
// hitCount and lastAccessedAt, all lengths and counters as little-endian
// uint32.
//
// lastAccessedAt is epoch milliseconds truncated to 32 bits, so it round
// trips only modulo 2^32. The layout carries no retained text, creation
// times, or usage stats; loading a binary image resets those.
type BinaryCodec struct{}

// Name implements Codec.
func (BinaryCodec) Name() string { return "binary" }

// Encode implements Codec.
func (BinaryCodec) Encode(snap *Snapshot) ([]byte, error) {
	size := binaryHeaderSize
	for _, entry := range snap.Entries {
		size += binaryEntryOverhead + len(entry.Key) + 4*len(entry.Vector)
	}

	buf := make([]byte, 0, size)
	buf = binary.LittleEndian.AppendUint32(buf, BinaryVersion)
	buf = binary.LittleEndian.AppendUint32(buf, uint32(snap.MaxSize))
	buf = binary.LittleEndian.AppendUint32(buf, uint32(len(snap.Entries)))
	buf = binary.LittleEndian.AppendUint32(buf, uint32(snap.Dimensions))

	for _, entry := range snap.Entries {
		if len(entry.Vector) != snap.Dimensions {
			return nil, &DimensionMismatchError{Want: snap.Dimensions, Got: len(entry.Vector)}
		}
		buf = binary.LittleEndian.AppendUint32(buf, uint32(len(entry.Key)))
		buf = append(buf, entry.Key...)
		buf = binary.LittleEndian.AppendUint32(buf, uint32(len(entry.Vector)))
		for _, v := range entry.Vector {
			buf = binary.LittleEndian.AppendUint32(buf, math.Float32bits(v))
		}
		buf = binary.LittleEndian.AppendUint32(buf, uint32(entry.HitCount))
		buf = binary.LittleEndian.AppendUint32(buf, uint32(entry.LastAccessedAt.UnixMilli()))
	}
	return buf, nil
}

// Decode implements Codec. Every length word is checked against the
// remaining buffer before it is trusted; truncated or corrupted input fails
// with a *DeserializationError.
func (c BinaryCodec) Decode(data []byte) (*Snapshot, error) {
	fail := func(reason string) (*Snapshot, error) {
		return nil, &DeserializationError{Format: c.Name(), Reason: reason}
	}

	if len(data) < binaryHeaderSize {
		return fail(fmt.Sprintf("header truncated at %d bytes", len(data)))
	}
	version := binary.LittleEndian.Uint32(data[0:4])
	if version != BinaryVersion {
		return fail(fmt.Sprintf("unrecognized version %d", version))
	}
	maxSize := binary.LittleEndian.Uint32(data[4:8])
	entryCount := binary.LittleEndian.Uint32(data[8:12])
	dims := binary.LittleEndian.Uint32(data[12:16])

	rest := data[binaryHeaderSize:]
	// Each entry needs at least its overhead plus the declared vector
	// bytes. Dividing instead of multiplying keeps the guard exact for
	// arbitrary header values.
	minEntry := uint64(binaryEntryOverhead) + 4*uint64(dims)
	if entryCount > 0 && uint64(len(rest))/uint64(entryCount) < minEntry {
		return fail(fmt.Sprintf("entry count %d exceeds remaining %d bytes", entryCount, len(rest)))
	}

	r := byteReader{buf: rest}
	entries := make([]Entry, 0, entryCount)
	for i := uint32(0); i < entryCount; i++ {
		keyLen, ok := r.uint32()
		if !ok {
			return fail(fmt.Sprintf("entry %d: key length truncated", i))
		}
		keyBytes, ok := r.bytes(int(keyLen))
		if !ok {
			return fail(fmt.Sprintf("entry %d: key of %d bytes overruns buffer", i, keyLen))
		}
		vecLen, ok := r.uint32()
		if !ok {
			return fail(fmt.Sprintf("entry %d: vector length truncated", i))
		}
		if vecLen != dims {
			return fail(fmt.Sprintf("entry %d: vector has %d dimensions, header declares %d", i, vecLen, dims))
		}
		vecBytes, ok := r.bytes(int(vecLen) * 4)
		if !ok {
			return fail(fmt.Sprintf("entry %d: vector truncated", i))
		}
		vector := make([]float32, vecLen)
		for j := range vector {
			vector[j] = math.Float32frombits(binary.LittleEndian.Uint32(vecBytes[j*4:]))
		}
		hitCount, ok := r.uint32()
		if !ok {
			return fail(fmt.Sprintf("entry %d: hit count truncated", i))
		}
		lastMillis, ok := r.uint32()
		if !ok {
			return fail(fmt.Sprintf("entry %d: last access time truncated", i))
		}

		// The layout has no creation time; reuse the recovered access
		// time so restored entries stay internally consistent.
		last := time.UnixMilli(int64(lastMillis))
		entries = append(entries, Entry{
			Key:            string(keyBytes),
			Vector:         vector,
			CreatedAt:      last,
			LastAccessedAt: last,
			HitCount:       int(hitCount),
		})
	}
	if r.remaining() != 0 {
		return fail(fmt.Sprintf("%d trailing bytes after final entry", r.remaining()))
	}

	snap := &Snapshot{
		MaxSize:    int(maxSize),
		Dimensions: int(dims),
		Entries:    entries,
	}
	if err := snap.validate(); err != nil {
		return nil, &DeserializationError{Format: c.Name(), Reason: "invalid cache contents", Err: err}
	}
	return snap, nil
}

// byteReader walks a buffer with explicit bounds checks.
type byteReader struct {
	buf []byte
	off int
}

func (r *byteReader) uint32() (uint32, bool) {
	if r.off+4 > len(r.buf) {
		return 0, false
	}
	v := binary.LittleEndian.Uint32(r.buf[r.off:])
	r.off += 4
	return v, true
}

func (r *byteReader) bytes(n int) ([]byte, bool) {
	if n < 0 || r.off+n > len(r.buf) {
		return nil, false
	}
	b := r.buf[r.off : r.off+n]
	r.off += n
	return b, true
}

func (r *byteReader) remaining() int { return len(r.buf) - r.off }
