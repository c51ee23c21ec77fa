package cache

import (
	"fmt"
	"os"

	"go.uber.org/zap"
)

// SaveFile snapshots the cache and writes it to path through codec.
func (c *Cache) SaveFile(path string, codec Codec) error {
	snap, err := c.Snapshot()
	if err != nil {
		return err
	}
	data, err := codec.Encode(snap)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write cache file: %w", err)
	}
	c.logger.Info("cache saved",
		zap.String("path", path),
		zap.String("codec", codec.Name()),
		zap.Int("entries", len(snap.Entries)),
		zap.Int("bytes", len(data)))
	return nil
}

// LoadFile replaces the cache's entire state with the image at path.
// Decoding and validation complete before any live state is touched: on
// error the cache is exactly as it was before the call.
func (c *Cache) LoadFile(path string, codec Codec) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read cache file: %w", err)
	}
	snap, err := codec.Decode(data)
	if err != nil {
		return err
	}
	if err := c.Restore(snap); err != nil {
		return err
	}
	c.logger.Info("cache loaded",
		zap.String("path", path),
		zap.String("codec", codec.Name()),
		zap.Int("entries", len(snap.Entries)),
		zap.Int("max_size", c.maxSize))
	return nil
}
