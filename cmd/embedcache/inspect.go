package main

import (
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/samber/lo"
	"github.com/spf13/cobra"

	"github.com/cachelab/embedcache/internal/cache"
)

func newInspectCmd() *cobra.Command {
	var top int

	cmd := &cobra.Command{
		Use:   "inspect <file>",
		Short: "Decode a cache image and print its contents",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("read cache file: %w", err)
			}
			codec := cache.DetectCodec(data)
			snap, err := codec.Decode(data)
			if err != nil {
				return err
			}

			fmt.Printf("format:      %s\n", codec.Name())
			fmt.Printf("entries:     %d (max %d)\n", len(snap.Entries), snap.MaxSize)
			fmt.Printf("dimensions:  %d\n", snap.Dimensions)
			fmt.Printf("retain text: %v\n", snap.RetainText)
			if !snap.SavedAt.IsZero() {
				fmt.Printf("saved at:    %s\n", snap.SavedAt.Format(time.RFC3339))
			}
			stats := snap.Stats
			fmt.Printf("stats:       hits=%d misses=%d sets=%d evictions=%d (hit rate %s)\n",
				stats.Hits, stats.Misses, stats.Sets, stats.Evictions, stats.HitRate())
			fmt.Printf("total hits:  %d across entries\n",
				lo.SumBy(snap.Entries, func(entry cache.Entry) int { return entry.HitCount }))

			if top > 0 && len(snap.Entries) > 0 {
				printTopEntries(snap.Entries, top)
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&top, "top", 5, "print the N most-hit entries, 0 disables")
	return cmd
}

func printTopEntries(entries []cache.Entry, top int) {
	sorted := make([]cache.Entry, len(entries))
	copy(sorted, entries)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].HitCount > sorted[j].HitCount
	})
	if len(sorted) > top {
		sorted = sorted[:top]
	}

	fmt.Printf("top %d entries by hits:\n", len(sorted))
	for _, entry := range sorted {
		line := fmt.Sprintf("  %s  hits=%d  last=%s",
			shorten(entry.Key, 12), entry.HitCount,
			entry.LastAccessedAt.Format(time.RFC3339))
		if entry.Text != "" {
			line += fmt.Sprintf("  %q", shorten(entry.Text, 48))
		}
		fmt.Println(line)
	}
}

func shorten(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
