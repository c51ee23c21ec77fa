package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/cachelab/embedcache/internal/cache"
)

func newConvertCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "convert <in> <out>",
		Short: "Rewrite a cache image in the other format",
		Long: `Decodes the input image (format auto-detected), then writes it through the
codec matching the output extension (.json or .bin). Converting to binary
drops retained text, creation times, and usage stats, and keeps only the
low 32 bits of last-access times.`,
		Args: cobra.ExactArgs(2),
		RunE: func(_ *cobra.Command, args []string) error {
			inPath, outPath := args[0], args[1]

			data, err := os.ReadFile(inPath)
			if err != nil {
				return fmt.Errorf("read cache file: %w", err)
			}
			in := cache.DetectCodec(data)
			snap, err := in.Decode(data)
			if err != nil {
				return err
			}

			out := codecForPath(outPath, in)
			if out.Name() == in.Name() {
				return fmt.Errorf("%s is already in %s format", inPath, in.Name())
			}
			if snap.SavedAt.IsZero() {
				snap.SavedAt = time.Now()
			}

			encoded, err := out.Encode(snap)
			if err != nil {
				return err
			}
			if err := os.WriteFile(outPath, encoded, 0o644); err != nil {
				return fmt.Errorf("write cache file: %w", err)
			}

			fmt.Printf("%s (%s, %d entries) -> %s (%s, %d bytes)\n",
				inPath, in.Name(), len(snap.Entries), outPath, out.Name(), len(encoded))
			if out.Name() == "binary" && snap.RetainText {
				fmt.Println("note: retained text is not part of the binary layout and was dropped")
			}
			return nil
		},
	}
	return cmd
}

// codecForPath picks the output codec from the file extension, defaulting to
// the opposite of the input codec.
func codecForPath(path string, in cache.Codec) cache.Codec {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return cache.JSONCodec{}
	case ".bin":
		return cache.BinaryCodec{}
	}
	if in.Name() == "json" {
		return cache.BinaryCodec{}
	}
	return cache.JSONCodec{}
}
