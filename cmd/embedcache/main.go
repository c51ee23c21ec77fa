package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	root := &cobra.Command{
		Use:   "embedcache",
		Short: "Bounded LRU cache for text embeddings",
		Long: `embedcache caches embedding vectors keyed by the SHA-256 of their input
text, evicts least recently used entries when full, and persists to
interchangeable JSON and binary images.`,
		SilenceUsage: true,
	}

	root.AddCommand(
		newDemoCmd(),
		newInspectCmd(),
		newConvertCmd(),
	)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
