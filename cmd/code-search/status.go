package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/randalmurphy/code-search/internal/store"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show index status",
	RunE:  runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ctx := context.Background()

	// The flat backend records its dimension in the saved artifacts, so no
	// embedder (and no API key) is needed to inspect it.
	var vs store.VectorStore
	if cfg.Storage.Backend == "flat" || cfg.Storage.Backend == "" {
		flat, err := store.NewFlatStore(1)
		if err != nil {
			return err
		}
		if err := flat.Load(cfg.Storage.IndexPath); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				fmt.Println("No index found. Run 'code-search index <path>' to create one.")
				return nil
			}
			return fmt.Errorf("failed to load index: %w", err)
		}
		vs = flat
	} else {
		var err error
		vs, _, err = openStore(ctx, cfg)
		if err != nil {
			return err
		}
	}
	defer vs.Close()

	stats, err := vs.Stats(ctx)
	if err != nil {
		return fmt.Errorf("failed to read index stats: %w", err)
	}

	fmt.Println("Index Status:")
	fmt.Printf("  Backend:   %s\n", cfg.Storage.Backend)
	fmt.Printf("  Vectors:   %d\n", stats.TotalVectors)
	fmt.Printf("  Dimension: %d\n", stats.Dimension)
	fmt.Printf("  Metadata:  %d entries\n", stats.MetadataCount)

	return nil
}
