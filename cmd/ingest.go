package cmd

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/retriva/retriva/internal/config"
	"github.com/retriva/retriva/internal/ingest"
	"github.com/retriva/retriva/internal/loader"
)

var (
	ingestCollection string
	ingestChunkSize  int
	ingestOverlap    int
)

var ingestCmd = &cobra.Command{
	Use:   "ingest <directory>",
	Short: "Index a directory of documents into a collection",
	Long: `Ingest loads supported documents (.md, .txt, .rst, and friends) from a
directory, splits them into chunks, embeds each chunk, and stores the
result in PostgreSQL.

A collection is indexed exactly once: if it already exists, the run is
skipped. Drop it first (retriva collections drop) to re-index.`,
	Args: cobra.ExactArgs(1),
	RunE: runIngest,
}

func init() {
	ingestCmd.Flags().StringVarP(&ingestCollection, "collection", "c", "", "collection name (default: from config)")
	ingestCmd.Flags().IntVar(&ingestChunkSize, "chunk-size", 0, "chunk window in characters (default: from config)")
	ingestCmd.Flags().IntVar(&ingestOverlap, "overlap", 0, "chunk overlap in characters")
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	a, err := setupApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	collection := ingestCollection
	if collection == "" {
		collection = a.Config.Collection
	} else if err := config.ValidateCollectionName(collection); err != nil {
		return err
	}
	chunkSize := ingestChunkSize
	if chunkSize == 0 {
		chunkSize = a.Config.ChunkSize
	}

	result, err := a.Ingestor.Run(ctx, ingest.Options{
		Collection:   collection,
		Dir:          args[0],
		ChunkSize:    chunkSize,
		ChunkOverlap: ingestOverlap,
	})
	if err != nil {
		switch {
		case errors.Is(err, loader.ErrInvalidPath):
			return fmt.Errorf("cannot read %q: %w", args[0], err)
		case errors.Is(err, loader.ErrEmptyData):
			return fmt.Errorf("no supported documents found in %q", args[0])
		case errors.Is(err, ingest.ErrLockBusy):
			return fmt.Errorf("collection %q is being ingested by another process", collection)
		default:
			return err
		}
	}

	if !result.Claimed {
		fmt.Printf("Collection %q already exists, skipping ingestion.\n", collection)
		fmt.Println("Drop it first to re-index: retriva collections drop", collection)
		return nil
	}

	fmt.Printf("Indexed %d documents (%d chunks) into %q in %s.\n",
		result.Documents, result.Chunks, collection, result.Duration.Round(10*time.Millisecond))
	return nil
}
