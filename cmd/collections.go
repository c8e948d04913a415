package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/retriva/retriva/internal/config"
)

var collectionsCmd = &cobra.Command{
	Use:   "collections",
	Short: "Inspect and manage document collections",
}

var collectionsStatsCmd = &cobra.Command{
	Use:   "stats [collection]",
	Short: "Show chunk count for a collection",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runCollectionsStats,
}

var collectionsDropCmd = &cobra.Command{
	Use:   "drop <collection>",
	Short: "Delete a collection and all its chunks",
	Args:  cobra.ExactArgs(1),
	RunE:  runCollectionsDrop,
}

func init() {
	collectionsCmd.AddCommand(collectionsStatsCmd)
	collectionsCmd.AddCommand(collectionsDropCmd)
	rootCmd.AddCommand(collectionsCmd)
}

func runCollectionsStats(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	a, err := setupApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	collection := a.Config.Collection
	if len(args) > 0 {
		collection = args[0]
	}

	exists, err := a.Store.CollectionExists(ctx, collection)
	if err != nil {
		return fmt.Errorf("failed to check collection: %w", err)
	}
	if !exists {
		fmt.Printf("Collection %q does not exist.\n", collection)
		return nil
	}

	count, err := a.Store.Count(ctx, collection)
	if err != nil {
		return fmt.Errorf("failed to count chunks: %w", err)
	}

	fmt.Printf("Collection: %s\n", collection)
	fmt.Printf("Chunks:     %d\n", count)
	return nil
}

func runCollectionsDrop(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	if err := config.ValidateCollectionName(args[0]); err != nil {
		return err
	}

	a, err := setupApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	dropped, err := a.Store.DropCollection(ctx, args[0])
	if err != nil {
		return fmt.Errorf("failed to drop collection: %w", err)
	}
	if !dropped {
		fmt.Printf("Collection %q does not exist.\n", args[0])
		return nil
	}

	fmt.Printf("Dropped collection %q.\n", args[0])
	return nil
}
