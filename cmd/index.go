package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/secondbrainhq/secondbrain/internal/app"
	"github.com/secondbrainhq/secondbrain/internal/ingest"
	"github.com/secondbrainhq/secondbrain/internal/knowledge"
)

var reindex bool

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Index notes and Firefox bookmarks into the knowledge base",
	RunE:  runIndex,
}

func init() {
	indexCmd.Flags().BoolVar(&reindex, "reindex", false,
		"clear all indexed data and reindex from scratch")
	rootCmd.AddCommand(indexCmd)
}

func runIndex(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	a, err := setupApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	docs, err := loadDocuments(ctx, a)
	if err != nil {
		return err
	}

	var result ingest.IndexResult
	if reindex {
		fmt.Println("Reindexing all data from scratch...")
		result, err = a.Indexer.Reindex(ctx, docs)
	} else {
		result, err = a.Indexer.Index(ctx, docs)
	}
	if err != nil {
		return fmt.Errorf("indexing documents: %w", err)
	}

	fmt.Printf("Indexed %d documents (%d chunks).\n", result.Documents, result.Chunks)
	return nil
}

// loadDocuments gathers notes and newly synced bookmarks. A missing notes
// directory is not fatal; bookmark sync is skipped when no Firefox profile
// exists.
func loadDocuments(ctx context.Context, a *app.App) ([]knowledge.Document, error) {
	var docs []knowledge.Document

	notes, err := ingest.LoadNotes(a.Config.NotesDir)
	if err != nil {
		a.Logger.Warn("loading notes failed, continuing with bookmarks only",
			"dir", a.Config.NotesDir, "error", err)
	} else {
		fmt.Printf("Loaded %d notes from %s.\n", len(notes), a.Config.NotesDir)
		docs = append(docs, notes...)
	}

	state, err := ingest.NewSyncState(a.Config.SyncStatePath)
	if err != nil {
		return nil, fmt.Errorf("opening sync state: %w", err)
	}
	syncer, err := ingest.NewBookmarkSyncer(a.Config.FirefoxProfileDir, state, app.NewFetcher(a.Config, a.Logger), a.Logger)
	if err != nil {
		return nil, fmt.Errorf("creating bookmark syncer: %w", err)
	}
	bookmarks, err := syncer.Sync(ctx)
	if err != nil {
		a.Logger.Warn("bookmark sync failed, continuing with notes only", "error", err)
	} else if len(bookmarks) > 0 {
		fmt.Printf("Synced %d new bookmarks.\n", len(bookmarks))
		docs = append(docs, bookmarks...)
	}

	return docs, nil
}
