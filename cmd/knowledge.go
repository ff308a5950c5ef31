package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ziadkadry99/boilerbrain/internal/embeddings"
	"github.com/ziadkadry99/boilerbrain/internal/knowledge"
	"github.com/ziadkadry99/boilerbrain/internal/progress"
)

var knowledgeCmd = &cobra.Command{
	Use:   "knowledge",
	Short: "Manage the fault code knowledge base",
}

var knowledgeImportCmd = &cobra.Command{
	Use:   "import [dir]",
	Short: "Index YAML fault code seeds and persist the knowledge index",
	Long: `Reads every .yml/.yaml file under dir (default: knowledge.dir from config),
embeds the entries and writes the index to knowledge.index_dir. Entries
already present in an existing index are skipped.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runKnowledgeImport,
}

var knowledgeSearchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search the persisted knowledge index",
	Args:  cobra.ExactArgs(1),
	RunE:  runKnowledgeSearch,
}

func init() {
	knowledgeSearchCmd.Flags().Int("limit", 5, "maximum number of results")
	knowledgeSearchCmd.Flags().String("manufacturer", "", "restrict results to one manufacturer")
	knowledgeCmd.AddCommand(knowledgeImportCmd, knowledgeSearchCmd)
	rootCmd.AddCommand(knowledgeCmd)
}

func openIndex(ctx context.Context, provider, model string) (*knowledge.Base, error) {
	embedder, err := embeddings.New(ctx, provider, model, credentialSource(zap.NewNop()))
	if err != nil {
		return nil, fmt.Errorf("creating embedder: %w", err)
	}
	return knowledge.New(embedder)
}

func runKnowledgeImport(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	dir := cfg.Knowledge.Dir
	if len(args) == 1 {
		dir = args[0]
	}

	kb, err := openIndex(ctx, cfg.Knowledge.EmbeddingProvider, cfg.Knowledge.EmbeddingModel)
	if err != nil {
		return err
	}
	if _, err := os.Stat(cfg.Knowledge.IndexDir); err == nil {
		if err := kb.Load(cfg.Knowledge.IndexDir); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: could not load existing index from %s: %v\n", cfg.Knowledge.IndexDir, err)
		}
	}

	entries, err := knowledge.LoadDir(dir)
	if err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "Indexing %d entries from %s\n", len(entries), dir)

	if err := kb.Index(ctx, entries, progress.NewReporter("Embedding entries")); err != nil {
		return err
	}
	if err := kb.Persist(cfg.Knowledge.IndexDir); err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "Knowledge index written to %s (%d entries)\n", cfg.Knowledge.IndexDir, kb.Count())
	return nil
}

func runKnowledgeSearch(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	limit, _ := cmd.Flags().GetInt("limit")
	manufacturer, _ := cmd.Flags().GetString("manufacturer")

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	kb, err := openIndex(ctx, cfg.Knowledge.EmbeddingProvider, cfg.Knowledge.EmbeddingModel)
	if err != nil {
		return err
	}
	if err := kb.Load(cfg.Knowledge.IndexDir); err != nil {
		return fmt.Errorf("loading knowledge index from %s: %w\nRun `boilerbrain knowledge import` first", cfg.Knowledge.IndexDir, err)
	}

	results, err := kb.Search(ctx, args[0], manufacturer, limit)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}
	if len(results) == 0 {
		fmt.Println("No results found.")
		return nil
	}
	for i, r := range results {
		e := r.Entry
		label := e.Title
		if e.FaultCode != "" {
			label = e.FaultCode + " " + label
		}
		fmt.Printf("%d. [%s] %s (%.2f)\n", i+1, e.Manufacturer, label, r.Similarity)
	}
	return nil
}
