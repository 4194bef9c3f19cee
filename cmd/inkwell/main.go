package main

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"

	"inkwell/internal/config"
	"inkwell/internal/document"
	"inkwell/internal/persist"
	"inkwell/internal/pipeline"
	"inkwell/internal/provider"
	"inkwell/internal/session"
	"inkwell/internal/storage"
	"inkwell/internal/stream"

	"github.com/spf13/cobra"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"go.uber.org/zap"
)

var (
	rootCmd = &cobra.Command{
		Use:   "inkwell",
		Short: "AI-assisted article generation and editing",
	}
	configPath string
	verbose    bool
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "config.yaml", "Path to the configuration file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose logging")

	generateCmd.Flags().StringSliceVar(&genKeywords, "keywords", nil, "Keywords to discover topics from")
	generateCmd.Flags().StringVar(&genIndustry, "industry", "", "Industry to discover topics for")
	generateCmd.Flags().StringVar(&genTopic, "topic", "", "Direct topic query, skips keyword-based discovery")
	generateCmd.Flags().IntVar(&genTopicIndex, "topic-index", 0, "Which discovered topic candidate to select")
	generateCmd.Flags().IntVar(&genWords, "words", 0, "Target word count (0 uses the configured default)")
	generateCmd.Flags().StringVar(&genTone, "tone", "", "Writing tone (empty uses the configured default)")
	generateCmd.Flags().IntVar(&genLinks, "links", 0, "Apply the top N link suggestions (0 skips linking)")

	reviseCmd.Flags().IntVar(&revFrom, "from", 0, "Selection start (rune offset)")
	reviseCmd.Flags().IntVar(&revTo, "to", 0, "Selection end (rune offset)")
	reviseCmd.Flags().StringVar(&revAction, "action", "", "Edit instruction, e.g. 'make this more concise'")

	rootCmd.AddCommand(generateCmd)
	rootCmd.AddCommand(reviseCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(versionsCmd)
}

func initLogger() *zap.Logger {
	if verbose {
		logger, err := zap.NewDevelopment()
		if err != nil {
			log.Fatalf("Failed to create logger: %v", err)
		}
		return logger
	}
	return zap.NewNop()
}

func initStore(cfg *config.Config) (*storage.SQLiteStore, error) {
	return storage.NewSQLiteStore(cfg.Project.DBPath)
}

func initAgents(ctx context.Context, cfg *config.Config) (provider.Suite, error) {
	if cfg.AI.APIKey == "" {
		return provider.Suite{}, fmt.Errorf("AI API key not configured (set INKWELL_API_KEY or ai.api_key)")
	}
	return provider.New(ctx, provider.Options{
		Provider:    cfg.AI.Provider,
		APIKey:      cfg.AI.APIKey,
		Model:       cfg.AI.Model,
		WriterModel: cfg.AI.WriterModel,
		BaseURL:     cfg.AI.BaseURL,
	})
}

var (
	genKeywords   []string
	genIndustry   string
	genTopic      string
	genTopicIndex int
	genWords      int
	genTone       string
	genLinks      int
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Run the full generation pipeline: topics, outline, article, links",
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()
		logger := initLogger()
		defer logger.Sync()

		cfg, err := config.LoadConfig(configPath)
		if err != nil {
			log.Fatalf("Failed to load config: %v", err)
		}
		if genWords <= 0 {
			genWords = cfg.Article.DefaultWords
		}
		if genTone == "" {
			genTone = cfg.Article.DefaultTone
		}

		store, err := initStore(cfg)
		if err != nil {
			log.Fatalf("Failed to initialize database: %v", err)
		}
		defer store.Close()

		agents, err := initAgents(ctx, cfg)
		if err != nil {
			log.Fatalf("Failed to initialize AI provider: %v", err)
		}

		ctrl := pipeline.NewController(agents, store, cfg.StreamRecoveryDelay(), logger)

		s := session.New(session.Config{
			Industry:    genIndustry,
			Keywords:    genKeywords,
			TopicQuery:  genTopic,
			TargetWords: genWords,
			Tone:        genTone,
		})

		// Config -> Topics
		fmt.Println("🔎 Discovering topics...")
		s, err = ctrl.Advance(ctx, s, pipeline.Input{})
		if err != nil {
			log.Fatalf("Topic discovery failed: %v", err)
		}
		for i, t := range s.TopicCandidates {
			fmt.Printf("  [%d] %s (relevance %.2f)\n", i, t.Title, t.Relevance)
			for _, w := range t.SimilarityWarnings {
				fmt.Printf("      ⚠️  %s\n", w)
			}
		}
		if genTopicIndex < 0 || genTopicIndex >= len(s.TopicCandidates) {
			log.Fatalf("Topic index %d out of range (%d candidates)", genTopicIndex, len(s.TopicCandidates))
		}

		// Topics -> Outline
		fmt.Printf("📝 Generating outline for %q...\n", s.TopicCandidates[genTopicIndex].Title)
		s, err = ctrl.Advance(ctx, s, pipeline.Input{SelectedTopicID: s.TopicCandidates[genTopicIndex].ID})
		if err != nil {
			log.Fatalf("Outline generation failed: %v", err)
		}
		fmt.Printf("  %s\n", s.Outline.Title)
		for _, sec := range s.Outline.Sections {
			fmt.Printf("    - %s (~%d words)\n", sec.Title, sec.WordTarget)
		}

		// Outline -> Content -> Linking (or Done)
		fmt.Println("✍️  Writing article...")
		s, err = ctrl.Advance(ctx, s, pipeline.Input{
			ApproveOutline: true,
			Callbacks: stream.Callbacks{
				OnProgress: func(p stream.Progress) {
					if p.Stage == stream.StageSection {
						fmt.Printf("  %3d%% %s (%d/%d)\n", p.Percent, p.Message, p.Section, p.Total)
						return
					}
					fmt.Printf("  %3d%% %s\n", p.Percent, p.Message)
				},
				OnArticleCreated: func(id string) {
					fmt.Printf("  📄 Article id: %s\n", id)
				},
			},
		})
		if err != nil {
			log.Fatalf("Content generation failed: %v", err)
		}

		// Linking -> Done
		if s.Stage == session.StageLinking {
			fmt.Printf("🔗 %d link suggestions:\n", len(s.Suggestions))
			for i, sug := range s.Suggestions {
				fmt.Printf("  [%d] %q -> %s (%.2f)\n", i, sug.Anchor, sug.TargetRef, sug.Relevance)
			}
			var selected []string
			for i := 0; i < genLinks && i < len(s.Suggestions); i++ {
				selected = append(selected, s.Suggestions[i].ID)
			}
			s, err = ctrl.Advance(ctx, s, pipeline.Input{SelectedLinkIDs: selected})
			if err != nil {
				log.Fatalf("Link insertion failed: %v", err)
			}
		}

		if err := os.MkdirAll(cfg.Project.OutputDir, 0o755); err != nil {
			log.Fatalf("Failed to create output directory: %v", err)
		}
		out := filepath.Join(cfg.Project.OutputDir, sanitizeFilename(s.FinalArticle.ID)+".md")
		if err := os.WriteFile(out, []byte(s.FinalArticle.Text), 0o644); err != nil {
			log.Fatalf("Failed to write article: %v", err)
		}

		fmt.Printf("🎉 Done. Article %s written to %s. Export HTML with:\n", s.FinalArticle.ID, out)
		fmt.Printf("   inkwell export %s\n", s.FinalArticle.ID)
	},
}

var (
	revFrom   int
	revTo     int
	revAction string
)

// editAgentAdapter narrows the provider edit agent to the document engine's
// editor surface.
type editAgentAdapter struct {
	agent provider.EditAgent
}

func (a editAgentAdapter) Edit(ctx context.Context, action, selection string) (io.ReadCloser, error) {
	return a.agent.Edit(ctx, provider.EditRequest{Action: action, Selection: selection})
}

var reviseCmd = &cobra.Command{
	Use:   "revise [article-id]",
	Short: "Apply one selection-scoped AI edit to a stored article",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()
		logger := initLogger()
		defer logger.Sync()

		if revAction == "" {
			log.Fatal("--action is required")
		}
		if revTo < revFrom {
			log.Fatalf("Invalid selection %d..%d", revFrom, revTo)
		}

		cfg, err := config.LoadConfig(configPath)
		if err != nil {
			log.Fatalf("Failed to load config: %v", err)
		}
		store, err := initStore(cfg)
		if err != nil {
			log.Fatalf("Failed to initialize database: %v", err)
		}
		defer store.Close()

		agents, err := initAgents(ctx, cfg)
		if err != nil {
			log.Fatalf("Failed to initialize AI provider: %v", err)
		}

		art, err := store.GetArticle(ctx, args[0])
		if err != nil {
			log.Fatalf("Failed to load article: %v", err)
		}

		doc := document.New(art.Text)
		engine := document.NewEngine(doc, editAgentAdapter{agent: agents.Editor}, logger)
		coord := persist.NewCoordinator(store, art.ID, art.Text, cfg.SaveQuiescence(), logger)
		defer coord.FlushIfDirty(context.Background())

		sel := document.Span{Start: revFrom, End: revTo}
		fmt.Printf("✏️  Revising %d..%d: %s\n", revFrom, revTo, revAction)
		op := engine.RequestEdit(ctx, sel, revAction)
		op.Wait()
		if err := op.Err(); err != nil {
			log.Fatalf("Edit failed, original text kept: %v", err)
		}
		if op.Status() != document.EditDone {
			fmt.Println("Edit did not complete; original text kept.")
			return
		}

		coord.Schedule(doc.Text())
		fmt.Printf("✅ Applied. New text:\n%s\n", op.ResultText)
	},
}

var exportCmd = &cobra.Command{
	Use:   "export [article-id]",
	Short: "Render a stored article to HTML in the output directory",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()

		cfg, err := config.LoadConfig(configPath)
		if err != nil {
			log.Fatalf("Failed to load config: %v", err)
		}
		store, err := initStore(cfg)
		if err != nil {
			log.Fatalf("Failed to initialize database: %v", err)
		}
		defer store.Close()

		art, err := store.GetArticle(ctx, args[0])
		if err != nil {
			log.Fatalf("Failed to load article: %v", err)
		}

		md := goldmark.New(goldmark.WithExtensions(extension.GFM))
		var buf bytes.Buffer
		if err := md.Convert([]byte(art.Text), &buf); err != nil {
			log.Fatalf("Markdown conversion failed: %v", err)
		}

		if err := os.MkdirAll(cfg.Project.OutputDir, 0o755); err != nil {
			log.Fatalf("Failed to create output directory: %v", err)
		}
		out := filepath.Join(cfg.Project.OutputDir, sanitizeFilename(art.ID)+".html")
		if err := os.WriteFile(out, buf.Bytes(), 0o644); err != nil {
			log.Fatalf("Failed to write output: %v", err)
		}
		fmt.Printf("📦 Exported %s\n", out)
	},
}

var versionsCmd = &cobra.Command{
	Use:   "versions [article-id]",
	Short: "List saved version snapshots of an article",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()

		cfg, err := config.LoadConfig(configPath)
		if err != nil {
			log.Fatalf("Failed to load config: %v", err)
		}
		store, err := initStore(cfg)
		if err != nil {
			log.Fatalf("Failed to initialize database: %v", err)
		}
		defer store.Close()

		versions, err := store.ListVersions(ctx, args[0])
		if err != nil {
			log.Fatalf("Failed to list versions: %v", err)
		}
		if len(versions) == 0 {
			fmt.Println("No snapshots recorded.")
			return
		}
		for i, v := range versions {
			fmt.Printf("  [%d] %s\n", i, v)
		}
	},
}

func sanitizeFilename(s string) string {
	return strings.Map(func(r rune) rune {
		if r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' || r == '-' || r == '_' {
			return r
		}
		return '-'
	}, s)
}
