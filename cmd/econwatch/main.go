package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"syscall"

	"github.com/spf13/cobra"

	"econwatch/internal/collect"
	"econwatch/internal/config"
	"econwatch/internal/database"
	"econwatch/internal/llm"
	"econwatch/internal/scheduler"
	"econwatch/internal/server"
	"econwatch/internal/summarize"
)

var version = "dev"

var (
	verbose    bool
	configPath string
	cfg        *config.Config
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:     "econwatch",
	Short:   "Regional economic news collection and daily summaries",
	Long:    "econwatch collects economic news from regional RSS feeds, scores and categorizes it by keyword, and generates daily market summaries with sentiment.",
	Version: version,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if verbose {
			log.SetFlags(log.LstdFlags | log.Lshortfile)
		} else {
			log.SetFlags(log.LstdFlags)
		}

		// Skip config loading for init and version
		if cmd.Name() == "init" || cmd.Name() == "version" {
			return nil
		}

		path, err := config.ResolveConfigPath(configPath)
		if err != nil {
			return err
		}
		cfg, err = config.Load(path)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to config file")

	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(collectCmd)
	rootCmd.AddCommand(summarizeCmd)
	rootCmd.AddCommand(scheduleCmd)
	rootCmd.AddCommand(serveCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("econwatch", version)
	},
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize configuration in ~/.config/econwatch/",
	RunE: func(cmd *cobra.Command, args []string) error {
		target := filepath.Join(config.ConfigDir(), "config.yaml")
		if _, err := os.Stat(target); err == nil {
			fmt.Printf("Config already exists: %s\n", target)
			return nil
		}

		if err := os.MkdirAll(config.ConfigDir(), 0o755); err != nil {
			return fmt.Errorf("creating config directory: %w", err)
		}

		if err := os.WriteFile(target, config.DefaultConfigYAML, 0o644); err != nil {
			return fmt.Errorf("writing config: %w", err)
		}

		fmt.Printf("Created config: %s\n", target)
		fmt.Println("Edit it to configure regions, feeds and the LLM provider.")
		return nil
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show database and system status",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		stats, err := db.GetStats()
		if err != nil {
			return fmt.Errorf("getting stats: %w", err)
		}

		fmt.Printf("Today: %s\n\n", database.Today())
		fmt.Println("Articles:")
		fmt.Printf("  Total collected: %d\n", stats.TotalArticles)
		if len(stats.ByRegion) > 0 {
			fmt.Println("  By region:")
			for _, name := range sortedKeys(stats.ByRegion) {
				fmt.Printf("    %s: %d\n", name, stats.ByRegion[name])
			}
		}
		if len(stats.ByCategory) > 0 {
			fmt.Println("  By category:")
			for _, name := range sortedKeys(stats.ByCategory) {
				fmt.Printf("    %s: %d\n", name, stats.ByCategory[name])
			}
		}
		fmt.Println("\nSummaries:")
		fmt.Printf("  Daily summaries: %d\n", stats.TotalSummaries)
		fmt.Println("\nConfig:")
		fmt.Printf("  Regions: %v\n", cfg.RegionNames())
		fmt.Printf("  Interval: %s\n", cfg.CollectInterval())
		return nil
	},
}

// --- collect command ---

var collectCmd = &cobra.Command{
	Use:   "collect",
	Short: "Run one collection pass over all configured sources",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		fmt.Println("Collecting articles from sources...")

		sched := scheduler.New(collect.New(cfg), db, cfg.CollectInterval())
		result, err := sched.CollectNow(cmd.Context())
		if err != nil {
			return err
		}

		fmt.Println("\nCollection complete:")
		fmt.Printf("  Relevant articles: %d\n", result.Collected)
		fmt.Printf("  New: %d\n", result.Inserted)
		fmt.Printf("  Updated: %d\n", result.Updated)
		if failed := result.Collected - result.Saved; failed > 0 {
			fmt.Printf("  Failed to save: %d\n", failed)
		}
		return nil
	},
}

// --- summarize command ---

var (
	summarizeDate    string
	summarizeRegion  string
	summarizeDays    int
	summarizeArticle int64
)

var summarizeCmd = &cobra.Command{
	Use:   "summarize",
	Short: "Generate daily summaries (or one article summary) via the LLM",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		provider := newProvider()
		if provider == nil {
			return fmt.Errorf("no LLM provider available; check the summarization config")
		}

		if summarizeArticle > 0 {
			s := summarize.NewArticleSummarizer(db, provider)
			summary, err := s.Summarize(cmd.Context(), summarizeArticle)
			if err != nil {
				return err
			}
			fmt.Printf("Article %d summary:\n%s\n", summarizeArticle, summary)
			return nil
		}

		agg := summarize.NewAggregator(db, provider, cfg.RegionNames(), cfg.Summarization.MaxTokens)

		if summarizeDays > 0 {
			batch := agg.GenerateRecent(cmd.Context(), summarizeDays)
			fmt.Printf("Generated %d, skipped %d, failed %d\n",
				batch.Generated, batch.Skipped, batch.Failed)
			return nil
		}

		date := summarizeDate
		if date == "" {
			date = database.Today()
		}
		regions := cfg.RegionNames()
		if summarizeRegion != "" {
			if cfg.Region(summarizeRegion) == nil {
				return fmt.Errorf("unknown region %q", summarizeRegion)
			}
			regions = []string{summarizeRegion}
		}

		for _, region := range regions {
			result, err := agg.GenerateDaily(cmd.Context(), date, region)
			if err != nil {
				fmt.Printf("%s %s: error: %v\n", date, region, err)
				continue
			}
			if !result.Generated {
				fmt.Printf("%s %s: no articles\n", date, region)
				continue
			}
			fmt.Printf("%s %s (%s, %d articles):\n  %s\n",
				date, region, result.Sentiment, result.ArticleCount, result.Summary)
		}
		return nil
	},
}

func init() {
	summarizeCmd.Flags().StringVar(&summarizeDate, "date", "", "Date to summarize (YYYY-MM-DD, default today)")
	summarizeCmd.Flags().StringVar(&summarizeRegion, "region", "", "Region to summarize (default all)")
	summarizeCmd.Flags().IntVar(&summarizeDays, "days", 0, "Summarize the last N days across all regions")
	summarizeCmd.Flags().Int64Var(&summarizeArticle, "article", 0, "Summarize a single article by ID")
}

// --- schedule command ---

var scheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Run the recurring collection scheduler in the foreground",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		sched := scheduler.New(collect.New(cfg), db, cfg.CollectInterval())
		if err := sched.Start(); err != nil {
			return err
		}
		fmt.Printf("Scheduler running every %s. Press Ctrl+C to stop.\n", cfg.CollectInterval())

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		<-ctx.Done()

		sched.Stop()
		fmt.Println("Scheduler stopped.")
		return nil
	},
}

// --- serve command ---

var (
	servePort     int
	serveSchedule bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the local web server",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		sched := scheduler.New(collect.New(cfg), db, cfg.CollectInterval())
		if serveSchedule {
			if err := sched.Start(); err != nil {
				return err
			}
			defer sched.Stop()
		}

		var agg *summarize.Aggregator
		var articles *summarize.ArticleSummarizer
		if provider := newProvider(); provider != nil {
			agg = summarize.NewAggregator(db, provider, cfg.RegionNames(), cfg.Summarization.MaxTokens)
			articles = summarize.NewArticleSummarizer(db, provider)
		} else {
			log.Println("no LLM provider available, summary endpoints disabled")
		}

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}
		fmt.Printf("Starting server at http://localhost:%d\n", port)
		fmt.Println("Press Ctrl+C to stop")
		return server.Serve(db, sched, agg, articles, port)
	},
}

func init() {
	serveCmd.Flags().IntVarP(&servePort, "port", "p", 0, "Port to run server on (default from config)")
	serveCmd.Flags().BoolVar(&serveSchedule, "with-scheduler", false, "Also run the collection scheduler")
}

func newProvider() llm.Provider {
	s := cfg.Summarization
	return llm.CreateProvider(s.Provider, s.Model, s.OllamaURL, s.OpenAIModel, s.APIKeyEnv)
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func openDB() (*database.DB, error) {
	dataDir := cfg.GetDataDir()
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}
	dbPath := filepath.Join(dataDir, "econwatch.db")
	return database.Open(dbPath)
}
