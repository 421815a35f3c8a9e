package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/spf13/cobra"

	"github.com/aaryanpatil/steam-sentiment-analyzer/internal/annotate"
	"github.com/aaryanpatil/steam-sentiment-analyzer/internal/classify"
	"github.com/aaryanpatil/steam-sentiment-analyzer/internal/collect"
	"github.com/aaryanpatil/steam-sentiment-analyzer/internal/config"
	"github.com/aaryanpatil/steam-sentiment-analyzer/internal/database"
	"github.com/aaryanpatil/steam-sentiment-analyzer/internal/gate"
	"github.com/aaryanpatil/steam-sentiment-analyzer/internal/lexicon"
	"github.com/aaryanpatil/steam-sentiment-analyzer/internal/server"
	"github.com/aaryanpatil/steam-sentiment-analyzer/internal/steam"
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
	Use:     "steamsent",
	Short:   "Steam review sentiment pipeline",
	Long:    "Steamsent collects Steam user reviews and annotates them with lexicon and context-model sentiment labels.",
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
	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(serveCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("steamsent", version)
	},
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize configuration in ~/.config/steamsent/",
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
		fmt.Println("Edit it to configure products, fetch limits, and model paths.")
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

		fmt.Printf("Database: %s\n\n", db.Path())
		fmt.Println("Reviews:")
		fmt.Printf("  Total collected: %d\n", stats.TotalReviews)
		fmt.Printf("  Analyzed: %d\n", stats.Analyzed)
		fmt.Printf("  Skipped: %d\n", stats.Skipped)
		fmt.Printf("  Pending: %d\n", stats.Pending)
		fmt.Printf("  Products: %d\n", stats.Products)

		summaries, err := db.GetProductSummaries()
		if err != nil {
			return fmt.Errorf("getting product summaries: %w", err)
		}
		if len(summaries) > 0 {
			fmt.Println("\nBy product:")
			for _, s := range summaries {
				fmt.Printf("  %s: %d total, %d positive / %d neutral / %d negative, %d skipped\n",
					s.ProductKey, s.Total, s.Positive, s.Neutral, s.Negative, s.Skipped)
			}
		}
		return nil
	},
}

// --- collect command ---

var collectCmd = &cobra.Command{
	Use:   "collect",
	Short: "Fetch reviews for configured products from the Steam API",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		fmt.Println("Collecting reviews from Steam...")
		result := runCollect(cmd.Context(), db)

		fmt.Println("\nCollection complete:")
		fmt.Printf("  Total fetched: %d\n", result.TotalFetched)
		fmt.Printf("  New reviews: %d\n", result.Inserted)
		fmt.Printf("  Merged duplicates: %d\n", result.Updated)

		if len(result.Products) > 0 {
			fmt.Println("\nReviews by product:")
			keys := make([]string, 0, len(result.Products))
			for k := range result.Products {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			for _, k := range keys {
				fmt.Printf("  %s: %d\n", k, result.Products[k])
			}
		}
		return nil
	},
}

func runCollect(ctx context.Context, db *database.DB) *collect.Result {
	client := steam.NewClient(
		cfg.Steam.Language,
		cfg.Steam.Filter,
		cfg.Steam.PageSize,
		time.Duration(cfg.Steam.RequestDelayMs)*time.Millisecond,
	)
	return collect.NewCollector(cfg, db, client).Collect(ctx)
}

// --- analyze command ---

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Annotate pending reviews with sentiment labels",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		return runAnalyze(db)
	},
}

func runAnalyze(db *database.DB) error {
	annotator, cleanup, err := buildAnnotator(db)
	if err != nil {
		return err
	}
	defer cleanup()

	result, err := annotator.Run()
	if err != nil {
		return err
	}

	fmt.Println("\nAnalysis complete:")
	fmt.Printf("  Reopened for reconsideration: %d\n", result.Reopened)
	fmt.Printf("  Selected: %d\n", result.Selected)
	fmt.Printf("  Analyzed: %d\n", result.Analyzed)
	fmt.Printf("  Skipped: %d\n", result.Skipped)

	reviews, err := db.GetAllReviews("")
	if err != nil {
		return fmt.Errorf("loading reviews for consensus report: %w", err)
	}
	c := annotate.ConsensusReport(reviews)
	if c.Compared > 0 {
		fmt.Printf("\nClassifier agreement: %d/%d (%.0f%%)\n",
			c.Agreed, c.Compared, 100*c.AgreementRate())
	}
	return nil
}

func buildAnnotator(db *database.DB) (*annotate.Annotator, func(), error) {
	g, err := gate.New(cfg.Analysis.TargetLanguage, cfg.Analysis.ShortTextLimit)
	if err != nil {
		return nil, nil, fmt.Errorf("building eligibility gate: %w", err)
	}

	scorer := lexicon.NewScorer(cfg.Analysis.LexiconOverrides)

	classifier, err := classify.NewONNX(cfg.Classifier.ModelPath, cfg.Classifier.VocabPath)
	if err != nil {
		return nil, nil, fmt.Errorf("loading context classifier (check classifier.model_path and vocab_path): %w", err)
	}

	annotator := annotate.New(db, g, scorer, classifier, cfg.Analysis.Version)
	return annotator, func() { classifier.Close() }, nil
}

// --- run command ---

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the full pipeline: collect -> analyze",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		fmt.Println("Step 1/2: collect")
		result := runCollect(cmd.Context(), db)
		fmt.Printf("  %d fetched, %d new\n", result.TotalFetched, result.Inserted)

		fmt.Println("\nStep 2/2: analyze")
		if err := runAnalyze(db); err != nil {
			return err
		}

		fmt.Println("\nPipeline complete! Run 'steamsent serve' to browse results.")
		return nil
	},
}

// --- export command ---

var exportProduct string

var exportCmd = &cobra.Command{
	Use:   "export [file]",
	Short: "Export stored reviews as JSON",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		reviews, err := db.GetAllReviews(exportProduct)
		if err != nil {
			return fmt.Errorf("loading reviews: %w", err)
		}

		out := os.Stdout
		if len(args) == 1 {
			f, err := os.Create(args[0])
			if err != nil {
				return fmt.Errorf("creating export file: %w", err)
			}
			defer f.Close()
			out = f
		}

		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(reviews); err != nil {
			return fmt.Errorf("writing export: %w", err)
		}
		if len(args) == 1 {
			fmt.Fprintf(os.Stderr, "Exported %d reviews to %s\n", len(reviews), args[0])
		}
		return nil
	},
}

func init() {
	exportCmd.Flags().StringVarP(&exportProduct, "product", "p", "", "Limit export to one product key")
}

// --- serve command ---

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the local web server",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}
		fmt.Printf("Starting server at http://localhost:%d\n", port)
		fmt.Println("Press Ctrl+C to stop")
		return server.Serve(db, port)
	},
}

func init() {
	serveCmd.Flags().IntVarP(&servePort, "port", "p", 0, "Port to run server on (default from config)")
}

func openDB() (*database.DB, error) {
	dataDir := cfg.GetDataDir()
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}
	dbPath := filepath.Join(dataDir, "steamsent.db")
	return database.Open(dbPath)
}
