package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/kalambet/adnidocs/internal/catalog"
	"github.com/kalambet/adnidocs/internal/config"
	"github.com/kalambet/adnidocs/internal/crawl"
	"github.com/kalambet/adnidocs/internal/firecrawl"
	"github.com/kalambet/adnidocs/internal/storage"
)

var crawlCmd = &cobra.Command{
	Use:   "crawl",
	Short: "Crawl the ADNI site and write the raw document list",
	Long: `Crawl the ADNI site through the Firecrawl API and write the raw
document list.

Examples:
  adnidocs crawl
  adnidocs crawl --output data/adni_raw.json --limit 2000
  adnidocs crawl --site https://adni.loni.usc.edu --concurrency 8`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		initLogging(cfg)

		if site, _ := cmd.Flags().GetString("site"); site != "" {
			cfg.Crawl.SiteURL = site
		}
		if output, _ := cmd.Flags().GetString("output"); output != "" {
			cfg.Crawl.RawOutputPath = output
		}
		if limit, _ := cmd.Flags().GetInt("limit"); limit > 0 {
			cfg.Firecrawl.MapLimit = limit
		}
		if concurrency, _ := cmd.Flags().GetInt("concurrency"); concurrency > 0 {
			cfg.Crawl.Concurrency = concurrency
		}

		if cfg.Firecrawl.APIKey == "" {
			return fmt.Errorf("missing Firecrawl API key; set the FIRECRAWL_API_KEY environment variable")
		}

		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		client := firecrawl.New(cfg.Firecrawl.BaseURL, cfg.Firecrawl.APIKey)
		crawler := crawl.New(client, cfg.Crawl.Concurrency)

		printStep("Crawling %s...", cfg.Crawl.SiteURL)
		started := time.Now().UTC()
		raw, err := crawler.Run(ctx, cfg.Crawl.SiteURL, cfg.Firecrawl.MapLimit)
		if err != nil {
			return fmt.Errorf("crawl failed: %w", err)
		}

		if err := catalog.SaveRaw(cfg.Crawl.RawOutputPath, raw); err != nil {
			return err
		}

		recordRun(cfg, raw, started)

		printSuccess("Crawl complete, saved to %s", cfg.Crawl.RawOutputPath)
		printStatus("Documents", "%d", raw.Metadata.DocumentsCount)
		printStatus("Pages", "%d", raw.Metadata.PagesCount)
		printStatus("Publications filtered", "%d", raw.Metadata.PublicationsFiltered)
		printStatus("Enhanced titles", "%d", raw.Metadata.EnhancedCount)
		return nil
	},
}

// recordRun appends the run to the local history. Failures are warnings:
// the raw output file is already on disk.
func recordRun(cfg config.Config, raw *catalog.RawOutput, started time.Time) {
	store, err := storage.Open(cfg.Storage.DataDir)
	if err != nil {
		printWarning("could not open run history: %v", err)
		return
	}
	defer store.Close()

	if err := store.RecordCrawlRun(storage.CrawlRun{
		ID:                   raw.Metadata.RunID,
		StartedAt:            started,
		FinishedAt:           time.Now().UTC(),
		TotalLinks:           raw.Metadata.TotalLinks,
		DocumentsCount:       raw.Metadata.DocumentsCount,
		PagesCount:           raw.Metadata.PagesCount,
		PublicationsFiltered: raw.Metadata.PublicationsFiltered,
		Source:               raw.Metadata.Source,
	}); err != nil {
		printWarning("could not record crawl run: %v", err)
	}
}

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "List recent crawl runs",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		limit, _ := cmd.Flags().GetInt("limit")

		store, err := storage.Open(cfg.Storage.DataDir)
		if err != nil {
			return fmt.Errorf("opening run history: %w", err)
		}
		defer store.Close()

		runs, err := store.ListCrawlRuns(limit)
		if err != nil {
			return fmt.Errorf("listing crawl runs: %w", err)
		}
		if len(runs) == 0 {
			fmt.Println("No crawl runs recorded.")
			return nil
		}

		for _, r := range runs {
			fmt.Printf("%s  %s  %d documents, %d pages (%s)\n",
				colorize(colorCyan, r.ID[:8]),
				r.StartedAt.Format(time.RFC3339),
				r.DocumentsCount, r.PagesCount, r.Source,
			)
		}
		return nil
	},
}

func init() {
	crawlCmd.Flags().String("site", "", "site URL to crawl")
	crawlCmd.Flags().String("output", "", "raw output file path")
	crawlCmd.Flags().Int("limit", 0, "maximum number of pages to map")
	crawlCmd.Flags().Int("concurrency", 0, "parallel page scrapes")

	runsCmd.Flags().Int("limit", 10, "maximum number of runs to list")
}

func initLogging(cfg config.Config) {
	logLevel := slog.LevelInfo
	if strings.EqualFold(cfg.Log.Level, "debug") {
		logLevel = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel})))
}
