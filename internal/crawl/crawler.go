// Package crawl orchestrates the crawl stage: discover site URLs through
// the hosted crawling API, scrape key content pages for embedded document
// links, and produce the raw document list consumed by the curator.
package crawl

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/kalambet/adnidocs/internal/catalog"
	"github.com/kalambet/adnidocs/internal/firecrawl"
)

// Scraper is the slice of the firecrawl client the crawler uses.
type Scraper interface {
	Map(ctx context.Context, req firecrawl.MapRequest) ([]string, error)
	Scrape(ctx context.Context, url string, formats ...string) (*firecrawl.ScrapeResult, error)
}

// Crawler drives a single crawl run.
type Crawler struct {
	client      Scraper
	concurrency int
	logger      *slog.Logger
}

// New creates a Crawler. If concurrency is <= 0 it defaults to 4.
func New(client Scraper, concurrency int) *Crawler {
	if concurrency <= 0 {
		concurrency = 4
	}
	return &Crawler{
		client:      client,
		concurrency: concurrency,
		logger:      slog.Default(),
	}
}

// Run crawls site and returns the raw output. Individual page scrape
// failures are logged and skipped; only map failures abort the run.
func (c *Crawler) Run(ctx context.Context, site string, limit int) (*catalog.RawOutput, error) {
	c.logger.Info("mapping site", "site", site, "limit", limit)
	mapped, err := c.client.Map(ctx, firecrawl.MapRequest{
		URL:               site,
		Limit:             limit,
		IncludeSubdomains: false,
		Sitemap:           "include",
	})
	if err != nil {
		return nil, fmt.Errorf("mapping site: %w", err)
	}
	c.logger.Info("site mapped", "pages", len(mapped))

	linkTitles, err := c.scrapeKeyPages(ctx, mapped)
	if err != nil {
		return nil, err
	}
	c.logger.Info("key pages scraped", "document_links", len(linkTitles))

	return c.assemble(site, mapped, linkTitles), nil
}

// scrapeKeyPages fetches the content pages likely to embed document
// links and extracts URL → anchor text from their markdown and HTML.
func (c *Crawler) scrapeKeyPages(ctx context.Context, mapped []string) (map[string]string, error) {
	var keyPages []string
	for _, u := range mapped {
		if isPublication(u) {
			continue
		}
		if isKeyPage(u) {
			keyPages = append(keyPages, u)
		}
	}
	c.logger.Info("scraping key content pages", "count", len(keyPages))

	var mu sync.Mutex
	linkTitles := make(map[string]string)

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(c.concurrency)

	for _, page := range keyPages {
		page := page
		g.Go(func() error {
			result, err := c.client.Scrape(gCtx, page, "markdown", "html")
			if err != nil {
				// Best-effort: a single unreachable page does not fail the run.
				c.logger.Warn("scrape failed", "url", page, "error", err)
				return nil
			}

			found := extractMarkdownLinks(result.Markdown)
			for u, text := range extractHTMLLinks(result.HTML) {
				if _, ok := found[u]; !ok {
					found[u] = text
				}
			}

			mu.Lock()
			for u, text := range found {
				if existing, ok := linkTitles[u]; !ok || existing == "" {
					linkTitles[u] = text
				}
			}
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("scraping key pages: %w", err)
	}
	return linkTitles, nil
}

// assemble merges mapped URLs and extracted document links, dedupes by
// URL, filters publications, and splits documents from pages.
func (c *Crawler) assemble(site string, mapped []string, linkTitles map[string]string) *catalog.RawOutput {
	seen := make(map[string]bool)
	var all []string
	for _, u := range mapped {
		if u != "" && !seen[u] {
			seen[u] = true
			all = append(all, u)
		}
	}
	for u := range linkTitles {
		if u != "" && !seen[u] {
			seen[u] = true
			all = append(all, u)
		}
	}
	// Stable output regardless of scrape completion order.
	sort.Strings(all)

	var (
		documents    []catalog.DocumentRecord
		pages        []catalog.PageRecord
		publications int
		enhanced     int
	)
	for _, u := range all {
		if isPublication(u) {
			publications++
			continue
		}

		ext, isDoc := documentExtension(u)
		if !isDoc {
			pages = append(pages, catalog.PageRecord{URL: u, Type: "page"})
			continue
		}

		doc := catalog.DocumentRecord{
			URL:           u,
			Title:         titleFromURL(u),
			FileExtension: ext,
			Type:          "document",
		}
		if text := linkTitles[u]; text != "" {
			doc.AITitle = text
			doc.AIDescription = "ADNI Document: " + text
			doc.Enhanced = true
			enhanced++
		}
		documents = append(documents, doc)
	}

	return &catalog.RawOutput{
		Metadata: catalog.RawMetadata{
			RunID:                uuid.New().String(),
			TotalLinks:           len(documents) + len(pages),
			DocumentsCount:       len(documents),
			PagesCount:           len(pages),
			PublicationsFiltered: publications,
			EnhancedCount:        enhanced,
			Source:               sourceHost(site),
			CrawledAt:            time.Now().UTC(),
		},
		Documents: documents,
		Pages:     pages,
	}
}

func sourceHost(site string) string {
	if u, err := url.Parse(site); err == nil && u.Host != "" {
		return u.Host
	}
	return site
}
