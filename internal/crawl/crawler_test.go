package crawl

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/kalambet/adnidocs/internal/firecrawl"
)

type stubScraper struct {
	mapURLs []string
	mapErr  error
	pages   map[string]*firecrawl.ScrapeResult
	errors  map[string]error

	mu       sync.Mutex
	scraped  []string
	mapCalls int
}

func (s *stubScraper) Map(ctx context.Context, req firecrawl.MapRequest) ([]string, error) {
	s.mu.Lock()
	s.mapCalls++
	s.mu.Unlock()
	return s.mapURLs, s.mapErr
}

func (s *stubScraper) Scrape(ctx context.Context, url string, formats ...string) (*firecrawl.ScrapeResult, error) {
	s.mu.Lock()
	s.scraped = append(s.scraped, url)
	s.mu.Unlock()

	if err, ok := s.errors[url]; ok {
		return nil, err
	}
	if result, ok := s.pages[url]; ok {
		return result, nil
	}
	return &firecrawl.ScrapeResult{}, nil
}

func TestCrawler_Run(t *testing.T) {
	stub := &stubScraper{
		mapURLs: []string{
			"https://adni.loni.usc.edu/about/",
			"https://adni.loni.usc.edu/methods/documents/",
			"https://adni.loni.usc.edu/adni-publications/",
			"https://adni.loni.usc.edu/files/standalone.pdf",
		},
		pages: map[string]*firecrawl.ScrapeResult{
			"https://adni.loni.usc.edu/methods/documents/": {
				Markdown: "[ADNI3 MRI Manual](https://adni.loni.usc.edu/files/mri-manual.pdf)",
				HTML:     `<a href="https://adni.loni.usc.edu/files/pet-manual.pdf">PET Manual</a>`,
			},
		},
	}

	raw, err := New(stub, 2).Run(context.Background(), "https://adni.loni.usc.edu", 5000)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if raw.Metadata.DocumentsCount != 3 {
		t.Errorf("documents_count = %d, want 3", raw.Metadata.DocumentsCount)
	}
	if raw.Metadata.PagesCount != 2 {
		t.Errorf("pages_count = %d, want 2", raw.Metadata.PagesCount)
	}
	if raw.Metadata.PublicationsFiltered != 1 {
		t.Errorf("publications_filtered = %d, want 1", raw.Metadata.PublicationsFiltered)
	}
	if raw.Metadata.TotalLinks != 5 {
		t.Errorf("total_links = %d, want 5", raw.Metadata.TotalLinks)
	}
	if raw.Metadata.Source != "adni.loni.usc.edu" {
		t.Errorf("source = %q, want adni.loni.usc.edu", raw.Metadata.Source)
	}
	if raw.Metadata.RunID == "" {
		t.Error("run_id is empty")
	}

	byURL := make(map[string]int)
	for i, doc := range raw.Documents {
		byURL[doc.URL] = i
	}
	for _, want := range []string{
		"https://adni.loni.usc.edu/files/standalone.pdf",
		"https://adni.loni.usc.edu/files/mri-manual.pdf",
		"https://adni.loni.usc.edu/files/pet-manual.pdf",
	} {
		if _, ok := byURL[want]; !ok {
			t.Errorf("document %s missing from raw output", want)
		}
	}

	mri := raw.Documents[byURL["https://adni.loni.usc.edu/files/mri-manual.pdf"]]
	if mri.AITitle != "ADNI3 MRI Manual" || !mri.Enhanced {
		t.Errorf("mri-manual ai_title = %q enhanced = %v, want anchor text", mri.AITitle, mri.Enhanced)
	}
	if mri.AIDescription != "ADNI Document: ADNI3 MRI Manual" {
		t.Errorf("mri-manual ai_description = %q", mri.AIDescription)
	}
	if mri.FileExtension != "pdf" {
		t.Errorf("mri-manual file_extension = %q, want pdf", mri.FileExtension)
	}

	standalone := raw.Documents[byURL["https://adni.loni.usc.edu/files/standalone.pdf"]]
	if standalone.Enhanced || standalone.AITitle != "" {
		t.Errorf("standalone document should not be enhanced: %+v", standalone)
	}
	if standalone.Title != "standalone.pdf" {
		t.Errorf("standalone title = %q, want standalone.pdf", standalone.Title)
	}
}

func TestCrawler_SkipsPublicationAndNonKeyPages(t *testing.T) {
	stub := &stubScraper{
		mapURLs: []string{
			"https://adni.loni.usc.edu/about/",
			"https://adni.loni.usc.edu/adni-publications/documentation/",
			"https://adni.loni.usc.edu/wp-login.php",
		},
	}

	if _, err := New(stub, 1).Run(context.Background(), "https://adni.loni.usc.edu", 100); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(stub.scraped) != 1 || stub.scraped[0] != "https://adni.loni.usc.edu/about/" {
		t.Errorf("scraped = %v, want only the about page", stub.scraped)
	}
}

func TestCrawler_ScrapeFailureIsNotFatal(t *testing.T) {
	stub := &stubScraper{
		mapURLs: []string{
			"https://adni.loni.usc.edu/about/",
			"https://adni.loni.usc.edu/methods/",
		},
		errors: map[string]error{
			"https://adni.loni.usc.edu/about/": fmt.Errorf("scrape timeout"),
		},
	}

	raw, err := New(stub, 2).Run(context.Background(), "https://adni.loni.usc.edu", 100)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if raw.Metadata.PagesCount != 2 {
		t.Errorf("pages_count = %d, want 2", raw.Metadata.PagesCount)
	}
}

func TestCrawler_MapFailureAborts(t *testing.T) {
	stub := &stubScraper{mapErr: fmt.Errorf("api unavailable")}

	if _, err := New(stub, 1).Run(context.Background(), "https://adni.loni.usc.edu", 100); err == nil {
		t.Fatal("expected error when map fails")
	}
}

func TestCrawler_DedupesByURL(t *testing.T) {
	stub := &stubScraper{
		mapURLs: []string{
			"https://adni.loni.usc.edu/files/manual.pdf",
			"https://adni.loni.usc.edu/files/manual.pdf",
			"https://adni.loni.usc.edu/documentation/",
		},
		pages: map[string]*firecrawl.ScrapeResult{
			"https://adni.loni.usc.edu/documentation/": {
				Markdown: "[Manual](https://adni.loni.usc.edu/files/manual.pdf)",
			},
		},
	}

	raw, err := New(stub, 1).Run(context.Background(), "https://adni.loni.usc.edu", 100)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if raw.Metadata.DocumentsCount != 1 {
		t.Fatalf("documents_count = %d, want 1", raw.Metadata.DocumentsCount)
	}
	// The anchor text from the scraped page still enhances the document.
	if raw.Documents[0].AITitle != "Manual" {
		t.Errorf("ai_title = %q, want Manual", raw.Documents[0].AITitle)
	}
}
