// Package pdftext downloads PDF documents, extracts their text, and
// caches the result so agents can read a document more than once without
// re-fetching it.
package pdftext

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/ledongthuc/pdf"

	"github.com/kalambet/adnidocs/internal/storage"
)

const (
	// maxPages bounds extraction; ADNI manuals run into the hundreds of
	// pages and agents rarely need more than the opening sections.
	maxPages = 20

	// maxContentChars bounds the returned text.
	maxContentChars = 50_000

	maxDownloadBytes = 32 << 20 // 32MB
)

// Store is the slice of the storage layer the fetcher uses.
type Store interface {
	GetPDFText(urlHash string) (storage.PDFText, error)
	SavePDFText(p storage.PDFText) error
}

// Result is the extracted content of a document, truncated for transport.
type Result struct {
	Title          string `json:"title,omitempty"`
	URL            string `json:"url"`
	Cached         bool   `json:"cached"`
	Pages          int    `json:"pages,omitempty"`
	PagesExtracted int    `json:"pages_extracted,omitempty"`
	Content        string `json:"content"`
	Citation       string `json:"citation"`
}

// Fetcher retrieves and extracts PDF text with a read-through cache.
type Fetcher struct {
	store      Store
	httpClient *http.Client
}

// New creates a Fetcher. A nil httpClient gets a 60s-timeout default.
func New(store Store, httpClient *http.Client) *Fetcher {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 60 * time.Second}
	}
	return &Fetcher{store: store, httpClient: httpClient}
}

// Fetch returns the text of the PDF at url, from cache when possible.
// title is the catalog title used for the citation line; it may be empty.
func (f *Fetcher) Fetch(ctx context.Context, url, title string) (*Result, error) {
	hash := hashURL(url)

	if cached, err := f.store.GetPDFText(hash); err == nil {
		return &Result{
			Title:          cached.Title,
			URL:            url,
			Cached:         true,
			Pages:          cached.Pages,
			PagesExtracted: cached.PagesExtracted,
			Content:        truncate(cached.Content),
			Citation:       citation(cached.Title, url),
		}, nil
	} else if !errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("reading pdf cache: %w", err)
	}

	data, err := f.download(ctx, url)
	if err != nil {
		return nil, err
	}

	content, pages, extracted, err := extractText(data)
	if err != nil {
		return nil, fmt.Errorf("extracting text from %s: %w", url, err)
	}

	if err := f.store.SavePDFText(storage.PDFText{
		URLHash:        hash,
		URL:            url,
		Title:          title,
		Content:        content,
		Pages:          pages,
		PagesExtracted: extracted,
		FetchedAt:      time.Now().UTC(),
	}); err != nil {
		return nil, fmt.Errorf("caching pdf text: %w", err)
	}

	return &Result{
		Title:          title,
		URL:            url,
		Cached:         false,
		Pages:          pages,
		PagesExtracted: extracted,
		Content:        truncate(content),
		Citation:       citation(title, url),
	}, nil
}

func (f *Fetcher) download(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("downloading %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("downloading %s: status %d", url, resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxDownloadBytes))
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", url, err)
	}
	return data, nil
}

// extractText pulls plain text from the first maxPages pages.
func extractText(data []byte) (content string, pages, extracted int, err error) {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", 0, 0, err
	}

	pages = reader.NumPage()
	limit := pages
	if limit > maxPages {
		limit = maxPages
	}

	var sections []string
	for i := 1; i <= limit; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			// Pages with unsupported encodings are skipped, not fatal.
			continue
		}
		if strings.TrimSpace(text) != "" {
			sections = append(sections, fmt.Sprintf("[Page %d]\n%s", i, text))
		}
	}

	content = strings.Join(sections, "\n\n")
	if pages > limit {
		content += fmt.Sprintf("\n\n[... Showing first %d of %d pages ...]", limit, pages)
	}
	return content, pages, limit, nil
}

func truncate(content string) string {
	if len(content) <= maxContentChars {
		return content
	}
	return content[:maxContentChars] +
		fmt.Sprintf("\n\n[... Content truncated. Full document has %d characters ...]", len(content))
}

func citation(title, url string) string {
	if title == "" {
		return "Source: " + url
	}
	return fmt.Sprintf("Source: %s - %s", title, url)
}

func hashURL(url string) string {
	sum := sha256.Sum256([]byte(url))
	return hex.EncodeToString(sum[:])
}
