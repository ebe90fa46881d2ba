// Package firecrawl is a minimal client for the hosted Firecrawl API,
// covering the map and scrape endpoints the crawler needs.
package firecrawl

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

const DefaultBaseURL = "https://api.firecrawl.dev"

// Client communicates with the Firecrawl API over HTTP.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// New creates a Client for the given base URL and API key.
func New(baseURL, apiKey string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
}

// MapRequest is the payload for the map endpoint.
type MapRequest struct {
	URL               string `json:"url"`
	Limit             int    `json:"limit,omitempty"`
	IncludeSubdomains bool   `json:"includeSubdomains"`
	Sitemap           string `json:"sitemap,omitempty"`
}

// mapResponse tolerates the response shapes the API has been observed to
// return: links at the top level, links nested under data, or data as a
// bare list. Entries are either strings or {url} objects.
type mapResponse struct {
	Success bool            `json:"success"`
	Error   string          `json:"error"`
	Links   []mapLink       `json:"links"`
	Data    json.RawMessage `json:"data"`
}

type mapLink struct {
	URL string
}

func (l *mapLink) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		l.URL = s
		return nil
	}
	var obj struct {
		URL string `json:"url"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return err
	}
	l.URL = obj.URL
	return nil
}

// Map discovers site URLs via POST /v2/map.
func (c *Client) Map(ctx context.Context, req MapRequest) ([]string, error) {
	var resp mapResponse
	if err := c.post(ctx, "/v2/map", req, &resp); err != nil {
		return nil, err
	}
	if !resp.Success {
		return nil, fmt.Errorf("map request failed: %s", apiError(resp.Error))
	}

	links := resp.Links
	if len(links) == 0 && len(resp.Data) > 0 {
		var nested struct {
			Links []mapLink `json:"links"`
		}
		if err := json.Unmarshal(resp.Data, &nested); err == nil && len(nested.Links) > 0 {
			links = nested.Links
		} else {
			var list []mapLink
			if err := json.Unmarshal(resp.Data, &list); err == nil {
				links = list
			}
		}
	}

	urls := make([]string, 0, len(links))
	for _, l := range links {
		if l.URL != "" {
			urls = append(urls, l.URL)
		}
	}
	return urls, nil
}

// ScrapeResult holds the formats returned by the scrape endpoint.
type ScrapeResult struct {
	Markdown string `json:"markdown"`
	HTML     string `json:"html"`
}

type scrapeRequest struct {
	URL     string   `json:"url"`
	Formats []string `json:"formats"`
}

type scrapeResponse struct {
	Success bool         `json:"success"`
	Error   string       `json:"error"`
	Data    ScrapeResult `json:"data"`
}

// Scrape fetches a rendered page via POST /v2/scrape in the requested
// formats ("markdown", "html").
func (c *Client) Scrape(ctx context.Context, url string, formats ...string) (*ScrapeResult, error) {
	if len(formats) == 0 {
		formats = []string{"markdown"}
	}

	var resp scrapeResponse
	if err := c.post(ctx, "/v2/scrape", scrapeRequest{URL: url, Formats: formats}, &resp); err != nil {
		return nil, err
	}
	if !resp.Success {
		return nil, fmt.Errorf("scraping %s: %s", url, apiError(resp.Error))
	}
	return &resp.Data, nil
}

func (c *Client) post(ctx context.Context, path string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshalling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("calling %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%s returned status %d", path, resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding %s response: %w", path, err)
	}
	return nil
}

func apiError(msg string) string {
	if msg == "" {
		return "unknown API error"
	}
	return msg
}
