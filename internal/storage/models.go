package storage

import (
	"errors"
	"time"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("not found")

// PDFText is cached extracted text for a single document URL.
type PDFText struct {
	URLHash        string
	URL            string
	Title          string
	Content        string
	Pages          int
	PagesExtracted int
	FetchedAt      time.Time
}

// CrawlRun records one completed crawl stage execution.
type CrawlRun struct {
	ID                   string
	StartedAt            time.Time
	FinishedAt           time.Time
	TotalLinks           int
	DocumentsCount       int
	PagesCount           int
	PublicationsFiltered int
	Source               string
}
