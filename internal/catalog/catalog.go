package catalog

import (
	"errors"
	"sort"
	"strings"
	"time"
)

// ErrParse is wrapped by load functions when a file exists but is not
// well-formed JSON of the expected shape.
var ErrParse = errors.New("malformed catalog file")

// DocumentRecord is a single discovered document. URL is the unique key
// within a crawl run; the crawl stage dedupes by URL before writing.
type DocumentRecord struct {
	URL           string `json:"url"`
	Title         string `json:"title"`
	FileExtension string `json:"file_extension,omitempty"`
	Type          string `json:"type,omitempty"`
	AITitle       string `json:"ai_title,omitempty"`
	AIDescription string `json:"ai_description,omitempty"`
	Enhanced      bool   `json:"enhanced,omitempty"`
}

// EffectiveTitle returns the enriched title when present, the
// filename-derived title otherwise.
func (d DocumentRecord) EffectiveTitle() string {
	if d.AITitle != "" {
		return d.AITitle
	}
	return d.Title
}

// PageRecord is a non-document URL discovered during the crawl.
type PageRecord struct {
	URL  string `json:"url"`
	Type string `json:"type,omitempty"`
}

// RawMetadata summarizes a crawl run.
type RawMetadata struct {
	RunID                string    `json:"run_id,omitempty"`
	TotalLinks           int       `json:"total_links"`
	DocumentsCount       int       `json:"documents_count"`
	PagesCount           int       `json:"pages_count"`
	PublicationsFiltered int       `json:"publications_filtered"`
	EnhancedCount        int       `json:"enhanced_count,omitempty"`
	Source               string    `json:"source"`
	CrawledAt            time.Time `json:"crawled_at,omitzero"`
}

// RawOutput is the crawl stage artifact consumed by the curator.
type RawOutput struct {
	Metadata  RawMetadata      `json:"metadata"`
	Documents []DocumentRecord `json:"documents"`
	Pages     []PageRecord     `json:"pages,omitempty"`
}

// CuratedMetadata summarizes a curation run.
type CuratedMetadata struct {
	TotalDocuments         int    `json:"total_documents"`
	OrganizedDocuments     int    `json:"organized_documents"`
	SkippedDocuments       int    `json:"skipped_documents"`
	UncategorizedDocuments int    `json:"uncategorized_documents"`
	Source                 string `json:"source"`
	StructureVersion       string `json:"structure_version,omitempty"`
}

// DocumentList is a bucket of documents with its count, as serialized in
// the curated output's uncategorized and skipped sections.
type DocumentList struct {
	Documents []DocumentRecord `json:"documents"`
	Count     int              `json:"count"`
	Reason    string           `json:"reason,omitempty"`
}

// CuratedOutput is the hierarchical catalog: category → subcategory →
// ordered documents, plus the uncategorized and skipped buckets.
type CuratedOutput struct {
	Metadata            CuratedMetadata                        `json:"metadata"`
	DocumentsByCategory map[string]map[string][]DocumentRecord `json:"documents_by_category"`
	Uncategorized       DocumentList                           `json:"uncategorized"`
	Skipped             DocumentList                           `json:"skipped"`
}

// Category returns the documents under a single category, keyed by
// subcategory. The second result is false when the category is absent.
func (c *CuratedOutput) Category(name string) (map[string][]DocumentRecord, bool) {
	sub, ok := c.DocumentsByCategory[name]
	return sub, ok
}

// CategoryNames returns all category names present in the catalog,
// sorted case-insensitively.
func (c *CuratedOutput) CategoryNames() []string {
	names := make([]string, 0, len(c.DocumentsByCategory))
	for name := range c.DocumentsByCategory {
		names = append(names, name)
	}
	sortStrings(names)
	return names
}

// AllDocuments returns every categorized document in category/subcategory
// order (categories and subcategories sorted, bucket order preserved).
func (c *CuratedOutput) AllDocuments() []DocumentRecord {
	var out []DocumentRecord
	for _, cat := range c.CategoryNames() {
		subs := c.DocumentsByCategory[cat]
		subNames := make([]string, 0, len(subs))
		for name := range subs {
			subNames = append(subNames, name)
		}
		sortStrings(subNames)
		for _, sub := range subNames {
			out = append(out, subs[sub]...)
		}
	}
	return out
}

func sortStrings(s []string) {
	sort.Slice(s, func(i, j int) bool {
		return strings.ToLower(s[i]) < strings.ToLower(s[j])
	})
}
