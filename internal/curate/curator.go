// Package curate buckets crawled ADNI documents into the site's
// documentation hierarchy using an ordered rule table.
package curate

import (
	"fmt"
	"strings"

	"github.com/kalambet/adnidocs/internal/catalog"
)

// StructureVersion tags the taxonomy encoded in DefaultRules.
const StructureVersion = "documentation_page_v1"

// ValidationError reports a document that cannot be curated. The whole
// run aborts on the first invalid document; silently dropping it would
// break the partition invariant between input and output buckets.
type ValidationError struct {
	Index int
	Field string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("document %d: missing required field %q", e.Index, e.Field)
}

// Curator applies exclusion rules and then category rules, in declared
// order, to a list of documents. The zero value is unusable; use New.
type Curator struct {
	rules      []Rule
	exclusions []ExclusionRule
	source     string
}

// Option configures a Curator.
type Option func(*Curator)

// WithRules replaces the default category rule table.
func WithRules(rules []Rule) Option {
	return func(c *Curator) { c.rules = rules }
}

// WithExclusions replaces the default exclusion rule set.
func WithExclusions(exclusions []ExclusionRule) Option {
	return func(c *Curator) { c.exclusions = exclusions }
}

// WithSource sets the metadata source label of produced catalogs.
func WithSource(source string) Option {
	return func(c *Curator) { c.source = source }
}

// New creates a Curator with the ADNI default rule tables.
func New(opts ...Option) *Curator {
	c := &Curator{
		rules:      DefaultRules(),
		exclusions: DefaultExclusions(),
		source:     "ADNI website structure",
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Curate partitions documents into categorized, uncategorized, and
// skipped buckets. Every input document lands in exactly one bucket and
// per-bucket order follows input order. The transformation is pure: same
// input, same output.
func (c *Curator) Curate(documents []catalog.DocumentRecord) (*catalog.CuratedOutput, error) {
	out := &catalog.CuratedOutput{
		DocumentsByCategory: make(map[string]map[string][]catalog.DocumentRecord),
		Uncategorized:       catalog.DocumentList{Documents: []catalog.DocumentRecord{}},
		Skipped:             catalog.DocumentList{Documents: []catalog.DocumentRecord{}},
	}

	organized := 0
	for i, doc := range documents {
		if doc.URL == "" {
			return nil, &ValidationError{Index: i, Field: "url"}
		}

		title := strings.ToLower(doc.EffectiveTitle())
		url := strings.ToLower(doc.URL)

		if reason, excluded := c.excluded(title, url); excluded {
			out.Skipped.Documents = append(out.Skipped.Documents, doc)
			if out.Skipped.Reason == "" {
				out.Skipped.Reason = reason
			}
			continue
		}

		if category, subcategory, ok := c.classify(title, url); ok {
			subs := out.DocumentsByCategory[category]
			if subs == nil {
				subs = make(map[string][]catalog.DocumentRecord)
				out.DocumentsByCategory[category] = subs
			}
			subs[subcategory] = append(subs[subcategory], doc)
			organized++
			continue
		}

		out.Uncategorized.Documents = append(out.Uncategorized.Documents, doc)
	}

	out.Uncategorized.Count = len(out.Uncategorized.Documents)
	out.Skipped.Count = len(out.Skipped.Documents)
	out.Metadata = catalog.CuratedMetadata{
		TotalDocuments:         len(documents),
		OrganizedDocuments:     organized,
		SkippedDocuments:       out.Skipped.Count,
		UncategorizedDocuments: out.Uncategorized.Count,
		Source:                 c.source,
		StructureVersion:       StructureVersion,
	}
	return out, nil
}

// excluded checks exclusion rules in order; the first matching rule wins.
func (c *Curator) excluded(title, url string) (string, bool) {
	for _, rule := range c.exclusions {
		if len(rule.TitleAny) > 0 && !containsAny(title, rule.TitleAny) {
			continue
		}
		if len(rule.URLAny) > 0 && !containsAny(url, rule.URLAny) {
			continue
		}
		if len(rule.TitleAny) == 0 && len(rule.URLAny) == 0 {
			continue
		}
		return rule.Reason, true
	}
	return "", false
}

// classify evaluates the category rules in order and returns the first
// matching (category, subcategory) pair.
func (c *Curator) classify(title, url string) (string, string, bool) {
	for _, rule := range c.rules {
		for _, keyword := range rule.Keywords {
			kw := strings.ToLower(keyword)
			if strings.Contains(title, kw) || strings.Contains(url, kw) {
				return rule.Category, rule.Subcategory, true
			}
		}
	}
	return "", "", false
}

func containsAny(s string, substrings []string) bool {
	for _, sub := range substrings {
		if strings.Contains(s, strings.ToLower(sub)) {
			return true
		}
	}
	return false
}
