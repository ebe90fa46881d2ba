package catalog

import "strings"

// SearchResult pairs a matched document with the category it lives under.
type SearchResult struct {
	Document    DocumentRecord `json:"document"`
	Category    string         `json:"category"`
	Subcategory string         `json:"subcategory"`
}

// Search matches query as a case-insensitive substring against each
// document's title, enriched title/description, and URL. When category is
// non-empty only that category is searched. Results follow catalog order;
// limit <= 0 means no limit.
func Search(c *CuratedOutput, query, category string, limit int) []SearchResult {
	query = strings.ToLower(strings.TrimSpace(query))

	var results []SearchResult
	for _, cat := range c.CategoryNames() {
		if category != "" && !strings.EqualFold(cat, category) {
			continue
		}
		subs := c.DocumentsByCategory[cat]
		subNames := make([]string, 0, len(subs))
		for name := range subs {
			subNames = append(subNames, name)
		}
		sortStrings(subNames)
		for _, sub := range subNames {
			for _, doc := range subs[sub] {
				if !matches(doc, query) {
					continue
				}
				results = append(results, SearchResult{Document: doc, Category: cat, Subcategory: sub})
				if limit > 0 && len(results) >= limit {
					return results
				}
			}
		}
	}

	if category == "" {
		for _, doc := range c.Uncategorized.Documents {
			if !matches(doc, query) {
				continue
			}
			results = append(results, SearchResult{Document: doc, Category: "Uncategorized"})
			if limit > 0 && len(results) >= limit {
				return results
			}
		}
	}
	return results
}

func matches(doc DocumentRecord, query string) bool {
	if query == "" {
		return true
	}
	for _, field := range []string{doc.Title, doc.AITitle, doc.AIDescription, doc.URL} {
		if strings.Contains(strings.ToLower(field), query) {
			return true
		}
	}
	return false
}
