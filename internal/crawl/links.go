package crawl

import (
	"regexp"
	"strings"

	"golang.org/x/net/html"
)

// documentExtensions are the URL suffixes treated as downloadable
// documents rather than site pages.
var documentExtensions = map[string]bool{
	"pdf": true, "doc": true, "docx": true,
	"xls": true, "xlsx": true, "ppt": true, "pptx": true,
	"png": true, "jpg": true,
}

var markdownLinkRE = regexp.MustCompile(`\[([^\]]+)\]\(([^)]+)\)`)

// documentExtension returns the lowercased file extension of a URL and
// whether it identifies a document. Query strings and fragments are
// ignored.
func documentExtension(url string) (string, bool) {
	name := url
	if i := strings.LastIndex(name, "/"); i >= 0 {
		name = name[i+1:]
	}
	if i := strings.IndexAny(name, "?#"); i >= 0 {
		name = name[:i]
	}
	i := strings.LastIndex(name, ".")
	if i < 0 || i == len(name)-1 {
		return "", false
	}
	ext := strings.ToLower(name[i+1:])
	return ext, documentExtensions[ext]
}

// titleFromURL derives a human-readable title from a URL's filename.
func titleFromURL(url string) string {
	name := url
	if i := strings.LastIndex(name, "/"); i >= 0 {
		name = name[i+1:]
	}
	if i := strings.IndexAny(name, "?#"); i >= 0 {
		name = name[:i]
	}
	name = strings.ReplaceAll(name, "%20", " ")
	name = strings.ReplaceAll(name, "_", " ")
	return name
}

// extractMarkdownLinks returns document URL → anchor text for every
// markdown link whose target looks like a document.
func extractMarkdownLinks(markdown string) map[string]string {
	links := make(map[string]string)
	for _, m := range markdownLinkRE.FindAllStringSubmatch(markdown, -1) {
		text, url := strings.TrimSpace(m[1]), strings.TrimSpace(m[2])
		if _, ok := documentExtension(url); ok {
			links[url] = text
		}
	}
	return links
}

// extractHTMLLinks returns document URL → anchor text for every <a> tag
// in the HTML whose href looks like a document. Parse failures yield an
// empty map; the markdown pass remains the primary source.
func extractHTMLLinks(src string) map[string]string {
	links := make(map[string]string)
	doc, err := html.Parse(strings.NewReader(src))
	if err != nil {
		return links
	}

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "a" {
			for _, attr := range n.Attr {
				if attr.Key != "href" {
					continue
				}
				url := strings.TrimSpace(attr.Val)
				if _, ok := documentExtension(url); ok {
					if text := anchorText(n); text != "" {
						links[url] = text
					} else if _, seen := links[url]; !seen {
						links[url] = ""
					}
				}
			}
		}
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
	}
	walk(doc)
	return links
}

// anchorText collects the text content beneath an anchor node.
func anchorText(n *html.Node) string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
		}
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
	}
	walk(n)
	return strings.Join(strings.Fields(sb.String()), " ")
}

// publicationTerms mark URLs excluded from the crawl: the publications
// archive is out of scope for the documentation catalog.
var publicationTerms = []string{"publication", "adni-publications", "/wp-content/uploads/papers/"}

func isPublication(url string) bool {
	lower := strings.ToLower(url)
	for _, term := range publicationTerms {
		if strings.Contains(lower, term) {
			return true
		}
	}
	return false
}

// keyPageTerms select the content pages worth scraping for embedded
// document links.
var keyPageTerms = []string{"documentation", "help-faqs", "data-samples", "governance", "about", "methods"}

func isKeyPage(url string) bool {
	lower := strings.ToLower(url)
	for _, term := range keyPageTerms {
		if strings.Contains(lower, term) {
			return true
		}
	}
	return false
}
