package api

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/kalambet/adnidocs/internal/catalog"
)

// MCPDeps holds dependencies for the MCP server.
type MCPDeps struct {
	Catalog CatalogSource
	PDF     PDFFetcher
	Curator DocumentCurator
	// RawInputPath and CuratedOutputPath are defaults for curate_documents.
	RawInputPath      string
	CuratedOutputPath string
}

// categoryResources maps MCP resource URIs to catalog category names.
var categoryResources = []struct {
	URI      string
	Name     string
	Category string
}{
	{"adni://mri-protocols", "MRI Protocols", "MRI Protocols"},
	{"adni://pet-protocols", "PET Protocols", "PET Protocols"},
	{"adni://clinical-protocols", "Clinical Protocols", "Clinical Protocols"},
	{"adni://consent-forms", "Consent Forms", "Consent Forms"},
}

// NewMCPServer creates an MCP server exposing the ADNI document catalog
// as resources and the document tools for agents.
func NewMCPServer(deps MCPDeps) *server.MCPServer {
	s := server.NewMCPServer(
		"adni-docs",
		"1.0.0",
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(false, true),
		server.WithInstructions("adni-docs: curated catalog of ADNI study documentation with PDF content retrieval."),
		server.WithRecovery(),
	)

	// Tools
	s.AddTool(
		mcp.NewTool("fetch_pdf",
			mcp.WithDescription("Fetch and extract text content from an ADNI PDF document."),
			mcp.WithString("url", mcp.Description("Full URL of the PDF document from the catalog"), mcp.Required()),
		),
		mcpFetchPDF(deps),
	)

	s.AddTool(
		mcp.NewTool("search_documents",
			mcp.WithDescription("Search the curated ADNI document catalog by title, description, or URL."),
			mcp.WithString("query", mcp.Description("Search query"), mcp.Required()),
			mcp.WithString("category", mcp.Description("Restrict the search to one category")),
			mcp.WithNumber("limit", mcp.Description("Maximum number of results (default 10)")),
		),
		mcpSearchDocuments(deps),
	)

	s.AddTool(
		mcp.NewTool("list_categories",
			mcp.WithDescription("List catalog categories with per-subcategory document counts."),
		),
		mcpListCategories(deps),
	)

	s.AddTool(
		mcp.NewTool("curate_documents",
			mcp.WithDescription("Re-run the curation stage over a raw crawl output file and rewrite the curated catalog."),
			mcp.WithString("input_path", mcp.Description("Raw crawl output path (defaults to the configured input)")),
			mcp.WithString("output_path", mcp.Description("Curated catalog path (defaults to the configured output)")),
		),
		mcpCurateDocuments(deps),
	)

	// Resources
	s.AddResource(
		mcp.NewResource(
			"adni://catalog",
			"ADNI Document Catalog",
			mcp.WithResourceDescription("Complete curated ADNI document catalog"),
			mcp.WithMIMEType("application/json"),
		),
		mcpResourceCatalog(deps),
	)

	for _, res := range categoryResources {
		res := res
		s.AddResource(
			mcp.NewResource(
				res.URI,
				res.Name,
				mcp.WithResourceDescription(res.Name+" documents"),
				mcp.WithMIMEType("application/json"),
			),
			mcpResourceCategory(deps, res.Category),
		)
	}

	return s
}

func mcpFetchPDF(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		url, err := req.RequireString("url")
		if err != nil {
			return mcpError("url is required"), nil
		}

		result, err := deps.PDF.Fetch(ctx, url, catalogTitle(deps, url))
		if err != nil {
			return mcpError(fmt.Sprintf("failed to fetch PDF: %v", err)), nil
		}

		return mcpJSON(result)
	}
}

// catalogTitle looks up the catalog title for a document URL so the PDF
// response carries a proper citation. Unknown URLs yield an empty title.
func catalogTitle(deps MCPDeps, url string) string {
	cat, err := deps.Catalog.Catalog()
	if err != nil {
		return ""
	}
	for _, doc := range cat.AllDocuments() {
		if doc.URL == url {
			return doc.EffectiveTitle()
		}
	}
	for _, doc := range cat.Uncategorized.Documents {
		if doc.URL == url {
			return doc.EffectiveTitle()
		}
	}
	return ""
}

func mcpSearchDocuments(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		query, err := req.RequireString("query")
		if err != nil {
			return mcpError("query is required"), nil
		}

		category := req.GetString("category", "")
		limit := req.GetInt("limit", 10)
		if limit <= 0 {
			limit = 10
		}
		if limit > 100 {
			limit = 100
		}

		cat, err := deps.Catalog.Catalog()
		if err != nil {
			return mcpError(fmt.Sprintf("catalog unavailable: %v", err)), nil
		}

		results := catalog.Search(cat, query, category, limit)
		return mcpJSON(map[string]any{
			"results": results,
			"count":   len(results),
		})
	}
}

func mcpListCategories(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		cat, err := deps.Catalog.Catalog()
		if err != nil {
			return mcpError(fmt.Sprintf("catalog unavailable: %v", err)), nil
		}

		categories := make(map[string]map[string]int, len(cat.DocumentsByCategory))
		for name, subs := range cat.DocumentsByCategory {
			counts := make(map[string]int, len(subs))
			for sub, docs := range subs {
				counts[sub] = len(docs)
			}
			categories[name] = counts
		}
		return mcpJSON(map[string]any{
			"categories":    categories,
			"uncategorized": cat.Uncategorized.Count,
			"skipped":       cat.Skipped.Count,
		})
	}
}

func mcpCurateDocuments(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		inputPath := req.GetString("input_path", deps.RawInputPath)
		outputPath := req.GetString("output_path", deps.CuratedOutputPath)

		raw, err := catalog.LoadRaw(inputPath)
		if err != nil {
			return mcpError(fmt.Sprintf("failed to load raw output: %v", err)), nil
		}

		curated, err := deps.Curator.Curate(raw.Documents)
		if err != nil {
			return mcpError(fmt.Sprintf("curation failed: %v", err)), nil
		}

		if err := catalog.SaveCurated(outputPath, curated); err != nil {
			return mcpError(fmt.Sprintf("failed to save curated catalog: %v", err)), nil
		}

		return mcpJSON(map[string]any{
			"metadata":    curated.Metadata,
			"output_path": outputPath,
		})
	}
}

func mcpResourceCatalog(deps MCPDeps) server.ResourceHandlerFunc {
	return func(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		cat, err := deps.Catalog.Catalog()
		if err != nil {
			return nil, fmt.Errorf("catalog unavailable: %w", err)
		}
		return resourceJSON(req.Params.URI, cat)
	}
}

func mcpResourceCategory(deps MCPDeps, category string) server.ResourceHandlerFunc {
	return func(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		cat, err := deps.Catalog.Catalog()
		if err != nil {
			return nil, fmt.Errorf("catalog unavailable: %w", err)
		}

		subs, _ := cat.Category(category)
		if subs == nil {
			subs = map[string][]catalog.DocumentRecord{}
		}
		return resourceJSON(req.Params.URI, map[string]any{
			"category":  category,
			"documents": subs,
		})
	}
}

func resourceJSON(uri string, v any) ([]mcp.ResourceContents, error) {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal resource: %w", err)
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(b),
		},
	}, nil
}

func mcpJSON(v any) (*mcp.CallToolResult, error) {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcpError(fmt.Sprintf("failed to marshal result: %v", err)), nil
	}
	return mcpText(string(b)), nil
}

func mcpText(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: text},
		},
	}
}

func mcpError(msg string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: msg},
		},
		IsError: true,
	}
}
