// Package api exposes the curated document catalog over a local HTTP API
// and an MCP server for agent tool calling.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"

	"github.com/kalambet/adnidocs/internal/catalog"
	"github.com/kalambet/adnidocs/internal/pdftext"
)

// PDFFetcher retrieves extracted PDF text for a document URL.
type PDFFetcher interface {
	Fetch(ctx context.Context, url, title string) (*pdftext.Result, error)
}

// DocumentCurator runs the curation stage over a document list.
type DocumentCurator interface {
	Curate(documents []catalog.DocumentRecord) (*catalog.CuratedOutput, error)
}

// AppDeps holds dependencies for the HTTP catalog API.
type AppDeps struct {
	Catalog CatalogSource
	PDF     PDFFetcher
	Curator DocumentCurator
	// RawInputPath and CuratedOutputPath are the defaults for POST /curate.
	RawInputPath      string
	CuratedOutputPath string
	// Token enables bearer auth on all routes when non-empty.
	Token string
}

// NewCatalogHandler builds the chi router for the catalog API.
func NewCatalogHandler(deps AppDeps) http.Handler {
	r := chi.NewRouter()
	if deps.Token != "" {
		r.Use(BearerAuth(deps.Token))
	}

	r.Get("/health", handleHealth)
	r.Get("/catalog", handleCatalog(deps))
	r.Get("/categories", handleListCategories(deps))
	r.Get("/categories/{category}", handleGetCategory(deps))
	r.Get("/documents", handleSearchDocuments(deps))
	r.Post("/curate", handleCurate(deps))

	return r
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func handleCatalog(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cat, err := deps.Catalog.Catalog()
		if err != nil {
			httpError(w, http.StatusServiceUnavailable, "catalog_error", "loading catalog: %v", err)
			return
		}
		writeJSON(w, http.StatusOK, cat)
	}
}

// categorySummary is one entry of GET /categories.
type categorySummary struct {
	Name          string         `json:"name"`
	DocumentCount int            `json:"document_count"`
	Subcategories map[string]int `json:"subcategories"`
}

func handleListCategories(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cat, err := deps.Catalog.Catalog()
		if err != nil {
			httpError(w, http.StatusServiceUnavailable, "catalog_error", "loading catalog: %v", err)
			return
		}

		summaries := make([]categorySummary, 0, len(cat.DocumentsByCategory))
		for _, name := range cat.CategoryNames() {
			subs := cat.DocumentsByCategory[name]
			summary := categorySummary{Name: name, Subcategories: make(map[string]int, len(subs))}
			for sub, docs := range subs {
				summary.Subcategories[sub] = len(docs)
				summary.DocumentCount += len(docs)
			}
			summaries = append(summaries, summary)
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"categories":    summaries,
			"uncategorized": cat.Uncategorized.Count,
			"skipped":       cat.Skipped.Count,
		})
	}
}

func handleGetCategory(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		name, err := url.PathUnescape(chi.URLParam(r, "category"))
		if err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid category name")
			return
		}

		cat, err := deps.Catalog.Catalog()
		if err != nil {
			httpError(w, http.StatusServiceUnavailable, "catalog_error", "loading catalog: %v", err)
			return
		}

		subs, ok := cat.Category(name)
		if !ok {
			httpError(w, http.StatusNotFound, "not_found", "category %q not found", name)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"category":  name,
			"documents": subs,
		})
	}
}

func handleSearchDocuments(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		query := r.URL.Query().Get("q")
		category := r.URL.Query().Get("category")
		limit := 20
		if v := r.URL.Query().Get("limit"); v != "" {
			if _, err := fmt.Sscanf(v, "%d", &limit); err != nil || limit < 1 {
				httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid limit %q", v)
				return
			}
		}

		cat, err := deps.Catalog.Catalog()
		if err != nil {
			httpError(w, http.StatusServiceUnavailable, "catalog_error", "loading catalog: %v", err)
			return
		}

		results := catalog.Search(cat, query, category, limit)
		if results == nil {
			results = []catalog.SearchResult{}
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"results": results,
			"count":   len(results),
		})
	}
}

type curateRequest struct {
	InputPath  string `json:"input_path"`
	OutputPath string `json:"output_path"`
}

func handleCurate(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req curateRequest
		if r.ContentLength > 0 {
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid request body: %v", err)
				return
			}
		}
		if req.InputPath == "" {
			req.InputPath = deps.RawInputPath
		}
		if req.OutputPath == "" {
			req.OutputPath = deps.CuratedOutputPath
		}

		raw, err := catalog.LoadRaw(req.InputPath)
		if err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "loading raw output: %v", err)
			return
		}

		curated, err := deps.Curator.Curate(raw.Documents)
		if err != nil {
			httpError(w, http.StatusUnprocessableEntity, "validation_error", "curating documents: %v", err)
			return
		}

		if err := catalog.SaveCurated(req.OutputPath, curated); err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "saving curated catalog: %v", err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"metadata":    curated.Metadata,
			"output_path": req.OutputPath,
		})
	}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func httpError(w http.ResponseWriter, code int, errType string, format string, args ...any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	msg := fmt.Sprintf(format, args...)
	json.NewEncoder(w).Encode(map[string]any{
		"error": map[string]any{
			"message": msg,
			"type":    errType,
		},
	})
}
