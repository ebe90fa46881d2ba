package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/kalambet/adnidocs/internal/catalog"
	"github.com/kalambet/adnidocs/internal/curate"
)

type stubCatalog struct {
	cat *catalog.CuratedOutput
	err error
}

func (s *stubCatalog) Catalog() (*catalog.CuratedOutput, error) {
	return s.cat, s.err
}

func testCuratedOutput() *catalog.CuratedOutput {
	return &catalog.CuratedOutput{
		Metadata: catalog.CuratedMetadata{
			TotalDocuments:         4,
			OrganizedDocuments:     2,
			SkippedDocuments:       1,
			UncategorizedDocuments: 1,
			Source:                 "ADNI website structure",
			StructureVersion:       "documentation_page_v1",
		},
		DocumentsByCategory: map[string]map[string][]catalog.DocumentRecord{
			"MRI Protocols": {
				"ADNI 3": {
					{URL: "https://example.org/adni3-mri.pdf", Title: "ADNI 3 MRI Protocol", FileExtension: "pdf", Type: "document"},
				},
			},
			"Consent Forms": {
				"Templates": {
					{URL: "https://example.org/consent.pdf", Title: "Consent Template", FileExtension: "pdf", Type: "document"},
				},
			},
		},
		Uncategorized: catalog.DocumentList{
			Documents: []catalog.DocumentRecord{
				{URL: "https://example.org/misc.pdf", Title: "Misc", FileExtension: "pdf", Type: "document"},
			},
			Count: 1,
		},
		Skipped: catalog.DocumentList{
			Documents: []catalog.DocumentRecord{
				{URL: "https://example.org/meeting_notes.pdf", Title: "Meeting Notes", FileExtension: "pdf", Type: "document"},
			},
			Count:  1,
			Reason: "Meeting notes and other non-document content",
		},
	}
}

func newTestHandler(t *testing.T, deps AppDeps) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(NewCatalogHandler(deps))
	t.Cleanup(srv.Close)
	return srv
}

func decodeBody(t *testing.T, resp *http.Response, v any) {
	t.Helper()
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
}

func TestHealth(t *testing.T) {
	srv := newTestHandler(t, AppDeps{Catalog: &stubCatalog{cat: testCuratedOutput()}})

	resp, err := http.Get(srv.URL + "/health")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want 200", resp.StatusCode)
	}
	var body map[string]string
	decodeBody(t, resp, &body)
	if body["status"] != "ok" {
		t.Errorf("status field = %q", body["status"])
	}
}

func TestGetCatalog(t *testing.T) {
	srv := newTestHandler(t, AppDeps{Catalog: &stubCatalog{cat: testCuratedOutput()}})

	resp, err := http.Get(srv.URL + "/catalog")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	var body catalog.CuratedOutput
	decodeBody(t, resp, &body)
	if body.Metadata.TotalDocuments != 4 {
		t.Errorf("total_documents = %d, want 4", body.Metadata.TotalDocuments)
	}
	if len(body.DocumentsByCategory) != 2 {
		t.Errorf("got %d categories, want 2", len(body.DocumentsByCategory))
	}
}

func TestGetCatalog_Unavailable(t *testing.T) {
	srv := newTestHandler(t, AppDeps{Catalog: &stubCatalog{err: os.ErrNotExist}})

	resp, err := http.Get(srv.URL + "/catalog")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", resp.StatusCode)
	}
	var body struct {
		Error struct {
			Message string `json:"message"`
			Type    string `json:"type"`
		} `json:"error"`
	}
	decodeBody(t, resp, &body)
	if body.Error.Type != "catalog_error" {
		t.Errorf("error type = %q", body.Error.Type)
	}
}

func TestListCategories(t *testing.T) {
	srv := newTestHandler(t, AppDeps{Catalog: &stubCatalog{cat: testCuratedOutput()}})

	resp, err := http.Get(srv.URL + "/categories")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	var body struct {
		Categories []struct {
			Name          string         `json:"name"`
			DocumentCount int            `json:"document_count"`
			Subcategories map[string]int `json:"subcategories"`
		} `json:"categories"`
		Uncategorized int `json:"uncategorized"`
		Skipped       int `json:"skipped"`
	}
	decodeBody(t, resp, &body)

	if len(body.Categories) != 2 {
		t.Fatalf("got %d categories, want 2", len(body.Categories))
	}
	// CategoryNames sorts case-insensitively.
	if body.Categories[0].Name != "Consent Forms" {
		t.Errorf("first category = %q, want Consent Forms", body.Categories[0].Name)
	}
	if body.Categories[1].DocumentCount != 1 {
		t.Errorf("MRI Protocols count = %d, want 1", body.Categories[1].DocumentCount)
	}
	if body.Uncategorized != 1 || body.Skipped != 1 {
		t.Errorf("uncategorized = %d, skipped = %d, want 1, 1", body.Uncategorized, body.Skipped)
	}
}

func TestGetCategory(t *testing.T) {
	srv := newTestHandler(t, AppDeps{Catalog: &stubCatalog{cat: testCuratedOutput()}})

	resp, err := http.Get(srv.URL + "/categories/MRI%20Protocols")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	var body struct {
		Category  string                              `json:"category"`
		Documents map[string][]catalog.DocumentRecord `json:"documents"`
	}
	decodeBody(t, resp, &body)
	if body.Category != "MRI Protocols" {
		t.Errorf("category = %q", body.Category)
	}
	if len(body.Documents["ADNI 3"]) != 1 {
		t.Errorf("ADNI 3 documents = %d, want 1", len(body.Documents["ADNI 3"]))
	}
}

func TestGetCategory_NotFound(t *testing.T) {
	srv := newTestHandler(t, AppDeps{Catalog: &stubCatalog{cat: testCuratedOutput()}})

	resp, err := http.Get(srv.URL + "/categories/Nope")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want 404", resp.StatusCode)
	}
}

func TestSearchDocuments(t *testing.T) {
	srv := newTestHandler(t, AppDeps{Catalog: &stubCatalog{cat: testCuratedOutput()}})

	resp, err := http.Get(srv.URL + "/documents?q=mri")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	var body struct {
		Results []catalog.SearchResult `json:"results"`
		Count   int                    `json:"count"`
	}
	decodeBody(t, resp, &body)
	if body.Count != 1 {
		t.Fatalf("count = %d, want 1", body.Count)
	}
	if body.Results[0].Document.Title != "ADNI 3 MRI Protocol" {
		t.Errorf("result title = %q", body.Results[0].Document.Title)
	}
	if body.Results[0].Category != "MRI Protocols" {
		t.Errorf("result category = %q", body.Results[0].Category)
	}
}

func TestSearchDocuments_NoMatches(t *testing.T) {
	srv := newTestHandler(t, AppDeps{Catalog: &stubCatalog{cat: testCuratedOutput()}})

	resp, err := http.Get(srv.URL + "/documents?q=zzzz")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var body struct {
		Results []catalog.SearchResult `json:"results"`
		Count   int                    `json:"count"`
	}
	decodeBody(t, resp, &body)
	if body.Count != 0 || body.Results == nil {
		t.Errorf("want empty non-nil results, got count=%d results=%v", body.Count, body.Results)
	}
}

func TestSearchDocuments_InvalidLimit(t *testing.T) {
	srv := newTestHandler(t, AppDeps{Catalog: &stubCatalog{cat: testCuratedOutput()}})

	resp, err := http.Get(srv.URL + "/documents?q=mri&limit=zero")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", resp.StatusCode)
	}
}

func TestCurateEndpoint(t *testing.T) {
	dir := t.TempDir()
	inputPath := filepath.Join(dir, "raw.json")
	outputPath := filepath.Join(dir, "curated.json")

	raw := &catalog.RawOutput{
		Metadata: catalog.RawMetadata{TotalLinks: 2, DocumentsCount: 2},
		Documents: []catalog.DocumentRecord{
			{URL: "https://example.org/mri-protocol.pdf", Title: "MRI Protocol ADNI3", FileExtension: "pdf", Type: "document"},
			{URL: "https://example.org/misc.pdf", Title: "Misc", FileExtension: "pdf", Type: "document"},
		},
	}
	if err := catalog.SaveRaw(inputPath, raw); err != nil {
		t.Fatalf("saving raw fixture: %v", err)
	}

	srv := newTestHandler(t, AppDeps{
		Catalog:           &stubCatalog{cat: testCuratedOutput()},
		Curator:           curate.New(),
		RawInputPath:      inputPath,
		CuratedOutputPath: outputPath,
	})

	resp, err := http.Post(srv.URL+"/curate", "application/json", bytes.NewReader(nil))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	var body struct {
		Metadata   catalog.CuratedMetadata `json:"metadata"`
		OutputPath string                  `json:"output_path"`
	}
	decodeBody(t, resp, &body)
	if body.Metadata.TotalDocuments != 2 {
		t.Errorf("total_documents = %d, want 2", body.Metadata.TotalDocuments)
	}
	if body.OutputPath != outputPath {
		t.Errorf("output_path = %q, want %q", body.OutputPath, outputPath)
	}

	if _, err := catalog.LoadCurated(outputPath); err != nil {
		t.Errorf("curated output not written: %v", err)
	}
}

func TestCurateEndpoint_MissingInput(t *testing.T) {
	srv := newTestHandler(t, AppDeps{
		Catalog:      &stubCatalog{cat: testCuratedOutput()},
		Curator:      curate.New(),
		RawInputPath: filepath.Join(t.TempDir(), "does-not-exist.json"),
	})

	resp, err := http.Post(srv.URL+"/curate", "application/json", bytes.NewReader(nil))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", resp.StatusCode)
	}
}

func TestCurateEndpoint_ValidationError(t *testing.T) {
	dir := t.TempDir()
	inputPath := filepath.Join(dir, "raw.json")

	raw := &catalog.RawOutput{
		Documents: []catalog.DocumentRecord{
			{URL: "", Title: "No URL", FileExtension: "pdf", Type: "document"},
		},
	}
	if err := catalog.SaveRaw(inputPath, raw); err != nil {
		t.Fatalf("saving raw fixture: %v", err)
	}

	srv := newTestHandler(t, AppDeps{
		Catalog:           &stubCatalog{cat: testCuratedOutput()},
		Curator:           curate.New(),
		RawInputPath:      inputPath,
		CuratedOutputPath: filepath.Join(dir, "curated.json"),
	})

	resp, err := http.Post(srv.URL+"/curate", "application/json", bytes.NewReader(nil))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want 422", resp.StatusCode)
	}
	var body struct {
		Error struct {
			Type string `json:"type"`
		} `json:"error"`
	}
	decodeBody(t, resp, &body)
	if body.Error.Type != "validation_error" {
		t.Errorf("error type = %q", body.Error.Type)
	}
}

func TestBearerAuth(t *testing.T) {
	srv := newTestHandler(t, AppDeps{
		Catalog: &stubCatalog{cat: testCuratedOutput()},
		Token:   "secret-token",
	})

	resp, err := http.Get(srv.URL + "/catalog")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("no token: status = %d, want 401", resp.StatusCode)
	}

	req, _ := http.NewRequest(http.MethodGet, srv.URL+"/catalog", nil)
	req.Header.Set("Authorization", "Bearer wrong")
	resp, err = http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("wrong token: status = %d, want 401", resp.StatusCode)
	}

	req, _ = http.NewRequest(http.MethodGet, srv.URL+"/catalog", nil)
	req.Header.Set("Authorization", "Bearer secret-token")
	resp, err = http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("valid token: status = %d, want 200", resp.StatusCode)
	}
}

func TestFileCatalog_Reloads(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "curated.json")

	fc := NewFileCatalog(path)
	if _, err := fc.Catalog(); err == nil {
		t.Fatal("expected error before the file exists")
	}

	first := testCuratedOutput()
	if err := catalog.SaveCurated(path, first); err != nil {
		t.Fatalf("saving catalog: %v", err)
	}
	got, err := fc.Catalog()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Metadata.TotalDocuments != 4 {
		t.Errorf("total_documents = %d, want 4", got.Metadata.TotalDocuments)
	}

	second := testCuratedOutput()
	second.Metadata.TotalDocuments = 9
	if err := catalog.SaveCurated(path, second); err != nil {
		t.Fatalf("saving catalog: %v", err)
	}
	// mtime can have coarse granularity; force a visible change.
	bumped := time.Now().Add(2 * time.Second)
	if err := os.Chtimes(path, bumped, bumped); err != nil {
		t.Fatalf("bumping mtime: %v", err)
	}

	got, err = fc.Catalog()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Metadata.TotalDocuments != 9 {
		t.Errorf("total_documents = %d after rewrite, want 9", got.Metadata.TotalDocuments)
	}
}
