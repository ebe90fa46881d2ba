// Package storage persists extracted PDF text and crawl run history in a
// local SQLite database.
package storage

import (
	"database/sql"
	"embed"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Store wraps a SQLite database holding the PDF text cache and crawl run
// history.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) a SQLite database in dataDir and runs pending
// migrations. Pass ":memory:" as dataDir for an in-memory database (used
// by tests).
func Open(dataDir string) (*Store, error) {
	var dsn string
	if dataDir == ":memory:" {
		dsn = ":memory:"
	} else {
		if err := os.MkdirAll(dataDir, 0o755); err != nil {
			return nil, fmt.Errorf("creating data directory: %w", err)
		}
		dsn = filepath.Join(dataDir, "adnidocs.db")
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	// Limit to single connection to avoid "database is locked" errors.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting busy timeout: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting journal mode: %w", err)
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate reads embedded SQL migration files and applies any that haven't
// been run yet.
func (s *Store) migrate() error {
	if _, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS schema_version (
		version INTEGER PRIMARY KEY,
		applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
	)`); err != nil {
		return fmt.Errorf("creating schema_version table: %w", err)
	}

	entries, err := migrationsFS.ReadDir("migrations")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Name() < entries[j].Name()
	})

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".sql") {
			continue
		}

		version, err := parseMigrationVersion(entry.Name())
		if err != nil {
			return err
		}

		var exists int
		if err := s.db.QueryRow("SELECT COUNT(*) FROM schema_version WHERE version = ?", version).Scan(&exists); err != nil {
			return fmt.Errorf("checking migration %d: %w", version, err)
		}
		if exists > 0 {
			continue
		}

		content, err := migrationsFS.ReadFile("migrations/" + entry.Name())
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", entry.Name(), err)
		}

		tx, err := s.db.Begin()
		if err != nil {
			return fmt.Errorf("beginning transaction for migration %d: %w", version, err)
		}
		if _, err := tx.Exec(string(content)); err != nil {
			tx.Rollback()
			return fmt.Errorf("applying migration %d: %w", version, err)
		}
		if _, err := tx.Exec("INSERT INTO schema_version (version) VALUES (?)", version); err != nil {
			tx.Rollback()
			return fmt.Errorf("recording migration %d: %w", version, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("committing migration %d: %w", version, err)
		}
	}

	return nil
}

func parseMigrationVersion(filename string) (int, error) {
	var version int
	if _, err := fmt.Sscanf(filename, "%d_", &version); err != nil {
		return 0, fmt.Errorf("parsing migration version from %q: %w", filename, err)
	}
	return version, nil
}

// --- PDF cache ---

// SavePDFText stores (or replaces) the extracted text for a document URL.
func (s *Store) SavePDFText(p PDFText) error {
	_, err := s.db.Exec(`
		INSERT INTO pdf_cache (url_hash, url, title, content, pages, pages_extracted, fetched_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(url_hash) DO UPDATE SET
			url = excluded.url, title = excluded.title, content = excluded.content,
			pages = excluded.pages, pages_extracted = excluded.pages_extracted,
			fetched_at = excluded.fetched_at`,
		p.URLHash, p.URL, p.Title, p.Content, p.Pages, p.PagesExtracted,
		p.FetchedAt.UTC().Format(time.RFC3339),
	)
	return err
}

// GetPDFText looks up cached text by URL hash. Returns ErrNotFound on a
// cache miss.
func (s *Store) GetPDFText(urlHash string) (PDFText, error) {
	var p PDFText
	var fetchedAt string
	err := s.db.QueryRow(`
		SELECT url_hash, url, title, content, pages, pages_extracted, fetched_at
		FROM pdf_cache WHERE url_hash = ?`, urlHash,
	).Scan(&p.URLHash, &p.URL, &p.Title, &p.Content, &p.Pages, &p.PagesExtracted, &fetchedAt)
	if err == sql.ErrNoRows {
		return PDFText{}, ErrNotFound
	}
	if err != nil {
		return PDFText{}, err
	}
	t, err := time.Parse(time.RFC3339, fetchedAt)
	if err != nil {
		return PDFText{}, fmt.Errorf("parsing fetched_at: %w", err)
	}
	p.FetchedAt = t
	return p, nil
}

// --- Crawl runs ---

// RecordCrawlRun appends a completed crawl run to the history.
func (s *Store) RecordCrawlRun(r CrawlRun) error {
	_, err := s.db.Exec(`
		INSERT INTO crawl_runs (id, started_at, finished_at, total_links, documents_count, pages_count, publications_filtered, source)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.StartedAt.UTC().Format(time.RFC3339), r.FinishedAt.UTC().Format(time.RFC3339),
		r.TotalLinks, r.DocumentsCount, r.PagesCount, r.PublicationsFiltered, r.Source,
	)
	return err
}

// ListCrawlRuns returns the most recent crawl runs, newest first.
func (s *Store) ListCrawlRuns(limit int) ([]CrawlRun, error) {
	rows, err := s.db.Query(`
		SELECT id, started_at, finished_at, total_links, documents_count, pages_count, publications_filtered, source
		FROM crawl_runs ORDER BY started_at DESC LIMIT ?`, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []CrawlRun
	for rows.Next() {
		var r CrawlRun
		var startedAt, finishedAt string
		if err := rows.Scan(&r.ID, &startedAt, &finishedAt, &r.TotalLinks, &r.DocumentsCount, &r.PagesCount, &r.PublicationsFiltered, &r.Source); err != nil {
			return nil, err
		}
		if r.StartedAt, err = time.Parse(time.RFC3339, startedAt); err != nil {
			return nil, fmt.Errorf("parsing started_at: %w", err)
		}
		if r.FinishedAt, err = time.Parse(time.RFC3339, finishedAt); err != nil {
			return nil, fmt.Errorf("parsing finished_at: %w", err)
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}
