package api

import (
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/kalambet/adnidocs/internal/catalog"
)

// CatalogSource supplies the current curated catalog.
type CatalogSource interface {
	Catalog() (*catalog.CuratedOutput, error)
}

// FileCatalog serves a curated catalog from disk, reloading it when the
// file changes so a fresh curate run is picked up without a restart.
type FileCatalog struct {
	path string

	mu      sync.Mutex
	loaded  *catalog.CuratedOutput
	modTime time.Time
}

// NewFileCatalog creates a FileCatalog for the given curated output path.
// The file does not need to exist yet; Catalog fails until it does.
func NewFileCatalog(path string) *FileCatalog {
	return &FileCatalog{path: path}
}

// Catalog returns the catalog, reloading from disk if the file's mtime
// changed since the last load.
func (f *FileCatalog) Catalog() (*catalog.CuratedOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	info, err := os.Stat(f.path)
	if err != nil {
		return nil, fmt.Errorf("curated catalog unavailable: %w", err)
	}

	if f.loaded != nil && info.ModTime().Equal(f.modTime) {
		return f.loaded, nil
	}

	loaded, err := catalog.LoadCurated(f.path)
	if err != nil {
		return nil, err
	}
	f.loaded = loaded
	f.modTime = info.ModTime()
	return loaded, nil
}
