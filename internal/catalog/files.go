package catalog

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// LoadRaw reads a crawl stage output file. Missing or unreadable files
// surface as the underlying I/O error; malformed JSON wraps ErrParse.
func LoadRaw(path string) (*RawOutput, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading raw output %s: %w", path, err)
	}

	var raw RawOutput
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrParse, path, err)
	}
	return &raw, nil
}

// SaveRaw writes a crawl stage output file, creating parent directories
// as needed.
func SaveRaw(path string, raw *RawOutput) error {
	return writeJSON(path, raw)
}

// LoadCurated reads a curated catalog file.
func LoadCurated(path string) (*CuratedOutput, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading curated catalog %s: %w", path, err)
	}

	var curated CuratedOutput
	if err := json.Unmarshal(data, &curated); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrParse, path, err)
	}
	return &curated, nil
}

// SaveCurated writes a curated catalog file.
func SaveCurated(path string, curated *CuratedOutput) error {
	return writeJSON(path, curated)
}

func writeJSON(path string, v any) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating output directory: %w", err)
		}
	}

	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshalling %s: %w", path, err)
	}
	data = append(data, '\n')

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}
