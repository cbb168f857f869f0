package storage

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/lehigh-university-libraries/pdf-renamer/internal/models"
)

// ResultStore persists extraction records as one JSON object keyed by source
// filename. Every Upsert rewrites the whole file through a temp file and a rename,
// so the file on disk is always either the old or the new complete document.
type ResultStore struct {
	path    string
	records map[string]models.ExtractionRecord
	mu      sync.RWMutex
}

// Open loads the store at path. A missing file is an empty store; a file that is
// not a JSON object or array of records is a configuration error.
func Open(path string) (*ResultStore, error) {
	records, err := readFile(path)
	if err != nil {
		return nil, err
	}
	return &ResultStore{path: path, records: records}, nil
}

// ReadRecords returns the records stored at path sorted by source filename.
// Unlike Open, a missing file is an error.
func ReadRecords(path string) ([]models.ExtractionRecord, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, models.NewError(models.KindConfiguration, "read results", err)
	}
	store, err := Open(path)
	if err != nil {
		return nil, err
	}
	return store.Records(), nil
}

// Path returns the location of the results file
func (s *ResultStore) Path() string {
	return s.path
}

// Load returns a copy of every stored record
func (s *ResultStore) Load() map[string]models.ExtractionRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make(map[string]models.ExtractionRecord, len(s.records))
	for k, v := range s.records {
		result[k] = v
	}
	return result
}

// Records returns every stored record sorted by source filename
func (s *ResultStore) Records() []models.ExtractionRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return sorted(s.records)
}

// Get returns the record for a source filename
func (s *ResultStore) Get(sourceFilename string) (models.ExtractionRecord, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.records[sourceFilename]
	return rec, ok
}

// ContainsSuccess reports whether a non-error record exists for sourceFilename
func (s *ResultStore) ContainsSuccess(sourceFilename string) bool {
	rec, ok := s.Get(sourceFilename)
	return ok && !rec.Failed()
}

// IsOutput reports whether filename is the copy written for another source file
func (s *ResultStore) IsOutput(filename string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, rec := range s.records {
		if rec.Copied && rec.OutputFilename == filename && rec.SourceFilename != filename {
			return true
		}
	}
	return false
}

// Upsert replaces the record for rec.SourceFilename and durably rewrites the file.
// The in-memory view only changes once the write succeeds.
func (s *ResultStore) Upsert(rec models.ExtractionRecord) error {
	if rec.SourceFilename == "" {
		return models.NewError(models.KindFilesystem, "write results", errors.New("record has no source filename"))
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	next := make(map[string]models.ExtractionRecord, len(s.records)+1)
	for k, v := range s.records {
		next[k] = v
	}
	next[rec.SourceFilename] = rec

	if err := writeFile(s.path, next); err != nil {
		return models.NewError(models.KindFilesystem, "write results", err)
	}
	s.records = next
	return nil
}

func readFile(path string) (map[string]models.ExtractionRecord, error) {
	records := make(map[string]models.ExtractionRecord)

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return records, nil
	}
	if err != nil {
		return nil, models.NewError(models.KindFilesystem, "read results", err)
	}

	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return records, nil
	}

	// Older runs wrote a plain array of records.
	if data[0] == '[' {
		list, err := decodeLegacy(data)
		if err != nil {
			return nil, models.Configf("results file %s is not valid JSON: %w", path, err)
		}
		for _, rec := range list {
			if rec.SourceFilename != "" {
				records[rec.SourceFilename] = rec
			}
		}
		return records, nil
	}

	if err := json.Unmarshal(data, &records); err != nil {
		return nil, models.Configf("results file %s is not valid JSON: %w", path, err)
	}
	for name, rec := range records {
		if rec.SourceFilename == "" {
			rec.SourceFilename = name
			records[name] = rec
		}
	}
	return records, nil
}

func writeFile(path string, records map[string]models.ExtractionRecord) error {
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode results: %w", err)
	}
	data = append(data, '\n')

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create results directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Chmod(tmpPath, 0o644); err != nil {
		return fmt.Errorf("failed to set permissions: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("failed to replace %s: %w", path, err)
	}
	return nil
}

func sorted(records map[string]models.ExtractionRecord) []models.ExtractionRecord {
	keys := make([]string, 0, len(records))
	for k := range records {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	result := make([]models.ExtractionRecord, 0, len(keys))
	for _, k := range keys {
		result = append(result, records[k])
	}
	return result
}
