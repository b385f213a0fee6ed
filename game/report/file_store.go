package report

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// FileStore implements Store using one JSON file per report
type FileStore struct {
	dir string
}

// NewFileStore creates a file-backed store, creating dir if needed
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create reports directory: %w", err)
	}
	return &FileStore{dir: dir}, nil
}

// Save writes a report to <dir>/<id>.json
func (fs *FileStore) Save(_ context.Context, r *Report) error {
	if r == nil {
		return fmt.Errorf("report cannot be nil")
	}
	if r.ID == "" {
		return fmt.Errorf("report ID is required")
	}

	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal report: %w", err)
	}

	if err := os.WriteFile(fs.path(r.ID), data, 0644); err != nil {
		return fmt.Errorf("failed to write report file: %w", err)
	}
	log.Debugf("archived report %s for session %s", r.ID, r.SessionID)
	return nil
}

// Get reads one report
func (fs *FileStore) Get(_ context.Context, id string) (*Report, error) {
	data, err := os.ReadFile(fs.path(id))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrReportNotFound
		}
		return nil, fmt.Errorf("failed to read report file: %w", err)
	}

	var r Report
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("failed to unmarshal report: %w", err)
	}
	return &r, nil
}

// List reads every report in the directory. Unreadable files are skipped.
func (fs *FileStore) List(ctx context.Context) ([]*Report, error) {
	entries, err := os.ReadDir(fs.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read reports directory: %w", err)
	}

	reports := make([]*Report, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		r, err := fs.Get(ctx, strings.TrimSuffix(entry.Name(), ".json"))
		if err != nil {
			log.Warnf("skipping report %s: %v", entry.Name(), err)
			continue
		}
		reports = append(reports, r)
	}

	sortNewestFirst(reports)
	return reports, nil
}

// Delete removes a report file
func (fs *FileStore) Delete(_ context.Context, id string) error {
	if err := os.Remove(fs.path(id)); err != nil {
		if os.IsNotExist(err) {
			return ErrReportNotFound
		}
		return fmt.Errorf("failed to remove report file: %w", err)
	}
	return nil
}

func (fs *FileStore) path(id string) string {
	return filepath.Join(fs.dir, filepath.Base(id)+".json")
}
