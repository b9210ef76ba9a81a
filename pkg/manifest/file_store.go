package manifest

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
)

// FileStore persists manifests as one JSON file per job under dir, for
// environments without Mongo available.
type FileStore struct {
	dir string
}

// NewFileStore creates a FileStore rooted at dir, creating it if
// necessary.
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}
	return &FileStore{dir: dir}, nil
}

func (s *FileStore) path(jobID string) string {
	return filepath.Join(s.dir, jobID+".json")
}

// Save writes m to <dir>/<job_id>.json.
func (s *FileStore) Save(ctx context.Context, m Manifest) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(s.path(m.JobID), data, 0644)
}

// Get reads the manifest for jobID, if its file exists.
func (s *FileStore) Get(ctx context.Context, jobID string) (Manifest, bool, error) {
	data, err := os.ReadFile(s.path(jobID))
	if os.IsNotExist(err) {
		return Manifest{}, false, nil
	}
	if err != nil {
		return Manifest{}, false, err
	}
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return Manifest{}, false, err
	}
	return m, true, nil
}

// Close does nothing for a file-backed store.
func (s *FileStore) Close(ctx context.Context) error {
	return nil
}

var _ Store = (*FileStore)(nil)
