package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// entry is the on-disk record. The prompt is stored alongside the response
// so cache files stay inspectable when debugging oracle behaviour.
type entry struct {
	Prompt    string    `json:"prompt"`
	Response  string    `json:"response"`
	Timestamp time.Time `json:"timestamp"`
}

// FileStore keeps one JSON file per prompt under a directory.
type FileStore struct {
	dir string
}

// NewFileStore creates the cache directory if needed.
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create cache dir: %w", err)
	}
	return &FileStore{dir: dir}, nil
}

func (s *FileStore) path(prompt string) string {
	return filepath.Join(s.dir, Key(prompt)+".json")
}

func (s *FileStore) Get(_ context.Context, prompt string) (string, error) {
	raw, err := os.ReadFile(s.path(prompt))
	if os.IsNotExist(err) {
		return "", ErrMiss
	}
	if err != nil {
		return "", fmt.Errorf("read cache entry: %w", err)
	}
	var e entry
	if err := json.Unmarshal(raw, &e); err != nil {
		// A corrupt entry is treated as absent; the caller regenerates
		// and Set overwrites it.
		return "", ErrMiss
	}
	return e.Response, nil
}

func (s *FileStore) Set(_ context.Context, prompt, response string) error {
	e := entry{Prompt: prompt, Response: response, Timestamp: time.Now().UTC()}
	raw, err := json.MarshalIndent(e, "", "  ")
	if err != nil {
		return fmt.Errorf("encode cache entry: %w", err)
	}
	tmp := s.path(prompt) + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o644); err != nil {
		return fmt.Errorf("write cache entry: %w", err)
	}
	return os.Rename(tmp, s.path(prompt))
}
