package store

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/spf13/afero"

	"tmovies/models"
)

// FileStore keeps the collection as a single JSON file in the data
// directory. Replacement goes through a temp file and a rename so a
// reader never observes a torn payload.
type FileStore struct {
	fs   afero.Fs
	path string
}

// NewFileStore creates a file-backed store under dataDir on the OS
// filesystem.
func NewFileStore(dataDir string) *FileStore {
	return NewFileStoreWithFs(afero.NewOsFs(), dataDir)
}

// NewFileStoreWithFs creates a file-backed store over an explicit
// filesystem.
func NewFileStoreWithFs(fs afero.Fs, dataDir string) *FileStore {
	return &FileStore{
		fs:   fs,
		path: filepath.Join(dataDir, SlotName+".json"),
	}
}

// Load reads the whole collection. A missing file is an empty list; a
// corrupt file is logged and treated as empty.
func (s *FileStore) Load(ctx context.Context) ([]models.WatchedItem, error) {
	data, err := afero.ReadFile(s.fs, s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return []models.WatchedItem{}, nil
		}
		return nil, fmt.Errorf("read watched list: %w", err)
	}

	var items []models.WatchedItem
	if err := json.Unmarshal(data, &items); err != nil {
		log.Printf("[store] failed to decode watched list, starting empty: %v", err)
		return []models.WatchedItem{}, nil
	}
	if items == nil {
		items = []models.WatchedItem{}
	}
	return items, nil
}

// ReplaceAll swaps the entire collection. On error the previous file is
// left in place.
func (s *FileStore) ReplaceAll(ctx context.Context, items []models.WatchedItem) error {
	if items == nil {
		items = []models.WatchedItem{}
	}
	data, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("encode watched list: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := s.fs.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create data directory: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := afero.WriteFile(s.fs, tmp, data, 0644); err != nil {
		return fmt.Errorf("write watched list: %w", err)
	}
	if err := s.fs.Rename(tmp, s.path); err != nil {
		s.fs.Remove(tmp)
		return fmt.Errorf("replace watched list: %w", err)
	}
	return nil
}
