package store

import (
	"context"
	"sync"

	"tmovies/models"
)

// Memory is an in-process Store used by tests. It copies on both read
// and write so callers can't mutate durable state behind its back, and
// it can be told to fail writes to exercise error paths.
type Memory struct {
	mu    sync.Mutex
	items []models.WatchedItem

	// FailWrites, when set, is returned by every ReplaceAll call
	// without touching the stored collection.
	FailWrites error
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{}
}

// Load returns a copy of the stored collection.
func (m *Memory) Load(ctx context.Context) ([]models.WatchedItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return copyItems(m.items), nil
}

// ReplaceAll swaps the stored collection, unless FailWrites is set.
func (m *Memory) ReplaceAll(ctx context.Context, items []models.WatchedItem) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailWrites != nil {
		return m.FailWrites
	}
	m.items = copyItems(items)
	return nil
}

func copyItems(items []models.WatchedItem) []models.WatchedItem {
	out := make([]models.WatchedItem, len(items))
	copy(out, items)
	for i := range out {
		if out[i].Images != nil {
			images := make([]models.WatchedImage, len(out[i].Images))
			copy(images, out[i].Images)
			out[i].Images = images
		}
	}
	return out
}
