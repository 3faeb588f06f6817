// Package watched is the mutation surface for the user's watched
// history. Every mutation runs as durable read, pure transform, durable
// write, then a cache refresh that re-reads the affected entry from the
// store rather than trusting the locally computed value.
package watched

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"tmovies/internal/store"
	"tmovies/models"
)

// Service coordinates mutations against the durable store and keeps the
// in-memory projection consistent with what was actually written.
type Service struct {
	store store.Store
	cache *Cache

	// mu serializes mutations so each read-modify-write completes
	// before the next begins.
	mu sync.Mutex

	now   func() time.Time
	newID func() string
}

// NewService builds the service and projects the durable collection into
// the cache.
func NewService(ctx context.Context, st store.Store) (*Service, error) {
	items, err := st.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load watched list: %w", err)
	}

	s := &Service{
		store: st,
		cache: NewCache(),
		now:   time.Now,
		newID: uuid.NewString,
	}
	s.cache.Rebuild(items)
	return s, nil
}

// All returns every watched entry in durable order.
func (s *Service) All() []models.WatchedItem {
	return s.cache.All()
}

// Get looks up a single entry by composite key.
func (s *Service) Get(id int, mediaType models.MediaType) (models.WatchedItem, bool) {
	return s.cache.Get(models.WatchedKey{ID: id, Type: mediaType})
}

// IsWatched reports whether an entry exists for the key.
func (s *Service) IsWatched(id int, mediaType models.MediaType) bool {
	return s.cache.IsWatched(models.WatchedKey{ID: id, Type: mediaType})
}

// Upsert marks a title as watched. Re-marking an existing entry merges
// the display fields and preserves review, rating, images, and the
// original watch date.
func (s *Service) Upsert(ctx context.Context, id int, mediaType models.MediaType, title, posterPath string) (models.WatchedItem, error) {
	if !mediaType.Valid() {
		return models.WatchedItem{}, models.ErrInvalidMediaType
	}
	key := models.WatchedKey{ID: id, Type: mediaType}

	s.mu.Lock()
	defer s.mu.Unlock()

	items, err := s.store.Load(ctx)
	if err != nil {
		return models.WatchedItem{}, fmt.Errorf("load watched list: %w", err)
	}
	items = upsertItem(items, key, title, posterPath, s.now())
	if err := s.store.ReplaceAll(ctx, items); err != nil {
		return models.WatchedItem{}, fmt.Errorf("save watched list: %w", err)
	}

	if err := s.refresh(ctx, key); err != nil {
		return models.WatchedItem{}, err
	}
	item, _ := s.cache.Get(key)
	return item, nil
}

// Remove deletes an entry. Removing an absent key is a no-op.
func (s *Service) Remove(ctx context.Context, id int, mediaType models.MediaType) error {
	key := models.WatchedKey{ID: id, Type: mediaType}

	s.mu.Lock()
	defer s.mu.Unlock()

	items, err := s.store.Load(ctx)
	if err != nil {
		return fmt.Errorf("load watched list: %w", err)
	}
	items, changed := removeItem(items, key)
	if !changed {
		return nil
	}
	if err := s.store.ReplaceAll(ctx, items); err != nil {
		return fmt.Errorf("save watched list: %w", err)
	}

	s.cache.Remove(key)
	return nil
}

// SetReview overwrites the review text. Absent keys are a no-op; callers
// must upsert first if they want the review to stick.
func (s *Service) SetReview(ctx context.Context, id int, mediaType models.MediaType, text string) error {
	if err := models.ValidateReview(text); err != nil {
		return err
	}
	return s.mutate(ctx, models.WatchedKey{ID: id, Type: mediaType}, func(items []models.WatchedItem, key models.WatchedKey) ([]models.WatchedItem, bool) {
		return setReview(items, key, text)
	})
}

// SetRating overwrites the rating. Absent keys are a no-op.
func (s *Service) SetRating(ctx context.Context, id int, mediaType models.MediaType, rating int) error {
	if err := models.ValidateRating(rating); err != nil {
		return err
	}
	return s.mutate(ctx, models.WatchedKey{ID: id, Type: mediaType}, func(items []models.WatchedItem, key models.WatchedKey) ([]models.WatchedItem, bool) {
		return setRating(items, key, rating)
	})
}

// AddImage appends an already-staged image payload to the entry's
// collection. Absent keys are a no-op.
func (s *Service) AddImage(ctx context.Context, id int, mediaType models.MediaType, file, caption string) error {
	img := models.WatchedImage{
		ID:        s.newID(),
		File:      file,
		Caption:   caption,
		DateAdded: s.now(),
	}
	return s.mutate(ctx, models.WatchedKey{ID: id, Type: mediaType}, func(items []models.WatchedItem, key models.WatchedKey) ([]models.WatchedItem, bool) {
		return addImage(items, key, img)
	})
}

// RemoveImage removes an attached image by id. Removing an absent image
// or key is a no-op.
func (s *Service) RemoveImage(ctx context.Context, id int, mediaType models.MediaType, imageID string) error {
	return s.mutate(ctx, models.WatchedKey{ID: id, Type: mediaType}, func(items []models.WatchedItem, key models.WatchedKey) ([]models.WatchedItem, bool) {
		return removeImage(items, key, imageID)
	})
}

// mutate runs one serialized read-transform-write cycle. When the
// transform reports no change the write is skipped entirely; when the
// write fails the cache is left at its pre-mutation value.
func (s *Service) mutate(ctx context.Context, key models.WatchedKey, transform func([]models.WatchedItem, models.WatchedKey) ([]models.WatchedItem, bool)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	items, err := s.store.Load(ctx)
	if err != nil {
		return fmt.Errorf("load watched list: %w", err)
	}
	items, changed := transform(items, key)
	if !changed {
		return nil
	}
	if err := s.store.ReplaceAll(ctx, items); err != nil {
		return fmt.Errorf("save watched list: %w", err)
	}
	return s.refresh(ctx, key)
}

// refresh replaces the cache entry for key with what the durable store
// actually holds after the write.
func (s *Service) refresh(ctx context.Context, key models.WatchedKey) error {
	items, err := s.store.Load(ctx)
	if err != nil {
		return fmt.Errorf("refresh watched item: %w", err)
	}
	for _, item := range items {
		if item.Key() == key {
			s.cache.Replace(item)
			return nil
		}
	}
	s.cache.Remove(key)
	return nil
}
