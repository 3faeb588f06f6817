// Package ingest batches user-selected files through the image codec and
// commits the results to a watched entry. Batches are all-or-nothing: a
// single invalid file means nothing is staged, and nothing touches the
// durable store until Commit.
package ingest

import (
	"context"
	"fmt"
	"log"

	"github.com/sourcegraph/conc/pool"

	"tmovies/internal/imaging"
	"tmovies/models"
	"tmovies/services/watched"
)

// File is one raw upload: the original name and its bytes.
type File struct {
	Name string
	Data []byte
}

// Target identifies the entry a batch attaches to, with the display
// fields needed to create it when it is not yet watched.
type Target struct {
	ID         int
	Type       models.MediaType
	Title      string
	PosterPath string
}

// Service orchestrates staging and committing image batches.
type Service struct {
	watched    *watched.Service
	codec      *imaging.Codec
	maxPerItem int
}

// NewService builds the ingestion orchestrator. maxPerItem caps how many
// images a single entry may accumulate through staging.
func NewService(watchedSvc *watched.Service, codec *imaging.Codec, maxPerItem int) *Service {
	if maxPerItem <= 0 {
		maxPerItem = 5
	}
	return &Service{
		watched:    watchedSvc,
		codec:      codec,
		maxPerItem: maxPerItem,
	}
}

// Stage processes a batch of files into attachable images. The cap is
// checked against attachedCount before any decoding starts, and any
// per-file failure rejects the whole batch. Files are staged in parallel
// since each is an independent pure transform; results keep input order.
func (s *Service) Stage(ctx context.Context, attachedCount int, files []File) ([]imaging.StagedImage, error) {
	if len(files) == 0 {
		return nil, nil
	}
	if attachedCount+len(files) > s.maxPerItem {
		return nil, fmt.Errorf("maximum %d images allowed per item", s.maxPerItem)
	}

	staged := make([]imaging.StagedImage, len(files))
	p := pool.New().WithErrors().WithContext(ctx)
	for i, f := range files {
		i, f := i, f
		p.Go(func(ctx context.Context) error {
			img, err := s.codec.Stage(f.Name, f.Data)
			if err != nil {
				return err
			}
			staged[i] = *img
			return nil
		})
	}
	if err := p.Wait(); err != nil {
		return nil, fmt.Errorf("stage image batch: %w", err)
	}
	return staged, nil
}

// Commit attaches staged images to the target entry in order. When the
// target is not yet watched it is upserted first so the attachment has
// somewhere to land. Staged batches that are never committed leave no
// durable trace.
func (s *Service) Commit(ctx context.Context, target Target, staged []imaging.StagedImage) error {
	if len(staged) == 0 {
		return nil
	}

	if !s.watched.IsWatched(target.ID, target.Type) {
		if _, err := s.watched.Upsert(ctx, target.ID, target.Type, target.Title, target.PosterPath); err != nil {
			return fmt.Errorf("create attachment target: %w", err)
		}
	}

	for _, img := range staged {
		if err := s.watched.AddImage(ctx, target.ID, target.Type, img.File, ""); err != nil {
			return fmt.Errorf("attach image %s: %w", img.Name, err)
		}
	}

	log.Printf("[ingest] attached %d images to %s:%d", len(staged), target.Type, target.ID)
	return nil
}

// Attach stages a batch and commits it in one step. The cap accounts for
// images already attached to the target.
func (s *Service) Attach(ctx context.Context, target Target, files []File) error {
	attached := 0
	if item, ok := s.watched.Get(target.ID, target.Type); ok {
		attached = len(item.Images)
	}

	staged, err := s.Stage(ctx, attached, files)
	if err != nil {
		return err
	}
	return s.Commit(ctx, target, staged)
}
