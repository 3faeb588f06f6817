// Package store provides durable access to the watched-list collection.
// Every backend exposes the same single-slot contract: the entire
// collection is read and replaced as one unit, there is no per-record
// addressing.
package store

import (
	"context"

	"tmovies/models"
)

// SlotName identifies the single slot holding the serialized collection.
const SlotName = "watched_list"

// Store is the durable home of the watched list.
//
// Load never fails on a corrupt payload: backends log the decode error
// and return an empty collection so the application can keep running.
// ReplaceAll leaves the durable state untouched when it returns an
// error; callers must not update in-memory projections on that path.
type Store interface {
	Load(ctx context.Context) ([]models.WatchedItem, error)
	ReplaceAll(ctx context.Context, items []models.WatchedItem) error
}
