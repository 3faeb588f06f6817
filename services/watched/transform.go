package watched

import (
	"time"

	"tmovies/models"
)

// The functions in this file are pure: they take the collection loaded
// from the durable store plus a command's arguments and return the new
// collection. Persisting and re-projecting is the service's job.

func findIndex(items []models.WatchedItem, key models.WatchedKey) int {
	for i := range items {
		if items[i].Key() == key {
			return i
		}
	}
	return -1
}

// upsertItem merges display fields into an existing record or appends a
// new one. Review, rating, images, and the original watch date survive a
// re-add; only title and poster are refreshed.
func upsertItem(items []models.WatchedItem, key models.WatchedKey, title, posterPath string, now time.Time) []models.WatchedItem {
	if i := findIndex(items, key); i >= 0 {
		items[i].Title = title
		items[i].PosterPath = posterPath
		return items
	}
	return append(items, models.WatchedItem{
		ID:          key.ID,
		Type:        key.Type,
		Title:       title,
		PosterPath:  posterPath,
		DateWatched: now,
		Images:      []models.WatchedImage{},
	})
}

func removeItem(items []models.WatchedItem, key models.WatchedKey) ([]models.WatchedItem, bool) {
	i := findIndex(items, key)
	if i < 0 {
		return items, false
	}
	return append(items[:i], items[i+1:]...), true
}

func setReview(items []models.WatchedItem, key models.WatchedKey, text string) ([]models.WatchedItem, bool) {
	i := findIndex(items, key)
	if i < 0 {
		return items, false
	}
	items[i].Review = text
	return items, true
}

func setRating(items []models.WatchedItem, key models.WatchedKey, rating int) ([]models.WatchedItem, bool) {
	i := findIndex(items, key)
	if i < 0 {
		return items, false
	}
	items[i].Rating = rating
	return items, true
}

func addImage(items []models.WatchedItem, key models.WatchedKey, img models.WatchedImage) ([]models.WatchedItem, bool) {
	i := findIndex(items, key)
	if i < 0 {
		return items, false
	}
	items[i].Images = append(items[i].Images, img)
	return items, true
}

func removeImage(items []models.WatchedItem, key models.WatchedKey, imageID string) ([]models.WatchedItem, bool) {
	i := findIndex(items, key)
	if i < 0 {
		return items, false
	}
	for j := range items[i].Images {
		if items[i].Images[j].ID == imageID {
			items[i].Images = append(items[i].Images[:j], items[i].Images[j+1:]...)
			return items, true
		}
	}
	return items, false
}
