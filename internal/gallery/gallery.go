// Package gallery turns the backend's flat media list into albums.
package gallery

import (
	"sort"

	"erp/portal/internal/model"
)

// GroupByTitle collects items sharing a title into one album. An album's
// date is the event date of its first item. Albums come back newest first;
// albums whose date cannot be read keep their relative order at the end.
func GroupByTitle(items []model.GalleryItem) []model.Album {
	index := make(map[string]int)
	albums := make([]model.Album, 0)
	for _, item := range items {
		i, ok := index[item.Title]
		if !ok {
			i = len(albums)
			index[item.Title] = i
			albums = append(albums, model.Album{Title: item.Title, Date: item.EventDate})
		}
		albums[i].Items = append(albums[i].Items, item)
	}
	sort.SliceStable(albums, func(a, b int) bool {
		return model.NewestFirst(albums[a].Date, albums[b].Date)
	})
	return albums
}
