package backend

import (
	"context"
	"net/http"

	"erp/portal/internal/model"
)

func (c *Client) ListGallery(ctx context.Context) ([]model.GalleryItem, error) {
	var items []model.GalleryItem
	err := c.do(ctx, "list_gallery", http.MethodGet, "/gallery", nil, &items)
	return items, err
}

// UploadGallery posts one or more media files under a shared album title and
// event date.
func (c *Client) UploadGallery(ctx context.Context, title, eventDate string, files []Upload) ([]model.GalleryItem, error) {
	for i := range files {
		files[i].Field = "files"
	}
	var items []model.GalleryItem
	err := c.doMultipart(ctx, "upload_gallery", "/gallery/upload", Form{
		Fields: map[string]string{"title": title, "event_date": eventDate},
		Files:  files,
	}, &items)
	return items, err
}

func (c *Client) DeleteGalleryItem(ctx context.Context, id string) error {
	return c.do(ctx, "delete_gallery", http.MethodDelete, "/gallery/"+escape(id), nil, nil)
}
