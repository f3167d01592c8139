package backend

import (
	"context"
	"net/http"

	"erp/portal/internal/model"
)

func (c *Client) ListLabs(ctx context.Context) ([]model.Lab, error) {
	var labs []model.Lab
	err := c.do(ctx, "list_labs", http.MethodGet, "/labs", nil, &labs)
	return labs, err
}

func (c *Client) CreateLab(ctx context.Context, lab model.Lab) (model.Lab, error) {
	var created model.Lab
	err := c.do(ctx, "create_lab", http.MethodPost, "/labs", lab, &created)
	return created, err
}

func (c *Client) UpdateLab(ctx context.Context, id string, lab model.Lab) (model.Lab, error) {
	var updated model.Lab
	err := c.do(ctx, "update_lab", http.MethodPut, "/labs/"+escape(id), lab, &updated)
	return updated, err
}

func (c *Client) DeleteLab(ctx context.Context, id string) error {
	return c.do(ctx, "delete_lab", http.MethodDelete, "/labs/"+escape(id), nil, nil)
}
