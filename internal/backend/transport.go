package backend

import (
	"context"
	"net/http"

	"erp/portal/internal/model"
)

func (c *Client) ListRoutes(ctx context.Context) ([]model.Route, error) {
	var routes []model.Route
	err := c.do(ctx, "list_routes", http.MethodGet, "/transport/routes", nil, &routes)
	return routes, err
}

func (c *Client) CreateRoute(ctx context.Context, route model.Route) (model.Route, error) {
	var created model.Route
	err := c.do(ctx, "create_route", http.MethodPost, "/transport/routes", route, &created)
	return created, err
}
