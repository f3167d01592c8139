package backend

import (
	"context"
	"net/http"

	"erp/portal/internal/model"
)

func (c *Client) ListInventory(ctx context.Context) ([]model.InventoryItem, error) {
	var items []model.InventoryItem
	err := c.do(ctx, "list_inventory", http.MethodGet, "/kitchen/inventory", nil, &items)
	return items, err
}

func (c *Client) AddInventory(ctx context.Context, item model.InventoryItem) (model.InventoryItem, error) {
	var created model.InventoryItem
	err := c.do(ctx, "add_inventory", http.MethodPost, "/kitchen/inventory", item, &created)
	return created, err
}

func (c *Client) ListUsage(ctx context.Context) ([]model.UsageRecord, error) {
	var records []model.UsageRecord
	err := c.do(ctx, "list_usage", http.MethodGet, "/kitchen/usage", nil, &records)
	return records, err
}

func (c *Client) RecordUsage(ctx context.Context, record model.UsageRecord) (model.UsageRecord, error) {
	var created model.UsageRecord
	err := c.do(ctx, "record_usage", http.MethodPost, "/kitchen/usage", record, &created)
	return created, err
}

func (c *Client) ListPermanentInventory(ctx context.Context) ([]model.PermanentItem, error) {
	var items []model.PermanentItem
	err := c.do(ctx, "list_permanent_inventory", http.MethodGet, "/kitchen/permanent-inventory", nil, &items)
	return items, err
}
