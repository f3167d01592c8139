// Package kitchen assembles the kitchen screen: stock, usage log and
// permanent inventory, fetched together.
package kitchen

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"

	"erp/portal/internal/model"
)

// ErrLoad is returned for any failed part of the kitchen load.
var ErrLoad = errors.New("failed to load kitchen data")

type Source interface {
	ListInventory(ctx context.Context) ([]model.InventoryItem, error)
	ListUsage(ctx context.Context) ([]model.UsageRecord, error)
	ListPermanentInventory(ctx context.Context) ([]model.PermanentItem, error)
}

type Dashboard struct {
	Inventory []model.InventoryItem `json:"inventory"`
	Usage     []model.UsageRecord   `json:"usage"`
	Permanent []model.PermanentItem `json:"permanent"`
	LowStock  int                   `json:"low_stock_count"`
}

// Load fetches the three lists concurrently. The first failure cancels the
// rest and is reported as ErrLoad wrapping the cause.
func Load(ctx context.Context, src Source) (Dashboard, error) {
	var dash Dashboard
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		items, err := src.ListInventory(gctx)
		dash.Inventory = items
		return err
	})
	g.Go(func() error {
		usage, err := src.ListUsage(gctx)
		dash.Usage = usage
		return err
	})
	g.Go(func() error {
		permanent, err := src.ListPermanentInventory(gctx)
		dash.Permanent = permanent
		return err
	})
	if err := g.Wait(); err != nil {
		return Dashboard{}, fmt.Errorf("%w: %w", ErrLoad, err)
	}
	dash.Inventory = MarkLowStock(dash.Inventory)
	for _, item := range dash.Inventory {
		if item.LowStock {
			dash.LowStock++
		}
	}
	return dash, nil
}

// MarkLowStock flags items whose quantity is at or below their threshold.
func MarkLowStock(items []model.InventoryItem) []model.InventoryItem {
	out := make([]model.InventoryItem, len(items))
	for i, item := range items {
		item.LowStock = item.Quantity <= item.Threshold
		out[i] = item
	}
	return out
}
