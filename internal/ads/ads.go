// Package ads cycles through the backend's ad list, one step per view,
// remembering the position across restarts.
package ads

import (
	"context"
	"log"
	"strconv"

	"erp/portal/internal/model"
	"erp/portal/internal/storage"
)

type Rotator struct {
	store storage.Store
}

func NewRotator(store storage.Store) *Rotator {
	return &Rotator{store: store}
}

// Next returns the ad after the persisted index and persists its index.
// With nothing persisted the first ad is shown. ok is false when there are
// no ads.
func (r *Rotator) Next(ctx context.Context, ads []model.Ad) (ad model.Ad, index int, ok bool) {
	if len(ads) == 0 {
		return model.Ad{}, 0, false
	}
	index = 0
	if raw, found, err := r.store.Get(ctx, storage.KeyLastAdIndex); err != nil {
		log.Printf("ad index read failed: %v", err)
	} else if found {
		if last, err := strconv.Atoi(raw); err == nil && last >= 0 {
			index = (last + 1) % len(ads)
		}
	}
	if err := r.store.Set(ctx, storage.KeyLastAdIndex, strconv.Itoa(index)); err != nil {
		log.Printf("ad index write failed: %v", err)
	}
	return ads[index], index, true
}
