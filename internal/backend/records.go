package backend

import (
	"context"
	"net/http"

	"erp/portal/internal/model"
)

func (c *Client) ListHealthRecords(ctx context.Context, studentID model.ID) ([]model.HealthRecord, error) {
	var records []model.HealthRecord
	err := c.do(ctx, "list_health_records", http.MethodGet, "/health-records/"+escape(studentID.String()), nil, &records)
	return records, err
}

func (c *Client) ListAds(ctx context.Context) ([]model.Ad, error) {
	var ads []model.Ad
	err := c.do(ctx, "list_ads", http.MethodGet, "/ads", nil, &ads)
	return ads, err
}
