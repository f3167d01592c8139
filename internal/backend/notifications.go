package backend

import (
	"context"
	"net/http"

	"erp/portal/internal/model"
)

func (c *Client) ListNotifications(ctx context.Context) ([]model.Notification, error) {
	var notifications []model.Notification
	err := c.do(ctx, "list_notifications", http.MethodGet, "/notifications", nil, &notifications)
	return notifications, err
}

// UnreadCount counts notifications that are not marked read.
func (c *Client) UnreadCount(ctx context.Context) (int, error) {
	notifications, err := c.ListNotifications(ctx)
	if err != nil {
		return 0, err
	}
	return CountUnread(notifications), nil
}

func CountUnread(notifications []model.Notification) int {
	count := 0
	for _, notification := range notifications {
		if !notification.IsRead {
			count++
		}
	}
	return count
}

func (c *Client) MarkNotificationRead(ctx context.Context, id string) error {
	return c.do(ctx, "mark_notification_read", http.MethodPut, "/notifications/"+escape(id)+"/read", nil, nil)
}
