package backend

import (
	"context"
	"net/http"

	"erp/portal/internal/model"
)

func (c *Client) SubmitSuggestion(ctx context.Context, suggestion model.Suggestion) (model.Suggestion, error) {
	var created model.Suggestion
	err := c.do(ctx, "submit_suggestion", http.MethodPost, "/suggestions", suggestion, &created)
	return created, err
}

func (c *Client) GetSuggestion(ctx context.Context, id string) (model.Suggestion, error) {
	var suggestion model.Suggestion
	err := c.do(ctx, "get_suggestion", http.MethodGet, "/suggestions/"+escape(id), nil, &suggestion)
	return suggestion, err
}

func (c *Client) ReplySuggestion(ctx context.Context, reply model.Reply) (model.Reply, error) {
	var created model.Reply
	err := c.do(ctx, "reply_suggestion", http.MethodPost, "/suggestions/reply", reply, &created)
	return created, err
}
