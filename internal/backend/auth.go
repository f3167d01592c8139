package backend

import (
	"context"
	"net/http"
	"strings"

	"erp/portal/internal/model"
)

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	User  model.User `json:"user"`
	Token string     `json:"token"`
}

func (c *Client) Login(ctx context.Context, username, password string) (model.User, string, error) {
	var resp loginResponse
	err := c.do(ctx, "login", http.MethodPost, "/login", loginRequest{
		Username: strings.TrimSpace(username),
		Password: password,
	}, &resp)
	if err != nil {
		return model.User{}, "", err
	}
	if resp.Token == "" || resp.User.ID == "" {
		return model.User{}, "", &Error{Op: "login", Kind: KindDecode, Message: "login response missing user or token"}
	}
	return resp.User, resp.Token, nil
}

func (c *Client) GetProfile(ctx context.Context, userID model.ID) (model.Profile, error) {
	var profile model.Profile
	err := c.do(ctx, "get_profile", http.MethodGet, "/profiles/"+escape(userID.String()), nil, &profile)
	return profile, err
}

func (c *Client) UpdateProfile(ctx context.Context, userID model.ID, profile model.Profile) (model.Profile, error) {
	var updated model.Profile
	err := c.do(ctx, "update_profile", http.MethodPut, "/profiles/"+escape(userID.String()), profile, &updated)
	return updated, err
}

// Ping issues a GET against an absolute health URL with no auth header.
func (c *Client) Ping(ctx context.Context, healthURL string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, healthURL, nil)
	if err != nil {
		return &Error{Op: "ping", Kind: KindRejected, Message: "invalid health url", Err: err}
	}
	return c.WithToken("").send(req, "ping", nil)
}
