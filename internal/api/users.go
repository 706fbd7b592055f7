package api

import (
	"context"
	"net/http"

	"github.com/accordhq/accord/internal/rest"
	"github.com/accordhq/accord/internal/rest/route"
)

// GetCurrentUser fetches the authenticated account.
func (c *Client) GetCurrentUser(ctx context.Context, opts ...rest.RequestOpt) (*User, error) {
	req := rest.NewRequest(http.MethodGet, "/users/@me", nil)

	var user User
	if err := c.request(ctx, req, &user, opts...); err != nil {
		return nil, err
	}
	return &user, nil
}

// GetUser fetches an account by id.
func (c *Client) GetUser(ctx context.Context, userID string, opts ...rest.RequestOpt) (*User, error) {
	req := rest.NewRequest(http.MethodGet, "/users/{user.id}", route.Params{"user.id": userID})

	var user User
	if err := c.request(ctx, req, &user, opts...); err != nil {
		return nil, err
	}
	return &user, nil
}
