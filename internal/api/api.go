// Package api exposes the Accord REST resources as thin request builders.
//
// Each operation translates typed arguments into a path template, method,
// and body encoding, hands the call to the dispatcher, and decodes the raw
// result. No business semantics live here.
package api

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/accordhq/accord/internal/rest"
)

// Client wraps a dispatcher with resource operations.
type Client struct {
	REST *rest.Client
}

// NewClient builds a resource client over an existing dispatcher.
func NewClient(restClient *rest.Client) *Client {
	return &Client{REST: restClient}
}

// request runs a call and decodes the JSON response body into out when out
// is non-nil.
func (c *Client) request(ctx context.Context, req *rest.Request, out any, opts ...rest.RequestOpt) error {
	if c == nil || c.REST == nil {
		return fmt.Errorf("api client is not configured")
	}
	resp, err := c.REST.Request(ctx, req, opts...)
	if err != nil {
		return err
	}
	if out == nil || len(resp.Body) == 0 {
		return nil
	}
	if err := json.Unmarshal(resp.Body, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
