package api

import (
	"context"
	"net/http"

	"github.com/accordhq/accord/internal/rest"
	"github.com/accordhq/accord/internal/rest/route"
)

// ModifyChannelParams carries the mutable channel fields. Pointer fields are
// omitted when nil so partial updates stay partial.
type ModifyChannelParams struct {
	Name  *string `json:"name,omitempty"`
	Topic *string `json:"topic,omitempty"`
	NSFW  *bool   `json:"nsfw,omitempty"`
}

// GetChannel fetches a channel by id.
func (c *Client) GetChannel(ctx context.Context, channelID string, opts ...rest.RequestOpt) (*Channel, error) {
	req := rest.NewRequest(http.MethodGet, "/channels/{channel.id}", route.Params{"channel.id": channelID})

	var ch Channel
	if err := c.request(ctx, req, &ch, opts...); err != nil {
		return nil, err
	}
	return &ch, nil
}

// ModifyChannel updates channel settings.
func (c *Client) ModifyChannel(ctx context.Context, channelID string, params ModifyChannelParams, opts ...rest.RequestOpt) (*Channel, error) {
	req := rest.NewRequest(http.MethodPatch, "/channels/{channel.id}", route.Params{"channel.id": channelID})
	opts = append(opts, rest.WithJSONBody(params))

	var ch Channel
	if err := c.request(ctx, req, &ch, opts...); err != nil {
		return nil, err
	}
	return &ch, nil
}

// DeleteChannel deletes (or closes) a channel.
func (c *Client) DeleteChannel(ctx context.Context, channelID string, opts ...rest.RequestOpt) error {
	req := rest.NewRequest(http.MethodDelete, "/channels/{channel.id}", route.Params{"channel.id": channelID})
	return c.request(ctx, req, nil, opts...)
}
