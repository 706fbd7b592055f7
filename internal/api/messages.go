package api

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/accordhq/accord/internal/rest"
	"github.com/accordhq/accord/internal/rest/route"
)

// CreateMessageParams is the metadata body for message creation. Attachments
// ride alongside as multipart file parts.
type CreateMessageParams struct {
	Content string `json:"content,omitempty"`
	TTS     bool   `json:"tts,omitempty"`
	Nonce   string `json:"nonce,omitempty"`
}

// CreateMessage posts a message to a channel, as multipart when files are
// attached.
func (c *Client) CreateMessage(ctx context.Context, channelID string, params CreateMessageParams, files []rest.File, opts ...rest.RequestOpt) (*Message, error) {
	req := rest.NewRequest(http.MethodPost, "/channels/{channel.id}/messages", route.Params{"channel.id": channelID})
	if len(files) > 0 {
		opts = append(opts, rest.WithFiles(params, files...))
	} else {
		opts = append(opts, rest.WithJSONBody(params))
	}

	var msg Message
	if err := c.request(ctx, req, &msg, opts...); err != nil {
		return nil, err
	}
	return &msg, nil
}

// GetMessage fetches a single message.
func (c *Client) GetMessage(ctx context.Context, channelID, messageID string, opts ...rest.RequestOpt) (*Message, error) {
	req := rest.NewRequest(http.MethodGet, "/channels/{channel.id}/messages/{message.id}", route.Params{
		"channel.id": channelID,
		"message.id": messageID,
	})

	var msg Message
	if err := c.request(ctx, req, &msg, opts...); err != nil {
		return nil, err
	}
	return &msg, nil
}

// GetMessages lists recent messages in a channel. limit <= 0 leaves the
// choice to the service; before/after are omitted when empty.
func (c *Client) GetMessages(ctx context.Context, channelID string, limit int, before, after string, opts ...rest.RequestOpt) ([]Message, error) {
	req := rest.NewRequest(http.MethodGet, "/channels/{channel.id}/messages", route.Params{"channel.id": channelID})

	query := url.Values{}
	if limit > 0 {
		query.Set("limit", strconv.Itoa(limit))
	}
	if before != "" {
		query.Set("before", before)
	}
	if after != "" {
		query.Set("after", after)
	}
	opts = append(opts, rest.WithQuery(query))

	var msgs []Message
	if err := c.request(ctx, req, &msgs, opts...); err != nil {
		return nil, err
	}
	return msgs, nil
}

// EditMessage rewrites a message's content.
func (c *Client) EditMessage(ctx context.Context, channelID, messageID string, params CreateMessageParams, opts ...rest.RequestOpt) (*Message, error) {
	req := rest.NewRequest(http.MethodPatch, "/channels/{channel.id}/messages/{message.id}", route.Params{
		"channel.id": channelID,
		"message.id": messageID,
	})
	opts = append(opts, rest.WithJSONBody(params))

	var msg Message
	if err := c.request(ctx, req, &msg, opts...); err != nil {
		return nil, err
	}
	return &msg, nil
}

// DeleteMessage removes a message.
func (c *Client) DeleteMessage(ctx context.Context, channelID, messageID string, opts ...rest.RequestOpt) error {
	req := rest.NewRequest(http.MethodDelete, "/channels/{channel.id}/messages/{message.id}", route.Params{
		"channel.id": channelID,
		"message.id": messageID,
	})
	return c.request(ctx, req, nil, opts...)
}
