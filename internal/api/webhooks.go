package api

import (
	"context"
	"net/http"

	"github.com/accordhq/accord/internal/rest"
	"github.com/accordhq/accord/internal/rest/route"
)

// ExecuteWebhookParams is the body for webhook execution.
type ExecuteWebhookParams struct {
	Content   string `json:"content,omitempty"`
	Username  string `json:"username,omitempty"`
	AvatarURL string `json:"avatar_url,omitempty"`
}

// CreateWebhookParams creates a channel webhook.
type CreateWebhookParams struct {
	Name   string `json:"name"`
	Avatar string `json:"avatar,omitempty"`
}

// CreateWebhook creates a webhook on a channel.
func (c *Client) CreateWebhook(ctx context.Context, channelID string, params CreateWebhookParams, opts ...rest.RequestOpt) (*Webhook, error) {
	req := rest.NewRequest(http.MethodPost, "/channels/{channel.id}/webhooks", route.Params{"channel.id": channelID})
	opts = append(opts, rest.WithJSONBody(params))

	var hook Webhook
	if err := c.request(ctx, req, &hook, opts...); err != nil {
		return nil, err
	}
	return &hook, nil
}

// GetChannelWebhooks lists a channel's webhooks.
func (c *Client) GetChannelWebhooks(ctx context.Context, channelID string, opts ...rest.RequestOpt) ([]Webhook, error) {
	req := rest.NewRequest(http.MethodGet, "/channels/{channel.id}/webhooks", route.Params{"channel.id": channelID})

	var hooks []Webhook
	if err := c.request(ctx, req, &hooks, opts...); err != nil {
		return nil, err
	}
	return hooks, nil
}

// ExecuteWebhook posts through a webhook, optionally with attachments. The
// webhook id and token scope the bucket, so distinct webhooks never contend.
func (c *Client) ExecuteWebhook(ctx context.Context, webhookID, token string, params ExecuteWebhookParams, files []rest.File, opts ...rest.RequestOpt) (*Message, error) {
	req := rest.NewRequest(http.MethodPost, "/webhooks/{webhook.id}/{webhook.token}", route.Params{
		"webhook.id":    webhookID,
		"webhook.token": token,
	})
	if len(files) > 0 {
		opts = append(opts, rest.WithFiles(params, files...))
	} else {
		opts = append(opts, rest.WithJSONBody(params))
	}
	// wait=true makes the service return the created message.
	opts = append(opts, rest.WithQueryValue("wait", "true"))

	var msg Message
	if err := c.request(ctx, req, &msg, opts...); err != nil {
		return nil, err
	}
	return &msg, nil
}

// DeleteWebhook removes a webhook.
func (c *Client) DeleteWebhook(ctx context.Context, webhookID string, opts ...rest.RequestOpt) error {
	req := rest.NewRequest(http.MethodDelete, "/webhooks/{webhook.id}", route.Params{"webhook.id": webhookID})
	return c.request(ctx, req, nil, opts...)
}
