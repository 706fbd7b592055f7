package api

import (
	"context"
	"net/http"

	"github.com/accordhq/accord/internal/rest"
	"github.com/accordhq/accord/internal/rest/route"
)

// Interaction response callback types.
const (
	InteractionResponsePong    = 1
	InteractionResponseMessage = 4
)

// InteractionResponse answers an interaction callback.
type InteractionResponse struct {
	Type int                      `json:"type"`
	Data *InteractionResponseData `json:"data,omitempty"`
}

// InteractionResponseData is the message payload of a callback response.
type InteractionResponseData struct {
	Content string `json:"content,omitempty"`
	TTS     bool   `json:"tts,omitempty"`
}

// CreateInteractionResponse answers an interaction. Interaction callbacks are
// bucketed per interaction id+token, so responses to distinct interactions
// never queue behind each other.
func (c *Client) CreateInteractionResponse(ctx context.Context, interactionID, token string, response InteractionResponse, opts ...rest.RequestOpt) error {
	req := rest.NewRequest(http.MethodPost, "/interactions/{interaction.id}/{interaction.token}/callback", route.Params{
		"interaction.id":    interactionID,
		"interaction.token": token,
	})
	opts = append(opts, rest.WithJSONBody(response))
	return c.request(ctx, req, nil, opts...)
}

// EditOriginalResponse rewrites the original interaction response message.
func (c *Client) EditOriginalResponse(ctx context.Context, applicationID, token string, params CreateMessageParams, opts ...rest.RequestOpt) (*Message, error) {
	req := rest.NewRequest(http.MethodPatch, "/webhooks/{webhook.id}/{webhook.token}/messages/@original", route.Params{
		"webhook.id":    applicationID,
		"webhook.token": token,
	})
	opts = append(opts, rest.WithJSONBody(params))

	var msg Message
	if err := c.request(ctx, req, &msg, opts...); err != nil {
		return nil, err
	}
	return &msg, nil
}
