package api

import (
	"context"
	"net/http"

	"github.com/accordhq/accord/internal/rest"
	"github.com/accordhq/accord/internal/rest/route"
)

// CreateEmojiParams carries a new emoji; Image is a data URI.
type CreateEmojiParams struct {
	Name  string `json:"name"`
	Image string `json:"image"`
}

// ListEmojis lists a guild's custom emojis.
func (c *Client) ListEmojis(ctx context.Context, guildID string, opts ...rest.RequestOpt) ([]Emoji, error) {
	req := rest.NewRequest(http.MethodGet, "/guilds/{guild.id}/emojis", route.Params{"guild.id": guildID})

	var emojis []Emoji
	if err := c.request(ctx, req, &emojis, opts...); err != nil {
		return nil, err
	}
	return emojis, nil
}

// CreateEmoji uploads a new guild emoji.
func (c *Client) CreateEmoji(ctx context.Context, guildID string, params CreateEmojiParams, opts ...rest.RequestOpt) (*Emoji, error) {
	req := rest.NewRequest(http.MethodPost, "/guilds/{guild.id}/emojis", route.Params{"guild.id": guildID})
	opts = append(opts, rest.WithJSONBody(params))

	var emoji Emoji
	if err := c.request(ctx, req, &emoji, opts...); err != nil {
		return nil, err
	}
	return &emoji, nil
}

// DeleteEmoji removes a guild emoji.
func (c *Client) DeleteEmoji(ctx context.Context, guildID, emojiID string, opts ...rest.RequestOpt) error {
	req := rest.NewRequest(http.MethodDelete, "/guilds/{guild.id}/emojis/{emoji.id}", route.Params{
		"guild.id": guildID,
		"emoji.id": emojiID,
	})
	return c.request(ctx, req, nil, opts...)
}
