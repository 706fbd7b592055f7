package api

import (
	"context"
	"net/http"

	"github.com/accordhq/accord/internal/rest"
	"github.com/accordhq/accord/internal/rest/route"
)

// CreateStickerParams is the metadata part of a sticker upload; the sticker
// image itself is a multipart file part.
type CreateStickerParams struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Tags        string `json:"tags"`
}

// ListStickers lists a guild's stickers.
func (c *Client) ListStickers(ctx context.Context, guildID string, opts ...rest.RequestOpt) ([]Sticker, error) {
	req := rest.NewRequest(http.MethodGet, "/guilds/{guild.id}/stickers", route.Params{"guild.id": guildID})

	var stickers []Sticker
	if err := c.request(ctx, req, &stickers, opts...); err != nil {
		return nil, err
	}
	return stickers, nil
}

// CreateSticker uploads a sticker image with its metadata.
func (c *Client) CreateSticker(ctx context.Context, guildID string, params CreateStickerParams, file rest.File, opts ...rest.RequestOpt) (*Sticker, error) {
	req := rest.NewRequest(http.MethodPost, "/guilds/{guild.id}/stickers", route.Params{"guild.id": guildID})
	opts = append(opts, rest.WithFiles(params, file))

	var sticker Sticker
	if err := c.request(ctx, req, &sticker, opts...); err != nil {
		return nil, err
	}
	return &sticker, nil
}

// DeleteSticker removes a guild sticker.
func (c *Client) DeleteSticker(ctx context.Context, guildID, stickerID string, opts ...rest.RequestOpt) error {
	req := rest.NewRequest(http.MethodDelete, "/guilds/{guild.id}/stickers/{sticker.id}", route.Params{
		"guild.id":   guildID,
		"sticker.id": stickerID,
	})
	return c.request(ctx, req, nil, opts...)
}
