package api

import (
	"context"
	"net/http"

	"github.com/accordhq/accord/internal/rest"
	"github.com/accordhq/accord/internal/rest/route"
)

// GetGuild fetches a guild by id.
func (c *Client) GetGuild(ctx context.Context, guildID string, opts ...rest.RequestOpt) (*Guild, error) {
	req := rest.NewRequest(http.MethodGet, "/guilds/{guild.id}", route.Params{"guild.id": guildID})

	var guild Guild
	if err := c.request(ctx, req, &guild, opts...); err != nil {
		return nil, err
	}
	return &guild, nil
}

// GetGuildChannels lists a guild's channels.
func (c *Client) GetGuildChannels(ctx context.Context, guildID string, opts ...rest.RequestOpt) ([]Channel, error) {
	req := rest.NewRequest(http.MethodGet, "/guilds/{guild.id}/channels", route.Params{"guild.id": guildID})

	var channels []Channel
	if err := c.request(ctx, req, &channels, opts...); err != nil {
		return nil, err
	}
	return channels, nil
}

// LeaveGuild removes the current user from a guild.
func (c *Client) LeaveGuild(ctx context.Context, guildID string, opts ...rest.RequestOpt) error {
	req := rest.NewRequest(http.MethodDelete, "/users/@me/guilds/{guild.id}", route.Params{"guild.id": guildID})
	return c.request(ctx, req, nil, opts...)
}
