package api

import (
	"context"
	"net/http"
	"time"

	"github.com/accordhq/accord/internal/rest"
	"github.com/accordhq/accord/internal/rest/route"
)

// CreateScheduledEventParams describes a new guild scheduled event.
type CreateScheduledEventParams struct {
	Name        string     `json:"name"`
	ChannelID   string     `json:"channel_id,omitempty"`
	Description string     `json:"description,omitempty"`
	StartTime   time.Time  `json:"scheduled_start_time"`
	EndTime     *time.Time `json:"scheduled_end_time,omitempty"`
}

// ListScheduledEvents lists a guild's scheduled events.
func (c *Client) ListScheduledEvents(ctx context.Context, guildID string, opts ...rest.RequestOpt) ([]ScheduledEvent, error) {
	req := rest.NewRequest(http.MethodGet, "/guilds/{guild.id}/scheduled-events", route.Params{"guild.id": guildID})

	var events []ScheduledEvent
	if err := c.request(ctx, req, &events, opts...); err != nil {
		return nil, err
	}
	return events, nil
}

// CreateScheduledEvent creates a guild scheduled event.
func (c *Client) CreateScheduledEvent(ctx context.Context, guildID string, params CreateScheduledEventParams, opts ...rest.RequestOpt) (*ScheduledEvent, error) {
	req := rest.NewRequest(http.MethodPost, "/guilds/{guild.id}/scheduled-events", route.Params{"guild.id": guildID})
	opts = append(opts, rest.WithJSONBody(params))

	var event ScheduledEvent
	if err := c.request(ctx, req, &event, opts...); err != nil {
		return nil, err
	}
	return &event, nil
}

// DeleteScheduledEvent removes a guild scheduled event.
func (c *Client) DeleteScheduledEvent(ctx context.Context, guildID, eventID string, opts ...rest.RequestOpt) error {
	req := rest.NewRequest(http.MethodDelete, "/guilds/{guild.id}/scheduled-events/{event.id}", route.Params{
		"guild.id": guildID,
		"event.id": eventID,
	})
	return c.request(ctx, req, nil, opts...)
}
