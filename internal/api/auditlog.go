package api

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/accordhq/accord/internal/rest"
	"github.com/accordhq/accord/internal/rest/route"
)

// GetAuditLog fetches a page of a guild's audit log. actionType <= 0 and
// empty userID are omitted from the query entirely.
func (c *Client) GetAuditLog(ctx context.Context, guildID string, userID string, actionType, limit int, opts ...rest.RequestOpt) (*AuditLog, error) {
	req := rest.NewRequest(http.MethodGet, "/guilds/{guild.id}/audit-logs", route.Params{"guild.id": guildID})

	query := url.Values{}
	if userID != "" {
		query.Set("user_id", userID)
	}
	if actionType > 0 {
		query.Set("action_type", strconv.Itoa(actionType))
	}
	if limit > 0 {
		query.Set("limit", strconv.Itoa(limit))
	}
	opts = append(opts, rest.WithQuery(query))

	var log AuditLog
	if err := c.request(ctx, req, &log, opts...); err != nil {
		return nil, err
	}
	return &log, nil
}
