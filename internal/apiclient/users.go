package apiclient

import (
	"context"
	"net/http"

	"github.com/kingrea/contentdesk/internal/content"
)

type successEnvelope[T any] struct {
	Success *bool `json:"success"`
	Data    *T    `json:"data"`
}

func (e successEnvelope[T]) unwrap(op string) (T, error) {
	var zero T
	if e.Success == nil {
		return zero, shapeError(op, "success indicator missing")
	}
	if !*e.Success {
		return zero, shapeError(op, "success=false")
	}
	if e.Data == nil {
		return zero, shapeError(op, "data missing")
	}
	return *e.Data, nil
}

// UsageStats returns the caller's quota counters.
func (c *Client) UsageStats(ctx context.Context) (content.UsageStats, error) {
	var resp successEnvelope[content.UsageStats]
	if err := c.doJSON(ctx, http.MethodGet, "/users/usage-stats", nil, &resp); err != nil {
		return content.UsageStats{}, err
	}
	return resp.unwrap("usage stats")
}

// UserConfiguration loads the caller's writing preferences.
func (c *Client) UserConfiguration(ctx context.Context) (content.UserConfiguration, error) {
	var resp successEnvelope[content.UserConfiguration]
	if err := c.doJSON(ctx, http.MethodGet, "/users/configurations", nil, &resp); err != nil {
		return content.UserConfiguration{}, err
	}
	return resp.unwrap("user configuration")
}

// UpdateUserConfiguration saves writing preferences and returns the stored copy.
func (c *Client) UpdateUserConfiguration(ctx context.Context, cfg content.UserConfiguration) (content.UserConfiguration, error) {
	var resp successEnvelope[content.UserConfiguration]
	if err := c.doJSON(ctx, http.MethodPut, "/users/configurations", cfg, &resp); err != nil {
		return content.UserConfiguration{}, err
	}
	return resp.unwrap("update user configuration")
}
