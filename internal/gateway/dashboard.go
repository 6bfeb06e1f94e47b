package gateway

import (
	"context"
	"net/http"

	"labloan-client/internal/model"
)

// Dashboard fetches the aggregate stats and recent loan activity for the
// admin overview. Never cached: the listing must reflect mutations
// immediately after a re-fetch.
func (c *Client) Dashboard(ctx context.Context) (model.Dashboard, error) {
	var d model.Dashboard
	if err := c.call(ctx, http.MethodGet, "/dashboard", nil, nil, &d); err != nil {
		return model.Dashboard{}, err
	}
	return d, nil
}
