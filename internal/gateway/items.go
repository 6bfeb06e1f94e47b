package gateway

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"labloan-client/internal/model"
)

// itemsEnvelope wraps the paginator GET /items nests under "data".
type itemsEnvelope struct {
	Data model.PagedItems `json:"data"`
}

// Items fetches one page of the catalog. The catalog view asks for a large
// page and paginates locally.
func (c *Client) Items(ctx context.Context, perPage int) ([]model.Item, int, error) {
	query := url.Values{"per_page": []string{strconv.Itoa(perPage)}}

	var envelope itemsEnvelope
	if err := c.call(ctx, http.MethodGet, "/items", query, nil, &envelope); err != nil {
		return nil, 0, err
	}
	return envelope.Data.Data, envelope.Data.Total, nil
}

// ItemConditions fetches the valid condition enumeration. Cached: the set
// only changes with backend deployments.
func (c *Client) ItemConditions(ctx context.Context) ([]model.Condition, error) {
	var envelope struct {
		Data []model.Condition `json:"data"`
	}
	if err := c.getCached(ctx, "/item-conditions", &envelope); err != nil {
		return nil, err
	}
	return envelope.Data, nil
}

// ItemInput is the payload for creating or updating an item.
type ItemInput struct {
	Name        string          `json:"name"`
	Code        string          `json:"code"`
	Description string          `json:"description"`
	Location    string          `json:"location"`
	Condition   model.Condition `json:"condition"`
	Quantity    int             `json:"quantity"`
}

// CreateItem registers a new catalog entry. Admin only.
func (c *Client) CreateItem(ctx context.Context, in ItemInput) (Result, error) {
	var res Result
	if err := c.call(ctx, http.MethodPost, "/items", nil, in, &res); err != nil {
		return Result{}, err
	}
	return res, nil
}

// UpdateItem replaces an item's fields. Admin only.
func (c *Client) UpdateItem(ctx context.Context, id int64, in ItemInput) (Result, error) {
	var res Result
	if err := c.call(ctx, http.MethodPut, itemPath(id), nil, in, &res); err != nil {
		return Result{}, err
	}
	return res, nil
}

// DeleteItem removes an item. Admin only.
func (c *Client) DeleteItem(ctx context.Context, id int64) (Result, error) {
	var res Result
	if err := c.call(ctx, http.MethodDelete, itemPath(id), nil, nil, &res); err != nil {
		return Result{}, err
	}
	return res, nil
}

func itemPath(id int64) string {
	return fmt.Sprintf("/items/%d", id)
}
