package view

import (
	"context"
	"errors"
	"strings"

	"labloan-client/internal/gateway"
	"labloan-client/internal/model"
	"labloan-client/internal/paging"
)

// ErrItemOnLoan means the item has an open loan and must not be edited or
// deleted until it comes back.
var ErrItemOnLoan = errors.New("item has an open loan")

// ItemAdmin is the administrator's catalog management screen: the full item
// list with create/update/delete, plus the valid condition enumeration.
type ItemAdmin struct {
	gw *gateway.Client

	items      []model.Item
	conditions []model.Condition

	perPage int
	page    int
}

// NewItemAdmin returns an empty screen. Call Load before anything else.
func NewItemAdmin(gw *gateway.Client, perPage int) *ItemAdmin {
	return &ItemAdmin{gw: gw, perPage: perPage, page: 1}
}

// Load fetches the item list and the condition enumeration.
func (v *ItemAdmin) Load(ctx context.Context) error {
	items, _, err := v.gw.Items(ctx, catalogFetchSize)
	if err != nil {
		return err
	}
	conditions, err := v.gw.ItemConditions(ctx)
	if err != nil {
		return err
	}
	v.items = items
	v.conditions = conditions
	v.page = paging.Clamp(v.page, v.TotalPages())
	return nil
}

// Conditions is the valid condition enumeration for form choices.
func (v *ItemAdmin) Conditions() []model.Condition {
	return v.conditions
}

// Items returns the full fetched list.
func (v *ItemAdmin) Items() []model.Item {
	return v.items
}

// Page returns the items on the current page.
func (v *ItemAdmin) Page() []model.Item {
	lo, hi := paging.Slice(len(v.items), v.page, v.perPage)
	return v.items[lo:hi]
}

// CurrentPage is the 1-based page number.
func (v *ItemAdmin) CurrentPage() int {
	return v.page
}

// TotalPages is the page count of the listing.
func (v *ItemAdmin) TotalPages() int {
	return paging.TotalPages(len(v.items), v.perPage)
}

// PageNumbers is the sliding window of page controls to render.
func (v *ItemAdmin) PageNumbers() []int {
	return paging.Window(v.page, v.TotalPages(), pageWindow)
}

// GoTo jumps to a page, clamped to the valid range.
func (v *ItemAdmin) GoTo(page int) {
	v.page = paging.Clamp(page, v.TotalPages())
}

func (v *ItemAdmin) find(id int64) (model.Item, bool) {
	for _, item := range v.items {
		if item.ID == id {
			return item, true
		}
	}
	return model.Item{}, false
}

// validate reports local form problems before the request goes out. The
// backend revalidates; this only spares a round trip.
func validate(in gateway.ItemInput) []string {
	var problems []string
	if strings.TrimSpace(in.Name) == "" {
		problems = append(problems, "name must not be empty")
	}
	if strings.TrimSpace(in.Code) == "" {
		problems = append(problems, "code must not be empty")
	}
	if strings.TrimSpace(in.Location) == "" {
		problems = append(problems, "location must not be empty")
	}
	if in.Condition == "" {
		problems = append(problems, "condition must be chosen")
	}
	if in.Quantity < 0 {
		problems = append(problems, "quantity must not be negative")
	}
	return problems
}

// Validate lists the field problems blocking an item form.
func (v *ItemAdmin) Validate(in gateway.ItemInput) []string {
	return validate(in)
}

// Create registers a new item and reloads the listing on success.
func (v *ItemAdmin) Create(ctx context.Context, in gateway.ItemInput) (gateway.Result, error) {
	res, err := v.gw.CreateItem(ctx, in)
	if err != nil {
		return gateway.Result{}, err
	}
	return res, v.Load(ctx)
}

// Update edits an item and reloads the listing on success. Items with an
// open loan are refused locally.
func (v *ItemAdmin) Update(ctx context.Context, id int64, in gateway.ItemInput) (gateway.Result, error) {
	if item, ok := v.find(id); ok && item.OnLoan() {
		return gateway.Result{}, ErrItemOnLoan
	}
	res, err := v.gw.UpdateItem(ctx, id, in)
	if err != nil {
		return gateway.Result{}, err
	}
	return res, v.Load(ctx)
}

// Delete removes an item and reloads the listing on success. Items with an
// open loan are refused locally.
func (v *ItemAdmin) Delete(ctx context.Context, id int64) (gateway.Result, error) {
	if item, ok := v.find(id); ok && item.OnLoan() {
		return gateway.Result{}, ErrItemOnLoan
	}
	res, err := v.gw.DeleteItem(ctx, id)
	if err != nil {
		return gateway.Result{}, err
	}
	return res, v.Load(ctx)
}
