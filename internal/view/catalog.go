// Package view holds the client-side state behind each screen. A view caches
// what it fetched at mount time and treats every local copy as disposable:
// any mutating call is followed by a full re-fetch instead of local patching.
package view

import (
	"context"
	"sort"
	"strings"

	"labloan-client/internal/gateway"
	"labloan-client/internal/model"
	"labloan-client/internal/paging"
)

// pageWindow is how many page-number controls a listing renders.
const pageWindow = 5

// catalogFetchSize is how many items the catalog pulls in one request before
// filtering and paginating locally.
const catalogFetchSize = 100

// Catalog maintains the item list and a derived, filtered, paginated view of
// it. Filters have no network side effects.
type Catalog struct {
	gw   *gateway.Client
	user model.User

	items    []model.Item
	filtered []model.Item

	search    string
	condition model.Condition // empty matches any
	location  string

	perPage int
	page    int
}

// NewCatalog returns an empty catalog view. Call Load before anything else.
func NewCatalog(gw *gateway.Client, perPage int) *Catalog {
	return &Catalog{gw: gw, perPage: perPage, page: 1}
}

// Load fetches the caller identity and the item list. It resets filters and
// returns to the first page.
func (v *Catalog) Load(ctx context.Context) error {
	user, err := v.gw.CurrentUser(ctx)
	if err != nil {
		return err
	}
	items, _, err := v.gw.Items(ctx, catalogFetchSize)
	if err != nil {
		return err
	}

	v.user = user
	v.items = items
	v.search = ""
	v.condition = ""
	v.location = ""
	v.page = 1
	v.applyFilters()
	return nil
}

// User is the authenticated caller as of the last Load.
func (v *Catalog) User() model.User {
	return v.user
}

// SetSearch filters by case-insensitive substring match on name or code.
// Changing any filter resets to page one.
func (v *Catalog) SetSearch(term string) {
	v.search = term
	v.page = 1
	v.applyFilters()
}

// SetCondition filters by exact condition; empty means any.
func (v *Catalog) SetCondition(cond model.Condition) {
	v.condition = cond
	v.page = 1
	v.applyFilters()
}

// SetLocation filters by case-insensitive substring match on location.
func (v *Catalog) SetLocation(loc string) {
	v.location = loc
	v.page = 1
	v.applyFilters()
}

func (v *Catalog) applyFilters() {
	filtered := make([]model.Item, 0, len(v.items))
	search := strings.ToLower(v.search)
	location := strings.ToLower(v.location)

	for _, item := range v.items {
		if search != "" &&
			!strings.Contains(strings.ToLower(item.Name), search) &&
			!strings.Contains(strings.ToLower(item.Code), search) {
			continue
		}
		if v.condition != "" && item.Condition != v.condition {
			continue
		}
		if location != "" && !strings.Contains(strings.ToLower(item.Location), location) {
			continue
		}
		filtered = append(filtered, item)
	}

	v.filtered = filtered
	v.page = paging.Clamp(v.page, v.TotalPages())
}

// FilteredCount is how many items pass the current filters.
func (v *Catalog) FilteredCount() int {
	return len(v.filtered)
}

// Page returns the items on the current page.
func (v *Catalog) Page() []model.Item {
	lo, hi := paging.Slice(len(v.filtered), v.page, v.perPage)
	return v.filtered[lo:hi]
}

// CurrentPage is the 1-based page number.
func (v *Catalog) CurrentPage() int {
	return v.page
}

// TotalPages is the page count of the filtered listing.
func (v *Catalog) TotalPages() int {
	return paging.TotalPages(len(v.filtered), v.perPage)
}

// PageNumbers is the sliding window of page controls to render.
func (v *Catalog) PageNumbers() []int {
	return paging.Window(v.page, v.TotalPages(), pageWindow)
}

// GoTo jumps to a page, clamped to the valid range.
func (v *Catalog) GoTo(page int) {
	v.page = paging.Clamp(page, v.TotalPages())
}

// Next advances one page.
func (v *Catalog) Next() {
	v.GoTo(v.page + 1)
}

// Prev goes back one page.
func (v *Catalog) Prev() {
	v.GoTo(v.page - 1)
}

// Locations lists the distinct item locations, sorted, for filter choices.
func (v *Catalog) Locations() []string {
	seen := make(map[string]struct{})
	var out []string
	for _, item := range v.items {
		if _, ok := seen[item.Location]; ok {
			continue
		}
		seen[item.Location] = struct{}{}
		out = append(out, item.Location)
	}
	sort.Strings(out)
	return out
}
