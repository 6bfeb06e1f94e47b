package view

import (
	"context"

	"labloan-client/internal/gateway"
	"labloan-client/internal/model"
	"labloan-client/internal/paging"
)

// History lists the caller's completed loans: returned and rejected ones.
// The endpoint pages the full history server-side; the terminal-status cut
// happens client-side per page.
type History struct {
	gw *gateway.Client

	loans    []model.Loan
	page     int
	lastPage int
}

// NewHistory returns an empty view. Call Refresh before anything else.
func NewHistory(gw *gateway.Client) *History {
	return &History{gw: gw, page: 1, lastPage: 1}
}

// Refresh re-fetches the current page.
func (v *History) Refresh(ctx context.Context) error {
	p, err := v.gw.Loans(ctx, v.page)
	if err != nil {
		return err
	}
	v.lastPage = p.LastPage
	if v.lastPage < 1 {
		v.lastPage = 1
	}

	loans := make([]model.Loan, 0, len(p.Data))
	for _, l := range p.Data {
		if l.Terminal() {
			loans = append(loans, l)
		}
	}
	v.loans = loans
	return nil
}

// Loans returns the completed loans on the current page.
func (v *History) Loans() []model.Loan {
	return v.loans
}

// CurrentPage is the 1-based server page.
func (v *History) CurrentPage() int {
	return v.page
}

// LastPage is the server-reported page count.
func (v *History) LastPage() int {
	return v.lastPage
}

// GoTo moves the page cursor and re-fetches.
func (v *History) GoTo(ctx context.Context, page int) error {
	v.page = paging.Clamp(page, v.lastPage)
	return v.Refresh(ctx)
}
