package view

import (
	"context"

	"labloan-client/internal/gateway"
	"labloan-client/internal/model"
	"labloan-client/internal/paging"
)

// ActiveLoans lists the caller's borrowed items. Filtering and pagination are
// server-side; the view only tracks the page cursor and per-row busy flags.
type ActiveLoans struct {
	gw *gateway.Client

	loans    []model.Loan
	page     int
	lastPage int
	busy     map[int64]bool
}

// NewActiveLoans returns an empty view. Call Refresh before anything else.
func NewActiveLoans(gw *gateway.Client) *ActiveLoans {
	return &ActiveLoans{gw: gw, page: 1, lastPage: 1, busy: make(map[int64]bool)}
}

// Refresh re-fetches the current page. When the page fell off the end of a
// shrunken listing, it snaps to the last page and fetches again.
func (v *ActiveLoans) Refresh(ctx context.Context) error {
	p, err := v.gw.ActiveLoans(ctx, v.page)
	if err != nil {
		return err
	}
	v.lastPage = p.LastPage
	if v.lastPage < 1 {
		v.lastPage = 1
	}
	if v.page > v.lastPage {
		v.page = v.lastPage
		if p, err = v.gw.ActiveLoans(ctx, v.page); err != nil {
			return err
		}
	}
	v.loans = p.Data
	return nil
}

// Loans returns the rows of the current page.
func (v *ActiveLoans) Loans() []model.Loan {
	return v.loans
}

// CurrentPage is the 1-based server page.
func (v *ActiveLoans) CurrentPage() int {
	return v.page
}

// LastPage is the server-reported page count.
func (v *ActiveLoans) LastPage() int {
	return v.lastPage
}

// PageNumbers is the sliding window of page controls to render.
func (v *ActiveLoans) PageNumbers() []int {
	return paging.Window(v.page, v.lastPage, pageWindow)
}

// GoTo moves the page cursor and re-fetches.
func (v *ActiveLoans) GoTo(ctx context.Context, page int) error {
	v.page = paging.Clamp(page, v.lastPage)
	return v.Refresh(ctx)
}

// Next advances one page and re-fetches.
func (v *ActiveLoans) Next(ctx context.Context) error {
	return v.GoTo(ctx, v.page+1)
}

// Prev goes back one page and re-fetches.
func (v *ActiveLoans) Prev(ctx context.Context) error {
	return v.GoTo(ctx, v.page-1)
}

// Busy reports whether the row's action is still in flight.
func (v *ActiveLoans) Busy(loanID int64) bool {
	return v.busy[loanID]
}

func (v *ActiveLoans) find(loanID int64) (model.Loan, bool) {
	for _, l := range v.loans {
		if l.ID == loanID {
			return l, true
		}
	}
	return model.Loan{}, false
}

func (v *ActiveLoans) act(ctx context.Context, loanID int64, eligible func(model.Loan) bool, call func(context.Context, int64) (gateway.Result, error)) (gateway.Result, error) {
	if v.busy[loanID] {
		return gateway.Result{}, ErrRowBusy
	}
	loan, ok := v.find(loanID)
	if !ok {
		return gateway.Result{}, ErrUnknownLoan
	}
	if !eligible(loan) {
		return gateway.Result{}, ErrActionNotAllowed
	}

	v.busy[loanID] = true
	res, err := call(ctx, loanID)
	delete(v.busy, loanID)

	if err != nil {
		return gateway.Result{}, err
	}
	if err := v.Refresh(ctx); err != nil {
		return res, err
	}
	return res, nil
}

// RequestExtension asks for the fixed 7-day extension. Allowed while the
// loan is borrowed and no extension request is pending or approved; a
// rejected request may be retried. The resulting due date comes from the
// backend via the re-fetch.
func (v *ActiveLoans) RequestExtension(ctx context.Context, loanID int64) (gateway.Result, error) {
	return v.act(ctx, loanID, model.Loan.CanRequestExtension, v.gw.RequestExtension)
}

// Return hands the item back. The derived overdue display state changes
// nothing here: overdue loans are still borrowed and still returnable.
func (v *ActiveLoans) Return(ctx context.Context, loanID int64) (gateway.Result, error) {
	return v.act(ctx, loanID, model.Loan.CanReturn, v.gw.ReturnLoan)
}
