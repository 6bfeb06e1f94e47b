package view

import (
	"context"
	"errors"

	"labloan-client/internal/gateway"
	"labloan-client/internal/model"
	"labloan-client/internal/paging"
)

var (
	// ErrUnknownLoan means the acted-on loan is not in the fetched listing.
	ErrUnknownLoan = errors.New("loan is not in the current listing")

	// ErrRowBusy means the row's previous action has not resolved yet.
	ErrRowBusy = errors.New("an action for this loan is already in flight")

	// ErrActionNotAllowed means the loan's state does not permit the action.
	ErrActionNotAllowed = errors.New("the loan's state does not allow this action")
)

// Lifecycle is the administrator's loan board, backed by the dashboard
// endpoint: pending and active loans plus aggregate stats, with the four
// mutating decisions. Listing updates always come from a full re-fetch so
// backend-computed side effects (quantity changes, new due dates) are
// reflected; nothing is patched locally.
type Lifecycle struct {
	gw *gateway.Client

	stats      model.DashboardStats
	activities []model.Loan

	perPage int
	page    int
	busy    map[int64]bool
}

// NewLifecycle returns an empty board. Call Refresh before anything else.
func NewLifecycle(gw *gateway.Client, perPage int) *Lifecycle {
	return &Lifecycle{
		gw:      gw,
		perPage: perPage,
		page:    1,
		busy:    make(map[int64]bool),
	}
}

// Refresh re-fetches stats and activities, clamping the current page when the
// listing shrank under it.
func (v *Lifecycle) Refresh(ctx context.Context) error {
	d, err := v.gw.Dashboard(ctx)
	if err != nil {
		return err
	}
	v.stats = d.Stats
	v.activities = d.RecentActivities
	v.page = paging.Clamp(v.page, v.TotalPages())
	return nil
}

// Stats are the aggregate counters shown above the listing.
func (v *Lifecycle) Stats() model.DashboardStats {
	return v.stats
}

// Page returns the loans on the current page.
func (v *Lifecycle) Page() []model.Loan {
	lo, hi := paging.Slice(len(v.activities), v.page, v.perPage)
	return v.activities[lo:hi]
}

// CurrentPage is the 1-based page number.
func (v *Lifecycle) CurrentPage() int {
	return v.page
}

// TotalPages is the page count of the listing.
func (v *Lifecycle) TotalPages() int {
	return paging.TotalPages(len(v.activities), v.perPage)
}

// PageNumbers is the sliding window of page controls to render.
func (v *Lifecycle) PageNumbers() []int {
	return paging.Window(v.page, v.TotalPages(), pageWindow)
}

// GoTo jumps to a page, clamped to the valid range.
func (v *Lifecycle) GoTo(page int) {
	v.page = paging.Clamp(page, v.TotalPages())
}

// Busy reports whether the row's action is still in flight. Other rows stay
// interactive.
func (v *Lifecycle) Busy(loanID int64) bool {
	return v.busy[loanID]
}

func (v *Lifecycle) find(loanID int64) (model.Loan, bool) {
	for _, l := range v.activities {
		if l.ID == loanID {
			return l, true
		}
	}
	return model.Loan{}, false
}

// act runs one row action with per-row gating, then re-fetches the listing on
// success. A failed action leaves the listing untouched.
func (v *Lifecycle) act(ctx context.Context, loanID int64, eligible func(model.Loan) bool, call func(context.Context, int64) (gateway.Result, error)) (gateway.Result, error) {
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
		// The mutation took; only the re-fetch failed.
		return res, err
	}
	return res, nil
}

// Approve confirms a pending loan request.
func (v *Lifecycle) Approve(ctx context.Context, loanID int64) (gateway.Result, error) {
	return v.act(ctx, loanID, model.Loan.AwaitingDecision, v.gw.ApproveLoan)
}

// Reject declines a pending loan request.
func (v *Lifecycle) Reject(ctx context.Context, loanID int64) (gateway.Result, error) {
	return v.act(ctx, loanID, model.Loan.AwaitingDecision, v.gw.RejectLoan)
}

// ApproveExtension grants a pending extension request.
func (v *Lifecycle) ApproveExtension(ctx context.Context, loanID int64) (gateway.Result, error) {
	return v.act(ctx, loanID, model.Loan.ExtensionPendingDecision, v.gw.ApproveExtension)
}

// RejectExtension declines a pending extension request.
func (v *Lifecycle) RejectExtension(ctx context.Context, loanID int64) (gateway.Result, error) {
	return v.act(ctx, loanID, model.Loan.ExtensionPendingDecision, v.gw.RejectExtension)
}
