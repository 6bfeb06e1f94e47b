package gateway

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"labloan-client/internal/model"
)

// LoanRequest is the payload of POST /loans.
type LoanRequest struct {
	ItemID   int64      `json:"item_id"`
	LoanDate model.Date `json:"loan_date"`
	DueDate  model.Date `json:"due_date"`
	Quantity int        `json:"quantity"`
	Purpose  string     `json:"purpose"`
}

// SubmitLoan files a loan request. Availability and penalty rules are
// enforced server-side; the returned message is the server's confirmation.
func (c *Client) SubmitLoan(ctx context.Context, req LoanRequest) (Result, error) {
	var res Result
	if err := c.call(ctx, http.MethodPost, "/loans", nil, req, &res); err != nil {
		return Result{}, err
	}
	return res, nil
}

// loansEnvelope wraps the paginator the loan listings nest under "data".
type loansEnvelope struct {
	Data model.PagedLoans `json:"data"`
}

// Loans fetches one page of the caller's loan history.
func (c *Client) Loans(ctx context.Context, page int) (model.PagedLoans, error) {
	return c.loanListing(ctx, "/loans", page)
}

// ActiveLoans fetches one page of the caller's borrowed loans. Filtering is
// server-side via the dedicated endpoint.
func (c *Client) ActiveLoans(ctx context.Context, page int) (model.PagedLoans, error) {
	return c.loanListing(ctx, "/loans/active", page)
}

func (c *Client) loanListing(ctx context.Context, path string, page int) (model.PagedLoans, error) {
	query := url.Values{"page": []string{strconv.Itoa(page)}}

	var envelope loansEnvelope
	if err := c.call(ctx, http.MethodGet, path, query, nil, &envelope); err != nil {
		return model.PagedLoans{}, err
	}
	return envelope.Data, nil
}

// ApproveLoan confirms a pending request. Admin only; the backend reserves
// the item quantity as a side effect.
func (c *Client) ApproveLoan(ctx context.Context, id int64) (Result, error) {
	return c.loanAction(ctx, id, "approve")
}

// RejectLoan declines a pending request. Admin only.
func (c *Client) RejectLoan(ctx context.Context, id int64) (Result, error) {
	return c.loanAction(ctx, id, "reject")
}

// ApproveExtension grants a pending extension request. Admin only; the new
// due date is computed by the backend.
func (c *Client) ApproveExtension(ctx context.Context, id int64) (Result, error) {
	return c.loanAction(ctx, id, "approve-extension")
}

// RejectExtension declines a pending extension request. Admin only.
func (c *Client) RejectExtension(ctx context.Context, id int64) (Result, error) {
	return c.loanAction(ctx, id, "reject-extension")
}

// RequestExtension asks for the fixed 7-day extension on a borrowed loan.
func (c *Client) RequestExtension(ctx context.Context, id int64) (Result, error) {
	return c.loanAction(ctx, id, "request-extension")
}

func (c *Client) loanAction(ctx context.Context, id int64, action string) (Result, error) {
	path := fmt.Sprintf("/loans/%d/%s", id, action)

	var res Result
	if err := c.call(ctx, http.MethodPost, path, nil, struct{}{}, &res); err != nil {
		return Result{}, err
	}
	return res, nil
}

// ReturnLoan hands a borrowed item back by patching the loan status.
func (c *Client) ReturnLoan(ctx context.Context, id int64) (Result, error) {
	path := fmt.Sprintf("/loans/%d", id)
	body := map[string]model.LoanStatus{"status": model.StatusReturned}

	var res Result
	if err := c.call(ctx, http.MethodPatch, path, nil, body, &res); err != nil {
		return Result{}, err
	}
	return res, nil
}
