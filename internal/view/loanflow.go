package view

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"labloan-client/internal/gateway"
	"labloan-client/internal/model"
)

// maxLoanDays is the longest span between loan date and due date.
const maxLoanDays = 7

// FlowState tracks where a loan request stands.
type FlowState int

const (
	FlowIdle FlowState = iota
	FlowItemSelected
	FlowFormOpen
	FlowSubmitting
	FlowResolved
)

var (
	// ErrItemUnavailable means the item cannot enter a loan request: wrong
	// condition or no stock. The request control is disabled at the source.
	ErrItemUnavailable = errors.New("item is not available for loan")

	// ErrUnderPenalty means the form is suppressed for a penalized user.
	ErrUnderPenalty = errors.New("user is under an active penalty")

	// ErrSubmissionInFlight means a submission is already running for this
	// form instance.
	ErrSubmissionInFlight = errors.New("a submission is already in flight")
)

// Outcome is the resolution of a submitted loan request.
type Outcome struct {
	Success bool
	Message string
}

// LoanForm drives one loan-request sequence from item selection to the
// backend's verdict. It is bound to a single form instance; at most one
// submission is in flight at a time.
type LoanForm struct {
	gw   *gateway.Client
	user model.User

	state FlowState
	item  model.Item

	// penaltyUntil is snapshotted at form-open time; it is not re-evaluated
	// while the form stays open.
	penaltyUntil *time.Time
	today        time.Time

	loanDate time.Time
	dueDate  time.Time
	quantity int
	purpose  string

	inFlight bool
	outcome  *Outcome
}

// NewLoanForm returns an idle flow for the given caller.
func NewLoanForm(gw *gateway.Client, user model.User) *LoanForm {
	return &LoanForm{gw: gw, user: user, state: FlowIdle}
}

// State reports the flow's position.
func (f *LoanForm) State() FlowState {
	return f.state
}

// Item is the selected item.
func (f *LoanForm) Item() model.Item {
	return f.item
}

// Select picks an item. Only loanable items may enter the flow.
func (f *LoanForm) Select(item model.Item) error {
	if f.state != FlowIdle && f.state != FlowItemSelected {
		return fmt.Errorf("cannot select an item in flow state %d", f.state)
	}
	if !item.Loanable() {
		return ErrItemUnavailable
	}
	f.item = item
	f.state = FlowItemSelected
	return nil
}

// OpenForm opens the request form, defaulting the dates to [today, today+7].
// The penalty check happens here, against the supplied now, and is not
// re-evaluated afterwards.
func (f *LoanForm) OpenForm(now time.Time) error {
	if f.state != FlowItemSelected {
		return fmt.Errorf("no item selected")
	}

	f.today = truncateDay(now)
	if f.user.UnderPenalty(now) {
		f.penaltyUntil = f.user.PenaltyUntil
	} else {
		f.penaltyUntil = nil
	}

	f.loanDate = f.today
	f.dueDate = f.today.AddDate(0, 0, maxLoanDays)
	f.quantity = 1
	f.purpose = ""
	f.outcome = nil
	f.state = FlowFormOpen
	return nil
}

// Blocked reports whether the form is suppressed by an active penalty.
func (f *LoanForm) Blocked() bool {
	return f.penaltyUntil != nil
}

// PenaltyUntil is the penalty expiry shown instead of the form fields.
func (f *LoanForm) PenaltyUntil() time.Time {
	if f.penaltyUntil == nil {
		return time.Time{}
	}
	return *f.penaltyUntil
}

func (f *LoanForm) editable() error {
	if f.state != FlowFormOpen {
		return fmt.Errorf("form is not open")
	}
	if f.Blocked() {
		return ErrUnderPenalty
	}
	return nil
}

// SetLoanDate moves the loan date. Dates before today are rejected; moving
// the loan date past the due date pulls the due date forward to match.
func (f *LoanForm) SetLoanDate(d time.Time) error {
	if err := f.editable(); err != nil {
		return err
	}
	d = truncateDay(d)
	if d.Before(f.today) {
		return fmt.Errorf("loan date cannot be in the past")
	}
	f.loanDate = d
	if f.dueDate.Before(d) {
		f.dueDate = d
	}
	return nil
}

// SetDueDate moves the due date within [loan date, loan date + 7 days].
func (f *LoanForm) SetDueDate(d time.Time) error {
	if err := f.editable(); err != nil {
		return err
	}
	d = truncateDay(d)
	if d.Before(f.loanDate) || d.After(f.loanDate.AddDate(0, 0, maxLoanDays)) {
		return fmt.Errorf("due date must be within %d days of the loan date", maxLoanDays)
	}
	f.dueDate = d
	return nil
}

// SetQuantity stores the requested unit count. Range problems surface via
// Validate rather than here, so a half-typed value never loses the form.
func (f *LoanForm) SetQuantity(n int) error {
	if err := f.editable(); err != nil {
		return err
	}
	f.quantity = n
	return nil
}

// SetPurpose stores the free-text purpose.
func (f *LoanForm) SetPurpose(p string) error {
	if err := f.editable(); err != nil {
		return err
	}
	f.purpose = p
	return nil
}

// LoanDate returns the current loan date field.
func (f *LoanForm) LoanDate() time.Time { return f.loanDate }

// DueDate returns the current due date field.
func (f *LoanForm) DueDate() time.Time { return f.dueDate }

// Validate lists the field problems blocking submission.
func (f *LoanForm) Validate() []string {
	var problems []string
	if f.quantity < 1 || f.quantity > f.item.Quantity {
		problems = append(problems, fmt.Sprintf("quantity must be between 1 and %d", f.item.Quantity))
	}
	if strings.TrimSpace(f.purpose) == "" {
		problems = append(problems, "purpose must not be empty")
	}
	if f.dueDate.Before(f.loanDate) || f.dueDate.After(f.loanDate.AddDate(0, 0, maxLoanDays)) {
		problems = append(problems, fmt.Sprintf("due date must be within %d days of the loan date", maxLoanDays))
	}
	return problems
}

// CanSubmit reports whether the submit control is enabled.
func (f *LoanForm) CanSubmit() bool {
	return f.state == FlowFormOpen && !f.Blocked() && !f.inFlight && len(f.Validate()) == 0
}

// Submit sends the request. On success the flow resolves and the selection is
// cleared; on a backend failure the form stays open with its fields retained
// so the user can correct and retry. The returned outcome carries the
// server's message either way.
func (f *LoanForm) Submit(ctx context.Context) (Outcome, error) {
	if f.inFlight {
		return Outcome{}, ErrSubmissionInFlight
	}
	if f.state != FlowFormOpen {
		return Outcome{}, fmt.Errorf("form is not open")
	}
	if f.Blocked() {
		return Outcome{}, ErrUnderPenalty
	}
	if problems := f.Validate(); len(problems) > 0 {
		return Outcome{}, fmt.Errorf("form is not valid: %s", strings.Join(problems, "; "))
	}

	f.inFlight = true
	f.state = FlowSubmitting

	res, err := f.gw.SubmitLoan(ctx, gateway.LoanRequest{
		ItemID:   f.item.ID,
		LoanDate: model.NewDate(f.loanDate),
		DueDate:  model.NewDate(f.dueDate),
		Quantity: f.quantity,
		Purpose:  f.purpose,
	})
	f.inFlight = false

	if err != nil {
		outcome := Outcome{Success: false, Message: failureMessage(err)}
		f.outcome = &outcome
		// Control returns to the open form, fields retained.
		f.state = FlowFormOpen
		return outcome, nil
	}

	message := res.Message
	if message == "" {
		message = "Loan request submitted."
	}
	outcome := Outcome{Success: true, Message: message}
	f.outcome = &outcome
	f.item = model.Item{}
	f.state = FlowResolved
	return outcome, nil
}

// Outcome reports the last resolution, if any.
func (f *LoanForm) Outcome() (Outcome, bool) {
	if f.outcome == nil {
		return Outcome{}, false
	}
	return *f.outcome, true
}

// failureMessage prefers the server-supplied text over the generic one.
func failureMessage(err error) string {
	var apiErr *gateway.APIError
	if errors.As(err, &apiErr) {
		return apiErr.UserMessage()
	}
	return "Failed to submit the loan request."
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
