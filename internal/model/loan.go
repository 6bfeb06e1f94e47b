package model

import "time"

// LoanStatus is a loan's lifecycle state as stored by the backend. The
// constants carry the backend's wire values.
type LoanStatus string

const (
	StatusAwaiting LoanStatus = "Menunggu Konfirmasi"
	StatusBorrowed LoanStatus = "Dipinjam"
	StatusReturned LoanStatus = "Dikembalikan"
	StatusRejected LoanStatus = "Ditolak"

	// StatusOverdue is derived for display only; the backend never stores it.
	StatusOverdue LoanStatus = "Terlambat"
)

// ExtensionState describes where a loan's extension request stands.
type ExtensionState string

const (
	ExtensionNone     ExtensionState = "none"
	ExtensionPending  ExtensionState = "pending"
	ExtensionApproved ExtensionState = "approved"
	ExtensionRejected ExtensionState = "rejected"
)

// Loan is a borrow record. Extension fields are only meaningful while the
// loan is in StatusBorrowed.
type Loan struct {
	ID                 int64      `json:"id"`
	ItemID             int64      `json:"item_id"`
	UserID             int64      `json:"user_id"`
	Item               *Item      `json:"item,omitempty"`
	User               *User      `json:"user,omitempty"`
	Quantity           int        `json:"quantity"`
	Purpose            string     `json:"purpose"`
	LoanDate           Date       `json:"loan_date"`
	DueDate            Date       `json:"due_date"`
	ReturnDate         *Date      `json:"return_date,omitempty"`
	Status             LoanStatus `json:"status"`
	ExtensionRequested bool       `json:"extension_requested"`
	ExtensionApproved  *bool      `json:"extension_approved"`
	IsExtended         bool       `json:"is_extended"`
}

// Overdue reports whether a borrowed loan has passed its due date.
func (l Loan) Overdue(now time.Time) bool {
	return l.Status == StatusBorrowed && l.DueDate.Before(now)
}

// DisplayStatus is the status shown to the user: StatusOverdue for a borrowed
// loan past its due date, the stored status otherwise.
func (l Loan) DisplayStatus(now time.Time) LoanStatus {
	if l.Overdue(now) {
		return StatusOverdue
	}
	return l.Status
}

// AwaitingDecision reports whether the approve/reject pair applies.
func (l Loan) AwaitingDecision() bool {
	return l.Status == StatusAwaiting
}

// ExtensionPendingDecision reports whether an extension request is waiting
// for an administrator.
func (l Loan) ExtensionPendingDecision() bool {
	return l.ExtensionRequested && l.ExtensionApproved == nil
}

// CanRequestExtension reports whether the borrower may ask for an extension.
// A rejected request may be re-requested; a pending or approved one may not.
func (l Loan) CanRequestExtension() bool {
	if l.Status != StatusBorrowed {
		return false
	}
	if !l.ExtensionRequested {
		return true
	}
	return l.ExtensionApproved != nil && !*l.ExtensionApproved
}

// CanReturn reports whether the borrower may return the loan. The derived
// overdue state does not change the rule: overdue loans are still borrowed.
func (l Loan) CanReturn() bool {
	return l.Status == StatusBorrowed
}

// Terminal reports whether the loan reached a final state.
func (l Loan) Terminal() bool {
	return l.Status == StatusReturned || l.Status == StatusRejected
}

// ExtensionState summarizes the extension fields for display.
func (l Loan) ExtensionState() ExtensionState {
	switch {
	case l.IsExtended:
		return ExtensionApproved
	case l.ExtensionRequested && l.ExtensionApproved != nil && !*l.ExtensionApproved:
		return ExtensionRejected
	case l.ExtensionRequested:
		return ExtensionPending
	}
	return ExtensionNone
}
