package view

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"labloan-client/internal/apitest"
	"labloan-client/internal/model"
)

func seedBorrowed(backend *apitest.Server, itemID, userID int64, due time.Time) model.Loan {
	return backend.SeedLoan(model.Loan{
		ItemID: itemID, UserID: userID, Quantity: 1,
		LoanDate: model.NewDate(due.AddDate(0, 0, -7)),
		DueDate:  model.NewDate(due),
		Status:   model.StatusBorrowed,
	})
}

func TestActiveLoansListsOnlyBorrowed(t *testing.T) {
	backend, client := newTestGateway(t, "stud-tok")
	student := seedStudent(backend, "stud-tok")
	other := seedStudent(backend, "other-tok")

	item := backend.SeedItem(model.Item{
		Name: "Tripod", Code: "TRP-01", Location: "Lab A",
		Condition: model.ConditionAvailable, Quantity: 4,
	})
	mine := seedBorrowed(backend, item.ID, student.ID, time.Now().AddDate(0, 0, 3))
	backend.SeedLoan(model.Loan{ItemID: item.ID, UserID: student.ID, Status: model.StatusReturned})
	backend.SeedLoan(model.Loan{ItemID: item.ID, UserID: student.ID, Status: model.StatusAwaiting})
	seedBorrowed(backend, item.ID, other.ID, time.Now().AddDate(0, 0, 3))

	ctx := context.Background()
	v := NewActiveLoans(client)
	require.NoError(t, v.Refresh(ctx))

	require.Len(t, v.Loans(), 1, "returned, pending and other users' loans are excluded")
	assert.Equal(t, mine.ID, v.Loans()[0].ID)
	require.NotNil(t, v.Loans()[0].Item)
	assert.Equal(t, "Tripod", v.Loans()[0].Item.Name)
}

func TestActiveLoansExtensionRoundTrip(t *testing.T) {
	backend, client := newTestGateway(t, "stud-tok")
	student := seedStudent(backend, "stud-tok")
	item := backend.SeedItem(model.Item{
		Name: "Tripod", Code: "TRP-01", Location: "Lab A",
		Condition: model.ConditionAvailable, Quantity: 4,
	})
	loan := seedBorrowed(backend, item.ID, student.ID, time.Now().AddDate(0, 0, 3))

	ctx := context.Background()
	v := NewActiveLoans(client)
	require.NoError(t, v.Refresh(ctx))

	res, err := v.RequestExtension(ctx, loan.ID)
	require.NoError(t, err)
	assert.Equal(t, "Extension requested", res.Message)
	assert.Equal(t, model.ExtensionPending, v.Loans()[0].ExtensionState())

	// A second request while the first is pending is refused locally.
	_, err = v.RequestExtension(ctx, loan.ID)
	assert.ErrorIs(t, err, ErrActionNotAllowed)
}

func TestActiveLoansReturnRestocks(t *testing.T) {
	backend, client := newTestGateway(t, "stud-tok")
	student := seedStudent(backend, "stud-tok")
	item := backend.SeedItem(model.Item{
		Name: "Tripod", Code: "TRP-01", Location: "Lab A",
		Condition: model.ConditionAvailable, Quantity: 3,
	})
	loan := backend.SeedLoan(model.Loan{
		ItemID: item.ID, UserID: student.ID, Quantity: 2,
		DueDate: model.NewDate(time.Now().AddDate(0, 0, -1)),
		Status:  model.StatusBorrowed,
	})

	ctx := context.Background()
	v := NewActiveLoans(client)
	require.NoError(t, v.Refresh(ctx))

	// Overdue loans are still returnable.
	require.True(t, v.Loans()[0].Overdue(time.Now()))

	res, err := v.Return(ctx, loan.ID)
	require.NoError(t, err)
	assert.Equal(t, "Item returned successfully", res.Message)
	assert.Empty(t, v.Loans(), "the returned loan leaves the active listing")

	stored, ok := backend.Item(item.ID)
	require.True(t, ok)
	assert.Equal(t, 5, stored.Quantity, "the returned quantity goes back into stock")

	fetched, ok := backend.Loan(loan.ID)
	require.True(t, ok)
	assert.Equal(t, model.StatusReturned, fetched.Status)
	assert.NotNil(t, fetched.ReturnDate)

	_, err = v.Return(ctx, loan.ID)
	assert.ErrorIs(t, err, ErrUnknownLoan)
}

func TestActiveLoansPageSnapsAfterShrink(t *testing.T) {
	backend, client := newTestGateway(t, "stud-tok")
	student := seedStudent(backend, "stud-tok")
	item := backend.SeedItem(model.Item{
		Name: "Cable", Code: "CBL-01", Location: "Lab A",
		Condition: model.ConditionAvailable, Quantity: 50,
	})
	// Eleven borrowed loans span two server pages of ten.
	var last model.Loan
	for i := 0; i < 11; i++ {
		last = seedBorrowed(backend, item.ID, student.ID, time.Now().AddDate(0, 0, 5))
	}

	ctx := context.Background()
	v := NewActiveLoans(client)
	require.NoError(t, v.Refresh(ctx))
	require.Equal(t, 2, v.LastPage())

	require.NoError(t, v.GoTo(ctx, 2))
	require.Len(t, v.Loans(), 1)

	// Returning the sole page-two loan shrinks the listing to one page; the
	// view snaps back instead of showing an empty page.
	_, err := v.Return(ctx, last.ID)
	require.NoError(t, err)

	assert.Equal(t, 1, v.CurrentPage())
	assert.Equal(t, 1, v.LastPage())
	assert.Len(t, v.Loans(), 10)
}

func TestActiveLoansRowBusyGating(t *testing.T) {
	backend, client := newTestGateway(t, "stud-tok")
	student := seedStudent(backend, "stud-tok")
	item := backend.SeedItem(model.Item{
		Name: "Tripod", Code: "TRP-01", Location: "Lab A",
		Condition: model.ConditionAvailable, Quantity: 4,
	})
	loan := seedBorrowed(backend, item.ID, student.ID, time.Now().AddDate(0, 0, 3))

	ctx := context.Background()
	v := NewActiveLoans(client)
	require.NoError(t, v.Refresh(ctx))

	assert.False(t, v.Busy(loan.ID))
	_, err := v.Return(ctx, loan.ID)
	require.NoError(t, err)
	assert.False(t, v.Busy(loan.ID), "the busy flag clears once the action resolves")
}
