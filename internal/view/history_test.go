package view

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"labloan-client/internal/model"
)

func TestHistoryListsOnlyCompletedLoans(t *testing.T) {
	backend, client := newTestGateway(t, "stud-tok")
	student := seedStudent(backend, "stud-tok")
	item := backend.SeedItem(model.Item{
		Name: "Router", Code: "RTR-01", Location: "Lab A",
		Condition: model.ConditionAvailable, Quantity: 4,
	})

	returned := model.NewDate(time.Now())
	backend.SeedLoan(model.Loan{ItemID: item.ID, UserID: student.ID, Status: model.StatusReturned, ReturnDate: &returned})
	backend.SeedLoan(model.Loan{ItemID: item.ID, UserID: student.ID, Status: model.StatusRejected})
	backend.SeedLoan(model.Loan{ItemID: item.ID, UserID: student.ID, Status: model.StatusBorrowed})
	backend.SeedLoan(model.Loan{ItemID: item.ID, UserID: student.ID, Status: model.StatusAwaiting})

	ctx := context.Background()
	v := NewHistory(client)
	require.NoError(t, v.Refresh(ctx))

	require.Len(t, v.Loans(), 2, "open loans never show up in the history")
	for _, l := range v.Loans() {
		assert.True(t, l.Terminal())
	}
}

func TestHistoryPaging(t *testing.T) {
	backend, client := newTestGateway(t, "stud-tok")
	student := seedStudent(backend, "stud-tok")
	item := backend.SeedItem(model.Item{
		Name: "Router", Code: "RTR-01", Location: "Lab A",
		Condition: model.ConditionAvailable, Quantity: 4,
	})
	for i := 0; i < 12; i++ {
		backend.SeedLoan(model.Loan{ItemID: item.ID, UserID: student.ID, Status: model.StatusReturned})
	}

	ctx := context.Background()
	v := NewHistory(client)
	require.NoError(t, v.Refresh(ctx))
	assert.Equal(t, 2, v.LastPage())
	assert.Len(t, v.Loans(), 10)

	require.NoError(t, v.GoTo(ctx, 2))
	assert.Equal(t, 2, v.CurrentPage())
	assert.Len(t, v.Loans(), 2)

	// Out-of-range requests clamp instead of fetching an empty page.
	require.NoError(t, v.GoTo(ctx, 99))
	assert.Equal(t, 2, v.CurrentPage())
}
