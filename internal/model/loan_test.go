package model

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func boolPtr(b bool) *bool { return &b }

func TestLoanDisplayStatus(t *testing.T) {
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

	testCases := []struct {
		name     string
		loan     Loan
		expected LoanStatus
	}{
		{
			name:     "borrowed before due date stays borrowed",
			loan:     Loan{Status: StatusBorrowed, DueDate: NewDate(now.AddDate(0, 0, 2))},
			expected: StatusBorrowed,
		},
		{
			name:     "borrowed past due date shows overdue",
			loan:     Loan{Status: StatusBorrowed, DueDate: NewDate(now.AddDate(0, 0, -2))},
			expected: StatusOverdue,
		},
		{
			name:     "returned loan past due date is not overdue",
			loan:     Loan{Status: StatusReturned, DueDate: NewDate(now.AddDate(0, 0, -2))},
			expected: StatusReturned,
		},
		{
			name:     "awaiting loan is never overdue",
			loan:     Loan{Status: StatusAwaiting, DueDate: NewDate(now.AddDate(0, 0, -2))},
			expected: StatusAwaiting,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, tc.loan.DisplayStatus(now))
		})
	}
}

func TestLoanCanRequestExtension(t *testing.T) {
	testCases := []struct {
		name     string
		loan     Loan
		expected bool
	}{
		{
			name:     "borrowed with no prior request",
			loan:     Loan{Status: StatusBorrowed},
			expected: true,
		},
		{
			name:     "pending request blocks a second one",
			loan:     Loan{Status: StatusBorrowed, ExtensionRequested: true},
			expected: false,
		},
		{
			name:     "approved extension blocks a second one",
			loan:     Loan{Status: StatusBorrowed, ExtensionRequested: true, ExtensionApproved: boolPtr(true), IsExtended: true},
			expected: false,
		},
		{
			name:     "rejected extension may be re-requested",
			loan:     Loan{Status: StatusBorrowed, ExtensionRequested: true, ExtensionApproved: boolPtr(false)},
			expected: true,
		},
		{
			name:     "awaiting loan cannot be extended",
			loan:     Loan{Status: StatusAwaiting},
			expected: false,
		},
		{
			name:     "returned loan cannot be extended",
			loan:     Loan{Status: StatusReturned},
			expected: false,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, tc.loan.CanRequestExtension())
		})
	}
}

func TestLoanExtensionState(t *testing.T) {
	assert.Equal(t, ExtensionNone, Loan{Status: StatusBorrowed}.ExtensionState())
	assert.Equal(t, ExtensionPending, Loan{Status: StatusBorrowed, ExtensionRequested: true}.ExtensionState())
	assert.Equal(t, ExtensionRejected, Loan{Status: StatusBorrowed, ExtensionRequested: true, ExtensionApproved: boolPtr(false)}.ExtensionState())
	assert.Equal(t, ExtensionApproved, Loan{Status: StatusBorrowed, ExtensionRequested: true, ExtensionApproved: boolPtr(true), IsExtended: true}.ExtensionState())
}

func TestLoanPredicates(t *testing.T) {
	assert.True(t, Loan{Status: StatusAwaiting}.AwaitingDecision())
	assert.False(t, Loan{Status: StatusBorrowed}.AwaitingDecision())

	assert.True(t, Loan{Status: StatusBorrowed}.CanReturn())
	assert.False(t, Loan{Status: StatusReturned}.CanReturn())

	assert.True(t, Loan{Status: StatusReturned}.Terminal())
	assert.True(t, Loan{Status: StatusRejected}.Terminal())
	assert.False(t, Loan{Status: StatusBorrowed}.Terminal())
	assert.False(t, Loan{Status: StatusAwaiting}.Terminal())
}

func TestItemLoanable(t *testing.T) {
	assert.True(t, Item{Condition: ConditionAvailable, Quantity: 1}.Loanable())
	assert.False(t, Item{Condition: ConditionAvailable, Quantity: 0}.Loanable())
	assert.False(t, Item{Condition: ConditionUnderRepair, Quantity: 5}.Loanable())
	assert.False(t, Item{Condition: ConditionDamaged, Quantity: 5}.Loanable())
}

func TestItemStock(t *testing.T) {
	available := 3
	assert.Equal(t, 3, Item{Quantity: 5, AvailableQuantity: &available}.Stock())
	assert.Equal(t, 5, Item{Quantity: 5}.Stock())
}

func TestItemOnLoan(t *testing.T) {
	returned := NewDate(time.Now())
	assert.False(t, Item{}.OnLoan())
	assert.False(t, Item{Loans: []Loan{{ReturnDate: &returned}}}.OnLoan())
	assert.True(t, Item{Loans: []Loan{{ReturnDate: &returned}, {}}}.OnLoan())
}

func TestUserUnderPenalty(t *testing.T) {
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	future := now.AddDate(0, 0, 3)
	past := now.AddDate(0, 0, -3)

	assert.False(t, User{}.UnderPenalty(now))
	assert.True(t, User{PenaltyUntil: &future}.UnderPenalty(now))
	assert.False(t, User{PenaltyUntil: &past}.UnderPenalty(now))
}

func TestDateUnmarshal(t *testing.T) {
	testCases := []struct {
		name     string
		payload  string
		expected string
		wantErr  bool
	}{
		{name: "bare date", payload: `"2025-06-15"`, expected: "2025-06-15"},
		{name: "rfc3339 timestamp", payload: `"2025-06-15T10:30:00Z"`, expected: "2025-06-15"},
		{name: "sql timestamp", payload: `"2025-06-15 10:30:00"`, expected: "2025-06-15"},
		{name: "null is zero", payload: `null`, expected: "0001-01-01"},
		{name: "empty string is zero", payload: `""`, expected: "0001-01-01"},
		{name: "garbage is rejected", payload: `"not-a-date"`, wantErr: true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			var d Date
			err := json.Unmarshal([]byte(tc.payload), &d)
			if tc.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.expected, d.Format("2006-01-02"))
		})
	}
}

func TestDateMarshal(t *testing.T) {
	d := NewDate(time.Date(2025, 6, 15, 23, 45, 0, 0, time.UTC))
	b, err := json.Marshal(d)
	require.NoError(t, err)
	assert.Equal(t, `"2025-06-15"`, string(b))

	b, err = json.Marshal(Date{})
	require.NoError(t, err)
	assert.Equal(t, "null", string(b))
}
