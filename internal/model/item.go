package model

// Condition enumerates the recognized physical states of an inventory item.
// The constants carry the backend's wire values.
type Condition string

const (
	ConditionAvailable   Condition = "TERSEDIA"
	ConditionUnderRepair Condition = "DALAM_PERBAIKAN"
	ConditionDamaged     Condition = "RUSAK"
)

// Label returns a human-readable name for the condition.
func (c Condition) Label() string {
	switch c {
	case ConditionAvailable:
		return "Available"
	case ConditionUnderRepair:
		return "Under Repair"
	case ConditionDamaged:
		return "Damaged"
	}
	return string(c)
}

// Item is a catalog entry. The client never owns it; every copy is a
// re-fetchable cache invalidated after any mutating call.
type Item struct {
	ID                int64     `json:"id"`
	Name              string    `json:"name"`
	Code              string    `json:"code"`
	Description       string    `json:"description"`
	Location          string    `json:"location"`
	Condition         Condition `json:"condition"`
	Quantity          int       `json:"quantity"`
	AvailableQuantity *int      `json:"available_quantity,omitempty"`
	Loans             []Loan    `json:"loans,omitempty"`
}

// Loanable reports whether a loan request may be started for the item.
func (i Item) Loanable() bool {
	return i.Condition == ConditionAvailable && i.Quantity > 0
}

// Stock is the quantity shown to a requester. The backend sends a separate
// available_quantity when units are reserved by open loans.
func (i Item) Stock() int {
	if i.AvailableQuantity != nil {
		return *i.AvailableQuantity
	}
	return i.Quantity
}

// OnLoan reports whether any loan of the item is still open. Items on loan
// cannot be edited or deleted.
func (i Item) OnLoan() bool {
	for _, l := range i.Loans {
		if l.ReturnDate == nil {
			return true
		}
	}
	return false
}
