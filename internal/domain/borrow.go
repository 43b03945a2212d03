package domain

import (
	"encoding/json"
	"time"
)

// BorrowStatus is the lifecycle state of a borrow slip.
type BorrowStatus string

// Borrow statuses. The backend owns transitions; the desk only creates
// slips as active.
const (
	BorrowActive   BorrowStatus = "active"
	BorrowReturned BorrowStatus = "returned"
	BorrowOverdue  BorrowStatus = "overdue"
)

// BorrowStatuses lists every valid status in display order.
var BorrowStatuses = []BorrowStatus{BorrowActive, BorrowReturned, BorrowOverdue}

// Valid reports whether s is a known status.
func (s BorrowStatus) Valid() bool {
	switch s {
	case BorrowActive, BorrowReturned, BorrowOverdue:
		return true
	}
	return false
}

// Borrow is a borrow slip: one book lent to one reader.
type Borrow struct {
	ID            ID           `json:"id,omitempty" validate:"required"`
	BookTitle     string       `json:"bookTitle" validate:"required"`
	BorrowerName  string       `json:"borrowerName"`
	BorrowerPhone string       `json:"borrowerPhone,omitempty"`
	BorrowerEmail string       `json:"borrowerEmail,omitempty"`
	BorrowDate    Timestamp    `json:"borrowDate"`
	DueDate       Date         `json:"dueDate"`
	Status        BorrowStatus `json:"status" validate:"borrowstatus"`
}

// Key returns the slip identifier.
func (b Borrow) Key() ID { return b.ID }

// PastDue reports whether an active slip's due date is before now's calendar
// day. It does not change Status; overdue is assigned by the backend.
func (b Borrow) PastDue(now time.Time) bool {
	if b.Status != BorrowActive || b.DueDate.IsZero() {
		return false
	}
	return b.DueDate.Before(now)
}

// UnmarshalJSON accepts the transaction field names the list endpoint uses:
// "transactionId", "memberName" and "transactionDate".
func (b *Borrow) UnmarshalJSON(data []byte) error {
	type plain Borrow
	var wire struct {
		plain
		TransactionID   ID        `json:"transactionId"`
		MemberName      string    `json:"memberName"`
		TransactionDate Timestamp `json:"transactionDate"`
	}
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}
	*b = Borrow(wire.plain)
	b.ID = firstID(b.ID, wire.TransactionID)
	b.BorrowerName = firstString(b.BorrowerName, wire.MemberName)
	if b.BorrowDate.IsZero() {
		b.BorrowDate = wire.TransactionDate
	}
	return nil
}
