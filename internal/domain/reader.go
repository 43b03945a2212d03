package domain

import (
	"encoding/json"
	"strings"
)

// Reader is a registered library member.
type Reader struct {
	ID            ID             `json:"memberId,omitempty" validate:"required"`
	Name          string         `json:"name" validate:"required"`
	Email         string         `json:"email,omitempty"`
	Address       string         `json:"address,omitempty"`
	Phone         string         `json:"phoneNumber,omitempty"`
	BorrowedBooks []BorrowedBook `json:"borrowedBooks,omitempty" validate:"dive"`
}

// BorrowedBook summarizes one loan on a reader's record.
type BorrowedBook struct {
	Title      string       `json:"title"`
	BorrowDate Timestamp    `json:"borrowDate"`
	DueDate    Date         `json:"dueDate"`
	Status     BorrowStatus `json:"status"`
}

// Key returns the member identifier.
func (r Reader) Key() ID { return r.ID }

// MatchesContact reports whether the reader is the one identified by email or
// phone. Either contact matching is enough; empty inputs never match.
func (r Reader) MatchesContact(email, phone string) bool {
	if email != "" && strings.EqualFold(r.Email, email) {
		return true
	}
	return phone != "" && r.Phone == phone
}

// UnmarshalJSON accepts "id" for "memberId" and "phone" for "phoneNumber".
func (r *Reader) UnmarshalJSON(data []byte) error {
	type plain Reader
	var wire struct {
		plain
		AltID    ID     `json:"id"`
		AltPhone string `json:"phone"`
	}
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}
	*r = Reader(wire.plain)
	r.ID = firstID(r.ID, wire.AltID)
	r.Phone = firstString(r.Phone, wire.AltPhone)
	return nil
}
