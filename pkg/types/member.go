package types

import "github.com/google/uuid"

// BorrowLimit is the maximum number of books a member may hold at once.
const BorrowLimit = 5

// Member is a registered borrower. Borrowed holds one ISBN per copy held,
// so a member who borrows two copies of the same book lists it twice.
type Member struct {
	MemberID string   `json:"member_id"`
	Name     string   `json:"name"`
	Borrowed []string `json:"borrowed_books"`
}

// CanBorrow reports whether the member is under the borrow limit.
func (m Member) CanBorrow() bool {
	return len(m.Borrowed) < BorrowLimit
}

// Holds reports whether the member currently holds a copy of isbn.
func (m Member) Holds(isbn string) bool {
	for _, id := range m.Borrowed {
		if id == isbn {
			return true
		}
	}
	return false
}

// NewMemberID returns a fresh UUID v7 member ID, falling back to v4.
func NewMemberID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.New().String()
	}
	return id.String()
}
