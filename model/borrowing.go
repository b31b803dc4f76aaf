// model/borrowing.go
package model

import "time"

type BorrowingStatus string

const (
	BorrowingOpen   BorrowingStatus = "OPEN"
	BorrowingClosed BorrowingStatus = "CLOSED"
)

func (s BorrowingStatus) Valid() bool {
	return s == BorrowingOpen || s == BorrowingClosed
}

type Borrowing struct {
	ID        int64           `json:"id"`
	UserID    int64           `json:"user_id"`
	CreatedAt time.Time       `json:"created_at"`
	Status    BorrowingStatus `json:"status"`
	Items     []BorrowingItem `json:"items,omitempty"`
	Books     []Book          `json:"books,omitempty"`
}

type BorrowingItem struct {
	ID                 int64      `json:"id"`
	BorrowingID        int64      `json:"borrowing_id"`
	BookID             int64      `json:"book_id"`
	Quantity           int64      `json:"quantity"`
	BorrowDate         time.Time  `json:"borrow_date"`
	ExpectedReturnDate time.Time  `json:"expected_return_date"`
	ActualReturnDate   *time.Time `json:"actual_return_date,omitempty"`
	Book               *Book      `json:"book,omitempty"`
}

// Open reports whether the item has not been returned yet.
func (i BorrowingItem) Open() bool { return i.ActualReturnDate == nil }

// DeriveStatus computes a borrowing's status from its items: CLOSED once
// every item has been returned, OPEN while at least one is outstanding.
func DeriveStatus(items []BorrowingItem) BorrowingStatus {
	for _, it := range items {
		if it.Open() {
			return BorrowingOpen
		}
	}
	return BorrowingClosed
}
