package borrowing

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/rkostiv253/library-service/model"
	brepo "github.com/rkostiv253/library-service/repository/borrowing"
	"github.com/rkostiv253/library-service/util/database"
)

// Filter = repository shape
type Filter = brepo.Filter

// Caller identifies who is asking. Admin callers may see and filter any
// user's borrowings; everyone else is scoped to their own.
type Caller struct {
	UserID int64
	Admin  bool
}

// ItemInput is one requested line of a new borrowing. Nil dates take the
// defaults: borrow date today, expected return borrow date + loan period.
type ItemInput struct {
	BookID             int64
	Quantity           int64
	BorrowDate         *time.Time
	ExpectedReturnDate *time.Time
}

type Repo interface {
	LockBook(ctx context.Context, tx *sql.Tx, bookID int64) (*model.Book, error)
	ReserveInventory(ctx context.Context, tx *sql.Tx, bookID, quantity int64) (bool, error)
	ReleaseInventory(ctx context.Context, tx *sql.Tx, bookID, quantity int64) error

	InsertBorrowing(ctx context.Context, tx *sql.Tx, userID int64) (*model.Borrowing, error)
	InsertItem(ctx context.Context, tx *sql.Tx, it *model.BorrowingItem) error
	LockBorrowing(ctx context.Context, tx *sql.Tx, id int64) (*model.Borrowing, error)
	LockItem(ctx context.Context, tx *sql.Tx, borrowingID, itemID int64) (*model.BorrowingItem, error)
	MarkItemReturned(ctx context.Context, tx *sql.Tx, itemID int64, date time.Time) error
	CountOpenItems(ctx context.Context, tx *sql.Tx, borrowingID int64) (int64, error)
	SetStatus(ctx context.Context, tx *sql.Tx, borrowingID int64, status model.BorrowingStatus) error

	Detail(ctx context.Context, id int64) (*model.Borrowing, error)
	List(ctx context.Context, f Filter) ([]model.Borrowing, error)
}

type Service interface {
	// Create opens a borrowing with its items in one transaction,
	// reserving inventory for each item. All-or-nothing.
	Create(ctx context.Context, userID int64, items []ItemInput) (*model.Borrowing, error)

	// ReturnItem marks one open item returned, releases its inventory and
	// closes the borrowing when no open items remain.
	ReturnItem(ctx context.Context, caller Caller, borrowingID, itemID int64, returnDate *time.Time) (*model.BorrowingItem, error)

	List(ctx context.Context, caller Caller, f Filter) ([]model.Borrowing, error)
	Detail(ctx context.Context, caller Caller, id int64) (*model.Borrowing, error)
}

type service struct {
	tx       database.TxRunner
	r        Repo
	loanDays int
}

func New(tx database.TxRunner, r Repo, loanPeriodDays int) Service {
	return &service{tx: tx, r: r, loanDays: loanPeriodDays}
}

// today returns the current date with the time part zeroed (UTC).
func today() time.Time {
	y, m, d := time.Now().UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// validateItems applies defaults and checks every invariant before any
// inventory is touched. Returned items are ready to insert.
func (s *service) validateItems(inputs []ItemInput) ([]model.BorrowingItem, error) {
	ve := ValidationError{}
	if len(inputs) == 0 {
		ve["items"] = "at least one item is required"
		return nil, ve
	}

	now := today()
	seen := make(map[int64]bool, len(inputs))
	items := make([]model.BorrowingItem, 0, len(inputs))

	for i, in := range inputs {
		field := func(name string) string { return fmt.Sprintf("items.%d.%s", i, name) }

		if in.BookID <= 0 {
			ve[field("book_id")] = "book_id is required"
		}
		if in.Quantity < 1 {
			ve[field("quantity")] = "quantity must be greater than 0"
		}
		if seen[in.BookID] {
			ve[field("book_id")] = "book already present in this borrowing"
		}
		seen[in.BookID] = true

		borrowDate := now
		if in.BorrowDate != nil {
			borrowDate = *in.BorrowDate
		}
		expected := borrowDate.AddDate(0, 0, s.loanDays)
		if in.ExpectedReturnDate != nil {
			expected = *in.ExpectedReturnDate
		}
		if expected.Before(borrowDate) {
			ve[field("expected_return_date")] = "expected return date cannot be before borrow date"
		}

		items = append(items, model.BorrowingItem{
			BookID:             in.BookID,
			Quantity:           in.Quantity,
			BorrowDate:         borrowDate,
			ExpectedReturnDate: expected,
		})
	}
	if len(ve) > 0 {
		return nil, ve
	}
	return items, nil
}

func (s *service) Create(ctx context.Context, userID int64, inputs []ItemInput) (*model.Borrowing, error) {
	items, err := s.validateItems(inputs)
	if err != nil {
		return nil, err
	}

	var out *model.Borrowing
	err = s.tx.WithTx(ctx, func(tx *sql.Tx) error {
		b, err := s.r.InsertBorrowing(ctx, tx, userID)
		if err != nil {
			return err
		}

		for i := range items {
			it := &items[i]
			it.BorrowingID = b.ID

			book, err := s.r.LockBook(ctx, tx, it.BookID)
			if err != nil {
				if errors.Is(err, sql.ErrNoRows) {
					return makeErr(ErrBookNotFound, fmt.Sprintf("book %d not found", it.BookID))
				}
				return err
			}
			if book.Inventory < it.Quantity {
				return makeErr(ErrNoStock,
					fmt.Sprintf("only %d copies of %q are available", book.Inventory, book.Title))
			}

			ok, err := s.r.ReserveInventory(ctx, tx, it.BookID, it.Quantity)
			if err != nil {
				return err
			}
			if !ok {
				return makeErr(ErrNoStock,
					fmt.Sprintf("only %d copies of %q are available", book.Inventory, book.Title))
			}

			if err := s.r.InsertItem(ctx, tx, it); err != nil {
				return err
			}
			book.Inventory -= it.Quantity
			it.Book = book
		}

		b.Items = items
		out = b
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *service) ReturnItem(ctx context.Context, caller Caller, borrowingID, itemID int64, returnDate *time.Time) (*model.BorrowingItem, error) {
	date := today()
	if returnDate != nil {
		date = *returnDate
	}

	var out *model.BorrowingItem
	err := s.tx.WithTx(ctx, func(tx *sql.Tx) error {
		b, err := s.r.LockBorrowing(ctx, tx, borrowingID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return makeErr(ErrNotFound, "borrowing not found")
			}
			return err
		}
		// Non-admins must not learn that someone else's borrowing exists.
		if !caller.Admin && b.UserID != caller.UserID {
			return makeErr(ErrNotFound, "borrowing not found")
		}

		it, err := s.r.LockItem(ctx, tx, borrowingID, itemID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return makeErr(ErrItemNotFound, "borrowing item not found for this borrowing")
			}
			return err
		}
		if !it.Open() {
			return makeErr(ErrAlreadyReturned, "item already returned")
		}
		if date.Before(it.BorrowDate) {
			return ValidationError{"return_date": "return date cannot be before borrow date"}
		}

		if err := s.r.ReleaseInventory(ctx, tx, it.BookID, it.Quantity); err != nil {
			return err
		}
		if err := s.r.MarkItemReturned(ctx, tx, it.ID, date); err != nil {
			return err
		}
		it.ActualReturnDate = &date

		if err := s.recomputeStatus(ctx, tx, borrowingID); err != nil {
			return err
		}

		out = it
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// recomputeStatus re-derives the borrowing's status from its items. Runs
// in the same transaction as the return that triggered it; idempotent.
func (s *service) recomputeStatus(ctx context.Context, tx *sql.Tx, borrowingID int64) error {
	open, err := s.r.CountOpenItems(ctx, tx, borrowingID)
	if err != nil {
		return err
	}
	status := model.BorrowingClosed
	if open > 0 {
		status = model.BorrowingOpen
	}
	return s.r.SetStatus(ctx, tx, borrowingID, status)
}

func (s *service) List(ctx context.Context, caller Caller, f Filter) ([]model.Borrowing, error) {
	for _, st := range f.Statuses {
		if !st.Valid() {
			return nil, ValidationError{"status": fmt.Sprintf("unknown status %q", st)}
		}
	}
	if !caller.Admin {
		// The user filter is a privileged capability.
		f.UserIDs = nil
		f.OwnerID = caller.UserID
	}
	return s.r.List(ctx, f)
}

func (s *service) Detail(ctx context.Context, caller Caller, id int64) (*model.Borrowing, error) {
	b, err := s.r.Detail(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, makeErr(ErrNotFound, "borrowing not found")
		}
		return nil, err
	}
	if !caller.Admin && b.UserID != caller.UserID {
		return nil, makeErr(ErrNotFound, "borrowing not found")
	}
	return b, nil
}
