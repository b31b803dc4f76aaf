package borrowing

import (
	"context"
	"database/sql"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/rkostiv253/library-service/model"
)

// fakeStore is an in-memory Repo + TxRunner. WithTx snapshots the state
// before running the unit of work and restores it when the work fails,
// mirroring the rollback the real store performs.
type fakeStore struct {
	books      map[int64]*model.Book
	borrowings map[int64]*model.Borrowing
	items      map[int64]*model.BorrowingItem
	nextID     int64
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		books:      map[int64]*model.Book{},
		borrowings: map[int64]*model.Borrowing{},
		items:      map[int64]*model.BorrowingItem{},
	}
}

func (s *fakeStore) addBook(id int64, title string, inventory int64) {
	s.books[id] = &model.Book{ID: id, Title: title, AuthorID: 1, GenreID: 1, Cover: model.CoverHard, Inventory: inventory}
}

func (s *fakeStore) clone() *fakeStore {
	c := newFakeStore()
	c.nextID = s.nextID
	for id, b := range s.books {
		cp := *b
		c.books[id] = &cp
	}
	for id, b := range s.borrowings {
		cp := *b
		c.borrowings[id] = &cp
	}
	for id, it := range s.items {
		cp := *it
		if it.ActualReturnDate != nil {
			d := *it.ActualReturnDate
			cp.ActualReturnDate = &d
		}
		c.items[id] = &cp
	}
	return c
}

func (s *fakeStore) WithTx(_ context.Context, fn func(tx *sql.Tx) error) error {
	snap := s.clone()
	if err := fn(nil); err != nil {
		s.books = snap.books
		s.borrowings = snap.borrowings
		s.items = snap.items
		s.nextID = snap.nextID
		return err
	}
	return nil
}

func (s *fakeStore) LockBook(_ context.Context, _ *sql.Tx, bookID int64) (*model.Book, error) {
	b, ok := s.books[bookID]
	if !ok {
		return nil, sql.ErrNoRows
	}
	cp := *b
	return &cp, nil
}

func (s *fakeStore) ReserveInventory(_ context.Context, _ *sql.Tx, bookID, quantity int64) (bool, error) {
	b, ok := s.books[bookID]
	if !ok || b.Inventory < quantity {
		return false, nil
	}
	b.Inventory -= quantity
	return true, nil
}

func (s *fakeStore) ReleaseInventory(_ context.Context, _ *sql.Tx, bookID, quantity int64) error {
	b, ok := s.books[bookID]
	if !ok {
		return sql.ErrNoRows
	}
	b.Inventory += quantity
	return nil
}

func (s *fakeStore) InsertBorrowing(_ context.Context, _ *sql.Tx, userID int64) (*model.Borrowing, error) {
	s.nextID++
	b := &model.Borrowing{ID: s.nextID, UserID: userID, CreatedAt: time.Now(), Status: model.BorrowingOpen}
	cp := *b
	s.borrowings[b.ID] = &cp
	return b, nil
}

func (s *fakeStore) InsertItem(_ context.Context, _ *sql.Tx, it *model.BorrowingItem) error {
	s.nextID++
	it.ID = s.nextID
	cp := *it
	cp.Book = nil
	s.items[it.ID] = &cp
	return nil
}

func (s *fakeStore) LockBorrowing(_ context.Context, _ *sql.Tx, id int64) (*model.Borrowing, error) {
	b, ok := s.borrowings[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	cp := *b
	return &cp, nil
}

func (s *fakeStore) LockItem(_ context.Context, _ *sql.Tx, borrowingID, itemID int64) (*model.BorrowingItem, error) {
	it, ok := s.items[itemID]
	if !ok || it.BorrowingID != borrowingID {
		return nil, sql.ErrNoRows
	}
	cp := *it
	return &cp, nil
}

func (s *fakeStore) MarkItemReturned(_ context.Context, _ *sql.Tx, itemID int64, date time.Time) error {
	it, ok := s.items[itemID]
	if !ok || it.ActualReturnDate != nil {
		return sql.ErrNoRows
	}
	d := date
	it.ActualReturnDate = &d
	return nil
}

func (s *fakeStore) CountOpenItems(_ context.Context, _ *sql.Tx, borrowingID int64) (int64, error) {
	var n int64
	for _, it := range s.items {
		if it.BorrowingID == borrowingID && it.ActualReturnDate == nil {
			n++
		}
	}
	return n, nil
}

func (s *fakeStore) SetStatus(_ context.Context, _ *sql.Tx, borrowingID int64, status model.BorrowingStatus) error {
	b, ok := s.borrowings[borrowingID]
	if !ok {
		return sql.ErrNoRows
	}
	b.Status = status
	return nil
}

func (s *fakeStore) Detail(_ context.Context, id int64) (*model.Borrowing, error) {
	b, ok := s.borrowings[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	cp := *b
	for _, it := range s.items {
		if it.BorrowingID == id {
			cp.Items = append(cp.Items, *it)
		}
	}
	sort.Slice(cp.Items, func(i, j int) bool { return cp.Items[i].ID < cp.Items[j].ID })
	return &cp, nil
}

func (s *fakeStore) List(_ context.Context, f Filter) ([]model.Borrowing, error) {
	var out []model.Borrowing
	for _, b := range s.borrowings {
		if f.OwnerID != 0 && b.UserID != f.OwnerID {
			continue
		}
		if len(f.UserIDs) > 0 && !containsInt(f.UserIDs, b.UserID) {
			continue
		}
		if len(f.Statuses) > 0 && !containsStatus(f.Statuses, b.Status) {
			continue
		}
		out = append(out, *b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func containsInt(xs []int64, x int64) bool {
	for _, v := range xs {
		if v == x {
			return true
		}
	}
	return false
}

func containsStatus(xs []model.BorrowingStatus, x model.BorrowingStatus) bool {
	for _, v := range xs {
		if v == x {
			return true
		}
	}
	return false
}

var _ Repo = (*fakeStore)(nil)

func newService(s *fakeStore) Service { return New(s, s, 20) }

func todayUTC() time.Time {
	y, m, d := time.Now().UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// --- tests ---

func TestCreate_ReservesInventory(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	store.addBook(1, "Kobzar", 5)
	svc := newService(store)

	b, err := svc.Create(ctx, 7, []ItemInput{{BookID: 1, Quantity: 2}})
	require.NoError(t, err)
	require.Equal(t, model.BorrowingOpen, b.Status)
	require.Len(t, b.Items, 1)

	it := b.Items[0]
	require.True(t, it.Open())
	require.Equal(t, todayUTC(), it.BorrowDate)
	require.Equal(t, todayUTC().AddDate(0, 0, 20), it.ExpectedReturnDate)
	require.Equal(t, int64(3), store.books[1].Inventory)
}

func TestReturn_RestoresInventoryAndCloses(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	store.addBook(1, "Kobzar", 5)
	svc := newService(store)

	b, err := svc.Create(ctx, 7, []ItemInput{{BookID: 1, Quantity: 2}})
	require.NoError(t, err)

	it, err := svc.ReturnItem(ctx, Caller{UserID: 7}, b.ID, b.Items[0].ID, nil)
	require.NoError(t, err)
	require.NotNil(t, it.ActualReturnDate)
	require.Equal(t, todayUTC(), *it.ActualReturnDate)

	// reserve/release round-trip is exact
	require.Equal(t, int64(5), store.books[1].Inventory)
	require.Equal(t, model.BorrowingClosed, store.borrowings[b.ID].Status)
}

func TestCreate_InsufficientInventory(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	store.addBook(1, "Kobzar", 1)
	svc := newService(store)

	_, err := svc.Create(ctx, 7, []ItemInput{{BookID: 1, Quantity: 2}})
	require.Error(t, err)
	require.Equal(t, ErrNoStock, Code(err))
	require.Contains(t, err.Error(), "Kobzar")
	require.Contains(t, err.Error(), "1")

	// nothing persisted, inventory untouched
	require.Equal(t, int64(1), store.books[1].Inventory)
	require.Empty(t, store.borrowings)
	require.Empty(t, store.items)
}

func TestCreate_SecondItemFailureRollsBackFirst(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	store.addBook(1, "Kobzar", 5)
	store.addBook(2, "Aeneid", 0)
	svc := newService(store)

	_, err := svc.Create(ctx, 7, []ItemInput{
		{BookID: 1, Quantity: 2},
		{BookID: 2, Quantity: 1},
	})
	require.Equal(t, ErrNoStock, Code(err))

	// the first item's reservation must be rolled back with the batch
	require.Equal(t, int64(5), store.books[1].Inventory)
	require.Equal(t, int64(0), store.books[2].Inventory)
	require.Empty(t, store.borrowings)
	require.Empty(t, store.items)
}

func TestCreate_DuplicateBookRejectsBatch(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	store.addBook(1, "Kobzar", 5)
	svc := newService(store)

	_, err := svc.Create(ctx, 7, []ItemInput{
		{BookID: 1, Quantity: 1},
		{BookID: 1, Quantity: 2},
	})
	fields := Fields(err)
	require.NotNil(t, fields)
	require.Contains(t, fields, "items.1.book_id")
	require.Equal(t, int64(5), store.books[1].Inventory)
	require.Empty(t, store.borrowings)
}

func TestCreate_ExpectedReturnBeforeBorrowDate(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	store.addBook(1, "Kobzar", 5)
	svc := newService(store)

	borrow := todayUTC()
	expected := borrow.AddDate(0, 0, -1)
	_, err := svc.Create(ctx, 7, []ItemInput{
		{BookID: 1, Quantity: 1, BorrowDate: &borrow, ExpectedReturnDate: &expected},
	})
	fields := Fields(err)
	require.NotNil(t, fields)
	require.Contains(t, fields, "items.0.expected_return_date")
	require.Equal(t, int64(5), store.books[1].Inventory)
}

func TestCreate_BookNotFound(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	svc := newService(store)

	_, err := svc.Create(ctx, 7, []ItemInput{{BookID: 99, Quantity: 1}})
	require.Equal(t, ErrBookNotFound, Code(err))
	require.Empty(t, store.borrowings)
}

func TestCreate_NoItems(t *testing.T) {
	svc := newService(newFakeStore())
	_, err := svc.Create(context.Background(), 7, nil)
	require.Contains(t, Fields(err), "items")
}

func TestReturn_ClosesOnlyAfterLastItem(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	store.addBook(1, "Kobzar", 5)
	store.addBook(2, "Aeneid", 3)
	svc := newService(store)

	b, err := svc.Create(ctx, 7, []ItemInput{
		{BookID: 1, Quantity: 2},
		{BookID: 2, Quantity: 1},
	})
	require.NoError(t, err)

	_, err = svc.ReturnItem(ctx, Caller{UserID: 7}, b.ID, b.Items[0].ID, nil)
	require.NoError(t, err)
	require.Equal(t, model.BorrowingOpen, store.borrowings[b.ID].Status)

	_, err = svc.ReturnItem(ctx, Caller{UserID: 7}, b.ID, b.Items[1].ID, nil)
	require.NoError(t, err)
	require.Equal(t, model.BorrowingClosed, store.borrowings[b.ID].Status)

	require.Equal(t, int64(5), store.books[1].Inventory)
	require.Equal(t, int64(3), store.books[2].Inventory)
}

func TestReturn_AlreadyReturned(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	store.addBook(1, "Kobzar", 5)
	svc := newService(store)

	b, err := svc.Create(ctx, 7, []ItemInput{{BookID: 1, Quantity: 2}})
	require.NoError(t, err)
	_, err = svc.ReturnItem(ctx, Caller{UserID: 7}, b.ID, b.Items[0].ID, nil)
	require.NoError(t, err)

	_, err = svc.ReturnItem(ctx, Caller{UserID: 7}, b.ID, b.Items[0].ID, nil)
	require.Equal(t, ErrAlreadyReturned, Code(err))

	// no double release, status untouched
	require.Equal(t, int64(5), store.books[1].Inventory)
	require.Equal(t, model.BorrowingClosed, store.borrowings[b.ID].Status)
}

func TestReturn_DateBeforeBorrowDate(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	store.addBook(1, "Kobzar", 5)
	svc := newService(store)

	b, err := svc.Create(ctx, 7, []ItemInput{{BookID: 1, Quantity: 2}})
	require.NoError(t, err)

	bad := todayUTC().AddDate(0, 0, -1)
	_, err = svc.ReturnItem(ctx, Caller{UserID: 7}, b.ID, b.Items[0].ID, &bad)
	require.Contains(t, Fields(err), "return_date")

	// item stays open, inventory unchanged
	require.True(t, store.items[b.Items[0].ID].Open())
	require.Equal(t, int64(3), store.books[1].Inventory)
	require.Equal(t, model.BorrowingOpen, store.borrowings[b.ID].Status)
}

func TestReturn_ItemNotInBorrowing(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	store.addBook(1, "Kobzar", 5)
	store.addBook(2, "Aeneid", 5)
	svc := newService(store)

	b1, err := svc.Create(ctx, 7, []ItemInput{{BookID: 1, Quantity: 1}})
	require.NoError(t, err)
	b2, err := svc.Create(ctx, 7, []ItemInput{{BookID: 2, Quantity: 1}})
	require.NoError(t, err)

	_, err = svc.ReturnItem(ctx, Caller{UserID: 7}, b1.ID, b2.Items[0].ID, nil)
	require.Equal(t, ErrItemNotFound, Code(err))
}

func TestReturn_OtherUsersBorrowingHidden(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	store.addBook(1, "Kobzar", 5)
	svc := newService(store)

	b, err := svc.Create(ctx, 7, []ItemInput{{BookID: 1, Quantity: 1}})
	require.NoError(t, err)

	_, err = svc.ReturnItem(ctx, Caller{UserID: 8}, b.ID, b.Items[0].ID, nil)
	require.Equal(t, ErrNotFound, Code(err))

	// admins may return on behalf of any user
	_, err = svc.ReturnItem(ctx, Caller{UserID: 8, Admin: true}, b.ID, b.Items[0].ID, nil)
	require.NoError(t, err)
}

func TestList_NonAdminScopedToOwnBorrowings(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	store.addBook(1, "Kobzar", 10)
	svc := newService(store)

	_, err := svc.Create(ctx, 7, []ItemInput{{BookID: 1, Quantity: 1}})
	require.NoError(t, err)
	_, err = svc.Create(ctx, 8, []ItemInput{{BookID: 1, Quantity: 1}})
	require.NoError(t, err)

	// the user filter is ignored for non-admins
	rows, err := svc.List(ctx, Caller{UserID: 7}, Filter{UserIDs: []int64{8}})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.Equal(t, int64(7), rows[0].UserID)

	rows, err = svc.List(ctx, Caller{UserID: 9, Admin: true}, Filter{UserIDs: []int64{8}})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.Equal(t, int64(8), rows[0].UserID)
}

func TestList_StatusFilter(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	store.addBook(1, "Kobzar", 10)
	svc := newService(store)

	b1, err := svc.Create(ctx, 7, []ItemInput{{BookID: 1, Quantity: 1}})
	require.NoError(t, err)
	_, err = svc.Create(ctx, 7, []ItemInput{{BookID: 1, Quantity: 2}})
	require.NoError(t, err)
	_, err = svc.ReturnItem(ctx, Caller{UserID: 7}, b1.ID, b1.Items[0].ID, nil)
	require.NoError(t, err)

	rows, err := svc.List(ctx, Caller{UserID: 7}, Filter{Statuses: []model.BorrowingStatus{model.BorrowingClosed}})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.Equal(t, b1.ID, rows[0].ID)

	_, err = svc.List(ctx, Caller{UserID: 7}, Filter{Statuses: []model.BorrowingStatus{"BOGUS"}})
	require.Contains(t, Fields(err), "status")
}

func TestDetail_Scoping(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	store.addBook(1, "Kobzar", 5)
	svc := newService(store)

	b, err := svc.Create(ctx, 7, []ItemInput{{BookID: 1, Quantity: 1}})
	require.NoError(t, err)

	got, err := svc.Detail(ctx, Caller{UserID: 7}, b.ID)
	require.NoError(t, err)
	require.Len(t, got.Items, 1)

	_, err = svc.Detail(ctx, Caller{UserID: 8}, b.ID)
	require.Equal(t, ErrNotFound, Code(err))

	_, err = svc.Detail(ctx, Caller{UserID: 8, Admin: true}, b.ID)
	require.NoError(t, err)
}
