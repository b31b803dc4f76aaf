// repository/borrowing/repo.go
package borrowing

import (
	"context"
	"database/sql"
	"time"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres" // dialect registration
	"github.com/rkostiv253/library-service/model"
)

// Filter narrows the borrowing list query. Zero values mean "no filter";
// OwnerID is set by the service for non-privileged callers.
type Filter struct {
	OwnerID  int64
	UserIDs  []int64
	Statuses []model.BorrowingStatus
}

type Repo interface {
	// Inventory ledger. Both run inside the caller's transaction; the Book
	// row must be locked via LockBook before Reserve is attempted.
	LockBook(ctx context.Context, tx *sql.Tx, bookID int64) (*model.Book, error)
	ReserveInventory(ctx context.Context, tx *sql.Tx, bookID, quantity int64) (bool, error)
	ReleaseInventory(ctx context.Context, tx *sql.Tx, bookID, quantity int64) error

	// Borrowings & items
	InsertBorrowing(ctx context.Context, tx *sql.Tx, userID int64) (*model.Borrowing, error)
	InsertItem(ctx context.Context, tx *sql.Tx, it *model.BorrowingItem) error
	LockBorrowing(ctx context.Context, tx *sql.Tx, id int64) (*model.Borrowing, error)
	LockItem(ctx context.Context, tx *sql.Tx, borrowingID, itemID int64) (*model.BorrowingItem, error)
	MarkItemReturned(ctx context.Context, tx *sql.Tx, itemID int64, date time.Time) error
	CountOpenItems(ctx context.Context, tx *sql.Tx, borrowingID int64) (int64, error)
	SetStatus(ctx context.Context, tx *sql.Tx, borrowingID int64, status model.BorrowingStatus) error

	// Reads
	Detail(ctx context.Context, id int64) (*model.Borrowing, error)
	List(ctx context.Context, f Filter) ([]model.Borrowing, error)
}

type repo struct{ db *sql.DB }

func New(db *sql.DB) Repo { return &repo{db: db} }

var pg = goqu.Dialect("postgres")

// Inventory ledger

func (r *repo) LockBook(ctx context.Context, tx *sql.Tx, bookID int64) (*model.Book, error) {
	const q = `
		SELECT id, title, author_id, genre_id, cover, inventory, daily_fee
		FROM books
		WHERE id = $1
		FOR UPDATE`
	var b model.Book
	err := tx.QueryRowContext(ctx, q, bookID).
		Scan(&b.ID, &b.Title, &b.AuthorID, &b.GenreID, &b.Cover, &b.Inventory, &b.DailyFee)
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func (r *repo) ReserveInventory(ctx context.Context, tx *sql.Tx, bookID, quantity int64) (bool, error) {
	// Guard: only decrement if enough copies remain.
	const q = `
		UPDATE books
		SET inventory = inventory - $2
		WHERE id = $1
		AND inventory >= $2`
	res, err := tx.ExecContext(ctx, q, bookID, quantity)
	if err != nil {
		return false, err
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

func (r *repo) ReleaseInventory(ctx context.Context, tx *sql.Tx, bookID, quantity int64) error {
	const q = `
		UPDATE books
		SET inventory = inventory + $2
		WHERE id = $1`
	_, err := tx.ExecContext(ctx, q, bookID, quantity)
	return err
}

// Borrowings & items

func (r *repo) InsertBorrowing(ctx context.Context, tx *sql.Tx, userID int64) (*model.Borrowing, error) {
	const q = `
		INSERT INTO borrowings (user_id, status)
		VALUES ($1, 'OPEN')
		RETURNING id, created_at`
	b := &model.Borrowing{UserID: userID, Status: model.BorrowingOpen}
	if err := tx.QueryRowContext(ctx, q, userID).Scan(&b.ID, &b.CreatedAt); err != nil {
		return nil, err
	}
	return b, nil
}

func (r *repo) InsertItem(ctx context.Context, tx *sql.Tx, it *model.BorrowingItem) error {
	const q = `
		INSERT INTO borrowing_items (borrowing_id, book_id, quantity, borrow_date, expected_return_date)
		VALUES ($1,$2,$3,$4,$5)
		RETURNING id`
	return tx.QueryRowContext(ctx, q,
		it.BorrowingID, it.BookID, it.Quantity, it.BorrowDate, it.ExpectedReturnDate,
	).Scan(&it.ID)
}

func (r *repo) LockBorrowing(ctx context.Context, tx *sql.Tx, id int64) (*model.Borrowing, error) {
	const q = `
		SELECT id, user_id, created_at, status
		FROM borrowings
		WHERE id = $1
		FOR UPDATE`
	var b model.Borrowing
	if err := tx.QueryRowContext(ctx, q, id).Scan(&b.ID, &b.UserID, &b.CreatedAt, &b.Status); err != nil {
		return nil, err
	}
	return &b, nil
}

func (r *repo) LockItem(ctx context.Context, tx *sql.Tx, borrowingID, itemID int64) (*model.BorrowingItem, error) {
	const q = `
		SELECT id, borrowing_id, book_id, quantity, borrow_date, expected_return_date, actual_return_date
		FROM borrowing_items
		WHERE id = $1
		AND borrowing_id = $2
		FOR UPDATE`
	var it model.BorrowingItem
	err := tx.QueryRowContext(ctx, q, itemID, borrowingID).Scan(
		&it.ID, &it.BorrowingID, &it.BookID, &it.Quantity,
		&it.BorrowDate, &it.ExpectedReturnDate, &it.ActualReturnDate,
	)
	if err != nil {
		return nil, err
	}
	return &it, nil
}

func (r *repo) MarkItemReturned(ctx context.Context, tx *sql.Tx, itemID int64, date time.Time) error {
	const q = `
		UPDATE borrowing_items
		SET actual_return_date = $2
		WHERE id = $1
		AND actual_return_date IS NULL`
	res, err := tx.ExecContext(ctx, q, itemID, date)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func (r *repo) CountOpenItems(ctx context.Context, tx *sql.Tx, borrowingID int64) (int64, error) {
	const q = `
		SELECT COUNT(*)
		FROM borrowing_items
		WHERE borrowing_id = $1
		AND actual_return_date IS NULL`
	var n int64
	err := tx.QueryRowContext(ctx, q, borrowingID).Scan(&n)
	return n, err
}

func (r *repo) SetStatus(ctx context.Context, tx *sql.Tx, borrowingID int64, status model.BorrowingStatus) error {
	_, err := tx.ExecContext(ctx, `UPDATE borrowings SET status=$2 WHERE id=$1`, borrowingID, status)
	return err
}

// Reads

func (r *repo) Detail(ctx context.Context, id int64) (*model.Borrowing, error) {
	var b model.Borrowing
	err := r.db.QueryRowContext(ctx, `
		SELECT id, user_id, created_at, status
		FROM borrowings
		WHERE id = $1`, id).
		Scan(&b.ID, &b.UserID, &b.CreatedAt, &b.Status)
	if err != nil {
		return nil, err
	}

	items, err := r.itemsFor(ctx, []int64{id})
	if err != nil {
		return nil, err
	}
	b.Items = items[id]
	return &b, nil
}

func (r *repo) List(ctx context.Context, f Filter) ([]model.Borrowing, error) {
	ds := pg.From("borrowings").
		Select("id", "user_id", "created_at", "status").
		Order(goqu.I("created_at").Desc(), goqu.I("id").Desc())

	if f.OwnerID != 0 {
		ds = ds.Where(goqu.C("user_id").Eq(f.OwnerID))
	}
	if len(f.UserIDs) > 0 {
		ds = ds.Where(goqu.C("user_id").In(f.UserIDs))
	}
	if len(f.Statuses) > 0 {
		ds = ds.Where(goqu.C("status").In(f.Statuses))
	}

	query, args, err := ds.Prepared(true).ToSQL()
	if err != nil {
		return nil, err
	}
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Borrowing
	var ids []int64
	for rows.Next() {
		var b model.Borrowing
		if err := rows.Scan(&b.ID, &b.UserID, &b.CreatedAt, &b.Status); err != nil {
			return nil, err
		}
		out = append(out, b)
		ids = append(ids, b.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return out, nil
	}

	items, err := r.itemsFor(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range out {
		for _, it := range items[out[i].ID] {
			if it.Book != nil {
				out[i].Books = append(out[i].Books, *it.Book)
			}
		}
	}
	return out, nil
}

// itemsFor loads items (with their book snapshot) for a set of borrowings.
func (r *repo) itemsFor(ctx context.Context, borrowingIDs []int64) (map[int64][]model.BorrowingItem, error) {
	ds := pg.From(goqu.T("borrowing_items").As("i")).
		Join(goqu.T("books").As("b"), goqu.On(goqu.Ex{"b.id": goqu.I("i.book_id")})).
		Select(
			"i.id", "i.borrowing_id", "i.book_id", "i.quantity",
			"i.borrow_date", "i.expected_return_date", "i.actual_return_date",
			"b.id", "b.title", "b.author_id", "b.genre_id", "b.cover", "b.inventory", "b.daily_fee",
		).
		Where(goqu.I("i.borrowing_id").In(borrowingIDs)).
		Order(goqu.I("i.id").Asc())

	query, args, err := ds.Prepared(true).ToSQL()
	if err != nil {
		return nil, err
	}
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[int64][]model.BorrowingItem, len(borrowingIDs))
	for rows.Next() {
		var it model.BorrowingItem
		var bk model.Book
		if err := rows.Scan(
			&it.ID, &it.BorrowingID, &it.BookID, &it.Quantity,
			&it.BorrowDate, &it.ExpectedReturnDate, &it.ActualReturnDate,
			&bk.ID, &bk.Title, &bk.AuthorID, &bk.GenreID, &bk.Cover, &bk.Inventory, &bk.DailyFee,
		); err != nil {
			return nil, err
		}
		it.Book = &bk
		out[it.BorrowingID] = append(out[it.BorrowingID], it)
	}
	return out, rows.Err()
}
