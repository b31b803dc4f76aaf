package bookrepo

import (
	"context"
	"database/sql"

	"github.com/rkostiv253/library-service/model"
)

type Repo interface {
	Create(ctx context.Context, b *model.Book) (int64, error)
	Update(ctx context.Context, b *model.Book) (bool, error)
	Delete(ctx context.Context, id int64) (bool, error)
	List(ctx context.Context) ([]model.Book, error)
	Detail(ctx context.Context, id int64) (*model.Book, error)
}

type repo struct{ db *sql.DB }

func New(db *sql.DB) Repo { return &repo{db} }

func (r *repo) Create(ctx context.Context, b *model.Book) (int64, error) {
	const q = `
INSERT INTO books (title, author_id, genre_id, cover, inventory, daily_fee)
VALUES ($1,$2,$3,$4,$5,$6)
RETURNING id`
	var id int64
	err := r.db.QueryRowContext(ctx, q,
		b.Title, b.AuthorID, b.GenreID, b.Cover, b.Inventory, b.DailyFee,
	).Scan(&id)
	if err != nil {
		return 0, err
	}
	return id, nil
}

func (r *repo) Update(ctx context.Context, b *model.Book) (bool, error) {
	const q = `
UPDATE books
SET title=$2, author_id=$3, genre_id=$4, cover=$5, inventory=$6, daily_fee=$7
WHERE id=$1`
	res, err := r.db.ExecContext(ctx, q,
		b.ID, b.Title, b.AuthorID, b.GenreID, b.Cover, b.Inventory, b.DailyFee,
	)
	if err != nil {
		return false, err
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

func (r *repo) Delete(ctx context.Context, id int64) (bool, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM books WHERE id=$1`, id)
	if err != nil {
		return false, err
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

func (r *repo) List(ctx context.Context) ([]model.Book, error) {
	const q = `
SELECT id, title, author_id, genre_id, cover, inventory, daily_fee
FROM books
ORDER BY id DESC`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Book
	for rows.Next() {
		var b model.Book
		if err := rows.Scan(&b.ID, &b.Title, &b.AuthorID, &b.GenreID, &b.Cover, &b.Inventory, &b.DailyFee); err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func (r *repo) Detail(ctx context.Context, id int64) (*model.Book, error) {
	const q = `
SELECT id, title, author_id, genre_id, cover, inventory, daily_fee
FROM books
WHERE id=$1`
	var b model.Book
	if err := r.db.QueryRowContext(ctx, q, id).
		Scan(&b.ID, &b.Title, &b.AuthorID, &b.GenreID, &b.Cover, &b.Inventory, &b.DailyFee); err != nil {
		return nil, err
	}
	return &b, nil
}
