// repository/catalog/repo.go
package catalog

import (
	"context"
	"database/sql"

	"github.com/rkostiv253/library-service/model"
)

type Repo interface {
	// Authors
	CreateAuthor(ctx context.Context, firstName, lastName string) (int64, error)
	UpdateAuthor(ctx context.Context, id int64, firstName, lastName string) (bool, error)
	DeleteAuthor(ctx context.Context, id int64) (bool, error)
	ListAuthors(ctx context.Context) ([]model.Author, error)
	AuthorDetail(ctx context.Context, id int64) (*model.Author, error)

	// Genres
	CreateGenre(ctx context.Context, name string) (int64, error)
	UpdateGenre(ctx context.Context, id int64, name string) (bool, error)
	DeleteGenre(ctx context.Context, id int64) (bool, error)
	ListGenres(ctx context.Context) ([]model.Genre, error)
	GenreDetail(ctx context.Context, id int64) (*model.Genre, error)
}

type repo struct{ db *sql.DB }

func New(db *sql.DB) Repo { return &repo{db} }

// Authors

func (r *repo) CreateAuthor(ctx context.Context, firstName, lastName string) (int64, error) {
	const q = `
INSERT INTO authors (first_name, last_name)
VALUES ($1,$2)
RETURNING id`
	var id int64
	if err := r.db.QueryRowContext(ctx, q, firstName, lastName).Scan(&id); err != nil {
		return 0, err
	}
	return id, nil
}

func (r *repo) UpdateAuthor(ctx context.Context, id int64, firstName, lastName string) (bool, error) {
	const q = `
UPDATE authors
SET first_name=$2, last_name=$3
WHERE id=$1`
	res, err := r.db.ExecContext(ctx, q, id, firstName, lastName)
	if err != nil {
		return false, err
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

func (r *repo) DeleteAuthor(ctx context.Context, id int64) (bool, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM authors WHERE id=$1`, id)
	if err != nil {
		return false, err
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

func (r *repo) ListAuthors(ctx context.Context) ([]model.Author, error) {
	const q = `
SELECT id, first_name, last_name
FROM authors
ORDER BY id`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Author
	for rows.Next() {
		var a model.Author
		if err := rows.Scan(&a.ID, &a.FirstName, &a.LastName); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (r *repo) AuthorDetail(ctx context.Context, id int64) (*model.Author, error) {
	var a model.Author
	err := r.db.QueryRowContext(ctx, `
SELECT id, first_name, last_name
FROM authors
WHERE id=$1`, id).Scan(&a.ID, &a.FirstName, &a.LastName)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// Genres

func (r *repo) CreateGenre(ctx context.Context, name string) (int64, error) {
	var id int64
	if err := r.db.QueryRowContext(ctx,
		`INSERT INTO genres (name) VALUES ($1) RETURNING id`, name,
	).Scan(&id); err != nil {
		return 0, err
	}
	return id, nil
}

func (r *repo) UpdateGenre(ctx context.Context, id int64, name string) (bool, error) {
	res, err := r.db.ExecContext(ctx, `UPDATE genres SET name=$2 WHERE id=$1`, id, name)
	if err != nil {
		return false, err
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

func (r *repo) DeleteGenre(ctx context.Context, id int64) (bool, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM genres WHERE id=$1`, id)
	if err != nil {
		return false, err
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

func (r *repo) ListGenres(ctx context.Context) ([]model.Genre, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, name FROM genres ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Genre
	for rows.Next() {
		var g model.Genre
		if err := rows.Scan(&g.ID, &g.Name); err != nil {
			return nil, err
		}
		out = append(out, g)
	}
	return out, rows.Err()
}

func (r *repo) GenreDetail(ctx context.Context, id int64) (*model.Genre, error) {
	var g model.Genre
	err := r.db.QueryRowContext(ctx, `SELECT id, name FROM genres WHERE id=$1`, id).
		Scan(&g.ID, &g.Name)
	if err != nil {
		return nil, err
	}
	return &g, nil
}
