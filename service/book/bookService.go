package booksvc

import (
	"context"
	"database/sql"
	"errors"

	"github.com/rkostiv253/library-service/model"
	repo "github.com/rkostiv253/library-service/repository/book"
)

var (
	ErrNotFound = errors.New("book not found")
	ErrBadInput = errors.New("invalid payload")
)

type Repo interface {
	Create(ctx context.Context, b *model.Book) (int64, error)
	Update(ctx context.Context, b *model.Book) (bool, error)
	Delete(ctx context.Context, id int64) (bool, error)
	List(ctx context.Context) ([]model.Book, error)
	Detail(ctx context.Context, id int64) (*model.Book, error)
}

type Service interface {
	Create(ctx context.Context, b model.Book) (int64, error)
	Update(ctx context.Context, b model.Book) error
	Delete(ctx context.Context, id int64) error
	List(ctx context.Context) ([]model.Book, error)
	Detail(ctx context.Context, id int64) (*model.Book, error)
}

type service struct{ r Repo }

func New(r Repo) Service { return &service{r: r} }

var _ Repo = (repo.Repo)(nil)

func check(b model.Book) error {
	if b.Title == "" || b.AuthorID <= 0 || b.GenreID <= 0 {
		return ErrBadInput
	}
	if b.Inventory < 0 || b.DailyFee.IsNegative() {
		return ErrBadInput
	}
	if b.Cover != "" && !b.Cover.Valid() {
		return ErrBadInput
	}
	return nil
}

func (s *service) Create(ctx context.Context, b model.Book) (int64, error) {
	if err := check(b); err != nil {
		return 0, err
	}
	if b.Cover == "" {
		b.Cover = model.CoverHard
	}
	return s.r.Create(ctx, &b)
}

func (s *service) Update(ctx context.Context, b model.Book) error {
	if b.ID <= 0 {
		return ErrBadInput
	}
	if err := check(b); err != nil {
		return err
	}
	if b.Cover == "" {
		b.Cover = model.CoverHard
	}
	ok, err := s.r.Update(ctx, &b)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotFound
	}
	return nil
}

func (s *service) Delete(ctx context.Context, id int64) error {
	ok, err := s.r.Delete(ctx, id)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotFound
	}
	return nil
}

func (s *service) List(ctx context.Context) ([]model.Book, error) { return s.r.List(ctx) }

func (s *service) Detail(ctx context.Context, id int64) (*model.Book, error) {
	b, err := s.r.Detail(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return b, nil
}
