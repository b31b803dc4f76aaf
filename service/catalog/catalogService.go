package catalogsvc

import (
	"context"
	"database/sql"
	"errors"

	"github.com/rkostiv253/library-service/model"
)

var (
	ErrNotFound = errors.New("not found")
	ErrBadInput = errors.New("invalid payload")
)

type Repo interface {
	CreateAuthor(ctx context.Context, firstName, lastName string) (int64, error)
	UpdateAuthor(ctx context.Context, id int64, firstName, lastName string) (bool, error)
	DeleteAuthor(ctx context.Context, id int64) (bool, error)
	ListAuthors(ctx context.Context) ([]model.Author, error)
	AuthorDetail(ctx context.Context, id int64) (*model.Author, error)

	CreateGenre(ctx context.Context, name string) (int64, error)
	UpdateGenre(ctx context.Context, id int64, name string) (bool, error)
	DeleteGenre(ctx context.Context, id int64) (bool, error)
	ListGenres(ctx context.Context) ([]model.Genre, error)
	GenreDetail(ctx context.Context, id int64) (*model.Genre, error)
}

type Service interface {
	CreateAuthor(ctx context.Context, firstName, lastName string) (int64, error)
	UpdateAuthor(ctx context.Context, id int64, firstName, lastName string) error
	DeleteAuthor(ctx context.Context, id int64) error
	ListAuthors(ctx context.Context) ([]model.Author, error)
	AuthorDetail(ctx context.Context, id int64) (*model.Author, error)

	CreateGenre(ctx context.Context, name string) (int64, error)
	UpdateGenre(ctx context.Context, id int64, name string) error
	DeleteGenre(ctx context.Context, id int64) error
	ListGenres(ctx context.Context) ([]model.Genre, error)
	GenreDetail(ctx context.Context, id int64) (*model.Genre, error)
}

type service struct{ r Repo }

func New(r Repo) Service { return &service{r: r} }

func (s *service) CreateAuthor(ctx context.Context, firstName, lastName string) (int64, error) {
	if firstName == "" || lastName == "" {
		return 0, ErrBadInput
	}
	return s.r.CreateAuthor(ctx, firstName, lastName)
}

func (s *service) UpdateAuthor(ctx context.Context, id int64, firstName, lastName string) error {
	if firstName == "" || lastName == "" {
		return ErrBadInput
	}
	ok, err := s.r.UpdateAuthor(ctx, id, firstName, lastName)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotFound
	}
	return nil
}

func (s *service) DeleteAuthor(ctx context.Context, id int64) error {
	ok, err := s.r.DeleteAuthor(ctx, id)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotFound
	}
	return nil
}

func (s *service) ListAuthors(ctx context.Context) ([]model.Author, error) {
	return s.r.ListAuthors(ctx)
}

func (s *service) AuthorDetail(ctx context.Context, id int64) (*model.Author, error) {
	a, err := s.r.AuthorDetail(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return a, nil
}

func (s *service) CreateGenre(ctx context.Context, name string) (int64, error) {
	if name == "" {
		return 0, ErrBadInput
	}
	return s.r.CreateGenre(ctx, name)
}

func (s *service) UpdateGenre(ctx context.Context, id int64, name string) error {
	if name == "" {
		return ErrBadInput
	}
	ok, err := s.r.UpdateGenre(ctx, id, name)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotFound
	}
	return nil
}

func (s *service) DeleteGenre(ctx context.Context, id int64) error {
	ok, err := s.r.DeleteGenre(ctx, id)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotFound
	}
	return nil
}

func (s *service) ListGenres(ctx context.Context) ([]model.Genre, error) {
	return s.r.ListGenres(ctx)
}

func (s *service) GenreDetail(ctx context.Context, id int64) (*model.Genre, error) {
	g, err := s.r.GenreDetail(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return g, nil
}
