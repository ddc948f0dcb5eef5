// Package books exposes book CRUD gated by the role decision table.
package books

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"library_api/internal/apperr"
	"library_api/internal/authz"
	"library_api/internal/models"
	"library_api/internal/storage"
)

const (
	MinYear = 1900

	msgNotFound      = "Book not found"
	msgNotFoundField = "The book with the specified ID does not exist."
	msgUnauthorized  = "This action is unauthorized."
	msgValidation    = "Validation error"
)

type Repository interface {
	CreateBook(ctx context.Context, b models.Book) (models.Book, error)
	BookByID(ctx context.Context, id int64) (models.Book, error)
	UpdateBook(ctx context.Context, id int64, p models.BookPatch) (models.Book, error)
	DeleteBook(ctx context.Context, id int64) error
	ListBooks(ctx context.Context, f models.BookFilter) ([]models.Book, int64, error)
}

type Service struct {
	log  *slog.Logger
	repo Repository
	now  func() time.Time
}

func New(log *slog.Logger, repo Repository) *Service {
	return &Service{
		log:  log,
		repo: repo,
		now:  time.Now,
	}
}

func authorize(caller *models.Caller, action authz.Action) error {
	if caller == nil {
		return apperr.Unauthenticated("Unauthenticated")
	}

	if !authz.Allowed(authz.SubjectOf(caller.User), action, nil) {
		return apperr.Forbidden(msgUnauthorized).WithField("authorization", msgUnauthorized)
	}

	return nil
}

func notFound() error {
	return apperr.NotFound(msgNotFound).WithField("book", msgNotFoundField)
}

// * checkYear проверяет год издания: от 1900 до следующего года
func (s *Service) checkYear(year int) error {
	maxYear := s.now().Year() + 1
	if year < MinYear || year > maxYear {
		return apperr.Validation(msgValidation, map[string][]string{
			"published_year": {fmt.Sprintf("The published_year field must be between %d and %d.", MinYear, maxYear)},
		})
	}

	return nil
}

func (s *Service) List(ctx context.Context, caller *models.Caller, f models.BookFilter) ([]models.Book, models.PageMeta, error) {
	const op = "books.List"

	if err := authorize(caller, authz.BookViewAny); err != nil {
		return nil, models.PageMeta{}, err
	}

	f.Page, f.PerPage = models.NormalizePage(f.Page, f.PerPage)

	list, total, err := s.repo.ListBooks(ctx, f)
	if err != nil {
		return nil, models.PageMeta{}, fmt.Errorf("%s: %w", op, err)
	}

	return list, models.NewPageMeta(f.Page, f.PerPage, total), nil
}

func (s *Service) Create(ctx context.Context, caller *models.Caller, b models.Book) (models.Book, error) {
	const op = "books.Create"

	if err := authorize(caller, authz.BookCreate); err != nil {
		return models.Book{}, err
	}

	if err := s.checkYear(b.PublishedYear); err != nil {
		return models.Book{}, err
	}

	created, err := s.repo.CreateBook(ctx, b)
	if err != nil {
		return models.Book{}, fmt.Errorf("%s: %w", op, err)
	}

	s.log.Info("book created", slog.String("op", op), slog.Int64("book_id", created.ID), slog.Int64("uid", caller.User.ID))

	return created, nil
}

func (s *Service) Get(ctx context.Context, caller *models.Caller, id int64) (models.Book, error) {
	const op = "books.Get"

	if caller == nil {
		return models.Book{}, apperr.Unauthenticated("Unauthenticated")
	}

	b, err := s.repo.BookByID(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrBookNotFound) {
			return models.Book{}, notFound()
		}

		return models.Book{}, fmt.Errorf("%s: %w", op, err)
	}

	if err := authorize(caller, authz.BookView); err != nil {
		return models.Book{}, err
	}

	return b, nil
}

// Update применяет частичное изменение. Существование книги проверяется до прав,
// как и в Get.
func (s *Service) Update(ctx context.Context, caller *models.Caller, id int64, p models.BookPatch) (models.Book, error) {
	const op = "books.Update"

	if _, err := s.Get(ctx, caller, id); err != nil {
		return models.Book{}, err
	}

	if err := authorize(caller, authz.BookUpdate); err != nil {
		return models.Book{}, err
	}

	if p.PublishedYear != nil {
		if err := s.checkYear(*p.PublishedYear); err != nil {
			return models.Book{}, err
		}
	}

	b, err := s.repo.UpdateBook(ctx, id, p)
	if err != nil {
		if errors.Is(err, storage.ErrBookNotFound) {
			return models.Book{}, notFound()
		}

		return models.Book{}, fmt.Errorf("%s: %w", op, err)
	}

	return b, nil
}

func (s *Service) Delete(ctx context.Context, caller *models.Caller, id int64) error {
	const op = "books.Delete"

	if _, err := s.Get(ctx, caller, id); err != nil {
		return err
	}

	if err := authorize(caller, authz.BookDelete); err != nil {
		return err
	}

	if err := s.repo.DeleteBook(ctx, id); err != nil {
		if errors.Is(err, storage.ErrBookNotFound) {
			return notFound()
		}

		return fmt.Errorf("%s: %w", op, err)
	}

	s.log.Info("book deleted", slog.String("op", op), slog.Int64("book_id", id), slog.Int64("uid", caller.User.ID))

	return nil
}
