package books

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"

	"library_api/internal/apperr"
	"library_api/internal/lib/api/query"
	resp "library_api/internal/lib/api/response"
	"library_api/internal/middleware/authn"
	"library_api/internal/models"
)

type BookService interface {
	List(ctx context.Context, caller *models.Caller, f models.BookFilter) ([]models.Book, models.PageMeta, error)
	Create(ctx context.Context, caller *models.Caller, b models.Book) (models.Book, error)
	Get(ctx context.Context, caller *models.Caller, id int64) (models.Book, error)
	Update(ctx context.Context, caller *models.Caller, id int64, p models.BookPatch) (models.Book, error)
	Delete(ctx context.Context, caller *models.Caller, id int64) error
}

type CreateRequest struct {
	Title         string `json:"title" validate:"required,max=255"`
	Author        string `json:"author" validate:"required,max=255"`
	PublishedYear int    `json:"published_year" validate:"required"`
	Description   string `json:"description" validate:"required"`
}

type UpdateRequest struct {
	Title         *string `json:"title" validate:"omitempty,max=255"`
	Author        *string `json:"author" validate:"omitempty,max=255"`
	PublishedYear *int    `json:"published_year"`
	Description   *string `json:"description"`
}

type Response struct {
	resp.Response
	Data models.Book `json:"data"`
}

type ListResponse struct {
	resp.Response
	Data []models.Book  `json:"data"`
	Meta models.PageMeta `json:"meta"`
}

func bookID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		return 0, apperr.NotFound("Book not found").WithField("book", "The book with the specified ID does not exist.")
	}

	return id, nil
}

// filterFrom собирает фильтр списка из query-параметров.
func filterFrom(r *http.Request) (models.BookFilter, error) {
	var (
		f   models.BookFilter
		err error
	)

	f.Search = r.URL.Query().Get("search")

	if f.PublishedYear, err = query.OptionalInt(r, "published_year"); err != nil {
		return f, err
	}

	order, err := query.OneOf(r, "order", "asc", "asc", "desc")
	if err != nil {
		return f, err
	}
	f.Desc = order == "desc"

	if f.PerPage, err = query.PositiveInt(r, "per_page", 0); err != nil {
		return f, err
	}

	if f.Page, err = query.PositiveInt(r, "page", 1); err != nil {
		return f, err
	}

	return f, nil
}

func NewList(log *slog.Logger, svc BookService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.books.NewList"

		log := log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		f, err := filterFrom(r)
		if err != nil {
			resp.WriteError(w, r, log, err)

			return
		}

		list, meta, err := svc.List(r.Context(), authn.CallerFrom(r.Context()), f)
		if err != nil {
			resp.WriteError(w, r, log, err)

			return
		}

		message := "Books retrieved successfully"
		if len(list) == 0 {
			message = "No books found"
			list = []models.Book{}
		}

		render.JSON(w, r, ListResponse{
			Response: resp.OK(message),
			Data:     list,
			Meta:     meta,
		})
	}
}

func NewCreate(log *slog.Logger, validate *validator.Validate, svc BookService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.books.NewCreate"

		log := log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		var req CreateRequest

		if err := render.DecodeJSON(r.Body, &req); err != nil {
			resp.WriteDecodeError(w, r, log, err)

			return
		}

		if err := validate.Struct(req); err != nil {
			resp.WriteValidationError(w, r, log, err)

			return
		}

		book, err := svc.Create(r.Context(), authn.CallerFrom(r.Context()), models.Book{
			Title:         req.Title,
			Author:        req.Author,
			PublishedYear: req.PublishedYear,
			Description:   req.Description,
		})
		if err != nil {
			resp.WriteError(w, r, log, err)

			return
		}

		render.Status(r, http.StatusCreated)
		render.JSON(w, r, Response{
			Response: resp.OK("Book added successfully"),
			Data:     book,
		})
	}
}

func NewGet(log *slog.Logger, svc BookService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.books.NewGet"

		log := log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		id, err := bookID(r)
		if err != nil {
			resp.WriteError(w, r, log, err)

			return
		}

		book, err := svc.Get(r.Context(), authn.CallerFrom(r.Context()), id)
		if err != nil {
			resp.WriteError(w, r, log, err)

			return
		}

		render.JSON(w, r, Response{
			Response: resp.OK("Book details retrieved successfully"),
			Data:     book,
		})
	}
}

func NewUpdate(log *slog.Logger, validate *validator.Validate, svc BookService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.books.NewUpdate"

		log := log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		id, err := bookID(r)
		if err != nil {
			resp.WriteError(w, r, log, err)

			return
		}

		var req UpdateRequest

		if err := render.DecodeJSON(r.Body, &req); err != nil {
			resp.WriteDecodeError(w, r, log, err)

			return
		}

		if err := validate.Struct(req); err != nil {
			resp.WriteValidationError(w, r, log, err)

			return
		}

		book, err := svc.Update(r.Context(), authn.CallerFrom(r.Context()), id, models.BookPatch{
			Title:         req.Title,
			Author:        req.Author,
			PublishedYear: req.PublishedYear,
			Description:   req.Description,
		})
		if err != nil {
			resp.WriteError(w, r, log, err)

			return
		}

		render.JSON(w, r, Response{
			Response: resp.OK("Book updated successfully"),
			Data:     book,
		})
	}
}

func NewDelete(log *slog.Logger, svc BookService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.books.NewDelete"

		log := log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		id, err := bookID(r)
		if err != nil {
			resp.WriteError(w, r, log, err)

			return
		}

		if err := svc.Delete(r.Context(), authn.CallerFrom(r.Context()), id); err != nil {
			resp.WriteError(w, r, log, err)

			return
		}

		log.Info("book removed", slog.Int64("book_id", id))

		render.JSON(w, r, resp.OK("Book deleted successfully"))
	}
}
