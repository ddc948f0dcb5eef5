package books

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"library_api/internal/apperr"
	"library_api/internal/lib/api/validate"
	"library_api/internal/lib/logger/handlers/slogdiscard"
	"library_api/internal/middleware/authn"
	"library_api/internal/models"
)

type stubService struct {
	filter  models.BookFilter
	patch   models.BookPatch
	created models.Book
	list    []models.Book
	err     error
}

func (s *stubService) List(_ context.Context, _ *models.Caller, f models.BookFilter) ([]models.Book, models.PageMeta, error) {
	s.filter = f

	return s.list, models.NewPageMeta(f.Page, 10, int64(len(s.list))), s.err
}

func (s *stubService) Create(_ context.Context, _ *models.Caller, b models.Book) (models.Book, error) {
	b.ID = 1
	s.created = b

	return b, s.err
}

func (s *stubService) Get(_ context.Context, _ *models.Caller, id int64) (models.Book, error) {
	return models.Book{ID: id, Title: "Go"}, s.err
}

func (s *stubService) Update(_ context.Context, _ *models.Caller, id int64, p models.BookPatch) (models.Book, error) {
	s.patch = p

	return models.Book{ID: id}, s.err
}

func (s *stubService) Delete(_ context.Context, _ *models.Caller, _ int64) error {
	return s.err
}

func newRouter(svc BookService) http.Handler {
	log := slogdiscard.NewDiscardLogger()
	v := validate.New()

	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			caller := &models.Caller{User: models.User{ID: 1, Role: models.RoleEditor}}
			next.ServeHTTP(w, r.WithContext(authn.WithCaller(r.Context(), caller)))
		})
	})
	r.Get("/books", NewList(log, svc))
	r.Post("/books", NewCreate(log, v, svc))
	r.Get("/books/{id}", NewGet(log, svc))
	r.Put("/books/{id}", NewUpdate(log, v, svc))
	r.Delete("/books/{id}", NewDelete(log, svc))

	return r
}

func do(t *testing.T, h http.Handler, method, url, body string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()

	req := httptest.NewRequest(method, url, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	var out map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &out), rr.Body.String())

	return rr, out
}

func TestListParsesFilter(t *testing.T) {
	svc := &stubService{}

	rr, body := do(t, newRouter(svc), http.MethodGet, "/books?search=go&published_year=2015&order=desc&per_page=5&page=2", "")
	require.Equal(t, http.StatusOK, rr.Code)

	assert.Equal(t, "No books found", body["message"])
	assert.Equal(t, []any{}, body["data"])
	assert.Equal(t, "go", svc.filter.Search)
	require.NotNil(t, svc.filter.PublishedYear)
	assert.Equal(t, 2015, *svc.filter.PublishedYear)
	assert.True(t, svc.filter.Desc)
	assert.Equal(t, 5, svc.filter.PerPage)
	assert.Equal(t, 2, svc.filter.Page)
}

func TestListRejectsBadQuery(t *testing.T) {
	for _, url := range []string{"/books?order=up", "/books?per_page=0", "/books?published_year=x"} {
		rr, body := do(t, newRouter(&stubService{}), http.MethodGet, url, "")
		assert.Equal(t, http.StatusUnprocessableEntity, rr.Code, url)
		assert.Equal(t, false, body["success"], url)
	}
}

func TestListWithBooks(t *testing.T) {
	svc := &stubService{list: []models.Book{{ID: 1, Title: "Go"}}}

	rr, body := do(t, newRouter(svc), http.MethodGet, "/books", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "Books retrieved successfully", body["message"])
	assert.Contains(t, body, "meta")
	assert.False(t, svc.filter.Desc)
}

func TestCreate(t *testing.T) {
	svc := &stubService{}

	rr, body := do(t, newRouter(svc), http.MethodPost, "/books",
		`{"title":"Go","author":"Pike","published_year":2015,"description":"book"}`)
	require.Equal(t, http.StatusCreated, rr.Code)
	assert.Equal(t, "Book added successfully", body["message"])
	assert.Equal(t, "Pike", svc.created.Author)

	rr, body = do(t, newRouter(svc), http.MethodPost, "/books", `{"title":"Go"}`)
	require.Equal(t, http.StatusUnprocessableEntity, rr.Code)
	assert.Contains(t, body["errors"], "description")

	rr, _ = do(t, newRouter(svc), http.MethodPost, "/books", `{`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestCreateForbidden(t *testing.T) {
	svc := &stubService{err: apperr.Forbidden("This action is unauthorized.")}

	rr, body := do(t, newRouter(svc), http.MethodPost, "/books",
		`{"title":"Go","author":"Pike","published_year":2015,"description":"book"}`)
	assert.Equal(t, http.StatusForbidden, rr.Code)
	assert.Equal(t, "This action is unauthorized.", body["message"])
}

func TestUpdatePartial(t *testing.T) {
	svc := &stubService{}

	rr, body := do(t, newRouter(svc), http.MethodPut, "/books/3", `{"title":"New"}`)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "Book updated successfully", body["message"])

	require.NotNil(t, svc.patch.Title)
	assert.Equal(t, "New", *svc.patch.Title)
	assert.Nil(t, svc.patch.Author)
	assert.Nil(t, svc.patch.PublishedYear)
}

func TestGetAndDelete(t *testing.T) {
	rr, body := do(t, newRouter(&stubService{}), http.MethodGet, "/books/3", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "Book details retrieved successfully", body["message"])

	rr, body = do(t, newRouter(&stubService{}), http.MethodGet, "/books/abc", "")
	require.Equal(t, http.StatusNotFound, rr.Code)
	assert.Equal(t, "Book not found", body["message"])

	rr, body = do(t, newRouter(&stubService{}), http.MethodDelete, "/books/3", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "Book deleted successfully", body["message"])
}

func TestUnexpectedErrorIsHidden(t *testing.T) {
	svc := &stubService{err: assert.AnError}

	rr, body := do(t, newRouter(svc), http.MethodGet, "/books/3", "")
	require.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.Equal(t, "Internal error", body["message"])
	assert.NotContains(t, rr.Body.String(), assert.AnError.Error())
}
