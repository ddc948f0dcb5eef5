package books

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"library_api/internal/apperr"
	"library_api/internal/lib/logger/handlers/slogdiscard"
	"library_api/internal/models"
	"library_api/internal/storage"
)

type fakeRepo struct {
	nextID int64
	books  map[int64]models.Book
	filter models.BookFilter
	err    error
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{books: map[int64]models.Book{}}
}

func (f *fakeRepo) CreateBook(_ context.Context, b models.Book) (models.Book, error) {
	if f.err != nil {
		return models.Book{}, f.err
	}
	f.nextID++
	b.ID = f.nextID
	f.books[b.ID] = b

	return b, nil
}

func (f *fakeRepo) BookByID(_ context.Context, id int64) (models.Book, error) {
	b, ok := f.books[id]
	if !ok {
		return models.Book{}, storage.ErrBookNotFound
	}

	return b, nil
}

func (f *fakeRepo) UpdateBook(_ context.Context, id int64, p models.BookPatch) (models.Book, error) {
	b, ok := f.books[id]
	if !ok {
		return models.Book{}, storage.ErrBookNotFound
	}
	if p.Title != nil {
		b.Title = *p.Title
	}
	if p.PublishedYear != nil {
		b.PublishedYear = *p.PublishedYear
	}
	f.books[id] = b

	return b, nil
}

func (f *fakeRepo) DeleteBook(_ context.Context, id int64) error {
	if _, ok := f.books[id]; !ok {
		return storage.ErrBookNotFound
	}
	delete(f.books, id)

	return nil
}

func (f *fakeRepo) ListBooks(_ context.Context, filter models.BookFilter) ([]models.Book, int64, error) {
	f.filter = filter

	out := make([]models.Book, 0, len(f.books))
	for _, b := range f.books {
		out = append(out, b)
	}

	return out, int64(len(out)), nil
}

func caller(role models.Role) *models.Caller {
	now := time.Now()

	return &models.Caller{User: models.User{ID: 1, Role: role, EmailVerifiedAt: &now}}
}

func newService() (*Service, *fakeRepo) {
	repo := newFakeRepo()

	return New(slogdiscard.NewDiscardLogger(), repo), repo
}

func sample() models.Book {
	return models.Book{Title: "Go", Author: "Pike", PublishedYear: 2015, Description: "book"}
}

func TestCreateByRole(t *testing.T) {
	tests := []struct {
		role models.Role
		kind apperr.Kind
		ok   bool
	}{
		{models.RoleAdmin, 0, true},
		{models.RoleEditor, 0, true},
		{models.RoleViewer, apperr.KindForbidden, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.role), func(t *testing.T) {
			svc, _ := newService()

			_, err := svc.Create(context.Background(), caller(tt.role), sample())
			if tt.ok {
				assert.NoError(t, err)
				return
			}
			assert.Equal(t, tt.kind, apperr.KindOf(err))
		})
	}
}

func TestDeleteOnlyAdmin(t *testing.T) {
	ctx := context.Background()
	svc, repo := newService()

	b, err := svc.Create(ctx, caller(models.RoleAdmin), sample())
	require.NoError(t, err)

	assert.Equal(t, apperr.KindForbidden, apperr.KindOf(svc.Delete(ctx, caller(models.RoleEditor), b.ID)))
	assert.Equal(t, apperr.KindForbidden, apperr.KindOf(svc.Delete(ctx, caller(models.RoleViewer), b.ID)))
	require.NoError(t, svc.Delete(ctx, caller(models.RoleAdmin), b.ID))

	assert.Empty(t, repo.books)
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(svc.Delete(ctx, caller(models.RoleAdmin), b.ID)))
}

func TestGetAndUpdate(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService()

	b, err := svc.Create(ctx, caller(models.RoleEditor), sample())
	require.NoError(t, err)

	got, err := svc.Get(ctx, caller(models.RoleViewer), b.ID)
	require.NoError(t, err)
	assert.Equal(t, "Go", got.Title)

	_, err = svc.Get(ctx, caller(models.RoleViewer), 404)
	e, ok := apperr.As(err)
	require.True(t, ok)
	assert.Equal(t, apperr.KindNotFound, e.Kind)
	assert.Contains(t, e.Fields, "book")

	title := "Go 2"
	_, err = svc.Update(ctx, caller(models.RoleViewer), b.ID, models.BookPatch{Title: &title})
	assert.Equal(t, apperr.KindForbidden, apperr.KindOf(err))

	updated, err := svc.Update(ctx, caller(models.RoleEditor), b.ID, models.BookPatch{Title: &title})
	require.NoError(t, err)
	assert.Equal(t, "Go 2", updated.Title)
	assert.Equal(t, "Pike", updated.Author)
}

func TestPublishedYearRange(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService()
	svc.now = func() time.Time { return time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC) }

	for year, valid := range map[int]bool{1899: false, 1900: true, 2027: true, 2028: false} {
		b := sample()
		b.PublishedYear = year

		_, err := svc.Create(ctx, caller(models.RoleAdmin), b)
		if valid {
			assert.NoError(t, err, year)
		} else {
			assert.Equal(t, apperr.KindValidation, apperr.KindOf(err), year)
		}
	}
}

func TestListNormalizesPaging(t *testing.T) {
	ctx := context.Background()
	svc, repo := newService()

	_, meta, err := svc.List(ctx, caller(models.RoleViewer), models.BookFilter{Page: 0, PerPage: 1000})
	require.NoError(t, err)

	assert.Equal(t, 1, repo.filter.Page)
	assert.Equal(t, models.MaxPerPage, repo.filter.PerPage)
	assert.Equal(t, 0, meta.LastPage)

	_, _, err = svc.List(ctx, nil, models.BookFilter{})
	assert.Equal(t, apperr.KindUnauthenticated, apperr.KindOf(err))
}

func TestRepositoryErrorIsInternal(t *testing.T) {
	svc, repo := newService()
	repo.err = errors.New("db down")

	_, err := svc.Create(context.Background(), caller(models.RoleAdmin), sample())
	require.Error(t, err)
	assert.Equal(t, apperr.KindInternal, apperr.KindOf(err))
}
