package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"library_api/internal/models"
	"library_api/internal/storage"
)

const bookColumns = `id, title, author, published_year, description, created_at, updated_at`

func scanBook(row pgx.Row) (models.Book, error) {
	var b models.Book

	err := row.Scan(
		&b.ID,
		&b.Title,
		&b.Author,
		&b.PublishedYear,
		&b.Description,
		&b.CreatedAt,
		&b.UpdatedAt,
	)

	return b, err
}

func (s *Storage) CreateBook(ctx context.Context, b models.Book) (models.Book, error) {
	const op = "storage.postgres.CreateBook"

	query := `
		INSERT INTO books (title, author, published_year, description)
		VALUES ($1, $2, $3, $4)
		RETURNING ` + bookColumns

	created, err := scanBook(s.db.QueryRow(ctx, query, b.Title, b.Author, b.PublishedYear, b.Description))
	if err != nil {
		return models.Book{}, fmt.Errorf("%s: %w", op, err)
	}

	return created, nil
}

func (s *Storage) BookByID(ctx context.Context, id int64) (models.Book, error) {
	const op = "storage.postgres.BookByID"

	b, err := scanBook(s.db.QueryRow(ctx, `SELECT `+bookColumns+` FROM books WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Book{}, storage.ErrBookNotFound
		}

		return models.Book{}, fmt.Errorf("%s: %w", op, err)
	}

	return b, nil
}

// UpdateBook обновляет только переданные поля.
func (s *Storage) UpdateBook(ctx context.Context, id int64, p models.BookPatch) (models.Book, error) {
	const op = "storage.postgres.UpdateBook"

	query := `
		UPDATE books SET
			title = COALESCE($2, title),
			author = COALESCE($3, author),
			published_year = COALESCE($4, published_year),
			description = COALESCE($5, description),
			updated_at = NOW()
		WHERE id = $1
		RETURNING ` + bookColumns

	b, err := scanBook(s.db.QueryRow(ctx, query, id, p.Title, p.Author, p.PublishedYear, p.Description))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Book{}, storage.ErrBookNotFound
		}

		return models.Book{}, fmt.Errorf("%s: %w", op, err)
	}

	return b, nil
}

func (s *Storage) DeleteBook(ctx context.Context, id int64) error {
	const op = "storage.postgres.DeleteBook"

	tag, err := s.db.Exec(ctx, `DELETE FROM books WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if tag.RowsAffected() == 0 {
		return storage.ErrBookNotFound
	}

	return nil
}

// ListBooks returns one page of books matching the filter, ordered by title.
func (s *Storage) ListBooks(ctx context.Context, f models.BookFilter) ([]models.Book, int64, error) {
	const op = "storage.postgres.ListBooks"

	where, args := bookWhere(f)

	var total int64

	if err := s.db.QueryRow(ctx, `SELECT COUNT(*) FROM books`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("%s: failed to count books: %w", op, err)
	}

	order := "ASC"
	if f.Desc {
		order = "DESC"
	}

	n := len(args)
	query := fmt.Sprintf(`SELECT %s FROM books%s ORDER BY title %s, id LIMIT $%d OFFSET $%d`,
		bookColumns, where, order, n+1, n+2,
	)
	args = append(args, f.PerPage, (f.Page-1)*f.PerPage)

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	books := make([]models.Book, 0, f.PerPage)

	for rows.Next() {
		b, err := scanBook(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("%s: failed to scan book: %w", op, err)
		}
		books = append(books, b)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("%s: %w", op, err)
	}

	return books, total, nil
}

func bookWhere(f models.BookFilter) (string, []any) {
	var (
		conds []string
		args  []any
	)

	if f.Search != "" {
		args = append(args, "%"+f.Search+"%")
		n := len(args)
		conds = append(conds, fmt.Sprintf("(title ILIKE $%d OR author ILIKE $%d OR description ILIKE $%d)", n, n, n))
	}

	if f.PublishedYear != nil {
		args = append(args, *f.PublishedYear)
		conds = append(conds, fmt.Sprintf("published_year = $%d", len(args)))
	}

	if len(conds) == 0 {
		return "", args
	}

	return " WHERE " + strings.Join(conds, " AND "), args
}
