package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"library_api/internal/models"
	"library_api/internal/storage"
)

const userColumns = `id, name, email, password_hash, role, email_verified_at, remember_token, created_at, updated_at`

func scanUser(row pgx.Row) (models.User, error) {
	var u models.User

	err := row.Scan(
		&u.ID,
		&u.Name,
		&u.Email,
		&u.PassHash,
		&u.Role,
		&u.EmailVerifiedAt,
		&u.RememberToken,
		&u.CreatedAt,
		&u.UpdatedAt,
	)

	return u, err
}

// CreateUser сохраняет нового пользователя. Пустая роль означает viewer.
func (s *Storage) CreateUser(ctx context.Context, u models.User) (models.User, error) {
	const op = "storage.postgres.CreateUser"

	role := u.Role
	if role == "" {
		role = models.RoleViewer
	}

	query := `
		INSERT INTO users (name, email, password_hash, role, email_verified_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING ` + userColumns

	created, err := scanUser(s.db.QueryRow(ctx, query,
		u.Name, models.NormalizeEmail(u.Email), u.PassHash, role, u.EmailVerifiedAt,
	))
	if err != nil {
		if isUniqueViolation(err) {
			return models.User{}, storage.ErrUserExists
		}

		return models.User{}, fmt.Errorf("%s: failed to save user: %w", op, err)
	}

	return created, nil
}

func (s *Storage) UserByID(ctx context.Context, id int64) (models.User, error) {
	const op = "storage.postgres.UserByID"

	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`

	u, err := scanUser(s.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.User{}, storage.ErrUserNotFound
		}

		return models.User{}, fmt.Errorf("%s: %w", op, err)
	}

	return u, nil
}

func (s *Storage) UserByEmail(ctx context.Context, email string) (models.User, error) {
	const op = "storage.postgres.UserByEmail"

	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`

	u, err := scanUser(s.db.QueryRow(ctx, query, models.NormalizeEmail(email)))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.User{}, storage.ErrUserNotFound
		}

		return models.User{}, fmt.Errorf("%s: %w", op, err)
	}

	return u, nil
}

// UpdateRole locks the row and changes the role in one transaction.
func (s *Storage) UpdateRole(ctx context.Context, id int64, role models.Role) (models.User, error) {
	const op = "storage.postgres.UpdateRole"

	var updated models.User

	err := s.withTx(ctx, func(tx pgx.Tx) error {
		var lockedID int64

		err := tx.QueryRow(ctx, `SELECT id FROM users WHERE id = $1 FOR UPDATE`, id).Scan(&lockedID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return storage.ErrUserNotFound
			}
			return err
		}

		query := `
			UPDATE users SET role = $2, updated_at = NOW()
			WHERE id = $1
			RETURNING ` + userColumns

		updated, err = scanUser(tx.QueryRow(ctx, query, id, role))

		return err
	})
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			return models.User{}, err
		}

		return models.User{}, fmt.Errorf("%s: %w", op, err)
	}

	return updated, nil
}

// SetPassword заменяет хэш пароля и remember_token.
func (s *Storage) SetPassword(ctx context.Context, id int64, passHash, rememberToken string) error {
	const op = "storage.postgres.SetPassword"

	query := `
		UPDATE users SET password_hash = $2, remember_token = $3, updated_at = NOW()
		WHERE id = $1
	`

	tag, err := s.db.Exec(ctx, query, id, passHash, rememberToken)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if tag.RowsAffected() == 0 {
		return storage.ErrUserNotFound
	}

	return nil
}

// MarkVerified sets email_verified_at once. It reports false when the
// user was already verified.
func (s *Storage) MarkVerified(ctx context.Context, id int64) (bool, error) {
	const op = "storage.postgres.MarkVerified"

	query := `
		UPDATE users SET email_verified_at = NOW(), updated_at = NOW()
		WHERE id = $1 AND email_verified_at IS NULL
	`

	tag, err := s.db.Exec(ctx, query, id)
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}

	return tag.RowsAffected() == 1, nil
}

func (s *Storage) ListUsers(ctx context.Context, page, perPage int) ([]models.User, int64, error) {
	const op = "storage.postgres.ListUsers"

	var total int64

	if err := s.db.QueryRow(ctx, `SELECT COUNT(*) FROM users`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("%s: failed to count users: %w", op, err)
	}

	query := `SELECT ` + userColumns + ` FROM users ORDER BY id LIMIT $1 OFFSET $2`

	rows, err := s.db.Query(ctx, query, perPage, (page-1)*perPage)
	if err != nil {
		return nil, 0, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	users := make([]models.User, 0, perPage)

	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("%s: failed to scan user: %w", op, err)
		}
		users = append(users, u)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("%s: %w", op, err)
	}

	return users, total, nil
}

func (s *Storage) CountAdmins(ctx context.Context) (int64, error) {
	const op = "storage.postgres.CountAdmins"

	var n int64

	err := s.db.QueryRow(ctx, `SELECT COUNT(*) FROM users WHERE role = $1`, models.RoleAdmin).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	return n, nil
}
