package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"library_api/internal/models"
	"library_api/internal/storage"
)

const tokenColumns = `id, user_id, name, token_hash, last_used_at, created_at`

func scanToken(row pgx.Row) (models.AccessToken, error) {
	var t models.AccessToken

	err := row.Scan(
		&t.ID,
		&t.UserID,
		&t.Name,
		&t.TokenHash,
		&t.LastUsedAt,
		&t.CreatedAt,
	)

	return t, err
}

// CreateToken сохраняет дайджест нового токена. Сам секрет в базу не попадает.
func (s *Storage) CreateToken(ctx context.Context, userID int64, name, tokenHash string) (models.AccessToken, error) {
	const op = "storage.postgres.CreateToken"

	query := `
		INSERT INTO personal_access_tokens (user_id, name, token_hash)
		VALUES ($1, $2, $3)
		RETURNING ` + tokenColumns

	t, err := scanToken(s.db.QueryRow(ctx, query, userID, name, tokenHash))
	if err != nil {
		return models.AccessToken{}, fmt.Errorf("%s: %w", op, err)
	}

	return t, nil
}

// TokenByHash finds a token by digest and stamps last_used_at in the same
// statement, so a deleted row is never returned.
func (s *Storage) TokenByHash(ctx context.Context, tokenHash string) (models.AccessToken, error) {
	const op = "storage.postgres.TokenByHash"

	query := `
		UPDATE personal_access_tokens SET last_used_at = NOW()
		WHERE token_hash = $1
		RETURNING ` + tokenColumns

	t, err := scanToken(s.db.QueryRow(ctx, query, tokenHash))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.AccessToken{}, storage.ErrTokenNotFound
		}

		return models.AccessToken{}, fmt.Errorf("%s: %w", op, err)
	}

	return t, nil
}

func (s *Storage) ListTokens(ctx context.Context, userID int64) ([]models.AccessToken, error) {
	const op = "storage.postgres.ListTokens"

	query := `SELECT ` + tokenColumns + ` FROM personal_access_tokens WHERE user_id = $1 ORDER BY id`

	rows, err := s.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	tokens := []models.AccessToken{}

	for rows.Next() {
		t, err := scanToken(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: failed to scan token: %w", op, err)
		}
		tokens = append(tokens, t)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return tokens, nil
}

// DeleteToken removes one token of the user.
func (s *Storage) DeleteToken(ctx context.Context, userID, tokenID int64) error {
	const op = "storage.postgres.DeleteToken"

	tag, err := s.db.Exec(ctx, `DELETE FROM personal_access_tokens WHERE id = $1 AND user_id = $2`, tokenID, userID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if tag.RowsAffected() == 0 {
		return storage.ErrTokenNotFound
	}

	return nil
}

// * DeleteUserTokens удаляет все токены пользователя
func (s *Storage) DeleteUserTokens(ctx context.Context, userID int64) (int64, error) {
	const op = "storage.postgres.DeleteUserTokens"

	tag, err := s.db.Exec(ctx, `DELETE FROM personal_access_tokens WHERE user_id = $1`, userID)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	return tag.RowsAffected(), nil
}
