package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"library_api/internal/apperr"
	"library_api/internal/authz"
	"library_api/internal/models"
	"library_api/internal/storage"
)

const (
	msgUnauthorized  = "Unauthorized"
	msgTokenNotFound = "Token not found"
)

// CreateToken issues a named token for the caller. The plaintext is returned once.
func (a *Auth) CreateToken(ctx context.Context, caller *models.Caller, name string) (string, models.AccessToken, error) {
	const op = "Auth.CreateToken"

	if err := authorize(caller, authz.TokenCreate, nil, msgUnauthorized); err != nil {
		return "", models.AccessToken{}, err
	}

	plain, t, err := a.issueToken(ctx, caller.User.ID, name)
	if err != nil {
		return "", models.AccessToken{}, fmt.Errorf("%s: %w", op, err)
	}

	a.log.Info("token created", slog.String("op", op), slog.Int64("uid", caller.User.ID), slog.Int64("token_id", t.ID))

	return plain, t, nil
}

func (a *Auth) ListTokens(ctx context.Context, caller *models.Caller) ([]models.AccessToken, error) {
	const op = "Auth.ListTokens"

	if err := authorize(caller, authz.TokenViewAny, nil, msgUnauthorized); err != nil {
		return nil, err
	}

	list, err := a.tokens.ListTokens(ctx, caller.User.ID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return list, nil
}

// RevokeToken удаляет один токен вызывающего пользователя.
func (a *Auth) RevokeToken(ctx context.Context, caller *models.Caller, tokenID int64) error {
	const op = "Auth.RevokeToken"

	if err := authorize(caller, authz.TokenDelete, nil, msgUnauthorized); err != nil {
		return err
	}

	if err := a.tokens.DeleteToken(ctx, caller.User.ID, tokenID); err != nil {
		if errors.Is(err, storage.ErrTokenNotFound) {
			return apperr.NotFound(msgTokenNotFound)
		}

		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// RevokeAllTokens удаляет все токены вызывающего, включая текущий.
func (a *Auth) RevokeAllTokens(ctx context.Context, caller *models.Caller) error {
	const op = "Auth.RevokeAllTokens"

	if err := authorize(caller, authz.TokenDelete, nil, msgUnauthorized); err != nil {
		return err
	}

	n, err := a.tokens.DeleteUserTokens(ctx, caller.User.ID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	a.log.Info("tokens revoked", slog.String("op", op), slog.Int64("uid", caller.User.ID), slog.Int64("count", n))

	return nil
}
