package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"library_api/internal/apperr"
	sl "library_api/internal/lib/logger/sl"
	"library_api/internal/lib/tokens"
	"library_api/internal/models"
	"library_api/internal/storage"
)

const (
	loginTokenName = "API Token"

	msgInvalidCredentials = "Invalid credentials"
	msgEmailNotVerified   = "Email not verified"
	msgEmailTaken         = "The email has already been taken."
)

// ErrInvalidToken is returned by Authenticate for any unknown, revoked or malformed token.
var ErrInvalidToken = errors.New("invalid or unknown token")

// RegisterNewUser создает пользователя с ролью viewer и отправляет письмо подтверждения.
func (a *Auth) RegisterNewUser(ctx context.Context, name, email, password string) (models.User, error) {
	const op = "Auth.RegisterNewUser"

	log := a.log.With(slog.String("op", op))

	passHash, err := a.hashPassword(password)
	if err != nil {
		if _, ok := apperr.As(err); ok {
			return models.User{}, err
		}

		return models.User{}, fmt.Errorf("%s: %w", op, err)
	}

	user, err := a.users.CreateUser(ctx, models.User{
		Name:     name,
		Email:    email,
		PassHash: passHash,
		Role:     models.RoleViewer,
	})
	if err != nil {
		if errors.Is(err, storage.ErrUserExists) {
			log.Info("email already registered")

			return models.User{}, apperr.New(apperr.KindConflict, msgValidation).WithField("email", msgEmailTaken)
		}

		return models.User{}, fmt.Errorf("%s: %w", op, err)
	}

	if err := a.sendVerification(user); err != nil {
		log.Error("failed to build verification link", sl.Err(err))
	}

	log.Info("user registered", slog.Int64("uid", user.ID))

	return user, nil
}

// Login проверяет учетные данные и выдает новый bearer токен.
func (a *Auth) Login(ctx context.Context, email, password string) (string, models.User, error) {
	const op = "Auth.Login"

	log := a.log.With(slog.String("op", op))

	user, err := a.users.UserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			a.hasher.Verify(password, a.dummyDigest())
			log.Info("user not found")

			return "", models.User{}, apperr.Unauthenticated(msgInvalidCredentials)
		}

		return "", models.User{}, fmt.Errorf("%s: %w", op, err)
	}

	if !a.hasher.Verify(password, user.PassHash) {
		log.Info("invalid credentials", slog.Int64("uid", user.ID))

		return "", models.User{}, apperr.Unauthenticated(msgInvalidCredentials)
	}

	if !user.IsVerified() {
		return "", models.User{}, apperr.Forbidden(msgEmailNotVerified)
	}

	plain, _, err := a.issueToken(ctx, user.ID, loginTokenName)
	if err != nil {
		return "", models.User{}, fmt.Errorf("%s: %w", op, err)
	}

	log.Info("user logged in successfully", slog.Int64("uid", user.ID))

	return plain, user, nil
}

// Logout revokes only the token that authenticated the request.
func (a *Auth) Logout(ctx context.Context, caller *models.Caller) error {
	const op = "Auth.Logout"

	if err := requireCaller(caller); err != nil {
		return err
	}

	err := a.tokens.DeleteToken(ctx, caller.User.ID, caller.TokenID)
	if err != nil && !errors.Is(err, storage.ErrTokenNotFound) {
		return fmt.Errorf("%s: %w", op, err)
	}

	a.log.Info("user logged out", slog.String("op", op), slog.Int64("uid", caller.User.ID))

	return nil
}

// Authenticate resolves a presented bearer value to its owner. Every call
// reads the registry, so a revoked token fails on the next request.
func (a *Auth) Authenticate(ctx context.Context, presented string) (*models.Caller, error) {
	const op = "Auth.Authenticate"

	if presented == "" {
		return nil, ErrInvalidToken
	}

	id, secret, hasID := tokens.Parse(presented)
	digest := tokens.Digest(secret)

	t, err := a.tokens.TokenByHash(ctx, digest)
	if err != nil {
		if errors.Is(err, storage.ErrTokenNotFound) {
			return nil, ErrInvalidToken
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if !tokens.Equal(t.TokenHash, digest) || (hasID && id != t.ID) {
		return nil, ErrInvalidToken
	}

	user, err := a.users.UserByID(ctx, t.UserID)
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			return nil, ErrInvalidToken
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &models.Caller{User: user, TokenID: t.ID}, nil
}

func (a *Auth) issueToken(ctx context.Context, userID int64, name string) (string, models.AccessToken, error) {
	const op = "Auth.issueToken"

	secret, err := tokens.NewSecret(tokens.SecretLength)
	if err != nil {
		return "", models.AccessToken{}, fmt.Errorf("%s: %w", op, err)
	}

	t, err := a.tokens.CreateToken(ctx, userID, name, tokens.Digest(secret))
	if err != nil {
		return "", models.AccessToken{}, fmt.Errorf("%s: %w", op, err)
	}

	return tokens.Format(t.ID, secret), t, nil
}

// dummyDigest is verified against when the email is unknown so both paths cost one hash check.
func (a *Auth) dummyDigest() string {
	a.dummyOnce.Do(func() {
		digest, err := a.hasher.Hash("timing-equalizer-password")
		if err != nil {
			a.log.Error("failed to prepare dummy hash", sl.Err(err))
			return
		}
		a.dummyHash = digest
	})

	return a.dummyHash
}
