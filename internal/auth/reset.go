package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"

	"library_api/internal/apperr"
	sl "library_api/internal/lib/logger/sl"
	"library_api/internal/lib/tokens"
	"library_api/internal/models"
	"library_api/internal/storage"
)

const (
	resetSecretLength    = 64
	rememberTokenLength  = 60
	msgThrottled         = "Please wait before retrying."
	msgResetInvalid      = "This password reset token is invalid."
	msgResetExpired      = "This password reset token has expired."
	subjectResetPassword = "Reset Password Notification"
	subjectPassChanged   = "Your password has been changed"
)

// ForgotPassword запускает сброс пароля. Результат для вызывающего не зависит
// от того, зарегистрирован ли email. Ошибка только при throttle.
func (a *Auth) ForgotPassword(ctx context.Context, email string) error {
	const op = "Auth.ForgotPassword"

	log := a.log.With(slog.String("op", op))

	email = models.NormalizeEmail(email)

	acquired, err := a.resets.AcquireResetThrottle(ctx, email, a.cfg.ResetThrottle)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if !acquired {
		return apperr.Throttled(msgThrottled)
	}

	user, err := a.users.UserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			log.Info("reset requested for unknown email")
			return nil
		}

		return fmt.Errorf("%s: %w", op, err)
	}

	secret, err := tokens.NewSecret(resetSecretLength)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	reset := models.PasswordReset{
		Email:     user.Email,
		TokenHash: tokens.Digest(secret),
		CreatedAt: a.now(),
	}

	// * ключ живет дольше окна, чтобы отличать просроченный токен от неизвестного
	if err := a.resets.SaveReset(ctx, reset, 2*a.cfg.ResetTTL); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	a.notify(models.Message{
		Email:   user.Email,
		Subject: subjectResetPassword,
		Link:    a.resetLink(secret, user.Email),
		Purpose: models.PurposePasswordReset,
	})

	log.Info("password reset link issued", slog.Int64("uid", user.ID))

	return nil
}

// ResetPassword consumes the reset token and sets a new password.
func (a *Auth) ResetPassword(ctx context.Context, email, token, password string) error {
	const op = "Auth.ResetPassword"

	log := a.log.With(slog.String("op", op))

	email = models.NormalizeEmail(email)

	reset, err := a.resets.Reset(ctx, email)
	if err != nil {
		if errors.Is(err, storage.ErrResetNotFound) {
			return apperr.InvalidToken(msgResetInvalid)
		}

		return fmt.Errorf("%s: %w", op, err)
	}

	user, err := a.users.UserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			return apperr.InvalidToken(msgResetInvalid)
		}

		return fmt.Errorf("%s: %w", op, err)
	}

	if !tokens.Equal(reset.TokenHash, tokens.Digest(token)) {
		return apperr.InvalidToken(msgResetInvalid)
	}

	if reset.IsExpired(a.cfg.ResetTTL, a.now()) {
		if _, err := a.resets.ConsumeReset(ctx, email); err != nil {
			log.Warn("failed to drop expired reset", sl.Err(err))
		}

		return apperr.InvalidToken(msgResetExpired)
	}

	// * пароль хэшируется до погашения токена
	passHash, err := a.hashPassword(password)
	if err != nil {
		if _, ok := apperr.As(err); ok {
			return err
		}

		return fmt.Errorf("%s: %w", op, err)
	}

	consumed, err := a.resets.ConsumeReset(ctx, email)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	// * токен уже использован другим запросом
	if !consumed {
		return apperr.InvalidToken(msgResetInvalid)
	}

	remember, err := tokens.NewSecret(rememberTokenLength)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if err := a.users.SetPassword(ctx, user.ID, passHash, remember); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	a.notify(models.Message{
		Email:   user.Email,
		Subject: subjectPassChanged,
		Purpose: models.PurposePasswordChanged,
	})

	log.Info("password reset", slog.Int64("uid", user.ID))

	return nil
}

func (a *Auth) resetLink(secret, email string) string {
	q := url.Values{}
	q.Set("token", secret)
	q.Set("email", email)

	return a.cfg.ResetURL + "?" + q.Encode()
}
