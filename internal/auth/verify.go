package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"library_api/internal/apperr"
	"library_api/internal/models"
	"library_api/internal/storage"
)

const (
	msgInvalidSignature = "Invalid signature."
	msgUserNotFound     = "User not found"
	msgInvalidLink      = "Invalid verification link"

	subjectVerifyEmail   = "Verify Email Address"
	subjectEmailVerified = "Email Verified"
)

// VerifyEmail checks the link against the stored email, then its signature,
// and marks the email as verified.
// alreadyVerified is true when nothing changed.
func (a *Auth) VerifyEmail(ctx context.Context, userID int64, hash, signature string) (alreadyVerified bool, err error) {
	const op = "Auth.VerifyEmail"

	log := a.log.With(slog.String("op", op), slog.Int64("uid", userID))

	user, err := a.users.UserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			return false, apperr.NotFound(msgUserNotFound)
		}

		return false, fmt.Errorf("%s: %w", op, err)
	}

	if !a.signer.CheckHash(user.Email, hash) {
		return false, apperr.Unauthenticated(msgInvalidLink)
	}

	// * подпись проверяется только для совпавшего хэша
	if err := a.signer.CheckSignature(signature, userID, hash); err != nil {
		log.Info("bad verification signature", slog.String("reason", err.Error()))

		return false, apperr.Forbidden(msgInvalidSignature)
	}

	if user.IsVerified() {
		return true, nil
	}

	changed, err := a.users.MarkVerified(ctx, user.ID)
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}

	// * параллельный запрос успел подтвердить почту раньше
	if !changed {
		return true, nil
	}

	a.notify(models.Message{
		Email:   user.Email,
		Subject: subjectEmailVerified,
		Purpose: models.PurposeEmailVerified,
	})

	log.Info("email verified")

	return false, nil
}

// ResendVerification sends a fresh link unless the caller is already verified.
func (a *Auth) ResendVerification(ctx context.Context, caller *models.Caller) (sent bool, err error) {
	const op = "Auth.ResendVerification"

	if err := requireCaller(caller); err != nil {
		return false, err
	}

	if caller.User.IsVerified() {
		return false, nil
	}

	if err := a.sendVerification(caller.User); err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}

	return true, nil
}

func (a *Auth) sendVerification(user models.User) error {
	link, err := a.signer.Link(a.cfg.BaseURL, user.ID, user.Email)
	if err != nil {
		return err
	}

	a.notify(models.Message{
		Email:   user.Email,
		Subject: subjectVerifyEmail,
		Link:    link,
		Purpose: models.PurposeEmailVerification,
	})

	return nil
}
