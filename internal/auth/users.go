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
	msgUnauthorizedAction = "Unauthorized action"
	msgUnauthorizedAccess = "Unauthorized access"
	msgSelfRoleChange     = "You cannot change your own role"
	msgActionUnauthorized = "This action is unauthorized."
	msgRoleInvalid        = "The selected role is invalid."
)

// UpdateRole меняет роль другого пользователя. Свою роль менять нельзя никому.
func (a *Auth) UpdateRole(ctx context.Context, caller *models.Caller, targetID int64, role string) (models.User, error) {
	const op = "Auth.UpdateRole"

	if err := requireCaller(caller); err != nil {
		return models.User{}, err
	}

	log := a.log.With(
		slog.String("op", op),
		slog.Int64("actor_id", caller.User.ID),
		slog.Int64("target_id", targetID),
	)

	if caller.User.ID == targetID {
		log.Info("self role change rejected")

		return models.User{}, apperr.Forbidden(msgUnauthorizedAction).WithField("authorization", msgSelfRoleChange)
	}

	if !authz.Allowed(authz.SubjectOf(caller.User), authz.UserUpdateRole, &authz.Subject{ID: targetID}) {
		log.Info("role change denied")

		return models.User{}, apperr.Forbidden(msgUnauthorizedAction).WithField("authorization", msgActionUnauthorized)
	}

	newRole, ok := models.ParseRole(role)
	if !ok {
		return models.User{}, apperr.Validation(msgValidation, map[string][]string{
			"role": {msgRoleInvalid},
		})
	}

	updated, err := a.users.UpdateRole(ctx, targetID, newRole)
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			return models.User{}, apperr.NotFound(msgUserNotFound).WithField("id", msgUserNotFound)
		}

		return models.User{}, fmt.Errorf("%s: %w", op, err)
	}

	log.Info("role updated", slog.String("role", string(updated.Role)))

	return updated, nil
}

func (a *Auth) ListUsers(ctx context.Context, caller *models.Caller, page, perPage int) ([]models.User, models.PageMeta, error) {
	const op = "Auth.ListUsers"

	if err := authorize(caller, authz.UserViewAny, nil, msgUnauthorizedAccess); err != nil {
		return nil, models.PageMeta{}, err
	}

	page, perPage = models.NormalizePage(page, perPage)

	users, total, err := a.users.ListUsers(ctx, page, perPage)
	if err != nil {
		return nil, models.PageMeta{}, fmt.Errorf("%s: %w", op, err)
	}

	return users, models.NewPageMeta(page, perPage, total), nil
}

// EnsureAdmin creates a verified admin when none exists yet.
func (a *Auth) EnsureAdmin(ctx context.Context, name, email, password string) (bool, error) {
	const op = "Auth.EnsureAdmin"

	if email == "" || password == "" {
		return false, nil
	}

	n, err := a.users.CountAdmins(ctx)
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}

	if n > 0 {
		return false, nil
	}

	passHash, err := a.hasher.Hash(password)
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}

	verifiedAt := a.now()

	user, err := a.users.CreateUser(ctx, models.User{
		Name:            name,
		Email:           email,
		PassHash:        passHash,
		Role:            models.RoleAdmin,
		EmailVerifiedAt: &verifiedAt,
	})
	if err != nil {
		if errors.Is(err, storage.ErrUserExists) {
			a.log.Warn("bootstrap admin email is taken by a non-admin user", slog.String("op", op))
			return false, nil
		}

		return false, fmt.Errorf("%s: %w", op, err)
	}

	a.log.Info("bootstrap admin created", slog.String("op", op), slog.Int64("uid", user.ID))

	return true, nil
}
