// Package auth composes the credential store, token registry, verification
// and reset protocols into the request flows of the API.
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"library_api/internal/apperr"
	"library_api/internal/authz"
	"library_api/internal/lib/hasher"
	sl "library_api/internal/lib/logger/sl"
	"library_api/internal/models"
)

const (
	msgUnauthenticated = "Unauthenticated"
	msgValidation      = "Validation error"
)

type UserStore interface {
	CreateUser(ctx context.Context, u models.User) (models.User, error)
	UserByID(ctx context.Context, id int64) (models.User, error)
	UserByEmail(ctx context.Context, email string) (models.User, error)
	UpdateRole(ctx context.Context, id int64, role models.Role) (models.User, error)
	SetPassword(ctx context.Context, id int64, passHash, rememberToken string) error
	MarkVerified(ctx context.Context, id int64) (bool, error)
	ListUsers(ctx context.Context, page, perPage int) ([]models.User, int64, error)
	CountAdmins(ctx context.Context) (int64, error)
}

type TokenStore interface {
	CreateToken(ctx context.Context, userID int64, name, tokenHash string) (models.AccessToken, error)
	TokenByHash(ctx context.Context, tokenHash string) (models.AccessToken, error)
	ListTokens(ctx context.Context, userID int64) ([]models.AccessToken, error)
	DeleteToken(ctx context.Context, userID, tokenID int64) error
	DeleteUserTokens(ctx context.Context, userID int64) (int64, error)
}

type ResetStore interface {
	SaveReset(ctx context.Context, reset models.PasswordReset, ttl time.Duration) error
	Reset(ctx context.Context, email string) (models.PasswordReset, error)
	ConsumeReset(ctx context.Context, email string) (bool, error)
	AcquireResetThrottle(ctx context.Context, email string, window time.Duration) (bool, error)
}

type PasswordHasher interface {
	Hash(plain string) (string, error)
	Verify(plain, digest string) bool
}

type LinkSigner interface {
	Link(baseURL string, userID int64, email string) (string, error)
	CheckHash(email, presented string) bool
	CheckSignature(signature string, userID int64, hash string) error
}

type Publisher interface {
	SendMessage(ctx context.Context, msg models.Message) error
}

type Config struct {
	BaseURL        string
	ResetURL       string
	ResetTTL       time.Duration
	ResetThrottle  time.Duration
	PublishTimeout time.Duration
}

type Auth struct {
	log       *slog.Logger
	users     UserStore
	tokens    TokenStore
	resets    ResetStore
	hasher    PasswordHasher
	signer    LinkSigner
	publisher Publisher
	cfg       Config
	now       func() time.Time

	dummyOnce sync.Once
	dummyHash string

	wg sync.WaitGroup
}

func New(
	log *slog.Logger,
	users UserStore,
	tokens TokenStore,
	resets ResetStore,
	hasher PasswordHasher,
	signer LinkSigner,
	publisher Publisher,
	cfg Config,
) *Auth {
	if cfg.PublishTimeout <= 0 {
		cfg.PublishTimeout = 3 * time.Second
	}

	return &Auth{
		log:       log,
		users:     users,
		tokens:    tokens,
		resets:    resets,
		hasher:    hasher,
		signer:    signer,
		publisher: publisher,
		cfg:       cfg,
		now:       time.Now,
	}
}

// Wait blocks until every pending notification has been handed to the publisher.
func (a *Auth) Wait() {
	a.wg.Wait()
}

// * notify отправляет уведомление в фоне, не блокируя запрос
func (a *Auth) notify(msg models.Message) {
	const op = "Auth.notify"

	a.wg.Add(1)

	go func() {
		defer a.wg.Done()

		ctx, cancel := context.WithTimeout(context.Background(), a.cfg.PublishTimeout)
		defer cancel()

		if err := a.publisher.SendMessage(ctx, msg); err != nil {
			a.log.Error("failed to publish notification",
				slog.String("op", op),
				slog.String("purpose", msg.Purpose),
				sl.Err(err),
			)
		}
	}()
}

func requireCaller(caller *models.Caller) error {
	if caller == nil {
		return apperr.Unauthenticated(msgUnauthenticated)
	}

	return nil
}

// authorize consults the decision table and returns a Forbidden error on deny.
func authorize(caller *models.Caller, action authz.Action, target *authz.Subject, message string) error {
	if err := requireCaller(caller); err != nil {
		return err
	}

	if !authz.Allowed(authz.SubjectOf(caller.User), action, target) {
		return apperr.Forbidden(message)
	}

	return nil
}

// hashPassword reports hasher input limits as a validation failure on password.
func (a *Auth) hashPassword(password string) (string, error) {
	passHash, err := a.hasher.Hash(password)
	if err != nil {
		if errors.Is(err, hasher.ErrPasswordTooLong) {
			return "", apperr.Validation(msgValidation, map[string][]string{
				"password": {fmt.Sprintf("The password field must not be greater than %d bytes.", hasher.MaxPasswordBytes)},
			})
		}

		return "", fmt.Errorf("failed to hash password: %w", err)
	}

	return passHash, nil
}
