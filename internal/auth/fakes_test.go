package auth

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"library_api/internal/lib/hasher"
	"library_api/internal/lib/logger/handlers/slogdiscard"
	"library_api/internal/lib/verification"
	"library_api/internal/models"
	"library_api/internal/storage"
)

type fakeUsers struct {
	mu     sync.Mutex
	nextID int64
	byID   map[int64]models.User
}

func newFakeUsers() *fakeUsers {
	return &fakeUsers{byID: map[int64]models.User{}}
}

func (f *fakeUsers) CreateUser(_ context.Context, u models.User) (models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	u.Email = models.NormalizeEmail(u.Email)
	for _, existing := range f.byID {
		if existing.Email == u.Email {
			return models.User{}, storage.ErrUserExists
		}
	}

	if u.Role == "" {
		u.Role = models.RoleViewer
	}

	f.nextID++
	u.ID = f.nextID
	u.CreatedAt = time.Now()
	u.UpdatedAt = u.CreatedAt
	f.byID[u.ID] = u

	return u, nil
}

func (f *fakeUsers) UserByID(_ context.Context, id int64) (models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	u, ok := f.byID[id]
	if !ok {
		return models.User{}, storage.ErrUserNotFound
	}

	return u, nil
}

func (f *fakeUsers) UserByEmail(_ context.Context, email string) (models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	email = models.NormalizeEmail(email)
	for _, u := range f.byID {
		if u.Email == email {
			return u, nil
		}
	}

	return models.User{}, storage.ErrUserNotFound
}

func (f *fakeUsers) UpdateRole(_ context.Context, id int64, role models.Role) (models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	u, ok := f.byID[id]
	if !ok {
		return models.User{}, storage.ErrUserNotFound
	}

	u.Role = role
	u.UpdatedAt = time.Now()
	f.byID[id] = u

	return u, nil
}

func (f *fakeUsers) SetPassword(_ context.Context, id int64, passHash, rememberToken string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	u, ok := f.byID[id]
	if !ok {
		return storage.ErrUserNotFound
	}

	u.PassHash = passHash
	u.RememberToken = &rememberToken
	f.byID[id] = u

	return nil
}

func (f *fakeUsers) MarkVerified(_ context.Context, id int64) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	u, ok := f.byID[id]
	if !ok || u.EmailVerifiedAt != nil {
		return false, nil
	}

	now := time.Now()
	u.EmailVerifiedAt = &now
	f.byID[id] = u

	return true, nil
}

func (f *fakeUsers) ListUsers(_ context.Context, page, perPage int) ([]models.User, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	all := make([]models.User, 0, len(f.byID))
	for _, u := range f.byID {
		all = append(all, u)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID < all[j].ID })

	start := (page - 1) * perPage
	if start > len(all) {
		start = len(all)
	}
	end := min(start+perPage, len(all))

	return all[start:end], int64(len(all)), nil
}

func (f *fakeUsers) CountAdmins(_ context.Context) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var n int64
	for _, u := range f.byID {
		if u.Role == models.RoleAdmin {
			n++
		}
	}

	return n, nil
}

// verify marks a user verified directly, bypassing the link flow.
func (f *fakeUsers) verify(id int64) {
	f.mu.Lock()
	defer f.mu.Unlock()

	u := f.byID[id]
	now := time.Now()
	u.EmailVerifiedAt = &now
	f.byID[id] = u
}

type fakeTokens struct {
	mu     sync.Mutex
	nextID int64
	byID   map[int64]models.AccessToken
}

func newFakeTokens() *fakeTokens {
	return &fakeTokens{byID: map[int64]models.AccessToken{}}
}

func (f *fakeTokens) CreateToken(_ context.Context, userID int64, name, tokenHash string) (models.AccessToken, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.nextID++
	t := models.AccessToken{ID: f.nextID, UserID: userID, Name: name, TokenHash: tokenHash, CreatedAt: time.Now()}
	f.byID[t.ID] = t

	return t, nil
}

func (f *fakeTokens) TokenByHash(_ context.Context, tokenHash string) (models.AccessToken, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for id, t := range f.byID {
		if t.TokenHash == tokenHash {
			now := time.Now()
			t.LastUsedAt = &now
			f.byID[id] = t
			return t, nil
		}
	}

	return models.AccessToken{}, storage.ErrTokenNotFound
}

func (f *fakeTokens) ListTokens(_ context.Context, userID int64) ([]models.AccessToken, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	out := []models.AccessToken{}
	for _, t := range f.byID {
		if t.UserID == userID {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })

	return out, nil
}

func (f *fakeTokens) DeleteToken(_ context.Context, userID, tokenID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	t, ok := f.byID[tokenID]
	if !ok || t.UserID != userID {
		return storage.ErrTokenNotFound
	}
	delete(f.byID, tokenID)

	return nil
}

func (f *fakeTokens) DeleteUserTokens(_ context.Context, userID int64) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var n int64
	for id, t := range f.byID {
		if t.UserID == userID {
			delete(f.byID, id)
			n++
		}
	}

	return n, nil
}

type fakeResets struct {
	mu        sync.Mutex
	resets    map[string]models.PasswordReset
	throttled map[string]bool
}

func newFakeResets() *fakeResets {
	return &fakeResets{
		resets:    map[string]models.PasswordReset{},
		throttled: map[string]bool{},
	}
}

func (f *fakeResets) SaveReset(_ context.Context, reset models.PasswordReset, _ time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.resets[reset.Email] = reset

	return nil
}

func (f *fakeResets) Reset(_ context.Context, email string) (models.PasswordReset, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	r, ok := f.resets[email]
	if !ok {
		return models.PasswordReset{}, storage.ErrResetNotFound
	}

	return r, nil
}

func (f *fakeResets) ConsumeReset(_ context.Context, email string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	_, ok := f.resets[email]
	delete(f.resets, email)

	return ok, nil
}

func (f *fakeResets) AcquireResetThrottle(_ context.Context, email string, _ time.Duration) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.throttled[email] {
		return false, nil
	}
	f.throttled[email] = true

	return true, nil
}

func (f *fakeResets) clearThrottle() {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.throttled = map[string]bool{}
}

type fakePublisher struct {
	mu   sync.Mutex
	msgs []models.Message
	err  error
}

func (f *fakePublisher) SendMessage(_ context.Context, msg models.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.err != nil {
		return f.err
	}
	f.msgs = append(f.msgs, msg)

	return nil
}

func (f *fakePublisher) byPurpose(purpose string) []models.Message {
	f.mu.Lock()
	defer f.mu.Unlock()

	var out []models.Message
	for _, m := range f.msgs {
		if m.Purpose == purpose {
			out = append(out, m)
		}
	}

	return out
}

type suite struct {
	auth   *Auth
	users  *fakeUsers
	tokens *fakeTokens
	resets *fakeResets
	pub    *fakePublisher
	signer *verification.Signer
}

func newSuite(t *testing.T) *suite {
	t.Helper()

	h, err := hasher.New(hasher.AlgBcrypt, bcrypt.MinCost)
	require.NoError(t, err)

	signer, err := verification.NewSigner("test-secret", time.Hour)
	require.NoError(t, err)

	s := &suite{
		users:  newFakeUsers(),
		tokens: newFakeTokens(),
		resets: newFakeResets(),
		pub:    &fakePublisher{},
		signer: signer,
	}

	s.auth = New(slogdiscard.NewDiscardLogger(), s.users, s.tokens, s.resets, h, signer, s.pub, Config{
		BaseURL:        "http://localhost:8080",
		ResetURL:       "http://localhost:3000/reset-password",
		ResetTTL:       time.Hour,
		ResetThrottle:  time.Minute,
		PublishTimeout: time.Second,
	})

	return s
}

// register creates a user through the flow and optionally verifies it.
func (s *suite) register(t *testing.T, name, email string, verified bool) models.User {
	t.Helper()

	u, err := s.auth.RegisterNewUser(context.Background(), name, email, "pw123456")
	require.NoError(t, err)

	if verified {
		s.users.verify(u.ID)
	}

	u, err = s.users.UserByID(context.Background(), u.ID)
	require.NoError(t, err)

	return u
}

func (s *suite) withRole(t *testing.T, id int64, role models.Role) models.User {
	t.Helper()

	u, err := s.users.UpdateRole(context.Background(), id, role)
	require.NoError(t, err)

	return u
}

func callerOf(u models.User) *models.Caller {
	return &models.Caller{User: u}
}

var errBroker = errors.New("broker unavailable")
