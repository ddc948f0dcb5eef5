package hasher

import (
	"errors"
	"fmt"
	"strings"

	"github.com/alexedwards/argon2id"
	"golang.org/x/crypto/bcrypt"
)

const (
	AlgBcrypt   = "bcrypt"
	AlgArgon2id = "argon2id"

	// MaxPasswordBytes is the bcrypt input limit, applied to both algorithms.
	MaxPasswordBytes = 72
)

var (
	ErrEmptyPassword    = errors.New("password must not be empty")
	ErrPasswordTooLong  = errors.New("password is too long")
	ErrUnknownAlgorithm = errors.New("unknown hashing algorithm")
)

type Hasher struct {
	alg        string
	bcryptCost int
	argon      *argon2id.Params
}

func New(alg string, bcryptCost int) (*Hasher, error) {
	const op = "hasher.New"

	switch alg {
	case "", AlgBcrypt:
		alg = AlgBcrypt
	case AlgArgon2id:
	default:
		return nil, fmt.Errorf("%s: %w: %s", op, ErrUnknownAlgorithm, alg)
	}

	if bcryptCost == 0 {
		bcryptCost = bcrypt.DefaultCost
	}
	if bcryptCost < bcrypt.MinCost || bcryptCost > bcrypt.MaxCost {
		return nil, fmt.Errorf("%s: bcrypt cost %d out of range", op, bcryptCost)
	}

	return &Hasher{
		alg:        alg,
		bcryptCost: bcryptCost,
		argon:      argon2id.DefaultParams,
	}, nil
}

// Hash returns a salted digest of plain. Two calls never return the same digest.
func (h *Hasher) Hash(plain string) (string, error) {
	const op = "hasher.Hash"

	if plain == "" {
		return "", ErrEmptyPassword
	}

	if len(plain) > MaxPasswordBytes {
		return "", ErrPasswordTooLong
	}

	switch h.alg {
	case AlgArgon2id:
		digest, err := argon2id.CreateHash(plain, h.argon)
		if err != nil {
			return "", fmt.Errorf("%s: %w", op, err)
		}

		return digest, nil
	default:
		digest, err := bcrypt.GenerateFromPassword([]byte(plain), h.bcryptCost)
		if err != nil {
			return "", fmt.Errorf("%s: %w", op, err)
		}

		return string(digest), nil
	}
}

// Verify сравнивает пароль с хэшем за постоянное время.
// Алгоритм определяется по префиксу хэша, а не по текущей настройке.
func (h *Hasher) Verify(plain, digest string) bool {
	if strings.HasPrefix(digest, "$argon2id$") {
		match, err := argon2id.ComparePasswordAndHash(plain, digest)
		return err == nil && match
	}

	return bcrypt.CompareHashAndPassword([]byte(digest), []byte(plain)) == nil
}
