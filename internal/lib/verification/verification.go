package verification

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"library_api/internal/models"
)

var (
	ErrInvalidSignature = errors.New("invalid signature")
	ErrEmptySecret      = errors.New("verification secret is empty")
)

type Signer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

type linkClaims struct {
	Purpose string `json:"purpose"`
	Hash    string `json:"hash"`
	jwt.RegisteredClaims
}

func NewSigner(secret string, ttl time.Duration) (*Signer, error) {
	if secret == "" {
		return nil, ErrEmptySecret
	}

	return &Signer{
		secret: []byte(secret),
		ttl:    ttl,
		now:    time.Now,
	}, nil
}

// Hash is the keyed digest of the canonical email. It changes when the email changes.
func (s *Signer) Hash(email string) string {
	mac := hmac.New(sha256.New, s.secret)
	mac.Write([]byte(models.NormalizeEmail(email)))

	return hex.EncodeToString(mac.Sum(nil))
}

// CheckHash сравнивает хэш из ссылки с ожидаемым за постоянное время.
func (s *Signer) CheckHash(email, presented string) bool {
	return hmac.Equal([]byte(s.Hash(email)), []byte(presented))
}

// Link строит подписанную ссылку подтверждения почты.
func (s *Signer) Link(baseURL string, userID int64, email string) (string, error) {
	const op = "verification.Link"

	hash := s.Hash(email)

	sig, err := s.sign(userID, hash)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	return fmt.Sprintf("%s/v1/email/verify/%d/%s?signature=%s",
		baseURL, userID, hash, url.QueryEscape(sig),
	), nil
}

// CheckSignature validates the link signature for the given id and hash.
func (s *Signer) CheckSignature(signature string, userID int64, hash string) error {
	const op = "verification.CheckSignature"

	claims := &linkClaims{}

	_, err := jwt.ParseWithClaims(signature, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("%s: unexpected signing method", op)
		}
		return s.secret, nil
	},
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return fmt.Errorf("%s: %w: %v", op, ErrInvalidSignature, err)
	}

	if claims.Purpose != models.PurposeEmailVerification {
		return fmt.Errorf("%s: %w: invalid token purpose", op, ErrInvalidSignature)
	}

	if claims.Subject != strconv.FormatInt(userID, 10) || !hmac.Equal([]byte(claims.Hash), []byte(hash)) {
		return fmt.Errorf("%s: %w: link parameters do not match", op, ErrInvalidSignature)
	}

	return nil
}

func (s *Signer) sign(userID int64, hash string) (string, error) {
	now := s.now()

	claims := linkClaims{
		Purpose: models.PurposeEmailVerification,
		Hash:    hash,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(userID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	return token.SignedString(s.secret)
}
