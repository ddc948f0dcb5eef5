package tokens

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"math/big"
	"strconv"
	"strings"
)

const (
	SecretLength = 40
	alphabet     = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz"
)

// NewSecret returns an unguessable random string of the given length.
func NewSecret(length int) (string, error) {
	const op = "tokens.NewSecret"

	max := big.NewInt(int64(len(alphabet)))

	var b strings.Builder
	b.Grow(length)

	for i := 0; i < length; i++ {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", fmt.Errorf("%s: %w", op, err)
		}
		b.WriteByte(alphabet[n.Int64()])
	}

	return b.String(), nil
}

// Digest возвращает sha256 секрета в hex. В базе хранится только он.
func Digest(secret string) string {
	sum := sha256.Sum256([]byte(secret))

	return hex.EncodeToString(sum[:])
}

// Equal compares two digests in constant time.
func Equal(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

// Format builds the plaintext bearer value returned to the caller once.
func Format(id int64, secret string) string {
	return strconv.FormatInt(id, 10) + "|" + secret
}

// Parse splits a presented bearer value into an optional id and the secret.
// hasID is false when the value carries no "<id>|" prefix.
func Parse(presented string) (id int64, secret string, hasID bool) {
	prefix, rest, found := strings.Cut(presented, "|")
	if !found {
		return 0, presented, false
	}

	id, err := strconv.ParseInt(prefix, 10, 64)
	if err != nil || id <= 0 {
		return 0, presented, false
	}

	return id, rest, true
}
