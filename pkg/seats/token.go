package seats

import (
	"crypto/rand"
	"encoding/binary"

	"github.com/nrednav/cuid2"

	"github.com/dmitrymomot/seatshare/pkg/validator"
)

// TokenLength is the length of every invite token.
const TokenLength = 32

// NewTokenGenerator returns a cuid2 generator producing TokenLength-character
// tokens. Randomness comes from crypto/rand.
func NewTokenGenerator() (func() string, error) {
	return cuid2.Init(
		cuid2.WithLength(TokenLength),
		cuid2.WithRandomFunc(cryptoFloat64),
	)
}

// cryptoFloat64 returns a uniformly distributed float64 in [0, 1).
func cryptoFloat64() float64 {
	var b [8]byte
	if _, err := rand.Read(b[:]); err != nil {
		panic("seats: crypto/rand unavailable: " + err.Error())
	}
	return float64(binary.BigEndian.Uint64(b[:])>>11) / (1 << 53)
}

// ValidateToken checks the token format. UUIDs are rejected even though some
// UUID spellings are otherwise well-formed tokens.
func ValidateToken(token string) error {
	return validationError(validator.Apply(
		validator.ValidCollisionResistantID("token", token, TokenLength),
	))
}
