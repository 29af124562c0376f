// Package jwt signs and verifies the HS256 account tokens issued by the
// identity provider. Only the registered claims are read.
package jwt

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

const (
	headerType      = "JWT"
	headerAlgorithm = "HS256"
)

type header struct {
	Type      string `json:"typ"`
	Algorithm string `json:"alg"`
}

// Claims are the registered claims of an account token. Subject carries the account id.
type Claims struct {
	ID        string `json:"jti,omitempty"`
	Subject   string `json:"sub,omitempty"`
	Issuer    string `json:"iss,omitempty"`
	Audience  string `json:"aud,omitempty"`
	ExpiresAt int64  `json:"exp,omitempty"`
	NotBefore int64  `json:"nbf,omitempty"`
	IssuedAt  int64  `json:"iat,omitempty"`
}

// Valid checks the temporal claims against now. Zero values are treated as unset.
func (c Claims) Valid(now time.Time) error {
	unix := now.Unix()
	if c.ExpiresAt > 0 && unix > c.ExpiresAt {
		return ErrExpiredToken
	}
	if c.NotBefore > 0 && unix < c.NotBefore {
		return ErrInvalidToken
	}
	return nil
}

// Service signs and verifies tokens with a shared HMAC key.
type Service struct {
	key      []byte
	audience string
	now      func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithAudience makes Parse reject tokens issued for another audience.
func WithAudience(aud string) Option {
	return func(s *Service) { s.audience = aud }
}

// WithClock overrides the time source used for temporal claims.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// New creates a Service. The key should be at least 32 random bytes.
func New(key []byte, opts ...Option) (*Service, error) {
	if len(key) == 0 {
		return nil, ErrMissingSigningKey
	}
	s := &Service{key: key, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Generate signs claims into a compact token.
func (s *Service) Generate(claims Claims) (string, error) {
	if claims.Subject == "" {
		return "", ErrMissingSubject
	}
	h, err := json.Marshal(header{Type: headerType, Algorithm: headerAlgorithm})
	if err != nil {
		return "", fmt.Errorf("failed to marshal header: %w", err)
	}
	c, err := json.Marshal(claims)
	if err != nil {
		return "", fmt.Errorf("failed to marshal claims: %w", err)
	}
	payload := encode(h) + "." + encode(c)
	return payload + "." + s.sign(payload), nil
}

// Parse verifies token and returns its claims.
func (s *Service) Parse(token string) (Claims, error) {
	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		return Claims{}, ErrInvalidToken
	}

	payload := parts[0] + "." + parts[1]
	if subtle.ConstantTimeCompare([]byte(parts[2]), []byte(s.sign(payload))) != 1 {
		return Claims{}, ErrInvalidSignature
	}

	var h header
	if err := decodeJSON(parts[0], &h); err != nil {
		return Claims{}, err
	}
	// Algorithm confusion: only the configured method is accepted.
	if h.Algorithm != headerAlgorithm {
		return Claims{}, ErrUnexpectedSigningMethod
	}

	var claims Claims
	if err := decodeJSON(parts[1], &claims); err != nil {
		return Claims{}, err
	}
	if err := claims.Valid(s.now()); err != nil {
		return Claims{}, err
	}
	if s.audience != "" && claims.Audience != s.audience {
		return Claims{}, ErrAudienceMismatch
	}
	if claims.Subject == "" {
		return Claims{}, ErrMissingSubject
	}
	return claims, nil
}

// BearerToken extracts the token from an "Authorization: Bearer <token>" header.
func BearerToken(r *http.Request) (string, error) {
	scheme, token, ok := strings.Cut(r.Header.Get("Authorization"), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") || token == "" {
		return "", ErrInvalidToken
	}
	return token, nil
}

func (s *Service) sign(payload string) string {
	mac := hmac.New(sha256.New, s.key)
	mac.Write([]byte(payload))
	return encode(mac.Sum(nil))
}

func encode(data []byte) string {
	return base64.RawURLEncoding.EncodeToString(data)
}

func decodeJSON(segment string, v any) error {
	raw, err := base64.RawURLEncoding.DecodeString(segment)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	return nil
}
