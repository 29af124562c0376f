package seathttp

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/dmitrymomot/seatshare/pkg/jwt"
)

// ErrUnauthenticated is returned when a request carries no usable identity.
var ErrUnauthenticated = errors.New("request is not authenticated")

// IdentityResolver tells which account made a request.
type IdentityResolver interface {
	Resolve(r *http.Request) (uuid.UUID, error)
}

// IdentityFunc adapts a function to IdentityResolver.
type IdentityFunc func(r *http.Request) (uuid.UUID, error)

func (f IdentityFunc) Resolve(r *http.Request) (uuid.UUID, error) { return f(r) }

// HeaderIdentity reads the account id from a header set by a trusted gateway.
func HeaderIdentity(header string) IdentityResolver {
	return IdentityFunc(func(r *http.Request) (uuid.UUID, error) {
		raw := strings.TrimSpace(r.Header.Get(header))
		if raw == "" {
			return uuid.Nil, ErrUnauthenticated
		}
		id, err := uuid.Parse(raw)
		if err != nil || id == uuid.Nil {
			return uuid.Nil, ErrUnauthenticated
		}
		return id, nil
	})
}

// TokenIdentity verifies a bearer token and reads the account id from its subject.
func TokenIdentity(tokens *jwt.Service) IdentityResolver {
	if tokens == nil {
		panic("seathttp: token service is required")
	}
	return IdentityFunc(func(r *http.Request) (uuid.UUID, error) {
		raw, err := jwt.BearerToken(r)
		if err != nil {
			return uuid.Nil, errors.Join(ErrUnauthenticated, err)
		}
		claims, err := tokens.Parse(raw)
		if err != nil {
			return uuid.Nil, errors.Join(ErrUnauthenticated, err)
		}
		id, err := uuid.Parse(claims.Subject)
		if err != nil || id == uuid.Nil {
			return uuid.Nil, ErrUnauthenticated
		}
		return id, nil
	})
}

type accountKey struct{}

func withAccount(ctx context.Context, id uuid.UUID) context.Context {
	return context.WithValue(ctx, accountKey{}, id)
}

// AccountFromContext returns the authenticated account of a request.
func AccountFromContext(ctx context.Context) (uuid.UUID, bool) {
	id, ok := ctx.Value(accountKey{}).(uuid.UUID)
	return id, ok && id != uuid.Nil
}
