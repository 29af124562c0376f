package seathttp

import (
	"context"
	"crypto/subtle"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/dmitrymomot/seatshare/handler"
	"github.com/dmitrymomot/seatshare/pkg/logger"
)

// ServiceKeyHeader carries the shared secret of internal callers.
const ServiceKeyHeader = "X-Service-Key"

var errUnauthenticated = handler.HTTPError{
	Code:    http.StatusUnauthorized,
	Key:     "unauthenticated",
	Message: ErrUnauthenticated.Error(),
}

func authenticate(identity IdentityResolver, log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, err := identity.Resolve(r)
			if err != nil {
				log.DebugContext(r.Context(), "request rejected", logger.Error(err))
				_ = handler.JSONError(errUnauthenticated).Render(w, r)
				return
			}
			next.ServeHTTP(w, r.WithContext(withAccount(r.Context(), id)))
		})
	}
}

func requireServiceKey(key string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			given := r.Header.Get(ServiceKeyHeader)
			if given == "" || subtle.ConstantTimeCompare([]byte(given), []byte(key)) != 1 {
				_ = handler.JSONError(errUnauthenticated).Render(w, r)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequestIDExtractor adds the request id assigned by the router to log records.
func RequestIDExtractor() logger.ContextExtractor {
	return func(ctx context.Context) (slog.Attr, bool) {
		if id := middleware.GetReqID(ctx); id != "" {
			return slog.String("request_id", id), true
		}
		return slog.Attr{}, false
	}
}
