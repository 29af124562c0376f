package binder_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/seatshare/binder"
)

type request struct {
	Email string    `json:"email"`
	Token string    `path:"token"`
	ID    uuid.UUID `path:"id"`
}

func TestBindJSON(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		contentType string
		body        string
		err         error
	}{
		{"valid", "application/json; charset=utf-8", `{"email":"a@example.com"}`, nil},
		{"missing content type", "", `{}`, binder.ErrMissingContentType},
		{"wrong content type", "text/plain", `{}`, binder.ErrUnsupportedMediaType},
		{"empty body", "application/json", ``, binder.ErrInvalidJSON},
		{"unknown field", "application/json", `{"email":"a@example.com","admin":true}`, binder.ErrInvalidJSON},
		{"trailing data", "application/json", `{"email":"a@example.com"}{}`, binder.ErrInvalidJSON},
		{"wrong type", "application/json", `{"email":42}`, binder.ErrInvalidJSON},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tt.body))
			if tt.contentType != "" {
				r.Header.Set("Content-Type", tt.contentType)
			}

			var req request
			err := binder.BindJSON()(r, &req)
			if tt.err != nil {
				assert.ErrorIs(t, err, tt.err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "a@example.com", req.Email)
		})
	}
}

func TestPath(t *testing.T) {
	t.Parallel()

	id := uuid.New()
	params := map[string]string{"token": "abc", "id": id.String()}
	extract := func(_ *http.Request, name string) string { return params[name] }
	r := httptest.NewRequest(http.MethodGet, "/", nil)

	var req request
	require.NoError(t, binder.Path(extract)(r, &req))
	assert.Equal(t, "abc", req.Token)
	assert.Equal(t, id, req.ID)

	bad := func(_ *http.Request, name string) string {
		if name == "id" {
			return "not-a-uuid"
		}
		return ""
	}
	assert.ErrorIs(t, binder.Path(bad)(r, &request{}), binder.ErrInvalidPath)
	assert.ErrorIs(t, binder.Path(extract)(r, request{}), binder.ErrInvalidPath)
	assert.ErrorIs(t, binder.Path(nil)(r, &request{}), binder.ErrInvalidPath)

	var unsupported struct {
		N int `path:"token"`
	}
	assert.ErrorIs(t, binder.Path(extract)(r, &unsupported), binder.ErrInvalidPath)
}
