package logger_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/seatshare/pkg/logger"
)

type requestIDKey struct{}

func decode(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	return entry
}

func TestNew(t *testing.T) {
	t.Parallel()

	t.Run("defaults to JSON at info level", func(t *testing.T) {
		t.Parallel()

		buf := &bytes.Buffer{}
		log := logger.New(logger.WithOutput(buf))
		log.Debug("hidden")
		assert.Zero(t, buf.Len())

		log.Info("hello")
		entry := decode(t, buf)
		assert.Equal(t, "INFO", entry["level"])
		assert.Equal(t, "hello", entry["msg"])
	})

	t.Run("text format", func(t *testing.T) {
		t.Parallel()

		buf := &bytes.Buffer{}
		log := logger.New(logger.WithOutput(buf), logger.WithFormat(logger.FormatText))
		log.Info("hello")
		assert.Contains(t, buf.String(), "level=INFO")
		assert.Contains(t, buf.String(), "msg=hello")
	})

	t.Run("invalid format panics", func(t *testing.T) {
		t.Parallel()

		assert.Panics(t, func() {
			logger.New(logger.WithFormat("xml"))
		})
	})

	t.Run("production environment", func(t *testing.T) {
		t.Parallel()

		buf := &bytes.Buffer{}
		log := logger.New(logger.WithOutput(buf), logger.WithEnvironment("prod", "seatshare"))
		log.Debug("hidden")
		assert.Zero(t, buf.Len())

		log.Info("visible")
		entry := decode(t, buf)
		assert.Equal(t, "seatshare", entry["service"])
		assert.Equal(t, logger.EnvProduction, entry["env"])
	})

	t.Run("development environment", func(t *testing.T) {
		t.Parallel()

		buf := &bytes.Buffer{}
		log := logger.New(logger.WithOutput(buf), logger.WithEnvironment("", "seatshare"))
		log.Debug("visible")
		assert.Contains(t, buf.String(), "env=development")
	})
}

func TestContextExtraction(t *testing.T) {
	t.Parallel()

	buf := &bytes.Buffer{}
	log := logger.New(
		logger.WithOutput(buf),
		logger.WithContextValue("request_id", requestIDKey{}),
		logger.WithAttr(slog.String("svc", "test")),
	)

	ctx := context.WithValue(context.Background(), requestIDKey{}, "req-42")
	log.With(logger.Component("sweeper")).InfoContext(ctx, "swept",
		logger.FamilyID("fam-1"),
		logger.Count(3),
		logger.Error(errors.New("boom")),
	)

	entry := decode(t, buf)
	assert.Equal(t, "req-42", entry["request_id"])
	assert.Equal(t, "test", entry["svc"])
	assert.Equal(t, "sweeper", entry["component"])
	assert.Equal(t, "fam-1", entry["family_id"])
	assert.EqualValues(t, 3, entry["count"])
	assert.Equal(t, "boom", entry["error"])
}

func TestErrorAttr_Nil(t *testing.T) {
	t.Parallel()

	assert.Equal(t, slog.Attr{}, logger.Error(nil))
}

func TestDiscard(t *testing.T) {
	t.Parallel()

	log := logger.Discard()
	require.NotNil(t, log)
	assert.False(t, log.Enabled(context.Background(), slog.LevelError))
}
