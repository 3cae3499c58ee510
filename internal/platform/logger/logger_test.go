package logger_test

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/taskhive/taskhive/internal/config"
	"github.com/taskhive/taskhive/internal/platform/logger"
)

func TestSetup(t *testing.T) {
	tests := []struct {
		name     string
		logLevel string
		wantErr  bool
	}{
		{name: "debug_level", logLevel: "debug"},
		{name: "info_level", logLevel: "info"},
		{name: "warn_level", logLevel: "warn"},
		{name: "error_level", logLevel: "error"},
		{name: "case_insensitive", logLevel: "INFO"},
		{name: "invalid_level_falls_back_to_info", logLevel: "verbose"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.ServerConfig{Port: 8080, LogLevel: tt.logLevel}

			log, err := logger.Setup(cfg)

			require.NoError(t, err)
			require.NotNil(t, log, "Setup should return a non-nil logger")
			assert.Equal(t, log, slog.Default(), "Setup should install the logger as the default")
		})
	}
}

func TestWithLogger(t *testing.T) {
	t.Run("valid_logger", func(t *testing.T) {
		customLogger := slog.New(slog.NewTextHandler(io.Discard, nil))
		ctx := logger.WithLogger(context.Background(), customLogger)

		retrievedLogger := logger.FromContext(ctx)
		assert.Equal(t, customLogger, retrievedLogger)
	})

	t.Run("nil_logger_panics", func(t *testing.T) {
		assert.Panics(t, func() {
			logger.WithLogger(context.Background(), nil)
		})
	})
}

func TestFromContext(t *testing.T) {
	t.Run("empty_context_returns_default", func(t *testing.T) {
		result := logger.FromContext(context.Background())
		assert.Equal(t, slog.Default(), result)
	})
}

func TestFromContextOrDefault(t *testing.T) {
	defaultLogger := slog.New(slog.NewTextHandler(io.Discard, nil))
	customLogger := slog.New(slog.NewJSONHandler(io.Discard, nil))

	tests := []struct {
		name     string
		ctx      context.Context
		expected *slog.Logger
	}{
		{
			name:     "empty_context_returns_default",
			ctx:      context.Background(),
			expected: defaultLogger,
		},
		{
			name:     "context_with_logger_returns_context_logger",
			ctx:      logger.WithLogger(context.Background(), customLogger),
			expected: customLogger,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := logger.FromContextOrDefault(tt.ctx, defaultLogger)
			assert.Equal(t, tt.expected, result)
		})
	}
}

func TestRequestID(t *testing.T) {
	t.Run("round_trip", func(t *testing.T) {
		ctx := logger.WithRequestID(context.Background(), "req-123")
		assert.Equal(t, "req-123", logger.RequestIDFromContext(ctx))
	})

	t.Run("empty_context_returns_empty_string", func(t *testing.T) {
		assert.Equal(t, "", logger.RequestIDFromContext(context.Background()))
	})
}
