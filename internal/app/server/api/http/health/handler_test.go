package health

import (
	"context"
	"testing"

	"github.com/danielgtaylor/huma/v2"
	"github.com/stretchr/testify/assert"
	"golang.org/x/exp/slog"
)

type staticChecker bool

func (c staticChecker) Durable() bool { return bool(c) }

func TestHandler_healthCheck(t *testing.T) {
	tests := []struct {
		name            string
		durable         bool
		expectedStorage string
	}{
		{
			name:            "sqlite backend",
			durable:         true,
			expectedStorage: "sqlite",
		},
		{
			name:            "memory fallback",
			durable:         false,
			expectedStorage: "memory",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Arrange
			handler := NewHandler(staticChecker(tt.durable), slog.Default(), huma.Middlewares{})

			// Act
			output, err := handler.healthCheck(context.Background(), &Input{})

			// Assert
			assert.NoError(t, err)
			assert.NotNil(t, output)
			assert.Equal(t, "OK", output.Body.Status)
			assert.Equal(t, tt.expectedStorage, output.Body.Storage)
		})
	}
}

func TestNewHandler(t *testing.T) {
	// Arrange
	log := slog.Default()
	middleware := huma.Middlewares{}

	// Act
	handler := NewHandler(staticChecker(true), log, middleware)

	// Assert
	assert.NotNil(t, handler)
	assert.NotNil(t, handler.log)
	assert.NotNil(t, handler.middleware)
}
