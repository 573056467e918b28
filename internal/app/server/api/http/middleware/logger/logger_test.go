package logger

import (
	"io"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"golang.org/x/exp/slog"
)

func TestLogger_level(t *testing.T) {
	l := New(slog.New(slog.NewTextHandler(io.Discard, nil)), "/api/v1/health")

	tests := []struct {
		name   string
		path   string
		status int
		want   slog.Level
	}{
		{name: "ok", path: "/api/records", status: http.StatusOK, want: slog.LevelInfo},
		{name: "health is quiet", path: "/api/v1/health", status: http.StatusOK, want: slog.LevelDebug},
		{name: "client error", path: "/api/records/x", status: http.StatusNotFound, want: slog.LevelWarn},
		{name: "server error", path: "/api/v1/health", status: http.StatusInsufficientStorage, want: slog.LevelError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, l.level(tt.path, tt.status))
		})
	}
}
