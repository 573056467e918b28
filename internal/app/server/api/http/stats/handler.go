package stats

import (
	"context"

	"github.com/danielgtaylor/huma/v2"
	"golang.org/x/exp/slog"

	"lifelog/internal/app/client"
)

// Provider отдает статистику хранилища
type Provider interface {
	GetStorageStats() client.StorageStats
	Refresh(ctx context.Context) client.StorageStats
}

type Handler struct {
	provider   Provider
	log        *slog.Logger
	middleware huma.Middlewares
}

func NewHandler(provider Provider, log *slog.Logger, middleware huma.Middlewares) *Handler {
	return &Handler{
		provider:   provider,
		log:        log,
		middleware: middleware,
	}
}

func (h *Handler) SetupRoutes(api huma.API) {
	huma.Register(api, h.statsOp(), h.stats)
}

func (h *Handler) stats(ctx context.Context, input *Input) (*Output, error) {
	// Снимок еще не считался - считаем сразу
	if input.Refresh || h.provider.GetStorageStats().ComputedAt.IsZero() {
		return &Output{Body: h.provider.Refresh(ctx)}, nil
	}
	return &Output{Body: h.provider.GetStorageStats()}, nil
}
