package recoverer

import (
	"fmt"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"golang.org/x/exp/slog"
)

// Recoverer перехватывает панику обработчика и отвечает 500
type Recoverer struct {
	log *slog.Logger
}

func New(log *slog.Logger) *Recoverer {
	return &Recoverer{
		log: log.With(slog.String("component", "http_recoverer")),
	}
}

func (r *Recoverer) Middleware() func(huma.Context, func(huma.Context)) {
	return func(ctx huma.Context, next func(huma.Context)) {
		defer func() {
			if rec := recover(); rec != nil {
				r.log.Error("handler panic",
					slog.String("method", ctx.Method()),
					slog.String("path", ctx.URL().Path),
					slog.String("panic", fmt.Sprint(rec)),
				)
				ctx.SetStatus(http.StatusInternalServerError)
				ctx.SetHeader("Content-Type", "application/json")
				_, _ = ctx.BodyWriter().Write([]byte(`{"status":500,"title":"Internal Server Error"}`))
			}
		}()

		next(ctx)
	}
}
