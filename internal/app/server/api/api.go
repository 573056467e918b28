// Локальный HTTP API журнала. Слушает только loopback, аутентификации нет.

//GET    /api/v1/health                       # Состояние и тип хранилища
//GET    /api/records?days=N                  # Список записей, новые первыми
//POST   /api/records                         # Создать запись
//GET    /api/records/{id}                    # Получить запись
//PUT    /api/records/{id}                    # Частично обновить запись
//DELETE /api/records/{id}                    # Удалить запись вместе с медиа
//GET    /api/records/{id}/media/{mediaId}    # Содержимое медиа
//GET    /api/stats?refresh=true              # Использование хранилища
//GET    /metrics                             # Метрики Prometheus

package api

import (
	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/exp/slog"

	healthAPI "lifelog/internal/app/server/api/http/health"
	"lifelog/internal/app/server/api/http/middleware"
	"lifelog/internal/app/server/api/http/middleware/logger"
	"lifelog/internal/app/server/api/http/middleware/recoverer"
	recordAPI "lifelog/internal/app/server/api/http/record"
	statsAPI "lifelog/internal/app/server/api/http/stats"
)

// Deps - то, что API берет у приложения
type Deps struct {
	Records  recordAPI.Service
	Stats    statsAPI.Provider
	Health   healthAPI.Checker
	Gatherer prometheus.Gatherer
}

type Handlers struct {
	Health *healthAPI.Handler
	Record *recordAPI.Handler
	Stats  *statsAPI.Handler
}

// New создает *chi.Mux со всеми операциями через huma.Register
func New(deps Deps, log *slog.Logger) *chi.Mux {
	mux := chi.NewMux()

	config := huma.DefaultConfig("Lifelog API", "1.0.0")
	API := humachi.New(mux, config)

	h := handlers(deps, log)
	h.Health.SetupRoutes(API)
	h.Record.SetupRoutes(API)
	h.Stats.SetupRoutes(API)

	if deps.Gatherer != nil {
		mux.Handle("/metrics", promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{}))
	}

	return mux
}

func handlers(deps Deps, log *slog.Logger) *Handlers {
	loggerMW := logger.New(log, "/api/v1/health", "/api/records/")
	recovererMW := recoverer.New(log)
	middlewares := middleware.NewContainer(recovererMW.Middleware(), loggerMW.Middleware())

	healthHandler := healthAPI.NewHandler(deps.Health, log, middlewares.Build())
	recordHandler := recordAPI.NewHandler(deps.Records, log, middlewares.Build())
	statsHandler := statsAPI.NewHandler(deps.Stats, log, middlewares.Build())

	return &Handlers{
		Health: healthHandler,
		Record: recordHandler,
		Stats:  statsHandler,
	}
}
