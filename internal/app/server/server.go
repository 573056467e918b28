// Package server поднимает локальный HTTP API поверх клиентского приложения.
package server

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/exp/slog"

	"lifelog/internal/app/client"
	"lifelog/internal/app/server/api"
)

// Run обслуживает API на addr, пока приложение не получит сигнал завершения
func Run(app *client.App, addr string, gatherer prometheus.Gatherer, log *slog.Logger) error {
	handler := api.New(api.Deps{
		Records:  app.Records(),
		Stats:    app.Stats(),
		Health:   app,
		Gatherer: gatherer,
	}, log)

	return app.Run(func(ctx context.Context) error {
		return api.Serve(ctx, addr, handler, log)
	})
}
