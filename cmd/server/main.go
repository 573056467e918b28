// lifelogd - локальный API журнала без CLI
package main

import (
	"context"
	"flag"
	"os"

	"github.com/prometheus/client_golang/prometheus"

	"lifelog/internal/app/client"
	"lifelog/internal/app/client/config"
	"lifelog/internal/app/server"
	"lifelog/internal/utils/logger"
)

func main() {
	configFile := flag.String("config", "", "конфигурационный файл")
	flag.Parse()

	cfg := config.MustLoad(*configFile)
	log := logger.NewWithLevel(cfg.Env, cfg.LogLevel)

	ctx := context.Background()
	registry := prometheus.NewRegistry()

	app, err := client.New(ctx, cfg, log, registry)
	if err != nil {
		log.Error("Ошибка инициализации", "error", err)
		os.Exit(1)
	}
	defer app.Shutdown()

	if err := app.Start(ctx); err != nil {
		log.Error("Ошибка запуска", "error", err)
		app.Shutdown()
		os.Exit(1)
	}

	if err := server.Run(app, cfg.APIAddress, registry, log); err != nil {
		log.Error("API остановлен с ошибкой", "error", err)
	}
}
