// cmd/client/cmd/root.go
package cmd

import (
	"fmt"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"golang.org/x/exp/slog"

	"lifelog/cmd/client/cmd/record"
	"lifelog/internal/app/client"
	"lifelog/internal/app/client/config"
	"lifelog/internal/utils/logger"
)

var (
	cfgFile  string
	logLevel string
	cfg      *config.Config
	log      *slog.Logger
	app      *client.App
	registry *prometheus.Registry
)

var rootCmd = &cobra.Command{
	Use:   "lifelog",
	Short: "Lifelog - локальный журнал записей",
	Long: `Lifelog хранит текстовые, голосовые, фото- и видеозаписи на этом устройстве.

Данные лежат в SQLite-базе в каталоге конфигурации. Если базу открыть нельзя,
клиент работает в памяти: чтение доступно, команды изменения завершаются ошибкой.`,
	PersistentPreRunE: setupApp,
	PersistentPostRun: shutdownApp,
	SilenceUsage:      true,
	SilenceErrors:     true,
}

func Execute() {
	err := rootCmd.Execute()
	// PersistentPostRun не вызывается, если команда вернула ошибку
	shutdownApp(nil, nil)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Ошибка: %v\n", err)
		os.Exit(1)
	}
}

func setupApp(cmd *cobra.Command, _ []string) error {
	var err error
	cfg, err = config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("ошибка загрузки конфигурации: %w", err)
	}

	if logLevel != "" {
		cfg.LogLevel = logLevel
	}
	log = logger.NewWithLevel(cfg.Env, cfg.LogLevel)

	registry = prometheus.NewRegistry()
	app, err = client.New(cmd.Context(), cfg, log, registry)
	if err != nil {
		return fmt.Errorf("ошибка инициализации приложения: %w", err)
	}

	if err := app.Start(cmd.Context()); err != nil {
		app.Shutdown()
		app = nil
		return fmt.Errorf("ошибка запуска приложения: %w", err)
	}

	if !app.Durable() {
		record.Warn("Хранилище недоступно, команды изменения записей отключены")
	}

	cmd.SetContext(record.WithApp(cmd.Context(), app))
	return nil
}

func shutdownApp(_ *cobra.Command, _ []string) {
	if app != nil {
		app.Shutdown()
		app = nil
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "конфигурационный файл (yaml, json, toml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "уровень логирования (debug, info, warn, error)")

	rootCmd.AddCommand(record.RecordCmd)
	record.RecordCmd.AddCommand(record.AddCmd)
	record.RecordCmd.AddCommand(record.ListCmd)
	record.RecordCmd.AddCommand(record.GetCmd)
	record.RecordCmd.AddCommand(record.UpdateCmd)
	record.RecordCmd.AddCommand(record.DeleteCmd)
	record.RecordCmd.AddCommand(record.PruneCmd)

	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(importCmd)
	rootCmd.AddCommand(serveCmd)
}
