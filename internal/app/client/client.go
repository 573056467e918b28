package client

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	gosync "sync"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/exp/slog"

	"lifelog/internal/app/client/config"
	"lifelog/internal/infrastructure/blob"
	"lifelog/internal/infrastructure/migration"
	"lifelog/internal/infrastructure/storage"
	"lifelog/internal/infrastructure/storage/memory"
	"lifelog/internal/infrastructure/storage/sqlite"
)

// ErrNotDurable - хранилище работает в памяти, изменения не переживут перезапуск
var ErrNotDurable = errors.New("storage is not durable")

// App связывает хранилище, фасад записей и статистику
type App struct {
	config   *config.Config
	log      *slog.Logger
	registry *blob.Registry
	storage  storage.Storage
	records  *Records
	stats    *Stats
	legacy   migration.Result
	durable  bool
	initErr  error
	wg       gosync.WaitGroup
	cancel   context.CancelFunc
	mu       gosync.RWMutex
}

// New открывает хранилище. Если файл базы открыть нельзя, клиент работает в памяти.
// reg - куда публиковать метрики статистики, может быть nil.
func New(ctx context.Context, cfg *config.Config, log *slog.Logger, reg prometheus.Registerer) (*App, error) {
	registry := blob.NewRegistry()

	var st storage.Storage
	var initErr error
	durable := true
	sqliteStorage := sqlite.New(sqlite.Config{
		Path:         cfg.DataPath,
		MaxSizeBytes: cfg.MaxDBSizeBytes(),
	}, registry, log)
	if err := sqliteStorage.Init(ctx); err != nil {
		log.Warn("Не удалось инициализировать SQLite, используем память", "error", err)
		st = memory.New(registry, log)
		durable = false
		initErr = err
	} else {
		st = sqliteStorage
	}

	records := NewRecords(st, registry, log)
	quota := NewFSQuota(cfg.DataPath, cfg.MaxDBSizeBytes(), cfg.FallbackQuotaBytes(), log)
	stats := NewStats(records, quota, cfg.StatsDebounce(), NewStatsMetrics(reg), log)

	return &App{
		config:   cfg,
		log:      log,
		registry: registry,
		storage:  st,
		records:  records,
		stats:    stats,
		durable:  durable,
		initErr:  initErr,
	}, nil
}

// Start переносит данные из старой базы и загружает записи в зеркало.
// Сбой переноса не мешает запуску, его итог доступен через LegacyResult.
func (a *App) Start(ctx context.Context) error {
	if result := a.MigrateLegacy(ctx); result.Status == migration.StatusFailed {
		a.log.Warn("Перенос старых данных не удался, продолжаем с текущими", "reason", result.Reason)
	}

	if err := a.records.LoadFromStorage(ctx); err != nil {
		return fmt.Errorf("загрузка записей: %w", err)
	}

	a.stats.Refresh(ctx)

	a.log.Info("Клиент запущен",
		"data_path", a.config.DataPath,
		"env", a.config.Env,
		"durable", a.durable,
	)
	return nil
}

// Run запускает serve и ждет сигнала завершения или ошибки serve
func (a *App) Run(serve func(ctx context.Context) error) error {
	ctx, cancel := context.WithCancel(context.Background())
	a.cancel = cancel
	defer cancel()

	go a.handleSignals()

	errCh := make(chan error, 1)
	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		errCh <- serve(ctx)
	}()

	a.wg.Wait()
	return <-errCh
}

func (a *App) handleSignals() {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	sig := <-sigChan
	a.log.Info("Получен сигнал завершения", "signal", sig.String())

	if a.cancel != nil {
		a.cancel()
	}
}

// Shutdown останавливает статистику, освобождает хендлы и закрывает базу
func (a *App) Shutdown() {
	a.log.Info("Завершение работы клиента...")

	if a.cancel != nil {
		a.cancel()
	}
	a.wg.Wait()

	a.stats.Close()
	a.records.Close()
	if err := a.storage.Close(); err != nil {
		a.log.Error("Ошибка закрытия хранилища", "error", err)
	}

	if live := a.registry.Live(); live > 0 {
		a.log.Warn("Остались неосвобожденные хендлы", "count", live, "bytes", a.registry.LiveBytes())
	}
	a.log.Info("Клиент завершил работу")
}

func (a *App) Records() *Records {
	return a.records
}

func (a *App) Stats() *Stats {
	return a.stats
}

func (a *App) Registry() *blob.Registry {
	return a.registry
}

// MigrateLegacy переносит данные из старой базы, если она есть. Ошибок не возвращает.
func (a *App) MigrateLegacy(ctx context.Context) migration.Result {
	result := migration.Result{Status: migration.StatusSkipped, Reason: "хранилище в памяти"}
	if importer, ok := a.storage.(storage.Importer); ok && a.durable {
		result = migration.NewLegacyManager(a.config.LegacyDataPath, importer, a.log).Run(ctx)
	}

	a.mu.Lock()
	a.legacy = result
	a.mu.Unlock()
	return result
}

// LegacyResult - итог переноса старой базы при последнем Start
func (a *App) LegacyResult() migration.Result {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.legacy
}

// Durable сообщает, пишутся ли данные на диск
func (a *App) Durable() bool {
	return a.durable
}

// RequireDurable возвращает ErrNotDurable, если хранилище работает в памяти.
// Одноразовые команды изменения вызывают его до записи.
func (a *App) RequireDurable() error {
	if a.durable {
		return nil
	}
	return fmt.Errorf("%w: %v", ErrNotDurable, a.initErr)
}
