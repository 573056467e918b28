// Package sqlite - основная реализация хранилища поверх встроенной SQLite.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/mattn/go-sqlite3"
	"golang.org/x/exp/slog"
	"golang.org/x/sync/singleflight"

	"lifelog/internal/domain/record"
	"lifelog/internal/infrastructure/blob"
	"lifelog/internal/infrastructure/migration"
	"lifelog/internal/infrastructure/storage"
)

var _ storage.Storage = (*Storage)(nil)
var _ storage.Importer = (*Storage)(nil)

// Config - параметры подключения к файлу базы
type Config struct {
	Path string
	// MaxSizeBytes ограничивает размер файла базы, 0 - без ограничения
	MaxSizeBytes int64
	// Engine подменяет движок миграций схемы в тестах
	Engine migration.MigrationEngine
}

// querier - общее подмножество *sql.DB и *sql.Tx
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type Storage struct {
	cfg      Config
	registry *blob.Registry
	handles  *blob.Tracker
	log      *slog.Logger
	now      func() time.Time

	records *RecordRepository
	media   *MediaRepository

	init singleflight.Group
	mu   sync.RWMutex
	db   *sql.DB
}

// New создает хранилище. Соединение открывается лениво в Init.
func New(cfg Config, registry *blob.Registry, log *slog.Logger) *Storage {
	return &Storage{
		cfg:      cfg,
		registry: registry,
		handles:  blob.NewTracker(registry),
		log:      log.With("component", "sqlite_storage"),
		now:      time.Now,
		records:  NewRecordRepository(log),
		media:    NewMediaRepository(log),
	}
}

// Init открывает базу и накатывает схему. Идемпотентен; параллельные вызовы
// дожидаются одного и того же открытия и получают одно соединение.
// Открытие не зависит от отмены контекста конкретного вызывающего: отмена
// прерывает лишь его ожидание. Ошибка не кэшируется: следующий вызов попробует снова.
func (s *Storage) Init(ctx context.Context) error {
	if s.conn() != nil {
		return nil
	}

	openCtx := context.WithoutCancel(ctx)
	ch := s.init.DoChan("init", func() (any, error) {
		if db := s.conn(); db != nil {
			return db, nil
		}

		db, err := s.open(openCtx)
		if err != nil {
			return nil, err
		}

		s.mu.Lock()
		s.db = db
		s.mu.Unlock()

		s.log.Info("storage initialized", "path", s.cfg.Path)
		return db, nil
	})

	select {
	case <-ctx.Done():
		return fmt.Errorf("%w: %w", record.ErrInitialization, ctx.Err())
	case res := <-ch:
		if res.Err != nil {
			s.log.Error("storage initialization failed", "path", s.cfg.Path, "error", res.Err)
			return fmt.Errorf("%w: %v", record.ErrInitialization, res.Err)
		}
	}

	return nil
}

func (s *Storage) open(ctx context.Context) (*sql.DB, error) {
	if s.cfg.Path == "" {
		return nil, errors.New("database path is required")
	}

	if err := migration.NewMigration(s.cfg.Path, s.cfg.Engine).Up(); err != nil {
		return nil, fmt.Errorf("migrate schema: %w", err)
	}

	db, err := sql.Open("sqlite3", s.cfg.Path+"?_foreign_keys=on&_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// Один писатель: SQLite все равно сериализует запись, а PRAGMA ниже действует на соединение
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if s.cfg.MaxSizeBytes > 0 {
		if err := applySizeLimit(ctx, db, s.cfg.MaxSizeBytes); err != nil {
			db.Close()
			return nil, err
		}
	}

	return db, nil
}

func applySizeLimit(ctx context.Context, db *sql.DB, maxBytes int64) error {
	var pageSize int64
	if err := db.QueryRowContext(ctx, "PRAGMA page_size").Scan(&pageSize); err != nil {
		return fmt.Errorf("read page size: %w", err)
	}
	pages := maxBytes / pageSize
	if pages < 1 {
		pages = 1
	}
	if _, err := db.ExecContext(ctx, fmt.Sprintf("PRAGMA max_page_count = %d", pages)); err != nil {
		return fmt.Errorf("set max page count: %w", err)
	}
	return nil
}

func (s *Storage) conn() *sql.DB {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.db
}

// ready возвращает живое соединение, при необходимости инициализируя его
func (s *Storage) ready(ctx context.Context) (*sql.DB, error) {
	if err := s.Init(ctx); err != nil {
		return nil, err
	}
	return s.conn(), nil
}

// withTx выполняет fn в транзакции, откатывая ее при ошибке или панике
func (s *Storage) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	db, err := s.ready(ctx)
	if err != nil {
		return err
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	defer func() {
		if r := recover(); r != nil {
			_ = tx.Rollback()
			panic(r)
		}
	}()

	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}

	if err := tx.Commit(); err != nil {
		return mapError("commit", err)
	}
	return nil
}

// Close закрывает соединение. После Close хранилище можно снова открыть через Init.
func (s *Storage) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

// mapError переводит ошибки SQLite в ошибки домена
func mapError(op string, err error) error {
	if err == nil {
		return nil
	}

	var sqlErr sqlite3.Error
	if errors.As(err, &sqlErr) && sqlErr.Code == sqlite3.ErrFull {
		return &record.QuotaError{Op: op, Cause: err}
	}

	return fmt.Errorf("%s: %w", op, err)
}
