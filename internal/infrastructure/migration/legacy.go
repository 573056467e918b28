package migration

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"go.uber.org/multierr"
	"golang.org/x/exp/slog"

	"lifelog/internal/domain/record"
	"lifelog/internal/infrastructure/storage"
	"lifelog/internal/utils/datauri"
)

// Status - итог переноса данных из старой базы
type Status string

const (
	StatusMigrated Status = "migrated"
	StatusSkipped  Status = "skipped"
	StatusFailed   Status = "failed"
)

// ReasonNoMigration - причина для пропуска, когда переносить нечего
const ReasonNoMigration = "no migration performed"

// BackupSuffix - суффикс, с которым сохраняется старая база, если часть медиа перенести не удалось
const BackupSuffix = ".bak"

const legacyTable = "journal_entries"

// Result - типизированный результат Run. Ошибки наружу не выбрасываются,
// вызывающий сам решает, показывать ли предупреждение при StatusFailed.
// Dropped - число ссылок на медиа, убранных из записей: вложение было невалидным,
// не декодировалось или отсутствовало в старой базе.
type Result struct {
	Status  Status
	Records int
	Media   int
	Dropped int
	Reason  string
}

func (r Result) String() string {
	switch r.Status {
	case StatusMigrated:
		s := fmt.Sprintf("migrated %d records and %d media", r.Records, r.Media)
		if r.Dropped > 0 {
			s += fmt.Sprintf(", dropped %d media references (%s)", r.Dropped, r.Reason)
		}
		return s
	default:
		return fmt.Sprintf("%s: %s", r.Status, r.Reason)
	}
}

// LegacyManager переносит данные из базы старого формата в текущую схему и удаляет старую базу.
// Шаги: проверка, чтение, запись, удаление. Если часть медиа потеряна,
// база не удаляется, а переименовывается в <path>.bak.
type LegacyManager struct {
	path   string
	target storage.Importer
	log    *slog.Logger
	remove func(name string) error
	rename func(oldpath, newpath string) error
}

type legacyData struct {
	records []record.Record
	media   []storage.MediaBlob
}

func NewLegacyManager(path string, target storage.Importer, log *slog.Logger) *LegacyManager {
	return &LegacyManager{
		path:   path,
		target: target,
		log:    log.With("component", "legacy_migration"),
		remove: os.Remove,
		rename: os.Rename,
	}
}

// Run выполняет перенос один раз. Никогда не возвращает ошибку.
func (m *LegacyManager) Run(ctx context.Context) (result Result) {
	defer func() {
		if r := recover(); r != nil {
			result = m.failed(fmt.Errorf("panic: %v", r))
		}
	}()

	present, err := m.check(ctx)
	if err != nil {
		return m.failed(err)
	}
	if !present {
		m.log.Debug("no legacy database found", "path", m.path)
		return Result{Status: StatusSkipped, Reason: ReasonNoMigration}
	}

	data, err := m.read(ctx)
	if err != nil {
		return m.failed(err)
	}

	if len(data.records) == 0 && len(data.media) == 0 {
		m.cleanup()
		m.log.Info("legacy database is empty", "path", m.path)
		return Result{Status: StatusSkipped, Reason: ReasonNoMigration}
	}

	res, err := m.write(ctx, data)
	if err != nil {
		// Старая база остается на месте, следующий запуск попробует снова
		return m.failed(err)
	}

	if res.Dropped > 0 {
		backup := m.backup()
		res.Reason = fmt.Sprintf("%d media references could not be migrated, legacy database kept at %s",
			res.Dropped, backup)
		m.log.Warn("legacy data migrated with dropped media references",
			"records", res.Records, "media", res.Media, "dropped", res.Dropped, "backup", backup)
		return res
	}

	m.cleanup()

	m.log.Info("legacy data migrated", "records", res.Records, "media", res.Media)
	return res
}

func (m *LegacyManager) failed(err error) Result {
	err = fmt.Errorf("%w: %v", record.ErrMigration, err)
	m.log.Error("legacy migration failed", "path", m.path, "error", err)
	return Result{Status: StatusFailed, Reason: err.Error()}
}

// check: файл существует и в нем есть таблица старого формата
func (m *LegacyManager) check(ctx context.Context) (bool, error) {
	if m.path == "" {
		return false, nil
	}

	if _, err := os.Stat(m.path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("stat legacy database: %w", err)
	}

	db, err := m.open()
	if err != nil {
		return false, err
	}
	defer db.Close()

	var name string
	err = db.QueryRowContext(ctx,
		`SELECT name FROM sqlite_master WHERE type = 'table' AND name = ?`, legacyTable).Scan(&name)
	if errors.Is(err, sql.ErrNoRows) {
		m.log.Warn("file at legacy path has no legacy tables, leaving it untouched", "path", m.path)
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("inspect legacy database: %w", err)
	}

	return true, nil
}

func (m *LegacyManager) open() (*sql.DB, error) {
	db, err := sql.Open("sqlite3", "file:"+m.path+"?mode=ro")
	if err != nil {
		return nil, fmt.Errorf("open legacy database: %w", err)
	}
	return db, nil
}

// read загружает обе таблицы целиком: старые наборы данных помещаются в память
func (m *LegacyManager) read(ctx context.Context) (*legacyData, error) {
	db, err := m.open()
	if err != nil {
		return nil, err
	}
	defer db.Close()

	data := &legacyData{}
	known := make(map[string]bool)

	if err := m.readMedia(ctx, db, data, known); err != nil {
		return nil, err
	}
	if err := m.readRecords(ctx, db, data, known); err != nil {
		return nil, err
	}

	return data, nil
}

func (m *LegacyManager) readMedia(ctx context.Context, db *sql.DB, data *legacyData, known map[string]bool) error {
	var exists string
	err := db.QueryRowContext(ctx,
		`SELECT name FROM sqlite_master WHERE type = 'table' AND name = 'journal_media'`).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("inspect legacy media table: %w", err)
	}

	rows, err := db.QueryContext(ctx, `SELECT id, payload, data FROM journal_media`)
	if err != nil {
		return fmt.Errorf("read legacy media: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			id      string
			payload []byte
			blob    []byte
		)
		if err := rows.Scan(&id, &payload, &blob); err != nil {
			return fmt.Errorf("scan legacy media: %w", err)
		}

		var meta record.MediaData
		if err := json.Unmarshal(payload, &meta); err != nil {
			m.log.Warn("skipping unreadable legacy media", "media_id", id, "error", err)
			continue
		}
		meta.ID = id

		data.media = append(data.media, storage.MediaBlob{Media: meta, Blob: blob})
		known[id] = true
	}

	return rows.Err()
}

func (m *LegacyManager) readRecords(ctx context.Context, db *sql.DB, data *legacyData, known map[string]bool) error {
	rows, err := db.QueryContext(ctx, `SELECT id, payload FROM journal_entries`)
	if err != nil {
		return fmt.Errorf("read legacy records: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			id      string
			payload []byte
		)
		if err := rows.Scan(&id, &payload); err != nil {
			return fmt.Errorf("scan legacy record: %w", err)
		}

		var rec record.Record
		if err := json.Unmarshal(payload, &rec); err != nil {
			m.log.Warn("skipping unreadable legacy record", "record_id", id, "error", err)
			continue
		}
		rec.ID = id
		if rec.UpdatedAt.IsZero() {
			rec.UpdatedAt = rec.CreatedAt
		}

		// Старый формат мог хранить фото прямо в записи
		for _, img := range rec.Images {
			if known[img.ID] || !datauri.IsDataURI(img.Data) {
				continue
			}
			decoded, err := datauri.Decode(img.Data, img.MimeType)
			if err != nil {
				m.log.Warn("skipping undecodable inline media", "record_id", id, "media_id", img.ID, "error", err)
				continue
			}
			meta := img.Ref()
			meta.MimeType = decoded.MimeType
			data.media = append(data.media, storage.MediaBlob{Media: meta, Blob: decoded.Data})
			known[img.ID] = true
		}

		data.records = append(data.records, rec)
	}

	return rows.Err()
}

// write: сначала медиа, затем записи, каждая таблица одной транзакцией.
// Записи ссылаются только на реально записанные медиа.
func (m *LegacyManager) write(ctx context.Context, data *legacyData) (Result, error) {
	written, err := m.target.ImportMedia(ctx, data.media)
	if err != nil {
		return Result{}, fmt.Errorf("import media: %w", err)
	}

	stored := make(map[string]bool, len(written))
	for _, id := range written {
		stored[id] = true
	}

	dropped := 0
	for i := range data.records {
		rec := &data.records[i]
		n := storage.KeepMedia(rec, func(id string) bool { return stored[id] })
		if n > 0 {
			m.log.Warn("dropping unmigrated media references", "record_id", rec.ID, "dropped", n)
		}
		dropped += n
	}

	recordCount, err := m.target.ImportRecords(ctx, data.records)
	if err != nil {
		return Result{}, fmt.Errorf("import records: %w", err)
	}

	return Result{
		Status:  StatusMigrated,
		Records: recordCount,
		Media:   len(written),
		Dropped: dropped,
	}, nil
}

// cleanup удаляет файл старой базы вместе с журналами WAL. Ошибка не фатальна:
// следующий запуск обнаружит базу снова и перезапишет те же ключи.
func (m *LegacyManager) cleanup() {
	var errs error
	for _, name := range []string{m.path, m.path + "-wal", m.path + "-shm"} {
		if err := m.remove(name); err != nil && !errors.Is(err, os.ErrNotExist) {
			errs = multierr.Append(errs, err)
		}
	}

	if errs != nil {
		m.log.Warn("failed to delete legacy database", "path", m.path, "error", errs)
		return
	}
	m.log.Info("legacy database deleted", "path", m.path)
}

// backup переименовывает старую базу вместе с журналами WAL, чтобы следующий запуск
// ее не подхватил, а потерянные медиа можно было достать вручную. Возвращает новый путь.
func (m *LegacyManager) backup() string {
	target := m.path + BackupSuffix

	var errs error
	for _, suffix := range []string{"", "-wal", "-shm"} {
		if err := m.rename(m.path+suffix, target+suffix); err != nil && !errors.Is(err, os.ErrNotExist) {
			errs = multierr.Append(errs, err)
		}
	}

	if errs != nil {
		m.log.Warn("failed to keep legacy database as backup", "path", m.path, "error", errs)
		return m.path
	}
	m.log.Info("legacy database kept as backup", "path", target)
	return target
}
