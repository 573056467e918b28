package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/exp/slog"

	"lifelog/internal/domain/record"
)

type MediaRepository struct {
	log *slog.Logger
}

func NewMediaRepository(log *slog.Logger) *MediaRepository {
	return &MediaRepository{
		log: log.With("component", "media_repository"),
	}
}

const mediaColumns = `id, type, width, height, size, mime_type, duration, thumbnail, created_at, checksum`

func (r *MediaRepository) Upsert(ctx context.Context, q querier, m record.MediaData, data []byte) error {
	const query = `
		INSERT OR REPLACE INTO media (` + mediaColumns + `, blob)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	if data == nil {
		data = []byte{}
	}

	var duration sql.NullFloat64
	if m.Duration != nil {
		duration = sql.NullFloat64{Float64: *m.Duration, Valid: true}
	}

	createdAt := m.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	_, err := q.ExecContext(ctx, query,
		m.ID,
		string(m.Type),
		m.Width,
		m.Height,
		m.Size,
		m.MimeType,
		duration,
		nullString(m.Thumbnail),
		createdAt.UnixMilli(),
		nullString(m.Checksum),
		data,
	)
	if err != nil {
		r.log.Error("failed to save media", "media_id", m.ID, "size", len(data), "error", err)
		return mapError("save media", err)
	}

	return nil
}

// Get возвращает метаданные и байты одного вложения
func (r *MediaRepository) Get(ctx context.Context, q querier, id string) (*record.MediaData, []byte, error) {
	query := `SELECT ` + mediaColumns + `, blob FROM media WHERE id = ?`

	var data []byte
	m, err := r.scan(q.QueryRowContext(ctx, query, id), &data)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil, record.ErrMediaNotFound
		}
		r.log.Error("failed to get media", "media_id", id, "error", err)
		return nil, nil, fmt.Errorf("get media: %w", err)
	}

	return m, data, nil
}

// Exists проверяет наличие строки медиа, не читая байты
func (r *MediaRepository) Exists(ctx context.Context, q querier, id string) (bool, error) {
	var one int
	err := q.QueryRowContext(ctx, `SELECT 1 FROM media WHERE id = ?`, id).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		r.log.Error("failed to check media", "media_id", id, "error", err)
		return false, fmt.Errorf("check media: %w", err)
	}
	return true, nil
}

// List возвращает метаданные всех вложений без байтов
func (r *MediaRepository) List(ctx context.Context, q querier) ([]record.MediaData, error) {
	query := `SELECT ` + mediaColumns + ` FROM media ORDER BY created_at DESC`

	rows, err := q.QueryContext(ctx, query)
	if err != nil {
		r.log.Error("failed to list media", "error", err)
		return nil, fmt.Errorf("list media: %w", err)
	}
	defer rows.Close()

	items := make([]record.MediaData, 0)
	for rows.Next() {
		m, err := r.scan(rows, nil)
		if err != nil {
			return nil, fmt.Errorf("scan media: %w", err)
		}
		items = append(items, *m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate media: %w", err)
	}

	return items, nil
}

// Delete удаляет строки медиа по идентификаторам. Отсутствующие id пропускаются.
func (r *MediaRepository) Delete(ctx context.Context, q querier, ids ...string) error {
	if len(ids) == 0 {
		return nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}

	query := `DELETE FROM media WHERE id IN (` + placeholders + `)`
	if _, err := q.ExecContext(ctx, query, args...); err != nil {
		r.log.Error("failed to delete media", "media_ids", ids, "error", err)
		return fmt.Errorf("delete media: %w", err)
	}

	return nil
}

func (r *MediaRepository) scan(row scanner, data *[]byte) (*record.MediaData, error) {
	var (
		m                   record.MediaData
		mediaType           string
		width, height       sql.NullInt64
		duration            sql.NullFloat64
		thumbnail, checksum sql.NullString
		createdAt           int64
	)

	dest := []any{
		&m.ID,
		&mediaType,
		&width,
		&height,
		&m.Size,
		&m.MimeType,
		&duration,
		&thumbnail,
		&createdAt,
		&checksum,
	}
	if data != nil {
		dest = append(dest, data)
	}

	if err := row.Scan(dest...); err != nil {
		return nil, err
	}

	m.Type = record.MediaType(mediaType)
	m.Width = int(width.Int64)
	m.Height = int(height.Int64)
	if duration.Valid {
		d := duration.Float64
		m.Duration = &d
	}
	m.Thumbnail = thumbnail.String
	m.Checksum = checksum.String
	m.CreatedAt = time.UnixMilli(createdAt)

	return &m, nil
}
