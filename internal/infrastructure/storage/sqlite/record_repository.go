package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"golang.org/x/exp/slog"

	"lifelog/internal/domain/record"
)

type RecordRepository struct {
	log *slog.Logger
}

func NewRecordRepository(log *slog.Logger) *RecordRepository {
	return &RecordRepository{
		log: log.With("component", "record_repository"),
	}
}

const recordColumns = `id, content, timestamp, created_at, updated_at, location,
	audio_data, audio_duration, audio_format, has_audio, images, has_images`

// Upsert пишет запись целиком. Медиа должны быть уже без полезной нагрузки.
func (r *RecordRepository) Upsert(ctx context.Context, q querier, rec record.Record) error {
	const query = `
		INSERT OR REPLACE INTO records (` + recordColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	location, err := marshalNullable(rec.Location)
	if err != nil {
		return fmt.Errorf("marshal location: %w", err)
	}

	var images sql.NullString
	if len(rec.Images) > 0 {
		raw, err := json.Marshal(rec.Images)
		if err != nil {
			return fmt.Errorf("marshal images: %w", err)
		}
		images = sql.NullString{String: string(raw), Valid: true}
	}

	_, err = q.ExecContext(ctx, query,
		rec.ID,
		rec.Content,
		rec.Timestamp,
		rec.CreatedAt.UnixMilli(),
		rec.UpdatedAt.UnixMilli(),
		location,
		nullString(rec.AudioData),
		rec.AudioDuration,
		nullString(rec.AudioFormat),
		rec.HasAudio,
		images,
		rec.HasImages,
	)
	if err != nil {
		r.log.Error("failed to save record", "record_id", rec.ID, "error", err)
		return mapError("save record", err)
	}

	return nil
}

// List возвращает все записи, новые первыми
func (r *RecordRepository) List(ctx context.Context, q querier) ([]record.Record, error) {
	query := `SELECT ` + recordColumns + ` FROM records ORDER BY timestamp DESC`

	rows, err := q.QueryContext(ctx, query)
	if err != nil {
		r.log.Error("failed to list records", "error", err)
		return nil, fmt.Errorf("list records: %w", err)
	}
	defer rows.Close()

	records := make([]record.Record, 0)
	for rows.Next() {
		rec, err := r.scan(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, *rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate records: %w", err)
	}

	return records, nil
}

func (r *RecordRepository) Get(ctx context.Context, q querier, id string) (*record.Record, error) {
	query := `SELECT ` + recordColumns + ` FROM records WHERE id = ?`

	rec, err := r.scan(q.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, record.ErrNotFound
		}
		r.log.Error("failed to get record", "record_id", id, "error", err)
		return nil, fmt.Errorf("get record: %w", err)
	}

	return rec, nil
}

// Delete удаляет строку записи. Отсутствие записи ошибкой не считается.
func (r *RecordRepository) Delete(ctx context.Context, q querier, id string) error {
	if _, err := q.ExecContext(ctx, `DELETE FROM records WHERE id = ?`, id); err != nil {
		r.log.Error("failed to delete record", "record_id", id, "error", err)
		return fmt.Errorf("delete record: %w", err)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func (r *RecordRepository) scan(row scanner) (*record.Record, error) {
	var (
		rec                  record.Record
		createdAt, updatedAt int64
		location, images     sql.NullString
		audioData, audioFmt  sql.NullString
		audioDuration        sql.NullFloat64
	)

	err := row.Scan(
		&rec.ID,
		&rec.Content,
		&rec.Timestamp,
		&createdAt,
		&updatedAt,
		&location,
		&audioData,
		&audioDuration,
		&audioFmt,
		&rec.HasAudio,
		&images,
		&rec.HasImages,
	)
	if err != nil {
		return nil, err
	}

	rec.CreatedAt = time.UnixMilli(createdAt)
	rec.UpdatedAt = time.UnixMilli(updatedAt)
	rec.AudioData = audioData.String
	rec.AudioDuration = audioDuration.Float64
	rec.AudioFormat = audioFmt.String

	if location.Valid && location.String != "" {
		var loc record.Location
		if err := json.Unmarshal([]byte(location.String), &loc); err != nil {
			return nil, fmt.Errorf("unmarshal location of %s: %w", rec.ID, err)
		}
		rec.Location = &loc
	}

	if images.Valid && images.String != "" {
		if err := json.Unmarshal([]byte(images.String), &rec.Images); err != nil {
			return nil, fmt.Errorf("unmarshal images of %s: %w", rec.ID, err)
		}
	}

	return &rec, nil
}

func marshalNullable(v *record.Location) (sql.NullString, error) {
	if v == nil {
		return sql.NullString{}, nil
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return sql.NullString{}, err
	}
	return sql.NullString{String: string(raw), Valid: true}, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
