package sqlite

import (
	"context"
	"database/sql"

	"lifelog/internal/domain/record"
	"lifelog/internal/infrastructure/storage"
	"lifelog/internal/utils/datauri"
)

// ImportMedia пишет вложения одной транзакцией. Невалидные элементы пропускаются,
// возвращаются id записанных.
func (s *Storage) ImportMedia(ctx context.Context, items []storage.MediaBlob) ([]string, error) {
	var written []string
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		written = written[:0]
		for _, item := range items {
			m := item.Media.Ref()
			if m.MimeType == "" {
				m.MimeType = datauri.DetectMIME(item.Blob)
			}
			if m.Size == 0 {
				m.Size = int64(len(item.Blob))
			}
			if err := m.Validate(); err != nil {
				s.log.Warn("skipping invalid media on import", "media_id", m.ID, "error", err)
				continue
			}
			m.Checksum = storage.Checksum(item.Blob)

			if err := s.media.Upsert(ctx, tx, m, item.Blob); err != nil {
				return err
			}
			written = append(written, m.ID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("media imported", "count", len(written), "skipped", len(items)-len(written))
	return written, nil
}

// ImportRecords пишет записи одной транзакцией. Совпадающие id перезаписываются.
// Ссылки на медиа, которых нет в таблице media, не сохраняются.
func (s *Storage) ImportRecords(ctx context.Context, records []record.Record) (int, error) {
	written := 0
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		written = 0
		for _, rec := range records {
			if rec.ID == "" {
				s.log.Warn("skipping record without id on import")
				continue
			}
			var lookupErr error
			dropped := storage.KeepMedia(&rec, func(id string) bool {
				ok, err := s.media.Exists(ctx, tx, id)
				if err != nil && lookupErr == nil {
					lookupErr = err
				}
				return ok
			})
			if lookupErr != nil {
				return lookupErr
			}
			if dropped > 0 {
				s.log.Warn("dropping media references without media rows on import",
					"record_id", rec.ID, "dropped", dropped)
			}
			rec.HasAudio = rec.AudioData != ""

			if err := s.records.Upsert(ctx, tx, rec.Stripped()); err != nil {
				return err
			}
			written++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	s.log.Info("records imported", "count", written, "skipped", len(records)-written)
	return written, nil
}
