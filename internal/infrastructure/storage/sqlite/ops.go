package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"lifelog/internal/domain/record"
	"lifelog/internal/infrastructure/storage"
)

// SaveRecord сохраняет запись вместе с медиа в одной транзакции.
// Строки media пишутся раньше строки records, поэтому прерванная запись
// не оставляет ссылок на несуществующие медиа. После коммита полезная
// нагрузка вложений в rec заменяется на свежие blob: хендлы.
func (s *Storage) SaveRecord(ctx context.Context, rec *record.Record) error {
	if rec == nil || rec.ID == "" {
		return fmt.Errorf("%w: record id is required", record.ErrInvalidData)
	}

	payloads := make([][]byte, len(rec.Images))
	for i := range rec.Images {
		data, err := storage.DecodeMedia(s.registry, &rec.Images[i])
		if err != nil {
			return err
		}
		payloads[i] = data
	}
	rec.HasImages = len(rec.Images) > 0
	rec.HasAudio = rec.AudioData != ""

	err := s.withTx(ctx, func(tx *sql.Tx) error {
		for i, m := range rec.Images {
			if err := s.media.Upsert(ctx, tx, m.Ref(), payloads[i]); err != nil {
				return err
			}
		}
		return s.records.Upsert(ctx, tx, rec.Stripped())
	})
	if err != nil {
		return err
	}

	for i := range rec.Images {
		storage.Materialize(s.registry, &rec.Images[i], payloads[i])
		s.handles.Track(rec.ID, rec.Images[i].Data)
	}

	s.log.Debug("record saved", "record_id", rec.ID, "media", len(rec.Images))
	return nil
}

// GetAllRecords возвращает все записи, новые первыми, с новыми хендлами на медиа
func (s *Storage) GetAllRecords(ctx context.Context) ([]record.Record, error) {
	db, err := s.ready(ctx)
	if err != nil {
		return nil, err
	}

	records, err := s.records.List(ctx, db)
	if err != nil {
		return nil, err
	}

	for i := range records {
		if err := s.hydrate(ctx, db, &records[i]); err != nil {
			return nil, err
		}
	}

	return records, nil
}

func (s *Storage) GetRecord(ctx context.Context, id string) (*record.Record, error) {
	db, err := s.ready(ctx)
	if err != nil {
		return nil, err
	}

	rec, err := s.records.Get(ctx, db, id)
	if err != nil {
		return nil, err
	}

	if err := s.hydrate(ctx, db, rec); err != nil {
		return nil, err
	}
	return rec, nil
}

// hydrate подставляет в ссылки на медиа свежие хендлы. Ссылки, для которых
// строки media нет или контрольная сумма не сходится, отбрасываются.
func (s *Storage) hydrate(ctx context.Context, q querier, rec *record.Record) error {
	if len(rec.Images) == 0 {
		return nil
	}

	kept := rec.Images[:0]
	for _, ref := range rec.Images {
		m, data, err := s.media.Get(ctx, q, ref.ID)
		if errors.Is(err, record.ErrMediaNotFound) {
			s.log.Debug("dropping dangling media reference", "record_id", rec.ID, "media_id", ref.ID)
			continue
		}
		if err != nil {
			return err
		}
		if !storage.VerifyChecksum(m, data) {
			s.log.Warn("dropping media with checksum mismatch", "record_id", rec.ID, "media_id", ref.ID)
			continue
		}

		storage.Materialize(s.registry, m, data)
		s.handles.Track(rec.ID, m.Data)
		kept = append(kept, *m)
	}

	rec.Images = kept
	rec.HasImages = len(kept) > 0
	return nil
}

// UpdateRecord применяет частичное обновление. Медиа патч не затрагивает,
// поэтому в возвращаемой записи они остаются ссылками без хендлов.
func (s *Storage) UpdateRecord(ctx context.Context, id string, patch record.Patch) (*record.Record, error) {
	if err := patch.Validate(); err != nil {
		return nil, err
	}

	var updated *record.Record
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		rec, err := s.records.Get(ctx, tx, id)
		if err != nil {
			return err
		}

		patch.Apply(rec, s.now())

		if err := s.records.Upsert(ctx, tx, *rec); err != nil {
			return err
		}
		updated = rec
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Debug("record updated", "record_id", id)
	return updated, nil
}

// DeleteRecord каскадно удаляет запись: строки media, живые хендлы, строку records.
func (s *Storage) DeleteRecord(ctx context.Context, id string) error {
	var mediaIDs []string
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		rec, err := s.records.Get(ctx, tx, id)
		if err != nil {
			return err
		}
		mediaIDs = rec.MediaIDs()

		if err := s.media.Delete(ctx, tx, mediaIDs...); err != nil {
			return err
		}
		return s.records.Delete(ctx, tx, id)
	})
	if err != nil {
		return err
	}

	released := s.handles.ReleaseOwner(id)
	for _, mediaID := range mediaIDs {
		released += s.handles.ReleaseOwner(mediaID)
	}

	s.log.Debug("record deleted", "record_id", id, "media", len(mediaIDs), "released_handles", released)
	return nil
}

// SaveMedia пишет одно вложение напрямую. Data должен содержать data URI или живой хендл.
func (s *Storage) SaveMedia(ctx context.Context, m *record.MediaData) error {
	data, err := storage.DecodeMedia(s.registry, m)
	if err != nil {
		return err
	}

	err = s.withTx(ctx, func(tx *sql.Tx) error {
		return s.media.Upsert(ctx, tx, m.Ref(), data)
	})
	if err != nil {
		return err
	}

	storage.Materialize(s.registry, m, data)
	s.handles.Track(m.ID, m.Data)
	return nil
}

// GetMedia на каждый вызов выдает новый хендл; вызывающий обязан его освободить.
func (s *Storage) GetMedia(ctx context.Context, id string) (*record.MediaData, error) {
	db, err := s.ready(ctx)
	if err != nil {
		return nil, err
	}

	m, data, err := s.media.Get(ctx, db, id)
	if err != nil {
		return nil, err
	}

	storage.Materialize(s.registry, m, data)
	s.handles.Track(id, m.Data)
	return m, nil
}

func (s *Storage) DeleteMedia(ctx context.Context, id string) error {
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		if _, _, err := s.media.Get(ctx, tx, id); err != nil {
			return err
		}
		return s.media.Delete(ctx, tx, id)
	})
	if err != nil {
		return err
	}

	s.handles.ReleaseOwner(id)
	return nil
}

func (s *Storage) ListMedia(ctx context.Context) ([]record.MediaData, error) {
	db, err := s.ready(ctx)
	if err != nil {
		return nil, err
	}
	return s.media.List(ctx, db)
}
