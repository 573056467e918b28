// Package memory - хранилище в памяти с тем же контрактом, что и SQLite.
// Используется в тестах и как запасной вариант, если файл базы не открывается.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"golang.org/x/exp/slog"

	"lifelog/internal/domain/record"
	"lifelog/internal/infrastructure/blob"
	"lifelog/internal/infrastructure/storage"
	"lifelog/internal/utils/datauri"
)

var _ storage.Storage = (*Storage)(nil)
var _ storage.Importer = (*Storage)(nil)

// Op - точка записи, в которую можно внедрить сбой
type Op string

const (
	OpSaveMedia  Op = "save_media"
	OpSaveRecord Op = "save_record"
)

type mediaRow struct {
	meta record.MediaData
	data []byte
}

type Storage struct {
	mu      sync.RWMutex
	records map[string]record.Record
	media   map[string]mediaRow

	registry *blob.Registry
	handles  *blob.Tracker
	log      *slog.Logger
	now      func() time.Time

	// FailOn, если задан, вызывается перед каждой записью; ошибка прерывает операцию
	FailOn func(op Op, id string) error
}

func New(registry *blob.Registry, log *slog.Logger) *Storage {
	return &Storage{
		records:  make(map[string]record.Record),
		media:    make(map[string]mediaRow),
		registry: registry,
		handles:  blob.NewTracker(registry),
		log:      log.With("component", "memory_storage"),
		now:      time.Now,
	}
}

func (s *Storage) Init(_ context.Context) error {
	return nil
}

func (s *Storage) fail(op Op, id string) error {
	if s.FailOn == nil {
		return nil
	}
	return s.FailOn(op, id)
}

func (s *Storage) SaveRecord(_ context.Context, rec *record.Record) error {
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

	s.mu.Lock()
	defer s.mu.Unlock()

	// Без транзакций: медиа пишутся первыми, сбой на записи оставляет лишь осиротевшие медиа
	for i, m := range rec.Images {
		if err := s.fail(OpSaveMedia, m.ID); err != nil {
			return err
		}
		s.media[m.ID] = mediaRow{meta: m.Ref(), data: payloads[i]}
	}

	if err := s.fail(OpSaveRecord, rec.ID); err != nil {
		return err
	}
	s.records[rec.ID] = rec.Stripped().Clone()

	for i := range rec.Images {
		storage.Materialize(s.registry, &rec.Images[i], payloads[i])
		s.handles.Track(rec.ID, rec.Images[i].Data)
	}
	return nil
}

func (s *Storage) GetAllRecords(_ context.Context) ([]record.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	records := make([]record.Record, 0, len(s.records))
	for _, rec := range s.records {
		records = append(records, s.hydrate(rec.Clone()))
	}

	sort.SliceStable(records, func(i, j int) bool {
		return records[i].Timestamp > records[j].Timestamp
	})
	return records, nil
}

func (s *Storage) GetRecord(_ context.Context, id string) (*record.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.records[id]
	if !ok {
		return nil, record.ErrNotFound
	}
	hydrated := s.hydrate(rec.Clone())
	return &hydrated, nil
}

func (s *Storage) hydrate(rec record.Record) record.Record {
	if len(rec.Images) == 0 {
		return rec
	}

	kept := rec.Images[:0]
	for _, ref := range rec.Images {
		row, ok := s.media[ref.ID]
		if !ok {
			s.log.Debug("dropping dangling media reference", "record_id", rec.ID, "media_id", ref.ID)
			continue
		}
		m := row.meta
		storage.Materialize(s.registry, &m, row.data)
		s.handles.Track(rec.ID, m.Data)
		kept = append(kept, m)
	}
	rec.Images = kept
	rec.HasImages = len(kept) > 0
	return rec
}

func (s *Storage) UpdateRecord(_ context.Context, id string, patch record.Patch) (*record.Record, error) {
	if err := patch.Validate(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[id]
	if !ok {
		return nil, record.ErrNotFound
	}
	if err := s.fail(OpSaveRecord, id); err != nil {
		return nil, err
	}

	rec = rec.Clone()
	patch.Apply(&rec, s.now())
	s.records[id] = rec

	updated := rec.Clone()
	return &updated, nil
}

func (s *Storage) DeleteRecord(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[id]
	if !ok {
		return record.ErrNotFound
	}

	for _, mediaID := range rec.MediaIDs() {
		delete(s.media, mediaID)
		s.handles.ReleaseOwner(mediaID)
	}
	s.handles.ReleaseOwner(id)
	delete(s.records, id)
	return nil
}

func (s *Storage) SaveMedia(_ context.Context, m *record.MediaData) error {
	data, err := storage.DecodeMedia(s.registry, m)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.fail(OpSaveMedia, m.ID); err != nil {
		return err
	}
	s.media[m.ID] = mediaRow{meta: m.Ref(), data: data}

	storage.Materialize(s.registry, m, data)
	s.handles.Track(m.ID, m.Data)
	return nil
}

func (s *Storage) GetMedia(_ context.Context, id string) (*record.MediaData, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row, ok := s.media[id]
	if !ok {
		return nil, record.ErrMediaNotFound
	}
	m := row.meta
	storage.Materialize(s.registry, &m, row.data)
	s.handles.Track(id, m.Data)
	return &m, nil
}

func (s *Storage) DeleteMedia(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.media[id]; !ok {
		return record.ErrMediaNotFound
	}
	delete(s.media, id)
	s.handles.ReleaseOwner(id)
	return nil
}

func (s *Storage) ListMedia(_ context.Context) ([]record.MediaData, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	items := make([]record.MediaData, 0, len(s.media))
	for _, row := range s.media {
		items = append(items, row.meta)
	}
	sort.Slice(items, func(i, j int) bool { return items[i].CreatedAt.After(items[j].CreatedAt) })
	return items, nil
}

func (s *Storage) ImportMedia(_ context.Context, items []storage.MediaBlob) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var written []string
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
		s.media[m.ID] = mediaRow{meta: m, data: item.Blob}
		written = append(written, m.ID)
	}
	return written, nil
}

func (s *Storage) ImportRecords(_ context.Context, records []record.Record) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	written := 0
	for _, rec := range records {
		if rec.ID == "" {
			continue
		}
		storage.KeepMedia(&rec, func(id string) bool {
			_, ok := s.media[id]
			return ok
		})
		rec.HasAudio = rec.AudioData != ""
		s.records[rec.ID] = rec.Stripped().Clone()
		written++
	}
	return written, nil
}

// Len возвращает число записей и медиа
func (s *Storage) Len() (records, media int) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records), len(s.media)
}

func (s *Storage) Close() error {
	return nil
}
