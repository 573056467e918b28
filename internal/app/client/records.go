package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/exp/slog"

	"lifelog/internal/domain/record"
	"lifelog/internal/infrastructure/blob"
	"lifelog/internal/infrastructure/storage"
	"lifelog/internal/utils/datauri"
)

// exportVersion - версия формата файла экспорта
const exportVersion = 1

// Records - единственная точка входа для работы с записями.
// Держит зеркало хранилища в памяти (новые первыми) и оповещает подписчиков об изменениях.
// Вызовы не сериализуются между собой: порядок конфликтующих записей обеспечивает хранилище.
type Records struct {
	storage  storage.Storage
	registry *blob.Registry
	log      *slog.Logger
	now      func() time.Time

	mu      sync.RWMutex
	mirror  []record.Record
	subs    map[int]func([]record.Record)
	nextSub int
}

func NewRecords(st storage.Storage, registry *blob.Registry, log *slog.Logger) *Records {
	return &Records{
		storage:  st,
		registry: registry,
		log:      log.With("component", "records"),
		now:      time.Now,
		subs:     make(map[int]func([]record.Record)),
	}
}

// LoadFromStorage полностью перечитывает зеркало из хранилища.
// Хендлы предыдущего зеркала освобождаются.
func (r *Records) LoadFromStorage(ctx context.Context) error {
	records, err := r.storage.GetAllRecords(ctx)
	if err != nil {
		return err
	}

	r.mu.Lock()
	previous := r.mirror
	r.mirror = records
	r.mu.Unlock()

	released := r.releaseHandles(previous...)
	r.log.Debug("Записи загружены из хранилища", "count", len(records), "released_handles", released)

	r.notify()
	return nil
}

// AddRecord создает запись и сохраняет ее. Флаги HasAudio/HasImages выводятся из переданных аргументов.
// Хендлы медиа в возвращаемой записи принадлежат зеркалу, освобождать их не нужно.
func (r *Records) AddRecord(ctx context.Context, content string, location *record.Location, audio *record.Audio, media []record.MediaData) (*record.Record, error) {
	if audio != nil {
		if err := audio.Validate(); err != nil {
			return nil, err
		}
	}

	now := time.UnixMilli(r.now().UnixMilli())
	rec := record.Record{
		ID:        uuid.NewString(),
		Content:   content,
		Timestamp: now.UnixMilli(),
		CreatedAt: now,
		UpdatedAt: now,
	}

	if location != nil {
		loc := *location
		rec.Location = &loc
	}

	if audio != nil {
		rec.AudioData = audio.Data
		rec.AudioDuration = audio.Duration
		rec.AudioFormat = audio.Format
		rec.HasAudio = true
	}

	if len(media) > 0 {
		rec.Images = make([]record.MediaData, len(media))
		for i, m := range media {
			if m.ID == "" {
				m.ID = uuid.NewString()
			}
			if m.CreatedAt.IsZero() {
				m.CreatedAt = now
			}
			rec.Images[i] = m
		}
		rec.HasImages = true
	}

	if err := r.storage.SaveRecord(ctx, &rec); err != nil {
		r.log.Error("Не удалось сохранить запись", "error", err)
		return nil, err
	}

	r.mu.Lock()
	r.mirror = append([]record.Record{rec.Clone()}, r.mirror...)
	r.mu.Unlock()

	r.notify()

	added := rec.Clone()
	return &added, nil
}

// UpdateRecord меняет текст записи
func (r *Records) UpdateRecord(ctx context.Context, id, content string) (*record.Record, error) {
	return r.PatchRecord(ctx, id, record.Patch{Content: &content})
}

// PatchRecord сохраняет частичное обновление и переносит его в зеркало.
// Если записи в зеркале нет, зеркало не меняется.
func (r *Records) PatchRecord(ctx context.Context, id string, patch record.Patch) (*record.Record, error) {
	updated, err := r.storage.UpdateRecord(ctx, id, patch)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	idx := r.indexOf(id)
	if idx >= 0 {
		current := &r.mirror[idx]
		current.Content = updated.Content
		current.Location = updated.Location
		current.AudioData = updated.AudioData
		current.AudioDuration = updated.AudioDuration
		current.AudioFormat = updated.AudioFormat
		current.HasAudio = updated.HasAudio
		current.UpdatedAt = updated.UpdatedAt

		// Медиа патч не меняет, берем хендлы из зеркала
		updated.Images = current.Clone().Images
	}
	r.mu.Unlock()

	if idx >= 0 {
		r.notify()
	} else {
		r.log.Warn("Обновленной записи нет в зеркале", "record_id", id)
	}

	return updated, nil
}

// DeleteRecord освобождает хендлы медиа записи, удаляет ее из хранилища и из зеркала
func (r *Records) DeleteRecord(ctx context.Context, id string) error {
	r.mu.RLock()
	var owned []record.MediaData
	if idx := r.indexOf(id); idx >= 0 {
		owned = r.mirror[idx].Clone().Images
	}
	r.mu.RUnlock()

	released := r.releaseMedia(owned)

	if err := r.storage.DeleteRecord(ctx, id); err != nil {
		return err
	}

	r.mu.Lock()
	if idx := r.indexOf(id); idx >= 0 {
		r.mirror = append(r.mirror[:idx], r.mirror[idx+1:]...)
	}
	r.mu.Unlock()

	r.log.Debug("Запись удалена", "record_id", id, "released_handles", released)
	r.notify()
	return nil
}

// GetRecordsByDateRange фильтрует зеркало по возрасту записи. nil - без фильтра.
func (r *Records) GetRecordsByDateRange(days *int) []record.Record {
	snapshot := r.Snapshot()
	if days == nil {
		return snapshot
	}

	now := r.now()
	limit := float64(*days)
	filtered := make([]record.Record, 0, len(snapshot))
	for _, rec := range snapshot {
		if rec.AgeDays(now) <= limit {
			filtered = append(filtered, rec)
		}
	}
	return filtered
}

// PruneOlderThan удаляет записи старше days дней. Возвращает число удаленных.
func (r *Records) PruneOlderThan(ctx context.Context, days int) (int, error) {
	now := r.now()
	limit := float64(days)

	pruned := 0
	for _, rec := range r.Snapshot() {
		if rec.AgeDays(now) <= limit {
			continue
		}
		if err := r.DeleteRecord(ctx, rec.ID); err != nil {
			return pruned, err
		}
		pruned++
	}
	return pruned, nil
}

// Get возвращает запись из зеркала
func (r *Records) Get(id string) (*record.Record, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	idx := r.indexOf(id)
	if idx < 0 {
		return nil, false
	}
	rec := r.mirror[idx].Clone()
	return &rec, true
}

// Media возвращает байты вложения записи по живому хендлу из зеркала
func (r *Records) Media(recordID, mediaID string) ([]byte, string, error) {
	rec, ok := r.Get(recordID)
	if !ok {
		return nil, "", record.ErrNotFound
	}
	for _, m := range rec.Images {
		if m.ID != mediaID {
			continue
		}
		data, mime, ok := r.registry.Resolve(m.Data)
		if !ok {
			break
		}
		return data, mime, nil
	}
	return nil, "", record.ErrMediaNotFound
}

// Snapshot - копия зеркала, новые записи первыми
func (r *Records) Snapshot() []record.Record {
	r.mu.RLock()
	defer r.mu.RUnlock()

	snapshot := make([]record.Record, len(r.mirror))
	for i, rec := range r.mirror {
		snapshot[i] = rec.Clone()
	}
	return snapshot
}

// Subscribe регистрирует обработчик изменений зеркала. Возвращает функцию отписки.
func (r *Records) Subscribe(fn func([]record.Record)) func() {
	r.mu.Lock()
	id := r.nextSub
	r.nextSub++
	r.subs[id] = fn
	r.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			r.mu.Lock()
			delete(r.subs, id)
			r.mu.Unlock()
		})
	}
}

// Close освобождает все хендлы зеркала
func (r *Records) Close() {
	r.mu.Lock()
	previous := r.mirror
	r.mirror = nil
	r.mu.Unlock()

	r.releaseHandles(previous...)
}

type exportFile struct {
	Version    int             `json:"version"`
	ExportedAt time.Time       `json:"exportedAt"`
	Records    []record.Record `json:"records"`
}

// Export пишет все записи в JSON; медиа встраиваются как data URI
func (r *Records) Export(ctx context.Context, w io.Writer) (int, error) {
	records := r.Snapshot()

	for i := range records {
		for j := range records[i].Images {
			if err := r.inline(ctx, &records[i].Images[j]); err != nil {
				return 0, fmt.Errorf("экспорт медиа %s: %w", records[i].Images[j].ID, err)
			}
		}
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(exportFile{Version: exportVersion, ExportedAt: r.now(), Records: records}); err != nil {
		return 0, fmt.Errorf("запись экспорта: %w", err)
	}

	r.log.Info("Записи экспортированы", "count", len(records))
	return len(records), nil
}

func (r *Records) inline(ctx context.Context, m *record.MediaData) error {
	if data, mime, ok := r.registry.Resolve(m.Data); ok {
		m.Data = datauri.Encode(data, mime)
		return nil
	}

	fresh, err := r.storage.GetMedia(ctx, m.ID)
	if err != nil {
		return err
	}
	defer r.registry.Release(fresh.Data)

	data, mime, ok := r.registry.Resolve(fresh.Data)
	if !ok {
		return record.ErrMediaNotFound
	}
	m.Data = datauri.Encode(data, mime)
	return nil
}

// Import добавляет записи из файла экспорта. Записи с уже известными id пропускаются.
func (r *Records) Import(ctx context.Context, rd io.Reader) (int, error) {
	var file exportFile
	if err := json.NewDecoder(rd).Decode(&file); err != nil {
		return 0, fmt.Errorf("%w: файл экспорта: %v", record.ErrInvalidData, err)
	}
	if file.Version != exportVersion {
		return 0, fmt.Errorf("%w: неподдерживаемая версия экспорта %d", record.ErrInvalidData, file.Version)
	}

	imported := 0
	for _, rec := range file.Records {
		if _, exists := r.Get(rec.ID); exists || rec.ID == "" {
			continue
		}
		if err := r.storage.SaveRecord(ctx, &rec); err != nil {
			return imported, err
		}
		// Зеркало перечитается целиком, эти хендлы больше не нужны
		r.releaseMedia(rec.Images)
		imported++
	}

	if imported > 0 {
		if err := r.LoadFromStorage(ctx); err != nil {
			return imported, err
		}
	}

	r.log.Info("Записи импортированы", "count", imported, "total", len(file.Records))
	return imported, nil
}

func (r *Records) indexOf(id string) int {
	for i := range r.mirror {
		if r.mirror[i].ID == id {
			return i
		}
	}
	return -1
}

func (r *Records) releaseHandles(records ...record.Record) int {
	released := 0
	for _, rec := range records {
		released += r.releaseMedia(rec.Images)
	}
	return released
}

func (r *Records) releaseMedia(media []record.MediaData) int {
	urls := make([]string, 0, len(media))
	for _, m := range media {
		if blob.IsHandle(m.Data) {
			urls = append(urls, m.Data)
		}
	}
	return r.registry.ReleaseAll(urls...)
}

func (r *Records) notify() {
	snapshot := r.Snapshot()

	r.mu.RLock()
	subs := make([]func([]record.Record), 0, len(r.subs))
	for _, fn := range r.subs {
		subs = append(subs, fn)
	}
	r.mu.RUnlock()

	for _, fn := range subs {
		fn(snapshot)
	}
}
