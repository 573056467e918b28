package storage

import (
	"context"

	"lifelog/internal/domain/record"
)

// Storage - постоянное хранилище записей и медиа (две таблицы в одной встроенной БД).
// Все методы лениво вызывают Init.
type Storage interface {
	Init(ctx context.Context) error

	// Записи
	SaveRecord(ctx context.Context, rec *record.Record) error
	GetAllRecords(ctx context.Context) ([]record.Record, error)
	GetRecord(ctx context.Context, id string) (*record.Record, error)
	UpdateRecord(ctx context.Context, id string, patch record.Patch) (*record.Record, error)
	DeleteRecord(ctx context.Context, id string) error

	// Медиа
	SaveMedia(ctx context.Context, media *record.MediaData) error
	GetMedia(ctx context.Context, id string) (*record.MediaData, error)
	DeleteMedia(ctx context.Context, id string) error
	ListMedia(ctx context.Context) ([]record.MediaData, error)

	Close() error
}

// MediaBlob - метаданные медиа вместе с уже декодированными байтами
type MediaBlob struct {
	Media record.MediaData
	Blob  []byte
}

// Importer - массовая запись при переносе данных из старой базы.
// Совпадающие первичные ключи перезаписываются.
// ImportMedia возвращает id реально записанных вложений, невалидные пропускаются.
// ImportRecords убирает из записей ссылки на медиа, которых нет в хранилище.
type Importer interface {
	ImportMedia(ctx context.Context, items []MediaBlob) ([]string, error)
	ImportRecords(ctx context.Context, records []record.Record) (int, error)
}

// KeepMedia оставляет в записи только ссылки, для которых keep возвращает true,
// и пересчитывает HasImages. Возвращает число убранных ссылок.
func KeepMedia(rec *record.Record, keep func(id string) bool) int {
	if len(rec.Images) == 0 {
		rec.HasImages = false
		return 0
	}

	kept := make([]record.MediaData, 0, len(rec.Images))
	for _, m := range rec.Images {
		if keep(m.ID) {
			kept = append(kept, m)
		}
	}
	dropped := len(rec.Images) - len(kept)

	if len(kept) == 0 {
		kept = nil
	}
	rec.Images = kept
	rec.HasImages = len(kept) > 0
	return dropped
}
