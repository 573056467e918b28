package record

import (
	"fmt"

	"github.com/danielgtaylor/huma/v2"
)

// MediaType - тип бинарного вложения записи
type MediaType string

const (
	MediaTypeImage MediaType = "image"
	MediaTypeVideo MediaType = "video"
)

func (MediaType) Schema(_ huma.Registry) *huma.Schema {
	return &huma.Schema{
		Type: "string",
		Enum: []any{
			string(MediaTypeImage),
			string(MediaTypeVideo),
		},
		Description: "Тип медиа-вложения",
		Examples:    []any{MediaTypeImage},
	}
}

// Validate проверяет, что тип медиа известен.
func (t MediaType) Validate() error {
	switch t {
	case MediaTypeImage, MediaTypeVideo:
		return nil
	}
	return fmt.Errorf("неверный тип медиа: %s", t)
}

// String возвращает строковое представление типа.
func (t MediaType) String() string {
	return string(t)
}

// DisplayName возвращает человекочитаемое название типа.
func (t MediaType) DisplayName() string {
	switch t {
	case MediaTypeImage:
		return "Фото"
	case MediaTypeVideo:
		return "Видео"
	default:
		return "Неизвестный тип"
	}
}
