package record

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
)

// MaxMediaSize - верхняя граница размера одного вложения
const MaxMediaSize = 100 * 1024 * 1024 // 100 MB

// MediaData - одно бинарное вложение (фото или видео).
// Data - временный дескриптор: data URI при записи либо blob: хендл после чтения.
// В строку записи Data не попадает никогда.
type MediaData struct {
	ID        string    `json:"id" validate:"required"`
	Type      MediaType `json:"type" validate:"required,oneof=image video"`
	Data      string    `json:"data,omitempty"`
	Width     int       `json:"width" validate:"gte=0"`
	Height    int       `json:"height" validate:"gte=0"`
	Size      int64     `json:"size" validate:"gte=0"`
	MimeType  string    `json:"mimeType" validate:"required"`
	Duration  *float64  `json:"duration,omitempty" validate:"omitempty,gte=0"` // секунды, только видео
	Thumbnail string    `json:"thumbnail,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	Checksum  string    `json:"checksum,omitempty"`
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate проверяет метаданные вложения перед записью
func (m *MediaData) Validate() error {
	if err := validate.Struct(m); err != nil {
		return fmt.Errorf("%w: media %s: %v", ErrInvalidData, m.ID, err)
	}

	if m.Size > MaxMediaSize {
		return fmt.Errorf("%w: media %s too large (max 100MB)", ErrInvalidData, m.ID)
	}

	if m.Type == MediaTypeImage && m.Duration != nil {
		return fmt.Errorf("%w: media %s: duration is only allowed for video", ErrInvalidData, m.ID)
	}

	return nil
}

// Validate проверяет аудиополя, переданные компонентом захвата звука
func (a *Audio) Validate() error {
	if err := validate.Struct(a); err != nil {
		return fmt.Errorf("%w: audio: %v", ErrInvalidData, err)
	}
	return nil
}

// Ref возвращает ссылку на медиа без полезной нагрузки
func (m MediaData) Ref() MediaData {
	m.Data = ""
	return m
}
