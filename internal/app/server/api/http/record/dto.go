package record

import (
	"lifelog/internal/domain/record"
)

type listInput struct {
	Days int `query:"days" default:"-1" doc:"Только записи не старше N дней; не задано - все"`
}

type listOutput struct {
	Body listResponse
}

type listResponse struct {
	Count   int             `json:"count"`
	Records []record.Record `json:"records"`
}

type findInput struct {
	ID string `path:"id" doc:"ID записи"`
}

type recordOutput struct {
	Body record.Record
}

type createInput struct {
	Body createRequest
}

type createRequest struct {
	Content  string           `json:"content,omitempty" doc:"Текст записи, может быть пустым"`
	Location *record.Location `json:"location,omitempty"`
	Audio    *record.Audio    `json:"audio,omitempty" doc:"Уже закодированная аудиозапись"`
	Media    []mediaRequest   `json:"media,omitempty"`
}

type mediaRequest struct {
	ID        string           `json:"id,omitempty"`
	Type      record.MediaType `json:"type"`
	Data      string           `json:"data" minLength:"1" doc:"data URI или base64"`
	Width     int              `json:"width,omitempty" minimum:"0"`
	Height    int              `json:"height,omitempty" minimum:"0"`
	MimeType  string           `json:"mimeType,omitempty"`
	Duration  *float64         `json:"duration,omitempty" minimum:"0" doc:"Секунды, только для видео"`
	Thumbnail string           `json:"thumbnail,omitempty"`
}

type updateInput struct {
	ID   string `path:"id" doc:"ID записи"`
	Body record.Patch
}

type deleteInput struct {
	ID string `path:"id" doc:"ID записи"`
}

type mediaInput struct {
	ID      string `path:"id" doc:"ID записи"`
	MediaID string `path:"mediaId" doc:"ID медиа"`
}

type mediaOutput struct {
	ContentType string `header:"Content-Type"`
	Body        []byte
}

func (m mediaRequest) toDomain() record.MediaData {
	return record.MediaData{
		ID:        m.ID,
		Type:      m.Type,
		Data:      m.Data,
		Width:     m.Width,
		Height:    m.Height,
		MimeType:  m.MimeType,
		Duration:  m.Duration,
		Thumbnail: m.Thumbnail,
	}
}
