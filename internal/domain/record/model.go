package record

import (
	"time"
)

// Record - запись журнала (текст, голос, фото, видео).
// Бинарные данные медиа в строке записи не хранятся, только ссылки.
type Record struct {
	ID            string      `json:"id"`
	Content       string      `json:"content"`
	Timestamp     int64       `json:"timestamp"` // epoch millis
	CreatedAt     time.Time   `json:"createdAt"`
	UpdatedAt     time.Time   `json:"updatedAt"`
	Location      *Location   `json:"location,omitempty"`
	AudioData     string      `json:"audioData,omitempty"`
	AudioDuration float64     `json:"audioDuration,omitempty"`
	AudioFormat   string      `json:"audioFormat,omitempty"`
	HasAudio      bool        `json:"hasAudio"`
	Images        []MediaData `json:"images,omitempty"`
	HasImages     bool        `json:"hasImages"`
}

// Location - геопозиция с результатами обратного геокодирования
type Location struct {
	Latitude  float64  `json:"latitude"`
	Longitude float64  `json:"longitude"`
	Accuracy  *float64 `json:"accuracy,omitempty"`
	Address   string   `json:"address,omitempty"`
	City      string   `json:"city,omitempty"`
	Country   string   `json:"country,omitempty"`
}

// Audio - уже закодированная аудиозапись от компонента захвата звука
type Audio struct {
	Data     string  `json:"data" validate:"required"`
	Duration float64 `json:"duration" validate:"gte=0"`
	Format   string  `json:"format" validate:"required"`
}

// Clears сообщает, что аудио без данных и длительности означает удаление звука из записи
func (a *Audio) Clears() bool {
	return a.Data == "" && a.Duration == 0
}

// Patch - частичное обновление записи. nil означает "не трогать".
// Audio без данных убирает аудио из записи.
type Patch struct {
	Content  *string   `json:"content,omitempty"`
	Location *Location `json:"location,omitempty"`
	Audio    *Audio    `json:"audio,omitempty"`
}

// ClearAudio - патч, удаляющий аудио из записи
func ClearAudio() Patch {
	return Patch{Audio: &Audio{}}
}

// Validate проверяет аудио патча. Патч очистки аудио валиден.
func (p Patch) Validate() error {
	if p.Audio == nil || p.Audio.Clears() {
		return nil
	}
	return p.Audio.Validate()
}

// Apply применяет патч к записи и обновляет UpdatedAt.
// UpdatedAt строго возрастает даже при совпадении показаний часов.
func (p Patch) Apply(rec *Record, now time.Time) {
	if p.Content != nil {
		rec.Content = *p.Content
	}
	if p.Location != nil {
		loc := *p.Location
		rec.Location = &loc
	}
	switch {
	case p.Audio == nil:
	case p.Audio.Clears():
		rec.AudioData = ""
		rec.AudioDuration = 0
		rec.AudioFormat = ""
		rec.HasAudio = false
	default:
		rec.AudioData = p.Audio.Data
		rec.AudioDuration = p.Audio.Duration
		rec.AudioFormat = p.Audio.Format
		rec.HasAudio = true
	}

	// Хранится с точностью до миллисекунды
	now = time.UnixMilli(now.UnixMilli())
	prev := time.UnixMilli(rec.UpdatedAt.UnixMilli())
	if !now.After(prev) {
		now = prev.Add(time.Millisecond)
	}
	rec.UpdatedAt = now
}

// MediaIDs возвращает идентификаторы медиа, которыми владеет запись
func (r *Record) MediaIDs() []string {
	ids := make([]string, 0, len(r.Images))
	for _, m := range r.Images {
		ids = append(ids, m.ID)
	}
	return ids
}

// Stripped возвращает копию записи, в которой у медиа нет полезной нагрузки.
// Именно такая форма пишется в таблицу records.
func (r Record) Stripped() Record {
	if len(r.Images) == 0 {
		r.Images = nil
		return r
	}
	refs := make([]MediaData, len(r.Images))
	for i, m := range r.Images {
		refs[i] = m.Ref()
	}
	r.Images = refs
	return r
}

// Clone - глубокая копия, чтобы зеркало в памяти не делило срезы с вызывающим кодом
func (r Record) Clone() Record {
	if r.Location != nil {
		loc := *r.Location
		r.Location = &loc
	}
	if r.Images != nil {
		images := make([]MediaData, len(r.Images))
		copy(images, r.Images)
		r.Images = images
	}
	return r
}

// AgeDays возвращает возраст записи в днях относительно now
func (r *Record) AgeDays(now time.Time) float64 {
	return now.Sub(r.CreatedAt).Hours() / 24
}
