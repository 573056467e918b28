package storage

import (
	"encoding/hex"
	"fmt"

	"golang.org/x/crypto/blake2b"

	"lifelog/internal/domain/record"
	"lifelog/internal/infrastructure/blob"
	"lifelog/internal/utils/datauri"
)

// DecodeMedia достает байты вложения из data URI (или живого blob: хендла),
// дополняет метаданные и проверяет их. Возвращает байты для таблицы media.
func DecodeMedia(registry *blob.Registry, m *record.MediaData) ([]byte, error) {
	var data []byte

	switch {
	case blob.IsHandle(m.Data):
		buf, mime, ok := registry.Resolve(m.Data)
		if !ok {
			return nil, fmt.Errorf("%w: media %s: handle already released", record.ErrInvalidData, m.ID)
		}
		data = buf
		if m.MimeType == "" {
			m.MimeType = mime
		}
	case m.Data != "":
		payload, err := datauri.Decode(m.Data, m.MimeType)
		if err != nil {
			return nil, fmt.Errorf("%w: media %s: %v", record.ErrInvalidData, m.ID, err)
		}
		data = payload.Data
		if m.MimeType == "" {
			m.MimeType = payload.MimeType
		}
	default:
		return nil, fmt.Errorf("%w: media %s has no payload", record.ErrInvalidData, m.ID)
	}

	if m.Size == 0 {
		m.Size = int64(len(data))
	}

	if err := m.Validate(); err != nil {
		return nil, err
	}

	m.Checksum = Checksum(data)
	return data, nil
}

// Materialize выдает новый временный хендл на байты вложения
func Materialize(registry *blob.Registry, m *record.MediaData, data []byte) {
	m.Data = registry.Create(data, m.MimeType).URL
}

// Checksum - контрольная сумма полезной нагрузки медиа
func Checksum(data []byte) string {
	sum := blake2b.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// VerifyChecksum сверяет сохраненную сумму с байтами. Пустая сумма считается валидной
// (строки, записанные до появления колонки checksum).
func VerifyChecksum(m *record.MediaData, data []byte) bool {
	return m.Checksum == "" || m.Checksum == Checksum(data)
}
