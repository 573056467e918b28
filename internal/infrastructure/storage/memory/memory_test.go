package memory

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/exp/slog"

	"lifelog/internal/domain/record"
	"lifelog/internal/infrastructure/blob"
	"lifelog/internal/infrastructure/storage"
	"lifelog/internal/utils/datauri"
)

func newTestStorage() (*Storage, *blob.Registry) {
	registry := blob.NewRegistry()
	return New(registry, slog.New(slog.NewTextHandler(io.Discard, nil))), registry
}

func media(id string, kind record.MediaType) record.MediaData {
	return record.MediaData{
		ID:       id,
		Type:     kind,
		Data:     datauri.Encode([]byte("payload-"+id), "image/png"),
		MimeType: "image/png",
	}
}

func TestStorage_OrderingOnMetadataFailure(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStorage()

	s.FailOn = func(op Op, _ string) error {
		if op == OpSaveRecord {
			return errors.New("interrupted")
		}
		return nil
	}

	rec := &record.Record{ID: "r1", Timestamp: 1, Images: []record.MediaData{media("m1", record.MediaTypeImage), media("m2", record.MediaTypeVideo)}}
	require.Error(t, s.SaveRecord(ctx, rec))

	records, mediaRows := s.Len()
	assert.Zero(t, records)
	// Осиротевшие медиа допустимы, висячие ссылки - нет
	assert.Equal(t, 2, mediaRows)
}

func TestStorage_OrderingOnMediaFailure(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStorage()

	s.FailOn = func(op Op, id string) error {
		if op == OpSaveMedia && id == "m2" {
			return errors.New("disk full")
		}
		return nil
	}

	rec := &record.Record{ID: "r1", Timestamp: 1, Images: []record.MediaData{media("m1", record.MediaTypeImage), media("m2", record.MediaTypeImage)}}
	require.Error(t, s.SaveRecord(ctx, rec))

	_, err := s.GetRecord(ctx, "r1")
	assert.ErrorIs(t, err, record.ErrNotFound)
}

func TestStorage_CascadeDelete(t *testing.T) {
	ctx := context.Background()
	s, registry := newTestStorage()

	rec := &record.Record{ID: "r1", Timestamp: 1, Images: []record.MediaData{
		media("m1", record.MediaTypeImage),
		media("m2", record.MediaTypeImage),
		media("m3", record.MediaTypeVideo),
	}}
	require.NoError(t, s.SaveRecord(ctx, rec))
	assert.Equal(t, 3, registry.Live())

	_, err := s.GetAllRecords(ctx)
	require.NoError(t, err)
	assert.Equal(t, 6, registry.Live())

	require.NoError(t, s.DeleteRecord(ctx, "r1"))

	items, err := s.ListMedia(ctx)
	require.NoError(t, err)
	assert.Empty(t, items)
	assert.Zero(t, registry.Live())

	assert.ErrorIs(t, s.DeleteRecord(ctx, "r1"), record.ErrNotFound)
}

func TestStorage_PartialUpdate(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStorage()

	created := time.UnixMilli(1_700_000_000_000)
	rec := &record.Record{ID: "r1", Content: "before", Timestamp: created.UnixMilli(), CreatedAt: created, UpdatedAt: created,
		Location: &record.Location{Latitude: 10, Longitude: 20}}
	require.NoError(t, s.SaveRecord(ctx, rec))
	s.now = func() time.Time { return created }

	content := "after"
	updated, err := s.UpdateRecord(ctx, "r1", record.Patch{Content: &content})
	require.NoError(t, err)

	assert.Equal(t, "after", updated.Content)
	assert.Equal(t, rec.Location, updated.Location)
	assert.Equal(t, rec.Timestamp, updated.Timestamp)
	assert.True(t, updated.UpdatedAt.After(created))

	_, err = s.UpdateRecord(ctx, "missing", record.Patch{Content: &content})
	assert.ErrorIs(t, err, record.ErrNotFound)
}

func TestStorage_DanglingReference(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStorage()

	require.NoError(t, s.SaveRecord(ctx, &record.Record{ID: "r1", Timestamp: 1,
		Images: []record.MediaData{media("gone", record.MediaTypeImage)}}))
	require.NoError(t, s.DeleteMedia(ctx, "gone"))

	rec, err := s.GetRecord(ctx, "r1")
	require.NoError(t, err)
	assert.Empty(t, rec.Images)
	assert.False(t, rec.HasImages)
}

func TestStorage_ImportKeepsOnlyStoredMedia(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStorage()

	written, err := s.ImportMedia(ctx, []storage.MediaBlob{
		{Media: record.MediaData{ID: "m1", Type: record.MediaTypeImage, MimeType: "image/png"}, Blob: []byte("one")},
		{Media: record.MediaData{ID: "m-bad", Type: "audio", MimeType: "audio/webm"}, Blob: []byte("bad")},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"m1"}, written)

	_, err = s.ImportRecords(ctx, []record.Record{{
		ID: "r1",
		Images: []record.MediaData{
			{ID: "m1", Type: record.MediaTypeImage, MimeType: "image/png"},
			{ID: "m-bad", Type: "audio", MimeType: "audio/webm"},
			{ID: "m-missing", Type: record.MediaTypeImage, MimeType: "image/png"},
		},
	}})
	require.NoError(t, err)

	// Строка записи хранит только записанные медиа
	s.mu.RLock()
	stored := s.records["r1"]
	s.mu.RUnlock()
	require.Len(t, stored.Images, 1)
	assert.Equal(t, "m1", stored.Images[0].ID)
	assert.True(t, stored.HasImages)
}

func TestStorage_ClearAudio(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStorage()

	require.NoError(t, s.SaveRecord(ctx, &record.Record{ID: "r1", Timestamp: 1,
		AudioData: datauri.Encode([]byte("ogg"), "audio/ogg"), AudioDuration: 2, AudioFormat: "ogg"}))

	updated, err := s.UpdateRecord(ctx, "r1", record.ClearAudio())
	require.NoError(t, err)
	assert.False(t, updated.HasAudio)
	assert.Empty(t, updated.AudioData)

	_, err = s.UpdateRecord(ctx, "r1", record.Patch{Audio: &record.Audio{Duration: 2}})
	assert.ErrorIs(t, err, record.ErrInvalidData)
}
