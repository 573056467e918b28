package record

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"golang.org/x/exp/slog"

	"lifelog/internal/domain/record"
)

// Service - фасад записей, с которым работает API
type Service interface {
	GetRecordsByDateRange(days *int) []record.Record
	Get(id string) (*record.Record, bool)
	AddRecord(ctx context.Context, content string, location *record.Location, audio *record.Audio, media []record.MediaData) (*record.Record, error)
	PatchRecord(ctx context.Context, id string, patch record.Patch) (*record.Record, error)
	DeleteRecord(ctx context.Context, id string) error
	Media(recordID, mediaID string) ([]byte, string, error)
}

type Handler struct {
	service    Service
	log        *slog.Logger
	middleware huma.Middlewares
}

func NewHandler(service Service, log *slog.Logger, mws huma.Middlewares) *Handler {
	return &Handler{
		service:    service,
		log:        log,
		middleware: mws,
	}
}

func (h *Handler) SetupRoutes(api huma.API) {
	huma.Register(api, h.listOp(), h.list)
	huma.Register(api, h.createOp(), h.create)
	huma.Register(api, h.findOp(), h.find)
	huma.Register(api, h.updateOp(), h.update)
	huma.Register(api, h.deleteOp(), h.delete)
	huma.Register(api, h.mediaOp(), h.media)
}

func (h *Handler) list(_ context.Context, input *listInput) (*listOutput, error) {
	var days *int
	if input.Days >= 0 {
		days = &input.Days
	}

	records := h.service.GetRecordsByDateRange(days)
	for i := range records {
		records[i] = present(records[i])
	}

	return &listOutput{
		Body: listResponse{
			Count:   len(records),
			Records: records,
		},
	}, nil
}

func (h *Handler) find(_ context.Context, input *findInput) (*recordOutput, error) {
	rec, ok := h.service.Get(input.ID)
	if !ok {
		return nil, huma.Error404NotFound("record not found")
	}

	return &recordOutput{Body: present(*rec)}, nil
}

func (h *Handler) create(ctx context.Context, input *createInput) (*recordOutput, error) {
	media := make([]record.MediaData, 0, len(input.Body.Media))
	for _, m := range input.Body.Media {
		media = append(media, m.toDomain())
	}

	rec, err := h.service.AddRecord(ctx, input.Body.Content, input.Body.Location, input.Body.Audio, media)
	if err != nil {
		return nil, h.httpError("create record", err)
	}

	return &recordOutput{Body: present(*rec)}, nil
}

func (h *Handler) update(ctx context.Context, input *updateInput) (*recordOutput, error) {
	rec, err := h.service.PatchRecord(ctx, input.ID, input.Body)
	if err != nil {
		return nil, h.httpError("update record", err)
	}

	return &recordOutput{Body: present(*rec)}, nil
}

func (h *Handler) delete(ctx context.Context, input *deleteInput) (*struct{}, error) {
	if err := h.service.DeleteRecord(ctx, input.ID); err != nil {
		return nil, h.httpError("delete record", err)
	}
	return nil, nil
}

func (h *Handler) media(_ context.Context, input *mediaInput) (*mediaOutput, error) {
	data, mime, err := h.service.Media(input.ID, input.MediaID)
	if err != nil {
		return nil, h.httpError("read media", err)
	}

	return &mediaOutput{
		ContentType: mime,
		Body:        data,
	}, nil
}

// present заменяет временные хендлы медиа ссылками на эндпоинт с содержимым
func present(rec record.Record) record.Record {
	rec = rec.Clone()
	for i := range rec.Images {
		rec.Images[i].Data = fmt.Sprintf("/api/records/%s/media/%s", rec.ID, rec.Images[i].ID)
	}
	return rec
}

func (h *Handler) httpError(op string, err error) error {
	switch {
	case errors.Is(err, record.ErrNotFound), errors.Is(err, record.ErrMediaNotFound):
		return huma.Error404NotFound(err.Error())
	case errors.Is(err, record.ErrInvalidData):
		return huma.Error422UnprocessableEntity(err.Error())
	case errors.Is(err, record.ErrQuotaExceeded):
		return huma.NewError(http.StatusInsufficientStorage, record.QuotaMessage)
	case errors.Is(err, record.ErrInitialization):
		return huma.Error503ServiceUnavailable(err.Error())
	}

	h.log.Error("records api failure", "op", op, "error", err)
	return huma.Error500InternalServerError(op + " failed")
}
