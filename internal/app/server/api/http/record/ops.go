package record

import (
	"net/http"

	"github.com/danielgtaylor/huma/v2"
)

func (h *Handler) listOp() huma.Operation {
	return huma.Operation{
		OperationID: "records-list",
		Method:      http.MethodGet,
		Path:        "/api/records",
		Summary:     "Список записей, новые первыми",
		Tags:        []string{"records"},
		Middlewares: h.middleware,
	}
}

func (h *Handler) createOp() huma.Operation {
	return huma.Operation{
		OperationID:   "records-create",
		Method:        http.MethodPost,
		Path:          "/api/records",
		Summary:       "Создать запись",
		Description:   "Создает запись с необязательными геопозицией, аудио и медиа. Медиа передаются как data URI.",
		Tags:          []string{"records"},
		DefaultStatus: http.StatusCreated,
		Middlewares:   h.middleware,
	}
}

func (h *Handler) findOp() huma.Operation {
	return huma.Operation{
		OperationID: "records-find",
		Method:      http.MethodGet,
		Path:        "/api/records/{id}",
		Summary:     "Получить запись",
		Tags:        []string{"records"},
		Middlewares: h.middleware,
	}
}

func (h *Handler) updateOp() huma.Operation {
	return huma.Operation{
		OperationID: "records-update",
		Method:      http.MethodPut,
		Path:        "/api/records/{id}",
		Summary:     "Частично обновить запись",
		Description: "Меняются только переданные поля, updatedAt обновляется всегда.",
		Tags:        []string{"records"},
		Middlewares: h.middleware,
	}
}

func (h *Handler) deleteOp() huma.Operation {
	return huma.Operation{
		OperationID:   "records-delete",
		Method:        http.MethodDelete,
		Path:          "/api/records/{id}",
		Summary:       "Удалить запись вместе с медиа",
		Tags:          []string{"records"},
		DefaultStatus: http.StatusNoContent,
		Middlewares:   h.middleware,
	}
}

func (h *Handler) mediaOp() huma.Operation {
	return huma.Operation{
		OperationID: "records-media",
		Method:      http.MethodGet,
		Path:        "/api/records/{id}/media/{mediaId}",
		Summary:     "Содержимое медиа записи",
		Tags:        []string{"records"},
		Middlewares: h.middleware,
	}
}
