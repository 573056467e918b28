package stats

import (
	"net/http"

	"github.com/danielgtaylor/huma/v2"
)

func (h *Handler) statsOp() huma.Operation {
	return huma.Operation{
		OperationID: "storage-stats",
		Method:      http.MethodGet,
		Path:        "/api/stats",
		Summary:     "Использование хранилища",
		Tags:        []string{"stats"},
		Middlewares: h.middleware,
	}
}
