package handler

import (
	"net/http"

	"github.com/mmeshcher/shortlink/internal/models"
	"github.com/mmeshcher/shortlink/internal/service"
)

func (h *Handler) ShortenBatchHandler(rw http.ResponseWriter, r *http.Request) {
	var batch models.BatchRequest
	if err := decodeJSONBody(rw, r, &batch); err != nil {
		h.badRequest(rw, err)
		return
	}

	urls := make([]string, 0, len(batch))
	for _, item := range batch {
		urls = append(urls, item.URL)
	}

	results, err := h.service.CreateBatch(r.Context(), urls)
	if err != nil {
		h.handleError(rw, r, err)
		return
	}

	envelope := models.Envelope[[]models.URLResponse]{
		Data:   make([]models.URLResponse, 0, len(results)),
		Status: models.StatusSuccess,
	}
	for _, result := range results {
		envelope.Data = append(envelope.Data, h.toResponse(result.Record))
		if result.Status == service.StatusExists {
			envelope.Status = models.StatusWarning
			envelope.Errors = stringPtr(msgAlreadyExists)
		}
	}

	h.writeJSON(rw, http.StatusOK, envelope)
}
