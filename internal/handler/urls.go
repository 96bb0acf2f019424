package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/mmeshcher/shortlink/internal/models"
	"github.com/mmeshcher/shortlink/internal/service"
)

func (h *Handler) ListHandler(rw http.ResponseWriter, r *http.Request) {
	records, err := h.service.List(r.Context())
	if err != nil {
		h.handleRecordsError(rw, r, err)
		return
	}

	data := make([]models.URLResponse, 0, len(records))
	for _, record := range records {
		data = append(data, h.toResponse(record))
	}

	h.writeJSON(rw, http.StatusOK, models.Envelope[[]models.URLResponse]{
		Data:   data,
		Status: models.StatusSuccess,
	})
}

func (h *Handler) GetHandler(rw http.ResponseWriter, r *http.Request) {
	record, err := h.service.Fetch(r.Context(), chi.URLParam(r, "code"))
	if err != nil {
		h.handleError(rw, r, err)
		return
	}

	h.writeRecord(rw, record)
}

func (h *Handler) CreateHandler(rw http.ResponseWriter, r *http.Request) {
	var req models.URLRequest
	if err := decodeJSONBody(rw, r, &req); err != nil {
		h.badRequest(rw, err)
		return
	}

	result, err := h.service.Create(r.Context(), req.URL)
	if err != nil {
		h.handleError(rw, r, err)
		return
	}

	envelope := models.Envelope[models.URLResponse]{
		Data:   h.toResponse(result.Record),
		Status: models.StatusSuccess,
	}
	if result.Status == service.StatusExists {
		envelope.Status = models.StatusWarning
		envelope.Errors = stringPtr(msgAlreadyExists)
	}

	h.writeJSON(rw, http.StatusOK, envelope)
}

func (h *Handler) UpdateHandler(rw http.ResponseWriter, r *http.Request) {
	var req models.URLRequest
	if err := decodeJSONBody(rw, r, &req); err != nil {
		h.badRequest(rw, err)
		return
	}

	h.update(rw, r, models.URLPatch{URL: models.Some(req.URL)})
}

func (h *Handler) ActivateHandler(rw http.ResponseWriter, r *http.Request) {
	h.update(rw, r, models.URLPatch{Active: models.Some(true)})
}

func (h *Handler) DeactivateHandler(rw http.ResponseWriter, r *http.Request) {
	h.update(rw, r, models.URLPatch{Active: models.Some(false)})
}

func (h *Handler) update(rw http.ResponseWriter, r *http.Request, patch models.URLPatch) {
	record, err := h.service.Update(r.Context(), chi.URLParam(r, "code"), patch)
	if err != nil {
		h.handleRecordsError(rw, r, err)
		return
	}

	h.writeRecord(rw, record)
}

func (h *Handler) DeleteHandler(rw http.ResponseWriter, r *http.Request) {
	record, err := h.service.Delete(r.Context(), chi.URLParam(r, "code"))
	if err != nil {
		h.handleRecordsError(rw, r, err)
		return
	}

	h.writeRecord(rw, record)
}
