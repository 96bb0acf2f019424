package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/mmeshcher/shortlink/internal/middleware"
	"github.com/mmeshcher/shortlink/internal/models"
	"github.com/mmeshcher/shortlink/internal/service"
)

const (
	msgNoRecords     = "no register found in db"
	msgAlreadyExists = "url already in db"
	msgInternal      = "internal server error"
)

const maxBodyBytes = 1 << 20

var errUnsupportedContentType = errors.New("content type must be application/json")

// errorStatus maps a service error to its HTTP status and client-facing detail.
func errorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, service.ErrInvalidCode):
		return http.StatusBadRequest, service.ErrInvalidCode.Error()
	case errors.Is(err, service.ErrEmptyBatch):
		return http.StatusBadRequest, service.ErrEmptyBatch.Error()
	case errors.Is(err, service.ErrInvalidURL):
		return http.StatusUnprocessableEntity, err.Error()
	case errors.Is(err, service.ErrNotFound):
		return http.StatusNotFound, service.ErrNotFound.Error()
	case errors.Is(err, service.ErrURLTaken):
		return http.StatusConflict, msgAlreadyExists
	case errors.Is(err, service.ErrConflict):
		return http.StatusConflict, service.ErrConflict.Error()
	default:
		return http.StatusInternalServerError, msgInternal
	}
}

func (h *Handler) handleError(rw http.ResponseWriter, r *http.Request, err error) {
	status, detail := errorStatus(err)
	if status == http.StatusInternalServerError {
		h.logger.Error("Request failed",
			zap.String("request_id", middleware.RequestID(r.Context())),
			zap.Error(err))
	}
	h.writeJSON(rw, status, models.ErrorResponse{Detail: detail})
}

// handleRecordsError is handleError for list and mutation routes, which report a
// missing record as msgNoRecords.
func (h *Handler) handleRecordsError(rw http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, service.ErrNotFound) {
		h.writeJSON(rw, http.StatusNotFound, models.ErrorResponse{Detail: msgNoRecords})
		return
	}
	h.handleError(rw, r, err)
}

func (h *Handler) writeJSON(rw http.ResponseWriter, status int, v any) {
	rw.Header().Set("Content-Type", "application/json")
	rw.WriteHeader(status)

	if err := json.NewEncoder(rw).Encode(v); err != nil {
		h.logger.Error("Failed to encode response", zap.Error(err))
	}
}

func (h *Handler) writeRecord(rw http.ResponseWriter, record models.URLRecord) {
	h.writeJSON(rw, http.StatusOK, models.Envelope[models.URLResponse]{
		Data:   h.toResponse(record),
		Status: models.StatusSuccess,
	})
}

func (h *Handler) toResponse(record models.URLRecord) models.URLResponse {
	return models.URLResponse{
		Code:     record.Code,
		ShortURL: h.service.ShortURL(record.Code),
		URL:      record.URL,
		Active:   record.Active,
	}
}

func decodeJSONBody(rw http.ResponseWriter, r *http.Request, dst any) error {
	if ct := r.Header.Get("Content-Type"); ct != "" && !strings.Contains(ct, "application/json") {
		return errUnsupportedContentType
	}

	r.Body = http.MaxBytesReader(rw, r.Body, maxBodyBytes)
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()

	if err := decoder.Decode(dst); err != nil {
		return fmt.Errorf("malformed request body: %w", err)
	}
	if decoder.More() {
		return errors.New("malformed request body: multiple JSON values")
	}
	return nil
}

func (h *Handler) badRequest(rw http.ResponseWriter, err error) {
	h.writeJSON(rw, http.StatusBadRequest, models.ErrorResponse{Detail: err.Error()})
}

func stringPtr(s string) *string {
	return &s
}
