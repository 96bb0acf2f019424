package handler

import (
	"io"
	"net/http"
	"strings"

	"github.com/mmeshcher/shortlink/internal/service"
)

// ShortenHandler accepts a bare URL as a text/plain body and answers with the
// short URL as text.
func (h *Handler) ShortenHandler(rw http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	body, err := io.ReadAll(http.MaxBytesReader(rw, r.Body, maxBodyBytes))
	if err != nil || len(strings.TrimSpace(string(body))) == 0 {
		http.Error(rw, "Empty body", http.StatusBadRequest)
		return
	}

	result, err := h.service.Create(r.Context(), string(body))
	if err != nil {
		status, detail := errorStatus(err)
		if status == http.StatusInternalServerError {
			h.handleError(rw, r, err)
			return
		}
		http.Error(rw, detail, status)
		return
	}

	status := http.StatusCreated
	if result.Status == service.StatusExists {
		status = http.StatusOK
	}

	rw.Header().Set("Content-Type", "text/plain")
	rw.WriteHeader(status)
	rw.Write([]byte(h.service.ShortURL(result.Record.Code)))
}
