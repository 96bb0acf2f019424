package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

func (h *Handler) RedirectHandler(rw http.ResponseWriter, r *http.Request) {
	record, err := h.service.Fetch(r.Context(), chi.URLParam(r, "code"))
	if err != nil {
		h.handleError(rw, r, err)
		return
	}

	rw.Header().Set("Location", record.URL)
	rw.WriteHeader(http.StatusFound)
}
