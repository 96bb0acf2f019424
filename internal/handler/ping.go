package handler

import (
	"net/http"

	"go.uber.org/zap"
)

func (h *Handler) PingHandler(rw http.ResponseWriter, r *http.Request) {
	if err := h.service.Ping(r.Context()); err != nil {
		h.logger.Error("Store ping failed", zap.Error(err))
		http.Error(rw, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	rw.WriteHeader(http.StatusOK)
}

// HealthHandler reports that the process is up. It does not touch the store.
func (h *Handler) HealthHandler(rw http.ResponseWriter, r *http.Request) {
	h.writeJSON(rw, http.StatusOK, true)
}
