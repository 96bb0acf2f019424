package handler

import (
	"go.uber.org/zap"

	"github.com/mmeshcher/shortlink/internal/service"
)

type Handler struct {
	service *service.ShortenerService
	logger  *zap.Logger
}

func NewHandler(service *service.ShortenerService, logger *zap.Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger.With(zap.String("component", "http")),
	}
}
