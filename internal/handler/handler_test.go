package handler

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mmeshcher/shortlink/internal/cache"
	"github.com/mmeshcher/shortlink/internal/repository"
	"github.com/mmeshcher/shortlink/internal/service"
)

func newTestRouter(t *testing.T) (*chi.Mux, *service.ShortenerService) {
	t.Helper()

	logger := zap.NewNop()
	store, err := repository.NewMemoryRepository("", logger)
	require.NoError(t, err)

	svc := service.NewShortenerService(store, cache.NewMemory(100, time.Hour), logger,
		service.WithBaseURL("http://localhost:8080"))

	return NewHandler(svc, logger).SetupRouter(), svc
}

func doRequest(t *testing.T, router http.Handler, method, path, contentType, body string) (*http.Response, string) {
	t.Helper()

	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	result := w.Result()
	t.Cleanup(func() { result.Body.Close() })

	data, err := io.ReadAll(result.Body)
	require.NoError(t, err)

	return result, string(data)
}

func decodeBody[T any](t *testing.T, body string) T {
	t.Helper()

	var v T
	require.NoError(t, json.Unmarshal([]byte(body), &v), "body: %s", body)
	return v
}
