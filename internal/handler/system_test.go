package handler

import (
	"bytes"
	"compress/gzip"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSystemEndpoints(t *testing.T) {
	type want struct {
		statusCode   int
		contentType  string
		bodyContains string
	}

	tests := []struct {
		name string
		path string
		want want
	}{
		{
			name: "health",
			path: "/system/health",
			want: want{statusCode: http.StatusOK, contentType: "application/json", bodyContains: "true"},
		},
		{
			name: "ping",
			path: "/ping",
			want: want{statusCode: http.StatusOK},
		},
		{
			name: "landing page",
			path: "/",
			want: want{statusCode: http.StatusOK, contentType: "text/html; charset=utf-8", bodyContains: "/api/v1/urls/"},
		},
		{
			name: "metrics",
			path: "/metrics",
			want: want{statusCode: http.StatusOK, bodyContains: "http_requests_total"},
		},
	}

	router, _ := newTestRouter(t)
	doRequest(t, router, http.MethodGet, "/system/health", "", "")

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, body := doRequest(t, router, http.MethodGet, tt.path, "", "")

			assert.Equal(t, tt.want.statusCode, result.StatusCode)
			if tt.want.contentType != "" {
				assert.Equal(t, tt.want.contentType, result.Header.Get("Content-Type"))
			}
			assert.Contains(t, body, tt.want.bodyContains)
		})
	}
}

func TestJSONResponsesAreGzipped(t *testing.T) {
	router, _ := newTestRouter(t)

	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	_, err := gz.Write([]byte(`{"url":"https://foo.com/"}`))
	require.NoError(t, err)
	require.NoError(t, gz.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/urls/", &buf)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Content-Encoding", "gzip")
	req.Header.Set("Accept-Encoding", "gzip")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	result := w.Result()
	defer result.Body.Close()

	require.Equal(t, http.StatusOK, result.StatusCode)
	require.Equal(t, "gzip", result.Header.Get("Content-Encoding"))

	gzReader, err := gzip.NewReader(result.Body)
	require.NoError(t, err)
	defer gzReader.Close()

	body, err := io.ReadAll(gzReader)
	require.NoError(t, err)
	assert.Contains(t, string(body), `"code":"AAAAAAAB"`)
}
