package handler

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestShortenHandler(t *testing.T) {
	type want struct {
		statusCode  int
		contentType string
		body        string
	}

	tests := []struct {
		name    string
		method  string
		request string
		body    string
		want    want
	}{
		{
			name:    "positive test",
			method:  http.MethodPost,
			request: "/",
			body:    "https://practicum.yandex.ru/",
			want: want{
				statusCode:  http.StatusCreated,
				contentType: "text/plain",
				body:        "http://localhost:8080/AAAAAAAB",
			},
		},
		{
			name:    "negative: empty body",
			method:  http.MethodPost,
			request: "/",
			body:    "",
			want: want{
				statusCode:  http.StatusBadRequest,
				contentType: "text/plain; charset=utf-8",
				body:        "Empty body\n",
			},
		},
		{
			name:    "negative: not a url",
			method:  http.MethodPost,
			request: "/",
			body:    "practicum",
			want: want{
				statusCode:  http.StatusUnprocessableEntity,
				contentType: "text/plain; charset=utf-8",
			},
		},
		{
			name:    "negative: wrong method",
			method:  http.MethodPut,
			request: "/",
			body:    "https://practicum.yandex.ru/",
			want: want{
				statusCode:  http.StatusMethodNotAllowed,
				contentType: "application/json",
				body:        "{\"detail\":\"Method Not Allowed\"}\n",
			},
		},
		{
			name:    "negative: wrong path",
			method:  http.MethodGet,
			request: "/api/v2/urls/",
			want: want{
				statusCode:  http.StatusNotFound,
				contentType: "application/json",
				body:        "{\"detail\":\"Not Found\"}\n",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router, _ := newTestRouter(t)

			result, body := doRequest(t, router, tt.method, tt.request, "text/plain", tt.body)

			assert.Equal(t, tt.want.statusCode, result.StatusCode)
			assert.Equal(t, tt.want.contentType, result.Header.Get("Content-Type"))
			if tt.want.body != "" {
				assert.Equal(t, tt.want.body, body)
			}
		})
	}
}

func TestShortenHandlerDuplicate(t *testing.T) {
	router, _ := newTestRouter(t)

	first, firstBody := doRequest(t, router, http.MethodPost, "/", "text/plain", "https://practicum.yandex.ru")
	assert.Equal(t, http.StatusCreated, first.StatusCode)

	second, secondBody := doRequest(t, router, http.MethodPost, "/", "text/plain", "https://practicum.yandex.ru/")
	assert.Equal(t, http.StatusOK, second.StatusCode)
	assert.Equal(t, firstBody, secondBody)
}
