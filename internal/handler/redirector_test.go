package handler

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmeshcher/shortlink/internal/models"
	"github.com/mmeshcher/shortlink/internal/service"
)

func TestRedirectHandler(t *testing.T) {
	type want struct {
		statusCode int
		location   string
		detail     string
	}

	tests := []struct {
		name  string
		code  string
		setup func(t *testing.T, svc *service.ShortenerService)
		want  want
	}{
		{
			name: "positive test",
			code: "AAAAAAAB",
			want: want{statusCode: http.StatusFound, location: "https://practicum.yandex.ru/"},
		},
		{
			name: "second record",
			code: "AAAAAAAC",
			want: want{statusCode: http.StatusFound, location: "https://go.dev/"},
		},
		{
			name: "negative: unknown code",
			code: "ZZZZZZZZ",
			want: want{statusCode: http.StatusNotFound, detail: "url not found"},
		},
		{
			name: "negative: malformed code",
			code: "invalid",
			want: want{statusCode: http.StatusBadRequest, detail: "invalid short url"},
		},
		{
			name: "negative: deactivated record",
			code: "AAAAAAAB",
			setup: func(t *testing.T, svc *service.ShortenerService) {
				_, err := svc.Fetch(context.Background(), "AAAAAAAB")
				require.NoError(t, err)
				_, err = svc.Update(context.Background(), "AAAAAAAB", models.URLPatch{Active: models.Some(false)})
				require.NoError(t, err)
			},
			want: want{statusCode: http.StatusNotFound, detail: "url not found"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router, svc := newTestRouter(t)
			for _, u := range []string{"https://practicum.yandex.ru/", "https://go.dev/"} {
				_, err := svc.Create(context.Background(), u)
				require.NoError(t, err)
			}
			if tt.setup != nil {
				tt.setup(t, svc)
			}

			result, body := doRequest(t, router, http.MethodGet, "/"+tt.code, "", "")

			assert.Equal(t, tt.want.statusCode, result.StatusCode)
			if tt.want.location != "" {
				assert.Equal(t, tt.want.location, result.Header.Get("Location"))
			}
			if tt.want.detail != "" {
				assert.Equal(t, tt.want.detail, decodeBody[models.ErrorResponse](t, body).Detail)
			}
		})
	}
}
