package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/tempoair/airservice/internal/api/middleware"
)

func TestRequestID_GeneratesNewID(t *testing.T) {
	var fromCtx string
	handler := middleware.RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fromCtx = middleware.GetRequestID(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", http.NoBody))

	assert.True(t, strings.HasPrefix(fromCtx, "req_"))
	assert.Equal(t, fromCtx, rec.Header().Get("X-Request-Id"))
}

func TestRequestID_ClientSuppliedID(t *testing.T) {
	tests := []struct {
		name   string
		header string
		kept   bool
	}{
		{"well formed", "client-abc_123.x", true},
		{"spaces", "has space", false},
		{"header injection", "abc\r\nX-Evil: 1", false},
		{"too long", strings.Repeat("a", 65), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := middleware.RequestID(okHandler())
			req := httptest.NewRequest(http.MethodGet, "/health", http.NoBody)
			req.Header["X-Request-Id"] = []string{tt.header}
			rec := httptest.NewRecorder()

			handler.ServeHTTP(rec, req)

			got := rec.Header().Get("X-Request-Id")
			if tt.kept {
				assert.Equal(t, tt.header, got)
			} else {
				assert.True(t, strings.HasPrefix(got, "req_"), got)
			}
		})
	}
}

func TestGetRequestID_Missing(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", http.NoBody)
	assert.Empty(t, middleware.GetRequestID(req.Context()))
}

func TestRequestID_UniqueIDs(t *testing.T) {
	handler := middleware.RequestID(okHandler())
	ids := make(map[string]bool)

	for i := 0; i < 100; i++ {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", http.NoBody))

		id := rec.Header().Get("X-Request-Id")
		assert.False(t, ids[id], "duplicate request ID generated: %s", id)
		ids[id] = true
	}
}
