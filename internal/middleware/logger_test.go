package middleware

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSlogFormatterWritesStructuredAccessLine(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RequestLogger(NewSlogFormatter(logger)))
	r.Post("/chat", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte("oops"))
	})

	req := httptest.NewRequest(http.MethodPost, "/chat", nil)
	req.Header.Set(middleware.RequestIDHeader, "req-42")
	r.ServeHTTP(httptest.NewRecorder(), req)

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "request completed", line["msg"])
	assert.Equal(t, "ERROR", line["level"])
	assert.Equal(t, "POST", line["method"])
	assert.Equal(t, "/chat", line["path"])
	assert.Equal(t, "req-42", line["request_id"])
	assert.EqualValues(t, 500, line["status"])
	assert.EqualValues(t, 4, line["bytes"])
	assert.Contains(t, line, "duration")
}

func TestSlogFormatterLevels(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))
	entry := NewSlogFormatter(logger).NewLogEntry(httptest.NewRequest(http.MethodGet, "/healthz", nil))

	entry.Write(http.StatusOK, 2, nil, 0, nil)

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "INFO", line["level"])
	assert.NotContains(t, line, "request_id")
}
