package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
)

// SlogFormatter routes chi's request logging through slog.
type SlogFormatter struct {
	logger *slog.Logger
}

func NewSlogFormatter(logger *slog.Logger) *SlogFormatter {
	if logger == nil {
		logger = slog.Default()
	}
	return &SlogFormatter{logger: logger}
}

// NewLogEntry implements middleware.LogFormatter.
func (f *SlogFormatter) NewLogEntry(r *http.Request) middleware.LogEntry {
	attrs := []any{
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path),
		slog.String("remote_addr", r.RemoteAddr),
	}
	if id := middleware.GetReqID(r.Context()); id != "" {
		attrs = append(attrs, slog.String("request_id", id))
	}
	return &slogEntry{logger: f.logger.With(attrs...)}
}

type slogEntry struct {
	logger *slog.Logger
}

func (e *slogEntry) Write(status, bytes int, _ http.Header, elapsed time.Duration, _ any) {
	level := slog.LevelInfo
	switch {
	case status >= http.StatusInternalServerError:
		level = slog.LevelError
	case status >= http.StatusBadRequest:
		level = slog.LevelWarn
	}
	e.logger.Log(context.Background(), level, "request completed",
		slog.Int("status", status),
		slog.Int("bytes", bytes),
		slog.Duration("duration", elapsed),
	)
}

func (e *slogEntry) Panic(v any, stack []byte) {
	e.logger.Error("request panicked",
		slog.Any("panic", v),
		slog.String("stack", string(stack)),
	)
}
