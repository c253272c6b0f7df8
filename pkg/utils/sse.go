package utils

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
)

// SetupSSEHeaders prepares a response for Server-Sent Events.
func SetupSSEHeaders(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
}

// SendSSEEvent writes one named event with a JSON data line and flushes it.
func SendSSEEvent(w http.ResponseWriter, flusher http.Flusher, event string, data any) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("marshal sse event %s: %w", event, err)
	}

	if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, payload); err != nil {
		slog.Debug("sse write failed", slog.String("event", event), slog.Any("error", err))
		return fmt.Errorf("write sse event %s: %w", event, err)
	}
	flusher.Flush()
	return nil
}
