package stream

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/cloudwego/eino/schema"
	"github.com/go-chi/chi/v5"

	"github.com/mindease/backend/internal/model/chat"
	"github.com/mindease/backend/internal/service/relay"
	"github.com/mindease/backend/pkg/utils"
)

// Assessor classifies a message and applies the safety policy.
type Assessor interface {
	Assess(ctx context.Context, message string) (relay.Assessment, error)
}

// Streamer produces the assistant reply incrementally.
type Streamer interface {
	Stream(ctx context.Context, history []chat.Entry, message string) (*schema.StreamReader[*schema.Message], error)
}

// Handler relays chat over Server-Sent Events.
type Handler struct {
	assessor Assessor
	streamer Streamer
}

func New(assessor Assessor, streamer Streamer) *Handler {
	return &Handler{assessor: assessor, streamer: streamer}
}

// StreamResponse is the data payload of every event.
type StreamResponse struct {
	Content  string  `json:"content,omitempty"`
	Emotion  string  `json:"emotion,omitempty"`
	Score    float64 `json:"score,omitempty"`
	Crisis   bool    `json:"crisis,omitempty"`
	Finished bool    `json:"finished,omitempty"`
	Error    string  `json:"error,omitempty"`
}

// RegisterRoutes mounts POST /chat/stream.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/chat/stream", h.handleStream)
}

func (h *Handler) handleStream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		slog.ErrorContext(r.Context(), "streaming unsupported by response writer")
		utils.RespondJSON(w, http.StatusInternalServerError, chat.Reply{Reply: chat.FailureReply})
		return
	}

	var req chat.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || strings.TrimSpace(req.Message) == "" {
		slog.WarnContext(r.Context(), "invalid chat stream request", slog.Any("error", err))
		utils.RespondJSON(w, http.StatusInternalServerError, chat.Reply{Reply: chat.FailureReply})
		return
	}

	utils.SetupSSEHeaders(w)
	w.WriteHeader(http.StatusOK)

	if err := h.HandleStreamRequest(r.Context(), w, flusher, req); err != nil {
		slog.ErrorContext(r.Context(), "chat stream failed", slog.Any("error", err))
		h.send(w, flusher, "error", StreamResponse{Error: chat.FailureReply})
	}
}

// HandleStreamRequest writes start, the reply and its emotion, then end. Any
// returned error means the stream stopped early and the caller still owes
// the client an error event.
func (h *Handler) HandleStreamRequest(ctx context.Context, w http.ResponseWriter, flusher http.Flusher, req chat.Request) error {
	assessment, err := h.assessor.Assess(ctx, req.Message)
	if err != nil {
		return err
	}

	h.send(w, flusher, "start", StreamResponse{})

	var content string
	if assessment.Crisis {
		content = assessment.Reply
	} else {
		content, err = h.streamCompletion(ctx, w, flusher, req)
		if err != nil {
			return err
		}
	}

	h.send(w, flusher, "message", StreamResponse{Content: content, Crisis: assessment.Crisis})
	h.send(w, flusher, "emotion", StreamResponse{Emotion: assessment.Emotion.Label, Score: assessment.Emotion.Score})
	h.send(w, flusher, "end", StreamResponse{Finished: true})
	return nil
}

func (h *Handler) streamCompletion(ctx context.Context, w http.ResponseWriter, flusher http.Flusher, req chat.Request) (string, error) {
	stream, err := h.streamer.Stream(ctx, req.History, req.Message)
	if err != nil {
		return "", err
	}
	defer stream.Close()

	chunks := make([]*schema.Message, 0, 16)
	for {
		chunk, recvErr := stream.Recv()
		if errors.Is(recvErr, io.EOF) {
			break
		}
		if recvErr != nil {
			return "", fmt.Errorf("receive completion chunk: %w", recvErr)
		}
		if chunk == nil {
			continue
		}

		chunks = append(chunks, chunk)
		if chunk.Content != "" {
			h.send(w, flusher, "delta", StreamResponse{Content: chunk.Content})
		}
	}

	if len(chunks) == 0 {
		return "", errors.New("completion stream was empty")
	}
	message, err := schema.ConcatMessages(chunks)
	if err != nil {
		return "", fmt.Errorf("concat completion chunks: %w", err)
	}
	if message.Content == "" {
		return "", errors.New("completion stream had no content")
	}
	return message.Content, nil
}

func (h *Handler) send(w http.ResponseWriter, flusher http.Flusher, event string, payload StreamResponse) {
	if err := utils.SendSSEEvent(w, flusher, event, payload); err != nil {
		slog.Debug("failed to send sse event", slog.String("event", event), slog.Any("error", err))
	}
}
