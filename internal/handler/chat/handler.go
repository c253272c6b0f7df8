package chat

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/mindease/backend/internal/model/chat"
	"github.com/mindease/backend/pkg/utils"
)

// Relay answers one chat request.
type Relay interface {
	Reply(ctx context.Context, req chat.Request) (chat.Reply, error)
}

// Handler serves the request/response chat endpoint.
type Handler struct {
	relay Relay
}

func New(relay Relay) *Handler {
	return &Handler{relay: relay}
}

// RegisterRoutes mounts POST /chat.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/chat", h.handleChat)
}

func (h *Handler) handleChat(w http.ResponseWriter, r *http.Request) {
	var req chat.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.WarnContext(r.Context(), "invalid chat request body", slog.Any("error", err))
		utils.RespondJSON(w, http.StatusInternalServerError, chat.Reply{Reply: chat.FailureReply})
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		slog.WarnContext(r.Context(), "blank chat message")
		utils.RespondJSON(w, http.StatusInternalServerError, chat.Reply{Reply: chat.FailureReply})
		return
	}

	reply, err := h.relay.Reply(r.Context(), req)
	if err != nil {
		slog.ErrorContext(r.Context(), "chat relay failed", slog.Any("error", err))
		utils.RespondJSON(w, http.StatusInternalServerError, chat.Reply{Reply: chat.FailureReply})
		return
	}

	utils.RespondJSON(w, http.StatusOK, reply)
}
