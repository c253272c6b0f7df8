package ws

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/mindease/backend/internal/model/chat"
)

const (
	readTimeout  = 60 * time.Second
	pingInterval = 54 * time.Second
	writeTimeout = 10 * time.Second
	maxFrameSize = 64 * 1024
)

// Relay answers one chat request.
type Relay interface {
	Reply(ctx context.Context, req chat.Request) (chat.Reply, error)
}

// Handler relays chat frames over a WebSocket. Each text frame carrying
// {message, history} is answered with exactly one {reply, emotion?} frame.
type Handler struct {
	relay    Relay
	upgrader websocket.Upgrader
}

func New(relay Relay) *Handler {
	return &Handler{
		relay: relay,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
}

// RegisterRoutes mounts GET /chat/ws.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/chat/ws", h.handleWebSocket)
}

func (h *Handler) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.WarnContext(r.Context(), "websocket upgrade failed", slog.Any("error", err))
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	conn.SetReadLimit(maxFrameSize)
	conn.SetReadDeadline(time.Now().Add(readTimeout))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(readTimeout))
		return nil
	})

	go pingLoop(ctx, conn)

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				slog.WarnContext(ctx, "websocket read error", slog.Any("error", err))
			}
			return
		}
		conn.SetReadDeadline(time.Now().Add(readTimeout))

		reply := h.answer(ctx, data)
		conn.SetWriteDeadline(time.Now().Add(writeTimeout))
		if err := conn.WriteJSON(reply); err != nil {
			slog.WarnContext(ctx, "websocket write failed", slog.Any("error", err))
			return
		}
	}
}

func (h *Handler) answer(ctx context.Context, data []byte) chat.Reply {
	var req chat.Request
	if err := json.Unmarshal(data, &req); err != nil || strings.TrimSpace(req.Message) == "" {
		return chat.Reply{Reply: chat.FailureReply}
	}

	reply, err := h.relay.Reply(ctx, req)
	if err != nil {
		slog.ErrorContext(ctx, "websocket relay failed", slog.Any("error", err))
		return chat.Reply{Reply: chat.FailureReply}
	}
	return reply
}

// pingLoop uses WriteControl, which gorilla allows concurrently with the
// reader loop's WriteJSON.
func pingLoop(ctx context.Context, conn *websocket.Conn) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeTimeout)); err != nil {
				return
			}
		}
	}
}
