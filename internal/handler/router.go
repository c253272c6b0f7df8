package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/mindease/backend/internal/config"
	"github.com/mindease/backend/internal/handler/chat"
	"github.com/mindease/backend/internal/handler/mood"
	"github.com/mindease/backend/internal/handler/stream"
	"github.com/mindease/backend/internal/handler/ws"
	middlewarePkg "github.com/mindease/backend/internal/middleware"
	chatModel "github.com/mindease/backend/internal/model/chat"
	aiService "github.com/mindease/backend/internal/service/ai"
	journalService "github.com/mindease/backend/internal/service/journal"
	moodService "github.com/mindease/backend/internal/service/mood"
	relayService "github.com/mindease/backend/internal/service/relay"
)

// Services groups what the router dispatches to.
type Services struct {
	Relay      *relayService.Service
	Completion *aiService.Service
	Moods      *moodService.Service
	Journal    *journalService.Service
}

// NewRouter wires HTTP routes to core services.
func NewRouter(cfg config.ServerConfig, svc Services) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.RequestLogger(middlewarePkg.NewSlogFormatter(slog.Default())))
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Requested-With"},
		MaxAge:         300,
	}))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	r.Group(func(chatRoutes chi.Router) {
		if cfg.RateLimit.Enabled() {
			limiter := middlewarePkg.NewRateLimiter(cfg.RateLimit.RPS, cfg.RateLimit.Burst, chatModel.Reply{Reply: chatModel.FailureReply})
			chatRoutes.Use(limiter.Handler)
		}

		chat.New(svc.Relay).RegisterRoutes(chatRoutes)
		stream.New(svc.Relay, svc.Completion).RegisterRoutes(chatRoutes)
		ws.New(svc.Relay).RegisterRoutes(chatRoutes)
	})

	r.Route("/api", func(api chi.Router) {
		mood.New(svc.Moods, svc.Journal).RegisterRoutes(api)
	})

	return r
}
