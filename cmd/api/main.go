package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/mindease/backend/internal/config"
	"github.com/mindease/backend/internal/handler"
	"github.com/mindease/backend/internal/logging"
	"github.com/mindease/backend/internal/service/ai"
	"github.com/mindease/backend/internal/service/classifier"
	"github.com/mindease/backend/internal/service/journal"
	"github.com/mindease/backend/internal/service/mood"
	"github.com/mindease/backend/internal/service/relay"
	"github.com/mindease/backend/internal/store/kv"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	envErr := godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}

	logger := logging.New(cfg.Log)
	if envErr != nil {
		logger.Info("no .env file loaded, using system environment only", slog.Any("error", envErr))
	}

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("server stopped with error", slog.Any("error", err))
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	chatModel, err := cfg.Completion.NewChatModel(ctx)
	if err != nil {
		return err
	}
	completion, err := ai.NewService(ctx, chatModel)
	if err != nil {
		return err
	}
	logger.Info("completion model ready",
		slog.String("provider", cfg.Completion.Provider),
		slog.String("model", cfg.Completion.Model),
	)

	cls, err := classifier.New(ctx, cfg.Classifier, chatModel)
	if err != nil {
		return err
	}
	logger.Info("classifier ready", slog.String("provider", cfg.Classifier.Provider))

	store, err := kv.Open(ctx, cfg.Store)
	if err != nil {
		return err
	}
	defer store.Close()
	logger.Info("mood store ready", slog.String("driver", cfg.Store.Driver))

	loc, err := cfg.Store.Location()
	if err != nil {
		return err
	}

	router := handler.NewRouter(cfg.Server, handler.Services{
		Relay:      relay.NewService(cls, completion, cfg.Safety.Policy()),
		Completion: completion,
		Moods:      mood.NewService(store, loc),
		Journal:    journal.NewService(loc),
	})

	return startServer(ctx, cfg.Server, router, logger)
}

func startServer(ctx context.Context, serverCfg config.ServerConfig, router http.Handler, logger *slog.Logger) error {
	addr, err := serverCfg.Addr()
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	logger.Info("MindEase backend listening", slog.String("addr", addr))
	return runServer(ctx, srv)
}

func runServer(ctx context.Context, srv *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		err := <-errCh
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
