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

	"orgsite-client/internal/config"
	"orgsite-client/internal/domain"
	"orgsite-client/internal/handler"
	"orgsite-client/internal/middleware"
	"orgsite-client/internal/observability"
	"orgsite-client/internal/repository/memory"
)

func main() {
	cfg, err := config.Load()
	if err == nil {
		err = cfg.ValidateMockBackend()
	}
	if err != nil {
		slog.Error("invalid configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// The client defaults to quiet text logs; a server wants json at info.
	logLevel := os.Getenv("LOG_LEVEL")
	if logLevel == "" {
		logLevel = "info"
	}
	logFormat := os.Getenv("LOG_FORMAT")
	if logFormat == "" {
		logFormat = "json"
	}
	observability.InitLogger(logLevel, logFormat)

	slog.Info("starting mock backend", slog.String("environment", cfg.Environment))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store := memory.NewStore(0)
	if err := store.EnsureAdmin(ctx, cfg.MockAdminEmail, cfg.MockAdminPassword); err != nil {
		slog.Error("failed to create admin account", slog.String("error", err.Error()))
		os.Exit(1)
	}
	slog.Info("admin account ready", slog.String("email", cfg.MockAdminEmail))

	if cfg.IsDevelopment() {
		seed(ctx, store)
	}

	routerCfg := handler.DefaultRouterConfig()
	routerCfg.AllowedOrigins = middleware.ParseOrigins(cfg.AllowedOrigins)
	router, err := handler.NewRouter(ctx, store, routerCfg)
	if err != nil {
		slog.Error("failed to build router", slog.String("error", err.Error()))
		os.Exit(1)
	}

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		slog.Info("mock backend listening", slog.String("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server error", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	slog.Info("shutting down server")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server shutdown error", slog.String("error", err.Error()))
	}
	cancel()

	slog.Info("server stopped gracefully")
}

// seed gives a development backend something to show.
func seed(ctx context.Context, store *memory.Store) {
	fixtures := map[domain.ResourceKind][]domain.Record{
		domain.Programs: {
			{"name": "Youth Leadership", "description": "Twelve week leadership course", "duration": "12 weeks"},
			{"name": "Digital Skills", "description": "Introductory coding for adults", "duration": "8 weeks"},
		},
		domain.Services: {
			{"name": "Career Coaching", "description": "One to one coaching session", "price": 40},
			{"name": "CV Review", "description": "Written feedback on your CV", "price": 15},
		},
		domain.Events: {
			{"title": "Open Day", "date": "2025-09-13", "location": "Main hall"},
		},
		domain.Blog: {
			{"title": "Welcome to the new site", "content": "We have moved our programs online.", "author": "Admin"},
		},
	}

	for kind, records := range fixtures {
		coll, err := store.Collection(kind)
		if err != nil {
			slog.Warn("skipping seed", slog.String("resource", string(kind)), slog.String("error", err.Error()))
			continue
		}
		for _, rec := range records {
			coll.Create(ctx, rec)
		}
	}
	slog.Info("seeded development data", slog.Any("collections", store.Counts()))
}
