package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"rahhal_engine/internal/adapters/embedding"
	server "rahhal_engine/internal/adapters/http_server"
	"rahhal_engine/internal/adapters/observability"
	redisad "rahhal_engine/internal/adapters/redis"
	"rahhal_engine/internal/app"
	"rahhal_engine/internal/shared"
	"rahhal_engine/internal/storage/postgres"
)

func main() {
	cfg := shared.Load()

	// set global logger (console in dev, JSON otherwise)
	log.Logger = observability.NewLogger(cfg.AppEnv)

	observability.Serve()

	ctx := context.Background()

	// db pool
	pool, err := postgres.Open(ctx, postgres.Config{
		DSN:      cfg.PostgresDSN,
		MinConns: cfg.PoolMin,
		MaxConns: cfg.PoolMax,
	}, nil)
	if err != nil {
		log.Fatal().Err(err).Msg("postgres pool init failed")
	}
	log.Info().Msg("database pool ready")

	// deps
	repo := postgres.NewRepo(pool)
	cache := redisad.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
	embedder := embedding.NewCached(
		embedding.New(cfg.EmbeddingURL, cfg.EmbedTimeout, cfg.EmbedRPS),
		cache, cfg.CacheTTL,
	)
	svc := app.NewSuggestionService(repo, embedder, cfg.RetrievalLimit, cfg.MatchThreshold)

	// http
	srv := server.New()
	reg := observability.InitRegistry()
	srv.Mount("/metrics", observability.MetricsHandler(reg))
	srv.MountHandlers(&server.Handlers{S: svc})

	httpSrv := &http.Server{Addr: cfg.HTTPAddr, Handler: srv.Mux()}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", cfg.HTTPAddr).Msg("API listening")
		errCh <- httpSrv.ListenAndServe()
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-stop:
		log.Info().Str("signal", sig.String()).Msg("shutting down")
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("http server failed")
		}
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("http shutdown failed")
	}
	pool.Close(shutdownCtx)
	if err := cache.Close(); err != nil {
		log.Error().Err(err).Msg("redis close failed")
	}
}
