package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"scribemarket/api/internal/cache"
	"scribemarket/api/internal/config"
	"scribemarket/api/internal/database"
	"scribemarket/api/internal/handlers"
	"scribemarket/api/internal/jobs"
	"scribemarket/api/internal/log"
	"scribemarket/api/internal/provider"
	"scribemarket/api/internal/repository"
	"scribemarket/api/internal/server"
	"scribemarket/api/internal/service"
	"scribemarket/api/internal/session"
	"scribemarket/api/internal/storage"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger := log.New(cfg.Environment)

	ctx := context.Background()

	redisClient, err := cache.NewRedisClient(ctx, cfg.Redis)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect redis")
	}

	// Local mode stores identities in this deployment's own Postgres. Remote
	// mode delegates to a hosted provider, so no database is opened.
	var (
		dbPool   *pgxpool.Pool
		accounts *repository.AccountRepository
		sessions *repository.AuthSessionRepository
	)
	if cfg.Provider.Mode == config.ProviderModeLocal {
		dbPool, err = database.NewPostgresPool(ctx, cfg.Postgres)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to connect postgres")
		}
		accounts = repository.NewAccountRepository(dbPool)
		sessions = repository.NewAuthSessionRepository(dbPool)
	}

	// Each namespace owns its provider client so admin and user state change
	// streams stay independent.
	adminClient := newProviderClient(cfg, accounts, sessions, redisClient, logger)
	userClient := newProviderClient(cfg, accounts, sessions, redisClient, logger)

	tokens := session.NewRedisTokenStore(redisClient)
	notifier := session.LogNotifier{Log: logger}

	adminStore := session.NewStore(session.AdminConfig(), adminClient, tokens, notifier, logger)
	userStore := session.NewStore(session.UserConfig(), userClient, tokens, notifier, logger)
	adminStore.Start(ctx)
	userStore.Start(ctx)

	var avatars *storage.AvatarStore
	if cfg.Storage.Endpoint != "" {
		avatars, err = storage.NewAvatarStore(cfg.Storage)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to init avatar store")
		}
		if err := avatars.EnsureBucket(ctx); err != nil {
			logger.Warn().Err(err).Msg("ensure avatar bucket failed")
		}
	}

	handlerSet := handlers.NewHandlerSet(logger, cfg, adminStore, userStore, accounts, avatars, dbPool, redisClient)
	httpServer := server.NewHTTPServer(cfg, logger, handlerSet)

	scheduler := jobs.NewScheduler(redisClient, sessions, cfg.Presence.OfflineThreshold, logger)
	if err := scheduler.Start(); err != nil {
		logger.Error().Err(err).Msg("scheduler start failed")
	}

	go func() {
		if err := httpServer.Start(); err != nil {
			logger.Fatal().Err(err).Msg("http server failed")
		}
	}()

	waitForShutdown(logger, httpServer, scheduler, handlerSet, adminStore, userStore, dbPool, redisClient)
}

func newProviderClient(
	cfg *config.AppConfig,
	accounts *repository.AccountRepository,
	sessions *repository.AuthSessionRepository,
	redisClient *redis.Client,
	logger zerolog.Logger,
) provider.Client {
	if cfg.Provider.Mode == config.ProviderModeRemote {
		return provider.NewREST(cfg.Provider.URL, cfg.Provider.APIKey, logger)
	}
	return service.NewAuthService(accounts, sessions, redisClient, cfg, logger)
}

func waitForShutdown(
	logger zerolog.Logger,
	srv *server.HTTPServer,
	scheduler *jobs.Scheduler,
	handlerSet *handlers.HandlerSet,
	adminStore, userStore *session.Store,
	db *pgxpool.Pool,
	redisClient *redis.Client,
) {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()
	logger.Info().Msg("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown failed")
		if err := srv.Shutdown(context.Background()); err != nil {
			logger.Error().Err(err).Msg("forced shutdown failed")
		}
	}

	if scheduler != nil {
		cancel := scheduler.Stop()
		cancel()
	}

	handlerSet.Shutdown()
	adminStore.Close()
	userStore.Close()

	if db != nil {
		db.Close()
	}
	if err := redisClient.Close(); err != nil {
		logger.Error().Err(err).Msg("redis close error")
	}

	logger.Info().Msg("server exited cleanly")
}
