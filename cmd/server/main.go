package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"github.com/actuallystonmai/mate-recommendation-service/internal/cache"
	"github.com/actuallystonmai/mate-recommendation-service/internal/config"
	"github.com/actuallystonmai/mate-recommendation-service/internal/handler"
	"github.com/actuallystonmai/mate-recommendation-service/internal/logging"
	"github.com/actuallystonmai/mate-recommendation-service/internal/repository"
	"github.com/actuallystonmai/mate-recommendation-service/internal/router"
	"github.com/actuallystonmai/mate-recommendation-service/internal/service"
	"github.com/actuallystonmai/mate-recommendation-service/internal/tracing"
	"github.com/actuallystonmai/mate-recommendation-service/seeds"
)

const shutdownTimeout = 15 * time.Second

func main() {
	// .env is optional
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		logging.Warn().Err(err).Msg("failed to read .env")
	}

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("failed to load config")
	}

	logging.Init(logging.Config{
		Level:  cfg.LogLevel,
		Format: cfg.LogFormat,
		Caller: !cfg.IsProduction(),
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ------------ Tracing ---------------
	tp, shutdownTracing, err := tracing.Init(tracing.Config{
		Enabled:     cfg.TracingEnabled,
		Endpoint:    cfg.TracingEndpoint,
		Environment: cfg.Environment,
	})
	if err != nil {
		logging.Fatal().Err(err).Msg("failed to init tracing")
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := shutdownTracing(sctx); err != nil {
			logging.Warn().Err(err).Msg("tracing shutdown")
		}
	}()

	// ------------ PostgreSQL ---------------
	poolConfig, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		logging.Fatal().Err(err).Msg("failed to parse database config")
	}
	poolConfig.MaxConns = int32(cfg.DBPoolSize)
	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		logging.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer pool.Close()

	if err := waitForDB(ctx, pool); err != nil {
		logging.Fatal().Err(err).Msg("database not ready")
	}
	logging.Info().Msg("connected to PostgreSQL")

	// ------------ Run Migrations ---------------
	// for migrate-down using CLI command
	if len(os.Args) > 1 && os.Args[1] == "migrate-down" {
		if err := migrate(ctx, pool, "migrations/create_tables.down.sql"); err != nil {
			logging.Fatal().Err(err).Msg("failed to migrate down")
		}
		logging.Info().Msg("migrations dropped")
		return
	}

	if err := migrate(ctx, pool, "migrations/create_tables.up.sql"); err != nil {
		logging.Fatal().Err(err).Msg("failed to migrate up")
	}
	logging.Info().Msg("migrations applied")

	// ------------ Setup Seed Data ---------------
	seeded, err := checkSeed(ctx, pool)
	if err != nil {
		logging.Fatal().Err(err).Msg("failed to check seed")
	}

	// ------------ Redis ---------------
	checks := map[string]handler.Pinger{"postgres": pool}
	opts := []service.Option{service.WithTracerProvider(tp)}
	if cfg.CacheEnabled {
		redisOpts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			logging.Fatal().Err(err).Msg("failed to parse redis url")
		}
		client := redis.NewClient(redisOpts)
		defer client.Close()

		themeCache := cache.NewCache(client, cfg.CacheTTL)
		if err := themeCache.Ping(ctx); err != nil {
			logging.Warn().Err(err).Msg("redis unreachable, serving uncached until it recovers")
		}
		if seeded {
			if err := themeCache.Clear(ctx); err != nil {
				logging.Warn().Err(err).Msg("failed to clear cache after seeding")
			}
		}
		checks["redis"] = themeCache
		opts = append(opts, service.WithCache(themeCache))
	}

	// ---------------- Server --------------------
	svc := service.NewService(repository.New(pool), opts...)
	h := handler.NewHandler(svc, checks)

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           router.Setup(h, router.Options{AllowedOrigins: cfg.AllowedOrigins, RequestTimeout: cfg.RequestTimeout}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logging.Info().Str("addr", srv.Addr).Msg("server running")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.Fatal().Err(err).Msg("server failed")
		}
	}()

	<-ctx.Done()
	logging.Info().Msg("shutting down")

	sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(sctx); err != nil {
		logging.Error().Err(err).Msg("graceful shutdown failed")
	}
}

func waitForDB(ctx context.Context, pool *pgxpool.Pool) error {
	for i := 0; i < 30; i++ {
		if err := pool.Ping(ctx); err == nil {
			return nil
		}
		logging.Info().Int("attempt", i+1).Msg("waiting for database")
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(1 * time.Second):
		}
	}
	return fmt.Errorf("database connection timeout after 30s")
}

func migrate(ctx context.Context, pool *pgxpool.Pool, path string) error {
	sql, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read migration file: %w", err)
	}
	if _, err := pool.Exec(ctx, string(sql)); err != nil {
		return fmt.Errorf("execute migration %s: %w", path, err)
	}
	return nil
}

// checkSeed seeds an empty database and reports whether it did.
func checkSeed(ctx context.Context, pool *pgxpool.Pool) (bool, error) {
	var count int
	if err := pool.QueryRow(ctx, "SELECT COUNT(*) FROM games").Scan(&count); err != nil {
		return false, fmt.Errorf("check games count: %w", err)
	}
	if count > 0 {
		logging.Info().Int("games", count).Msg("database already seeded, skipping")
		return false, nil
	}
	if err := seeds.Setup(ctx, pool); err != nil {
		return false, err
	}
	return true, nil
}
