package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/jonboulle/clockwork"
	goredis "github.com/redis/go-redis/v9"

	"github.com/craftpulse/craftpulse/internal/config"
	"github.com/craftpulse/craftpulse/internal/database"
	"github.com/craftpulse/craftpulse/internal/logging"
	"github.com/craftpulse/craftpulse/internal/redis"
	"github.com/craftpulse/craftpulse/internal/relay"
	"github.com/craftpulse/craftpulse/internal/server"
	"github.com/craftpulse/craftpulse/internal/version"
)

func setupConfig() *config.Config {
	cfg, err := config.Load()
	if err != nil {
		// Use log before slog is initialized
		log.Fatalf("Failed to load config: %v", err)
	}
	return cfg
}

func setupDB(cfg *config.Config) *pgxpool.Pool {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	db, err := database.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		slog.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}

	if err := database.RunMigrations(ctx, db); err != nil {
		slog.Error("Failed to run migrations", "error", err)
		os.Exit(1)
	}

	return db
}

func setupRedis(ctx context.Context, cfg *config.Config) *goredis.Client {
	client, err := redis.NewClient(ctx, cfg.RedisURL)
	if err != nil {
		slog.Error("Failed to connect to Redis", "error", err)
		os.Exit(1)
	}
	return client
}

func runGracefulShutdown(srv *server.Server, hub *relay.Hub) <-chan struct{} {
	done := make(chan struct{})
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigChan
		slog.Info("Shutdown signal received, cleaning up...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("Server shutdown error", "error", err)
		}

		hub.Stop()
		close(done)
	}()

	return done
}

func main() {
	// .env is optional, real deployments use the environment directly
	_ = godotenv.Load()

	clock := clockwork.NewRealClock()
	cfg := setupConfig()

	logging.InitLogger(cfg.LogLevel, cfg.LogFormat)
	info := version.Get()
	slog.Info("Application starting", "env", cfg.AppEnv, "port", cfg.Port,
		"version", info.Version, "commit", info.Commit)

	pool := setupDB(cfg)
	defer pool.Close()

	redisClient := setupRedis(context.Background(), cfg)
	defer func() { _ = redisClient.Close() }()

	repos := server.Repositories{
		Users:    database.NewUserRepo(pool),
		Servers:  database.NewServerRepo(pool),
		Checks:   database.NewCheckRepo(pool),
		Comments: database.NewCommentRepo(pool),
		Saved:    database.NewSavedServerRepo(pool),
		Tokens:   database.NewTokenRepo(pool),
		Votes:    database.NewVoteRepo(pool),
		Admin:    database.NewAdminRepo(pool),
	}

	verifier := redis.NewVerifier(redisClient)
	hub := relay.NewHub()

	srv := server.NewServer(cfg, repos, verifier, hub, clock, pool, redisClient)

	done := runGracefulShutdown(srv, hub)

	slog.Info("Server starting", "port", cfg.Port)
	if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("Server error", "error", err)
		os.Exit(1)
	}

	<-done
}
