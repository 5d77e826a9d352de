package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"
	"golang.org/x/sync/errgroup"

	"rolesync/internal/await"
	"rolesync/internal/chat/console"
	"rolesync/internal/command"
	"rolesync/internal/events"
	"rolesync/internal/jwttoken"
	"rolesync/internal/platform/config"
	"rolesync/internal/platform/httpserver"
	"rolesync/internal/platform/logger"
	"rolesync/internal/platform/metrics"
	redisplatform "rolesync/internal/platform/redis"
	"rolesync/internal/product/resolver"
	"rolesync/internal/product/store"
	"rolesync/internal/registry"
	"rolesync/internal/synclink"
	"rolesync/internal/syncmsg"
	httptransport "rolesync/internal/transport/http"
	"rolesync/pkg/platform/circuit"
)

// main wires the dependencies and runs the two long-lived loops: the ops HTTP
// server and the chat command surface. Business logic lives in the internal
// packages.
func main() {
	cfg := config.FromEnv()
	log := logger.New()

	if err := run(context.Background(), cfg, log); err != nil {
		log.Error("rolesync exited", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	m := metrics.New()

	st, db, err := openStore(ctx, cfg, log)
	if err != nil {
		return err
	}
	if db != nil {
		defer db.Close()
	}

	reg, rdb, err := openRegistry(cfg, log)
	if err != nil {
		return err
	}
	if rdb != nil {
		defer rdb.Close()
	}

	pub, err := openEvents(cfg, log)
	if err != nil {
		return err
	}
	defer pub.Close()

	links := synclink.New(st, reg, cfg.RegistryToken, pub, log)

	// The console adapter stands in for the platform connection; a real
	// deployment injects its own chat adapter here.
	platform := console.New(cfg.DevGuildID, cfg.DevChannelID, cfg.DevAdminID)
	log.Warn("no chat platform adapter configured, using console gateway",
		"guild_id", cfg.DevGuildID,
	)

	handler := command.NewHandler(command.Config{
		Registry:       reg,
		RegistryToken:  cfg.RegistryToken,
		Links:          links,
		Resolver:       resolver.New(st),
		Publisher:      syncmsg.New(platform, links, log),
		Messenger:      platform,
		Gate:           await.NewDispatcher(),
		ConfirmTimeout: cfg.ConfirmTimeout,
		Prefix:         cfg.CommandPrefix,
		Logger:         log,
		Metrics:        m,
	})

	opsHandler := httptransport.NewHandler(links, log)
	if db != nil {
		opsHandler.AddHealthCheck("postgres", dbCheck{db})
	}
	if rdb != nil {
		opsHandler.AddHealthCheck("redis", rdb)
	}
	router := httptransport.NewRouter(opsHandler, jwttoken.New(cfg.JWTSigningKey, "rolesync"), log)
	srv := httpserver.New(cfg.HTTPAddr, router)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("ops server listening", "addr", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("ops server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	g.Go(func() error {
		log.Info("command surface running", "prefix", cfg.CommandPrefix)
		return handler.Run(ctx, platform)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// openStore selects PostgreSQL when configured and falls back to the
// in-memory store for local development.
func openStore(ctx context.Context, cfg config.Config, log *slog.Logger) (store.Store, *sql.DB, error) {
	if cfg.DatabaseURL == "" {
		log.Warn("no database configured, sync links will not survive restarts")
		return store.NewInMemory(), nil, nil
	}

	db, err := sql.Open("postgres", cfg.DatabaseURL)
	if err != nil {
		return nil, nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("ping database: %w", err)
	}

	pg := store.NewPostgres(db)
	if err := pg.EnsureSchema(ctx); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("ensure schema: %w", err)
	}
	return pg, db, nil
}

// openRegistry builds the purchase-registry client behind a circuit breaker,
// wrapped in a Redis lookup cache when one is configured.
func openRegistry(cfg config.Config, log *slog.Logger) (registry.Client, *redisplatform.Client, error) {
	var client registry.Client = registry.NewHTTPClient(cfg.RegistryBaseURL, nil)
	client = registry.NewBreaker(client, circuit.New("registry"), log)

	rdb, err := redisplatform.New(cfg.RedisURL)
	if err != nil {
		return nil, nil, fmt.Errorf("connect redis: %w", err)
	}
	if rdb == nil {
		log.Info("registry lookup cache disabled")
		return client, nil, nil
	}
	return registry.NewCache(client, rdb.Client, cfg.RegistryCacheTTL, log), rdb, nil
}

// openEvents builds the change-event publisher, or a process-local capture
// when no brokers are configured.
func openEvents(cfg config.Config, log *slog.Logger) (events.Publisher, error) {
	if len(cfg.KafkaBrokers) == 0 {
		log.Warn("no kafka brokers configured, sync link events stay in-process")
		return events.NewMemory(), nil
	}
	pub, err := events.NewKafka(cfg.KafkaBrokers, cfg.EventsTopic)
	if err != nil {
		return nil, fmt.Errorf("connect kafka: %w", err)
	}
	return pub, nil
}

type dbCheck struct{ db *sql.DB }

func (c dbCheck) Health(ctx context.Context) error {
	return c.db.PingContext(ctx)
}
