// Command paybridge bridges payment-processor purchase callbacks to game
// server grants and keeps time-bounded grants revoked on schedule.
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
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/migrate"

	paygin "github.com/loverust/paybridge/adapters/gin"
	"github.com/loverust/paybridge/adapters/ginutil"
	"github.com/loverust/paybridge/config"
	core "github.com/loverust/paybridge/core"
	"github.com/loverust/paybridge/grant"
	"github.com/loverust/paybridge/idem"
	"github.com/loverust/paybridge/ledger"
	migrations "github.com/loverust/paybridge/migrations/postgres"
	"github.com/loverust/paybridge/notify"
	memorylimiter "github.com/loverust/paybridge/ratelimit/memory"
	redislimiter "github.com/loverust/paybridge/ratelimit/redis"
	"github.com/loverust/paybridge/rcon"
	memorystore "github.com/loverust/paybridge/storage/memory"
	redisstore "github.com/loverust/paybridge/storage/redis"
	"github.com/loverust/paybridge/sweep"
)

func main() {
	log := logrus.New()
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	if err := run(log); err != nil {
		log.WithError(err).Fatal("paybridge exited")
	}
}

func run(log *logrus.Logger) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if !cfg.RconConfigured() && !cfg.DryRun {
		log.Warn("RCON is not fully configured; grants will fail until fixed")
	}
	if cfg.DiscordWebhookURL == "" {
		log.Warn("Discord webhook not configured; notifications will be skipped")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Exactly-once semantics depend on a working ledger; refuse to serve
	// without one.
	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("connect postgres: %w", err)
	}
	defer pool.Close()
	if err := pool.Ping(ctx); err != nil {
		return fmt.Errorf("ping postgres: %w", err)
	}
	if err := migrateLedger(ctx, pool); err != nil {
		return fmt.Errorf("migrate ledger: %w", err)
	}
	store := ledger.NewPostgresStore(pool)

	var guard idem.Guard
	var limiter ginutil.RateLimiter
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		if err := rdb.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("ping redis: %w", err)
		}
		guard = redisstore.NewGuard(rdb, "", 0, 0)
		limiter = redislimiter.New(rdb, nil)
	} else {
		guard = memorystore.NewGuard(0, 0)
		limiter = memorylimiter.New(nil)
	}

	console := rcon.New(rcon.Config{
		Host:     cfg.RconHost,
		Port:     cfg.RconPort,
		Password: cfg.RconPassword,
		DryRun:   cfg.DryRun,
	}, log)

	notifier := notify.NewDiscord(cfg.DiscordWebhookURL, log)
	dispatcher := grant.NewDispatcher(console, store, log)

	svc := core.NewService(core.Config{
		Guard:      guard,
		Dispatcher: dispatcher,
		Console:    console,
		Notifier:   notifier,
		Logger:     log,
		TestAmount: cfg.TestAmount,
	})

	sweeper := sweep.New(store, console, console, cfg.SweepInterval, log)
	if err := sweeper.Start(); err != nil {
		return fmt.Errorf("start sweep: %w", err)
	}
	defer sweeper.Stop()

	router := paygin.New(paygin.Deps{
		Service:   svc,
		APISecret: cfg.APISecret,
		Limiter:   limiter,
		Logger:    log,
	})

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		Handler: router,
	}

	errCh := make(chan error, 1)
	go func() {
		log.WithField("port", cfg.Port).Info("paybridge listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// migrateLedger applies the embedded schema migrations through bun.
func migrateLedger(ctx context.Context, pool *pgxpool.Pool) error {
	db := bun.NewDB(stdlib.OpenDBFromPool(pool), pgdialect.New())
	defer db.Close()

	migrator := migrate.NewMigrator(db, migrations.Migrations)
	if err := migrator.Init(ctx); err != nil {
		return err
	}
	_, err := migrator.Migrate(ctx)
	return err
}
