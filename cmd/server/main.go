package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"

	"github.com/AlexTLDR/guestlist/internal/config"
	"github.com/AlexTLDR/guestlist/internal/database"
	"github.com/AlexTLDR/guestlist/internal/lock"
	"github.com/AlexTLDR/guestlist/internal/rsvp"
	"github.com/AlexTLDR/guestlist/internal/server"
	"github.com/AlexTLDR/guestlist/internal/sheets"
)

const (
	connectAttempts = 5
	shutdownTimeout = 10 * time.Second
)

// backend is a store that serves both invitations and responses.
type backend interface {
	rsvp.InvitationSource
	rsvp.ResponseTable
}

func main() {
	// Load .env file (ignore error if a file doesn't exist)
	// Use Overload to force to overwrite any existing environment variables
	if err := godotenv.Overload(); err != nil {
		slog.Warn("error loading .env file", "error", err)
	} else {
		slog.Info(".env file loaded successfully (with overload)")
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.LogLevel}))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("server failed", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logger *slog.Logger) (err error) {
	store, closeStore, err := openBackend(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() { err = multierr.Append(err, closeStore.Close()) }()

	opts := []rsvp.StoreOption{rsvp.WithLogger(logger)}
	locker, closeLocker, err := openLocker(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() { err = multierr.Append(err, closeLocker.Close()) }()
	if locker != nil {
		opts = append(opts, rsvp.WithLocker(locker))
	}

	service := rsvp.NewService(
		rsvp.NewDirectory(store, logger),
		rsvp.NewResponseStore(store, cfg.SubEvents, opts...),
	)
	srv := server.New(cfg, service, logger)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return srv.Start(cfg.Addr())
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

// openBackend connects the configured store. SQL stores are migrated.
func openBackend(ctx context.Context, cfg *config.Config, logger *slog.Logger) (backend, io.Closer, error) {
	switch cfg.StoreBackend {
	case config.BackendSheets:
		store, err := sheets.New(ctx, sheets.Config{
			SpreadsheetID:       cfg.SpreadsheetID,
			ServiceAccountEmail: cfg.ServiceAccountEmail,
			PrivateKey:          cfg.PrivateKey,
			InvitesTab:          cfg.InvitesTab,
			ResponsesTab:        cfg.ResponsesTab,
			Columns:             rsvp.ResponseColumns(cfg.SubEvents),
		})
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open spreadsheet: %w", err)
		}
		logger.Info("using google sheets store", "spreadsheet_id", cfg.SpreadsheetID)
		return store, nopCloser{}, nil

	case config.BackendSQLite, config.BackendPostgres:
		driver, dsn := database.DriverSQLite, database.SQLiteDSN(cfg.DatabasePath)
		if cfg.StoreBackend == config.BackendPostgres {
			driver, dsn = database.DriverPostgres, cfg.DatabaseURL
		}
		db, err := database.Connect(ctx, driver, dsn, connectAttempts, logger)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to initialize database: %w", err)
		}
		if err := db.Migrate(ctx, logger); err != nil {
			return nil, nil, multierr.Append(err, db.Close())
		}
		logger.Info("using sql store", "driver", driver)
		return db, db, nil

	default:
		return nil, nil, errors.New("unknown store backend " + cfg.StoreBackend)
	}
}

// openLocker builds the per-invite lock. A nil Locker means none.
func openLocker(ctx context.Context, cfg *config.Config, logger *slog.Logger) (rsvp.Locker, io.Closer, error) {
	switch cfg.LockMode {
	case config.LockLocal:
		return lock.NewLocal(), nopCloser{}, nil
	case config.LockRedis:
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		if err := client.Ping(ctx).Err(); err != nil {
			return nil, nil, multierr.Append(fmt.Errorf("failed to reach redis: %w", err), client.Close())
		}
		logger.Info("using redis lock", "addr", cfg.RedisAddr)
		return lock.NewRedis(client, cfg.LockTTL, cfg.LockWait, logger), client, nil
	default:
		return nil, nopCloser{}, nil
	}
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
