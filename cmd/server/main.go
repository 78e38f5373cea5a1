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

	"github.com/gin-gonic/gin"
	"github.com/lalith-99/auraloom/internal/api"
	"github.com/lalith-99/auraloom/internal/config"
	"github.com/lalith-99/auraloom/internal/db"
	"github.com/lalith-99/auraloom/internal/observ"
	"github.com/lalith-99/auraloom/internal/realtime"
	"github.com/lalith-99/auraloom/internal/repository"
	"github.com/lalith-99/auraloom/internal/repository/file"
	"github.com/lalith-99/auraloom/internal/repository/postgres"
	"github.com/lalith-99/auraloom/internal/repository/redis"
	"github.com/lalith-99/auraloom/internal/store"
	"go.uber.org/zap"
)

const shutdownTimeout = 10 * time.Second

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// ---------------------------------------------------------------
	// 1. Load config
	// ---------------------------------------------------------------
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// ---------------------------------------------------------------
	// 2. Create logger
	// ---------------------------------------------------------------
	logger, err := observ.NewLogger(cfg.Env, cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	defer logger.Sync()

	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ---------------------------------------------------------------
	// 3. Open the state backend
	// ---------------------------------------------------------------
	backend, err := openBackend(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer backend.close()

	// ---------------------------------------------------------------
	// 4. Build the store and hydrate it
	//
	// A missing snapshot is not an error: the store keeps its defaults.
	// ---------------------------------------------------------------
	st := store.New(
		store.WithRepository(backend.repo, cfg.StateBackend, cfg.StateKey),
		store.WithLogger(logger),
		store.WithSessionUser(cfg.SessionUserID),
	)
	if err := st.Load(ctx); err != nil {
		return fmt.Errorf("load state: %w", err)
	}

	hub := realtime.NewHub(st, logger)
	hub.Start()
	defer hub.Close()

	// ---------------------------------------------------------------
	// 5. Set up HTTP server
	// ---------------------------------------------------------------
	router := api.NewRouter(api.RouterConfig{
		Store: st,
		Policy: api.Policy{
			FreeProductLimit:   cfg.FreeProductLimit,
			FreeBroadcastLimit: cfg.FreeBroadcastLimit,
		},
		Logger:       logger,
		Realtime:     hub,
		HealthChecks: backend.checks,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting Auraloom",
			zap.String("port", cfg.Port),
			zap.String("env", cfg.Env),
			zap.String("backend", cfg.StateBackend),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

// stateBackend is the opened persistence layer: the repository, the health
// checks of whatever it connected to, and the func that disconnects it.
type stateBackend struct {
	repo   repository.StateRepository
	checks map[string]api.HealthCheck
	close  func()
}

func openBackend(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*stateBackend, error) {
	switch cfg.StateBackend {
	case config.BackendFile:
		return &stateBackend{repo: file.NewStateStore(cfg.StateFile, cfg.StateKey), close: func() {}}, nil

	case config.BackendRedis:
		client, err := db.NewRedis(ctx, cfg.RedisURL, logger)
		if err != nil {
			return nil, fmt.Errorf("connect to redis: %w", err)
		}
		return &stateBackend{
			repo: redis.NewStateStore(client),
			checks: map[string]api.HealthCheck{
				"redis": func(ctx context.Context) error { return client.Ping(ctx).Err() },
			},
			close: func() { _ = client.Close() },
		}, nil

	case config.BackendPostgres:
		database, err := db.New(ctx, cfg.DatabaseURL, logger)
		if err != nil {
			return nil, fmt.Errorf("connect to database: %w", err)
		}
		if err := database.EnsureSchema(ctx); err != nil {
			database.Close()
			return nil, fmt.Errorf("ensure schema: %w", err)
		}
		return &stateBackend{
			repo:   postgres.NewStateStore(database.Pool()),
			checks: map[string]api.HealthCheck{"postgres": database.Health},
			close:  database.Close,
		}, nil

	default:
		return &stateBackend{repo: repository.Nop{}, close: func() {}}, nil
	}
}
