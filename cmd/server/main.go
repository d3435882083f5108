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

	"github.com/gin-gonic/gin"
	"github.com/ngenohkevin/bookrent/internal/config"
	"github.com/ngenohkevin/bookrent/internal/database"
	"github.com/ngenohkevin/bookrent/internal/database/memory"
	"github.com/ngenohkevin/bookrent/internal/services"
)

// version is set at build time with -ldflags "-X main.version=..."
var version = "dev"

func main() {
	// Initialize structured logger
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	gin.SetMode(cfg.Server.Mode)

	store, closeStore, err := openStore(cfg)
	if err != nil {
		slog.Error("Failed to open storage", "driver", cfg.Storage.Driver, "error", err)
		os.Exit(1)
	}
	defer closeStore()

	var redisClient *database.RedisClient
	if cfg.Redis.Enabled {
		redisClient, err = database.NewRedis(cfg)
		if err != nil {
			slog.Error("Failed to connect to Redis", "error", err)
			os.Exit(1)
		}
		defer redisClient.Close()
	}

	var notifier *services.OverdueNotifier
	if cfg.Notifier.Enabled {
		if redisClient == nil {
			slog.Warn("Overdue notifier needs Redis, not starting it")
		} else {
			notifier = services.NewOverdueNotifier(store, redisClient.Client, nil, cfg.Notifier.BatchSize, logger)
		}
	}

	router, err := newRouter(cfg, store, redisClient, notifier, logger)
	if err != nil {
		slog.Error("Failed to build router", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if notifier != nil {
		go notifier.Run(ctx, cfg.Notifier.Interval)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.Server.Port
	}

	srv := &http.Server{
		Addr:         ":" + port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		slog.Info("Starting server",
			"port", port,
			"mode", cfg.Server.Mode,
			"storage", cfg.Storage.Driver,
			"version", version)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Failed to start server", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	slog.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("Server forced to shutdown", "error", err)
	}

	slog.Info("Server exited")
}

// openStore selects the storage driver. The returned func releases it.
func openStore(cfg *config.Config) (storage, func(), error) {
	if cfg.Storage.Driver == config.DriverMemory {
		slog.Info("Using in-memory storage")
		return memory.NewStore(cfg.Rental.LockWait), func() {}, nil
	}

	db, err := database.New(cfg)
	if err != nil {
		return nil, nil, err
	}
	if cfg.Database.AutoMigrate {
		if err := db.Migrate(); err != nil {
			db.Close()
			return nil, nil, err
		}
	}
	return database.NewStore(db.Pool, cfg.Database.LockTimeout), db.Close, nil
}
