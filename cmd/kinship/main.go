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

	"github.com/dukerupert/kinship/internal/config"
	"github.com/dukerupert/kinship/internal/database"
	"github.com/dukerupert/kinship/internal/logging"
	"github.com/dukerupert/kinship/internal/media"
	"github.com/dukerupert/kinship/internal/metrics"
	"github.com/dukerupert/kinship/internal/server"
)

func main() {
	cfg, err := config.Load(".env")
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	logger := logging.Setup(cfg.LogLevel, cfg.LogFormat)

	db, err := database.Open(cfg.DBPath)
	if err != nil {
		logger.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	objects, err := objectStore(cfg)
	if err != nil {
		logger.Error("failed to set up media storage", "error", err)
		os.Exit(1)
	}

	srv := server.New(db, cfg, objects, metrics.New(), logger)

	// WriteTimeout stays unset: /ws connections are long-lived.
	httpServer := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           srv.Router(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       time.Minute,
		IdleTimeout:       120 * time.Second,
	}

	cleanupCtx, cleanupCancel := context.WithCancel(context.Background())
	defer cleanupCancel()
	go srv.RateLimiter().Sweep(cleanupCtx, 10*time.Minute)

	go func() {
		logger.Info("kinship starting", "addr", httpServer.Addr, "push", cfg.PushEnabled(), "s3", cfg.S3Bucket != "")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")
	cleanupCancel()
	srv.LiveHub().CloseAll()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		logger.Error("shutdown error", "error", err)
	}
	srv.Fanout().Wait()
}

func objectStore(cfg *config.Config) (media.ObjectStore, error) {
	if cfg.S3Bucket != "" {
		return media.NewS3Store(media.S3Config{
			Bucket:    cfg.S3Bucket,
			Region:    cfg.S3Region,
			Endpoint:  cfg.S3Endpoint,
			AccessKey: cfg.S3Key,
			SecretKey: cfg.S3Secret,
			PublicURL: cfg.S3PublicURL,
		}), nil
	}
	return media.NewDirStore(cfg.MediaDir, "/media")
}
