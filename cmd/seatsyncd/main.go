// Command seatsyncd runs the seatsync document service: the HTTP API,
// the change event feed, and the backup scheduler.
package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cocobologroup/seatsync/internal/backup"
	"github.com/cocobologroup/seatsync/internal/config"
	"github.com/cocobologroup/seatsync/internal/docstore"
	"github.com/cocobologroup/seatsync/internal/docstore/postgres"
	"github.com/cocobologroup/seatsync/internal/events"
	"github.com/cocobologroup/seatsync/internal/server"
)

func main() {
	if err := run(); err != nil {
		slog.Error("seatsyncd failed", "error", err)
		os.Exit(1)
	}
}

func run() error {
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	slog.SetDefault(logger)

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	// Create event publisher.
	var publisher events.Publisher
	if cfg.NATSURL != "" {
		pub, err := events.NewNATSPublisher(cfg.NATSURL)
		if err != nil {
			return err
		}
		publisher = pub
		logger.Info("events enabled", "nats_url", cfg.NATSURL)
	} else {
		publisher = &events.NoopPublisher{}
		logger.Info("events disabled (SEATSYNC_NATS_URL not set)")
	}

	// Connect to Postgres.
	pgStore, err := postgres.New(cfg.DatabaseURL, publisher)
	if err != nil {
		publisher.Close()
		return err
	}

	// The serving store. When NATS is available, reads go through the
	// invalidating cache and the SSE feed gets a subscriber.
	var store docstore.Store = pgStore
	var subscriber events.Subscriber
	if cfg.NATSURL != "" {
		sub, err := events.NewNATSSubscriber(cfg.NATSURL)
		if err != nil {
			pgStore.Close()
			publisher.Close()
			return err
		}
		subscriber = sub

		cache, err := docstore.NewCache(pgStore, sub)
		if err != nil {
			sub.Close()
			pgStore.Close()
			publisher.Close()
			return err
		}
		store = cache
		logger.Info("read cache enabled")
	}

	// Start backup scheduler if any destinations are configured.
	var scheduler *backup.Scheduler
	if cfg.BackupInterval > 0 {
		var dests []backup.Destination

		if cfg.BackupS3Bucket != "" {
			s3Dest, err := backup.NewS3Destination(
				context.Background(),
				cfg.BackupS3Bucket,
				cfg.BackupS3Key,
				cfg.BackupS3Region,
				cfg.BackupS3Endpoint,
			)
			if err != nil {
				logger.Error("failed to create S3 backup destination", "err", err)
			} else {
				dests = append(dests, s3Dest)
				logger.Info("backup S3 destination enabled", "bucket", cfg.BackupS3Bucket, "key", cfg.BackupS3Key)
			}
		}

		if cfg.BackupFile != "" {
			dests = append(dests, backup.NewFileDestination(cfg.BackupFile))
			logger.Info("backup file destination enabled", "path", cfg.BackupFile)
		}

		if len(dests) > 0 {
			scheduler = backup.NewScheduler(store, dests, cfg.BackupInterval, logger)
			scheduler.Start()
			logger.Info("backup scheduler started", "interval", cfg.BackupInterval)
		}
	}

	// Create the API server.
	srv, err := server.New(store, subscriber, scheduler)
	if err != nil {
		if scheduler != nil {
			scheduler.Stop()
		}
		store.Close()
		publisher.Close()
		return err
	}

	httpServer := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: srv.NewHTTPHandler(cfg.AuthToken),
	}

	go func() {
		logger.Info("HTTP server listening", "addr", cfg.HTTPAddr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("HTTP server error", "err", err)
		}
	}()

	logger.Info("seatsync server started", "http_addr", cfg.HTTPAddr)

	// Wait for SIGINT or SIGTERM.
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	logger.Info("received signal, shutting down", "signal", sig)

	// Graceful shutdown.
	if scheduler != nil {
		scheduler.Stop()
		logger.Info("backup scheduler stopped")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown error", "err", err)
	}
	logger.Info("HTTP server stopped")

	srv.Close()
	if subscriber != nil {
		if err := subscriber.Close(); err != nil {
			logger.Error("error closing subscriber", "err", err)
		}
	}
	if err := publisher.Close(); err != nil {
		logger.Error("error closing publisher", "err", err)
	}
	if err := store.Close(); err != nil {
		logger.Error("error closing store", "err", err)
	}

	logger.Info("shutdown complete")
	return nil
}
