package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/granaapp/grana/internal/auth"
	"github.com/granaapp/grana/internal/backup"
	"github.com/granaapp/grana/internal/config"
	"github.com/granaapp/grana/internal/database"
	"github.com/granaapp/grana/internal/events"
	"github.com/granaapp/grana/internal/logging"
	"github.com/granaapp/grana/internal/server"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Setup("info").Error("load config", "error", err)
		os.Exit(1)
	}

	logger := logging.Setup(cfg.LogLevel)

	db, err := database.Open(cfg.DBPath)
	if err != nil {
		logger.Error("open database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	tokens := auth.NewTokenManager(cfg.JWTSecret, cfg.TokenTTL)

	var publisher *events.Publisher
	if cfg.AMQPURL != "" {
		publisher, err = events.NewPublisher(cfg.AMQPURL, cfg.AMQPExchange, logger.With("component", "events"))
		if err != nil {
			logger.Error("connect event broker", "error", err)
			os.Exit(1)
		}
		defer publisher.Close()
	}

	srv := server.New(db, server.Config{
		Tokens:        tokens,
		Publisher:     publisher,
		AuthRateLimit: cfg.AuthRateLimit,
		Backup: backup.Config{
			Bucket:     cfg.S3Bucket,
			Region:     cfg.S3Region,
			Endpoint:   cfg.S3Endpoint,
			AccessKey:  cfg.S3AccessKey,
			SecretKey:  cfg.S3SecretKey,
			Passphrase: cfg.BackupPassphrase,
			Interval:   cfg.BackupInterval,
			DBPath:     cfg.DBPath,
		},
	}, logger)

	httpServer := &http.Server{
		Addr:         cfg.Addr,
		Handler:      srv.Router(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv.BackupManager().Start(ctx)
	defer srv.BackupManager().Stop()

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("server listening", "addr", cfg.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})

	g.Go(func() error {
		ticker := time.NewTicker(5 * time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return nil
			case <-ticker.C:
				srv.RateLimiter().Cleanup()
			}
		}
	})

	if err := g.Wait(); err != nil {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}
	logger.Info("server stopped")
}
