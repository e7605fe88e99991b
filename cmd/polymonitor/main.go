package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/liamashdown/polymonitor/internal/alerts"
	"github.com/liamashdown/polymonitor/internal/analytics"
	"github.com/liamashdown/polymonitor/internal/api"
	"github.com/liamashdown/polymonitor/internal/cache"
	"github.com/liamashdown/polymonitor/internal/config"
	"github.com/liamashdown/polymonitor/internal/polymarket/dataapi"
	"github.com/liamashdown/polymonitor/internal/polymarket/gammaapi"
	"github.com/liamashdown/polymonitor/internal/secrets"
	"github.com/liamashdown/polymonitor/internal/storage"
	"github.com/liamashdown/polymonitor/internal/syncer"
	"github.com/sirupsen/logrus"
)

func main() {
	// Initialize logger
	log := logrus.New()
	log.SetFormatter(&logrus.JSONFormatter{})
	log.SetOutput(os.Stdout)
	log.SetLevel(logrus.InfoLevel)

	log.Info("Starting polymonitor service...")

	cfg, err := config.Load()
	if err != nil {
		log.WithError(err).Fatal("Failed to load configuration")
	}

	if level, err := logrus.ParseLevel(cfg.LogLevel); err == nil {
		log.SetLevel(level)
	} else {
		log.WithField("log_level", cfg.LogLevel).Warn("Unknown log level, using info")
	}

	log.WithFields(logrus.Fields{
		"environment":     cfg.Environment,
		"database_driver": cfg.DatabaseDriver,
		"http_port":       cfg.HTTPPort,
		"alert_mode":      cfg.AlertMode,
		"sync_on_startup": cfg.SyncOnStartup,
	}).Info("Configuration loaded")

	db, err := storage.New(cfg, log)
	if err != nil {
		log.WithError(err).Fatal("Failed to connect to database")
	}
	defer db.Close()

	if err := db.AutoMigrate(); err != nil {
		log.WithError(err).Fatal("Failed to run database migrations")
	}
	log.Info("Database migrations complete")

	dataClient := dataapi.NewClient(cfg)
	gammaClient := gammaapi.NewClient(cfg)

	engine := analytics.NewEngine(db, log)

	alertSender, err := alerts.NewSender(cfg, log)
	if err != nil {
		log.WithError(err).Fatal("Failed to create alert sender")
	}
	log.WithField("alert_mode", cfg.AlertMode).Info("Alert sender initialized")

	var resultCache cache.Cache = cache.Noop{}
	if cfg.RedisURL != "" {
		rc, err := cache.NewRedisCache(cfg.RedisURL, cfg.CacheTTL)
		if err != nil {
			log.WithError(err).Fatal("Invalid REDIS_URL")
		}
		defer rc.Close()

		pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := rc.Ping(pingCtx); err != nil {
			log.WithError(err).Warn("Redis not reachable, responses will not be cached until it is")
		}
		cancel()

		resultCache = rc
		log.WithFields(logrus.Fields{
			"redis_url": secrets.Redact(cfg.RedisURL),
			"ttl":       cfg.CacheTTL.String(),
		}).Info("Result cache enabled")
	}

	syncSvc := syncer.New(cfg, db, dataClient, gammaClient, engine, alertSender, log)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go syncSvc.Run(ctx)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:      api.NewServer(cfg, engine, syncSvc, db, resultCache, log).Router(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 90 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.WithField("port", cfg.HTTPPort).Info("Starting HTTP server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Error("HTTP server failed")
			cancel()
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		log.WithField("signal", sig).Info("Received shutdown signal")
	case <-ctx.Done():
		log.Info("Context cancelled, shutting down")
	}
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("HTTP server shutdown failed")
	}

	log.Info("Graceful shutdown complete")
}
