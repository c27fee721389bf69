package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/cors"
	"github.com/studyup/studyup/internal/api"
	"github.com/studyup/studyup/internal/config"
	"github.com/studyup/studyup/internal/db"
	"github.com/studyup/studyup/internal/jobs"
	"github.com/studyup/studyup/internal/logger"
	"github.com/studyup/studyup/internal/repository/sqlite"
	"github.com/studyup/studyup/internal/services"
	"github.com/studyup/studyup/internal/store"
	"github.com/studyup/studyup/internal/study"
	"github.com/studyup/studyup/internal/worker"
)

func main() {
	cfg := config.Load()

	log := logger.New(
		logger.WithLevel(logger.ParseLevel(cfg.LogLevel)),
		logger.WithColors(true),
	)
	logger.SetDefault(log)

	if err := cfg.Validate(); err != nil {
		log.Error("invalid configuration: %v", err)
		os.Exit(1)
	}

	log.Info("===========================================")
	log.Info("Study Up Server Starting")
	log.Info("===========================================")
	log.Debug("addr=%s", cfg.Addr)
	log.Debug("db_path=%s", cfg.DBPath)
	log.Debug("log_level=%s", cfg.LogLevel)
	log.Debug("persist_mode=%s", cfg.PersistMode)
	log.Debug("persist_queue_size=%d", cfg.PersistQueueSize)
	log.Debug("cors_origins=%v", cfg.CORSOrigins)

	database, err := db.Open(cfg.DBPath)
	if err != nil {
		log.Error("failed to open database: %v", err)
		os.Exit(1)
	}
	defer func() {
		log.Debug("closing database connection")
		database.Close()
	}()

	setRepo := sqlite.NewSetRepository(database.DB)
	cardRepo := sqlite.NewFlashcardRepository(database.DB)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// A single worker keeps commits in mutation order.
	persistPool := worker.NewPool(1, cfg.PersistQueueSize)
	var persister store.Persister
	var writeBehind *jobs.WriteBehind
	if cfg.PersistMode == config.PersistModeSync {
		persister = jobs.Immediate{Repo: cardRepo}
	} else {
		writeBehind = jobs.NewWriteBehind(persistPool, cardRepo)
		persister = writeBehind
		persistPool.Start(ctx)
	}

	registry := services.NewStoreRegistry(cardRepo, persister)
	sessions := study.NewManager(2 * time.Hour)
	go sessions.Run(ctx, 10*time.Minute)

	srv := &api.Server{
		SetService:  services.NewSetService(setRepo, registry),
		CardService: services.NewCardService(setRepo, registry),
		Sessions:    sessions,
		DB:          database,
	}

	handler := cors.New(cors.Options{
		AllowedOrigins: cfg.CORSOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", "Accept", "Origin", "X-Request-ID", "X-Requested-With"},
		ExposedHeaders: []string{"X-Request-ID", "Content-Disposition"},
		MaxAge:         86400,
	}).Handler(srv.Routes())

	httpServer := &http.Server{
		Addr:         cfg.Addr,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 45 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info("HTTP server listening on %s", cfg.Addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("HTTP server error: %v", err)
			os.Exit(1)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	sig := <-stop

	log.Info("received signal %v, initiating graceful shutdown", sig)

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout())
	defer shutdownCancel()

	log.Debug("shutting down HTTP server")
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP server shutdown error: %v", err)
	}

	if writeBehind != nil {
		log.Debug("flushing pending writes")
		if err := writeBehind.Flush(shutdownCtx); err != nil {
			log.Error("pending writes not flushed before shutdown: %v", err)
		}
	}
	log.Debug("stopping persistence pool")
	persistPool.Stop()
	cancel()

	log.Info("===========================================")
	log.Info("Study Up Server Stopped")
	log.Info("===========================================")
}
