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
	"go.uber.org/zap"

	"lawnorm/internal/app"
	"lawnorm/internal/config"
	"lawnorm/internal/handler"
	"lawnorm/internal/logger"
	"lawnorm/internal/router"
	"lawnorm/internal/service"
)

// @title lawnorm API
// @version 1.0
// @description Reporting and administration API for the municipal law normalization pipeline.
// @BasePath /api/v1
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	log, err := logger.New(cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to build logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	if err := run(cfg, log); err != nil {
		log.Fatal("server exited", zap.Error(err))
	}
}

func run(cfg *config.Config, log *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New(cfg, log)
	if err != nil {
		return err
	}
	defer a.Close()

	tokens, err := a.Tokens()
	if err != nil {
		return err
	}

	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := router.Setup(router.Deps{
		Tokens:      tokens,
		Stats:       handler.NewStatsHandler(a.Reports, log),
		Documents:   handler.NewDocumentHandler(a.Documents, cfg.Pipeline.MaxAttempts, log),
		Health:      handler.NewHealthHandler(a.DB),
		Metrics:     a.Metrics.Handler(),
		CORSOrigins: cfg.Server.CORSOrigins,
		Logger:      log,
	})

	workerErr := make(chan error, 1)
	if cfg.Pipeline.BackgroundWorker {
		p, err := a.Pipeline()
		if err != nil {
			return err
		}
		w := service.NewPipelineWorker(p, service.PipelineWorkerConfig{PollInterval: cfg.Pipeline.PollInterval}, log)
		go func() { workerErr <- w.Start(ctx) }()
		log.Info("background pipeline worker started", zap.String("worker_id", p.WorkerID()))
	}

	srv := &http.Server{
		Addr:         cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info("server starting", zap.String("addr", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
	case err := <-workerErr:
		if err != nil {
			log.Error("background worker stopped", zap.Error(err))
		}
		stop()
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
