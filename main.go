package main

import (
	"context"
	"errors"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/princinho/cragbase/config"
	"github.com/princinho/cragbase/database"
	"github.com/princinho/cragbase/logger"
	"github.com/princinho/cragbase/metrics"
	"github.com/princinho/cragbase/middleware"
	"github.com/princinho/cragbase/repositories"
	"github.com/princinho/cragbase/router"
	"github.com/princinho/cragbase/services"
	"github.com/princinho/cragbase/storage"
	"github.com/princinho/cragbase/utils"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	zl, err := logger.New(cfg.Environment, cfg.LogLevel)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer func() { _ = zl.Sync() }()

	if err := run(cfg, zl); err != nil {
		zl.Fatal("server stopped", zap.Error(err))
	}
}

func run(cfg *config.Config, zl *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	client, err := database.Connect(ctx, cfg.MongoURI, zl)
	if err != nil {
		return err
	}
	defer func() {
		dctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = client.Disconnect(dctx)
	}()

	db := client.Database(cfg.DatabaseName)
	if err := database.EnsureIndexes(ctx, db); err != nil {
		return err
	}

	objects, err := storage.New(ctx, cfg.Storage)
	if err != nil {
		return err
	}
	if closer, ok := objects.(io.Closer); ok {
		defer closer.Close()
	}
	if cfg.Storage.Driver == "none" {
		zl.Warn("file uploads are disabled, STORAGE_DRIVER is none")
	}
	validator := utils.NewFileValidator(cfg.Storage.AllowedExtensions, cfg.Storage.AllowedMimeTypes, cfg.Storage.MaxUploadSizeMB)

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	collector := metrics.NewCollector(reg)

	svc := services.New(services.Deps{
		Store:      repositories.NewMongoStore(db, time.Now),
		Signer:     utils.NewTokenSigner(cfg.JWTSecret, cfg.AccessTokenTTL),
		RefreshTTL: cfg.RefreshTokenTTL,
		Media:      storage.NewMedia(objects, validator, zl),
		Recorder:   collector,
		Log:        zl,
		Now:        time.Now,
	})

	limiter := middleware.NewRateLimiter(middleware.PerMinute(cfg.AuthRatePerMinute, cfg.AuthBurst), zl)
	defer limiter.Stop()

	srv := &http.Server{
		Addr: ":" + cfg.Port,
		Handler: router.New(router.Deps{
			Config:      cfg,
			Services:    svc,
			Log:         zl,
			Metrics:     collector,
			Gatherer:    reg,
			AuthLimiter: limiter,
		}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		zl.Info("listening", zap.String("addr", srv.Addr), zap.String("env", cfg.Environment))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	zl.Info("shutting down")
	sctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return srv.Shutdown(sctx)
}
