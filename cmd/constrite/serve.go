package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/bryanwahyu/constrite/internal/application"
	appanalytics "github.com/bryanwahyu/constrite/internal/application/analytics"
	appinspections "github.com/bryanwahyu/constrite/internal/application/inspections"
	"github.com/bryanwahyu/constrite/internal/infra/db"
	"github.com/bryanwahyu/constrite/internal/infra/httpserver"
	"github.com/bryanwahyu/constrite/internal/middleware"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runServe(cmd.Context())
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(parent context.Context) error {
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	ref, err := loadStandards()
	if err != nil {
		return err
	}
	analyzer, err := newAnalyzer(ctx)
	if err != nil {
		return err
	}

	svc := &appinspections.Service{
		Analyzer:       analyzer,
		Prompt:         promptFor(ref),
		Clock:          application.SystemClock{},
		Log:            logger,
		Rounding:       cfg.Rounding(),
		ImageURLExpiry: cfg.Minio.URLExpiry,
	}
	analytics := &appanalytics.Service{Clock: application.SystemClock{}}
	checkers := map[string]middleware.HealthChecker{}

	// database
	conn, backend, err := openDatabase(ctx)
	if err != nil {
		return err
	}
	if conn != nil {
		defer conn.Close()
		svc.Repo = db.NewInspectionRepository(conn, backend)
		svc.Failures = db.NewFailureRepository(conn, backend)
		if cfg.Analytics.Enabled {
			sink := db.NewAnalyticsRepository(conn, backend)
			svc.Analytics = sink
			analytics.Sink = sink
		}
		checkers["database"] = &middleware.DatabaseHealthChecker{DB: conn}
	} else {
		logger.Warn("no database configured, inspections are not persisted")
	}

	// minio
	deps := httpserver.Deps{
		Inspections:    svc,
		Analytics:      analytics,
		Standards:      ref,
		Log:            logger,
		Version:        version,
		Checkers:       checkers,
		MaxUploadBytes: cfg.MaxUploadBytes(),
		CORSOrigins:    cfg.Server.CORSOrigins,
	}
	store, err := openImages(ctx)
	if err != nil {
		return err
	}
	if store != nil {
		svc.Images = store
		deps.Images = store
		checkers["storage"] = middleware.CheckerFunc(store.Ping)
	}

	hub := httpserver.NewHub(logger, cfg.Server.CORSOrigins)
	defer hub.Close()
	svc.Live = hub
	deps.Live = hub

	if cfg.Auth.Enabled {
		deps.APIKeys = cfg.Auth.APIKeys
	}
	if cfg.RateLimit.Enabled {
		limiter := middleware.NewRateLimiter(cfg.RateLimit.Capacity, cfg.RateLimit.RefillPerSecond)
		defer limiter.Close()
		deps.Limiter = limiter
	}

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      httpserver.NewRouter(deps),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("server listening",
			zap.String("addr", addr),
			zap.String("vision", analyzer.Provider()),
			zap.String("database", string(backend)),
			zap.Bool("minio", store != nil),
			zap.Bool("auth", len(deps.APIKeys) > 0))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down server")
		sctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(sctx)
	})
	return g.Wait()
}
