package main

import (
	"context"
	"database/sql"
	"fmt"

	goopenai "github.com/sashabaranov/go-openai"

	appvision "github.com/bryanwahyu/constrite/internal/application/vision"
	"github.com/bryanwahyu/constrite/internal/domain/inspection"
	"github.com/bryanwahyu/constrite/internal/domain/standards"
	"github.com/bryanwahyu/constrite/internal/domain/vision"
	"github.com/bryanwahyu/constrite/internal/infra/ai/gemini"
	"github.com/bryanwahyu/constrite/internal/infra/ai/openai"
	"github.com/bryanwahyu/constrite/internal/infra/ai/prompt"
	"github.com/bryanwahyu/constrite/internal/infra/db"
	"github.com/bryanwahyu/constrite/internal/infra/storage"
)

func loadStandards() (*standards.Reference, error) {
	ref, err := standards.Load(cfg.Standards.Path)
	if err != nil {
		return nil, fmt.Errorf("standards: %w", err)
	}
	return ref, nil
}

func promptFor(ref *standards.Reference) func(site inspection.SiteInfo) vision.Prompt {
	return func(site inspection.SiteInfo) vision.Prompt { return prompt.Build(ref, site) }
}

func newVisionClient(ctx context.Context) (vision.Client, error) {
	v := cfg.Vision
	switch v.Provider {
	case "openai":
		if v.APIKey == "" {
			return nil, fmt.Errorf("OPENAI_API_KEY is not set")
		}
		oc := goopenai.DefaultConfig(v.APIKey)
		if v.BaseURL != "" {
			oc.BaseURL = v.BaseURL
		}
		return openai.NewClientWithConfig(oc, v.Model), nil
	default:
		if v.APIKey == "" {
			return nil, fmt.Errorf("GEMINI_API_KEY is not set")
		}
		return gemini.NewClient(ctx, v.APIKey, gemini.Options{Model: v.Model, BaseURL: v.BaseURL})
	}
}

func newAnalyzer(ctx context.Context) (*appvision.Analyzer, error) {
	client, err := newVisionClient(ctx)
	if err != nil {
		return nil, err
	}
	return appvision.NewAnalyzer(client, logger,
		appvision.WithRetries(cfg.Vision.MaxRetries, cfg.Vision.Backoff),
		appvision.WithAttemptTimeout(cfg.Vision.Timeout),
	), nil
}

func databaseDSN(backend db.Backend) string {
	if cfg.Database.DSN != "" {
		return cfg.Database.DSN
	}
	switch backend {
	case db.MySQL:
		return cfg.MySQLDSN()
	case db.Postgres:
		return cfg.PostgresDSN()
	case db.SQLite:
		return db.SQLiteDSN(cfg.SQLitePath())
	}
	return ""
}

// openDatabase returns a nil pool for backend none.
func openDatabase(ctx context.Context) (*sql.DB, db.Backend, error) {
	backend, err := db.ParseBackend(cfg.Database.Backend)
	if err != nil || backend == db.None {
		return nil, backend, err
	}
	dsn := databaseDSN(backend)
	if cfg.Database.Migrate {
		if err := db.Migrate(backend, dsn, -1, logger); err != nil {
			return nil, backend, fmt.Errorf("migrate: %w", err)
		}
	}
	conn, err := db.Connect(ctx, backend, dsn)
	if err != nil {
		return nil, backend, fmt.Errorf("%s connect: %w", backend, err)
	}
	return conn, backend, nil
}

// openImages returns nil when MinIO is disabled.
func openImages(ctx context.Context) (*storage.Store, error) {
	m := cfg.Minio
	if !m.Enabled {
		return nil, nil
	}
	store, err := storage.New(ctx, m.Endpoint, m.Region, m.BucketName, m.AccessKey, m.SecretKey, m.UseSSL)
	if err != nil {
		return nil, fmt.Errorf("minio init: %w", err)
	}
	return store, nil
}
