// Package app wires configuration into the repositories and services shared
// by the lawctl CLI and the API server.
package app

import (
	"fmt"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"lawnorm/internal/auth"
	"lawnorm/internal/classifier"
	"lawnorm/internal/config"
	"lawnorm/internal/email/noop"
	"lawnorm/internal/email/ses"
	"lawnorm/internal/extractor/rules"
	"lawnorm/internal/llm"
	_ "lawnorm/internal/llm/providers" // registers claude, gemini, openai
	"lawnorm/internal/loader"
	"lawnorm/internal/metrics"
	"lawnorm/internal/port"
	"lawnorm/internal/repository/sqlstore"
	"lawnorm/internal/service"
	s3storage "lawnorm/internal/storage/s3"
	"lawnorm/internal/strategy"
)

// App holds the wired components. Object storage, the loader and the
// pipeline are built on first use so read-only commands need neither AWS
// nor LLM credentials.
type App struct {
	Config  *config.Config
	Logger  *zap.Logger
	DB      *sqlx.DB
	Metrics *metrics.Metrics

	States    port.StateStore
	Schemas   port.SchemaRepository
	Output    port.NormalizedDocumentRepository
	Citations port.CitationRepository
	Runs      port.RunRepository
	StatsRepo port.StatsRepository

	Documents service.DocumentService
	Reports   service.ReportService

	storage  port.ObjectStorage
	loader   port.DocumentLoader
	pipeline *service.Pipeline
}

// New opens the database, applies migrations and builds the repositories
// and read-side services.
func New(cfg *config.Config, logger *zap.Logger) (*App, error) {
	if err := sqlstore.Migrate(&cfg.DB); err != nil {
		return nil, fmt.Errorf("app.New: migrate: %w", err)
	}
	db, err := sqlstore.NewDB(&cfg.DB)
	if err != nil {
		return nil, fmt.Errorf("app.New: connect: %w", err)
	}

	a := &App{
		Config:  cfg,
		Logger:  logger,
		DB:      db,
		Metrics: metrics.New(),
		States: sqlstore.NewStateRepo(db, sqlstore.ClaimPolicy{
			MaxAttempts:  cfg.Pipeline.MaxAttempts,
			ClaimTimeout: cfg.Pipeline.ClaimTimeout,
		}),
		Schemas:   sqlstore.NewSchemaRepo(db),
		Output:    sqlstore.NewNormalizedDocumentRepo(db),
		Citations: sqlstore.NewCitationRepo(db),
		Runs:      sqlstore.NewRunRepo(db),
		StatsRepo: sqlstore.NewStatsRepo(db, cfg.Pipeline.MaxAttempts),
	}
	a.Documents = service.NewDocumentService(a.States, a.Output, logger)
	a.Reports = service.NewReportService(a.StatsRepo, a.Runs)
	return a, nil
}

// Close releases the database.
func (a *App) Close() error {
	return a.DB.Close()
}

// Storage returns the S3 client, creating it on first use.
func (a *App) Storage() (port.ObjectStorage, error) {
	if a.storage != nil {
		return a.storage, nil
	}
	st, err := s3storage.NewS3Client(&a.Config.S3)
	if err != nil {
		return nil, fmt.Errorf("app.Storage: %w", err)
	}
	a.storage = st
	return st, nil
}

// Loader returns the configured document loader.
func (a *App) Loader() (port.DocumentLoader, error) {
	if a.loader != nil {
		return a.loader, nil
	}
	var st port.ObjectStorage
	if a.Config.Loader.Kind == loader.KindS3 {
		var err error
		if st, err = a.Storage(); err != nil {
			return nil, err
		}
	}
	l, err := loader.New(a.Config.Loader, st, a.Config.S3.Bucket)
	if err != nil {
		return nil, fmt.Errorf("app.Loader: %w", err)
	}
	a.loader = l
	return l, nil
}

// Ingest builds the loading service over the configured loader.
func (a *App) Ingest() (service.IngestService, error) {
	l, err := a.Loader()
	if err != nil {
		return nil, err
	}
	return service.NewIngestService(l, a.States, a.Citations, a.Logger), nil
}

// Export builds the export service. Storage is attached only when withStorage is set.
func (a *App) Export(withStorage bool) (service.ExportService, error) {
	var st port.ObjectStorage
	if withStorage {
		var err error
		if st, err = a.Storage(); err != nil {
			return nil, err
		}
	}
	return service.NewExportService(a.Output, st, a.Logger), nil
}

// Tokens builds the API token issuer.
func (a *App) Tokens() (*auth.Issuer, error) {
	return auth.NewIssuer(a.Config.JWT)
}

// Pipeline builds the orchestrator with the configured LLM chain, archive
// and notifier.
func (a *App) Pipeline() (*service.Pipeline, error) {
	if a.pipeline != nil {
		return a.pipeline, nil
	}
	cfg := a.Config

	l, err := a.Loader()
	if err != nil {
		return nil, err
	}

	gen, err := llm.NewFromConfig(&cfg.LLM, a.Logger)
	if err != nil {
		return nil, fmt.Errorf("app.Pipeline: llm: %w", err)
	}
	gen = llm.NewRateLimitedGenerator(gen, cfg.RateLimit, a.Logger)

	var archiver service.Archiver
	if cfg.Archive.Enabled {
		st, err := a.Storage()
		if err != nil {
			return nil, err
		}
		archiver = service.NewObjectArchiver(st, cfg.S3.Bucket, cfg.Archive.Prefix)
	}

	notifier, err := a.notifier()
	if err != nil {
		return nil, err
	}

	p, err := service.NewPipeline(service.PipelineDeps{
		Loader:     l,
		States:     a.States,
		Registry:   service.NewSchemaRegistry(a.Schemas, a.Logger),
		Selector:   strategy.NewSelector(strategy.ThresholdsFromConfig(cfg.Selector)),
		Rules:      rules.New(nil),
		Classifier: classifier.New(classifier.DefaultConfig()),
		Generator:  gen,
		Output:     a.Output,
		Runs:       a.Runs,
		Archiver:   archiver,
		Notifier:   notifier,
		Metrics:    a.Metrics,
		Logger:     a.Logger,
	}, service.PipelineConfigFrom(cfg))
	if err != nil {
		return nil, fmt.Errorf("app.Pipeline: %w", err)
	}
	a.pipeline = p
	return p, nil
}

func (a *App) notifier() (port.EmailSender, error) {
	e := a.Config.Email
	switch e.Provider {
	case "ses":
		s, err := ses.NewSESSender(e.Region, e.FromAddress, e.FromName, e.Recipients)
		if err != nil {
			return nil, fmt.Errorf("app.notifier: %w", err)
		}
		return s, nil
	case "noop", "":
		return noop.NewNoopSender(a.Logger), nil
	default:
		return nil, fmt.Errorf("app.notifier: unknown email provider %q", e.Provider)
	}
}
