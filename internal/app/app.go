package app

import (
	"context"
	"fmt"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/Awannaphasch2016/dr-daily-report-sub002/internal/common"
	"github.com/Awannaphasch2016/dr-daily-report-sub002/internal/eodhd"
	"github.com/Awannaphasch2016/dr-daily-report-sub002/internal/fetcher"
	"github.com/Awannaphasch2016/dr-daily-report-sub002/internal/interfaces"
	"github.com/Awannaphasch2016/dr-daily-report-sub002/internal/models"
	"github.com/Awannaphasch2016/dr-daily-report-sub002/internal/pipeline"
	"github.com/Awannaphasch2016/dr-daily-report-sub002/internal/scheduler"
	"github.com/Awannaphasch2016/dr-daily-report-sub002/internal/services/events"
	"github.com/Awannaphasch2016/dr-daily-report-sub002/internal/services/llm"
	"github.com/Awannaphasch2016/dr-daily-report-sub002/internal/services/pdf"
	"github.com/Awannaphasch2016/dr-daily-report-sub002/internal/services/reports"
	badgercache "github.com/Awannaphasch2016/dr-daily-report-sub002/internal/storage/badger"
	"github.com/Awannaphasch2016/dr-daily-report-sub002/internal/storage/objectstore"
	"github.com/Awannaphasch2016/dr-daily-report-sub002/internal/storage/sqlite"
)

// App holds all application dependencies, wired once at startup.
type App struct {
	Config   *common.Config
	Logger   arbor.ILogger
	Location *time.Location

	// Storage
	SQLiteDB    *sqlite.SQLiteDB
	ReportStore interfaces.ReportStore
	BadgerDB    *badgercache.BadgerDB
	MarketCache interfaces.MarketDataCache
	ObjectStore interfaces.ObjectStore

	// Clients and services
	EODHDClient  *eodhd.Client
	LLMService   interfaces.LLMService
	PDFService   interfaces.PDFService
	EventService interfaces.EventService
	Generator    interfaces.ReportGenerator

	// Pipeline
	Fetcher      *fetcher.Service
	Controller   *pipeline.Controller
	PDFWorkflow  *pipeline.PDFWorkflow
	Bridge       *pipeline.Bridge
	LaunchBridge *pipeline.LaunchBridge
	Scheduler    *scheduler.Service
}

// New initializes the application with all dependencies. The schema contract
// check runs here as a blocking gate: a drifted database fails startup before
// any write path is trusted.
func New(cfg *common.Config, logger arbor.ILogger) (*App, error) {
	loc, err := time.LoadLocation(cfg.Markets.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid business timezone %q: %w", cfg.Markets.Timezone, err)
	}

	common.SetDefaultExchange(cfg.Markets.DefaultExchange)

	app := &App{
		Config:   cfg,
		Logger:   logger,
		Location: loc,
	}

	if err := app.initStorage(); err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	if err := app.initServices(); err != nil {
		app.Close()
		return nil, fmt.Errorf("failed to initialize services: %w", err)
	}

	if err := app.initPipeline(); err != nil {
		app.Close()
		return nil, fmt.Errorf("failed to initialize pipeline: %w", err)
	}

	logger.Info().
		Str("environment", cfg.Environment).
		Str("timezone", cfg.Markets.Timezone).
		Int("tickers", len(cfg.Markets.Tickers)).
		Msg("Application initialized")

	return app, nil
}

func (a *App) initStorage() error {
	db, err := sqlite.NewSQLiteDB(a.Logger, a.Config.Storage.SQLitePath)
	if err != nil {
		return fmt.Errorf("sqlite open failed: %w", err)
	}
	a.SQLiteDB = db

	store := sqlite.NewReportStore(db, a.Logger)
	a.ReportStore = store

	// Blocking startup gate: code-declared columns must all exist in the
	// live schema before any write is attempted.
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := store.VerifySchemaContract(ctx); err != nil {
		return fmt.Errorf("schema contract check failed: %w", err)
	}

	badgerDB, err := badgercache.NewBadgerDB(a.Logger, &a.Config.Storage.Badger)
	if err != nil {
		return fmt.Errorf("badger open failed: %w", err)
	}
	a.BadgerDB = badgerDB
	a.MarketCache = badgercache.NewMarketDataCache(badgerDB, a.Logger)

	objects, err := objectstore.NewStore(a.Config.Storage.ObjectsDir, a.Logger)
	if err != nil {
		return fmt.Errorf("object store init failed: %w", err)
	}
	a.ObjectStore = objects

	return nil
}

func (a *App) initServices() error {
	a.EventService = events.NewService(a.Logger)

	a.EODHDClient = eodhd.NewClient(
		a.Config.EODHD.APIKey,
		eodhd.WithLogger(a.Logger),
		eodhd.WithRateLimit(a.Config.EODHD.RateLimit),
	)

	llmService, err := llm.NewLLMService(a.Config, a.Logger)
	if err != nil {
		return fmt.Errorf("llm service init failed: %w", err)
	}
	a.LLMService = llmService

	a.PDFService = pdf.NewService(a.Logger)
	a.Generator = reports.NewGenerator(a.LLMService, a.Logger)

	a.Fetcher = fetcher.NewService(
		a.EODHDClient,
		a.MarketCache,
		a.ObjectStore,
		a.EventService,
		a.Logger,
		a.Location,
		a.Config.EODHD.HistoryDays,
	)

	return nil
}

func (a *App) initPipeline() error {
	cfg := a.Config

	ttl := time.Duration(cfg.Pipeline.ReportTTLDays) * 24 * time.Hour

	worker := pipeline.NewReportWorker(
		a.MarketCache,
		a.Generator,
		a.ReportStore,
		a.PDFService,
		a.ObjectStore,
		a.Logger,
		a.Location,
		ttl,
		cfg.Pipeline.InlinePDF,
	)

	policy := pipeline.RetryPolicy{
		MaxAttempts: cfg.Pipeline.RetryMaxAttempts,
		BaseDelay:   cfg.RetryBaseDelayDuration(),
	}

	orchestrator := pipeline.NewOrchestrator(
		worker,
		a.ReportStore,
		a.EventService,
		a.Logger,
		a.Location,
		policy,
		cfg.Pipeline.Concurrency,
		cfg.WorkerTimeoutDuration(),
		cfg.RunTimeoutDuration(),
	)

	a.Controller = pipeline.NewController(cfg, orchestrator, a.ReportStore, a.Logger)

	pdfWorker := pipeline.NewPDFWorker(a.ReportStore, a.PDFService, a.ObjectStore, a.Logger)
	a.PDFWorkflow = pipeline.NewPDFWorkflow(a.ReportStore, pdfWorker, a.EventService, a.Logger, cfg.Pipeline.Concurrency)

	a.Bridge = pipeline.NewBridge(a.EventService, a.PDFWorkflow, a.Location, a.Logger)
	if err := a.Bridge.Register(); err != nil {
		return fmt.Errorf("failed to register completion bridge: %w", err)
	}

	a.LaunchBridge = pipeline.NewLaunchBridge(a.EventService, a.Controller, a.Logger)
	if err := a.LaunchBridge.Register(); err != nil {
		return fmt.Errorf("failed to register launch bridge: %w", err)
	}

	a.Scheduler = scheduler.NewService(a.Location, a.Logger)
	if err := a.Scheduler.Schedule(cfg.Markets.Schedule, a.runNightly); err != nil {
		return fmt.Errorf("failed to schedule nightly run: %w", err)
	}

	return nil
}

// runNightly is the scheduled entry point: refresh the raw-data cache. The
// market-data-ready event then launches the precompute run through the
// launch bridge. The trigger itself carries no business date.
func (a *App) runNightly(ctx context.Context) {
	if err := a.Fetcher.FetchAll(ctx, a.Config.Markets.Tickers, models.SourceScheduled); err != nil {
		a.Logger.Error().Err(err).Msg("Nightly fetch failed, skipping run")
	}
}

// RunOnce executes one full scheduled-style pass synchronously. Used by the
// -once command path. The fetch is announced as manual so the launch bridge
// stays out of the way and the run below is the only one started.
func (a *App) RunOnce(ctx context.Context) (models.RunSummary, error) {
	if err := a.Fetcher.FetchAll(ctx, a.Config.Markets.Tickers, models.SourceManual); err != nil {
		return models.RunSummary{}, fmt.Errorf("fetch failed: %w", err)
	}
	return a.Controller.StartAndWait(ctx, nil, models.SourceScheduled)
}

// Start begins scheduled operation.
func (a *App) Start() error {
	return a.Scheduler.Start()
}

// Close releases resources in reverse dependency order.
func (a *App) Close() error {
	if a.Scheduler != nil {
		a.Scheduler.Stop()
	}

	if a.EventService != nil {
		if err := a.EventService.Close(); err != nil {
			a.Logger.Warn().Err(err).Msg("Failed to close event service")
		}
	}

	if a.LLMService != nil {
		if err := a.LLMService.Close(); err != nil {
			a.Logger.Warn().Err(err).Msg("Failed to close LLM service")
		}
	}

	if a.MarketCache != nil {
		if err := a.MarketCache.Close(); err != nil {
			a.Logger.Warn().Err(err).Msg("Failed to close market data cache")
		}
	}

	if a.ReportStore != nil {
		if err := a.ReportStore.Close(); err != nil {
			a.Logger.Warn().Err(err).Msg("Failed to close report store")
		}
	}

	a.Logger.Info().Msg("Application shut down")
	return nil
}
