package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"

	"optionrank/internal/config"
	apierrors "optionrank/internal/errors"
	"optionrank/internal/infrastructure"
	customMiddleware "optionrank/internal/middleware"
	"optionrank/internal/pipeline"
	"optionrank/internal/scoring"
	"optionrank/internal/services"
	handlers "optionrank/internal/transport/http"
	"optionrank/pkg/contracts"
)

// AppName is the service name reported at startup
const AppName = "optionrank"

// shutdownGrace bounds Stop when no shutdown timeout is configured
const shutdownGrace = 10 * time.Second

// Application represents the main application container
type Application struct {
	Config        *config.Config
	Paths         *config.Paths
	Logger        *slog.Logger
	OTelProviders *infrastructure.OTelProviders
	Metrics       *infrastructure.EngineMetrics
	ErrorHandler  *apierrors.ErrorHandler
	Services      *ServiceContainer
	Router        *chi.Mux
	Server        *http.Server
}

// ServiceContainer holds all application services
type ServiceContainer struct {
	Pipeline *pipeline.Pipeline
	Chains   *services.ChainStore
	Scoring  *services.ScoringService
	Health   *services.HealthService
}

// NewApplication loads the configuration, installs the global logger and
// builds the application rooted at the executable's directory
func NewApplication() (*Application, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	return New(cfg, logger, "")
}

// New builds an application from cfg. Relative paths resolve against
// baseDir; an empty baseDir means the executable's directory.
func New(cfg *config.Config, logger *slog.Logger, baseDir string) (*Application, error) {
	if logger == nil {
		logger = slog.Default()
	}

	logger.Info("application starting",
		slog.String("name", AppName),
		slog.String("version", contracts.GetVersionString()),
		slog.String("scoring_model", contracts.ScoringModelVersion))

	paths, err := config.ResolvePaths(cfg.Paths, baseDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve paths: %w", err)
	}
	if err := paths.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("failed to ensure directories: %w", err)
	}
	logger.Info("paths resolved", slog.Any("paths", paths))

	providers, err := infrastructure.InitializeOTel(otelConfig(cfg.Telemetry), logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize OpenTelemetry: %w", err)
	}

	app := &Application{
		Config:        cfg,
		Paths:         paths,
		Logger:        logger,
		OTelProviders: providers,
		ErrorHandler:  apierrors.NewErrorHandler(logger, cfg.Telemetry.Environment == "development"),
	}

	if providers.Meter != nil {
		metrics, err := infrastructure.CreateEngineMetrics(providers.Meter)
		if err != nil {
			_ = providers.Shutdown(context.Background())
			return nil, fmt.Errorf("failed to create engine metrics: %w", err)
		}
		app.Metrics = metrics
	}

	if err := app.initializeServices(); err != nil {
		_ = providers.Shutdown(context.Background())
		return nil, fmt.Errorf("failed to initialize services: %w", err)
	}

	app.setupRouter()
	app.createServer()

	return app, nil
}

func otelConfig(t config.TelemetryConfig) *infrastructure.OTelConfig {
	return &infrastructure.OTelConfig{
		ServiceName:    infrastructure.ServiceName,
		ServiceVersion: contracts.Version,
		Environment:    t.Environment,
		TraceExporter:  t.TraceExporter,
		MetricExporter: t.MetricExporter,
		EnableMetrics:  t.EnableMetrics,
		EnableTracing:  t.EnableTracing,
		SampleRatio:    t.SampleRatio,
	}
}

// initializeServices wires the engine and the services around it
func (a *Application) initializeServices() error {
	scorer, err := scoring.NewScorer(a.Config.Engine.ScoringParams())
	if err != nil {
		return fmt.Errorf("invalid engine configuration: %w", err)
	}

	p := pipeline.New(scorer, a.Logger, pipeline.Options{
		MaxConcurrency: a.Config.Engine.MaxConcurrency,
		Tracer:         a.OTelProviders.Tracer,
		Metrics:        a.Metrics,
	})

	chains := services.NewChainStore(a.Paths, a.Logger)
	ready := func() error {
		if p.Scorer() == nil {
			return errors.New("scorer not initialized")
		}
		return nil
	}

	a.Services = &ServiceContainer{
		Pipeline: p,
		Chains:   chains,
		Scoring:  services.NewScoringService(p, chains, a.Config.Engine, a.Logger),
		Health:   services.NewHealthService(a.Paths.ChainsDir, ready, a.Logger),
	}
	return nil
}

// setupRouter builds the middleware chain and mounts the handlers.
// Order: RequestID, RealIP, OTel, Recoverer, SecurityHeaders, CORS, then
// per-group logging, rate limiting, timeout and body validation.
func (a *Application) setupRouter() {
	r := chi.NewRouter()

	r.Use(customMiddleware.RequestID)
	r.Use(customMiddleware.RealIP)
	r.Use(customMiddleware.NewOTelMiddleware(a.OTelProviders.Tracer, a.Metrics, a.Logger).Handler)
	r.Use(customMiddleware.Recoverer(a.ErrorHandler))
	r.Use(customMiddleware.SecurityHeaders)
	r.Use(customMiddleware.StripSlashes)
	if a.Config.Security.EnableCORS {
		r.Use(customMiddleware.CORS(a.corsConfig()))
	}

	r.NotFound(a.ErrorHandler.NotFound)
	r.MethodNotAllowed(a.ErrorHandler.MethodNotAllowed)

	health := handlers.NewHealthHandler(a.Services.Health, a.Logger)
	r.Route("/api", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(customMiddleware.StructuredLogger(a.Logger))
			health.RegisterRoutes(r)
		})
		r.Route("/v1", a.setupAPIRoutes)
	})

	r.Handle("/metrics", handlers.NewMetricsHandler(a.OTelProviders.PrometheusHTTP, a.ErrorHandler))

	a.Router = r
}

// setupAPIRoutes mounts the versioned scoring API
func (a *Application) setupAPIRoutes(r chi.Router) {
	validation := customMiddleware.NewValidationMiddleware(a.Logger, a.ErrorHandler, a.Config.Server.MaxRequestBytes)

	r.Use(apierrors.NewErrorMiddleware(a.ErrorHandler, a.Logger).Handler)
	if a.Config.Security.RateLimit.Enabled {
		r.Use(customMiddleware.NewRateLimiter(
			a.Config.Security.RateLimit.RPS,
			a.Config.Security.RateLimit.Burst,
			a.Logger,
		).Handler)
	}
	r.Use(customMiddleware.Timeout(a.Config.Server.RequestTimeout, a.Logger))
	r.Use(customMiddleware.ContentTypeValidator("application/json"))
	r.Use(validation.ValidateRequest)

	chains := handlers.NewChainHandler(a.Services.Scoring, a.Services.Chains, validation, a.Logger, a.ErrorHandler)
	r.Mount("/chains", chains.Routes())
}

func (a *Application) corsConfig() customMiddleware.CORSConfig {
	return customMiddleware.CORSConfig{
		AllowedOrigins: a.Config.Security.AllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowedHeaders: []string{
			"Accept",
			"Content-Type",
			"X-Request-ID",
		},
		ExposedHeaders: []string{
			"X-Request-ID",
			"Content-Disposition",
		},
		MaxAge: 300,
		Logger: a.Logger,
	}
}

// createServer creates the HTTP server
func (a *Application) createServer() {
	a.Server = &http.Server{
		Addr:         fmt.Sprintf(":%d", a.Config.Server.Port),
		Handler:      a.Router,
		ReadTimeout:  a.Config.Server.ReadTimeout,
		WriteTimeout: a.Config.Server.WriteTimeout,
		IdleTimeout:  a.Config.Server.IdleTimeout,
	}
}

// Start starts serving in the background. A listener failure cancels ctx
// through cancel.
func (a *Application) Start(ctx context.Context, cancel context.CancelFunc) error {
	a.Logger.InfoContext(ctx, "starting server",
		slog.String("addr", a.Server.Addr),
		slog.String("level", a.Config.Logging.Level))

	if err := a.performStartupHealthCheck(ctx); err != nil {
		a.Logger.WarnContext(ctx, "startup health check warnings", slog.String("warnings", err.Error()))
	}

	go func() {
		if err := a.Server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.Logger.ErrorContext(ctx, "server error", slog.String("error", err.Error()))
			cancel()
		}
	}()

	a.Logger.InfoContext(ctx, "application started",
		slog.String("address", fmt.Sprintf("http://localhost:%d", a.Config.Server.Port)))
	return nil
}

// Stop gracefully stops the application
func (a *Application) Stop(ctx context.Context) error {
	a.Logger.InfoContext(ctx, "shutting down application")

	timeout := a.Config.Server.ShutdownTimeout
	if timeout <= 0 {
		timeout = shutdownGrace
	}
	shutdownCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var errs []error
	if a.Server != nil {
		if err := a.Server.Shutdown(shutdownCtx); err != nil {
			errs = append(errs, fmt.Errorf("server shutdown error: %w", err))
		}
	}
	if a.OTelProviders != nil {
		if err := a.OTelProviders.Shutdown(shutdownCtx); err != nil {
			errs = append(errs, err)
		}
	}

	if err := errors.Join(errs...); err != nil {
		return err
	}
	a.Logger.InfoContext(ctx, "application shutdown complete")
	return nil
}

// Run serves until SIGINT, SIGTERM or a listener failure
func (a *Application) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	if err := a.Start(runCtx, cancel); err != nil {
		return err
	}

	<-runCtx.Done()
	a.Logger.Info("received shutdown signal")

	return a.Stop(context.Background())
}

// performStartupHealthCheck reports readiness problems without failing
// startup
func (a *Application) performStartupHealthCheck(ctx context.Context) error {
	status := a.Services.Health.ReadinessCheck(ctx)
	if status.Status == "ready" {
		return nil
	}

	var errs []error
	for name, s := range status.Services {
		if s.Status != "ready" {
			errs = append(errs, fmt.Errorf("%s: %s", name, s.Message))
		}
	}
	return errors.Join(errs...)
}
