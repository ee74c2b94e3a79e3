// Package server exposes the shopping assistant over HTTP: the chat endpoint,
// the product catalog API and the issue admin API, plus health probes on a
// dedicated port.
package server

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	gocache "github.com/patrickmn/go-cache"

	"github.com/lewisedginton/shopping_assistant/internal/catalog"
	appconfig "github.com/lewisedginton/shopping_assistant/internal/config"
	"github.com/lewisedginton/shopping_assistant/internal/issues"
	"github.com/lewisedginton/shopping_assistant/internal/middleware"
	"github.com/lewisedginton/shopping_assistant/internal/orchestrator"
	"github.com/lewisedginton/shopping_assistant/pkg/health"
	"github.com/lewisedginton/shopping_assistant/pkg/httpmiddleware"
	"github.com/lewisedginton/shopping_assistant/pkg/logger"
	"github.com/lewisedginton/shopping_assistant/pkg/metrics"
	"github.com/lewisedginton/shopping_assistant/pkg/utils"
)

const (
	productCacheTTL     = 5 * time.Minute
	productCacheSweep   = 10 * time.Minute
	defaultProductLimit = 500
	similarProductCount = 4
)

// Config wires the server's collaborators.
type Config struct {
	AppConfig    *appconfig.AppConfig
	Logger       logger.Logger
	Orchestrator *orchestrator.Service
	Catalog      *catalog.Index
	Issues       issues.Store
	Metrics      *metrics.Metrics

	// ReadinessChecks are mounted on the health server in addition to the
	// built-in liveness probe.
	ReadinessChecks []health.Check
}

// Server hosts the API and health endpoints.
type Server struct {
	cfg          *appconfig.AppConfig
	log          logger.Logger
	orchestrator *orchestrator.Service
	catalog      *catalog.Index
	issues       issues.Store
	metrics      *metrics.Metrics

	router       chi.Router
	productCache *gocache.Cache
	checker      *health.HealthChecker
}

// New validates the wiring and builds the router.
func New(cfg Config) (*Server, error) {
	if cfg.AppConfig == nil {
		return nil, fmt.Errorf("app config cannot be nil")
	}
	if cfg.Logger == nil {
		return nil, fmt.Errorf("logger cannot be nil")
	}
	if cfg.Orchestrator == nil {
		return nil, fmt.Errorf("orchestrator cannot be nil")
	}
	if cfg.Catalog == nil {
		return nil, fmt.Errorf("catalog index cannot be nil")
	}
	if cfg.Issues == nil {
		return nil, fmt.Errorf("issue store cannot be nil")
	}

	s := &Server{
		cfg:          cfg.AppConfig,
		log:          cfg.Logger,
		orchestrator: cfg.Orchestrator,
		catalog:      cfg.Catalog,
		issues:       cfg.Issues,
		metrics:      cfg.Metrics,
		productCache: gocache.New(productCacheTTL, productCacheSweep),
	}
	s.router = s.buildRouter()
	s.checker = s.buildHealthChecker(cfg.ReadinessChecks)
	return s, nil
}

func (s *Server) buildRouter() chi.Router {
	r := chi.NewRouter()

	mwCfg := httpmiddleware.DefaultConfig()
	mwCfg.Logger = s.log
	mwCfg.EnableLogging = true
	// Recovery runs through the structured panic handler instead of the
	// generic one.
	mwCfg.EnableRecovery = false
	corsCfg := httpmiddleware.DefaultCORSConfig()
	if len(s.cfg.CORS.AllowedOrigins) > 0 {
		corsCfg.AllowedOrigins = s.cfg.CORS.AllowedOrigins
	}
	if s.cfg.CORS.MaxAge > 0 {
		corsCfg.MaxAge = s.cfg.CORS.MaxAge
	}
	mwCfg.CORS = &corsCfg
	httpmiddleware.ApplyToRouter(r, mwCfg)

	recoveryCfg := middleware.DefaultRecoveryConfig()
	recoveryCfg.Logger = s.log
	r.Use(middleware.Recovery(recoveryCfg))

	if s.metrics != nil {
		r.Use(s.metrics.HTTPMiddleware())
	}

	r.Route("/api", func(api chi.Router) {
		api.Post("/chat", s.handleChat)
		api.Delete("/chat/memory", s.handleClearMemory)
		api.Get("/products", s.handleProducts)
		api.Get("/products/{id}", s.handleProductDetail)
		api.Get("/categories", s.handleCategories)
		api.Get("/issues", s.handleListIssues)
		api.Patch("/issues/{id}", s.handleUpdateIssue)
		api.Delete("/issues/{id}", s.handleDeleteIssue)
	})

	return r
}

func (s *Server) buildHealthChecker(readiness []health.Check) *health.HealthChecker {
	checker := health.New(
		health.WithLogger(s.log),
		health.WithTimeout(s.cfg.Health.Timeout),
		health.WithFailureThreshold(s.cfg.Health.FailureThreshold),
	)
	checker.AddLivenessCheck(health.NewCheckFunc("catalog", func(context.Context) error {
		if s.catalog.Len() == 0 {
			return fmt.Errorf("catalog is empty")
		}
		return nil
	}))
	for _, check := range readiness {
		checker.AddReadinessCheck(check)
	}
	return checker
}

// Router exposes the API router, primarily for tests.
func (s *Server) Router() http.Handler {
	return s.router
}

// Run serves the API and health endpoints until the context is cancelled or a
// termination signal arrives.
func (s *Server) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	apiSrv := &http.Server{
		Addr:           fmt.Sprintf(":%d", s.cfg.HTTP.Port),
		Handler:        s.router,
		ReadTimeout:    time.Duration(s.cfg.HTTP.ReadTimeoutSeconds) * time.Second,
		WriteTimeout:   time.Duration(s.cfg.HTTP.WriteTimeoutSeconds) * time.Second,
		IdleTimeout:    time.Duration(s.cfg.HTTP.IdleTimeoutSeconds) * time.Second,
		MaxHeaderBytes: s.cfg.HTTP.MaxHeaderBytes,
	}

	apiErr := make(chan error, 1)
	go func() {
		s.log.Info("API server listening", logger.IntField("port", s.cfg.HTTP.Port))
		if err := apiSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			apiErr <- fmt.Errorf("api server: %w", err)
		}
	}()

	healthErr := make(chan error, 1)
	var healthSrv *http.Server
	if s.cfg.Health.Enabled {
		healthRouter := chi.NewRouter()
		healthRouter.Get("/health/live", s.checker.LivenessHandler())
		healthRouter.Get("/health/ready", s.checker.ReadinessHandler())
		healthSrv = &http.Server{
			Addr:    fmt.Sprintf(":%d", s.cfg.Health.Port),
			Handler: healthRouter,
		}
		go func() {
			s.log.Info("Health server listening", logger.IntField("port", s.cfg.Health.Port))
			if err := healthSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				healthErr <- fmt.Errorf("health server: %w", err)
			}
		}()
	}

	select {
	case <-ctx.Done():
		s.log.Info("Shutdown signal received")
	case err := <-utils.MergeErrorChans(apiErr, healthErr):
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := apiSrv.Shutdown(shutdownCtx); err != nil {
		s.log.Error("API server shutdown failed", logger.ErrorField(err))
	}
	if healthSrv != nil {
		if err := healthSrv.Shutdown(shutdownCtx); err != nil {
			s.log.Error("Health server shutdown failed", logger.ErrorField(err))
		}
	}

	s.log.Info("Server stopped")
	return nil
}
