package main

import (
	"context"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"github.com/lewisedginton/shopping_assistant/internal/catalog"
	"github.com/lewisedginton/shopping_assistant/internal/config"
	"github.com/lewisedginton/shopping_assistant/internal/extractor"
	"github.com/lewisedginton/shopping_assistant/internal/generation"
	"github.com/lewisedginton/shopping_assistant/internal/intent"
	"github.com/lewisedginton/shopping_assistant/internal/issues"
	"github.com/lewisedginton/shopping_assistant/internal/memory_service"
	"github.com/lewisedginton/shopping_assistant/internal/models/anthropic"
	"github.com/lewisedginton/shopping_assistant/internal/models/gemini"
	"github.com/lewisedginton/shopping_assistant/internal/models/groq"
	"github.com/lewisedginton/shopping_assistant/internal/models/openai"
	"github.com/lewisedginton/shopping_assistant/internal/orchestrator"
	"github.com/lewisedginton/shopping_assistant/internal/server"
	"github.com/lewisedginton/shopping_assistant/pkg/health"
	"github.com/lewisedginton/shopping_assistant/pkg/health/checkers"
	"github.com/lewisedginton/shopping_assistant/pkg/logger"
	"github.com/lewisedginton/shopping_assistant/pkg/metrics"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// Local development convenience; absence of a .env file is fine.
	_ = godotenv.Load()

	cfg, err := config.Load(os.Getenv("CONFIG_FILE"))
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}

	log := logger.NewLogger(logger.Config{
		Level:   cfg.GetLogLevel(),
		Format:  cfg.Logging.LogFormat,
		Service: cfg.ServiceName,
	})
	cfg.LogConfig(log)

	ctx := context.Background()

	var m *metrics.Metrics
	if cfg.Metrics.ExposeMetrics {
		instance := metrics.NewMetrics(cfg.Metrics.EnableHTTPMetrics, cfg.Metrics.EnablePipelineMetrics, log)
		m = &instance
		m.Listen(cfg.Metrics.Port)
		defer m.Stop()
	}

	products, err := catalog.LoadCSV(cfg.Catalog.CSVPath, log)
	if err != nil {
		return fmt.Errorf("loading product catalog: %w", err)
	}
	index, err := catalog.New(catalog.Config{
		Logger:   log,
		Embedder: catalog.NewHashingEmbedder(0),
		Products: products,
	})
	if err != nil {
		return fmt.Errorf("building catalog index: %w", err)
	}

	chain, err := buildChain(ctx, cfg, log, m)
	if err != nil {
		return fmt.Errorf("building generation chain: %w", err)
	}
	log.Info("Generation chain ready", logger.Field("providers", chain.Providers()))

	memoryStore, readinessChecks, err := buildMemoryStore(cfg, log)
	if err != nil {
		return fmt.Errorf("building memory store: %w", err)
	}

	issueStore, err := buildIssueStore(ctx, cfg, log)
	if err != nil {
		return fmt.Errorf("building issue store: %w", err)
	}

	if check := providerCheck(cfg); check != nil {
		readinessChecks = append(readinessChecks, check)
	}

	ex := extractor.New(extractor.Config{
		Logger:       log,
		Generator:    chain,
		Sentinel:     cfg.Catalog.PriceSentinel,
		Cap:          cfg.Catalog.PriceCap,
		AroundWindow: cfg.Catalog.AroundWindow,
		Increment:    cfg.Catalog.RangeIncrement,
		Vocabulary:   index.Vocabulary(),
	})
	classifier := intent.New(intent.Config{Logger: log, Generator: chain})

	orc, err := orchestrator.New(orchestrator.Config{
		Logger:          log,
		Catalog:         index,
		Memory:          memoryStore,
		Issues:          issueStore,
		Classifier:      classifier,
		Extractor:       ex,
		Chain:           chain,
		Metrics:         m,
		FrontendBaseURL: cfg.FrontendBaseURL,
		SearchK:         cfg.Catalog.SearchK,
		RecentLimit:     cfg.Memory.RecentLimit,
		TruncateLength:  cfg.Memory.TruncateLength,
		DedupThreshold:  cfg.Memory.DedupThreshold,
		CallTimeout:     cfg.ExternalCallTimeout,
	})
	if err != nil {
		return fmt.Errorf("building orchestrator: %w", err)
	}

	srv, err := server.New(server.Config{
		AppConfig:       cfg,
		Logger:          log,
		Orchestrator:    orc,
		Catalog:         index,
		Issues:          issueStore,
		Metrics:         m,
		ReadinessChecks: readinessChecks,
	})
	if err != nil {
		return fmt.Errorf("building server: %w", err)
	}

	return srv.Run(ctx)
}

// buildChain assembles the provider fallback chain in configured order,
// skipping providers without credentials.
func buildChain(ctx context.Context, cfg *config.AppConfig, log logger.Logger, m *metrics.Metrics) (*generation.Chain, error) {
	var providers []generation.Provider
	for _, name := range cfg.Providers.EnabledOrder() {
		var (
			p   generation.Provider
			err error
		)
		switch name {
		case config.ProviderGroq:
			p, err = groq.New(cfg.Providers.Groq.APIKey, cfg.Providers.Groq.Model, cfg.Providers.Groq.BaseURL)
		case config.ProviderOpenAI:
			p, err = openai.New(cfg.Providers.OpenAI.APIKey, cfg.Providers.OpenAI.Model)
		case config.ProviderAnthropic:
			p, err = anthropic.New(cfg.Providers.Anthropic.APIKey, cfg.Providers.Anthropic.Model)
		case config.ProviderGemini:
			p, err = gemini.New(ctx, cfg.Providers.Gemini.APIKey, cfg.Providers.Gemini.Model)
		default:
			err = fmt.Errorf("unknown provider %q", name)
		}
		if err != nil {
			return nil, fmt.Errorf("initializing provider %s: %w", name, err)
		}
		providers = append(providers, p)
		log.Info("Registered generation provider", logger.StringField("provider", name))
	}
	if len(providers) == 0 {
		return nil, fmt.Errorf("no generation providers configured; set at least one API key")
	}

	return generation.New(generation.Config{
		Logger:    log,
		Providers: providers,
		Timeout:   cfg.Providers.Timeout,
		Metrics:   m,
	})
}

func buildMemoryStore(cfg *config.AppConfig, log logger.Logger) (memory_service.Store, []health.Check, error) {
	if cfg.Memory.Backend != config.MemoryBackendRedis {
		log.Info("Using in-process memory store")
		return memory_service.NewInProcessStore(cfg.Memory.HistoryCap), nil, nil
	}

	opts, err := redis.ParseURL(cfg.Memory.RedisURL)
	if err != nil {
		return nil, nil, fmt.Errorf("parsing redis URL: %w", err)
	}
	if cfg.Memory.RedisPassword != "" {
		opts.Password = cfg.Memory.RedisPassword
	}
	if cfg.Memory.RedisTimeout > 0 {
		opts.DialTimeout = cfg.Memory.RedisTimeout
		opts.ReadTimeout = cfg.Memory.RedisTimeout
		opts.WriteTimeout = cfg.Memory.RedisTimeout
	}
	client := redis.NewClient(opts)

	store, err := memory_service.NewRedisStore(memory_service.RedisConfig{
		Logger: log,
		Client: client,
		Cap:    cfg.Memory.HistoryCap,
	})
	if err != nil {
		return nil, nil, err
	}
	log.Info("Using Redis memory store")
	return store, []health.Check{checkers.NewRedisChecker(client, "redis-memory")}, nil
}

// providerCheck builds a readiness probe against the HTTP endpoint of the
// first enabled generation provider. An unauthenticated request is enough:
// the checker only fails on connection errors and 5xx responses.
func providerCheck(cfg *config.AppConfig) health.Check {
	order := cfg.Providers.EnabledOrder()
	if len(order) == 0 {
		return nil
	}
	urls := map[string]string{
		config.ProviderGroq:      cfg.Providers.Groq.BaseURL,
		config.ProviderOpenAI:    "https://api.openai.com/v1/models",
		config.ProviderAnthropic: "https://api.anthropic.com/v1/models",
		config.ProviderGemini:    "https://generativelanguage.googleapis.com",
	}
	url := urls[order[0]]
	if url == "" {
		return nil
	}
	return checkers.NewHTTPChecker(url, order[0]+"-api")
}

func buildIssueStore(ctx context.Context, cfg *config.AppConfig, log logger.Logger) (issues.Store, error) {
	if cfg.Database.URL == "" {
		log.Info("No database configured, using in-process issue store")
		return issues.NewMemoryStore(), nil
	}
	return issues.NewPostgresStore(ctx, cfg.Database.URL, log)
}
