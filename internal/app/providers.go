package app

import (
	"context"
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/google/wire"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"

	ginadapter "github.com/elidorascodex/tecflow/internal/adapter/inbound/gin"
	"github.com/elidorascodex/tecflow/internal/adapter/outbound/aiprovider"
	"github.com/elidorascodex/tecflow/internal/adapter/outbound/clickup"
	"github.com/elidorascodex/tecflow/internal/adapter/outbound/postgres"
	redisadapter "github.com/elidorascodex/tecflow/internal/adapter/outbound/redis"
	"github.com/elidorascodex/tecflow/internal/adapter/outbound/s3"
	"github.com/elidorascodex/tecflow/internal/adapter/outbound/wordpress"
	"github.com/elidorascodex/tecflow/internal/domain/content"
	"github.com/elidorascodex/tecflow/internal/domain/imagegen"
	"github.com/elidorascodex/tecflow/internal/domain/pipeline"
	"github.com/elidorascodex/tecflow/internal/domain/tasks"
	"github.com/elidorascodex/tecflow/internal/infra/config"
	"github.com/elidorascodex/tecflow/internal/infra/httpclient"
	"github.com/elidorascodex/tecflow/internal/port/outbound"
	"github.com/elidorascodex/tecflow/internal/shared/cache"
	"github.com/elidorascodex/tecflow/internal/shared/clock"
	"github.com/elidorascodex/tecflow/internal/shared/database"
	"github.com/elidorascodex/tecflow/internal/shared/logger"
	"github.com/elidorascodex/tecflow/internal/utils/metrics"
)

// ===== Infrastructure Providers =====

// InfraSet provides infrastructure dependencies.
var InfraSet = wire.NewSet(
	ProvideLogger,
	ProvideRegistry,
	ProvideMetrics,
	ProvideClock,
	ProvideUpstreams,
	ProvideRedisClient,
	ProvideDatabase,
)

// ProvideLogger creates the root logger.
func ProvideLogger(cfg *config.Config) *zap.Logger {
	return logger.New(&logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
	})
}

// ProvideRegistry creates the metrics registry with the process and Go collectors.
func ProvideRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

// ProvideMetrics creates the application metrics on reg.
func ProvideMetrics(reg *prometheus.Registry) *metrics.Metrics {
	return metrics.New("tecflow", reg)
}

// ProvideClock returns the wall clock.
func ProvideClock() clock.Clock {
	return clock.Real()
}

// Upstreams holds one HTTP client per upstream API, each behind its own breaker.
type Upstreams struct {
	Stability httpclient.Doer
	ClickUp   httpclient.Doer
	WordPress httpclient.Doer
	OpenAI    httpclient.Doer
}

// ProvideUpstreams creates the upstream HTTP clients. Only the OpenAI client carries its
// token in the transport; the other adapters set their own auth headers.
func ProvideUpstreams(cfg *config.Config, log *zap.Logger) *Upstreams {
	breaker := func(name string, next httpclient.Doer) httpclient.Doer {
		return httpclient.WithRequestID(httpclient.NewBreaker(name, next, cfg.Breaker, log))
	}
	return &Upstreams{
		Stability: breaker("stability", httpclient.New(cfg.HTTPClient)),
		ClickUp:   breaker("clickup", httpclient.New(cfg.HTTPClient)),
		WordPress: breaker("wordpress", httpclient.New(cfg.HTTPClient)),
		OpenAI:    breaker("openai", httpclient.NewBearer(cfg.HTTPClient, cfg.OpenAI.APIKey)),
	}
}

// ProvideRedisClient connects to Redis. It returns nil when no address is configured.
func ProvideRedisClient(ctx context.Context, cfg *config.Config, log *zap.Logger) (goredis.UniversalClient, func(), error) {
	if !cfg.Redis.Enabled() {
		log.Info("Redis not configured, memories disabled")
		return nil, func() {}, nil
	}
	client, err := cache.NewRedisClient(ctx, cfg.Redis)
	if err != nil {
		return nil, nil, fmt.Errorf("init redis: %w", err)
	}
	cleanup := func() {
		if err := cache.Close(client); err != nil {
			log.Warn("Failed to close redis", zap.Error(err))
		}
	}
	return client, cleanup, nil
}

// ProvideDatabase opens the artifact ledger database. It returns nil when no DSN is
// configured.
func ProvideDatabase(cfg *config.Config, log *zap.Logger) (*gorm.DB, func(), error) {
	if !cfg.Database.Enabled() {
		return nil, func() {}, nil
	}
	db, err := database.New(cfg.Database)
	if err != nil {
		return nil, nil, fmt.Errorf("init database: %w", err)
	}
	cleanup := func() {
		if err := database.Close(db); err != nil {
			log.Warn("Failed to close database", zap.Error(err))
		}
	}
	return db, cleanup, nil
}

// ===== Outbound Adapter Providers =====

// OutboundSet provides the outbound port implementations.
var OutboundSet = wire.NewSet(
	ProvideTracker,
	ProvidePublisher,
	ProvideTextGenerator,
	ProvideObjectStore,
	ProvideMemoryStore,
	ProvideArtifactLedger,
)

// ProvideTracker creates the ClickUp client.
func ProvideTracker(cfg *config.Config, up *Upstreams, m *metrics.Metrics, log *zap.Logger) outbound.TaskTrackerPort {
	return clickup.NewClient(cfg.ClickUp, up.ClickUp, m, log)
}

// ProvidePublisher creates the WordPress client.
func ProvidePublisher(cfg *config.Config, up *Upstreams, m *metrics.Metrics, log *zap.Logger) outbound.PublisherPort {
	return wordpress.NewClient(cfg.WordPress, up.WordPress, m, log)
}

// ProvideTextGenerator creates the OpenAI adapter.
func ProvideTextGenerator(cfg *config.Config, up *Upstreams, m *metrics.Metrics, log *zap.Logger) outbound.TextGeneratorPort {
	return aiprovider.NewOpenAIAdapter(cfg.OpenAI, up.OpenAI, m, log)
}

// ProvideObjectStore creates the bucket client. It returns nil when no bucket is configured.
func ProvideObjectStore(ctx context.Context, cfg *config.Config, log *zap.Logger) (outbound.ObjectStorePort, error) {
	if cfg.Storage.Bucket == "" {
		log.Info("Object storage not configured, uploads and backups disabled")
		return nil, nil
	}
	store, err := s3.New(ctx, cfg.Storage, log)
	if err != nil {
		return nil, fmt.Errorf("init object storage: %w", err)
	}
	return store, nil
}

// ProvideMemoryStore creates the memory store on client, or nil without Redis.
func ProvideMemoryStore(cfg *config.Config, client goredis.UniversalClient) outbound.MemoryStorePort {
	if client == nil {
		return nil
	}
	return redisadapter.NewMemoryStore(client, cfg.Redis.KeyPrefix)
}

// ProvideArtifactLedger creates the artifact ledger on db, or nil without a database.
func ProvideArtifactLedger(ctx context.Context, cfg *config.Config, db *gorm.DB) (outbound.ArtifactLedgerPort, error) {
	if db == nil {
		return nil, nil
	}
	ledger := postgres.NewArtifactDBAdapter(db)
	if cfg.Database.AutoMigrate {
		if err := ledger.AutoMigrate(ctx); err != nil {
			return nil, fmt.Errorf("migrate artifacts: %w", err)
		}
	}
	return ledger, nil
}

// ===== Domain Providers =====

// DomainSet provides the domain services.
var DomainSet = wire.NewSet(
	ProvidePrompts,
	ProvideArchiver,
	ProvideImageClient,
	ProvideTaskService,
	ProvideAgent,
	ProvidePipeline,
)

// ProvidePrompts loads the prompt templates. Without a file the defaults are used.
func ProvidePrompts(cfg *config.Config) (content.Prompts, error) {
	if cfg.Content.PromptsFile == "" {
		return content.DefaultPrompts(), nil
	}
	return content.LoadPrompts(cfg.Content.PromptsFile)
}

// ProvideArchiver creates the artifact archiver.
func ProvideArchiver(
	cfg *config.Config,
	store outbound.ObjectStorePort,
	ledger outbound.ArtifactLedgerPort,
	clk clock.Clock,
	log *zap.Logger,
) *imagegen.Archiver {
	return imagegen.NewArchiver(store, ledger, cfg.Stability.UploadPrefix, clk, log)
}

// ProvideImageClient creates the image generation client.
func ProvideImageClient(
	cfg *config.Config,
	up *Upstreams,
	clk clock.Clock,
	archiver *imagegen.Archiver,
	m *metrics.Metrics,
	log *zap.Logger,
) *imagegen.Client {
	return imagegen.NewClient(imagegen.ConfigFrom(cfg.Stability), up.Stability, clk, archiver, m, log)
}

// ProvideTaskService creates the task workflow service.
func ProvideTaskService(
	cfg *config.Config,
	tracker outbound.TaskTrackerPort,
	clk clock.Clock,
	m *metrics.Metrics,
	log *zap.Logger,
) *tasks.Service {
	return tasks.NewService(tracker, tasks.ConfigFrom(cfg.ClickUp), clk, m, log)
}

// ProvideAgent creates the content agent.
func ProvideAgent(
	cfg *config.Config,
	gen outbound.TextGeneratorPort,
	publisher outbound.PublisherPort,
	memories outbound.MemoryStorePort,
	prompts content.Prompts,
	clk clock.Clock,
	m *metrics.Metrics,
	log *zap.Logger,
) *content.Agent {
	return content.NewAgent(gen, publisher, memories, prompts, content.ConfigFrom(cfg.Content), clk, m, log)
}

// ProvidePipeline creates the publishing pipeline.
func ProvidePipeline(
	cfg *config.Config,
	tracker outbound.TaskTrackerPort,
	gen outbound.TextGeneratorPort,
	publisher outbound.PublisherPort,
	store outbound.ObjectStorePort,
	prompts content.Prompts,
	clk clock.Clock,
	m *metrics.Metrics,
	log *zap.Logger,
) *pipeline.Service {
	return pipeline.NewService(tracker, gen, publisher, store, prompts,
		pipeline.ConfigFrom(cfg.Pipeline, cfg.WordPress), clk, m, log)
}

// ===== HTTP Providers =====

// HTTPSet provides the router.
var HTTPSet = wire.NewSet(
	ProvideHandlers,
	ProvideRouter,
)

// ProvideHandlers creates the HTTP handlers over the domain services.
func ProvideHandlers(images *imagegen.Client, taskSvc *tasks.Service, agent *content.Agent) *ginadapter.Handlers {
	return &ginadapter.Handlers{
		Images: ginadapter.NewImageHandler(images),
		Airth:  ginadapter.NewAirthHandler(agent),
		Tasks:  ginadapter.NewTaskHandler(taskSvc),
	}
}

// ProvideRouter creates the gin engine.
func ProvideRouter(
	cfg *config.Config,
	h *ginadapter.Handlers,
	reg *prometheus.Registry,
	m *metrics.Metrics,
	log *zap.Logger,
) *gin.Engine {
	return ginadapter.NewRouter(cfg.Server, cfg.Log.Level == "debug", h, reg, m, log)
}
