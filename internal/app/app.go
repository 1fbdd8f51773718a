// Package app assembles the adapters and domain services from configuration.
package app

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/elidorascodex/tecflow/internal/domain/content"
	"github.com/elidorascodex/tecflow/internal/domain/imagegen"
	"github.com/elidorascodex/tecflow/internal/domain/pipeline"
	"github.com/elidorascodex/tecflow/internal/domain/tasks"
	"github.com/elidorascodex/tecflow/internal/infra/config"
	"github.com/elidorascodex/tecflow/internal/port/outbound"
	"github.com/elidorascodex/tecflow/internal/shared/clock"
	"github.com/elidorascodex/tecflow/internal/utils/metrics"
)

// App holds the assembled services. Optional backends are nil when unconfigured.
type App struct {
	Config   *config.Config
	Logger   *zap.Logger
	Registry *prometheus.Registry
	Metrics  *metrics.Metrics
	Clock    clock.Clock

	Images   *imagegen.Client
	Tasks    *tasks.Service
	Agent    *content.Agent
	Pipeline *pipeline.Service

	ObjectStore outbound.ObjectStorePort
	Ledger      outbound.ArtifactLedgerPort

	Router *gin.Engine
}

// NewApp is the wire provider for App.
func NewApp(
	cfg *config.Config,
	logger *zap.Logger,
	reg *prometheus.Registry,
	m *metrics.Metrics,
	clk clock.Clock,
	images *imagegen.Client,
	taskSvc *tasks.Service,
	agent *content.Agent,
	pipelineSvc *pipeline.Service,
	store outbound.ObjectStorePort,
	ledger outbound.ArtifactLedgerPort,
	router *gin.Engine,
) *App {
	return &App{
		Config:      cfg,
		Logger:      logger,
		Registry:    reg,
		Metrics:     m,
		Clock:       clk,
		Images:      images,
		Tasks:       taskSvc,
		Agent:       agent,
		Pipeline:    pipelineSvc,
		ObjectStore: store,
		Ledger:      ledger,
		Router:      router,
	}
}

// Batch returns a batch runner over the image client with the configured factions.
func (a *App) Batch() (*imagegen.Batch, error) {
	factions, err := imagegen.LoadFactions(a.Config.Stability.FactionsFile)
	if err != nil {
		return nil, err
	}
	return imagegen.NewBatch(a.Images, factions, a.Config.Stability.MaxConcurrent, a.Logger), nil
}
