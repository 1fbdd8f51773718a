package inbound

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/elidorascodex/tecflow/internal/model"
)

// --- Domain Interface ---

// TaskDomain defines the tracker workflows exposed over HTTP.
type TaskDomain interface {
	FindRelated(ctx context.Context, taskID string, keywords, tags []string) ([]model.ScoredTask, error)
	ProcessAssessmentTrigger(ctx context.Context, taskID string) *model.RunResult
	GenerateLoreDoc(ctx context.Context, taskID string) *model.RunResult
}

// --- HTTP Port Interfaces ---

// TaskHttpPort defines task workflow HTTP handlers.
type TaskHttpPort interface {
	// FindRelated lists related tasks. Query: keyword, tag (repeatable).
	FindRelated(c *gin.Context)

	// Assess runs the assessment workflow on a task.
	Assess(c *gin.Context)

	// GenerateLoreDoc builds and attaches the lore document of a task.
	GenerateLoreDoc(c *gin.Context)
}
