package inbound

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/elidorascodex/tecflow/internal/domain/imagegen"
)

// --- Request/Response Types ---

// ImageOutput represents a generation response.
type ImageOutput struct {
	Path      string             `json:"path"`
	Format    string             `json:"format"`
	Size      int64              `json:"size"`
	ObjectKey string             `json:"object_key,omitempty"`
	Metadata  *imagegen.Metadata `json:"metadata,omitempty"`
}

// --- Domain Interface ---

// ImageDomain runs single image requests.
type ImageDomain interface {
	// Submit validates, dispatches and persists one request.
	Submit(ctx context.Context, req *imagegen.Request) (*imagegen.Result, error)
}

// --- HTTP Port Interfaces ---

// ImageHttpPort defines image generation HTTP handlers.
type ImageHttpPort interface {
	// Generate handles multipart generation requests for a family and variant.
	Generate(c *gin.Context)

	// ListVariants lists the variants of every family.
	ListVariants(c *gin.Context)
}
