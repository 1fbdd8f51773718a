package inbound

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/elidorascodex/tecflow/internal/domain/content"
	"github.com/elidorascodex/tecflow/internal/model"
)

// --- Request/Response Types ---

// AirthRespondInput represents a chat message for Airth.
type AirthRespondInput struct {
	Input           string `json:"input" binding:"required"`
	IncludeMemories *bool  `json:"include_memories,omitempty"`
}

// AirthRespondOutput represents Airth's reply.
type AirthRespondOutput struct {
	Response string `json:"response"`
}

// MemoryInput represents a memory to store.
type MemoryInput struct {
	Text string           `json:"text" binding:"required"`
	Type model.MemoryType `json:"type"`
}

// --- Domain Interface ---

// AirthDomain defines the content agent operations exposed over HTTP.
type AirthDomain interface {
	Respond(ctx context.Context, input string, includeMemories bool) (string, error)
	CreateBlogPost(ctx context.Context, req content.BlogRequest) (*content.BlogPost, error)
	ProcessMemory(text string, memoryType model.MemoryType) (*model.Memory, error)
	AddMemory(ctx context.Context, m *model.Memory) error
}

// --- HTTP Port Interfaces ---

// AirthHttpPort defines content agent HTTP handlers.
type AirthHttpPort interface {
	Respond(c *gin.Context)
	CreateMemory(c *gin.Context)
	CreateBlogPost(c *gin.Context)
}
