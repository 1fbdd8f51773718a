package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// Artifact records a generated image.
type Artifact struct {
	ID           uuid.UUID      `json:"id" gorm:"type:uuid;primaryKey"`
	Family       string         `json:"family" gorm:"not null;index:idx_artifacts_route"`
	Variant      string         `json:"variant" gorm:"not null;index:idx_artifacts_route"`
	Path         string         `json:"path" gorm:"not null"`
	ObjectKey    string         `json:"object_key,omitempty"`
	Format       string         `json:"format"`
	Size         int64          `json:"size"`
	Seed         string         `json:"seed"`
	FinishReason string         `json:"finish_reason"`
	Prompt       string         `json:"prompt,omitempty" gorm:"type:text"`
	Labels       pq.StringArray `json:"labels" gorm:"type:text[]"`
	CreatedAt    time.Time      `json:"created_at"`
}

// TableName returns the table name.
func (Artifact) TableName() string {
	return "artifacts"
}

// ArtifactFilter filters an artifact listing.
type ArtifactFilter struct {
	Family  string
	Variant string
	Label   string
	Limit   int
}
