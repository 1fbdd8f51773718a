package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/elidorascodex/tecflow/internal/model"
	"github.com/elidorascodex/tecflow/internal/port/outbound"
)

const defaultListLimit = 100

// ArtifactDBAdapter implements ArtifactLedgerPort.
type ArtifactDBAdapter struct {
	db *gorm.DB
}

// NewArtifactDBAdapter creates a new artifact ledger adapter.
func NewArtifactDBAdapter(db *gorm.DB) *ArtifactDBAdapter {
	return &ArtifactDBAdapter{db: db}
}

// AutoMigrate creates or updates the artifacts table.
func (a *ArtifactDBAdapter) AutoMigrate(ctx context.Context) error {
	if err := a.db.WithContext(ctx).AutoMigrate(&model.Artifact{}); err != nil {
		return fmt.Errorf("migrate artifacts: %w", err)
	}
	return nil
}

func (a *ArtifactDBAdapter) Record(ctx context.Context, artifact *model.Artifact) error {
	if artifact.ID == uuid.Nil {
		artifact.ID = uuid.New()
	}
	return a.db.WithContext(ctx).Create(artifact).Error
}

func (a *ArtifactDBAdapter) List(ctx context.Context, filter model.ArtifactFilter) ([]*model.Artifact, error) {
	query := a.db.WithContext(ctx).Model(&model.Artifact{})
	if filter.Family != "" {
		query = query.Where("family = ?", filter.Family)
	}
	if filter.Variant != "" {
		query = query.Where("variant = ?", filter.Variant)
	}
	if filter.Label != "" {
		query = query.Where("? = ANY(labels)", filter.Label)
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}

	var artifacts []*model.Artifact
	if err := query.Order("created_at DESC").Limit(limit).Find(&artifacts).Error; err != nil {
		return nil, err
	}
	return artifacts, nil
}

var _ outbound.ArtifactLedgerPort = (*ArtifactDBAdapter)(nil)
