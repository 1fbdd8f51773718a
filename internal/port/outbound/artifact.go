package outbound

import (
	"context"

	"github.com/elidorascodex/tecflow/internal/model"
)

// ArtifactLedgerPort records generated artifacts.
type ArtifactLedgerPort interface {
	// Record stores an artifact.
	Record(ctx context.Context, a *model.Artifact) error

	// List returns artifacts matching filter, newest first.
	List(ctx context.Context, filter model.ArtifactFilter) ([]*model.Artifact, error)
}
