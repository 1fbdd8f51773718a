//go:build wireinject
// +build wireinject

package app

import (
	"context"

	"github.com/google/wire"

	"github.com/elidorascodex/tecflow/internal/infra/config"
)

// InitializeApp builds the application from configuration. The cleanup function closes
// the optional backends.
func InitializeApp(ctx context.Context, cfg *config.Config) (*App, func(), error) {
	wire.Build(
		InfraSet,
		OutboundSet,
		DomainSet,
		HTTPSet,
		NewApp,
	)
	return nil, nil, nil
}
