package outbound

import (
	"context"
	"io"

	"github.com/elidorascodex/tecflow/internal/model"
)

// ObjectStorePort defines object storage operations.
type ObjectStorePort interface {
	// Upload stores the contents of r under key.
	Upload(ctx context.Context, key string, r io.Reader, size int64, contentType string) error

	// Download retrieves an object. The caller closes the reader.
	Download(ctx context.Context, key string) (io.ReadCloser, error)

	// List lists objects whose names start with prefix.
	List(ctx context.Context, prefix string) ([]model.ObjectInfo, error)
}
