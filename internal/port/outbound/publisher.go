package outbound

import (
	"context"

	"github.com/elidorascodex/tecflow/internal/model"
)

// PublisherPort defines content publishing operations.
type PublisherPort interface {
	// CreatePost creates a post and returns it with its id and link.
	CreatePost(ctx context.Context, p *model.NewPost) (*model.Post, error)

	// ListPosts lists posts, newest first.
	ListPosts(ctx context.Context, page, perPage int) ([]*model.Post, error)
}
