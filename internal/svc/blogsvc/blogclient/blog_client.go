package blogclient

import (
	"context"

	"github.com/mkrupp/chroniclex/internal/domain"
)

// BlogClient is the backend's blog post API. Mutations require a signed-in
// caller; update and delete additionally require the caller to be the author,
// which only the backend decides.
type BlogClient interface {
	// List returns the 1-based page of posts.
	List(ctx context.Context, page int) (domain.PostPage, error)

	// Get returns one post or a *domain.NotFoundError.
	Get(ctx context.Context, id domain.PostID) (domain.Post, error)

	// Create publishes a new post.
	Create(ctx context.Context, in domain.PostInput) (domain.Post, error)

	// Update replaces title and content of a post.
	Update(ctx context.Context, id domain.PostID, in domain.PostInput) (domain.Post, error)

	// Delete removes a post.
	Delete(ctx context.Context, id domain.PostID) error
}
