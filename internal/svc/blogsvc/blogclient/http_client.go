package blogclient

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/mkrupp/chroniclex/internal/domain"
	"github.com/mkrupp/chroniclex/internal/infra/logging"
	http_ "github.com/mkrupp/chroniclex/internal/infra/transport/http"
)

const postsPath = "/blogs/"

// HTTPClient implements BlogClient on the REST backend.
type HTTPClient struct {
	api http_.APICaller
	log logging.Logger
}

var _ BlogClient = (*HTTPClient)(nil)

// NewHTTPClient creates a new HTTPClient calling the backend through api.
func NewHTTPClient(api http_.APICaller) *HTTPClient {
	return &HTTPClient{
		api: api,
		log: logging.GetLogger("svc.blogsvc.http_client"),
	}
}

func postPath(id domain.PostID) string {
	return postsPath + strconv.FormatInt(int64(id), 10) + "/"
}

// List implements BlogClient.List. Pages below 1 are requested as page 1.
func (c *HTTPClient) List(ctx context.Context, page int) (domain.PostPage, error) {
	if page < 1 {
		page = 1
	}

	var out domain.PostPage

	query := url.Values{"page": {strconv.Itoa(page)}}
	if err := c.api.Do(ctx, http.MethodGet, postsPath, query, nil, &out); err != nil {
		return domain.PostPage{}, fmt.Errorf("list posts: %w", err)
	}

	c.log.DebugContext(ctx, "posts listed", "page", page, "count", out.Count, "results", len(out.Results))

	return out, nil
}

// Get implements BlogClient.Get.
func (c *HTTPClient) Get(ctx context.Context, id domain.PostID) (domain.Post, error) {
	var out domain.Post
	if err := c.api.Do(ctx, http.MethodGet, postPath(id), nil, nil, &out); err != nil {
		return domain.Post{}, fmt.Errorf("get post %d: %w", id, err)
	}

	return out, nil
}

// Create implements BlogClient.Create.
func (c *HTTPClient) Create(ctx context.Context, in domain.PostInput) (post domain.Post, err error) {
	defer func() {
		if err != nil {
			c.log.ErrorContext(ctx, "create post failed", "error", err)
		} else {
			c.log.InfoContext(ctx, "post created", "id", post.ID)
		}
	}()

	if err := c.api.Do(ctx, http.MethodPost, postsPath, nil, in, &post); err != nil {
		return domain.Post{}, fmt.Errorf("create post: %w", err)
	}

	return post, nil
}

// Update implements BlogClient.Update.
func (c *HTTPClient) Update(ctx context.Context, id domain.PostID, in domain.PostInput) (post domain.Post, err error) {
	log := c.log.With("id", id)

	defer func() {
		if err != nil {
			log.ErrorContext(ctx, "update post failed", "error", err)
		} else {
			log.InfoContext(ctx, "post updated")
		}
	}()

	if err := c.api.Do(ctx, http.MethodPut, postPath(id), nil, in, &post); err != nil {
		return domain.Post{}, fmt.Errorf("update post %d: %w", id, err)
	}

	return post, nil
}

// Delete implements BlogClient.Delete.
func (c *HTTPClient) Delete(ctx context.Context, id domain.PostID) (err error) {
	log := c.log.With("id", id)

	defer func() {
		if err != nil {
			log.ErrorContext(ctx, "delete post failed", "error", err)
		} else {
			log.InfoContext(ctx, "post deleted")
		}
	}()

	if err := c.api.Do(ctx, http.MethodDelete, postPath(id), nil, nil, nil); err != nil {
		return fmt.Errorf("delete post %d: %w", id, err)
	}

	return nil
}
