package content

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/sushihentaime/portfolio/internal/blogservice"
)

type PostService interface {
	GetPosts(ctx context.Context) ([]blogservice.Post, error)
	GetPostBySlug(ctx context.Context, slug string) (*blogservice.Post, error)
	GetFeaturedPosts(ctx context.Context) ([]blogservice.Post, error)
	GetPostsByCategory(ctx context.Context, category string) ([]blogservice.Post, error)
	CreatePost(ctx context.Context, req *blogservice.CreatePostRequest) (*blogservice.Post, error)
	UpdatePost(ctx context.Context, id string, req *blogservice.UpdatePostRequest) (*blogservice.Post, error)
	DeletePost(ctx context.Context, id string) error
	ImageURL(post *blogservice.Post) (string, bool)
}

type CategoryService interface {
	GetCategories(ctx context.Context) ([]blogservice.Category, error)
}

type TagService interface {
	GetTags(ctx context.Context) ([]blogservice.Tag, error)
}

// CreatePostInput is what an author submits. Slug and read time are derived.
type CreatePostInput struct {
	Title         string                   `json:"title"`
	Excerpt       string                   `json:"excerpt"`
	Content       string                   `json:"content"`
	Category      string                   `json:"category"`
	Tags          string                   `json:"tags"`
	FeaturedPost  bool                     `json:"featured_post"`
	Published     *bool                    `json:"published"`
	FeaturedImage *blogservice.ImageUpload `json:"-"`
}

// Snapshot is a point in time copy of the store state.
type Snapshot struct {
	Posts      []blogservice.Post     `json:"posts"`
	Categories []blogservice.Category `json:"categories"`
	Tags       []blogservice.Tag      `json:"tags"`
	Loading    bool                   `json:"loading"`
	Error      string                 `json:"error,omitempty"`
}

// Store keeps the post, category and tag lists in memory and refreshes the
// post list after every mutation.
type Store struct {
	posts      PostService
	categories CategoryService
	tags       TagService
	logger     *slog.Logger

	mu           sync.RWMutex
	postList     []blogservice.Post
	categoryList []blogservice.Category
	tagList      []blogservice.Tag
	loaded       bool
	fetchedAt    time.Time
	inflight     int
	err          string
}
