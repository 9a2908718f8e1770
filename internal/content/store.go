package content

import (
	"context"
	"log/slog"
	"time"

	"github.com/sushihentaime/portfolio/internal/blogservice"
	"golang.org/x/sync/errgroup"
)

const (
	msgFetchPosts = "Failed to fetch posts"
	msgCreatePost = "Failed to create post"
	msgUpdatePost = "Failed to update post"
	msgDeletePost = "Failed to delete post"
)

func NewStore(posts PostService, categories CategoryService, tags TagService, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}

	return &Store{
		posts:        posts,
		categories:   categories,
		tags:         tags,
		logger:       logger,
		postList:     []blogservice.Post{},
		categoryList: []blogservice.Category{},
		tagList:      []blogservice.Tag{},
	}
}

// Load fetches posts, categories and tags concurrently. Each list is replaced
// when its own fetch completes, a failed fetch does not cancel the others, and
// the first error is returned.
func (s *Store) Load(ctx context.Context) error {
	var g errgroup.Group

	g.Go(func() error { return s.FetchPosts(ctx) })
	g.Go(func() error { return s.FetchCategories(ctx) })
	g.Go(func() error { return s.FetchTags(ctx) })

	return g.Wait()
}

// FetchPosts replaces the post list. A failure sets the store error and keeps
// the previous list.
func (s *Store) FetchPosts(ctx context.Context) error {
	s.begin()
	defer s.end()

	posts, err := s.posts.GetPosts(ctx)

	s.mu.Lock()
	s.loaded = true
	s.mu.Unlock()

	if err != nil {
		s.logger.Error("error fetching posts", slog.String("error", err.Error()))
		s.setError(msgFetchPosts)
		return err
	}

	s.mu.Lock()
	s.postList = posts
	s.fetchedAt = time.Now()
	s.err = ""
	s.mu.Unlock()

	return nil
}

// CachedPosts returns the post list held in memory when it was fetched less
// than maxAge ago, and fetches it otherwise.
func (s *Store) CachedPosts(ctx context.Context, maxAge time.Duration) ([]blogservice.Post, error) {
	s.mu.RLock()
	fresh := !s.fetchedAt.IsZero() && time.Since(s.fetchedAt) < maxAge
	s.mu.RUnlock()

	if !fresh {
		if err := s.FetchPosts(ctx); err != nil {
			return nil, err
		}
	}

	return s.Posts(), nil
}

// FetchCategories replaces the category list. Failures are logged only.
func (s *Store) FetchCategories(ctx context.Context) error {
	s.begin()
	defer s.end()

	categories, err := s.categories.GetCategories(ctx)
	if err != nil {
		s.logger.Error("error fetching categories", slog.String("error", err.Error()))
		return err
	}

	s.mu.Lock()
	s.categoryList = categories
	s.mu.Unlock()

	return nil
}

// FetchTags replaces the tag list. Failures are logged only.
func (s *Store) FetchTags(ctx context.Context) error {
	s.begin()
	defer s.end()

	tags, err := s.tags.GetTags(ctx)
	if err != nil {
		s.logger.Error("error fetching tags", slog.String("error", err.Error()))
		return err
	}

	s.mu.Lock()
	s.tagList = tags
	s.mu.Unlock()

	return nil
}

func (s *Store) GetFeaturedPosts(ctx context.Context) ([]blogservice.Post, error) {
	return s.posts.GetFeaturedPosts(ctx)
}

func (s *Store) GetPostsByCategory(ctx context.Context, category string) ([]blogservice.Post, error) {
	return s.posts.GetPostsByCategory(ctx, category)
}

func (s *Store) GetPostBySlug(ctx context.Context, slug string) (*blogservice.Post, error) {
	return s.posts.GetPostBySlug(ctx, slug)
}

// CreatePost derives the slug and read time from the input, creates the post
// and reloads the post list. Published defaults to true.
func (s *Store) CreatePost(ctx context.Context, in CreatePostInput) (*blogservice.Post, error) {
	published := true
	if in.Published != nil {
		published = *in.Published
	}

	req := &blogservice.CreatePostRequest{
		Title:         in.Title,
		Excerpt:       in.Excerpt,
		Content:       in.Content,
		Slug:          blogservice.GenerateSlug(in.Title),
		Category:      in.Category,
		Tags:          blogservice.ParseTags(in.Tags),
		FeaturedPost:  in.FeaturedPost,
		ReadTime:      blogservice.CalculateReadTime(in.Content),
		Published:     published,
		FeaturedImage: in.FeaturedImage,
	}

	post, err := s.posts.CreatePost(ctx, req)
	if err != nil {
		s.logger.Error("error creating post", slog.String("error", err.Error()))
		s.setError(msgCreatePost)
		return nil, err
	}

	s.refresh(ctx)

	return post, nil
}

func (s *Store) UpdatePost(ctx context.Context, id string, req *blogservice.UpdatePostRequest) (*blogservice.Post, error) {
	post, err := s.posts.UpdatePost(ctx, id, req)
	if err != nil {
		s.logger.Error("error updating post", slog.String("id", id), slog.String("error", err.Error()))
		s.setError(msgUpdatePost)
		return nil, err
	}

	s.refresh(ctx)

	return post, nil
}

func (s *Store) DeletePost(ctx context.Context, id string) error {
	err := s.posts.DeletePost(ctx, id)
	if err != nil {
		s.logger.Error("error deleting post", slog.String("id", id), slog.String("error", err.Error()))
		s.setError(msgDeletePost)
		return err
	}

	s.refresh(ctx)

	return nil
}

// refresh reloads the post list after a successful mutation. The mutation
// already succeeded, so a failed reload only shows up in the store error.
func (s *Store) refresh(ctx context.Context) {
	_ = s.FetchPosts(ctx)
}

// Snapshot returns copies of the lists together with the loading flag and
// error message.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return Snapshot{
		Posts:      append([]blogservice.Post{}, s.postList...),
		Categories: append([]blogservice.Category{}, s.categoryList...),
		Tags:       append([]blogservice.Tag{}, s.tagList...),
		Loading:    s.loadingLocked(),
		Error:      s.err,
	}
}

func (s *Store) Posts() []blogservice.Post {
	return s.Snapshot().Posts
}

// Loading reports whether posts have never been fetched or any fetch is in
// flight.
func (s *Store) Loading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loadingLocked()
}

func (s *Store) loadingLocked() bool {
	return !s.loaded || s.inflight > 0
}

func (s *Store) Error() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.err
}

func (s *Store) GenerateSlug(title string) string {
	return blogservice.GenerateSlug(title)
}

func (s *Store) CalculateReadTime(content string) int {
	return blogservice.CalculateReadTime(content)
}

func (s *Store) PostImageURL(post *blogservice.Post) (string, bool) {
	return s.posts.ImageURL(post)
}

func (s *Store) begin() {
	s.mu.Lock()
	s.inflight++
	s.mu.Unlock()
}

func (s *Store) end() {
	s.mu.Lock()
	s.inflight--
	s.mu.Unlock()
}

func (s *Store) setError(msg string) {
	s.mu.Lock()
	s.err = msg
	s.mu.Unlock()
}
