package blogservice

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"time"

	"github.com/sushihentaime/portfolio/internal/common"
	"github.com/sushihentaime/portfolio/internal/pocketbase"
)

const (
	postsPerPage    = 50
	featuredPerPage = 10
)

const (
	defaultCacheTTL     = 5 * time.Minute
	defaultCacheCleanup = 10 * time.Minute
)

func defaults(c *common.Cache, logger *slog.Logger) (*common.Cache, *slog.Logger) {
	if c == nil {
		c = common.NewCache(defaultCacheTTL, defaultCacheCleanup)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return c, logger
}

// NewPostService creates the post service. mb may be nil, in which case no
// publication messages are sent.
func NewPostService(b Backend, c *common.Cache, mb common.MessageProducer, logger *slog.Logger) *PostService {
	c, logger = defaults(c, logger)
	return &PostService{
		m:      newRecordModel[Post](b, CollectionPosts),
		b:      b,
		c:      c,
		mb:     mb,
		logger: logger,
	}
}

// GetPosts returns published posts, newest first.
func (s *PostService) GetPosts(ctx context.Context) ([]Post, error) {
	posts, err := s.m.list(ctx, "published = true", "-created", postsPerPage)
	if err != nil {
		s.logger.Error("could not fetch posts", slog.String("error", err.Error()))
		return nil, err
	}

	return posts, nil
}

// GetPostBySlug returns the published post with the given slug.
func (s *PostService) GetPostBySlug(ctx context.Context, slug string) (*Post, error) {
	v := common.NewValidator()
	validateSlugLookup(v, slug)
	if !v.Valid() {
		return nil, v.ValidationError()
	}

	key := common.CacheKeyPostBySlug(slug)
	if cached, ok := s.c.Get(key); ok {
		post := cached.(Post)
		return &post, nil
	}

	filter := pocketbase.Filter("slug = {:slug} && published = true", pocketbase.Params{"slug": slug})
	post, err := s.m.getFirst(ctx, filter)
	if err != nil {
		if !errors.Is(err, ErrRecordNotFound) {
			s.logger.Error("could not fetch post", slog.String("slug", slug), slog.String("error", err.Error()))
		}
		return nil, err
	}

	s.c.Set(key, *post)

	return post, nil
}

// GetFeaturedPosts returns published posts flagged as featured.
func (s *PostService) GetFeaturedPosts(ctx context.Context) ([]Post, error) {
	key := common.CacheKeyFeaturedPosts()
	if cached, ok := s.c.Get(key); ok {
		return append([]Post(nil), cached.([]Post)...), nil
	}

	posts, err := s.m.list(ctx, "featured_post = true && published = true", "-created", featuredPerPage)
	if err != nil {
		s.logger.Error("could not fetch featured posts", slog.String("error", err.Error()))
		return nil, err
	}

	s.c.Set(key, posts)

	return append([]Post(nil), posts...), nil
}

// GetPostsByCategory returns published posts whose category label equals category.
func (s *PostService) GetPostsByCategory(ctx context.Context, category string) ([]Post, error) {
	v := common.NewValidator()
	validateCategory(v, category)
	v.Check(category != "", "category", "must be provided")
	if !v.Valid() {
		return nil, v.ValidationError()
	}

	filter := pocketbase.Filter("category = {:category} && published = true", pocketbase.Params{"category": category})
	posts, err := s.m.list(ctx, filter, "-created", postsPerPage)
	if err != nil {
		s.logger.Error("could not fetch posts by category", slog.String("category", category), slog.String("error", err.Error()))
		return nil, err
	}

	return posts, nil
}

// CreatePost validates and stores a new post. A featured image forces a
// multipart payload; every other field is sent as text.
func (s *PostService) CreatePost(ctx context.Context, req *CreatePostRequest) (*Post, error) {
	req.Content = sanitizeMarkdown(req.Content)

	v := common.NewValidator()
	validateTitle(v, req.Title)
	validateExcerpt(v, req.Excerpt)
	validateContent(v, req.Content)
	validateSlug(v, req.Slug)
	validateCategory(v, req.Category)
	validateTags(v, req.Tags)
	validateReadTime(v, req.ReadTime)
	validateImage(v, req.FeaturedImage)
	if !v.Valid() {
		return nil, v.ValidationError()
	}

	post, err := s.m.insert(ctx, createPayload(req))
	if err != nil {
		s.logger.Error("could not create post", slog.String("slug", req.Slug), slog.String("error", err.Error()))
		return nil, err
	}

	s.invalidate()

	if post.Published {
		s.publish(ctx, post)
	}

	return post, nil
}

func createPayload(req *CreatePostRequest) any {
	fields := []struct{ name, value string }{
		{"title", req.Title},
		{"excerpt", req.Excerpt},
		{"content", req.Content},
		{"slug", req.Slug},
		{"category", req.Category},
		{"tags", req.Tags.String()},
		{"featured_post", strconv.FormatBool(req.FeaturedPost)},
		{"read_time", strconv.Itoa(req.ReadTime)},
		{"published", strconv.FormatBool(req.Published)},
	}

	if req.FeaturedImage == nil {
		payload := make(map[string]string, len(fields))
		for _, f := range fields {
			payload[f.name] = f.value
		}
		return payload
	}

	form := pocketbase.NewForm()
	for _, f := range fields {
		form.Set(f.name, f.value)
	}
	form.AddFile("featured_image", req.FeaturedImage.FileName, req.FeaturedImage.ContentType, req.FeaturedImage.Data)

	return form
}

// UpdatePost applies a partial update to the post with the given id.
func (s *PostService) UpdatePost(ctx context.Context, id string, req *UpdatePostRequest) (*Post, error) {
	v := common.NewValidator()
	validateID(v, id)
	if req.Title != nil {
		validateTitle(v, *req.Title)
	}
	if req.Excerpt != nil {
		validateExcerpt(v, *req.Excerpt)
	}
	if req.Content != nil {
		sanitized := sanitizeMarkdown(*req.Content)
		req.Content = &sanitized
		validateContent(v, *req.Content)
	}
	if req.Slug != nil {
		validateSlug(v, *req.Slug)
	}
	if req.Category != nil {
		validateCategory(v, *req.Category)
	}
	if req.Tags != nil {
		validateTags(v, *req.Tags)
	}
	if req.ReadTime != nil {
		validateReadTime(v, *req.ReadTime)
	}
	if !v.Valid() {
		return nil, v.ValidationError()
	}

	post, err := s.m.update(ctx, id, updatePayload(req))
	if err != nil {
		s.logger.Error("could not update post", slog.String("id", id), slog.String("error", err.Error()))
		return nil, err
	}

	s.invalidate()

	if req.Published != nil && *req.Published && post.Published {
		s.publish(ctx, post)
	}

	return post, nil
}

func updatePayload(req *UpdatePostRequest) map[string]any {
	payload := make(map[string]any)

	if req.Title != nil {
		payload["title"] = *req.Title
	}
	if req.Excerpt != nil {
		payload["excerpt"] = *req.Excerpt
	}
	if req.Content != nil {
		payload["content"] = *req.Content
	}
	if req.Slug != nil {
		payload["slug"] = *req.Slug
	}
	if req.Category != nil {
		payload["category"] = *req.Category
	}
	if req.Tags != nil {
		payload["tags"] = req.Tags.String()
	}
	if req.FeaturedPost != nil {
		payload["featured_post"] = *req.FeaturedPost
	}
	if req.ReadTime != nil {
		payload["read_time"] = *req.ReadTime
	}
	if req.Published != nil {
		payload["published"] = *req.Published
	}

	return payload
}

// DeletePost removes the post with the given id.
func (s *PostService) DeletePost(ctx context.Context, id string) error {
	v := common.NewValidator()
	validateID(v, id)
	if !v.Valid() {
		return v.ValidationError()
	}

	err := s.m.delete(ctx, id)
	if err != nil {
		s.logger.Error("could not delete post", slog.String("id", id), slog.String("error", err.Error()))
		return err
	}

	s.invalidate()

	return nil
}

// ImageURL returns the featured image URL of the post. ok is false when the post
// has no image attached.
func (s *PostService) ImageURL(post *Post) (url string, ok bool) {
	if post == nil || post.FeaturedImage == "" {
		return "", false
	}
	return s.b.FileURL(CollectionPosts, post.ID, post.FeaturedImage), true
}

func (s *PostService) invalidate() {
	s.c.DeletePrefix(common.CachePrefixPost)
}

// publish announces a published post. Failures are logged and do not fail the
// mutation that triggered them.
func (s *PostService) publish(ctx context.Context, post *Post) {
	if s.mb == nil {
		return
	}

	msg, err := common.PostPublishedMessage{
		ID:       post.ID,
		Title:    post.Title,
		Slug:     post.Slug,
		Excerpt:  post.Excerpt,
		Category: post.Category,
	}.Encode()
	if err != nil {
		s.logger.Error("could not encode post published message", slog.String("error", err.Error()))
		return
	}

	err = s.mb.Publish(ctx, msg, common.PostPublishedKey, common.PostExchange)
	if err != nil {
		s.logger.Error("could not publish post published message", slog.String("slug", post.Slug), slog.String("error", err.Error()))
	}
}
