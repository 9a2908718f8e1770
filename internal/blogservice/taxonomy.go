package blogservice

import (
	"context"
	"errors"
	"log/slog"

	"github.com/sushihentaime/portfolio/internal/common"
	"github.com/sushihentaime/portfolio/internal/pocketbase"
)

const (
	categoriesPerPage = 50
	tagsPerPage       = 100
)

func NewCategoryService(b Backend, c *common.Cache, logger *slog.Logger) *CategoryService {
	c, logger = defaults(c, logger)
	return &CategoryService{m: newRecordModel[Category](b, CollectionCategories), c: c, logger: logger}
}

func NewTagService(b Backend, c *common.Cache, logger *slog.Logger) *TagService {
	c, logger = defaults(c, logger)
	return &TagService{m: newRecordModel[Tag](b, CollectionTags), c: c, logger: logger}
}

// GetCategories returns categories ordered by name.
func (s *CategoryService) GetCategories(ctx context.Context) ([]Category, error) {
	categories, err := s.m.list(ctx, "", "name", categoriesPerPage)
	if err != nil {
		s.logger.Error("could not fetch categories", slog.String("error", err.Error()))
		return nil, err
	}

	return categories, nil
}

func (s *CategoryService) GetCategoryBySlug(ctx context.Context, slug string) (*Category, error) {
	v := common.NewValidator()
	validateSlugLookup(v, slug)
	if !v.Valid() {
		return nil, v.ValidationError()
	}

	key := common.CacheKeyCategoryBySlug(slug)
	if cached, ok := s.c.Get(key); ok {
		category := cached.(Category)
		return &category, nil
	}

	category, err := s.m.getFirst(ctx, pocketbase.Filter("slug = {:slug}", pocketbase.Params{"slug": slug}))
	if err != nil {
		if !errors.Is(err, ErrRecordNotFound) {
			s.logger.Error("could not fetch category", slog.String("slug", slug), slog.String("error", err.Error()))
		}
		return nil, err
	}

	s.c.Set(key, *category)

	return category, nil
}

// GetTags returns tags ordered by name.
func (s *TagService) GetTags(ctx context.Context) ([]Tag, error) {
	tags, err := s.m.list(ctx, "", "name", tagsPerPage)
	if err != nil {
		s.logger.Error("could not fetch tags", slog.String("error", err.Error()))
		return nil, err
	}

	return tags, nil
}

func (s *TagService) GetTagBySlug(ctx context.Context, slug string) (*Tag, error) {
	v := common.NewValidator()
	validateSlugLookup(v, slug)
	if !v.Valid() {
		return nil, v.ValidationError()
	}

	key := common.CacheKeyTagBySlug(slug)
	if cached, ok := s.c.Get(key); ok {
		tag := cached.(Tag)
		return &tag, nil
	}

	tag, err := s.m.getFirst(ctx, pocketbase.Filter("slug = {:slug}", pocketbase.Params{"slug": slug}))
	if err != nil {
		if !errors.Is(err, ErrRecordNotFound) {
			s.logger.Error("could not fetch tag", slog.String("slug", slug), slog.String("error", err.Error()))
		}
		return nil, err
	}

	s.c.Set(key, *tag)

	return tag, nil
}
