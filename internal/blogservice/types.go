package blogservice

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"

	"github.com/sushihentaime/portfolio/internal/common"
	"github.com/sushihentaime/portfolio/internal/pocketbase"
)

const (
	CollectionPosts      = "posts"
	CollectionCategories = "categories"
	CollectionTags       = "tags"
)

// Backend is the subset of the content backend client the services need.
type Backend interface {
	List(ctx context.Context, collection string, page, perPage int, opts pocketbase.ListOptions) (*pocketbase.ListResult, error)
	GetFirst(ctx context.Context, collection, filter string, dst any) error
	Create(ctx context.Context, collection string, payload, dst any) error
	Update(ctx context.Context, collection, id string, payload, dst any) error
	Delete(ctx context.Context, collection, id string) error
	FileURL(collection, recordID, fileName string) string
}

type Post struct {
	ID      string `json:"id"`
	Title   string `json:"title"`
	Excerpt string `json:"excerpt"`
	// Content is stored as Markdown.
	Content       string              `json:"content"`
	Slug          string              `json:"slug"`
	Category      string              `json:"category"`
	Tags          Tags                `json:"tags"`
	FeaturedImage string              `json:"featured_image,omitempty"`
	FeaturedPost  bool                `json:"featured_post"`
	ReadTime      int                 `json:"read_time"`
	Published     bool                `json:"published"`
	Created       pocketbase.DateTime `json:"created"`
	Updated       pocketbase.DateTime `json:"updated"`
}

type Category struct {
	ID          string              `json:"id"`
	Name        string              `json:"name"`
	Slug        string              `json:"slug"`
	Description string              `json:"description,omitempty"`
	Created     pocketbase.DateTime `json:"created"`
	Updated     pocketbase.DateTime `json:"updated"`
}

type Tag struct {
	ID      string              `json:"id"`
	Name    string              `json:"name"`
	Slug    string              `json:"slug"`
	Created pocketbase.DateTime `json:"created"`
	Updated pocketbase.DateTime `json:"updated"`
}

// Tags is stored by the backend as comma separated text. It decodes from either
// that text or a JSON array and always encodes as an array.
type Tags []string

func ParseTags(s string) Tags {
	tags := Tags{}
	for _, t := range strings.Split(s, ",") {
		if t = strings.TrimSpace(t); t != "" {
			tags = append(tags, t)
		}
	}
	return tags
}

func (t Tags) String() string {
	return strings.Join(t, ",")
}

func (t Tags) MarshalJSON() ([]byte, error) {
	if t == nil {
		return []byte("[]"), nil
	}
	return json.Marshal([]string(t))
}

func (t *Tags) UnmarshalJSON(b []byte) error {
	var list []string
	if err := json.Unmarshal(b, &list); err == nil {
		*t = ParseTags(strings.Join(list, ","))
		return nil
	}

	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	*t = ParseTags(s)
	return nil
}

// ImageUpload is a featured image to attach to a post.
type ImageUpload struct {
	FileName    string
	ContentType string
	Data        []byte
}

type CreatePostRequest struct {
	Title         string       `json:"title"`
	Excerpt       string       `json:"excerpt"`
	Content       string       `json:"content"`
	Slug          string       `json:"slug"`
	Category      string       `json:"category"`
	Tags          Tags         `json:"tags"`
	FeaturedPost  bool         `json:"featured_post"`
	ReadTime      int          `json:"read_time"`
	Published     bool         `json:"published"`
	FeaturedImage *ImageUpload `json:"-"`
}

// UpdatePostRequest holds a partial update. Nil fields are left unchanged.
type UpdatePostRequest struct {
	Title        *string `json:"title"`
	Excerpt      *string `json:"excerpt"`
	Content      *string `json:"content"`
	Slug         *string `json:"slug"`
	Category     *string `json:"category"`
	Tags         *Tags   `json:"tags"`
	FeaturedPost *bool   `json:"featured_post"`
	ReadTime     *int    `json:"read_time"`
	Published    *bool   `json:"published"`
}

// recordModel reads and writes one backend collection as records of type T.
type recordModel[T any] struct {
	b          Backend
	collection string
}

type PostService struct {
	m      *recordModel[Post]
	b      Backend
	c      *common.Cache
	mb     common.MessageProducer
	logger *slog.Logger
}

type CategoryService struct {
	m      *recordModel[Category]
	c      *common.Cache
	logger *slog.Logger
}

type TagService struct {
	m      *recordModel[Tag]
	c      *common.Cache
	logger *slog.Logger
}
