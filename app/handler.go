package main

import (
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strconv"

	"github.com/sushihentaime/portfolio/internal/blogservice"
	"github.com/sushihentaime/portfolio/internal/content"
)

const (
	maxUploadSize = 6 << 20
	maxImageBytes = 5 << 20
)

// postResponse adds the resolved image URL to a post.
type postResponse struct {
	blogservice.Post
	FeaturedImageURL string `json:"featured_image_url,omitempty"`
}

func (app *application) postResponse(post *blogservice.Post) postResponse {
	url, _ := app.content.PostImageURL(post)
	return postResponse{Post: *post, FeaturedImageURL: url}
}

func (app *application) postsResponse(posts []blogservice.Post) []postResponse {
	out := make([]postResponse, 0, len(posts))
	for i := range posts {
		out = append(out, app.postResponse(&posts[i]))
	}
	return out
}

func (app *application) getPostsHandler(w http.ResponseWriter, r *http.Request) {
	posts, err := app.content.CachedPosts(r.Context(), app.config.CacheTTL)
	if err != nil {
		app.contentErrorResponse(w, r, err)
		return
	}

	err = app.writeJSON(w, http.StatusOK, envelope{"posts": app.postsResponse(posts)}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func (app *application) getFeaturedPostsHandler(w http.ResponseWriter, r *http.Request) {
	posts, err := app.content.GetFeaturedPosts(r.Context())
	if err != nil {
		app.contentErrorResponse(w, r, err)
		return
	}

	err = app.writeJSON(w, http.StatusOK, envelope{"posts": app.postsResponse(posts)}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func (app *application) getPostsByCategoryHandler(w http.ResponseWriter, r *http.Request) {
	category, err := app.readParam(r, "category")
	if err != nil {
		app.badRequestErrorResponse(w, r, err)
		return
	}

	posts, err := app.content.GetPostsByCategory(r.Context(), category)
	if err != nil {
		app.contentErrorResponse(w, r, err)
		return
	}

	err = app.writeJSON(w, http.StatusOK, envelope{"posts": app.postsResponse(posts)}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func (app *application) getPostBySlugHandler(w http.ResponseWriter, r *http.Request) {
	slug, err := app.readParam(r, "slug")
	if err != nil {
		app.badRequestErrorResponse(w, r, err)
		return
	}

	post, err := app.content.GetPostBySlug(r.Context(), slug)
	if err != nil {
		app.contentErrorResponse(w, r, err)
		return
	}

	err = app.writeJSON(w, http.StatusOK, envelope{"post": app.postResponse(post)}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

type createPostRequest struct {
	Title        string `json:"title"`
	Excerpt      string `json:"excerpt"`
	Content      string `json:"content"`
	Category     string `json:"category"`
	Tags         string `json:"tags"`
	FeaturedPost bool   `json:"featured_post"`
	Published    *bool  `json:"published"`
}

func (app *application) createPostHandler(w http.ResponseWriter, r *http.Request) {
	var input content.CreatePostInput

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "multipart/form-data" {
		in, err := app.parseMultipartPost(w, r)
		if err != nil {
			app.badRequestErrorResponse(w, r, err)
			return
		}
		input = *in
	} else {
		var req createPostRequest
		err := app.parseJSON(w, r, &req)
		if err != nil {
			app.badRequestErrorResponse(w, r, err)
			return
		}
		input = content.CreatePostInput{
			Title:        req.Title,
			Excerpt:      req.Excerpt,
			Content:      req.Content,
			Category:     req.Category,
			Tags:         req.Tags,
			FeaturedPost: req.FeaturedPost,
			Published:    req.Published,
		}
	}

	post, err := app.content.CreatePost(r.Context(), input)
	if err != nil {
		app.contentErrorResponse(w, r, err)
		return
	}

	headers := make(http.Header)
	headers.Set("Location", fmt.Sprintf("/v1/posts/slug/%s", post.Slug))

	err = app.writeJSON(w, http.StatusCreated, envelope{"post": app.postResponse(post)}, headers)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

// parseMultipartPost reads a post submitted as a form, with an optional
// featured_image file.
func (app *application) parseMultipartPost(w http.ResponseWriter, r *http.Request) (*content.CreatePostInput, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)

	err := r.ParseMultipartForm(maxUploadSize)
	if err != nil {
		var maxBytesError *http.MaxBytesError
		if errors.As(err, &maxBytesError) {
			return nil, fmt.Errorf("request body must not be larger than %d bytes", maxBytesError.Limit)
		}
		return nil, errors.New("request body contains a malformed form")
	}

	input := &content.CreatePostInput{
		Title:    r.PostFormValue("title"),
		Excerpt:  r.PostFormValue("excerpt"),
		Content:  r.PostFormValue("content"),
		Category: r.PostFormValue("category"),
		Tags:     r.PostFormValue("tags"),
	}

	if v := r.PostFormValue("featured_post"); v != "" {
		input.FeaturedPost, err = strconv.ParseBool(v)
		if err != nil {
			return nil, errors.New("featured_post must be a boolean")
		}
	}

	if v := r.PostFormValue("published"); v != "" {
		published, err := strconv.ParseBool(v)
		if err != nil {
			return nil, errors.New("published must be a boolean")
		}
		input.Published = &published
	}

	file, header, err := r.FormFile("featured_image")
	switch {
	case errors.Is(err, http.ErrMissingFile):
		return input, nil
	case err != nil:
		return nil, errors.New("featured_image could not be read")
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxImageBytes+1))
	if err != nil {
		return nil, errors.New("featured_image could not be read")
	}

	contentType := header.Header.Get("Content-Type")
	if contentType == "" || contentType == "application/octet-stream" {
		contentType = http.DetectContentType(data)
	}

	input.FeaturedImage = &blogservice.ImageUpload{
		FileName:    header.Filename,
		ContentType: contentType,
		Data:        data,
	}

	return input, nil
}

func (app *application) updatePostHandler(w http.ResponseWriter, r *http.Request) {
	id, err := app.readParam(r, "id")
	if err != nil {
		app.badRequestErrorResponse(w, r, err)
		return
	}

	var input blogservice.UpdatePostRequest
	err = app.parseJSON(w, r, &input)
	if err != nil {
		app.badRequestErrorResponse(w, r, err)
		return
	}

	post, err := app.content.UpdatePost(r.Context(), id, &input)
	if err != nil {
		app.contentErrorResponse(w, r, err)
		return
	}

	err = app.writeJSON(w, http.StatusOK, envelope{"post": app.postResponse(post)}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func (app *application) deletePostHandler(w http.ResponseWriter, r *http.Request) {
	id, err := app.readParam(r, "id")
	if err != nil {
		app.badRequestErrorResponse(w, r, err)
		return
	}

	err = app.content.DeletePost(r.Context(), id)
	if err != nil {
		app.contentErrorResponse(w, r, err)
		return
	}

	err = app.writeJSON(w, http.StatusOK, envelope{"message": "post successfully deleted"}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func (app *application) getCategoriesHandler(w http.ResponseWriter, r *http.Request) {
	err := app.content.FetchCategories(r.Context())
	if err != nil {
		app.contentErrorResponse(w, r, err)
		return
	}

	err = app.writeJSON(w, http.StatusOK, envelope{"categories": app.content.Snapshot().Categories}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func (app *application) getCategoryHandler(w http.ResponseWriter, r *http.Request) {
	slug, err := app.readParam(r, "slug")
	if err != nil {
		app.badRequestErrorResponse(w, r, err)
		return
	}

	category, err := app.categories.GetCategoryBySlug(r.Context(), slug)
	if err != nil {
		app.contentErrorResponse(w, r, err)
		return
	}

	err = app.writeJSON(w, http.StatusOK, envelope{"category": category}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func (app *application) getTagsHandler(w http.ResponseWriter, r *http.Request) {
	err := app.content.FetchTags(r.Context())
	if err != nil {
		app.contentErrorResponse(w, r, err)
		return
	}

	err = app.writeJSON(w, http.StatusOK, envelope{"tags": app.content.Snapshot().Tags}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func (app *application) getTagHandler(w http.ResponseWriter, r *http.Request) {
	slug, err := app.readParam(r, "slug")
	if err != nil {
		app.badRequestErrorResponse(w, r, err)
		return
	}

	tag, err := app.tags.GetTagBySlug(r.Context(), slug)
	if err != nil {
		app.contentErrorResponse(w, r, err)
		return
	}

	err = app.writeJSON(w, http.StatusOK, envelope{"tag": tag}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}
