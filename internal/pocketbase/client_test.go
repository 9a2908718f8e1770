package pocketbase

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/sushihentaime/portfolio/internal/common"
	"github.com/sushihentaime/portfolio/internal/pocketbase/pbtest"
)

type testPost struct {
	ID        string   `json:"id"`
	Title     string   `json:"title"`
	Slug      string   `json:"slug"`
	Published bool     `json:"published"`
	Image     string   `json:"featured_image"`
	Created   DateTime `json:"created"`
}

func setupTestEnvironment(t *testing.T) (*Client, *pbtest.Server) {
	t.Helper()

	srv := pbtest.NewServer(t)
	return NewClient(srv.URL, 2*time.Second), srv
}

func loginAdmin(t *testing.T, c *Client) {
	t.Helper()

	_, err := c.AuthWithPassword(context.Background(), pbtest.AdminEmail, pbtest.AdminPassword)
	require.NoError(t, err)
}

func TestNewClientDefaults(t *testing.T) {
	c := NewClient("", 0)
	assert.Equal(t, DefaultBaseURL, c.BaseURL())
	assert.Equal(t, DefaultTimeout, c.http.Timeout)

	c = NewClient("http://localhost:8090/", time.Second)
	assert.Equal(t, "http://localhost:8090", c.BaseURL())
}

func TestFileURL(t *testing.T) {
	c := NewClient("http://127.0.0.1:8090", 0)
	assert.Equal(t, "http://127.0.0.1:8090/api/files/posts/abc123/cover.png", c.FileURL("posts", "abc123", "cover.png"))
}

func TestList(t *testing.T) {
	c, srv := setupTestEnvironment(t)

	srv.Seed("posts", pbtest.Record{"title": "First", "slug": "first", "published": true})
	srv.Seed("posts", pbtest.Record{"title": "Draft", "slug": "draft", "published": false})
	srv.Seed("posts", pbtest.Record{"title": "Second", "slug": "second", "published": true})

	res, err := c.List(context.Background(), "posts", 1, 50, ListOptions{Filter: "published = true", Sort: "-created"})
	require.NoError(t, err)

	var posts []testPost
	require.NoError(t, res.DecodeItems(&posts))

	assert.Equal(t, 2, res.TotalItems)
	require.Len(t, posts, 2)
	assert.Equal(t, "second", posts[0].Slug)
	assert.Equal(t, "first", posts[1].Slug)
	assert.False(t, posts[0].Created.IsZero())

	requests := srv.Requests()
	require.NotEmpty(t, requests)
	assert.Contains(t, requests[len(requests)-1], "perPage=50")
	assert.Contains(t, requests[len(requests)-1], "sort=-created")
}

func TestGetFirst(t *testing.T) {
	c, srv := setupTestEnvironment(t)
	srv.Seed("posts", pbtest.Record{"title": "Hello", "slug": "hello", "published": true})

	testCases := []struct {
		name        string
		filter      string
		wantSlug    string
		expectedErr error
	}{
		{
			name:     "match",
			filter:   Filter("slug = {:slug}", Params{"slug": "hello"}),
			wantSlug: "hello",
		},
		{
			name:        "no match",
			filter:      Filter("slug = {:slug}", Params{"slug": "missing"}),
			expectedErr: ErrNotFound,
		},
		{
			name:        "injection stays literal",
			filter:      Filter("slug = {:slug}", Params{"slug": `x" && published = true && slug = "hello`}),
			expectedErr: ErrNotFound,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			var p testPost
			err := c.GetFirst(context.Background(), "posts", tc.filter, &p)
			if tc.expectedErr != nil {
				assert.ErrorIs(t, err, tc.expectedErr)
				assert.True(t, IsNotFound(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.wantSlug, p.Slug)
		})
	}
}

func TestCreateUpdateDelete(t *testing.T) {
	c, srv := setupTestEnvironment(t)
	ctx := context.Background()

	var created testPost
	err := c.Create(ctx, "posts", map[string]any{"title": "Hello", "slug": "hello"}, &created)
	assert.ErrorIs(t, err, ErrAuth, "writes require an admin token")

	loginAdmin(t, c)

	err = c.Create(ctx, "posts", map[string]any{"title": "Hello", "slug": "hello", "published": true}, &created)
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	assert.True(t, created.Published)

	var updated testPost
	err = c.Update(ctx, "posts", created.ID, map[string]any{"title": "Hello again"}, &updated)
	require.NoError(t, err)
	assert.Equal(t, "Hello again", updated.Title)
	assert.Equal(t, "hello", updated.Slug)

	err = c.Update(ctx, "posts", "missing", map[string]any{"title": "x"}, nil)
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, c.Delete(ctx, "posts", created.ID))
	assert.Empty(t, srv.Records("posts"))

	err = c.Delete(ctx, "posts", created.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCreateDuplicateSlug(t *testing.T) {
	c, srv := setupTestEnvironment(t)
	loginAdmin(t, c)
	srv.Seed("posts", pbtest.Record{"title": "Hello", "slug": "hello"})

	err := c.Create(context.Background(), "posts", map[string]any{"title": "Hello", "slug": "hello"}, nil)
	require.Error(t, err)

	var verr common.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "Value must be unique.", verr.Errors["slug"])

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusBadRequest, apiErr.Status)
	assert.Len(t, srv.Records("posts"), 1)
}

func TestCreateMultipart(t *testing.T) {
	c, srv := setupTestEnvironment(t)
	loginAdmin(t, c)

	form := NewForm()
	form.Set("title", "With image")
	form.Set("slug", "with-image")
	form.Set("published", "true")
	form.Set("read_time", "3")
	form.AddFile("featured_image", "cover.png", "image/png", []byte("\x89PNG fake"))
	assert.True(t, form.HasFiles())

	var created testPost
	require.NoError(t, c.Create(context.Background(), "posts", form, &created))

	assert.Equal(t, "cover.png", created.Image)
	assert.True(t, created.Published)

	recs := srv.Records("posts")
	require.Len(t, recs, 1)
	assert.Equal(t, float64(3), recs[0]["read_time"])
}

func TestNetworkFailure(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := ts.URL
	ts.Close()

	c := NewClient(url, time.Second)
	_, err := c.List(context.Background(), "posts", 1, 10, ListOptions{})
	assert.ErrorIs(t, err, ErrNetwork)

	assert.ErrorIs(t, c.Health(context.Background()), ErrNetwork)
}

func TestNonJSONErrorBody(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream exploded", http.StatusBadGateway)
	}))
	t.Cleanup(ts.Close)

	c := NewClient(ts.URL, time.Second)
	err := c.Health(context.Background())

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusBadGateway, apiErr.Status)
	assert.True(t, strings.Contains(apiErr.Error(), "502"))
}

func TestHealth(t *testing.T) {
	c, _ := setupTestEnvironment(t)
	assert.NoError(t, c.Health(context.Background()))
}

func TestAuthWithPassword(t *testing.T) {
	c, _ := setupTestEnvironment(t)
	ctx := context.Background()

	_, err := c.AuthWithPassword(ctx, pbtest.AdminEmail, "wrong")
	assert.ErrorIs(t, err, ErrAuth)
	assert.Empty(t, c.AuthStore().Token())

	res, err := c.AuthWithPassword(ctx, pbtest.AdminEmail, pbtest.AdminPassword)
	require.NoError(t, err)
	assert.NotEmpty(t, res.Token)
	assert.Equal(t, pbtest.AdminEmail, res.Admin.Email)
	assert.Equal(t, PrincipalAdmin, res.Admin.Type)

	assert.Equal(t, res.Token, c.AuthStore().Token())
	assert.True(t, c.AuthStore().IsValid())
	assert.True(t, c.AuthStore().IsAdmin())
}
