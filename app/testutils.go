package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/sushihentaime/portfolio/internal/authservice"
	"github.com/sushihentaime/portfolio/internal/blogservice"
	"github.com/sushihentaime/portfolio/internal/common"
	"github.com/sushihentaime/portfolio/internal/content"
	"github.com/sushihentaime/portfolio/internal/pocketbase"
	"github.com/sushihentaime/portfolio/internal/pocketbase/pbtest"
)

type testServer struct {
	*httptest.Server
}

func newTestServer(t *testing.T, h http.Handler) *testServer {
	ts := httptest.NewServer(h)

	t.Cleanup(ts.Close)

	return &testServer{ts}
}

func readResponse(t *testing.T, res *http.Response) (int, http.Header, envelope) {
	defer res.Body.Close()

	responseBody, err := io.ReadAll(res.Body)
	if err != nil {
		t.Fatal(err)
	}

	var envelope envelope
	err = json.Unmarshal(responseBody, &envelope)
	if err != nil {
		t.Fatal(err)
	}

	return res.StatusCode, res.Header, envelope
}

func testConfig() *Config {
	return &Config{
		Port:           ":4000",
		Environment:    "testing",
		Version:        "1.0.0",
		TrustedOrigins: []string{"http://example.com"},
		CacheTTL:       time.Minute,
		RateLimitRPS:   2,
		RateLimitBurst: 4,
	}
}

// newTestApplication wires the application against an in-memory backend. No
// message broker is configured.
func newTestApplication(t *testing.T) (*application, *pbtest.Server) {
	t.Helper()

	srv := pbtest.NewServer(t)
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	pb := pocketbase.NewClient(srv.URL, 2*time.Second)
	cache := common.NewCache(time.Minute, 2*time.Minute)

	categories := blogservice.NewCategoryService(pb, cache, logger)
	tags := blogservice.NewTagService(pb, cache, logger)
	posts := blogservice.NewPostService(pb, cache, nil, logger)

	session := authservice.NewSession(pb, pb.AuthStore(), logger)
	session.Start()
	t.Cleanup(session.Close)

	app := &application{
		config:     testConfig(),
		logger:     logger,
		pb:         pb,
		categories: categories,
		tags:       tags,
		session:    session,
		content:    content.NewStore(posts, categories, tags, logger),
	}

	return app, srv
}

func (ts *testServer) do(t *testing.T, method, path string, body io.Reader, contentType string, token *string) (int, http.Header, envelope) {
	t.Helper()

	req, err := http.NewRequestWithContext(context.Background(), method, ts.URL+path, body)
	if err != nil {
		t.Fatal(err)
	}

	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if token != nil {
		req.Header.Set("Authorization", "Bearer "+*token)
	}

	res, err := ts.Client().Do(req)
	if err != nil {
		t.Fatal(err)
	}

	return readResponse(t, res)
}

func (ts *testServer) sendJSON(t *testing.T, method, path string, data any, token *string) (int, http.Header, envelope) {
	t.Helper()

	jsonPayload, err := json.Marshal(data)
	if err != nil {
		t.Fatal(err)
	}

	return ts.do(t, method, path, bytes.NewReader(jsonPayload), "application/json", token)
}

func (ts *testServer) post(t *testing.T, path string, data any, token *string) (int, http.Header, envelope) {
	return ts.sendJSON(t, http.MethodPost, path, data, token)
}

func (ts *testServer) patch(t *testing.T, path string, data any, token *string) (int, http.Header, envelope) {
	return ts.sendJSON(t, http.MethodPatch, path, data, token)
}

func (ts *testServer) get(t *testing.T, path string, token *string) (int, http.Header, envelope) {
	return ts.do(t, http.MethodGet, path, nil, "", token)
}

func (ts *testServer) delete(t *testing.T, path string, token *string) (int, http.Header, envelope) {
	return ts.do(t, http.MethodDelete, path, nil, "", token)
}

// postMultipart sends fields and an optional featured_image file as a form.
func (ts *testServer) postMultipart(t *testing.T, path string, fields map[string]string, fileName, fileType string, file []byte, token *string) (int, http.Header, envelope) {
	t.Helper()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}

	if file != nil {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", `form-data; name="featured_image"; filename="`+fileName+`"`)
		h.Set("Content-Type", fileType)
		part, err := mw.CreatePart(h)
		require.NoError(t, err)
		_, err = part.Write(file)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	return ts.do(t, http.MethodPost, path, &buf, mw.FormDataContentType(), token)
}

// login signs the admin in through the API and returns the bearer token.
func (ts *testServer) login(t *testing.T) string {
	t.Helper()

	status, _, body := ts.post(t, "/v1/admin/login", map[string]string{
		"email":    pbtest.AdminEmail,
		"password": pbtest.AdminPassword,
	}, nil)
	require.Equal(t, http.StatusOK, status)

	token, ok := body["token"].(string)
	require.True(t, ok)
	require.NotEmpty(t, token)

	return token
}

func strptr(s string) *string {
	return &s
}
