package pocketbase

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// NewClient creates a client for the backend at baseURL. A zero timeout uses
// DefaultTimeout.
func NewClient(baseURL string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		store:   NewAuthStore(),
	}
}

func (c *Client) BaseURL() string {
	return c.baseURL
}

func (c *Client) AuthStore() *AuthStore {
	return c.store
}

// FileURL returns the public URL of a stored file.
func (c *Client) FileURL(collection, recordID, fileName string) string {
	return fmt.Sprintf("%s/api/files/%s/%s/%s", c.baseURL, url.PathEscape(collection), url.PathEscape(recordID), url.PathEscape(fileName))
}

func recordsPath(collection string) string {
	return "/api/collections/" + url.PathEscape(collection) + "/records"
}

func recordPath(collection, id string) string {
	return recordsPath(collection) + "/" + url.PathEscape(id)
}

// List fetches one page of records from the collection.
func (c *Client) List(ctx context.Context, collection string, page, perPage int, opts ListOptions) (*ListResult, error) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = 30
	}

	query := url.Values{}
	query.Set("page", strconv.Itoa(page))
	query.Set("perPage", strconv.Itoa(perPage))
	if opts.Filter != "" {
		query.Set("filter", opts.Filter)
	}
	if opts.Sort != "" {
		query.Set("sort", opts.Sort)
	}

	var result ListResult
	err := c.send(ctx, http.MethodGet, recordsPath(collection), query, nil, &result)
	if err != nil {
		return nil, err
	}

	return &result, nil
}

// GetFirst decodes the first record matching filter into dst. It fails with
// ErrNotFound when nothing matches.
func (c *Client) GetFirst(ctx context.Context, collection, filter string, dst any) error {
	result, err := c.List(ctx, collection, 1, 1, ListOptions{Filter: filter})
	if err != nil {
		return err
	}

	var items []json.RawMessage
	if err := result.DecodeItems(&items); err != nil {
		return err
	}

	if len(items) == 0 {
		return &APIError{Status: http.StatusNotFound, Message: "The requested resource wasn't found."}
	}

	return json.Unmarshal(items[0], dst)
}

func (c *Client) GetOne(ctx context.Context, collection, id string, dst any) error {
	return c.send(ctx, http.MethodGet, recordPath(collection, id), nil, nil, dst)
}

// Create stores a new record. payload is either a *Form (required when a file is
// attached) or any value that encodes to a JSON object.
func (c *Client) Create(ctx context.Context, collection string, payload, dst any) error {
	return c.send(ctx, http.MethodPost, recordsPath(collection), nil, payload, dst)
}

// Update applies a partial payload to an existing record.
func (c *Client) Update(ctx context.Context, collection, id string, payload, dst any) error {
	return c.send(ctx, http.MethodPatch, recordPath(collection, id), nil, payload, dst)
}

func (c *Client) Delete(ctx context.Context, collection, id string) error {
	return c.send(ctx, http.MethodDelete, recordPath(collection, id), nil, nil, nil)
}

// Health reports whether the backend answers its health endpoint.
func (c *Client) Health(ctx context.Context) error {
	return c.send(ctx, http.MethodGet, "/api/health", nil, nil, nil)
}

func (c *Client) send(ctx context.Context, method, path string, query url.Values, payload, dst any) error {
	body, contentType, err := encodePayload(payload)
	if err != nil {
		return err
	}

	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return err
	}

	req.Header.Set("Accept", "application/json")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if token := c.store.Token(); token != "" {
		req.Header.Set("Authorization", token)
	}

	res, err := c.http.Do(req)
	if err != nil {
		return networkError(err)
	}
	defer res.Body.Close()

	data, err := io.ReadAll(res.Body)
	if err != nil {
		return networkError(err)
	}

	if res.StatusCode >= http.StatusBadRequest {
		apiErr := &APIError{}
		if len(data) > 0 {
			// a body that is not the usual error object still yields the status
			_ = json.Unmarshal(data, apiErr)
		}
		apiErr.Status = res.StatusCode
		if apiErr.Message == "" {
			apiErr.Message = http.StatusText(res.StatusCode)
		}
		return apiErr
	}

	if dst == nil || len(data) == 0 {
		return nil
	}

	if err := json.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("could not decode backend response: %w", err)
	}

	return nil
}

func encodePayload(payload any) (io.Reader, string, error) {
	switch p := payload.(type) {
	case nil:
		return nil, "", nil
	case *Form:
		return p.encode()
	default:
		b, err := json.Marshal(p)
		if err != nil {
			return nil, "", fmt.Errorf("could not encode payload: %w", err)
		}
		return bytes.NewReader(b), "application/json", nil
	}
}

// IsNotFound reports whether err means no record matched.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
