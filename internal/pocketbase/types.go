package pocketbase

import (
	"encoding/json"
	"net/http"
	"strings"
	"sync"
	"time"
)

const (
	DefaultBaseURL = "http://127.0.0.1:8090"
	DefaultTimeout = 10 * time.Second

	PrincipalAdmin = "admin"
)

type Client struct {
	baseURL string
	http    *http.Client
	store   *AuthStore
}

type ListOptions struct {
	Filter string
	Sort   string
}

// ListResult is one page of records. Items holds the raw JSON array so callers can
// decode into their own record type.
type ListResult struct {
	Page       int             `json:"page"`
	PerPage    int             `json:"perPage"`
	TotalItems int             `json:"totalItems"`
	TotalPages int             `json:"totalPages"`
	Items      json.RawMessage `json:"items"`
}

// DecodeItems unmarshals the page items into dst, which must be a pointer to a slice.
func (r *ListResult) DecodeItems(dst any) error {
	if len(r.Items) == 0 {
		return nil
	}
	return json.Unmarshal(r.Items, dst)
}

type Admin struct {
	ID      string   `json:"id"`
	Email   string   `json:"email"`
	Avatar  int      `json:"avatar"`
	Created DateTime `json:"created"`
	Updated DateTime `json:"updated"`

	// Type is the principal type attached to the session. It is not sent by the
	// backend; the client sets it from the endpoint used to authenticate.
	Type string `json:"-"`
}

type AuthResponse struct {
	Token string `json:"token"`
	Admin *Admin `json:"admin"`
}

type AuthStore struct {
	mu        sync.RWMutex
	token     string
	model     *Admin
	timer     *time.Timer
	listeners map[int]func(token string, model *Admin)
	nextID    int
}

// DateTime reads the backend's "2006-01-02 15:04:05.000Z" timestamps.
type DateTime struct {
	time.Time
}

const dateTimeLayout = "2006-01-02 15:04:05.000Z"

func (d *DateTime) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}

	s = strings.TrimSpace(s)
	if s == "" {
		d.Time = time.Time{}
		return nil
	}

	t, err := time.Parse(dateTimeLayout, s)
	if err != nil {
		t, err = time.Parse(time.RFC3339, s)
		if err != nil {
			return err
		}
	}

	d.Time = t.UTC()
	return nil
}

func (d DateTime) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return json.Marshal("")
	}
	return json.Marshal(d.UTC().Format(dateTimeLayout))
}

func (d DateTime) String() string {
	if d.IsZero() {
		return ""
	}
	return d.UTC().Format(dateTimeLayout)
}
