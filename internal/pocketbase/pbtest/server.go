// Package pbtest provides an in-memory stand-in for the content backend, for
// use in tests.
package pbtest

import (
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/http/httptest"
	"sort"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-jose/go-jose/v4"
	"github.com/go-jose/go-jose/v4/jwt"
)

const (
	AdminEmail    = "admin@example.com"
	AdminPassword = "Admin_1234!"
)

var signingKey = []byte("pbtest-signing-key-0123456789abcdef")

type Record map[string]any

type Server struct {
	*httptest.Server

	mu       sync.Mutex
	records  map[string][]Record
	unique   map[string][]string
	bools    map[string]bool
	numbers  map[string]bool
	tokens   map[string]bool
	failures map[string]int
	requests []string
	seq      int
	epoch    time.Time
	tokenTTL time.Duration
}

// NewServer starts a backend with empty posts, categories and tags collections.
// It is closed when the test ends.
func NewServer(t testing.TB) *Server {
	t.Helper()

	s := &Server{
		records: map[string][]Record{
			"posts":      nil,
			"categories": nil,
			"tags":       nil,
		},
		unique: map[string][]string{
			"posts":      {"slug"},
			"categories": {"slug"},
			"tags":       {"slug"},
		},
		bools:    map[string]bool{"featured_post": true, "published": true},
		numbers:  map[string]bool{"read_time": true},
		tokens:   make(map[string]bool),
		failures: make(map[string]int),
		epoch:    time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		tokenTTL: time.Hour,
	}

	s.Server = httptest.NewServer(http.HandlerFunc(s.serve))
	t.Cleanup(s.Server.Close)

	return s
}

// NewToken signs a token of the given principal type that expires after ttl.
func NewToken(t testing.TB, principal string, ttl time.Duration) string {
	t.Helper()

	token, err := signToken(principal, ttl)
	if err != nil {
		t.Fatalf("could not sign token: %v", err)
	}
	return token
}

func signToken(principal string, ttl time.Duration) (string, error) {
	sig, err := jose.NewSigner(jose.SigningKey{Algorithm: jose.HS256, Key: signingKey}, (&jose.SignerOptions{}).WithType("JWT"))
	if err != nil {
		return "", err
	}

	claims := struct {
		jwt.Claims
		Type string `json:"type"`
	}{
		Claims: jwt.Claims{
			Subject:  "admin0000000001",
			IssuedAt: jwt.NewNumericDate(time.Now()),
			Expiry:   jwt.NewNumericDate(time.Now().Add(ttl)),
		},
		Type: principal,
	}

	return jwt.Signed(sig).Claims(claims).Serialize()
}

// Seed inserts a record directly, filling id and timestamps.
func (s *Server) Seed(collection string, r Record) Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.insertLocked(collection, r)
}

// Records returns a copy of the stored records of a collection.
func (s *Server) Records(collection string) []Record {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Record, 0, len(s.records[collection]))
	for _, r := range s.records[collection] {
		out = append(out, copyRecord(r))
	}
	return out
}

// Fail makes every request to the collection answer with status.
// A zero status clears the failure.
func (s *Server) Fail(collection string, status int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if status == 0 {
		delete(s.failures, collection)
		return
	}
	s.failures[collection] = status
}

// SetTokenTTL sets the lifetime of tokens issued by later logins.
func (s *Server) SetTokenTTL(ttl time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokenTTL = ttl
}

// Requests returns "METHOD path?query" for every request served so far.
func (s *Server) Requests() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.requests...)
}

func (s *Server) serve(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	s.requests = append(s.requests, r.Method+" "+r.URL.RequestURI())
	s.mu.Unlock()

	path := strings.Trim(r.URL.Path, "/")
	parts := strings.Split(path, "/")

	switch {
	case path == "api/health":
		writeJSON(w, http.StatusOK, map[string]any{"code": 200, "message": "API is healthy."})
	case path == "api/admins/auth-with-password" && r.Method == http.MethodPost:
		s.authWithPassword(w, r)
	case len(parts) >= 4 && parts[0] == "api" && parts[1] == "collections" && parts[3] == "records":
		collection := parts[2]
		id := ""
		if len(parts) == 5 {
			id = parts[4]
		}
		s.handleRecords(w, r, collection, id)
	default:
		writeError(w, http.StatusNotFound, "The requested resource wasn't found.", nil)
	}
}

func (s *Server) authWithPassword(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Identity string `json:"identity"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeError(w, http.StatusBadRequest, "Failed to load the submitted data.", nil)
		return
	}

	if input.Identity != AdminEmail || input.Password != AdminPassword {
		writeError(w, http.StatusBadRequest, "Failed to authenticate.", nil)
		return
	}

	s.mu.Lock()
	ttl := s.tokenTTL
	s.mu.Unlock()

	token, err := signToken("admin", ttl)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error(), nil)
		return
	}

	s.mu.Lock()
	s.tokens[token] = true
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, map[string]any{
		"token": token,
		"admin": map[string]any{
			"id":      "admin0000000001",
			"email":   AdminEmail,
			"avatar":  0,
			"created": s.epoch.Format("2006-01-02 15:04:05.000Z"),
			"updated": s.epoch.Format("2006-01-02 15:04:05.000Z"),
		},
	})
}

func (s *Server) handleRecords(w http.ResponseWriter, r *http.Request, collection, id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if status, ok := s.failures[collection]; ok {
		writeError(w, status, http.StatusText(status), nil)
		return
	}

	if _, ok := s.records[collection]; !ok {
		writeError(w, http.StatusNotFound, "Missing collection context.", nil)
		return
	}

	switch {
	case r.Method == http.MethodGet && id == "":
		s.listLocked(w, r, collection)
	case r.Method == http.MethodGet:
		rec, _ := s.findLocked(collection, id)
		if rec == nil {
			writeError(w, http.StatusNotFound, "The requested resource wasn't found.", nil)
			return
		}
		writeJSON(w, http.StatusOK, rec)
	case r.Method == http.MethodPost && id == "":
		if !s.authorizedLocked(r) {
			writeError(w, http.StatusForbidden, "Only admins can perform this action.", nil)
			return
		}
		input, err := s.readInput(r, collection)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Failed to load the submitted data.", nil)
			return
		}
		if field, ok := s.conflictLocked(collection, input, ""); !ok {
			writeError(w, http.StatusBadRequest, "Failed to create record.", map[string]any{
				field: map[string]string{"code": "validation_not_unique", "message": "Value must be unique."},
			})
			return
		}
		writeJSON(w, http.StatusOK, s.insertLocked(collection, input))
	case r.Method == http.MethodPatch:
		if !s.authorizedLocked(r) {
			writeError(w, http.StatusForbidden, "Only admins can perform this action.", nil)
			return
		}
		rec, _ := s.findLocked(collection, id)
		if rec == nil {
			writeError(w, http.StatusNotFound, "The requested resource wasn't found.", nil)
			return
		}
		input, err := s.readInput(r, collection)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Failed to load the submitted data.", nil)
			return
		}
		if field, ok := s.conflictLocked(collection, input, id); !ok {
			writeError(w, http.StatusBadRequest, "Failed to update record.", map[string]any{
				field: map[string]string{"code": "validation_not_unique", "message": "Value must be unique."},
			})
			return
		}
		for k, v := range input {
			rec[k] = v
		}
		s.seq++
		rec["updated"] = s.epoch.Add(time.Duration(s.seq) * time.Second).Format("2006-01-02 15:04:05.000Z")
		writeJSON(w, http.StatusOK, rec)
	case r.Method == http.MethodDelete:
		if !s.authorizedLocked(r) {
			writeError(w, http.StatusForbidden, "Only admins can perform this action.", nil)
			return
		}
		_, idx := s.findLocked(collection, id)
		if idx < 0 {
			writeError(w, http.StatusNotFound, "The requested resource wasn't found.", nil)
			return
		}
		recs := s.records[collection]
		s.records[collection] = append(recs[:idx], recs[idx+1:]...)
		w.WriteHeader(http.StatusNoContent)
	default:
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed.", nil)
	}
}

func (s *Server) authorizedLocked(r *http.Request) bool {
	return s.tokens[r.Header.Get("Authorization")]
}

func (s *Server) listLocked(w http.ResponseWriter, r *http.Request, collection string) {
	q := r.URL.Query()

	page, _ := strconv.Atoi(q.Get("page"))
	if page < 1 {
		page = 1
	}
	perPage, _ := strconv.Atoi(q.Get("perPage"))
	if perPage < 1 {
		perPage = 30
	}

	conds, err := parseFilter(q.Get("filter"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid filter parameters.", nil)
		return
	}

	var matched []Record
	for _, rec := range s.records[collection] {
		if matches(rec, conds) {
			matched = append(matched, copyRecord(rec))
		}
	}

	sortRecords(matched, q.Get("sort"))

	total := len(matched)
	start := (page - 1) * perPage
	if start > total {
		start = total
	}
	end := start + perPage
	if end > total {
		end = total
	}

	items := matched[start:end]
	if items == nil {
		items = []Record{}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"page":       page,
		"perPage":    perPage,
		"totalItems": total,
		"totalPages": (total + perPage - 1) / perPage,
		"items":      items,
	})
}

func (s *Server) findLocked(collection, id string) (Record, int) {
	for i, rec := range s.records[collection] {
		if rec["id"] == id {
			return rec, i
		}
	}
	return nil, -1
}

func (s *Server) conflictLocked(collection string, input Record, selfID string) (string, bool) {
	for _, field := range s.unique[collection] {
		v, ok := input[field]
		if !ok {
			continue
		}
		for _, rec := range s.records[collection] {
			if rec["id"] != selfID && rec[field] == v {
				return field, false
			}
		}
	}
	return "", true
}

func (s *Server) insertLocked(collection string, r Record) Record {
	s.seq++
	rec := copyRecord(r)
	if _, ok := rec["id"]; !ok {
		rec["id"] = fmt.Sprintf("rec%012d", s.seq)
	}
	ts := s.epoch.Add(time.Duration(s.seq) * time.Second).Format("2006-01-02 15:04:05.000Z")
	if _, ok := rec["created"]; !ok {
		rec["created"] = ts
	}
	rec["updated"] = ts

	s.records[collection] = append(s.records[collection], rec)
	return copyRecord(rec)
}

func (s *Server) readInput(r *http.Request, collection string) (Record, error) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))

	if mediaType == "multipart/form-data" {
		if err := r.ParseMultipartForm(10 << 20); err != nil {
			return nil, err
		}

		rec := Record{}
		for k, vs := range r.MultipartForm.Value {
			if len(vs) == 0 {
				continue
			}
			rec[k] = s.coerce(k, vs[0])
		}
		for k, fhs := range r.MultipartForm.File {
			if len(fhs) > 0 {
				rec[k] = fhs[0].Filename
			}
		}
		return rec, nil
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		return nil, err
	}

	rec := Record{}
	if len(body) > 0 {
		if err := json.Unmarshal(body, &rec); err != nil {
			return nil, err
		}
	}
	for k, v := range rec {
		if str, ok := v.(string); ok {
			rec[k] = s.coerce(k, str)
		}
	}
	return rec, nil
}

func (s *Server) coerce(field, value string) any {
	switch {
	case s.bools[field]:
		return value == "true"
	case s.numbers[field]:
		n, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return float64(0)
		}
		return n
	default:
		return value
	}
}

func sortRecords(recs []Record, order string) {
	if order == "" {
		return
	}

	desc := strings.HasPrefix(order, "-")
	field := strings.TrimLeft(order, "-+")

	sort.SliceStable(recs, func(i, j int) bool {
		a := fmt.Sprint(recs[i][field])
		b := fmt.Sprint(recs[j][field])
		if desc {
			return a > b
		}
		return a < b
	})
}

func copyRecord(r Record) Record {
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string, data map[string]any) {
	if data == nil {
		data = map[string]any{}
	}
	writeJSON(w, status, map[string]any{"code": status, "message": message, "data": data})
}
