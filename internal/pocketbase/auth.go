package pocketbase

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-jose/go-jose/v4"
	"github.com/go-jose/go-jose/v4/jwt"
)

var errNoExpiry = errors.New("token has no expiry")

var tokenAlgorithms = []jose.SignatureAlgorithm{jose.HS256, jose.HS384, jose.HS512, jose.RS256, jose.ES256}

type tokenClaims struct {
	jwt.Claims
	Type string `json:"type"`
}

func NewAuthStore() *AuthStore {
	return &AuthStore{listeners: make(map[int]func(string, *Admin))}
}

// AuthWithPassword exchanges admin credentials for a token and saves it in the
// auth store.
func (c *Client) AuthWithPassword(ctx context.Context, email, password string) (*AuthResponse, error) {
	payload := map[string]string{
		"identity": email,
		"password": password,
	}

	var res AuthResponse
	err := c.send(ctx, http.MethodPost, "/api/admins/auth-with-password", nil, payload, &res)
	if err != nil {
		var apiErr *APIError
		// the backend answers bad credentials with a plain 400
		if errors.As(err, &apiErr) && apiErr.Status == http.StatusBadRequest {
			return nil, fmt.Errorf("%w: %s", ErrAuth, apiErr.Message)
		}
		return nil, err
	}

	if res.Token == "" {
		return nil, fmt.Errorf("%w: empty token in response", ErrAuth)
	}

	if res.Admin == nil {
		res.Admin = &Admin{}
	}
	res.Admin.Type = PrincipalAdmin

	c.store.Save(res.Token, res.Admin)

	return &res, nil
}

func parseToken(token string) (*tokenClaims, error) {
	tok, err := jwt.ParseSigned(token, tokenAlgorithms)
	if err != nil {
		return nil, err
	}

	var claims tokenClaims
	if err := tok.UnsafeClaimsWithoutVerification(&claims); err != nil {
		return nil, err
	}

	return &claims, nil
}

func tokenExpiry(token string) (time.Time, error) {
	claims, err := parseToken(token)
	if err != nil {
		return time.Time{}, err
	}
	if claims.Expiry == nil {
		return time.Time{}, errNoExpiry
	}
	return claims.Expiry.Time(), nil
}

func (s *AuthStore) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

func (s *AuthStore) Model() *Admin {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.model
}

// IsValid reports whether a token is stored and has not expired.
func (s *AuthStore) IsValid() bool {
	token := s.Token()
	if token == "" {
		return false
	}

	exp, err := tokenExpiry(token)
	if err != nil {
		return false
	}

	return time.Now().Before(exp)
}

// Principal returns the principal type of the stored session. The token's "type"
// claim takes precedence over the saved model.
func (s *AuthStore) Principal() string {
	s.mu.RLock()
	token, model := s.token, s.model
	s.mu.RUnlock()

	if token == "" {
		return ""
	}

	if claims, err := parseToken(token); err == nil && claims.Type != "" {
		return claims.Type
	}

	if model != nil {
		return model.Type
	}

	return ""
}

// IsAdmin reports a valid session whose principal is an admin.
func (s *AuthStore) IsAdmin() bool {
	return s.IsValid() && s.Principal() == PrincipalAdmin
}

// Save stores the token and model and notifies listeners. When the token carries
// an expiry the store clears itself once it lapses.
func (s *AuthStore) Save(token string, model *Admin) {
	s.mu.Lock()
	s.token = token
	s.model = model
	s.stopTimerLocked()

	if exp, err := tokenExpiry(token); err == nil {
		if d := time.Until(exp); d > 0 {
			s.timer = time.AfterFunc(d, func() { s.expire(token) })
		}
	}
	s.mu.Unlock()

	s.notify(token, model)
}

// Clear removes the stored token and notifies listeners.
func (s *AuthStore) Clear() {
	s.mu.Lock()
	s.token = ""
	s.model = nil
	s.stopTimerLocked()
	s.mu.Unlock()

	s.notify("", nil)
}

func (s *AuthStore) expire(token string) {
	s.mu.Lock()
	if s.token != token {
		s.mu.Unlock()
		return
	}
	s.token = ""
	s.model = nil
	s.timer = nil
	s.mu.Unlock()

	s.notify("", nil)
}

func (s *AuthStore) stopTimerLocked() {
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
}

// OnChange registers fn to be called after every save, clear or expiry. The
// returned func removes the listener.
func (s *AuthStore) OnChange(fn func(token string, model *Admin)) func() {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.listeners, id)
		s.mu.Unlock()
	}
}

func (s *AuthStore) notify(token string, model *Admin) {
	s.mu.RLock()
	fns := make([]func(string, *Admin), 0, len(s.listeners))
	for _, fn := range s.listeners {
		fns = append(fns, fn)
	}
	s.mu.RUnlock()

	for _, fn := range fns {
		fn(token, model)
	}
}
