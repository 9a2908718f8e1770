package authservice

import (
	"context"
	"errors"
	"log/slog"

	"github.com/sushihentaime/portfolio/internal/common"
	"github.com/sushihentaime/portfolio/internal/pocketbase"
)

var (
	ErrAuthenticationFailure = errors.New("invalid email or password")
)

func NewSession(auth Authenticator, store TokenStore, logger *slog.Logger) *Session {
	if logger == nil {
		logger = slog.Default()
	}

	return &Session{
		auth:      auth,
		store:     store,
		logger:    logger,
		state:     StateLoading,
		observers: make(map[int]func(State)),
	}
}

// Start evaluates the stored token and follows the token store from then on,
// so an expired or cleared token drops the session without a call to Logout.
func (s *Session) Start() {
	s.mu.Lock()
	if s.unsubscribe == nil {
		s.unsubscribe = s.store.OnChange(func(string, *pocketbase.Admin) {
			s.refresh()
		})
	}
	s.mu.Unlock()

	s.refresh()
}

// Close detaches the session from the token store.
func (s *Session) Close() {
	s.mu.Lock()
	unsubscribe := s.unsubscribe
	s.unsubscribe = nil
	s.mu.Unlock()

	if unsubscribe != nil {
		unsubscribe()
	}
}

func (s *Session) refresh() {
	next := StateUnauthenticated
	if s.store.IsValid() && s.store.IsAdmin() {
		next = StateAuthenticated
	}

	s.mu.Lock()
	changed := s.state != next
	s.state = next
	s.mu.Unlock()

	if changed {
		s.notify()
	}
}

// Login exchanges the credentials for an admin token. On failure the error is
// recorded on the session and returned.
func (s *Session) Login(ctx context.Context, email, password string) error {
	v := common.NewValidator()
	validateEmail(v, email)
	validatePassword(v, password)
	if !v.Valid() {
		err := v.ValidationError()
		s.fail(err)
		return err
	}

	s.mu.Lock()
	s.err = ""
	s.loggingIn = true
	s.mu.Unlock()
	s.notify()

	_, err := s.auth.AuthWithPassword(ctx, email, password)
	if err != nil {
		if errors.Is(err, pocketbase.ErrAuth) {
			err = errors.Join(ErrAuthenticationFailure, err)
		}
		s.logger.Error("admin login failed", slog.String("email", email), slog.String("error", err.Error()))
		s.fail(err)
		return err
	}

	next := StateUnauthenticated
	if s.store.IsValid() && s.store.IsAdmin() {
		next = StateAuthenticated
	}

	s.mu.Lock()
	s.loggingIn = false
	s.state = next
	s.mu.Unlock()
	s.notify()

	if next != StateAuthenticated {
		err := ErrAuthenticationFailure
		s.fail(err)
		return err
	}

	s.logger.Info("admin logged in", slog.String("email", email))

	return nil
}

func (s *Session) fail(err error) {
	s.mu.Lock()
	s.loggingIn = false
	s.err = errorMessage(err)
	if s.state != StateAuthenticated {
		s.state = StateUnauthenticated
	}
	s.mu.Unlock()
	s.notify()
}

func errorMessage(err error) string {
	switch {
	case errors.Is(err, ErrAuthenticationFailure):
		return ErrAuthenticationFailure.Error()
	case errors.Is(err, pocketbase.ErrNetwork):
		return "the content backend could not be reached"
	default:
		return err.Error()
	}
}

// Logout clears the stored token and any recorded error.
func (s *Session) Logout() {
	s.mu.Lock()
	s.err = ""
	s.mu.Unlock()

	s.store.Clear()

	s.mu.Lock()
	s.state = StateUnauthenticated
	s.mu.Unlock()
	s.notify()
}

func (s *Session) ClearError() {
	s.mu.Lock()
	changed := s.err != ""
	s.err = ""
	s.mu.Unlock()

	if changed {
		s.notify()
	}
}

// Error returns the message of the last failed login, or "".
func (s *Session) Error() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Session) IsAuthenticated() bool {
	return s.State() == StateAuthenticated
}

// IsLoading reports whether the first token check or a login is in flight.
func (s *Session) IsLoading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state == StateLoading || s.loggingIn
}

// Token returns the backend token while the session is authenticated.
func (s *Session) Token() string {
	if !s.IsAuthenticated() {
		return ""
	}
	return s.store.Token()
}

// Subscribe registers fn to be called with the current state after every
// change. The returned function removes it.
func (s *Session) Subscribe(fn func(State)) func() {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.observers[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.observers, id)
		s.mu.Unlock()
	}
}

func (s *Session) notify() {
	s.mu.Lock()
	state := s.state
	fns := make([]func(State), 0, len(s.observers))
	for _, fn := range s.observers {
		fns = append(fns, fn)
	}
	s.mu.Unlock()

	for _, fn := range fns {
		fn(state)
	}
}
