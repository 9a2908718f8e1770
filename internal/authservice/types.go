package authservice

import (
	"context"
	"log/slog"
	"sync"

	"github.com/sushihentaime/portfolio/internal/pocketbase"
)

type State int

const (
	StateLoading State = iota
	StateUnauthenticated
	StateAuthenticated
)

func (s State) String() string {
	switch s {
	case StateLoading:
		return "loading"
	case StateUnauthenticated:
		return "unauthenticated"
	case StateAuthenticated:
		return "authenticated"
	default:
		return "unknown"
	}
}

// Authenticator exchanges admin credentials for a token. A successful exchange
// is expected to update the TokenStore.
type Authenticator interface {
	AuthWithPassword(ctx context.Context, email, password string) (*pocketbase.AuthResponse, error)
}

// TokenStore is the token holder the session observes.
type TokenStore interface {
	Token() string
	IsValid() bool
	IsAdmin() bool
	Clear()
	OnChange(fn func(token string, model *pocketbase.Admin)) func()
}

// Session tracks whether the process holds a valid admin login. Observers
// registered with Subscribe are called on every state or error change.
type Session struct {
	auth   Authenticator
	store  TokenStore
	logger *slog.Logger

	mu          sync.Mutex
	state       State
	loggingIn   bool
	err         string
	unsubscribe func()
	observers   map[int]func(State)
	nextID      int
}
