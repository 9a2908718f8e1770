package authservice

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/sushihentaime/portfolio/internal/common"
	"github.com/sushihentaime/portfolio/internal/pocketbase"
	"github.com/sushihentaime/portfolio/internal/pocketbase/pbtest"
)

func setupTestEnvironment(t *testing.T) (*Session, *pocketbase.Client, *pbtest.Server) {
	t.Helper()

	srv := pbtest.NewServer(t)
	client := pocketbase.NewClient(srv.URL, 2*time.Second)
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	s := NewSession(client, client.AuthStore(), logger)
	t.Cleanup(s.Close)

	return s, client, srv
}

type recorder struct {
	mu     sync.Mutex
	states []State
}

func (r *recorder) record(s State) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.states = append(r.states, s)
}

func (r *recorder) last() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.states) == 0 {
		return StateLoading
	}
	return r.states[len(r.states)-1]
}

func TestStart(t *testing.T) {
	testCases := []struct {
		name  string
		token string
		want  State
	}{
		{name: "no token", token: "", want: StateUnauthenticated},
		{name: "admin token", token: pbtest.NewToken(t, "admin", time.Hour), want: StateAuthenticated},
		{name: "non admin token", token: pbtest.NewToken(t, "authRecord", time.Hour), want: StateUnauthenticated},
		{name: "expired token", token: pbtest.NewToken(t, "admin", -time.Hour), want: StateUnauthenticated},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			s, client, _ := setupTestEnvironment(t)
			if tc.token != "" {
				client.AuthStore().Save(tc.token, nil)
			}

			assert.True(t, s.IsLoading())
			assert.Equal(t, StateLoading, s.State())

			s.Start()

			assert.Equal(t, tc.want, s.State())
			assert.False(t, s.IsLoading())
		})
	}
}

func TestLoginLogout(t *testing.T) {
	s, client, _ := setupTestEnvironment(t)
	s.Start()

	rec := &recorder{}
	unsubscribe := s.Subscribe(rec.record)
	defer unsubscribe()

	err := s.Login(context.Background(), pbtest.AdminEmail, pbtest.AdminPassword)
	require.NoError(t, err)

	assert.True(t, s.IsAuthenticated())
	assert.Empty(t, s.Error())
	assert.Equal(t, client.AuthStore().Token(), s.Token())
	assert.Equal(t, StateAuthenticated, rec.last())

	s.Logout()

	assert.False(t, s.IsAuthenticated())
	assert.Empty(t, s.Error())
	assert.Empty(t, s.Token())
	assert.Empty(t, client.AuthStore().Token())
	assert.Equal(t, StateUnauthenticated, rec.last())
}

func TestLoginFailure(t *testing.T) {
	testCases := []struct {
		name        string
		email       string
		password    string
		expectedErr error
		wantMessage string
	}{
		{
			name:        "wrong password",
			email:       pbtest.AdminEmail,
			password:    "wrong-password",
			expectedErr: ErrAuthenticationFailure,
			wantMessage: "invalid email or password",
		},
		{
			name:        "invalid email",
			email:       "not-an-email",
			password:    "whatever",
			expectedErr: common.ValidationError{Errors: map[string]string{"email": "must be a valid email address"}},
			wantMessage: common.ValidationError{Errors: map[string]string{"email": "must be a valid email address"}}.Error(),
		},
		{
			name:        "empty password",
			email:       pbtest.AdminEmail,
			password:    "",
			expectedErr: common.ValidationError{Errors: map[string]string{"password": "must be provided"}},
			wantMessage: common.ValidationError{Errors: map[string]string{"password": "must be provided"}}.Error(),
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			s, _, _ := setupTestEnvironment(t)
			s.Start()

			err := s.Login(context.Background(), tc.email, tc.password)
			require.Error(t, err)

			var verr common.ValidationError
			if errors.As(tc.expectedErr, &verr) {
				assert.Equal(t, tc.expectedErr, err)
			} else {
				assert.ErrorIs(t, err, tc.expectedErr)
			}

			assert.False(t, s.IsAuthenticated())
			assert.False(t, s.IsLoading())
			assert.Equal(t, tc.wantMessage, s.Error())

			s.ClearError()
			assert.Empty(t, s.Error())
		})
	}
}

func TestLoginBackendUnreachable(t *testing.T) {
	client := pocketbase.NewClient("http://127.0.0.1:1", time.Second)
	s := NewSession(client, client.AuthStore(), nil)
	s.Start()
	defer s.Close()

	err := s.Login(context.Background(), pbtest.AdminEmail, pbtest.AdminPassword)
	assert.ErrorIs(t, err, pocketbase.ErrNetwork)
	assert.Equal(t, "the content backend could not be reached", s.Error())
	assert.Equal(t, StateUnauthenticated, s.State())
}

func TestLogoutClearsError(t *testing.T) {
	s, _, _ := setupTestEnvironment(t)
	s.Start()

	_ = s.Login(context.Background(), pbtest.AdminEmail, "wrong-password")
	require.NotEmpty(t, s.Error())

	s.Logout()
	assert.Empty(t, s.Error())
	assert.Equal(t, StateUnauthenticated, s.State())
}

func TestTokenExpiryDropsSession(t *testing.T) {
	s, client, srv := setupTestEnvironment(t)
	srv.SetTokenTTL(1500 * time.Millisecond)
	s.Start()

	require.NoError(t, s.Login(context.Background(), pbtest.AdminEmail, pbtest.AdminPassword))
	require.True(t, s.IsAuthenticated())

	dropped := make(chan struct{}, 1)
	s.Subscribe(func(state State) {
		if state == StateUnauthenticated {
			select {
			case dropped <- struct{}{}:
			default:
			}
		}
	})

	select {
	case <-dropped:
	case <-time.After(5 * time.Second):
		t.Fatal("expected the session to drop when the token expired")
	}

	assert.False(t, s.IsAuthenticated())
	assert.Empty(t, client.AuthStore().Token())
}

func TestOutOfBandTokenChange(t *testing.T) {
	s, client, _ := setupTestEnvironment(t)
	s.Start()
	require.False(t, s.IsAuthenticated())

	client.AuthStore().Save(pbtest.NewToken(t, "admin", time.Hour), nil)
	assert.True(t, s.IsAuthenticated())

	client.AuthStore().Clear()
	assert.False(t, s.IsAuthenticated())

	s.Close()
	client.AuthStore().Save(pbtest.NewToken(t, "admin", time.Hour), nil)
	assert.False(t, s.IsAuthenticated(), "a closed session no longer follows the store")
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "loading", StateLoading.String())
	assert.Equal(t, "unauthenticated", StateUnauthenticated.String())
	assert.Equal(t, "authenticated", StateAuthenticated.String())
}
