package session

import (
	"context"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/healthsys/go-health-admin/authapi"
	"github.com/healthsys/go-health-admin/storage"
	"github.com/healthsys/go-health-admin/token"
	"github.com/healthsys/go-health-admin/users"
)

// State describes where the session is in its lifecycle
type State string

const (
	StateAnonymous      State = "anonymous"      // No tokens held
	StateAuthenticating State = "authenticating" // Login in flight
	StateAuthenticated  State = "authenticated"  // Token pair held
	StateRefreshing     State = "refreshing"     // Refresh in flight, access token still usable
)

// refreshKey coalesces concurrent refresh attempts onto one network call
const refreshKey = "refresh"

// AuthAPI is the slice of the auth service the session manager depends on
type AuthAPI interface {
	Login(ctx context.Context, email, password string) (*authapi.LoginResponse, error)
	Refresh(ctx context.Context, refreshToken string) (string, error)
	Logout(ctx context.Context, refreshToken string) bool
}

// Snapshot is a point-in-time copy of the session fields observed by callers
type Snapshot struct {
	AccessToken     string
	RefreshToken    string
	User            *users.UserProfile
	IsAuthenticated bool
	Loading         bool
	Error           string
}

// Manager owns the authentication context. It is the only writer of the token
// pair: all mutation flows through Login, Refresh and Logout. Concurrent
// refresh triggers share a single in-flight attempt.
type Manager struct {
	api   AuthAPI
	store storage.Store
	log   zerolog.Logger

	refreshGroup singleflight.Group
	nowTime      func() time.Time

	mu              sync.RWMutex
	accessToken     string
	refreshToken    string
	user            *users.UserProfile
	isAuthenticated bool
	loading         bool
	refreshing      bool
	errMessage      string
}

// Option modifies the Manager instance
type Option func(*Manager)

// WithNowTime sets the now time function (primarily for testing)
func WithNowTime(nowFunc func() time.Time) Option {
	return func(m *Manager) {
		m.nowTime = nowFunc
	}
}

// New creates a session manager, restoring any token pair previously persisted
// to the store. A restored access token counts as authenticated until the
// server says otherwise; the user profile is only populated by a fresh login.
func New(api AuthAPI, store storage.Store, log zerolog.Logger, options ...Option) (*Manager, error) {
	if api == nil {
		return nil, errors.New("[session.New] auth API is required")
	}
	if store == nil {
		return nil, errors.New("[session.New] store is required")
	}

	m := &Manager{
		api:     api,
		store:   store,
		log:     log,
		nowTime: time.Now,
	}

	for _, opt := range options {
		opt(m)
	}

	if accessToken, ok := store.GetItem(storage.KeyToken).(string); ok && accessToken != "" {
		m.accessToken = accessToken
		m.isAuthenticated = true
	}
	if refreshToken, ok := store.GetItem(storage.KeyRefreshToken).(string); ok && refreshToken != "" {
		m.refreshToken = refreshToken
	}

	return m, nil
}

// Login exchanges credentials for a session. A failed attempt leaves any prior
// session state untouched.
func (m *Manager) Login(ctx context.Context, email, password string) error {
	m.mu.Lock()
	m.loading = true
	m.errMessage = ""
	m.mu.Unlock()

	response, err := m.api.Login(ctx, email, password)
	if err != nil {
		m.mu.Lock()
		m.loading = false
		m.errMessage = err.Error()
		m.mu.Unlock()
		return errors.Wrap(err, "[Manager.Login] api.Login")
	}

	m.mu.Lock()
	m.accessToken = response.AccessToken
	m.refreshToken = response.RefreshToken
	user := response.User
	m.user = &user
	m.isAuthenticated = true
	m.loading = false
	m.errMessage = ""
	m.mu.Unlock()

	m.store.SetItem(storage.KeyToken, response.AccessToken)
	m.store.SetItem(storage.KeyRefreshToken, response.RefreshToken)

	m.log.Info().Str("user", response.User.Email).Msg("logged in")
	return nil
}

// Refresh exchanges the held refresh token for a new access token and returns
// it. Concurrent callers coalesce onto a single network call and all receive
// the token that call produced. Without a refresh token it fails fast, making
// no network call and leaving the session unchanged. A rejected refresh is
// terminal: the session is fully torn down and storage cleared.
func (m *Manager) Refresh(ctx context.Context) (string, error) {
	m.mu.RLock()
	refreshToken := m.refreshToken
	m.mu.RUnlock()
	if refreshToken == "" {
		return "", ErrNoRefreshToken
	}

	// The exchange must complete even if the triggering caller goes away, so
	// other pending requests still benefit from the new token.
	refreshCtx := context.WithoutCancel(ctx)

	value, err, shared := m.refreshGroup.Do(refreshKey, func() (any, error) {
		return m.doRefresh(refreshCtx)
	})
	if err != nil {
		return "", err
	}
	if shared {
		m.log.Debug().Msg("refresh coalesced with concurrent attempt")
	}
	return value.(string), nil
}

func (m *Manager) doRefresh(ctx context.Context) (string, error) {
	m.mu.Lock()
	refreshToken := m.refreshToken
	if refreshToken == "" {
		m.mu.Unlock()
		return "", ErrNoRefreshToken
	}
	m.loading = true
	m.refreshing = true
	m.mu.Unlock()

	accessToken, err := m.api.Refresh(ctx, refreshToken)
	if err != nil {
		m.log.Warn().Err(err).Msg("refresh failed, tearing down session")
		m.teardown(ErrSessionExpired.Error())
		return "", errors.Wrap(err, "[Manager.doRefresh] api.Refresh")
	}

	m.mu.Lock()
	m.accessToken = accessToken
	m.loading = false
	m.refreshing = false
	m.mu.Unlock()

	m.store.SetItem(storage.KeyToken, accessToken)
	return accessToken, nil
}

// Logout makes a best-effort server-side logout with the current refresh token
// and unconditionally clears the in-memory session and the store. Safe to call
// when already anonymous.
func (m *Manager) Logout(ctx context.Context) {
	m.mu.RLock()
	refreshToken := m.refreshToken
	m.mu.RUnlock()

	if refreshToken != "" {
		if ok := m.api.Logout(ctx, refreshToken); !ok {
			m.log.Warn().Msg("server-side logout not acknowledged")
		}
	}

	m.teardown("")
	m.log.Info().Msg("logged out")
}

// teardown clears every session field and the backing store. The four
// credentials fields (access token, refresh token, user, isAuthenticated) never
// go out of sync.
func (m *Manager) teardown(errMessage string) {
	m.mu.Lock()
	m.accessToken = ""
	m.refreshToken = ""
	m.user = nil
	m.isAuthenticated = false
	m.loading = false
	m.refreshing = false
	m.errMessage = errMessage
	m.mu.Unlock()

	m.store.Clear()
}

// AccessToken returns the current access token, or "" when anonymous
func (m *Manager) AccessToken() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.accessToken
}

// IsAuthenticated reports whether an access token is held and no terminal auth
// failure has occurred since
func (m *Manager) IsAuthenticated() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.isAuthenticated
}

// User returns the authenticated user profile, or nil
func (m *Manager) User() *users.UserProfile {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.user
}

// Snapshot returns a copy of the observable session fields
func (m *Manager) Snapshot() Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return Snapshot{
		AccessToken:     m.accessToken,
		RefreshToken:    m.refreshToken,
		User:            m.user,
		IsAuthenticated: m.isAuthenticated,
		Loading:         m.loading,
		Error:           m.errMessage,
	}
}

// State derives the lifecycle state from the session fields
func (m *Manager) State() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	switch {
	case m.refreshing:
		return StateRefreshing
	case m.loading:
		return StateAuthenticating
	case m.isAuthenticated:
		return StateAuthenticated
	default:
		return StateAnonymous
	}
}

// Error returns the last auth failure message, or ""
func (m *Manager) Error() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.errMessage
}

// ClearError dismisses the last auth failure message
func (m *Manager) ClearError() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errMessage = ""
}

// TokenExpiresWithin reports whether the held access token expires inside the
// given window. Unparseable or absent tokens report false; the 401-driven
// refresh path is the authority either way.
func (m *Manager) TokenExpiresWithin(window time.Duration) bool {
	m.mu.RLock()
	accessToken := m.accessToken
	m.mu.RUnlock()

	if accessToken == "" {
		return false
	}
	introspection, err := token.Introspect(accessToken)
	if err != nil || introspection.ExpiresAt.IsZero() {
		return false
	}
	return m.nowTime().Add(window).After(introspection.ExpiresAt)
}
